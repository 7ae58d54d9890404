package setup

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/config"
	"github.com/snf-admission-engine/internal/database"
	"github.com/snf-admission-engine/internal/domain"
	"github.com/snf-admission-engine/internal/repository"
)

// CLI provides command-line operations for the admission engine database.
type CLI struct {
	log *logrus.Logger
}

// NewCLI creates a new operations CLI instance.
func NewCLI(logger *logrus.Logger) *CLI {
	return &CLI{log: logger}
}

// Run executes the command named by the first argument.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "migrate":
		return c.migrate(args[1:])
	case "seed":
		return c.seed(args[1:])
	case "status":
		return c.status()
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		return c.showHelp()
	}
}

// showHelp displays usage information.
func (c *CLI) showHelp() error {
	help := `
SNF Admission Engine Operations

Usage:
  admitctl <command> [options]

Commands:
  migrate         Run pending database migrations
  seed            Seed demo payer rates and cost models
  status          Show database and migration status

Examples:
  # Apply all pending migrations
  admitctl migrate

  # Roll back the most recent migration
  admitctl migrate --down

  # Seed demo contracts for a facility
  admitctl seed --facility fac-001
`
	fmt.Println(help)
	return nil
}

// loadConfig loads and validates application configuration.
func (c *CLI) loadConfig() (*config.Manager, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return manager, nil
}

// databaseURL builds the URL form of the connection string that
// golang-migrate expects.
func databaseURL(cfg domain.DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.Username), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)
}

// migrate applies pending migrations, or rolls one back with --down.
func (c *CLI) migrate(args []string) error {
	manager, err := c.loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()

	migrationsPath := "migrations"
	down := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--down":
			down = true
		case "--path", "-p":
			if i+1 < len(args) {
				migrationsPath = args[i+1]
				i++
			}
		}
	}

	runner, err := database.NewMigrationRunner(databaseURL(cfg.Database), migrationsPath, c.log)
	if err != nil {
		return fmt.Errorf("creating migration runner: %w", err)
	}
	defer runner.Close()

	ctx := context.Background()
	if down {
		return runner.Down(ctx)
	}
	return runner.Up(ctx)
}

// seed writes demo payer rates and cost models for a facility.
func (c *CLI) seed(args []string) error {
	facilityID := "fac-001"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--facility", "-f":
			if i+1 < len(args) {
				facilityID = args[i+1]
				i++
			}
		}
	}

	manager, err := c.loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()

	ctx := context.Background()
	db, err := database.NewConnection(ctx, database.ConfigFromApp(cfg.Database), c.log)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rates := repository.NewRateRepository(db.Pool, c.log)
	costModels := repository.NewCostModelRepository(db.Pool, c.log)

	if err := ApplySeed(ctx, rates, costModels, facilityID, c.log); err != nil {
		return err
	}

	fmt.Printf("Seeded demo rates and cost models for facility %s\n", facilityID)
	return nil
}

// status reports connectivity and migration version.
func (c *CLI) status() error {
	manager, err := c.loadConfig()
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()

	fmt.Println("SNF Admission Engine Status")
	fmt.Println("===========================")
	fmt.Println()
	fmt.Printf("Database: %s@%s:%d/%s\n", cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	ctx := context.Background()
	db, err := database.NewConnection(ctx, database.ConfigFromApp(cfg.Database), c.log)
	if err != nil {
		fmt.Println("Connection: FAILED")
		fmt.Printf("  %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	fmt.Println("Connection: OK")

	runner, err := database.NewMigrationRunner(databaseURL(cfg.Database), "migrations", c.log)
	if err != nil {
		return fmt.Errorf("creating migration runner: %w", err)
	}
	defer runner.Close()

	version, dirty, err := runner.Version()
	if err != nil {
		fmt.Println("Migrations: no version recorded (run `admitctl migrate`)")
		return nil
	}
	fmt.Printf("Migrations: version %d (dirty=%v)\n", version, dirty)
	return nil
}
