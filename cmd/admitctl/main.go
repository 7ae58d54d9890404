package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/setup"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{})

	cli := setup.NewCLI(logger)
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
