package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/domain"
)

// clinicalCategory is one entry in the ordered clinical-category table.
// The list is scanned in order and the first prefix match wins, so the
// ordering is part of the classification semantics and must not be
// replaced with a map.
type clinicalCategory struct {
	Name     string
	Prefixes []string
}

// clinicalCategories maps ICD-10 code prefixes to PDPM clinical categories.
// Simplified mapping; production systems load the full CMS crosswalk.
var clinicalCategories = []clinicalCategory{
	{"major_joint", []string{"Z96.6", "M96.6", "Z47.1", "T84"}},
	{"non_surgical_ortho", []string{"M16", "M17", "M19", "M25", "M54", "S72", "S82"}},
	{"acute_infections", []string{"A40", "A41", "J15", "J18", "L03", "N39.0"}},
	{"cardiovascular", []string{"I50", "I48", "I21", "I63", "I25", "I10"}},
	{"pulmonary", []string{"J44", "J96", "J45", "J81"}},
	{"surgery_neuro", []string{"I60", "I61", "I62", "G81", "G83"}},
}

// therapyGroupByCategory maps a clinical category to the PT/OT group.
var therapyGroupByCategory = map[string]domain.TherapyGroup{
	"major_joint":        domain.TherapyTA,
	"non_surgical_ortho": domain.TherapyTB,
	"acute_infections":   domain.TherapyTC,
	"surgery_neuro":      domain.TherapyTC,
	"cardiovascular":     domain.TherapyTD,
	"pulmonary":          domain.TherapyTD,
}

// nursingGroupByCategory maps a clinical category to the nursing group when
// no extensive-service override applies.
var nursingGroupByCategory = map[string]domain.NursingGroup{
	"surgery_neuro":      domain.NursingHBS1,
	"major_joint":        domain.NursingHBS1,
	"cardiovascular":     domain.NursingHBS2,
	"pulmonary":          domain.NursingHBS2,
	"non_surgical_ortho": domain.NursingLBS1,
	"acute_infections":   domain.NursingLBS2,
}

// slpConditionPrefixes are ICD-10 prefixes indicating SLP involvement:
// dysphagia, speech disturbances, symbolic dysfunctions, language
// disorders, and CVA sequelae.
var slpConditionPrefixes = []string{"R13", "R47", "R48", "F80", "I69"}

// ntaPointsByPrefix maps ICD-10 prefixes to NTA comorbidity point values.
// Longer prefixes are listed alongside shorter ones; every matching prefix
// contributes its points, and the total is clamped afterwards.
var ntaPointsByPrefix = []struct {
	Prefix string
	Points int
}{
	{"J15", 5},    // pneumonia
	{"J18", 5},    // pneumonia
	{"A40", 6},    // septicemia
	{"A41", 6},    // septicemia
	{"E11", 3},    // diabetes
	{"E10", 3},    // diabetes
	{"J44", 4},    // copd
	{"N39.0", 4},  // uti
	{"I50", 5},    // chf
	{"B20", 6},    // hiv
	{"G35", 6},    // multiple sclerosis
	{"G20", 5},    // parkinsons
	{"G81", 6},    // hemiplegia
	{"R47.01", 5}, // aphasia
	{"E46", 4},    // malnutrition
	{"F32", 3},    // depression
	{"F31", 4},    // bipolar
	{"F20", 4},    // schizophrenia
}

// losBaseByTherapyGroup is the baseline LOS estimate per therapy group,
// used only when no measured LOS is supplied.
var losBaseByTherapyGroup = map[domain.TherapyGroup]int{
	domain.TherapyTA: 12,
	domain.TherapyTB: 14,
	domain.TherapyTC: 18,
	domain.TherapyTD: 16,
	domain.TherapyTE: 15,
}

const defaultLOSEstimate = 15

// Classifier maps clinical features to PDPM payment groups.
// It is stateless apart from its logger; all lookup tables are package-level
// immutable constants, so concurrent use needs no coordination.
type Classifier struct {
	logger       *logrus.Logger
	es1ADLCutoff int
}

// DefaultES1ADLCutoff is the ADL score at or above which extensive-service
// patients classify as ES1 instead of ES2.
const DefaultES1ADLCutoff = 15

// NewClassifier creates a PDPM classifier with the standard ES1 ADL cutoff.
func NewClassifier(logger *logrus.Logger) *Classifier {
	return NewClassifierWithCutoff(logger, DefaultES1ADLCutoff)
}

// NewClassifierWithCutoff creates a PDPM classifier with a facility-specific
// ES1 ADL cutoff.
func NewClassifierWithCutoff(logger *logrus.Logger, es1ADLCutoff int) *Classifier {
	return &Classifier{logger: logger, es1ADLCutoff: es1ADLCutoff}
}

// Classify assigns PDPM payment groups from clinical features. It is a total
// function over well-formed input; missing optional fields fall back to the
// documented defaults (TE therapy, LBS2 nursing, "None" SLP, NTA 0).
func (c *Classifier) Classify(features *domain.ClinicalFeatures) (*domain.PDPMGroups, error) {
	allCodes := append([]string{features.PrimaryDiagnosis}, features.Comorbidities...)
	category := lookupClinicalCategory(allCodes)

	therapyGroup := domain.TherapyTE
	if g, ok := therapyGroupByCategory[category]; ok {
		therapyGroup = g
	}

	nursingGroup := c.classifyNursingGroup(category, features)
	slpGroup := domain.SLPGroupNone
	if hasSLPComorbidity(features.Comorbidities) || features.TherapyNeeds.SLP {
		slpGroup = domain.SLPGroup
	}

	groups := &domain.PDPMGroups{
		PTGroup:          therapyGroup,
		OTGroup:          therapyGroup,
		SLPGroup:         slpGroup,
		NursingGroup:     nursingGroup,
		NTAScore:         calculateNTAScore(features.Comorbidities, features.SpecialServices),
		ClinicalCategory: category,
	}

	c.logger.WithFields(logrus.Fields{
		"clinical_category": category,
		"pt_group":          groups.PTGroup,
		"nursing_group":     groups.NursingGroup,
		"slp_group":         groups.SLPGroup,
		"nta_score":         groups.NTAScore,
	}).Debug("Classified PDPM groups")

	return groups, nil
}

// classifyNursingGroup resolves the nursing group, applying the
// extensive-services override before the category table.
func (c *Classifier) classifyNursingGroup(category string, features *domain.ClinicalFeatures) domain.NursingGroup {
	if requiresExtensiveServices(features.SpecialServices) {
		return c.extensiveServicesGroup(features.FunctionalStatus.ADLScore)
	}
	if g, ok := nursingGroupByCategory[category]; ok {
		return g
	}
	return domain.NursingLBS2
}

// requiresExtensiveServices reports whether any of the extensive-service
// flags is set. Trach, dialysis, and IV antibiotics each independently
// trigger the ES nursing override.
func requiresExtensiveServices(services domain.SpecialServices) bool {
	return services.Trach || services.Dialysis || services.IVAbx
}

// extensiveServicesGroup splits ES patients by ADL dependence: scores at or
// above the cutoff classify as ES1, everything else (including a missing
// score) as ES2. The cutoff is the single point of change for this policy.
func (c *Classifier) extensiveServicesGroup(adlScore *int) domain.NursingGroup {
	if adlScore != nil && *adlScore >= c.es1ADLCutoff {
		return domain.NursingES1
	}
	return domain.NursingES2
}

// lookupClinicalCategory scans the ordered category table and returns the
// first category with a prefix match against any code. Ties break by table
// order, which is why the table is a slice.
func lookupClinicalCategory(codes []string) string {
	for _, cat := range clinicalCategories {
		for _, code := range codes {
			for _, prefix := range cat.Prefixes {
				if strings.HasPrefix(code, prefix) {
					return cat.Name
				}
			}
		}
	}
	return "other"
}

func hasSLPComorbidity(comorbidities []string) bool {
	for _, code := range comorbidities {
		for _, prefix := range slpConditionPrefixes {
			if strings.HasPrefix(code, prefix) {
				return true
			}
		}
	}
	return false
}

// calculateNTAScore sums the NTA points of every matched comorbidity prefix,
// adds 8 for dialysis, and clamps to [0, 12].
func calculateNTAScore(comorbidities []string, services domain.SpecialServices) int {
	score := 0
	for _, code := range comorbidities {
		for _, entry := range ntaPointsByPrefix {
			if strings.HasPrefix(code, entry.Prefix) {
				score += entry.Points
			}
		}
	}
	if services.Dialysis {
		score += 8
	}
	if score > 12 {
		score = 12
	}
	if score < 0 {
		score = 0
	}
	return score
}

// EstimateLOS projects a length of stay from the therapy group baseline plus
// per-service extensions. Used only when the referral carries no estimate.
func (c *Classifier) EstimateLOS(features *domain.ClinicalFeatures) int {
	if features.EstimatedLOS > 0 {
		return features.EstimatedLOS
	}

	groups, _ := c.Classify(features)
	los, ok := losBaseByTherapyGroup[groups.PTGroup]
	if !ok {
		los = defaultLOSEstimate
	}

	if features.SpecialServices.Dialysis {
		los += 5
	}
	if features.SpecialServices.WoundVac {
		los += 3
	}
	if features.SpecialServices.Trach {
		los += 7
	}
	return los
}
