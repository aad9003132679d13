package ocr

import (
	_ "embed"

	"sigs.k8s.io/yaml"
)

// RequirementSet lists the documents a package must contain for one order
// type, keyed by the two-digit order-number prefix.
type RequirementSet struct {
	Prefix string `json:"prefix"`
	Kind   string `json:"kind"`
	// Required documents; all must be present for compliance.
	Required []string `json:"required"`
	// Optional documents; noted when present, never block compliance.
	Optional []string `json:"optional,omitempty"`
	// CheckSignatures asks the analyzer to verify signatures on any
	// valuation sheet it finds.
	CheckSignatures bool `json:"checkSignatures,omitempty"`
}

//go:embed rules.yaml
var rulesRaw []byte

var requirementSets map[string]RequirementSet

func init() {
	var sets []RequirementSet
	if err := yaml.Unmarshal(rulesRaw, &sets); err != nil {
		panic("ocr: invalid embedded rules.yaml: " + err.Error())
	}
	requirementSets = make(map[string]RequirementSet, len(sets))
	for _, s := range sets {
		requirementSets[s.Prefix] = s
	}
}

// RequirementsFor selects the validation rule set for an order number.
// ok is false when no rules exist for its prefix, which callers report as a
// skipped validation rather than a failure.
func RequirementsFor(orderNumber string) (RequirementSet, bool) {
	if len(orderNumber) < 2 {
		return RequirementSet{}, false
	}
	set, ok := requirementSets[orderNumber[:2]]
	return set, ok
}
