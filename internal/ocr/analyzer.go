// Package ocr holds the document-analysis surface: the opaque analyzer
// capability and the business classification rules for purchase documents.
package ocr

import "context"

// FirstPageAnalysis is what the analyzer extracts from the first page of a
// purchase document.
type FirstPageAnalysis struct {
	OrderNumber  string `json:"oc_number,omitempty"`
	Class        string `json:"document_class,omitempty"`
	Denomination string `json:"denomination,omitempty"`
}

// Validation is the outcome of checking a document package against the
// requirement set selected by its order-number prefix.
type Validation struct {
	Status           string   `json:"validation_status"`
	PresentDocuments []string `json:"present_documents,omitempty"`
	MissingDocuments []string `json:"missing_documents,omitempty"`
	Compliant        bool     `json:"is_compliant"`
	Observations     string   `json:"observations,omitempty"`
	Reason           string   `json:"reason,omitempty"`
}

const (
	ValidationPerformed = "performed"
	ValidationSkipped   = "skipped"
)

// Analyzer is the opaque document AI capability. The concrete implementation
// (a visual model behind the execution plane) is not part of this module.
type Analyzer interface {
	// AnalyzeFirstPage scans the first page of the document for an order number.
	AnalyzeFirstPage(ctx context.Context, path string) (*FirstPageAnalysis, error)
	// ValidateRequirements checks the full document against the rule set
	// selected by the order-number prefix.
	ValidateRequirements(ctx context.Context, path string, orderNumber string) (*Validation, error)
	// AnalyzeContent runs a free-form analysis over raw document bytes.
	AnalyzeContent(ctx context.Context, content []byte, mimeType string, prompt string) (string, error)
}
