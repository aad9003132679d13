package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/batch"
	"github.com/sertech/docflow/internal/bridge"
	"github.com/sertech/docflow/internal/exchange"
	"github.com/sertech/docflow/internal/ocr"
)

// DocumentService fronts the document-analysis worker: every operation is a
// job submitted over the exchange and awaited. It is the processor behind
// batch validation runs.
type DocumentService struct {
	documents Submitter
	logger    *zap.SugaredLogger
}

func NewDocumentService(documents Submitter) *DocumentService {
	return &DocumentService{
		documents: documents,
		logger:    zap.S().Named("documents"),
	}
}

// Make sure batch runs can use us
var _ batch.Processor = (*DocumentService)(nil)

// ExtractOrderNumber reads the order number off the document's first page.
// The worker normalizes the capture; an empty string means the page carries
// no usable number.
func (s *DocumentService) ExtractOrderNumber(ctx context.Context, path string) (string, error) {
	result, err := s.documents.SubmitAndWait(ctx, bridge.Submission{
		Action:       exchange.ActionAnalyzeFirstPage,
		ArtifactPath: path,
	})
	if err != nil {
		return "", err
	}
	if !result.Completed() {
		return "", fmt.Errorf("first-page analysis failed: %s", result.Error)
	}

	orderNumber, _ := result.Data["oc_number"].(string)
	return orderNumber, nil
}

// ValidateRequirements checks the document package against the rule set for
// its order-number prefix.
func (s *DocumentService) ValidateRequirements(ctx context.Context, path string, orderNumber string) (*ocr.Validation, error) {
	result, err := s.documents.SubmitAndWait(ctx, bridge.Submission{
		Action:       exchange.ActionValidateRequirements,
		ArtifactPath: path,
		OrderNumber:  orderNumber,
	})
	if err != nil {
		return nil, err
	}
	if !result.Completed() {
		return nil, fmt.Errorf("requirement validation failed: %s", result.Error)
	}

	validation := &ocr.Validation{}
	if err := decodeData(result.Data, validation); err != nil {
		return nil, fmt.Errorf("decoding validation result: %w", err)
	}
	return validation, nil
}

// AnalyzeDocument runs a free-form prompt over one document.
func (s *DocumentService) AnalyzeDocument(ctx context.Context, path, mimeType, prompt string) (string, error) {
	result, err := s.documents.SubmitAndWait(ctx, bridge.Submission{
		Action:       exchange.ActionAnalyzeContent,
		ArtifactPath: path,
		MimeType:     mimeType,
		Prompt:       prompt,
	})
	if err != nil {
		return "", err
	}
	if !result.Completed() {
		return "", fmt.Errorf("document analysis failed: %s", result.Error)
	}

	analysis, _ := result.Data["analysis"].(string)
	return analysis, nil
}

func decodeData(data map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
