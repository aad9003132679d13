package v1alpha1

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/sertech/docflow/internal/events"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// BatchForm asks for a validation sweep over document folders.
type BatchForm struct {
	Roots []string `json:"roots" validate:"min=1"`
}

// (POST /api/v1/documents/validate-batch)
// The sweep runs in the background; progress and the final summary are
// published on the event stream.
func (h *ServiceHandler) StartBatchValidation(w http.ResponseWriter, r *http.Request) {
	form := BatchForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(form.Roots) == 0 {
		renderError(w, r, http.StatusBadRequest, errors.New("at least one root folder is required"))
		return
	}

	go func() {
		// detached from the request: the batch outlives the HTTP exchange
		summary, err := h.batches.Run(context.Background(), form.Roots, h.batchConcurrency)
		if err != nil {
			h.logger.Errorf("batch validation failed: %v", err)
			h.hub.Emit("batch", events.NewLog("batch", "batch validation failed: "+err.Error()))
			return
		}
		h.logger.Infof("batch validation finished: %d ok, %d failed", summary.SuccessCount, summary.ErrorCount)
	}()

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "started"})
}

// AnalyzeForm is a free-form analysis of one document.
type AnalyzeForm struct {
	FilePath string `json:"file_path" validate:"required"`
	MimeType string `json:"mime_type"`
	Prompt   string `json:"prompt" validate:"required"`
}

// (POST /api/v1/documents/analyze)
func (h *ServiceHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	form := AnalyzeForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if form.FilePath == "" || form.Prompt == "" {
		renderError(w, r, http.StatusBadRequest, errors.New("file_path and prompt are required"))
		return
	}

	analysis, err := h.documents.AnalyzeDocument(r.Context(), form.FilePath, form.MimeType, form.Prompt)
	if err != nil {
		renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	render.JSON(w, r, map[string]string{"analysis": analysis})
}
