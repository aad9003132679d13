package v1alpha1

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/render"

	"github.com/sertech/docflow/internal/report"
)

// ReportCleanForm points at a downloaded ERP report to deduplicate.
type ReportCleanForm struct {
	FilePath string `json:"file_path" validate:"required"`
}

// (POST /api/v1/reports/clean)
// Writes a "_limpio" sibling workbook with duplicate rows removed.
func (h *ServiceHandler) CleanReport(w http.ResponseWriter, r *http.Request) {
	form := ReportCleanForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if form.FilePath == "" {
		renderError(w, r, http.StatusBadRequest, errors.New("file_path is required"))
		return
	}
	if _, err := os.Stat(form.FilePath); err != nil {
		renderError(w, r, http.StatusNotFound, err)
		return
	}

	cleaned, removed, err := report.Deduplicate(form.FilePath)
	if err != nil {
		renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	h.logger.Infof("cleaned report %s: %d duplicate rows removed", form.FilePath, removed)
	render.JSON(w, r, map[string]interface{}{
		"cleaned_path": cleaned,
		"removed_rows": removed,
	})
}

// ReportFilterForm narrows a report to a single emission date.
type ReportFilterForm struct {
	FilePath string `json:"file_path" validate:"required"`
	Date     string `json:"date" validate:"required"`
}

// (POST /api/v1/reports/filter)
// Rewrites the workbook in place keeping only rows for the given date.
func (h *ServiceHandler) FilterReport(w http.ResponseWriter, r *http.Request) {
	form := ReportFilterForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if form.FilePath == "" || form.Date == "" {
		renderError(w, r, http.StatusBadRequest, errors.New("file_path and date are required"))
		return
	}
	if _, err := os.Stat(form.FilePath); err != nil {
		renderError(w, r, http.StatusNotFound, err)
		return
	}

	kept, err := report.FilterByDate(form.FilePath, form.Date)
	if err != nil {
		renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"file_path": form.FilePath,
		"kept_rows": kept,
	})
}
