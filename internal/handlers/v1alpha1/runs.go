package v1alpha1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/sertech/docflow/internal/service"
	"github.com/sertech/docflow/internal/store/model"
)

// RunForm is a manual portal run request.
type RunForm struct {
	Portal      string   `json:"portal" validate:"required,portal"`
	TaxIDs      []string `json:"rucs" validate:"dive,ruc"`
	Periods     []string `json:"periods"`
	TriggeredBy string   `json:"triggered_by"`
}

// (POST /api/v1/runs)
func (h *ServiceHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	form := RunForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.runValidator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	outcomes, err := h.executions.Run(r.Context(), service.RunRequest{
		Portal:      form.Portal,
		TaxIDs:      form.TaxIDs,
		Periods:     form.Periods,
		TriggeredBy: form.TriggeredBy,
	}, model.ExecutionManual)
	if err != nil {
		renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{"outcomes": outcomes})
}

// ExecutionResponse is one row of the execution audit trail.
type ExecutionResponse struct {
	ID          uint   `json:"id"`
	Type        string `json:"type"`
	TaxID       string `json:"ruc"`
	SocietyCode string `json:"society_code"`
	Portal      string `json:"portal"`
	TriggeredBy string `json:"triggered_by"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// (GET /api/v1/executions)
func (h *ServiceHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			renderError(w, r, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}

	records, err := h.store.Execution().List(r.Context(), limit)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]ExecutionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, ExecutionResponse{
			ID:          rec.ID,
			Type:        rec.Type,
			TaxID:       rec.TaxID,
			SocietyCode: rec.SocietyCode,
			Portal:      rec.Portal,
			TriggeredBy: rec.TriggeredBy,
			Status:      rec.Status,
			Detail:      rec.Detail,
			CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	render.JSON(w, r, out)
}
