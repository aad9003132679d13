// Package v1alpha1 is the control plane's HTTP surface.
package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/batch"
	"github.com/sertech/docflow/internal/events"
	"github.com/sertech/docflow/internal/handlers/validator"
	"github.com/sertech/docflow/internal/service"
	"github.com/sertech/docflow/internal/store"
)

type ServiceHandler struct {
	executions        *service.ExecutionService
	documents         *service.DocumentService
	batches           *batch.Executor
	store             store.Store
	hub               *events.Hub
	batchConcurrency  int64
	runValidator      *validator.Validator
	scheduleValidator *validator.Validator
	logger            *zap.SugaredLogger
}

func NewServiceHandler(
	executions *service.ExecutionService,
	documents *service.DocumentService,
	batches *batch.Executor,
	st store.Store,
	hub *events.Hub,
	batchConcurrency int64,
) *ServiceHandler {
	runValidator := validator.NewValidator()
	runValidator.Register(validator.NewRunValidationRules()...)

	scheduleValidator := validator.NewValidator()
	scheduleValidator.Register(validator.NewScheduleValidationRules()...)

	return &ServiceHandler{
		executions:        executions,
		documents:         documents,
		batches:           batches,
		store:             st,
		hub:               hub,
		batchConcurrency:  batchConcurrency,
		runValidator:      runValidator,
		scheduleValidator: scheduleValidator,
		logger:            zap.S().Named("handlers"),
	}
}

func (h *ServiceHandler) Routes(router chi.Router) {
	router.Get("/health", h.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", h.CreateRun)
		r.Get("/executions", h.ListExecutions)

		r.Post("/documents/validate-batch", h.StartBatchValidation)
		r.Post("/documents/analyze", h.AnalyzeDocument)

		r.Get("/societies", h.ListSocieties)
		r.Post("/societies", h.CreateSociety)
		r.Put("/societies/{taxID}", h.UpdateSociety)
		r.Delete("/societies/{taxID}", h.DeleteSociety)

		r.Get("/sap-accounts", h.ListSapAccounts)
		r.Post("/sap-accounts", h.CreateSapAccount)
		r.Put("/sap-accounts/{user}/activate", h.ActivateSapAccount)
		r.Delete("/sap-accounts/{user}", h.DeleteSapAccount)

		r.Get("/schedules", h.ListSchedules)
		r.Post("/schedules", h.CreateSchedule)
		r.Put("/schedules/{id}", h.UpdateSchedule)
		r.Delete("/schedules/{id}", h.DeleteSchedule)

		r.Post("/reports/clean", h.CleanReport)
		r.Post("/reports/filter", h.FilterReport)

		r.Get("/events", h.StreamEvents)
	})
}

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}
