package v1alpha1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"

	"github.com/sertech/docflow/internal/store/model"
)

// SocietyForm creates or updates a legal entity and its portal credentials.
type SocietyForm struct {
	TaxID    string `json:"ruc" validate:"required,ruc"`
	Code     string `json:"code" validate:"required"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

// SocietyResponse never carries the credentials back out.
type SocietyResponse struct {
	TaxID  string `json:"ruc"`
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
	User   string `json:"user,omitempty"`
	Active bool   `json:"active"`
}

func societyToResponse(s model.Society) SocietyResponse {
	return SocietyResponse{TaxID: s.TaxID, Code: s.Code, Name: s.Name, User: s.User, Active: s.Active}
}

func (f SocietyForm) toModel() model.Society {
	active := true
	if f.Active != nil {
		active = *f.Active
	}
	return model.Society{
		TaxID:    f.TaxID,
		Code:     f.Code,
		Name:     f.Name,
		User:     f.User,
		Password: f.Password,
		Active:   active,
	}
}

// (GET /api/v1/societies)
func (h *ServiceHandler) ListSocieties(w http.ResponseWriter, r *http.Request) {
	societies, err := h.store.Society().List(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]SocietyResponse, 0, len(societies))
	for _, s := range societies {
		out = append(out, societyToResponse(s))
	}
	render.JSON(w, r, out)
}

// (POST /api/v1/societies)
func (h *ServiceHandler) CreateSociety(w http.ResponseWriter, r *http.Request) {
	form := SocietyForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.runValidator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	created, err := h.store.Society().Create(r.Context(), form.toModel())
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			renderError(w, r, http.StatusConflict, err)
			return
		}
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, societyToResponse(*created))
}

// (PUT /api/v1/societies/{taxID})
func (h *ServiceHandler) UpdateSociety(w http.ResponseWriter, r *http.Request) {
	form := SocietyForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	form.TaxID = chi.URLParam(r, "taxID")
	if err := h.runValidator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	updated, err := h.store.Society().Update(r.Context(), form.toModel())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderError(w, r, http.StatusNotFound, err)
			return
		}
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, societyToResponse(*updated))
}

// (DELETE /api/v1/societies/{taxID})
func (h *ServiceHandler) DeleteSociety(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Society().Delete(r.Context(), chi.URLParam(r, "taxID")); err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.NoContent(w, r)
}

// SapAccountForm creates a shared ERP credential.
type SapAccountForm struct {
	User     string `json:"user" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SapAccountResponse struct {
	User   string `json:"user"`
	Active bool   `json:"active"`
}

// (GET /api/v1/sap-accounts)
func (h *ServiceHandler) ListSapAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.SapAccount().List(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]SapAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, SapAccountResponse{User: a.User, Active: a.Active})
	}
	render.JSON(w, r, out)
}

// (POST /api/v1/sap-accounts)
func (h *ServiceHandler) CreateSapAccount(w http.ResponseWriter, r *http.Request) {
	form := SapAccountForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if form.User == "" || form.Password == "" {
		renderError(w, r, http.StatusBadRequest, errors.New("user and password are required"))
		return
	}

	created, err := h.store.SapAccount().Create(r.Context(), model.SapAccount{User: form.User, Password: form.Password})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			renderError(w, r, http.StatusConflict, err)
			return
		}
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SapAccountResponse{User: created.User, Active: created.Active})
}

// (PUT /api/v1/sap-accounts/{user}/activate)
func (h *ServiceHandler) ActivateSapAccount(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	if err := h.store.SapAccount().SetActive(r.Context(), user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderError(w, r, http.StatusNotFound, err)
			return
		}
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, SapAccountResponse{User: user, Active: true})
}

// (DELETE /api/v1/sap-accounts/{user})
func (h *ServiceHandler) DeleteSapAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SapAccount().Delete(r.Context(), chi.URLParam(r, "user")); err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.NoContent(w, r)
}

// ScheduleForm configures an automatic run.
type ScheduleForm struct {
	Name      string   `json:"name" validate:"required"`
	Time      string   `json:"time" validate:"required,clock"`
	Days      []string `json:"days" validate:"min=1,dive,weekday"`
	Societies []string `json:"societies" validate:"dive,ruc"`
	Active    *bool    `json:"active"`
}

type ScheduleResponse struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Time      string   `json:"time"`
	Days      []string `json:"days"`
	Societies []string `json:"societies,omitempty"`
	Active    bool     `json:"active"`
}

func scheduleToResponse(r model.ScheduleRule) ScheduleResponse {
	return ScheduleResponse{
		ID:        r.ID,
		Name:      r.Name,
		Time:      r.Time,
		Days:      r.DayList(),
		Societies: r.SocietyList(),
		Active:    r.Active,
	}
}

func (f ScheduleForm) toModel() model.ScheduleRule {
	active := true
	if f.Active != nil {
		active = *f.Active
	}
	return model.ScheduleRule{
		Name:      f.Name,
		Time:      f.Time,
		Days:      strings.Join(f.Days, ","),
		Societies: strings.Join(f.Societies, ","),
		Active:    active,
	}
}

// (GET /api/v1/schedules)
func (h *ServiceHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.Schedule().List(r.Context())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]ScheduleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, scheduleToResponse(rule))
	}
	render.JSON(w, r, out)
}

// (POST /api/v1/schedules)
func (h *ServiceHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	form := ScheduleForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.scheduleValidator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	created, err := h.store.Schedule().Create(r.Context(), form.toModel())
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, scheduleToResponse(*created))
}

// (PUT /api/v1/schedules/{id})
func (h *ServiceHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	form := ScheduleForm{}
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.scheduleValidator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	existing, err := h.store.Schedule().Get(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderError(w, r, http.StatusNotFound, err)
			return
		}
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	rule := form.toModel()
	rule.ID = existing.ID
	updated, err := h.store.Schedule().Update(r.Context(), rule)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.JSON(w, r, scheduleToResponse(*updated))
}

// (DELETE /api/v1/schedules/{id})
func (h *ServiceHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.store.Schedule().Delete(r.Context(), uint(id)); err != nil {
		renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.NoContent(w, r)
}
