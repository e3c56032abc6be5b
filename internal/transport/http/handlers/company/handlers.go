package companyhandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tchernob/congesflow/internal/domain/auth"
	"github.com/tchernob/congesflow/internal/domain/company"
	"github.com/tchernob/congesflow/internal/transport/http/api"
	"github.com/tchernob/congesflow/internal/transport/http/middleware"
	"github.com/tchernob/congesflow/internal/transport/http/shared"
)

type Handler struct {
	Service *company.Service
}

func NewHandler(service *company.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/company", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleGetCompany)

		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/employees", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/employees", h.handleHireEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/employees/{userID}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Put("/employees/{userID}", h.handleUpdateEmployee)

		r.With(middleware.RequirePermission(auth.PermTeamsRead)).Get("/teams", h.handleListTeams)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite)).Post("/teams", h.handleCreateTeam)
		r.With(middleware.RequirePermission(auth.PermTeamsWrite)).Delete("/teams/{teamID}", h.handleDeleteTeam)

		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/contract-types", h.handleListContractTypes)
	})
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	c, err := h.Service.Store.GetCompany(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, c, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	includeInactive := r.URL.Query().Get("includeInactive") == "true" &&
		auth.HasPermission(user.Role, auth.PermEmployeesWrite)

	employees, err := h.Service.ListEmployees(r.Context(), user.CompanyID, includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

type hireEmployeePayload struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	TeamID         string `json:"teamId"`
	ManagerID      string `json:"managerId"`
	ContractTypeID string `json:"contractTypeId"`
	HireDate       string `json:"hireDate"`
}

func (h *Handler) handleHireEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload hireEmployeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Enum("role", payload.Role, []string{auth.RoleAdmin, auth.RoleHR, auth.RoleManager, auth.RoleEmployee}, "must be admin, hr, manager or employee")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	hireDate, hireOK := v.Date("hireDate", payload.HireDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if !hireOK {
		return
	}

	role := strings.ToLower(strings.TrimSpace(payload.Role))
	if role == "" {
		role = auth.RoleEmployee
	}
	roleID, err := h.Service.Store.RoleIDByName(r.Context(), role)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unknown role", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Service.HireEmployee(r.Context(), company.Employee{
		CompanyID:      user.CompanyID,
		Email:          strings.TrimSpace(payload.Email),
		FirstName:      strings.TrimSpace(payload.FirstName),
		LastName:       strings.TrimSpace(payload.LastName),
		RoleID:         roleID,
		TeamID:         payload.TeamID,
		ManagerID:      payload.ManagerID,
		ContractTypeID: payload.ContractTypeID,
		HireDate:       &hireDate,
		IsActive:       true,
	}, payload.Password, time.Now().UTC())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	emp, err := h.Service.GetEmployee(r.Context(), user.CompanyID, chi.URLParam(r, "userID"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload company.Employee
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = chi.URLParam(r, "userID")
	payload.CompanyID = user.CompanyID

	if err := h.Service.UpdateEmployee(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	teams, err := h.Service.ListTeams(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "teams_failed", "failed to list teams", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, teams, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload company.Team
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.CompanyID = user.CompanyID

	id, err := h.Service.CreateTeam(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "team_create_failed", "failed to create team", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := h.Service.DeleteTeam(r.Context(), user.CompanyID, chi.URLParam(r, "teamID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "team_delete_failed", "failed to delete team", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListContractTypes(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	types, err := h.Service.ListContractTypes(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_types_failed", "failed to list contract types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}
