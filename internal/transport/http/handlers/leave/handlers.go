package leavehandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/tchernob/congesflow/internal/domain/auth"
	"github.com/tchernob/congesflow/internal/domain/company"
	"github.com/tchernob/congesflow/internal/domain/leave"
	"github.com/tchernob/congesflow/internal/domain/notifications"
	"github.com/tchernob/congesflow/internal/platform/jobs"
	"github.com/tchernob/congesflow/internal/transport/http/api"
	"github.com/tchernob/congesflow/internal/transport/http/middleware"
	"github.com/tchernob/congesflow/internal/transport/http/shared"
)

type Handler struct {
	Service   *leave.Service
	Companies *company.Service
	Notify    *notifications.Service
	Jobs      *jobs.Service
}

func NewHandler(service *leave.Service, companies *company.Service, notify *notifications.Service, jobsSvc *jobs.Service) *Handler {
	return &Handler{Service: service, Companies: companies, Notify: notify, Jobs: jobsSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/types", h.handleListTypes)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/types", h.handleCreateType)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Put("/types/{typeID}", h.handleUpdateType)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/types/{typeID}/deactivate", h.handleDeactivateType)

		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermSettingsWrite)).Put("/settings", h.handleUpdateSettings)

		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermBalanceAdjust)).Post("/balances/adjust", h.handleAdjustBalance)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/balances/expiring", h.handleExpiringBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/balances/{userID}/initialize", h.handleInitializeBalances)

		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)

		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Get("/rules", h.handleListRules)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/rules", h.handleCreateRule)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Put("/rules/{ruleID}", h.handleUpdateRule)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Delete("/rules/{ruleID}", h.handleDeleteRule)

		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Get("/blocked-periods", h.handleListBlockedPeriods)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/blocked-periods", h.handleCreateBlockedPeriod)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Put("/blocked-periods/{periodID}", h.handleUpdateBlockedPeriod)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Delete("/blocked-periods/{periodID}", h.handleDeleteBlockedPeriod)

		r.With(middleware.RequirePermission(auth.PermJobsRun)).Post("/jobs/accrual", h.handleRunAccruals)
		r.With(middleware.RequirePermission(auth.PermJobsRun)).Post("/jobs/rollover", h.handleRunRollovers)

		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/calendar", h.handleCalendar)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/calendar/export", h.handleCalendarExport)
		r.With(middleware.RequirePermission(auth.PermReportsRead)).Get("/reports/balances.pdf", h.handleBalanceReportPDF)
	})
}

// failDomain translates the service sentinels into HTTP responses so
// every handler maps them the same way.
func failDomain(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "request is not in a state allowing this action", requestID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", "not enough days available", requestID)
	case errors.Is(err, leave.ErrBlockedPeriod):
		api.Fail(w, http.StatusConflict, "blocked_period", "the requested dates fall in a blocked period", requestID)
	case errors.Is(err, leave.ErrStartDateInPast):
		api.Fail(w, http.StatusBadRequest, "start_date_in_past", "start date must not be in the past", requestID)
	case errors.Is(err, leave.ErrInvalidDateRange):
		api.Fail(w, http.StatusBadRequest, "invalid_dates", "invalid or overlapping date range", requestID)
	case errors.Is(err, leave.ErrJustificationNeeded):
		api.Fail(w, http.StatusBadRequest, "justification_required", "this leave type requires a justification", requestID)
	case errors.Is(err, leave.ErrMaxConsecutiveDays):
		api.Fail(w, http.StatusBadRequest, "max_consecutive_days", "request exceeds the maximum consecutive days for this type", requestID)
	case errors.Is(err, leave.ErrCancelWindowClosed):
		api.Fail(w, http.StatusBadRequest, "cancel_window_closed", "approved leave can only be cancelled before it starts", requestID)
	case errors.Is(err, leave.ErrProtectedLeaveType):
		api.Fail(w, http.StatusBadRequest, "protected_type", "statutory leave types cannot be deactivated", requestID)
	case errors.Is(err, leave.ErrBalanceNotFound), errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "operation failed", requestID)
	}
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	includeInactive := r.URL.Query().Get("includeInactive") == "true" &&
		auth.HasPermission(user.Role, auth.PermLeaveAdmin)

	types, err := h.Service.Store.ListTypes(r.Context(), user.CompanyID, includeInactive)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("code", payload.Code, "code is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.IsActive = true

	id, err := h.Service.Store.CreateType(r.Context(), user.CompanyID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_type_create_failed", "failed to create leave type", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.LeaveType
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = chi.URLParam(r, "typeID")

	if err := h.Service.Store.UpdateType(r.Context(), user.CompanyID, payload); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateType(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := h.Service.DeactivateType(r.Context(), user.CompanyID, chi.URLParam(r, "typeID")); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deactivated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	settings, err := h.Service.Store.GetSettings(r.Context(), user.CompanyID)
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.CompanyID = user.CompanyID

	v := shared.NewValidator()
	if !payload.ApprovalWorkflow.Valid() {
		v.Add("approvalWorkflow", "must be one of manager_then_hr, manager_only, hr_only, manager_or_hr")
	}
	switch payload.PeriodType {
	case leave.PeriodCalendar, leave.PeriodLegal:
	case leave.PeriodCustom:
		if payload.CustomPeriodStartMon < 1 || payload.CustomPeriodStartMon > 12 {
			v.Add("customPeriodStartMonth", "must be between 1 and 12")
		}
		if payload.CustomPeriodStartDay < 1 || payload.CustomPeriodStartDay > 31 {
			v.Add("customPeriodStartDay", "must be between 1 and 31")
		}
	default:
		v.Add("periodType", "must be one of calendar, legal, custom")
	}
	if payload.MaxNegativeDays.IsNegative() {
		v.Add("maxNegativeDays", "must not be negative")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.Store.UpdateSettings(r.Context(), payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "settings_update_failed", "failed to update settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

// resolveTargetUser applies visibility rules to the userId query param:
// employees always act on themselves, managers on themselves or their
// reports, HR and admins on anyone in the company.
func (h *Handler) resolveTargetUser(ctx context.Context, user middleware.UserContext, requested string) (string, error) {
	if requested == "" || requested == user.UserID {
		return user.UserID, nil
	}
	switch user.Role {
	case auth.RoleHR, auth.RoleAdmin:
		return requested, nil
	case auth.RoleManager:
		emp, err := h.Service.Store.GetEmployeeInfo(ctx, user.CompanyID, requested)
		if err != nil {
			return "", err
		}
		if emp.ManagerID != user.UserID {
			return "", leave.ErrForbidden
		}
		return requested, nil
	default:
		return "", leave.ErrForbidden
	}
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	targetID, err := h.resolveTargetUser(r.Context(), user, r.URL.Query().Get("userId"))
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	views, err := h.Service.BalanceViews(r.Context(), user.CompanyID, targetID, time.Now().UTC())
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, views, middleware.GetRequestID(r.Context()))
}

type adjustBalancePayload struct {
	UserID      string `json:"userId"`
	LeaveTypeID string `json:"leaveTypeId"`
	Year        int    `json:"year"`
	Amount      string `json:"amount"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload adjustBalancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("userId", payload.UserID, "user id is required")
	v.Required("leaveTypeId", payload.LeaveTypeID, "leave type id is required")
	v.Required("reason", payload.Reason, "reason is required")
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil || amount.IsZero() {
		v.Add("amount", "must be a non-zero decimal number of days")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	year := payload.Year
	if year == 0 {
		settings, err := h.Service.Store.GetSettings(r.Context(), user.CompanyID)
		if err != nil {
			failDomain(w, err, middleware.GetRequestID(r.Context()))
			return
		}
		year = settings.CurrentPeriodYear(time.Now().UTC())
	}

	balance, err := h.Service.AdjustBalance(r.Context(), user.CompanyID, payload.UserID, payload.LeaveTypeID, year, amount, payload.Reason, user.UserID)
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExpiringBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	expiring, err := h.Service.CheckExpiringBalances(r.Context(), user.CompanyID, time.Now().UTC())
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, expiring, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleInitializeBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	userID := chi.URLParam(r, "userID")
	if err := h.Service.InitializeEmployeeBalances(r.Context(), user.CompanyID, userID, time.Now().UTC()); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "initialized"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	filter := leave.RequestFilter{}
	switch user.Role {
	case auth.RoleHR, auth.RoleAdmin:
		filter.EmployeeID = r.URL.Query().Get("userId")
	case auth.RoleManager:
		if r.URL.Query().Get("mine") == "true" {
			filter.EmployeeID = user.UserID
		} else {
			filter.ManagerID = user.UserID
		}
	default:
		filter.EmployeeID = user.UserID
	}
	if status := leave.Status(r.URL.Query().Get("status")); status != "" {
		if !status.Valid() {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid status filter", middleware.GetRequestID(r.Context()))
			return
		}
		filter.Status = status
	}

	page := shared.ParsePagination(r, 100, 500)
	filter.Limit = page.Limit
	filter.Offset = page.Offset

	result, err := h.Service.Store.ListRequests(r.Context(), user.CompanyID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_requests_failed", "failed to list requests", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, result.Requests, middleware.GetRequestID(r.Context()))
}

type createRequestPayload struct {
	UserID       string `json:"userId"`
	LeaveTypeID  string `json:"leaveTypeId"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	StartHalfDay bool   `json:"startHalfDay"`
	EndHalfDay   bool   `json:"endHalfDay"`
	Reason       string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "leave type is required")
	startDate, startOK := v.Date("startDate", payload.StartDate)
	endDate, endOK := v.Date("endDate", payload.EndDate)
	if startOK && endOK {
		v.DateOrder("startDate", startDate, "endDate", endDate)
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	employeeID, err := h.resolveTargetUser(r.Context(), user, payload.UserID)
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.CreateRequest(r.Context(), user.CompanyID, leave.CreateRequestInput{
		EmployeeID:   employeeID,
		LeaveTypeID:  payload.LeaveTypeID,
		StartDate:    startDate,
		EndDate:      endDate,
		StartHalfDay: payload.StartHalfDay,
		EndHalfDay:   payload.EndHalfDay,
		Reason:       strings.TrimSpace(payload.Reason),
	}, time.Now().UTC())
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if h.Notify != nil && !result.AutoApproved {
		body := "Une demande de congés attend votre validation."
		if result.ManagerUserID != "" {
			if err := h.Notify.Notify(r.Context(), result.ManagerUserID, notifications.KindApprovalNeeded, "Demande de congés à valider", body); err != nil {
				slog.Warn("manager notification failed", "err", err)
			}
		}
		h.Notify.NotifyAll(r.Context(), result.HRUserIDs, notifications.KindApprovalNeeded, "Demande de congés à valider", body)
	}

	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	req, err := h.Service.GetRequestScoped(r.Context(), user.CompanyID, chi.URLParam(r, "requestID"), leave.Actor{UserID: user.UserID, RoleName: user.Role})
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requestID := chi.URLParam(r, "requestID")
	result, err := h.Service.Approve(r.Context(), user.CompanyID, requestID, leave.Actor{UserID: user.UserID, RoleName: user.Role}, time.Now().UTC())
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if h.Notify != nil {
		switch result.Status {
		case leave.StatusPendingHR:
			h.Notify.NotifyAll(r.Context(), result.HRUserIDs, notifications.KindApprovalNeeded,
				"Demande de congés à valider", "Une demande validée par le manager attend la validation RH.")
		case leave.StatusApproved:
			body := fmt.Sprintf("Votre demande de congés %s a été approuvée.", result.LeaveTypeName)
			if err := h.Notify.Notify(r.Context(), result.EmployeeID, notifications.KindRequestApproved, "Congés approuvés", body); err != nil {
				slog.Warn("approval notification failed", "err", err)
			}
		}
	}

	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	reason := strings.TrimSpace(payload.Reason)

	requestID := chi.URLParam(r, "requestID")
	result, err := h.Service.Reject(r.Context(), user.CompanyID, requestID, leave.Actor{UserID: user.UserID, RoleName: user.Role}, reason, time.Now().UTC())
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if h.Notify != nil {
		body := fmt.Sprintf("Votre demande de congés %s a été refusée.", result.LeaveTypeName)
		if reason != "" {
			body = fmt.Sprintf("Votre demande de congés %s a été refusée : %s", result.LeaveTypeName, reason)
		}
		if err := h.Notify.Notify(r.Context(), result.EmployeeID, notifications.KindRequestRejected, "Congés refusés", body); err != nil {
			slog.Warn("rejection notification failed", "err", err)
		}
	}

	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	requestID := chi.URLParam(r, "requestID")
	result, err := h.Service.Cancel(r.Context(), user.CompanyID, requestID, user.UserID, time.Now().UTC())
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	if h.Notify != nil && result.ManagerUserID != "" {
		if err := h.Notify.Notify(r.Context(), result.ManagerUserID, notifications.KindRequestCancelled,
			"Demande de congés annulée", "Une demande de congés de votre équipe a été annulée."); err != nil {
			slog.Warn("cancellation notification failed", "err", err)
		}
	}

	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	rules, err := h.Service.Store.ListAutoApprovalRules(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rules_failed", "failed to list auto-approval rules", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rules, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.AutoApprovalRule
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
	payload.CreatedBy = user.UserID
	payload.IsActive = true

	id, err := h.Service.Store.CreateAutoApprovalRule(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rule_create_failed", "failed to create rule", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.AutoApprovalRule
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = chi.URLParam(r, "ruleID")
	payload.CompanyID = user.CompanyID

	if err := h.Service.Store.UpdateAutoApprovalRule(r.Context(), payload); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := h.Service.Store.DeleteAutoApprovalRule(r.Context(), user.CompanyID, chi.URLParam(r, "ruleID")); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListBlockedPeriods(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	periods, err := h.Service.Store.ListBlockedPeriods(r.Context(), user.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "blocked_periods_failed", "failed to list blocked periods", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, periods, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateBlockedPeriod(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.BlockedPeriod
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if payload.BlockType != leave.BlockHard && payload.BlockType != leave.BlockSoft {
		v.Add("blockType", "must be hard or soft")
	}
	v.DateOrder("startDate", payload.StartDate, "endDate", payload.EndDate)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.CompanyID = user.CompanyID
	payload.CreatedBy = user.UserID
	payload.IsActive = true

	id, err := h.Service.Store.CreateBlockedPeriod(r.Context(), payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "blocked_period_create_failed", "failed to create blocked period", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateBlockedPeriod(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload leave.BlockedPeriod
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	payload.ID = chi.URLParam(r, "periodID")
	payload.CompanyID = user.CompanyID

	if err := h.Service.Store.UpdateBlockedPeriod(r.Context(), payload); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteBlockedPeriod(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	if err := h.Service.Store.DeleteBlockedPeriod(r.Context(), user.CompanyID, chi.URLParam(r, "periodID")); err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunAccruals(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var summary any
	var err error
	if h.Jobs != nil {
		summary, err = h.Jobs.RunNow(r.Context(), jobs.JobAccrual, user.CompanyID, func(runCtx context.Context) (any, error) {
			return h.Service.RunAccruals(runCtx, user.CompanyID, time.Now().UTC())
		})
	} else {
		summary, err = h.Service.RunAccruals(r.Context(), user.CompanyID, time.Now().UTC())
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "accrual_failed", "failed to run accruals", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunRollovers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var summary any
	var err error
	if h.Jobs != nil {
		summary, err = h.Jobs.RunNow(r.Context(), jobs.JobRollover, user.CompanyID, func(runCtx context.Context) (any, error) {
			return h.Service.RunRollovers(runCtx, user.CompanyID, time.Now().UTC())
		})
	} else {
		summary, err = h.Service.RunRollovers(r.Context(), user.CompanyID, time.Now().UTC())
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rollover_failed", "failed to run rollovers", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) calendarWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 2, 0).AddDate(0, 0, -1)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			return from, to, err
		}
		to = parsed
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("to before from")
	}
	return from, to, nil
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	from, to, err := h.calendarWindow(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid calendar window", middleware.GetRequestID(r.Context()))
		return
	}

	entries, err := h.Service.Store.CalendarEntries(r.Context(), user.CompanyID, from, to, r.URL.Query().Get("teamId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	from, to, err := h.calendarWindow(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid calendar window", middleware.GetRequestID(r.Context()))
		return
	}

	entries, err := h.Service.Store.CalendarEntries(r.Context(), user.CompanyID, from, to, r.URL.Query().Get("teamId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "calendar_failed", "failed to load calendar", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=conges-calendrier.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "employee", "leave_type", "start_date", "end_date", "days", "status"}); err != nil {
		slog.Warn("calendar export header write failed", "err", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			e.ID, e.EmployeeName, e.LeaveTypeName,
			e.StartDate.Format("2006-01-02"), e.EndDate.Format("2006-01-02"),
			e.Days.String(), string(e.Status),
		}); err != nil {
			slog.Warn("calendar export row write failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("calendar export flush failed", "err", err)
	}
}

func (h *Handler) handleBalanceReportPDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	now := time.Now().UTC()

	settings, err := h.Service.Store.GetSettings(r.Context(), user.CompanyID)
	if err != nil {
		failDomain(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	employees, err := h.Companies.ListEmployees(r.Context(), user.CompanyID, false)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to load employees", middleware.GetRequestID(r.Context()))
		return
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Soldes de congés", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Soldes de congés - %s", settings.PeriodLabel(settings.CurrentPeriodYear(now))), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)

	widths := []float64{60, 30, 25, 25, 25, 25, 30}
	headers := []string{"Employé", "Type", "Acquis", "Ajusté", "Pris", "En attente", "Disponible"}
	for i, title := range headers {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, emp := range employees {
		views, err := h.Service.BalanceViews(r.Context(), user.CompanyID, emp.ID, now)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to load balances", middleware.GetRequestID(r.Context()))
			return
		}
		for _, view := range views {
			cells := []string{
				emp.FullName(),
				view.LeaveTypeCode,
				view.Balance.InitialBalance.String(),
				view.Balance.Adjusted.String(),
				view.Balance.Used.Add(view.Balance.CarriedOverUsed).String(),
				view.Balance.Pending.String(),
				view.Available.String(),
			}
			for i, cell := range cells {
				pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=soldes-conges.pdf")
	if err := pdf.Output(w); err != nil {
		slog.Warn("balance report pdf write failed", "err", err)
	}
}
