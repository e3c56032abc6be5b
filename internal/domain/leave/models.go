package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request lifecycle statuses. Transitions are decided in workflow.go and
// persisted with a status-conditional update, never a blind write.
type Status string

const (
	StatusPendingManager Status = "pending_manager"
	StatusPendingHR      Status = "pending_hr"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
)

func (s Status) IsPending() bool {
	return s == StatusPendingManager || s == StatusPendingHR
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingManager, StatusPendingHR, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Workflow selects who must sign off on a request.
type Workflow string

const (
	WorkflowManagerThenHR Workflow = "manager_then_hr"
	WorkflowManagerOnly   Workflow = "manager_only"
	WorkflowHROnly        Workflow = "hr_only"
	WorkflowManagerOrHR   Workflow = "manager_or_hr"
)

func (w Workflow) Valid() bool {
	switch w {
	case WorkflowManagerThenHR, WorkflowManagerOnly, WorkflowHROnly, WorkflowManagerOrHR:
		return true
	}
	return false
}

// InitialStatus is where a freshly created request enters the workflow.
func (w Workflow) InitialStatus() Status {
	if w == WorkflowHROnly {
		return StatusPendingHR
	}
	return StatusPendingManager
}

func (w Workflow) RequiresHR() bool {
	return w == WorkflowManagerThenHR || w == WorkflowHROnly
}

// PeriodType selects the 12-month reference window leave entitlements
// are tracked against.
type PeriodType string

const (
	PeriodCalendar PeriodType = "calendar" // Jan 1 - Dec 31
	PeriodLegal    PeriodType = "legal"    // Jun 1 - May 31 (French CP period)
	PeriodCustom   PeriodType = "custom"   // configured start day/month
)

// Well-known leave type codes. CP and RTT drive accrual and carryover
// family rules; they cannot be deactivated.
const (
	CodeCP  = "CP"
	CodeRTT = "RTT"
	CodeMAL = "MAL"
	CodeCSS = "CSS"
)

type LeaveType struct {
	ID                    string          `json:"id"`
	CompanyID             string          `json:"companyId"`
	Name                  string          `json:"name"`
	Code                  string          `json:"code"`
	Description           string          `json:"description,omitempty"`
	Color                 string          `json:"color"`
	DefaultDays           decimal.Decimal `json:"defaultDays"`
	IsPaid                bool            `json:"isPaid"`
	RequiresJustification bool            `json:"requiresJustification"`
	MaxConsecutiveDays    int             `json:"maxConsecutiveDays,omitempty"`
	IsActive              bool            `json:"isActive"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// Protected reports whether the type is one of the statutory codes that
// must stay active.
func (t LeaveType) Protected() bool {
	return t.Code == CodeCP || t.Code == CodeRTT
}

// TracksBalance reports whether requests of this type consume an
// entitlement. Unpaid leave and open-ended types like sick leave are
// recorded but never gated or deducted.
func (t LeaveType) TracksBalance() bool {
	return t.IsPaid && (t.Protected() || t.DefaultDays.IsPositive())
}

type ContractType struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"companyId"`
	Name               string          `json:"name"`
	Code               string          `json:"code"`
	Description        string          `json:"description,omitempty"`
	CPAcquisitionRate  decimal.Decimal `json:"cpAcquisitionRate"`
	CPAnnualAllowance  decimal.Decimal `json:"cpAnnualAllowance"`
	HasRTT             bool            `json:"hasRtt"`
	RTTAnnualAllowance decimal.Decimal `json:"rttAnnualAllowance"`
	HasExamLeave       bool            `json:"hasExamLeave"`
	ExamLeaveDays      decimal.Decimal `json:"examLeaveDays"`
	IsPaidLeave        bool            `json:"isPaidLeave"`
	IsActive           bool            `json:"isActive"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// Settings holds a company's leave policy. Exactly one row per company,
// created by EnsureSettings when the company is provisioned.
type Settings struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`

	PeriodType           PeriodType `json:"periodType"`
	CustomPeriodStartDay int        `json:"customPeriodStartDay"`
	CustomPeriodStartMon int        `json:"customPeriodStartMonth"`

	CPCarryoverEnabled         bool            `json:"cpCarryoverEnabled"`
	CPCarryoverMaxDays         decimal.Decimal `json:"cpCarryoverMaxDays"`
	CPCarryoverDeadlineMonths  int             `json:"cpCarryoverDeadlineMonths"`
	RTTCarryoverEnabled        bool            `json:"rttCarryoverEnabled"`
	RTTCarryoverMaxDays        decimal.Decimal `json:"rttCarryoverMaxDays"`
	RTTCarryoverDeadlineMonths int             `json:"rttCarryoverDeadlineMonths"`

	AllowNegativeBalance bool            `json:"allowNegativeBalance"`
	MaxNegativeDays      decimal.Decimal `json:"maxNegativeDays"`

	MonthlyAccrualRate decimal.Decimal `json:"monthlyAccrualRate"`

	AlertDaysBeforeExpiry    int             `json:"alertDaysBeforeExpiry"`
	AlertLowBalanceThreshold decimal.Decimal `json:"alertLowBalanceThreshold"`

	ApprovalWorkflow Workflow `json:"approvalWorkflow"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Balance is the per-employee, per-leave-type, per-period-year ledger
// row. All mutation paths (approval, cancellation, accrual, rollover,
// manual adjustment) lock the row before touching it.
type Balance struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	LeaveTypeID string `json:"leaveTypeId"`
	Year        int    `json:"year"`

	InitialBalance decimal.Decimal `json:"initialBalance"`
	Adjusted       decimal.Decimal `json:"adjusted"`
	Used           decimal.Decimal `json:"used"`
	Pending        decimal.Decimal `json:"pending"`

	CarriedOver          decimal.Decimal `json:"carriedOver"`
	CarriedOverUsed      decimal.Decimal `json:"carriedOverUsed"`
	CarriedOverExpiresAt *time.Time      `json:"carriedOverExpiresAt,omitempty"`

	Accrued              decimal.Decimal `json:"accrued"`
	LastAccrualDate      *time.Time      `json:"lastAccrualDate,omitempty"`
	AcquisitionStartDate *time.Time      `json:"acquisitionStartDate,omitempty"`
	MonthsWorked         decimal.Decimal `json:"monthsWorked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Request struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`

	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	StartHalfDay bool      `json:"startHalfDay"`
	EndHalfDay   bool      `json:"endHalfDay"`

	Days   decimal.Decimal `json:"days"`
	Reason string          `json:"reason,omitempty"`

	Status          Status `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`

	ManagerID           string     `json:"managerId,omitempty"`
	ManagerDecisionDate *time.Time `json:"managerDecisionDate,omitempty"`
	HRID                string     `json:"hrId,omitempty"`
	HRDecisionDate      *time.Time `json:"hrDecisionDate,omitempty"`

	AutoApproved bool `json:"autoApproved,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanCancel reports whether the employee may still withdraw the request.
// Approved leave can only be cancelled before it starts.
func (r Request) CanCancel(today time.Time) bool {
	if r.Status.IsPending() {
		return true
	}
	return r.Status == StatusApproved && r.StartDate.After(today)
}

// AutoApprovalRule bypasses manual review for requests matching all of
// its conditions. Rules are evaluated in descending priority order; the
// first match wins.
type AutoApprovalRule struct {
	ID          string `json:"id"`
	CompanyID   string `json:"companyId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	LeaveTypeID    string           `json:"leaveTypeId,omitempty"` // empty = all types
	MaxDays        *decimal.Decimal `json:"maxDays,omitempty"`
	MinAdvanceDays int              `json:"minAdvanceDays"`
	RoleIDs        []string         `json:"roleIds,omitempty"`
	TeamIDs        []string         `json:"teamIds,omitempty"`

	Priority  int       `json:"priority"`
	IsActive  bool      `json:"isActive"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type BlockType string

const (
	BlockHard BlockType = "hard" // request creation refused
	BlockSoft BlockType = "soft" // request allowed, warning attached
)

type BlockedPeriod struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Reason    string `json:"reason,omitempty"`

	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	BlockType BlockType `json:"blockType"`

	TeamIDs      []string `json:"teamIds,omitempty"`      // empty = all teams
	LeaveTypeIDs []string `json:"leaveTypeIds,omitempty"` // empty = all types

	IsActive  bool      `json:"isActive"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultLeaveTypes is the catalogue seeded for a new company.
func DefaultLeaveTypes() []LeaveType {
	d := decimal.RequireFromString
	return []LeaveType{
		{Code: CodeCP, Name: "Congés payés", Color: "#10B981", Description: "Congés payés annuels", DefaultDays: d("25"), IsPaid: true, IsActive: true},
		{Code: CodeRTT, Name: "RTT", Color: "#3B82F6", Description: "Réduction du temps de travail", DefaultDays: d("10"), IsPaid: true, IsActive: true},
		{Code: CodeMAL, Name: "Maladie", Color: "#EF4444", Description: "Arrêt maladie", RequiresJustification: true, IsPaid: true, IsActive: true},
		{Code: CodeCSS, Name: "Sans solde", Color: "#6B7280", Description: "Congés sans solde", IsActive: true},
		{Code: "MAR", Name: "Mariage", Color: "#EC4899", Description: "Congé pour mariage", DefaultDays: d("5"), MaxConsecutiveDays: 5, IsPaid: true, IsActive: true},
		{Code: "NAI", Name: "Naissance", Color: "#8B5CF6", Description: "Congé pour naissance", DefaultDays: d("3"), MaxConsecutiveDays: 3, IsPaid: true, IsActive: true},
		{Code: "DEC", Name: "Décès", Color: "#374151", Description: "Congé pour décès", DefaultDays: d("5"), MaxConsecutiveDays: 5, IsPaid: true, IsActive: true},
		{Code: "DEM", Name: "Déménagement", Color: "#F59E0B", Description: "Congé pour déménagement", DefaultDays: d("1"), MaxConsecutiveDays: 1, IsPaid: true, IsActive: true},
	}
}

// DefaultContractTypes is the catalogue seeded for a new company.
func DefaultContractTypes() []ContractType {
	d := decimal.RequireFromString
	return []ContractType{
		{Code: "CDI", Name: "CDI", Description: "Contrat à durée indéterminée", CPAcquisitionRate: d("2.08"), CPAnnualAllowance: d("25"), HasRTT: true, RTTAnnualAllowance: d("10"), IsPaidLeave: true, IsActive: true},
		{Code: "CDD", Name: "CDD", Description: "Contrat à durée déterminée", CPAcquisitionRate: d("2.08"), CPAnnualAllowance: d("25"), HasRTT: true, RTTAnnualAllowance: d("10"), IsPaidLeave: true, IsActive: true},
		{Code: "ALT", Name: "Alternant", Description: "Contrat d'apprentissage ou de professionnalisation", CPAcquisitionRate: d("2.08"), CPAnnualAllowance: d("25"), HasRTT: true, RTTAnnualAllowance: d("10"), HasExamLeave: true, ExamLeaveDays: d("5"), IsPaidLeave: true, IsActive: true},
		{Code: "STG", Name: "Stagiaire", Description: "Convention de stage", IsActive: true},
		{Code: "INT", Name: "Intérimaire", Description: "Travail temporaire", IsActive: true},
	}
}

// DefaultSettings returns the policy applied to a company until HR edits
// it: legal June-May period, 5-day CP carryover usable for 3 months, no
// RTT carryover, manager-then-HR workflow.
func DefaultSettings(companyID string) Settings {
	d := decimal.RequireFromString
	return Settings{
		CompanyID:                  companyID,
		PeriodType:                 PeriodLegal,
		CustomPeriodStartDay:       1,
		CustomPeriodStartMon:       6,
		CPCarryoverEnabled:         true,
		CPCarryoverMaxDays:         d("5"),
		CPCarryoverDeadlineMonths:  3,
		RTTCarryoverEnabled:        false,
		RTTCarryoverMaxDays:        decimal.Zero,
		RTTCarryoverDeadlineMonths: 1,
		AllowNegativeBalance:       false,
		MaxNegativeDays:            decimal.Zero,
		MonthlyAccrualRate:         d("2.08"),
		AlertDaysBeforeExpiry:      30,
		AlertLowBalanceThreshold:   d("5"),
		ApprovalWorkflow:           WorkflowManagerThenHR,
	}
}
