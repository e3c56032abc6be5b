package company

import (
	"context"
	"fmt"
	"time"

	"github.com/tchernob/congesflow/internal/domain/auth"
	"github.com/tchernob/congesflow/internal/domain/leave"
)

type Service struct {
	Store      *Store
	LeaveStore *leave.Store
}

func NewService(store *Store, leaveStore *leave.Store) *Service {
	return &Service{Store: store, LeaveStore: leaveStore}
}

// Provision creates a company with its default catalogue: the four
// roles, the French statutory leave types, the standard contract types
// and the default leave policy. The admin account is created last.
func (s *Service) Provision(ctx context.Context, name, siret, adminEmail, adminFirst, adminLast, adminPassword string) (string, error) {
	companyID, err := s.Store.CreateCompany(ctx, name, siret, "trial")
	if err != nil {
		return "", fmt.Errorf("create company: %w", err)
	}

	roleIDs := map[string]string{}
	for _, role := range []string{auth.RoleAdmin, auth.RoleHR, auth.RoleManager, auth.RoleEmployee} {
		id, err := s.Store.EnsureRole(ctx, role)
		if err != nil {
			return "", fmt.Errorf("ensure role %s: %w", role, err)
		}
		roleIDs[role] = id
	}

	for _, lt := range leave.DefaultLeaveTypes() {
		lt.CompanyID = companyID
		if _, err := s.LeaveStore.CreateType(ctx, companyID, lt); err != nil {
			return "", fmt.Errorf("seed leave type %s: %w", lt.Code, err)
		}
	}
	if err := s.seedContractTypes(ctx, companyID); err != nil {
		return "", err
	}
	if err := s.LeaveStore.EnsureSettings(ctx, leave.DefaultSettings(companyID)); err != nil {
		return "", fmt.Errorf("seed settings: %w", err)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return "", err
	}
	hire := time.Now().UTC().Truncate(24 * time.Hour)
	if _, err := s.Store.CreateEmployee(ctx, Employee{
		CompanyID: companyID,
		Email:     adminEmail,
		FirstName: adminFirst,
		LastName:  adminLast,
		RoleID:    roleIDs[auth.RoleAdmin],
		HireDate:  &hire,
	}, hash); err != nil {
		return "", fmt.Errorf("create admin: %w", err)
	}
	return companyID, nil
}

func (s *Service) seedContractTypes(ctx context.Context, companyID string) error {
	for _, ct := range leave.DefaultContractTypes() {
		if _, err := s.LeaveStore.DB.Exec(ctx, `
      INSERT INTO contract_types (company_id, name, code, description, cp_acquisition_rate, cp_annual_allowance, has_rtt, rtt_annual_allowance, has_exam_leave, exam_leave_days, is_paid_leave, is_active)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `, companyID, ct.Name, ct.Code, ct.Description, ct.CPAcquisitionRate, ct.CPAnnualAllowance, ct.HasRTT, ct.RTTAnnualAllowance, ct.HasExamLeave, ct.ExamLeaveDays, ct.IsPaidLeave, ct.IsActive); err != nil {
			return fmt.Errorf("seed contract type %s: %w", ct.Code, err)
		}
	}
	return nil
}

func (s *Service) ListEmployees(ctx context.Context, companyID string, includeInactive bool) ([]Employee, error) {
	return s.Store.ListEmployees(ctx, companyID, includeInactive)
}

func (s *Service) GetEmployee(ctx context.Context, companyID, userID string) (Employee, error) {
	return s.Store.GetEmployee(ctx, companyID, userID)
}

// HireEmployee creates the account and initializes its leave balances
// for the current period.
func (s *Service) HireEmployee(ctx context.Context, e Employee, password string, now time.Time) (string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	id, err := s.Store.CreateEmployee(ctx, e, hash)
	if err != nil {
		return "", err
	}
	if err := leave.InitializeBalances(ctx, s.LeaveStore, e.CompanyID, id, e.HireDate, now); err != nil {
		return "", fmt.Errorf("initialize balances: %w", err)
	}
	return id, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, e Employee) error {
	return s.Store.UpdateEmployee(ctx, e)
}

func (s *Service) ListTeams(ctx context.Context, companyID string) ([]Team, error) {
	return s.Store.ListTeams(ctx, companyID)
}

func (s *Service) CreateTeam(ctx context.Context, t Team) (string, error) {
	return s.Store.CreateTeam(ctx, t)
}

func (s *Service) DeleteTeam(ctx context.Context, companyID, teamID string) error {
	return s.Store.DeleteTeam(ctx, companyID, teamID)
}

func (s *Service) ListContractTypes(ctx context.Context, companyID string) ([]leave.ContractType, error) {
	byID, err := s.LeaveStore.ContractTypesByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]leave.ContractType, 0, len(byID))
	for _, ct := range byID {
		out = append(out, ct)
	}
	return out, nil
}
