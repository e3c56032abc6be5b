package company

import (
	"context"

	"github.com/tchernob/congesflow/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateCompany(ctx context.Context, name, siret, plan string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO companies (name, siret, plan)
    VALUES ($1,$2,$3)
    RETURNING id
  `, name, siret, plan).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (Company, error) {
	var c Company
	if err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(siret, ''), plan, is_active, created_at
    FROM companies
    WHERE id = $1
  `, companyID).Scan(&c.ID, &c.Name, &c.Siret, &c.Plan, &c.IsActive, &c.CreatedAt); err != nil {
		return Company{}, err
	}
	return c, nil
}

func (s *Store) EnsureRole(ctx context.Context, name string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO roles (name)
    VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, name).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RoleIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", name).Scan(&id)
	return id, err
}

const employeeColumns = `
    u.id, u.company_id, u.email, u.first_name, u.last_name, u.role_id, r.name,
    COALESCE(u.team_id::text, ''), COALESCE(u.manager_id::text, ''), COALESCE(u.contract_type_id::text, ''),
    u.hire_date, u.is_active, u.created_at`

func scanEmployee(row interface{ Scan(...any) error }) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.CompanyID, &e.Email, &e.FirstName, &e.LastName, &e.RoleID, &e.RoleName,
		&e.TeamID, &e.ManagerID, &e.ContractTypeID, &e.HireDate, &e.IsActive, &e.CreatedAt)
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, companyID string, includeInactive bool) ([]Employee, error) {
	query := "SELECT" + employeeColumns + " FROM users u JOIN roles r ON u.role_id = r.id WHERE u.company_id = $1"
	if !includeInactive {
		query += " AND u.is_active"
	}
	query += " ORDER BY u.last_name, u.first_name"

	rows, err := s.DB.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetEmployee(ctx context.Context, companyID, userID string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx,
		"SELECT"+employeeColumns+" FROM users u JOIN roles r ON u.role_id = r.id WHERE u.company_id = $1 AND u.id = $2",
		companyID, userID))
}

func (s *Store) CreateEmployee(ctx context.Context, e Employee, passwordHash string) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO users (company_id, email, password_hash, first_name, last_name, role_id, team_id, manager_id, contract_type_id, hire_date)
    VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,'')::uuid,NULLIF($8,'')::uuid,NULLIF($9,'')::uuid,$10)
    RETURNING id
  `, e.CompanyID, e.Email, passwordHash, e.FirstName, e.LastName, e.RoleID, e.TeamID, e.ManagerID, e.ContractTypeID, e.HireDate).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e Employee) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET first_name = $3, last_name = $4, role_id = $5,
        team_id = NULLIF($6,'')::uuid, manager_id = NULLIF($7,'')::uuid,
        contract_type_id = NULLIF($8,'')::uuid, hire_date = $9, is_active = $10
    WHERE company_id = $1 AND id = $2
  `, e.CompanyID, e.ID, e.FirstName, e.LastName, e.RoleID, e.TeamID, e.ManagerID, e.ContractTypeID, e.HireDate, e.IsActive)
	return err
}

func (s *Store) ListTeams(ctx context.Context, companyID string) ([]Team, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, name, COALESCE(manager_id::text, ''), created_at
    FROM teams
    WHERE company_id = $1
    ORDER BY name
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.ManagerID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) CreateTeam(ctx context.Context, t Team) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO teams (company_id, name, manager_id)
    VALUES ($1,$2,NULLIF($3,'')::uuid)
    RETURNING id
  `, t.CompanyID, t.Name, t.ManagerID).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeleteTeam(ctx context.Context, companyID, teamID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM teams WHERE company_id = $1 AND id = $2", companyID, teamID)
	return err
}
