package leave

import "context"

func (s *Store) ListAutoApprovalRules(ctx context.Context, companyID string) ([]AutoApprovalRule, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, name, COALESCE(description, ''), COALESCE(leave_type_id::text, ''), max_days, min_advance_days, role_ids, team_ids, priority, is_active, COALESCE(created_by::text, ''), created_at
    FROM auto_approval_rules
    WHERE company_id = $1
    ORDER BY priority DESC, created_at
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []AutoApprovalRule
	for rows.Next() {
		var r AutoApprovalRule
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Name, &r.Description, &r.LeaveTypeID, &r.MaxDays, &r.MinAdvanceDays, &r.RoleIDs, &r.TeamIDs, &r.Priority, &r.IsActive, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (s *Store) CreateAutoApprovalRule(ctx context.Context, r AutoApprovalRule) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO auto_approval_rules (company_id, name, description, leave_type_id, max_days, min_advance_days, role_ids, team_ids, priority, is_active, created_by)
    VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,NULLIF($11,''))
    RETURNING id
  `, r.CompanyID, r.Name, r.Description, r.LeaveTypeID, r.MaxDays, r.MinAdvanceDays, r.RoleIDs, r.TeamIDs, r.Priority, r.IsActive, r.CreatedBy).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateAutoApprovalRule(ctx context.Context, r AutoApprovalRule) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE auto_approval_rules
    SET name = $3, description = $4, leave_type_id = NULLIF($5,''), max_days = $6, min_advance_days = $7, role_ids = $8, team_ids = $9, priority = $10, is_active = $11
    WHERE company_id = $1 AND id = $2
  `, r.CompanyID, r.ID, r.Name, r.Description, r.LeaveTypeID, r.MaxDays, r.MinAdvanceDays, r.RoleIDs, r.TeamIDs, r.Priority, r.IsActive)
	return err
}

func (s *Store) DeleteAutoApprovalRule(ctx context.Context, companyID, ruleID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM auto_approval_rules WHERE company_id = $1 AND id = $2", companyID, ruleID)
	return err
}

func (s *Store) ListBlockedPeriods(ctx context.Context, companyID string) ([]BlockedPeriod, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, company_id, name, COALESCE(reason, ''), start_date, end_date, block_type, team_ids, leave_type_ids, is_active, COALESCE(created_by::text, ''), created_at
    FROM blocked_periods
    WHERE company_id = $1
    ORDER BY start_date
  `, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []BlockedPeriod
	for rows.Next() {
		var p BlockedPeriod
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.Reason, &p.StartDate, &p.EndDate, &p.BlockType, &p.TeamIDs, &p.LeaveTypeIDs, &p.IsActive, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

func (s *Store) CreateBlockedPeriod(ctx context.Context, p BlockedPeriod) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO blocked_periods (company_id, name, reason, start_date, end_date, block_type, team_ids, leave_type_ids, is_active, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''))
    RETURNING id
  `, p.CompanyID, p.Name, p.Reason, p.StartDate, p.EndDate, p.BlockType, p.TeamIDs, p.LeaveTypeIDs, p.IsActive, p.CreatedBy).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateBlockedPeriod(ctx context.Context, p BlockedPeriod) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE blocked_periods
    SET name = $3, reason = $4, start_date = $5, end_date = $6, block_type = $7, team_ids = $8, leave_type_ids = $9, is_active = $10
    WHERE company_id = $1 AND id = $2
  `, p.CompanyID, p.ID, p.Name, p.Reason, p.StartDate, p.EndDate, p.BlockType, p.TeamIDs, p.LeaveTypeIDs, p.IsActive)
	return err
}

func (s *Store) DeleteBlockedPeriod(ctx context.Context, companyID, periodID string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM blocked_periods WHERE company_id = $1 AND id = $2", companyID, periodID)
	return err
}
