package company

import "time"

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Siret     string    `json:"siret,omitempty"`
	Plan      string    `json:"plan"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Team struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	ManagerID string    `json:"managerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Employee is a user account. Every actor in the system is one; the
// role decides what they can do.
type Employee struct {
	ID             string     `json:"id"`
	CompanyID      string     `json:"companyId"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	RoleID         string     `json:"roleId"`
	RoleName       string     `json:"roleName,omitempty"`
	TeamID         string     `json:"teamId,omitempty"`
	ManagerID      string     `json:"managerId,omitempty"`
	ContractTypeID string     `json:"contractTypeId,omitempty"`
	HireDate       *time.Time `json:"hireDate,omitempty"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
