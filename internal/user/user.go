package user

import (
	"sort"
	"time"

	"github.com/frahmantamala/separation-management/internal/auth"
	userDatamodel "github.com/frahmantamala/separation-management/internal/core/datamodel/user"
)

type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	PasswordHash   string     `json:"-"`
	Role           auth.Role  `json:"role"`
	DepartmentID   *int64     `json:"department_id,omitempty"`
	ManagerID      *int64     `json:"manager_id,omitempty"`
	Position       string     `json:"position"`
	EmployeeNumber string     `json:"employee_number"`
	IsActive       bool       `json:"is_active"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) IsManager() bool {
	return u.Role.IsManager()
}

func (u *User) Deactivate() {
	u.IsActive = false
	u.UpdatedAt = time.Now()
}

// Filter narrows a user listing. Nil fields are ignored.
type Filter struct {
	Role         *auth.Role
	DepartmentID *int64
	IsActive     *bool
	Search       string
}

// OrgNode is one person in the reporting tree.
type OrgNode struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         auth.Role  `json:"role"`
	Position     string     `json:"position"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	Reports      []*OrgNode `json:"reports"`
}

// BuildOrgChart arranges users into a forest by manager_id. Users whose manager
// is absent from the set become roots. Siblings are ordered by name.
func BuildOrgChart(users []*User) []*OrgNode {
	nodes := make(map[int64]*OrgNode, len(users))
	for _, u := range users {
		nodes[u.ID] = &OrgNode{
			ID:           u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			Position:     u.Position,
			DepartmentID: u.DepartmentID,
			Reports:      []*OrgNode{},
		}
	}

	roots := []*OrgNode{}
	for _, u := range users {
		node := nodes[u.ID]
		if u.ManagerID != nil && *u.ManagerID != u.ID {
			if parent, ok := nodes[*u.ManagerID]; ok {
				parent.Reports = append(parent.Reports, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*OrgNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name == nodes[j].Name {
			return nodes[i].ID < nodes[j].ID
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Reports)
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		DepartmentID:   u.DepartmentID,
		ManagerID:      u.ManagerID,
		Position:       u.Position,
		EmployeeNumber: u.EmployeeNumber,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		Role:           auth.Role(u.Role),
		DepartmentID:   u.DepartmentID,
		ManagerID:      u.ManagerID,
		Position:       u.Position,
		EmployeeNumber: u.EmployeeNumber,
		IsActive:       u.IsActive,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
