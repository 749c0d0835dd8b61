package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleCustomer   Role = "USER"
	RoleInstructor Role = "TEACHER"
	RoleAdmin      Role = "ADMIN"
)

var roleLabels = map[Role]string{
	RoleCustomer:   "Usuario",
	RoleInstructor: "Profesor",
	RoleAdmin:      "Administrador",
}

func (r Role) DisplayName() string {
	return roleLabels[r]
}

func ParseRole(s string) (Role, error) {
	for role, label := range roleLabels {
		if strings.EqualFold(s, label) || strings.EqualFold(s, string(role)) {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is the read-only directory view this service consumes. Accounts
// live in the identity subsystem; the engine needs names and emails for
// authorization checks and notification addressing, nothing more.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
