package imports

import (
	"regexp"
	"strings"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeRole lower-cases and trims the raw role text. Values that are not
// an exact role fall back on a substring match, and anything unrecognized
// becomes a plain user rather than a rejection.
func NormalizeRole(raw string) Role {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch Role(normalized) {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return Role(normalized)
	}
	if strings.Contains(normalized, "super") {
		return RoleSuperAdmin
	}
	if strings.Contains(normalized, "admin") {
		return RoleAdmin
	}
	return RoleUser
}

// RawRecord is one decoded data row: lower-cased column name to raw value.
// Row is 1-based over data rows, header excluded.
type RawRecord struct {
	Row    int
	Fields map[string]string
}

func (r RawRecord) Get(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

func (r RawRecord) Empty() bool {
	for _, value := range r.Fields {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

type UserRecord struct {
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	OrganizationName string `json:"organization_name"`
	Department       string `json:"department"`
	Role             Role   `json:"role"`
	CohortName       string `json:"cohort_name"`
	CohortID         string `json:"cohort_id"`
	Password         string `json:"password"`
}

func (u UserRecord) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
