package service

import (
	"strings"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return strings.EqualFold(a.Role, models.RoleAdmin)
}

func normalizeCourse(course string) string {
	return strings.ToUpper(strings.TrimSpace(course))
}
