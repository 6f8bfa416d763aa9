package role

import (
	"strings"
	"time"
	"unicode"

	"family-registry-go/internal/domain/permission"
	"gorm.io/datatypes"
)

const (
	KeyAdmin     = "admin"
	KeyUser      = "user"
	KeyCommittee = "committee"
)

type Role struct {
	ID           string                                `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string                                `gorm:"type:varchar(64);not null;uniqueIndex" json:"name"`
	Key          string                                `gorm:"type:varchar(64);not null;uniqueIndex" json:"key"`
	Description  string                                `gorm:"type:text;not null" json:"description"`
	Permissions  datatypes.JSONType[permission.Grants] `gorm:"not null" json:"permissions"`
	IsSystemRole bool                                  `gorm:"not null" json:"is_system_role"`
	IsActive     bool                                  `gorm:"not null;index" json:"is_active"`
	CreatedBy    *string                               `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt    time.Time                             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                             `gorm:"autoUpdateTime" json:"updated_at"`
}

// Grants returns a copy of the role's permission map.
func (r *Role) Grants() permission.Grants {
	if r == nil {
		return permission.Grants{}
	}
	return r.Permissions.Data().Clone()
}

func (r *Role) setGrants(grants permission.Grants) {
	r.Permissions = datatypes.NewJSONType(grants.Clone())
}

// HasPermission is fail-closed for nil roles, inactive roles and unknown keys.
func HasPermission(r *Role, key permission.Key) bool {
	if r == nil || !r.IsActive {
		return false
	}
	return r.Permissions.Data().Has(key)
}

// DeriveKey lower-cases the name and collapses every run of non-alphanumeric
// characters into a single underscore.
func DeriveKey(name string) string {
	var builder strings.Builder
	builder.Grow(len(name))
	pendingSeparator := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSeparator && builder.Len() > 0 {
				builder.WriteByte('_')
			}
			pendingSeparator = false
			builder.WriteRune(r)
			continue
		}
		pendingSeparator = true
	}
	return builder.String()
}

type CreateRoleInput struct {
	ActorID     string
	Name        string
	Description string
	Grants      map[string]any
}

type UpdateRoleInput struct {
	ID          string
	Name        *string
	Description *string
	Grants      map[string]any
}
