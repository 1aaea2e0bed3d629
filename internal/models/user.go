package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk" json:"id"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	FullName  string    `bun:"full_name,notnull" json:"fullName"`
	Role      string    `bun:"role" json:"role"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type Organization struct {
	bun.BaseModel `bun:"table:organizations"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// OrganizationMember links users to organizations. A user can belong to
// several organizations at once.
type OrganizationMember struct {
	bun.BaseModel `bun:"table:organization_members"`

	OrganizationID string `bun:"organization_id,pk" json:"organizationId"`
	UserID         string `bun:"user_id,pk" json:"userId"`
}
