// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles recognized by the access policy.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// AllRoles lists every assignable role, highest privilege first.
var AllRoles = []string{RoleAdmin, RoleManager, RoleUser}

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is a principal: the actor behind every policy check.
//
// NOTE:
//   - Users are never physically removed. Deactivation sets Active=false.
//   - PasswordHash is never serialized to JSON; the capability resolver
//     additionally clears it before handing a principal to callers.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	Role         string             `bson:"role" json:"role"` // admin | manager | user
	Active       bool               `bson:"active" json:"active"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Sanitized returns a copy of u without credential material.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// UserSummary is the read-side projection of a user reference.
type UserSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Role   string             `json:"role"`
	Active bool               `json:"active"`
}
