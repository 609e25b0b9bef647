package principals

import (
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/authutil"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
)

// RegisterInput is the public sign-up payload. Self-registered principals
// are always plain users.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=200" label:"Name"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string `json:"password" validate:"required,max=128" label:"Password"`
}

// CreateInput is an admin-created principal.
type CreateInput struct {
	Name     string `json:"name" validate:"required,max=200" label:"Name"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string `json:"password" validate:"required,max=128" label:"Password"`
	Role     string `json:"role" validate:"required,oneof=admin manager user" label:"Role"`
}

// clean normalizes in, validates it, and returns the password hash.
func (in *CreateInput) clean() (string, error) {
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Role = normalize.Role(in.Role)

	res := inputval.Validate(in)
	if in.Password != "" {
		if err := authutil.ValidatePassword(in.Password); err != nil {
			res.Add("password", "is too weak", err.Error())
		}
	}
	if err := res.Err(); err != nil {
		return "", err
	}
	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		return "", apperr.Internal("principals: hash password", err)
	}
	return hash, nil
}

// LoginInput is an email and password sign-in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,max=254" label:"Email"`
	Password string `json:"password" validate:"required,max=128" label:"Password"`
}

// ProfilePatch edits a principal. Role and Active are admin-only.
// CurrentPassword is required when principals change their own password.
type ProfilePatch struct {
	Name            *string `json:"name" validate:"max=200" label:"Name"`
	Email           *string `json:"email" validate:"email,max=254" label:"Email"`
	Password        *string `json:"password" validate:"max=128" label:"Password"`
	CurrentPassword string  `json:"current_password" label:"Current password"`
	Role            *string `json:"role" validate:"oneof=admin manager user" label:"Role"`
	Active          *bool   `json:"active"`
}

func (p *ProfilePatch) clean() error {
	if p.Name != nil {
		v := normalize.Name(*p.Name)
		p.Name = &v
	}
	if p.Email != nil {
		v := normalize.Email(*p.Email)
		p.Email = &v
	}
	if p.Role != nil {
		v := normalize.Role(*p.Role)
		p.Role = &v
	}

	res := inputval.Validate(p)
	if p.Name != nil && *p.Name == "" {
		res.Add("name", "is required", "Name is required.")
	}
	if p.Email != nil && *p.Email == "" {
		res.Add("email", "is required", "Email is required.")
	}
	if p.Role != nil && *p.Role == "" {
		res.Add("role", "is required", "Role is required.")
	}
	if p.Password != nil {
		if err := authutil.ValidatePassword(*p.Password); err != nil {
			res.Add("password", "is too weak", err.Error())
		}
	}
	return res.Err()
}

func (p ProfilePatch) empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.Role == nil && p.Active == nil
}
