package principals

import (
	"context"
	"errors"
	"regexp"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/policy"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/authutil"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/app/system/search"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Me returns the caller without credential material.
func (s *Service) Me(p *models.User) (models.User, error) {
	if p == nil {
		return models.User{}, apperr.Unauthenticated("sign in required")
	}
	return p.Sanitized(), nil
}

// Get returns a principal p may view.
func (s *Service) Get(ctx context.Context, p *models.User, id primitive.ObjectID) (models.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !policy.CanViewPrincipal(p, u) {
		return models.User{}, apperr.Forbidden("you may not view this principal")
	}
	return u.Sanitized(), nil
}

// Create adds a principal with any role. Admin only.
func (s *Service) Create(ctx context.Context, p *models.User, in CreateInput) (models.User, error) {
	if !policy.CanChangeRole(p) {
		return models.User{}, apperr.Forbidden("only admins may create principals")
	}
	u, err := s.create(ctx, in)
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("principal created",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", u.Role),
		zap.String("actor", p.ID.Hex()))
	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionCreateUser,
		EntityType:  models.EntityUser,
		EntityID:    u.ID,
		EntityLabel: u.Name,
		Details:     map[string]any{"role": u.Role},
	})
	return u.Sanitized(), nil
}

// UpdateProfile edits target. Principals edit themselves; admins edit
// anyone and alone may change role or active. The last active admin can
// be neither demoted nor deactivated.
func (s *Service) UpdateProfile(ctx context.Context, c auditlog.Client, p *models.User, id primitive.ObjectID, patch ProfilePatch) (models.User, error) {
	if err := patch.clean(); err != nil {
		return models.User{}, err
	}
	target, err := s.load(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !policy.CanEditPrincipal(p, target) {
		return models.User{}, apperr.Forbidden("you may not edit this principal")
	}
	if (patch.Role != nil || patch.Active != nil) && !policy.CanChangeRole(p) {
		return models.User{}, apperr.Forbidden("only admins may change role or active status")
	}
	if patch.empty() {
		return target.Sanitized(), nil
	}

	upd := userstore.Update{Name: patch.Name, Role: patch.Role, Active: patch.Active}
	var changes []string

	if patch.Name != nil && *patch.Name != target.Name {
		changes = append(changes, "name")
	}
	if patch.Email != nil && *patch.Email != target.Email {
		exists, err := s.users.EmailExistsForOther(ctx, *patch.Email, id)
		if err != nil {
			return models.User{}, apperr.Internal("principals.UpdateProfile: email check", err)
		}
		if exists {
			return models.User{}, duplicateEmail()
		}
		upd.Email = patch.Email
		changes = append(changes, "email")
	}
	if patch.Password != nil {
		self := p.ID == target.ID
		if self && !authutil.CheckPassword(target.PasswordHash, patch.CurrentPassword) {
			var res inputval.Result
			res.Add("current_password", "does not match", "Current password is incorrect.")
			return models.User{}, res.Err()
		}
		hash, err := authutil.HashPassword(*patch.Password)
		if err != nil {
			return models.User{}, apperr.Internal("principals.UpdateProfile: hash", err)
		}
		upd.PasswordHash = &hash
		changes = append(changes, "password")
	}
	roleChanged := patch.Role != nil && *patch.Role != target.Role
	if roleChanged {
		changes = append(changes, "role")
	}
	if patch.Active != nil && *patch.Active != target.Active {
		changes = append(changes, "active")
	}
	demoting := target.Role == models.RoleAdmin && target.Active &&
		(roleChanged || patch.Active != nil && !*patch.Active)
	if demoting {
		if err := s.keepOneAdmin(ctx); err != nil {
			return models.User{}, err
		}
	}

	if err := s.users.Update(ctx, id, upd); err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			return models.User{}, duplicateEmail()
		}
		return models.User{}, apperr.FromStore("principals.UpdateProfile", "principal", err)
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if patch.Password != nil {
		s.audit.PasswordChanged(ctx, c, id, p.ID)
	}
	if roleChanged {
		s.audit.RoleChanged(ctx, c, id, p.ID, target.Role, updated.Role)
	}
	if len(changes) > 0 {
		s.dispatch.Record(dispatch.Activity{
			Actor:       p.ID,
			Action:      models.ActionUpdateUser,
			EntityType:  models.EntityUser,
			EntityID:    id,
			EntityLabel: updated.Name,
			Details:     map[string]any{"changes": changes},
		})
	}
	return updated.Sanitized(), nil
}

func (s *Service) keepOneAdmin(ctx context.Context) error {
	n, err := s.users.CountActiveByRole(ctx, models.RoleAdmin)
	if err != nil {
		return apperr.Internal("principals.keepOneAdmin", err)
	}
	if n <= 1 {
		return apperr.Conflict("the last active admin cannot be demoted or deactivated")
	}
	return nil
}

// Deactivate soft-deletes target. Admins cannot deactivate themselves.
func (s *Service) Deactivate(ctx context.Context, p *models.User, id primitive.ObjectID) error {
	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeactivatePrincipal(p, target) {
		return apperr.Forbidden("you may not deactivate this principal")
	}
	if !target.Active {
		return nil
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		return apperr.FromStore("principals.Deactivate", "principal", err)
	}
	s.log.Info("principal deactivated", zap.String("user_id", id.Hex()), zap.String("actor", p.ID.Hex()))

	s.dispatch.Record(dispatch.Activity{
		Actor:       p.ID,
		Action:      models.ActionDeactivateUser,
		EntityType:  models.EntityUser,
		EntityID:    id,
		EntityLabel: target.Name,
	})
	return nil
}

// ListFilter narrows the principal directory. Status is "active",
// "inactive", or empty for both. Q is a prefix of the name, or of the email
// when it contains an '@'.
type ListFilter struct {
	Role   string `json:"role" validate:"oneof=admin manager user" label:"Role"`
	Status string `json:"status" validate:"oneof=active inactive" label:"Status"`
	Q      string `json:"q" validate:"max=200" label:"Search"`
}

// List returns one page of principals. Staff only.
func (s *Service) List(ctx context.Context, p *models.User, f ListFilter, pg paging.Request) (paging.Page[models.User], error) {
	if !policy.CanListPrincipals(p) {
		return paging.Page[models.User]{}, apperr.Forbidden("only admins and managers may list principals")
	}
	pg = pg.Normalize()
	f.Role = normalize.Role(normalize.FilterID(f.Role))
	f.Status = normalize.Enum(normalize.FilterID(f.Status))
	f.Q = normalize.QueryParam(f.Q)
	if res := inputval.Validate(f); res.HasErrors() {
		return paging.Page[models.User]{}, res.Err()
	}

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if search.StatusFixed(f.Status) {
		filter["active"] = f.Status == "active"
	}
	sortField := "name_ci"
	if search.EmailPivot(f.Q) {
		sortField = "email"
	}
	if f.Q != "" {
		if sortField == "email" {
			filter["email"] = bson.M{"$regex": "^" + regexp.QuoteMeta(normalize.Email(f.Q))}
		} else {
			filter["name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(f.Q))}
		}
	}

	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return paging.Page[models.User]{}, apperr.Internal("principals.List: count", err)
	}
	opts := pg.ApplyToFind(options.Find().
		SetProjection(bson.M{"password_hash": 0}).
		SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}}))
	items, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return paging.Page[models.User]{}, apperr.Internal("principals.List", err)
	}
	return paging.NewPage(items, pg, total), nil
}
