package principals

import (
	"context"
	"errors"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/authutil"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Register creates a plain user and signs them in.
func (s *Service) Register(ctx context.Context, c auditlog.Client, in RegisterInput) (Session, error) {
	u, err := s.create(ctx, CreateInput{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     models.RoleUser,
	})
	if err != nil {
		return Session{}, err
	}
	s.log.Info("principal registered", zap.String("user_id", u.ID.Hex()))
	s.audit.Registered(ctx, c, u.ID, u.Email)
	s.dispatch.Record(dispatch.Activity{
		Actor:       u.ID,
		Action:      models.ActionCreateUser,
		EntityType:  models.EntityUser,
		EntityID:    u.ID,
		EntityLabel: u.Name,
		Details:     map[string]any{"role": u.Role, "self_registered": true},
	})
	return s.issue(&u)
}

// Login exchanges an email and password for a bearer credential. Attempts
// are throttled per client address and per email.
func (s *Service) Login(ctx context.Context, c auditlog.Client, in LoginInput) (Session, error) {
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		return Session{}, res.Err()
	}

	if s.limiter != nil {
		if ok, msg := s.limiter.Check(c.IP, in.Email); !ok {
			s.audit.LoginFailedRateLimit(ctx, c, in.Email)
			return Session{}, apperr.Unauthenticated(msg)
		}
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		s.audit.LoginFailedUserNotFound(ctx, c, in.Email)
		return Session{}, apperr.Unauthenticated(badCredentials)
	}
	if err != nil {
		return Session{}, apperr.Internal("principals.Login", err)
	}
	if !authutil.CheckPassword(u.PasswordHash, in.Password) {
		s.audit.LoginFailedWrongPassword(ctx, c, u.ID, in.Email)
		return Session{}, apperr.Unauthenticated(badCredentials)
	}
	if !u.Active {
		s.audit.LoginFailedUserDisabled(ctx, c, u.ID, in.Email)
		return Session{}, apperr.Unauthenticated(badCredentials)
	}

	if s.limiter != nil {
		s.limiter.ResetEmail(in.Email)
	}
	s.audit.LoginSuccess(ctx, c, u.ID, in.Email)
	return s.issue(u)
}
