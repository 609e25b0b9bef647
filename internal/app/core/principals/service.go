// Package principals manages sign-in and the principal directory.
//
// Authentication failures are deliberately uniform: an unknown email, a
// wrong password, and a deactivated account all read as the same
// Unauthenticated error. The security audit log records which one it was.
package principals

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crmhub/internal/app/core/dispatch"
	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/crmhub/internal/app/system/auth"
	"github.com/dalemusser/crmhub/internal/app/system/ratelimit"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const badCredentials = "invalid email or password"

type Service struct {
	users    *userstore.Store
	tokens   *auth.TokenIssuer
	limiter  *ratelimit.LoginLimiter
	audit    *auditlog.Logger
	dispatch *dispatch.Dispatcher
	log      *zap.Logger
}

// New wires the service. limiter may be nil to disable login throttling.
func New(db *mongo.Database, tokens *auth.TokenIssuer, limiter *ratelimit.LoginLimiter,
	audit *auditlog.Logger, d *dispatch.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		users:    userstore.New(db),
		tokens:   tokens,
		limiter:  limiter,
		audit:    audit,
		dispatch: d,
		log:      logger,
	}
}

// Session is a signed-in principal with its bearer credential.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	Principal models.User `json:"principal"`
}

func (s *Service) issue(u *models.User) (Session, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return Session{}, apperr.Internal("principals.issue", err)
	}
	return Session{Token: token, ExpiresAt: exp, Principal: u.Sanitized()}, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("principals.load", "principal", err)
	}
	return u, nil
}

func duplicateEmail() error {
	return apperr.Conflict("a principal with this email already exists")
}

// create stores a principal after checking email uniqueness.
func (s *Service) create(ctx context.Context, in CreateInput) (models.User, error) {
	hash, err := in.clean()
	if err != nil {
		return models.User{}, err
	}
	exists, err := s.users.EmailExistsForOther(ctx, in.Email, primitive.NilObjectID)
	if err != nil {
		return models.User{}, apperr.Internal("principals.create: email check", err)
	}
	if exists {
		return models.User{}, duplicateEmail()
	}
	u, err := s.users.Create(ctx, models.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return models.User{}, duplicateEmail()
	}
	if err != nil {
		return models.User{}, apperr.Internal("principals.create", err)
	}
	return u, nil
}
