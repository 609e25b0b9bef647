package principals

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/crmhub/internal/app/store/users"
	"github.com/dalemusser/crmhub/internal/app/system/authutil"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureBootstrapAdmin makes sure an active admin with email exists. An
// existing principal with that email is promoted and reactivated; its
// password is left alone. A new one is created with password. An empty
// email does nothing.
func EnsureBootstrapAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	email = normalize.Email(email)
	if email == "" {
		return nil
	}
	users := userstore.New(db)

	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleAdmin && u.Active {
			return nil
		}
		role, active := models.RoleAdmin, true
		if err := users.Update(ctx, u.ID, userstore.Update{Role: &role, Active: &active}); err != nil {
			return err
		}
		logger.Warn("bootstrap admin promoted", zap.String("email", email), zap.String("previous_role", u.Role))
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return err
	}

	if err := authutil.ValidatePassword(password); err != nil {
		return fmt.Errorf("bootstrap_admin_password: %w", err)
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := users.Create(ctx, models.User{
		Name:         "Administrator",
		Email:        email,
		Role:         models.RoleAdmin,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Another instance created it first.
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("bootstrap admin created", zap.String("email", email), zap.String("user_id", created.ID.Hex()))
	return nil
}
