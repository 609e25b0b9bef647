// Package notifications is the per-principal inbox. Every operation is
// scoped to the caller: another principal's notification reads as not found.
package notifications

import (
	"context"

	notificationstore "github.com/dalemusser/crmhub/internal/app/store/notifications"
	"github.com/dalemusser/crmhub/internal/app/system/apperr"
	"github.com/dalemusser/crmhub/internal/app/system/inputval"
	"github.com/dalemusser/crmhub/internal/app/system/normalize"
	"github.com/dalemusser/crmhub/internal/app/system/paging"
	"github.com/dalemusser/crmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	store *notificationstore.Store
	log   *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Service {
	return &Service{store: notificationstore.New(db), log: logger}
}

// ListFilter narrows the inbox.
type ListFilter struct {
	UnreadOnly bool   `json:"unread_only"`
	Kind       string `json:"kind" validate:"oneof=new-task task-updated task-reassigned comment-added call-logged task-reminder" label:"Kind"`
}

func signedIn(p *models.User) error {
	if p == nil {
		return apperr.Unauthenticated("sign in required")
	}
	return nil
}

// List returns one page of p's notifications, newest first.
func (s *Service) List(ctx context.Context, p *models.User, f ListFilter, pg paging.Request) (paging.Page[models.Notification], error) {
	if err := signedIn(p); err != nil {
		return paging.Page[models.Notification]{}, err
	}
	pg = pg.Normalize()
	f.Kind = normalize.Enum(f.Kind)
	if res := inputval.Validate(f); res.HasErrors() {
		return paging.Page[models.Notification]{}, res.Err()
	}
	sf := notificationstore.Filter{UnreadOnly: f.UnreadOnly, Kind: f.Kind}

	total, err := s.store.Count(ctx, p.ID, sf)
	if err != nil {
		return paging.Page[models.Notification]{}, apperr.Internal("notifications.List: count", err)
	}
	items, err := s.store.List(ctx, p.ID, sf, pg.Skip(), int64(pg.Size))
	if err != nil {
		return paging.Page[models.Notification]{}, apperr.Internal("notifications.List", err)
	}
	return paging.NewPage(items, pg, total), nil
}

// MarkRead marks one of p's notifications read. Repeating it is harmless.
func (s *Service) MarkRead(ctx context.Context, p *models.User, id primitive.ObjectID) (models.Notification, error) {
	if err := signedIn(p); err != nil {
		return models.Notification{}, err
	}
	n, err := s.store.MarkRead(ctx, id, p.ID)
	if err != nil {
		return models.Notification{}, apperr.FromStore("notifications.MarkRead", "notification", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of p read and returns how
// many changed. A second call returns 0.
func (s *Service) MarkAllRead(ctx context.Context, p *models.User) (int64, error) {
	if err := signedIn(p); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllRead(ctx, p.ID)
	if err != nil {
		return 0, apperr.Internal("notifications.MarkAllRead", err)
	}
	if n > 0 {
		s.log.Debug("notifications marked read", zap.String("recipient", p.ID.Hex()), zap.Int64("count", n))
	}
	return n, nil
}

// UnreadCount returns how many of p's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, p *models.User) (int64, error) {
	if err := signedIn(p); err != nil {
		return 0, err
	}
	n, err := s.store.UnreadCount(ctx, p.ID)
	if err != nil {
		return 0, apperr.Internal("notifications.UnreadCount", err)
	}
	return n, nil
}
