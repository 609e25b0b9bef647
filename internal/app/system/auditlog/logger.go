// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/crmhub/internal/app/store/audit"
	"github.com/dalemusser/crmhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination modes for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in and registration events.
	Auth string
	// Security controls logging for credential and role changes.
	Security string
}

// Client identifies where a request came from.
type Client struct {
	IP        string
	UserAgent string
}

// ClientFrom extracts the client address and user agent from r.
func ClientFrom(r *http.Request) Client {
	return Client{IP: ratelimit.ClientIP(r), UserAgent: r.UserAgent()}
}

// Logger records security audit events to the audit store and to zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's mode.
// A nil Logger is a no-op so tests and tools can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategorySecurity:
		setting = l.config.Security
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, c Client, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        c.IP,
		UserAgent: c.UserAgent,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, c Client, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            c.IP,
		UserAgent:     c.UserAgent,
		FailureReason: "user not found",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedWrongPassword logs a login attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, c Client, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            c.IP,
		UserAgent:     c.UserAgent,
		FailureReason: "wrong password",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedUserDisabled logs a login attempt by a deactivated principal.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, c Client, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		IP:            c.IP,
		UserAgent:     c.UserAgent,
		FailureReason: "user disabled",
		Details:       map[string]string{"email": email},
	})
}

// LoginFailedRateLimit logs a login attempt rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, c Client, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedRateLimit,
		IP:            c.IP,
		UserAgent:     c.UserAgent,
		FailureReason: "rate limited",
		Details:       map[string]string{"email": email},
	})
}

// Registered logs a self-registration.
func (l *Logger) Registered(ctx context.Context, c Client, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventRegistered,
		UserID:    &userID,
		IP:        c.IP,
		UserAgent: c.UserAgent,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// --- Security Events ---

// PasswordChanged logs a password change. actorID differs from userID when
// an admin set the password.
func (l *Logger) PasswordChanged(ctx context.Context, c Client, userID, actorID primitive.ObjectID) {
	ev := audit.Event{
		Category:  audit.CategorySecurity,
		EventType: audit.EventPasswordChanged,
		UserID:    &userID,
		IP:        c.IP,
		UserAgent: c.UserAgent,
		Success:   true,
	}
	if actorID != userID {
		ev.ActorID = &actorID
	}
	l.Log(ctx, ev)
}

// RoleChanged logs a role change made by an admin.
func (l *Logger) RoleChanged(ctx context.Context, c Client, userID, actorID primitive.ObjectID, from, to string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		EventType: audit.EventRoleChanged,
		UserID:    &userID,
		ActorID:   &actorID,
		IP:        c.IP,
		UserAgent: c.UserAgent,
		Success:   true,
		Details:   map[string]string{"from": from, "to": to},
	})
}

// TokenRejected logs a bearer credential that failed verification.
func (l *Logger) TokenRejected(ctx context.Context, c Client, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventTokenRejected,
		IP:            c.IP,
		UserAgent:     c.UserAgent,
		FailureReason: reason,
	})
}
