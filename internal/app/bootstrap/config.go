// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devJWTSecret is the default signing key. ValidateConfig refuses it
// outside dev.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minJWTSecretLen is the shortest HS256 key accepted outside dev.
const minJWTSecretLen = 32

// appConfigKeys defines the configuration keys for CRMHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: CRMHUB_MONGO_URI, CRMHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "crmhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer credentials
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing key for bearer tokens (must be strong in production)"},
	{Name: "jwt_issuer", Default: "crmhub", Desc: "Issuer claim for bearer tokens"},
	{Name: "jwt_ttl", Default: "12h", Desc: "Bearer token lifetime (e.g., 12h, 30m)"},

	// Bootstrap admin
	{Name: "bootstrap_admin_email", Default: "", Desc: "Email of an admin to create or promote on startup"},
	{Name: "bootstrap_admin_password", Default: "", Desc: "Password for a newly created bootstrap admin"},

	// Attachments
	{Name: "storage_local_path", Default: "./uploads/attachments", Desc: "Local storage path for task attachments"},

	// Realtime
	{Name: "nats_url", Default: "", Desc: "NATS server URL for realtime notifications (blank disables)"},
	{Name: "nats_subject_prefix", Default: "crmhub.notifications", Desc: "Subject prefix; the recipient id is appended"},

	// Dispatcher
	{Name: "dispatch_workers", Default: 4, Desc: "Side-effect worker goroutines"},
	{Name: "dispatch_queue_size", Default: 1024, Desc: "Side-effect queue capacity; items beyond it are dropped"},
	{Name: "dispatch_drain_timeout", Default: "10s", Desc: "How long shutdown waits for queued side effects"},
	{Name: "dispatch_job_timeout", Default: "5s", Desc: "Deadline for a single side-effect write"},

	// Reminders
	{Name: "reminder_timezone", Default: "UTC", Desc: "IANA time zone for the daily task reminder"},
	{Name: "reminder_hour", Default: 8, Desc: "Hour of day (0-23) the task reminder runs"},

	// Audit logging
	{Name: "activity_log_mirror", Default: false, Desc: "Also write every activity record to the application log"},
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Security event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login throttling
	{Name: "login_rate_per_minute", Default: 10, Desc: "Login attempts allowed per IP and per email each minute"},

	// Store timeouts
	{Name: "timeout_short", Default: "", Desc: "Single-document store timeout (blank keeps default)"},
	{Name: "timeout_medium", Default: "", Desc: "List and count store timeout (blank keeps default)"},
	{Name: "timeout_search", Default: "", Desc: "Cross-entity search timeout (blank keeps default)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// WAFFLE_* and CRMHUB_* environment variables and flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CRMHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		JWTTTL:    appValues.Duration("jwt_ttl", 12*time.Hour),

		BootstrapAdminEmail:    appValues.String("bootstrap_admin_email"),
		BootstrapAdminPassword: appValues.String("bootstrap_admin_password"),

		StorageLocalPath: appValues.String("storage_local_path"),

		NATSURL:           appValues.String("nats_url"),
		NATSSubjectPrefix: appValues.String("nats_subject_prefix"),

		DispatchWorkers:      appValues.Int("dispatch_workers"),
		DispatchQueueSize:    appValues.Int("dispatch_queue_size"),
		DispatchDrainTimeout: appValues.Duration("dispatch_drain_timeout", 10*time.Second),
		DispatchJobTimeout:   appValues.Duration("dispatch_job_timeout", 5*time.Second),

		ReminderTimezone: appValues.String("reminder_timezone"),
		ReminderHour:     appValues.Int("reminder_hour"),

		ActivityLogMirror: appValues.Bool("activity_log_mirror"),
		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogSecurity:  appValues.String("audit_log_security"),

		LoginRatePerMinute: appValues.Int("login_rate_per_minute"),

		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutSearch: appValues.Duration("timeout_search", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Everything that would otherwise fail late (a bad reminder zone, a weak
// signing key in production) is rejected here.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env != "dev" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < minJWTSecretLen {
			return fmt.Errorf("jwt_secret must be set to at least %d characters outside dev", minJWTSecretLen)
		}
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive, got %s", appCfg.JWTTTL)
	}

	if _, err := time.LoadLocation(appCfg.ReminderTimezone); err != nil {
		return fmt.Errorf("invalid reminder_timezone %q: %w", appCfg.ReminderTimezone, err)
	}
	if appCfg.ReminderHour < 0 || appCfg.ReminderHour > 23 {
		return fmt.Errorf("reminder_hour must be between 0 and 23, got %d", appCfg.ReminderHour)
	}

	if appCfg.DispatchWorkers < 1 || appCfg.DispatchQueueSize < 1 {
		return fmt.Errorf("dispatch_workers and dispatch_queue_size must be at least 1")
	}
	if appCfg.DispatchJobTimeout <= 0 {
		return fmt.Errorf("dispatch_job_timeout must be positive, got %s", appCfg.DispatchJobTimeout)
	}
	if appCfg.DispatchDrainTimeout <= 0 {
		return fmt.Errorf("dispatch_drain_timeout must be positive, got %s", appCfg.DispatchDrainTimeout)
	}
	if appCfg.LoginRatePerMinute < 1 {
		return fmt.Errorf("login_rate_per_minute must be at least 1, got %d", appCfg.LoginRatePerMinute)
	}

	for key, mode := range map[string]string{
		"audit_log_auth":     appCfg.AuditLogAuth,
		"audit_log_security": appCfg.AuditLogSecurity,
	} {
		switch mode {
		case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, mode)
		}
	}

	return nil
}
