// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CRMHUB_*), configuration
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// covers ports, TLS, logging level, CORS and body limits; everything that is
// specific to the CRM lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer credentials
	JWTSecret string        // HMAC signing key (must be strong outside dev)
	JWTIssuer string        // "iss" claim
	JWTTTL    time.Duration // credential lifetime

	// Admin created or promoted on startup (blank disables)
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	// Attachment blobs
	StorageLocalPath string // Root directory for uploaded attachments

	// Realtime notification fan-out (blank URL disables)
	NATSURL           string
	NATSSubjectPrefix string

	// Side-effect dispatcher
	DispatchWorkers      int
	DispatchQueueSize    int
	DispatchDrainTimeout time.Duration
	DispatchJobTimeout   time.Duration

	// Daily due-task reminder
	ReminderTimezone string // IANA zone the reminder hour is evaluated in
	ReminderHour     int    // 0-23

	// Logging of activity and security events
	ActivityLogMirror bool   // also write every activity record to the zap log
	AuditLogAuth      string // 'all', 'db', 'log' or 'off'
	AuditLogSecurity  string // 'all', 'db', 'log' or 'off'

	// Per-IP and per-email login attempts allowed each minute
	LoginRatePerMinute int

	// Store I/O deadlines; zero keeps the built-in default
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutSearch time.Duration
}
