package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/crmhub/internal/domain/models"
	"github.com/dalemusser/crmhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "crmhub",
		JWTSecret:            "a-production-secret-that-is-long-enough",
		JWTIssuer:            "crmhub",
		JWTTTL:               time.Hour,
		DispatchWorkers:      2,
		DispatchQueueSize:    16,
		DispatchDrainTimeout: 10 * time.Second,
		DispatchJobTimeout:   5 * time.Second,
		ReminderTimezone:     "America/Chicago",
		ReminderHour:         8,
		AuditLogAuth:         "all",
		AuditLogSecurity:     "db",
		LoginRatePerMinute:   10,
	}
}

func TestValidateConfig(t *testing.T) {
	prod := &config.CoreConfig{Env: "prod"}
	dev := &config.CoreConfig{Env: "dev"}

	tests := []struct {
		name    string
		core    *config.CoreConfig
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", prod, func(*AppConfig) {}, ""},
		{"bad mongo uri", prod, func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "MongoDB URI"},
		{"default secret in prod", prod, func(c *AppConfig) { c.JWTSecret = devJWTSecret }, "jwt_secret"},
		{"short secret in prod", prod, func(c *AppConfig) { c.JWTSecret = "short" }, "jwt_secret"},
		{"default secret in dev", dev, func(c *AppConfig) { c.JWTSecret = devJWTSecret }, ""},
		{"bad timezone", prod, func(c *AppConfig) { c.ReminderTimezone = "Mars/Olympus" }, "reminder_timezone"},
		{"hour out of range", prod, func(c *AppConfig) { c.ReminderHour = 24 }, "reminder_hour"},
		{"no workers", prod, func(c *AppConfig) { c.DispatchWorkers = 0 }, "dispatch_workers"},
		{"zero job timeout", prod, func(c *AppConfig) { c.DispatchJobTimeout = 0 }, "dispatch_job_timeout"},
		{"negative drain timeout", prod, func(c *AppConfig) { c.DispatchDrainTimeout = -time.Second }, "dispatch_drain_timeout"},
		{"bad audit mode", prod, func(c *AppConfig) { c.AuditLogSecurity = "sometimes" }, "audit_log_security"},
		{"zero login rate", prod, func(c *AppConfig) { c.LoginRatePerMinute = 0 }, "login_rate_per_minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(tt.core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

type session struct {
	Token     string      `json:"token"`
	Principal models.User `json:"principal"`
}

func call(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStartupAndRoutes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	core := &config.CoreConfig{Env: "dev"}
	cfg := validAppConfig()
	cfg.ReminderTimezone = "UTC"
	cfg.StorageLocalPath = t.TempDir()
	cfg.DispatchDrainTimeout = 5 * time.Second
	cfg.DispatchJobTimeout = 2 * time.Second
	cfg.BootstrapAdminEmail = "Root@Example.com"
	cfg.BootstrapAdminPassword = "root-password-1"

	// MongoClient stays nil so Shutdown leaves the shared test client open.
	deps := DBDeps{MongoDatabase: db, Services: &Services{}}
	if err := Startup(ctx, core, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	shutdown := func() {
		if err := Shutdown(ctx, core, cfg, deps, testLogger()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	}

	h, err := BuildHandler(core, cfg, deps, testLogger())
	if err != nil {
		shutdown()
		t.Fatalf("BuildHandler: %v", err)
	}

	rec := call(t, h, "POST", "/auth/login", "", map[string]string{"email": "root@example.com", "password": "root-password-1"})
	if rec.Code != http.StatusOK {
		shutdown()
		t.Fatalf("admin login status = %d: %s", rec.Code, rec.Body.String())
	}
	var admin session
	_ = json.Unmarshal(rec.Body.Bytes(), &admin)
	if admin.Principal.Role != models.RoleAdmin {
		t.Errorf("bootstrap admin role = %q", admin.Principal.Role)
	}

	rec = call(t, h, "POST", "/auth/register", "", map[string]string{"name": "Uma", "email": "uma@example.com", "password": "uma-password-2"})
	if rec.Code != http.StatusCreated {
		shutdown()
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	var user session
	_ = json.Unmarshal(rec.Body.Bytes(), &user)

	rec = call(t, h, "POST", "/tasks", admin.Token, map[string]any{
		"title":       "Send proposal",
		"priority":    "high",
		"due_date":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"assigned_to": user.Principal.ID.Hex(),
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("create task status = %d: %s", rec.Code, rec.Body.String())
	}

	if rec = call(t, h, "GET", "/tasks", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /tasks status = %d, want 401", rec.Code)
	}
	if rec = call(t, h, "GET", "/tasks", "not-a-token", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token /tasks status = %d, want 401", rec.Code)
	}
	if rec = call(t, h, "GET", "/activity", user.Token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("user /activity status = %d, want 403", rec.Code)
	}
	if rec = call(t, h, "GET", "/dashboard", user.Token, nil); rec.Code != http.StatusOK {
		t.Errorf("/dashboard status = %d", rec.Code)
	}
	if rec = call(t, h, "GET", "/metrics", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "crmhub_dispatch") {
		t.Errorf("/metrics status = %d", rec.Code)
	}
	if rec = call(t, h, "GET", "/nowhere", "", nil); rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"kind":"not_found"`) {
		t.Errorf("unknown route = %d %s", rec.Code, rec.Body.String())
	}

	// Shutdown drains the dispatcher, so queued side effects are written.
	shutdown()

	n, err := db.Collection("notifications").CountDocuments(ctx, bson.M{
		"recipient": user.Principal.ID,
		"kind":      models.KindNewTask,
	})
	if err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 new-task notification for the assignee, got %d", n)
	}
	if n, _ := db.Collection("activity_records").CountDocuments(ctx, bson.M{"action": models.ActionCreateTask}); n != 1 {
		t.Errorf("expected 1 create-task activity record, got %d", n)
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	_, err := BuildHandler(&config.CoreConfig{}, AppConfig{}, DBDeps{}, testLogger())
	if err == nil {
		t.Fatal("expected an error when Startup has not run")
	}
}
