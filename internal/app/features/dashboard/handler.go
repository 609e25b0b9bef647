// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"
	"time"

	"github.com/dalemusser/crmhub/internal/app/features/shared"
	metricsstore "github.com/dalemusser/crmhub/internal/app/store/metrics"
	"github.com/dalemusser/crmhub/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
	Now func() time.Time
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
		Now: time.Now,
	}
}

type dashboardResponse struct {
	Role   string              `json:"role"`
	Counts metricsstore.Counts `json:"counts"`
}

// ServeDashboard returns the caller's totals. Every counter is restricted
// to what the caller may see, so one endpoint serves every role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	p := shared.Principal(r)
	counts := metricsstore.FetchDashboardCounts(r.Context(), h.DB, p, h.Now().UTC())
	respond.OK(w, dashboardResponse{Role: p.Role, Counts: counts})
}
