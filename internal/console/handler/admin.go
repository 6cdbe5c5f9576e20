package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/infra/auth"
	"github.com/xela07ax/hotel-guard/internal/risk"
)

type ReportService interface {
	MonitoredActors(ctx context.Context) ([]domain.MonitoredActor, error)
	SuspiciousActors(ctx context.Context) ([]domain.SuspiciousActor, error)
	RecentTrail(ctx context.Context) ([]domain.TrailEntry, error)
	ActorHistory(ctx context.Context, actorID int64) ([]domain.ActionRecord, error)
}

// MonitorControl — управление жизненным циклом порогового монитора.
type MonitorControl interface {
	Start() bool
	Stop()
	Status() domain.MonitorStatus
	ScanOnce(ctx context.Context) (risk.ScanResult, error)
}

type AdminHandler struct {
	reports ReportService
	monitor MonitorControl
	logger  *zap.Logger
}

func NewAdminHandler(reports ReportService, monitor MonitorControl, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{reports: reports, monitor: monitor, logger: logger.Named("admin-handler")}
}

// MonitoredUsers GET /api/admin/monitored-users
func (h *AdminHandler) MonitoredUsers(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.MonitoredActors(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching monitored users")
		return
	}
	infra.WriteJSON(w, http.StatusOK, out)
}

// SuspiciousActivity GET /api/admin/suspicious-activity
func (h *AdminHandler) SuspiciousActivity(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.SuspiciousActors(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching suspicious activity")
		return
	}
	infra.WriteJSON(w, http.StatusOK, out)
}

// ActivityLogs GET /api/admin/activity-logs
func (h *AdminHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	out, err := h.reports.RecentTrail(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching activity logs")
		return
	}
	infra.WriteJSON(w, http.StatusOK, out)
}

// UserLogs GET /api/admin/user-logs/{actorID}
func (h *AdminHandler) UserLogs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "actorID"), 10, 64)
	if err != nil || id <= 0 {
		infra.WriteError(w, http.StatusBadRequest, "invalid_input", "actor id must be a positive integer")
		return
	}
	out, err := h.reports.ActorHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error fetching user logs")
		return
	}
	infra.WriteJSON(w, http.StatusOK, out)
}

// MonitorStatus GET /api/admin/monitor
func (h *AdminHandler) MonitorStatus(w http.ResponseWriter, r *http.Request) {
	infra.WriteJSON(w, http.StatusOK, h.monitor.Status())
}

// MonitorStart POST /api/admin/monitor/start
func (h *AdminHandler) MonitorStart(w http.ResponseWriter, r *http.Request) {
	if h.monitor.Start() {
		h.logger.Info("monitor started by operator", zap.Int64("actor_id", operatorID(r)))
	}
	infra.WriteJSON(w, http.StatusOK, h.monitor.Status())
}

// MonitorStop POST /api/admin/monitor/stop
func (h *AdminHandler) MonitorStop(w http.ResponseWriter, r *http.Request) {
	h.monitor.Stop()
	h.logger.Info("monitor stop requested by operator", zap.Int64("actor_id", operatorID(r)))
	infra.WriteJSON(w, http.StatusOK, h.monitor.Status())
}

// MonitorScan POST /api/admin/monitor/scan — внеплановый цикл
func (h *AdminHandler) MonitorScan(w http.ResponseWriter, r *http.Request) {
	res, err := h.monitor.ScanOnce(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error running scan")
		return
	}
	infra.WriteJSON(w, http.StatusOK, res)
}

func operatorID(r *http.Request) int64 {
	if a, ok := auth.ActorFromContext(r.Context()); ok {
		return a.ID
	}
	return 0
}
