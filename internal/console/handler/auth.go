package handler

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
	"github.com/xela07ax/hotel-guard/internal/infra/auth"
)

// AccountService Описываем, что нам нужно от сервиса учетных записей
type AccountService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Actor, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error)
	UpgradeToGold(ctx context.Context, actorID int64) (*domain.Actor, error)
	GoldFeatures() domain.GoldFeatures
}

type AuthHandler struct {
	service AccountService
	limiter *ipLimiter
	logger  *zap.Logger
}

func NewAuthHandler(s AccountService, loginRate float64, loginBurst int, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: s,
		limiter: newIPLimiter(loginRate, loginBurst),
		logger:  logger.Named("auth-handler"),
	}
}

// Register POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		infra.WriteError(w, http.StatusBadRequest, "invalid_input", "bad request")
		return
	}

	actor, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error registering user")
		return
	}
	infra.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"id":      actor.ID,
	})
}

// Login POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientIP(r)) {
		w.Header().Set("Retry-After", "1")
		infra.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many login attempts")
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		infra.WriteError(w, http.StatusBadRequest, "invalid_input", "bad request")
		return
	}

	// не уточняем, что именно неверно (логин или пароль) для защиты от перебора
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Error logging in")
		return
	}
	infra.WriteJSON(w, http.StatusOK, resp)
}

// UpgradeToGold POST /auth/upgrade-to-gold
func (h *AuthHandler) UpgradeToGold(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if _, err := h.service.UpgradeToGold(r.Context(), actor.ID); err != nil {
		writeServiceError(w, r, h.logger, err, "Error upgrading to Gold tier")
		return
	}
	infra.WriteJSON(w, http.StatusOK, map[string]string{"message": "Successfully upgraded to Gold tier"})
}

// GoldFeatures GET /auth/gold-features
func (h *AuthHandler) GoldFeatures(w http.ResponseWriter, r *http.Request) {
	infra.WriteJSON(w, http.StatusOK, h.service.GoldFeatures())
}

// clientIP — адрес после middleware.RealIP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
