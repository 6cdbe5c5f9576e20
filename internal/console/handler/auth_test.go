package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

type stubAccounts struct{}

func (stubAccounts) Register(_ context.Context, _ domain.RegisterRequest) (*domain.Actor, error) {
	return &domain.Actor{ID: 1, Role: domain.RoleUser}, nil
}

func (stubAccounts) Login(_ context.Context, _ domain.LoginRequest) (*domain.TokenResponse, error) {
	return &domain.TokenResponse{AccessToken: "token", TokenType: "Bearer", ExpiresIn: int64(time.Hour.Seconds())}, nil
}

func (stubAccounts) UpgradeToGold(_ context.Context, id int64) (*domain.Actor, error) {
	return &domain.Actor{ID: id, Role: domain.RoleGold}, nil
}

func (stubAccounts) GoldFeatures() domain.GoldFeatures { return domain.GoldFeatures{} }

func post(h http.HandlerFunc, body string) int {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec.Code
}

func TestAuthHandler_ThrottlesLoginOnly(t *testing.T) {
	h := NewAuthHandler(stubAccounts{}, 0.001, 1, zap.NewNop())

	assert.Equal(t, http.StatusOK, post(h.Login, `{"email":"a@example.com","password":"password123"}`))
	assert.Equal(t, http.StatusTooManyRequests, post(h.Login, `{"email":"a@example.com","password":"password123"}`))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, post(h.Register, `{"email":"b@example.com","password":"password123"}`))
	}
}
