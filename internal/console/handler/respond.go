package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/hotel-guard/internal/domain"
	"github.com/xela07ax/hotel-guard/internal/infra"
)

// writeServiceError переводит доменную ошибку в HTTP-статус.
// Внутренние детали клиенту не отдаем, только в лог.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	var status int
	var code, msg string
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status, code, msg = http.StatusUnauthorized, "unauthenticated", "Invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = http.StatusForbidden, "forbidden", "Insufficient role"
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = http.StatusNotFound, "not_found", "Not found"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, code, msg = http.StatusConflict, "conflict", "Already exists"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code, msg = http.StatusServiceUnavailable, "unavailable", fallback
	default:
		status, code, msg = http.StatusInternalServerError, "internal", fallback
	}

	if status >= http.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("trace_id", infra.TraceID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	infra.WriteError(w, status, code, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
