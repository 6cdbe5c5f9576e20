package domain

import "errors"

var (
	// ErrUnauthenticated — нет токена, он битый или не резолвится в актора.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden — роль актора не входит в требуемый набор.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownActor — нарушение ссылочной целостности при добавлении записи.
	ErrUnknownActor = errors.New("unknown actor")
	// ErrStoreUnavailable — временный сбой хранилища.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("resource conflict")
	ErrInvalidInput = errors.New("invalid input")
)
