package domain

import (
	"fmt"
	"time"
)

type ActionKind string

const (
	ActionCreate ActionKind = "CREATE"
	ActionRead   ActionKind = "READ"
	ActionUpdate ActionKind = "UPDATE"
	ActionDelete ActionKind = "DELETE"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Типы целей, которые пишет ядро мониторинга
const (
	TargetRequest = "Request"
	TargetActor   = "Actor"
)

// ActionRecord — неизменяемая запись журнала действий.
// После вставки не обновляется и не удаляется. Порядок: Timestamp, затем ID.
type ActionRecord struct {
	ID         int64      `json:"id"`
	ActorID    int64      `json:"actor_id"`
	Kind       ActionKind `json:"action"`
	TargetType string     `json:"entity_type"`
	TargetID   int64      `json:"entity_id"` // 0 — неприменимо
	Detail     string     `json:"details"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Validate проверяет запись перед вставкой в журнал.
func (r *ActionRecord) Validate() error {
	if r.ActorID <= 0 {
		return fmt.Errorf("%w: actor id is required", ErrInvalidInput)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidInput, r.Kind)
	}
	if r.TargetType == "" {
		return fmt.Errorf("%w: target type is required", ErrInvalidInput)
	}
	return nil
}

// RequestRecord — аудит-запись, которую шлюз доступа пишет на каждый опознанный запрос.
func RequestRecord(actorID int64, method, path string) ActionRecord {
	return ActionRecord{
		ActorID:    actorID,
		Kind:       ActionRead,
		TargetType: TargetRequest,
		TargetID:   0,
		Detail:     method + " " + path,
	}
}
