package audit

/*
Файл log.go описывает контракт журнала действий (Action Log Store) —
append-only хранилища, которое питает пороговый монитор и отчеты админки.

Гарантии контракта:
- Append вставляет ровно одну неизменяемую запись. Отсутствующий актор — ErrUnknownActor,
  недоступная БД — ErrStoreUnavailable.
- CountSince, выполненный в момент T, видит все вставки, завершившиеся до T.
  Вставки, которые гонятся с чтением, учитывать не обязательно.
- RecentByTimestampDesc отдает не больше limit записей, новые первыми.
*/

import (
	"context"
	"time"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

// RecentLimit — размер страницы отчетов аудита в админке.
const RecentLimit = 100

// Filter ограничивает выборку RecentByTimestampDesc.
type Filter struct {
	ActorID int64 // 0 — все акторы
}

type Log interface {
	Append(ctx context.Context, rec domain.ActionRecord) (int64, error)
	CountSince(ctx context.Context, actorID int64, since time.Time) (int64, error)
	RecentByTimestampDesc(ctx context.Context, limit int, f Filter) ([]domain.ActionRecord, error)
}
