package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
)

// ActionRepo — журнал действий (таблица action_records).
// Время создания ставит БД (clock_timestamp()), ссылочную целостность — внешний ключ на actors.
type ActionRepo struct {
	db *sql.DB
}

func NewActionRepo(db *sql.DB) *ActionRepo {
	return &ActionRepo{db: db}
}

func (r *ActionRepo) Append(ctx context.Context, rec domain.ActionRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	query := `
		INSERT INTO action_records (actor_id, kind, target_type, target_id, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		rec.ActorID, string(rec.Kind), rec.TargetType, rec.TargetID, rec.Detail,
	).Scan(&id)
	if err != nil {
		return 0, mapErr("append action", err)
	}
	return id, nil
}

func (r *ActionRepo) CountSince(ctx context.Context, actorID int64, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM action_records WHERE actor_id = $1 AND created_at >= $2`,
		actorID, since,
	).Scan(&n)
	if err != nil {
		return 0, mapErr("count actions", err)
	}
	return n, nil
}

func (r *ActionRepo) RecentByTimestampDesc(ctx context.Context, limit int, f audit.Filter) ([]domain.ActionRecord, error) {
	if limit <= 0 {
		return []domain.ActionRecord{}, nil
	}

	query := `SELECT id, actor_id, kind, target_type, target_id, detail, created_at FROM action_records`
	args := []any{limit}
	if f.ActorID != 0 {
		query += ` WHERE actor_id = $2`
		args = append(args, f.ActorID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("recent actions", err)
	}
	defer rows.Close()

	out := make([]domain.ActionRecord, 0, limit)
	for rows.Next() {
		var rec domain.ActionRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.ActorID, &kind, &rec.TargetType, &rec.TargetID, &rec.Detail, &rec.Timestamp); err != nil {
			return nil, mapErr("scan action", err)
		}
		rec.Kind = domain.ActionKind(kind)
		out = append(out, rec)
	}
	// Проверка на ошибки итерации (стандарт качества pgx)
	if err := rows.Err(); err != nil {
		return nil, mapErr("iterate actions", err)
	}
	return out, nil
}

var _ audit.Log = (*ActionRepo)(nil)
