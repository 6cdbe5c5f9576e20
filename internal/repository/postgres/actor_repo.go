package postgres

/*
Файл actor_repo.go — реестр акторов в PostgreSQL (таблица actors).
Флаг monitored меняется только условным UPDATE, поэтому запись атомарна для актора
и не перетирает параллельные изменения роли или времени входа.
*/

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

const actorColumns = `id, email, credential_hash, first_name, last_name, role, monitored, last_auth_at, created_at`

type ActorRepo struct {
	db *sql.DB
}

func NewActorRepo(db *sql.DB) *ActorRepo {
	return &ActorRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*domain.Actor, error) {
	var a domain.Actor
	var lastAuth sql.NullTime // Используем для обработки NULL из БД
	if err := row.Scan(
		&a.ID, &a.Email, &a.CredentialHash, &a.FirstName, &a.LastName,
		&a.Role, &a.Monitored, &lastAuth, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lastAuth.Valid {
		t := lastAuth.Time
		a.LastAuthAt = &t
	}
	return &a, nil
}

func (r *ActorRepo) GetByID(ctx context.Context, id int64) (*domain.Actor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
	a, err := scanActor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("postgres: actor %d: %w", id, domain.ErrNotFound)
		}
		return nil, mapErr("get actor", err)
	}
	return a, nil
}

func (r *ActorRepo) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRowContext(ctx, `SELECT `+actorColumns+` FROM actors WHERE email = $1`, email)
	a, err := scanActor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("postgres: actor %q: %w", email, domain.ErrNotFound)
		}
		return nil, mapErr("get actor by email", err)
	}
	return a, nil
}

// Save создает актора (ID == 0) или обновляет поля существующего, кроме monitored.
func (r *ActorRepo) Save(ctx context.Context, a *domain.Actor) error {
	if !a.Role.Valid() {
		return fmt.Errorf("%w: actor role is required", domain.ErrInvalidInput)
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	if a.ID == 0 {
		query := `
			INSERT INTO actors (email, credential_hash, first_name, last_name, role, monitored, last_auth_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at`
		err := r.db.QueryRowContext(ctx, query,
			a.Email, a.CredentialHash, a.FirstName, a.LastName, a.Role, a.Monitored, a.LastAuthAt,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return mapErr("create actor", err)
		}
		return nil
	}

	query := `
		UPDATE actors
		SET email = $1, credential_hash = $2, first_name = $3, last_name = $4,
		    role = $5, last_auth_at = $6
		WHERE id = $7
		RETURNING monitored`
	err := r.db.QueryRowContext(ctx, query,
		a.Email, a.CredentialHash, a.FirstName, a.LastName, a.Role, a.LastAuthAt, a.ID,
	).Scan(&a.Monitored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("postgres: actor %d: %w", a.ID, domain.ErrNotFound)
		}
		return mapErr("update actor", err)
	}
	return nil
}

// MarkMonitored переводит флаг false→true одним условным UPDATE.
// false без ошибки: актор уже помечен (или исчез между сканом и записью).
func (r *ActorRepo) MarkMonitored(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE actors SET monitored = TRUE WHERE id = $1 AND monitored = FALSE`, id)
	if err != nil {
		return false, mapErr("mark monitored", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, mapErr("mark monitored", err)
	}
	return rows == 1, nil
}

// ClearMonitored — ручной сброс флага оператором, симметричный MarkMonitored.
func (r *ActorRepo) ClearMonitored(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE actors SET monitored = FALSE WHERE id = $1 AND monitored = TRUE`, id)
	if err != nil {
		return false, mapErr("clear monitored", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, mapErr("clear monitored", err)
	}
	return rows == 1, nil
}

func (r *ActorRepo) FindAll(ctx context.Context) ([]domain.Actor, error) {
	return r.list(ctx, `SELECT `+actorColumns+` FROM actors ORDER BY id`)
}

func (r *ActorRepo) FindMonitored(ctx context.Context) ([]domain.Actor, error) {
	return r.list(ctx, `SELECT `+actorColumns+` FROM actors WHERE monitored = TRUE ORDER BY id`)
}

func (r *ActorRepo) list(ctx context.Context, query string, args ...any) ([]domain.Actor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list actors", err)
	}
	defer rows.Close()

	// Пустой слайс, чтобы в JSON был [] вместо null
	out := make([]domain.Actor, 0)
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, mapErr("scan actor", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("iterate actors", err)
	}
	return out, nil
}
