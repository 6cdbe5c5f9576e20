package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Role — закрытое перечисление ролей. Нулевое значение невалидно,
// чтобы «забытая» роль никогда не проходила проверку прав.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleGold
	RoleAdmin
)

// ParseRole разбирает имя роли из БД, токена или CLI.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER":
		return RoleUser, nil
	case "GOLD":
		return RoleGold, nil
	case "ADMIN":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleGold:
		return "GOLD"
	case RoleAdmin:
		return "ADMIN"
	}
	return "UNKNOWN"
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGold, RoleAdmin:
		return true
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidInput, r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value хранит роль в Postgres строкой (колонка actors.role)
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidInput, r)
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	}
	return fmt.Errorf("role: unsupported scan type %T", src)
}

// RoleSet — набор ролей, которым разрешен endpoint (битовая маска).
type RoleSet uint8

var (
	// GoldTier открывает премиальные функции GOLD и ADMIN.
	GoldTier = NewRoleSet(RoleGold, RoleAdmin)
	// AdminOnly — отчеты мониторинга и управление монитором.
	AdminOnly = NewRoleSet(RoleAdmin)
	// AnyRole — достаточно валидной личности.
	AnyRole = NewRoleSet(RoleUser, RoleGold, RoleAdmin)
)

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

// Contains — проверка принадлежности роли набору.
func (s RoleSet) Contains(r Role) bool {
	switch r {
	case RoleUser, RoleGold, RoleAdmin:
		return s&(1<<r) != 0
	}
	return false
}

func (s RoleSet) String() string {
	names := make([]string, 0, 3)
	for _, r := range []Role{RoleUser, RoleGold, RoleAdmin} {
		if s.Contains(r) {
			names = append(names, r.String())
		}
	}
	return strings.Join(names, "|")
}

// Actor — аутентифицированный субъект (гость отеля или администратор).
// Monitored меняет только пороговый монитор, остальные поля — потоки регистрации и входа.
type Actor struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	CredentialHash string     `json:"-"` // Никогда не отправляем на фронт
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           Role       `json:"role"`
	Monitored      bool       `json:"monitored"`
	LastAuthAt     *time.Time `json:"last_auth_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (a *Actor) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
