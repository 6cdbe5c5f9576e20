package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
)

// ActorStore — реестр акторов в части, нужной учетным записям.
type ActorStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Actor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	Save(ctx context.Context, a *domain.Actor) error
	ClearMonitored(ctx context.Context, id int64) (bool, error)
}

type TokenIssuer interface {
	Issue(actorID int64) (string, time.Time, error)
}

// Сброс флага оператором дублируется сигналом в Redis
type ClearedNotifier interface {
	ActorCleared(ctx context.Context, actorID int64) error
}

const minPasswordLen = 8

// AccountService — регистрация, вход и смена уровня учетных записей.
type AccountService struct {
	actors     ActorStore
	log        audit.Log
	tokens     TokenIssuer
	cleared    ClearedNotifier
	bcryptCost int
	now        func() time.Time
	logger     *zap.Logger
}

func NewAccountService(actors ActorStore, log audit.Log, tokens TokenIssuer, bcryptCost int, logger *zap.Logger) *AccountService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{
		actors:     actors,
		log:        log,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger.Named("accounts"),
	}
}

// WithClearedNotifier подключает сигнал о снятии флага.
func (s *AccountService) WithClearedNotifier(n ClearedNotifier) *AccountService {
	s.cleared = n
	return s
}

// Register создает учетную запись с ролью USER.
func (s *AccountService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Actor, error) {
	return s.create(ctx, req, domain.RoleUser)
}

// CreateWithRole — создание учетной записи оператором (actorctl), в том числе ADMIN.
func (s *AccountService) CreateWithRole(ctx context.Context, req domain.RegisterRequest, role domain.Role) (*domain.Actor, error) {
	return s.create(ctx, req, role)
}

func (s *AccountService) create(ctx context.Context, req domain.RegisterRequest, role domain.Role) (*domain.Actor, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("accounts: hash password: %w", err)
	}

	actor := &domain.Actor{
		Email:          email,
		CredentialHash: string(hash),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Role:           role,
	}
	if err := s.actors.Save(ctx, actor); err != nil {
		return nil, fmt.Errorf("accounts: register %s: %w", email, err)
	}

	detail := "User registered"
	if role == domain.RoleAdmin {
		detail = "Admin user registered"
	}
	s.record(ctx, actor.ID, domain.ActionCreate, detail)
	s.logger.Info("actor registered", zap.Int64("actor_id", actor.ID), zap.Stringer("role", role))
	return actor, nil
}

// Login проверяет пароль и выпускает токен.
func (s *AccountService) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenResponse, error) {
	// 1. Поиск учетной записи
	actor, err := s.actors.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
		}
		return nil, err
	}

	// 2. Проверка пароля (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(actor.CredentialHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}

	// 3. Отметка о входе
	now := s.now()
	actor.LastAuthAt = &now
	if err := s.actors.Save(ctx, actor); err != nil {
		return nil, fmt.Errorf("accounts: update last login: %w", err)
	}

	// 4. Токен (RS256)
	token, expiresAt, err := s.tokens.Issue(actor.ID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor.ID, domain.ActionRead, "User logged in")

	return &domain.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(expiresAt.Sub(now).Seconds()),
		Actor:       summary(actor),
	}, nil
}

// UpgradeToGold переводит USER в GOLD. Для GOLD и ADMIN — no-op.
func (s *AccountService) UpgradeToGold(ctx context.Context, actorID int64) (*domain.Actor, error) {
	actor, err := s.actors.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleUser {
		return actor, nil
	}
	actor.Role = domain.RoleGold
	if err := s.actors.Save(ctx, actor); err != nil {
		return nil, fmt.Errorf("accounts: upgrade %d: %w", actorID, err)
	}
	s.record(ctx, actor.ID, domain.ActionUpdate, "User upgraded to Gold tier")
	return actor, nil
}

func (s *AccountService) GoldFeatures() domain.GoldFeatures {
	return domain.DefaultGoldFeatures()
}

// SetRole — смена роли оператором.
func (s *AccountService) SetRole(ctx context.Context, email string, role domain.Role) (*domain.Actor, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", domain.ErrInvalidInput)
	}
	actor, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if actor.Role == role {
		return actor, nil
	}
	prev := actor.Role
	actor.Role = role
	if err := s.actors.Save(ctx, actor); err != nil {
		return nil, err
	}
	s.record(ctx, actor.ID, domain.ActionUpdate, fmt.Sprintf("Role changed from %s to %s", prev, role))
	return actor, nil
}

// ClearMonitored снимает флаг monitored. Монитор сам флаг никогда не снимает.
func (s *AccountService) ClearMonitored(ctx context.Context, email string) (*domain.Actor, error) {
	actor, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	cleared, err := s.actors.ClearMonitored(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	actor.Monitored = false
	if !cleared {
		return actor, nil
	}
	s.record(ctx, actor.ID, domain.ActionUpdate, "Monitoring flag cleared by operator")

	if s.cleared != nil {
		if err := s.cleared.ActorCleared(ctx, actor.ID); err != nil {
			s.logger.Warn("cleared signal delivery failed", zap.Int64("actor_id", actor.ID), zap.Error(err))
		}
	}
	return actor, nil
}

// record — аудит best-effort: сбой журнала не отменяет уже выполненную операцию.
func (s *AccountService) record(ctx context.Context, actorID int64, kind domain.ActionKind, detail string) {
	rec := domain.ActionRecord{
		ActorID:    actorID,
		Kind:       kind,
		TargetType: domain.TargetActor,
		TargetID:   actorID,
		Detail:     detail,
	}
	if _, err := s.log.Append(ctx, rec); err != nil {
		s.logger.Error("audit append failed", zap.Int64("actor_id", actorID), zap.String("detail", detail), zap.Error(err))
	}
}

func summary(a *domain.Actor) domain.ActorSummary {
	return domain.ActorSummary{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
	}
}
