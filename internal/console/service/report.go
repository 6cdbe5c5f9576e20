package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/hotel-guard/internal/audit"
	"github.com/xela07ax/hotel-guard/internal/domain"
)

// ActorReader — реестр акторов в части, нужной отчетам.
type ActorReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Actor, error)
	FindAll(ctx context.Context) ([]domain.Actor, error)
	FindMonitored(ctx context.Context) ([]domain.Actor, error)
}

// WindowSource отдает текущие параметры окна монитора.
type WindowSource interface {
	Window() time.Duration
	Threshold() int64
}

// ReportService — запросы админки к реестру и журналу.
type ReportService struct {
	actors ActorReader
	log    audit.Log
	window WindowSource
	now    func() time.Time
}

func NewReportService(actors ActorReader, log audit.Log, window WindowSource) *ReportService {
	return &ReportService{
		actors: actors,
		log:    log,
		window: window,
		now:    time.Now,
	}
}

// MonitoredActors — все акторы с флагом monitored, по возрастанию ID.
func (s *ReportService) MonitoredActors(ctx context.Context) ([]domain.MonitoredActor, error) {
	actors, err := s.actors.FindMonitored(ctx)
	if err != nil {
		return nil, fmt.Errorf("report_service: monitored actors: %w", err)
	}
	out := make([]domain.MonitoredActor, 0, len(actors))
	for _, a := range actors {
		out = append(out, domain.MonitoredActor{
			ID:         a.ID,
			Email:      a.Email,
			FirstName:  a.FirstName,
			LastName:   a.LastName,
			Role:       a.Role,
			LastAuthAt: a.LastAuthAt,
		})
	}
	return out, nil
}

// SuspiciousActors пересчитывает окно в момент запроса.
// Результат не зависит от флага monitored: помеченный актор, который затих,
// здесь не появится, а непомеченный с активностью выше порога — появится.
func (s *ReportService) SuspiciousActors(ctx context.Context) ([]domain.SuspiciousActor, error) {
	actors, err := s.actors.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("report_service: suspicious actors: %w", err)
	}
	since := s.now().Add(-s.window.Window())
	threshold := s.window.Threshold()

	out := make([]domain.SuspiciousActor, 0)
	for _, a := range actors {
		count, err := s.log.CountSince(ctx, a.ID, since)
		if err != nil {
			return nil, fmt.Errorf("report_service: count actor %d: %w", a.ID, err)
		}
		if count >= threshold {
			out = append(out, domain.SuspiciousActor{
				ID:        a.ID,
				Email:     a.Email,
				Monitored: a.Monitored,
				Count:     count,
			})
		}
	}
	return out, nil
}

// RecentTrail — последние audit.RecentLimit записей всех акторов.
func (s *ReportService) RecentTrail(ctx context.Context) ([]domain.TrailEntry, error) {
	recs, err := s.log.RecentByTimestampDesc(ctx, audit.RecentLimit, audit.Filter{})
	if err != nil {
		return nil, fmt.Errorf("report_service: recent trail: %w", err)
	}

	cache := make(map[int64]domain.TrailActor)
	out := make([]domain.TrailEntry, 0, len(recs))
	for _, rec := range recs {
		who, ok := cache[rec.ActorID]
		if !ok {
			a, err := s.actors.GetByID(ctx, rec.ActorID)
			if err != nil {
				return nil, fmt.Errorf("report_service: actor %d: %w", rec.ActorID, err)
			}
			who = domain.TrailActor{Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
			cache[rec.ActorID] = who
		}
		out = append(out, domain.TrailEntry{
			ID:         rec.ID,
			Timestamp:  rec.Timestamp,
			Actor:      who,
			Kind:       rec.Kind,
			TargetType: rec.TargetType,
			TargetID:   rec.TargetID,
			Detail:     rec.Detail,
		})
	}
	return out, nil
}

// ActorHistory — последние записи одного актора. Неизвестный актор — ErrNotFound.
func (s *ReportService) ActorHistory(ctx context.Context, actorID int64) ([]domain.ActionRecord, error) {
	if _, err := s.actors.GetByID(ctx, actorID); err != nil {
		return nil, err
	}
	recs, err := s.log.RecentByTimestampDesc(ctx, audit.RecentLimit, audit.Filter{ActorID: actorID})
	if err != nil {
		return nil, fmt.Errorf("report_service: actor %d history: %w", actorID, err)
	}
	return recs, nil
}
