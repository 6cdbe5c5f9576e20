package domain

import "time"

// MonitoredActor — строка отчета «помеченные акторы».
type MonitoredActor struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Role       Role       `json:"role"`
	LastAuthAt *time.Time `json:"last_auth_at"`
}

// SuspiciousActor — результат живого пересчета окна, независим от флага Monitored.
type SuspiciousActor struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Monitored bool   `json:"monitored"`
	Count     int64  `json:"count"`
}

type TrailActor struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TrailEntry — запись общего аудита, обогащенная данными актора.
type TrailEntry struct {
	ID         int64      `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	Actor      TrailActor `json:"user"`
	Kind       ActionKind `json:"action"`
	TargetType string     `json:"entity_type"`
	TargetID   int64      `json:"entity_id"`
	Detail     string     `json:"details"`
}

// MonitorStatus — состояние порогового монитора для админки.
type MonitorStatus struct {
	Running      bool       `json:"running"`
	Window       string     `json:"window"`
	Threshold    int64      `json:"threshold"`
	PollInterval string     `json:"poll_interval"`
	Scans        int64      `json:"scans"`
	LastScanAt   *time.Time `json:"last_scan_at,omitempty"`
	LastFlagged  int        `json:"last_flagged"`
}
