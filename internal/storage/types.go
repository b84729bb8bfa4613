package storage

import (
	"context"
	"time"
)

// DefaultHeaderText is the caption used until the admin edits it.
const DefaultHeaderText = "✨ Confira essas listas de canais e grupos no Telegram! ✨"

// Config configures storage.
//
// Driver values: "file" (default), "sqlite", "postgres".
type Config struct {
	Driver      string
	Path        string        // file and sqlite
	DSN         string        // postgres
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Chat is a registered chat.
type Chat struct {
	ID           int64
	Name         string
	Kind         string // group | supergroup | channel
	Link         string
	Members      int
	RegisteredAt time.Time
}

// Schedule holds the admin's daily broadcast times ("HH:MM").
type Schedule struct {
	Times  []string
	Active bool
}

// Snapshot is the whole persisted state. AdminID 0 means unclaimed.
type Snapshot struct {
	Chats           map[int64]Chat
	Schedules       map[int64]Schedule
	HeaderText      string
	HeaderMediaID   string
	HeaderMediaKind string // photo | video | animation | ""
	AdminID         int64
}

// Default returns the state of a fresh installation.
func Default() Snapshot {
	return Snapshot{
		Chats:      map[int64]Chat{},
		Schedules:  map[int64]Schedule{},
		HeaderText: DefaultHeaderText,
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Chats = make(map[int64]Chat, len(s.Chats))
	for id, c := range s.Chats {
		out.Chats[id] = c
	}
	out.Schedules = make(map[int64]Schedule, len(s.Schedules))
	for id, sc := range s.Schedules {
		sc.Times = append([]string(nil), sc.Times...)
		out.Schedules[id] = sc
	}
	return out
}

// AuditEntry records an operator action or a broadcast run.
type AuditEntry struct {
	At      time.Time `json:"at"`
	ActorID int64     `json:"actor_id,omitempty"`
	Action  string    `json:"action"`
	Target  string    `json:"target,omitempty"`
	OK      int       `json:"ok,omitempty"`
	Fail    int       `json:"fail,omitempty"`
	Error   string    `json:"error,omitempty"`
	TookMS  int64     `json:"took_ms,omitempty"`
}

// Store loads and saves snapshots wholesale.
type Store interface {
	// Load returns Default() when nothing was saved yet.
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
	AppendAudit(ctx context.Context, e AuditEntry) error
	Close() error
}
