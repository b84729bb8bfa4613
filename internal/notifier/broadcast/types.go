package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"promobot/internal/catalog"
	"promobot/internal/eventbus"
	"promobot/internal/storage"
	kit "promobot/internal/transport"
	logx "promobot/pkg/logx"
)

type Config struct {
	RatePerSec float64       // sends per second across all chats
	Timeout    time.Duration // upper bound for one full pass; 0 means none
}

// ErrBusy is returned when a broadcast is already in progress.
var ErrBusy = errors.New("broadcast already running")

// Trigger says what started a run.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Catalog is the part of the chat catalog a broadcast reads and prunes.
type Catalog interface {
	Chats() []storage.Chat
	Header() catalog.Header
	RemoveChats(ctx context.Context, ids ...int64) ([]storage.Chat, error)
	Audit(ctx context.Context, e storage.AuditEntry)
}

// Notifier delivers the run summary to the admin.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Failure is one chat that did not receive the message.
type Failure struct {
	ChatID  int64
	Name    string
	Kind    FailureKind
	Message string
}

type FailureKind int

const (
	FailForbidden FailureKind = iota
	FailBadRequest
	FailOther
)

type Report struct {
	ID         string
	Trigger    Trigger
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	OK         int
	Failed     int
	Failures   []Failure
	Removed    []storage.Chat
	NoChats    bool
	Aborted    error // set when the pass stopped early (timeout or shutdown)
}

type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	sender kit.Sender
	cat    Catalog
	notify Notifier
	log    logx.Logger
	bus    eventbus.Bus

	running atomic.Bool
	last    *Report

	shuffle func([]storage.Chat)
	now     func() time.Time
}
