// Package promo implements the promotion bot: chat registration, header and
// schedule management, and the admin commands around the broadcast.
//
// Handlers are plain router.HandlerFuncs; the service owns no goroutines
// except the manual broadcasts it hands to Spawn.
package promo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"promobot/internal/catalog"
	"promobot/internal/eventbus"
	"promobot/internal/notifier/broadcast"
	"promobot/internal/session"
	"promobot/internal/storage"
	"promobot/internal/task/scheduler"
	kit "promobot/internal/transport"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
)

const DefaultMinMembers = 50

type Config struct {
	MinMembers       int           // non-private chats below this are rejected
	BroadcastTimeout time.Duration // per scheduled trigger; 0 means none
}

// Broadcaster runs one fan-out pass.
type Broadcaster interface {
	Run(ctx context.Context, trigger broadcast.Trigger) (broadcast.Report, error)
	Running() bool
	Last() (broadcast.Report, bool)
}

// AdminNotifier delivers plain text to the admin chat.
type AdminNotifier interface {
	Notify(ctx context.Context, text string) error
	NotifyOnce(ctx context.Context, key, text string) error
}

// Triggers is the scheduler surface used for daily broadcasts.
type Triggers interface {
	AddDaily(name, atHHMM string, timeout time.Duration, job scheduler.Job) (string, error)
	RemovePrefix(prefix string) int
	Snapshot() scheduler.Snapshot
}

// Spawner runs fn in the background under name.
type Spawner func(name string, fn func(ctx context.Context) error)

type Deps struct {
	Catalog   *catalog.Catalog
	Sessions  session.Store
	Sender    kit.Sender
	Chats     kit.ChatInspector
	Broadcast Broadcaster
	Notifier  AdminNotifier
	Triggers  Triggers
	Spawn     Spawner // nil runs manual broadcasts inline
	Log       logx.Logger
	Bus       eventbus.Bus
}

type Service struct {
	mu  sync.RWMutex
	cfg Config

	cat      *catalog.Catalog
	sessions session.Store
	sender   kit.Sender
	chats    kit.ChatInspector
	bcast    Broadcaster
	notify   AdminNotifier
	triggers Triggers
	sched    *ScheduleAdapter
	spawn    Spawner
	log      logx.Logger
	bus      eventbus.Bus

	router *router.Router
}

func New(cfg Config, d Deps) (*Service, error) {
	switch {
	case d.Catalog == nil:
		return nil, errors.New("promo: catalog required")
	case d.Sessions == nil:
		return nil, errors.New("promo: session store required")
	case d.Sender == nil || d.Chats == nil:
		return nil, errors.New("promo: transport required")
	case d.Broadcast == nil || d.Notifier == nil || d.Triggers == nil:
		return nil, errors.New("promo: broadcast, notifier and triggers required")
	}
	log := d.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	bus := d.Bus
	if bus == nil {
		bus = eventbus.Nop{}
	}
	s := &Service{
		cat:      d.Catalog,
		sessions: d.Sessions,
		sender:   d.Sender,
		chats:    d.Chats,
		bcast:    d.Broadcast,
		notify:   d.Notifier,
		triggers: d.Triggers,
		spawn:    d.Spawn,
		log:      log,
		bus:      bus,
	}
	s.Apply(cfg)
	s.sched = &ScheduleAdapter{
		Triggers: d.Triggers,
		Timeout:  s.broadcastTimeout,
		Job: func(ctx context.Context) error {
			return s.Broadcast(ctx, broadcast.TriggerScheduled)
		},
		Log: log.With(logx.String("comp", "schedule")),
	}
	return s, nil
}

// Apply swaps the runtime settings.
func (s *Service) Apply(cfg Config) {
	if cfg.MinMembers <= 0 {
		cfg.MinMembers = DefaultMinMembers
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Service) config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Service) broadcastTimeout() time.Duration { return s.config().BroadcastTimeout }

// Install registers the command table, the button routes and the
// fallbacks on r.
func (s *Service) Install(r *router.Router) {
	s.router = r
	r.SetRegistry(s.Commands(), s.Callbacks(), s.Fallbacks())
}

// Start installs the daily triggers of the stored schedule.
func (s *Service) Start(ctx context.Context) {
	adminID, ok := s.cat.AdminID()
	if !ok {
		s.log.Info("no admin yet; schedule not installed")
		return
	}
	sc, _ := s.cat.Schedule(adminID)
	s.sched.Reconcile(sc)
}

// Broadcast is the single entry point for scheduled and manual runs.
func (s *Service) Broadcast(ctx context.Context, trigger broadcast.Trigger) error {
	rep, err := s.bcast.Run(ctx, trigger)
	if errors.Is(err, broadcast.ErrBusy) {
		s.log.Warn("broadcast skipped: another run in progress", logx.String("trigger", string(trigger)))
		return err
	}
	if err != nil {
		return err
	}
	s.log.Info("broadcast done",
		logx.String("trigger", string(trigger)),
		logx.Int("ok", rep.OK),
		logx.Int("failed", rep.Failed),
		logx.Int("removed", len(rep.Removed)),
	)
	return nil
}

// ReportError is the router's error reporter: a generic reply to the chat
// and a deduplicated note to the admin.
func (s *Service) ReportError(ctx context.Context, req *router.Request, err error) {
	if req.Message != nil || req.Callback != nil {
		_, _ = req.Reply(ctx, txtInternal, nil)
	}
	key := "handler:" + req.Command
	text := "Erro ao processar " + req.Command + ": " + err.Error()
	if nerr := s.notify.NotifyOnce(context.WithoutCancel(ctx), key, text); nerr != nil && !errors.Is(nerr, context.Canceled) {
		s.log.Debug("admin error note not sent", logx.Err(nerr))
	}
}

func (s *Service) audit(ctx context.Context, actor int64, action, target string, err error) {
	e := storage.AuditEntry{ActorID: actor, Action: action, Target: target}
	if err != nil {
		e.Error = err.Error()
	}
	s.cat.Audit(ctx, e)
}

func (s *Service) publish(typ string, data any) {
	s.bus.Publish(eventbus.Event{Type: typ, Data: data})
}

// session loads the caller's conversation.
func (s *Service) session(ctx context.Context, userID int64) (session.Session, error) {
	return s.sessions.Get(ctx, userID)
}

// fire applies ev to the caller's session and stores it.
func (s *Service) fire(ctx context.Context, sess *session.Session, ev session.Event) error {
	if err := sess.Fire(ev); err != nil {
		return err
	}
	return session.Save(ctx, s.sessions, *sess)
}

// send writes plain text to a chat and logs failures.
func (s *Service) send(ctx context.Context, chatID int64, text string) {
	if chatID == 0 {
		return
	}
	if _, err := s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{DisablePreview: true}); err != nil {
		s.log.Warn("send failed", logx.Int64("chat_id", chatID), logx.Err(err))
	}
}

func (s *Service) notifyAdmin(ctx context.Context, text string) {
	if err := s.notify.Notify(ctx, text); err != nil {
		s.log.Warn("admin notification failed", logx.Err(err))
	}
}

func displayName(m *kit.Message) string {
	if m == nil {
		return ""
	}
	if n := strings.TrimSpace(m.FromName); n != "" {
		return n
	}
	if m.FromUsername != "" {
		return "@" + m.FromUsername
	}
	return "você"
}
