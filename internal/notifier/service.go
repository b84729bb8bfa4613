package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"promobot/internal/eventbus"
	kit "promobot/internal/transport"
	logx "promobot/pkg/logx"
)

var ErrNoAdmin = errors.New("notifier: no admin")

// AdminResolver returns the current admin chat id.
type AdminResolver interface {
	AdminID() (int64, bool)
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	sender kit.Sender
	admin  AdminResolver
	bus    eventbus.Bus
	cfg    Config
	now    func() time.Time

	dedup map[string]time.Time
}

func New(cfg Config, sender kit.Sender, admin AdminResolver, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Service{
		log:    log,
		sender: sender,
		admin:  admin,
		bus:    bus,
		cfg:    cfg,
		now:    time.Now,
		dedup:  map[string]time.Time{},
	}
}

// Notify sends text to the admin as plain text without link previews.
func (s *Service) Notify(ctx context.Context, text string) error {
	return s.send(ctx, "", text)
}

// NotifyOnce is Notify with suppression: a second call with the same key
// inside the dedup window is dropped and returns nil.
func (s *Service) NotifyOnce(ctx context.Context, key, text string) error {
	if key != "" && s.cfg.DedupWindow > 0 {
		now := s.now()
		s.mu.Lock()
		for k, until := range s.dedup {
			if now.After(until) {
				delete(s.dedup, k)
			}
		}
		if until, ok := s.dedup[key]; ok && now.Before(until) {
			s.mu.Unlock()
			s.log.Debug("notification suppressed", logx.String("key", key))
			return nil
		}
		s.dedup[key] = now.Add(s.cfg.DedupWindow)
		s.mu.Unlock()
	}
	return s.send(ctx, key, text)
}

func (s *Service) send(ctx context.Context, key, text string) error {
	chatID, ok := s.admin.AdminID()
	if !ok {
		s.log.Debug("no admin; notification dropped", logx.String("key", key))
		return ErrNoAdmin
	}
	_, err := s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{DisablePreview: true})

	ev := NotificationEvent{ChatID: chatID, Key: key, At: s.now()}
	if err != nil {
		ev.Error = err.Error()
		s.log.Warn("admin notification failed", logx.Int64("chat_id", chatID), logx.String("key", key), logx.Err(err))
	}
	s.bus.Publish(eventbus.Event{Type: eventbus.AdminNotified, Data: ev})
	return err
}
