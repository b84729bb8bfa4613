package broadcast

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"promobot/internal/eventbus"
	"promobot/internal/storage"
	kit "promobot/internal/transport"
	logx "promobot/pkg/logx"
)

const DefaultRatePerSec = 20

func New(cfg Config, sender kit.Sender, cat Catalog, notify Notifier, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if bus == nil {
		bus = eventbus.Nop{}
	}
	s := &Service{
		sender: sender,
		cat:    cat,
		notify: notify,
		log:    log,
		bus:    bus,
		shuffle: func(c []storage.Chat) {
			rand.Shuffle(len(c), func(i, j int) { c[i], c[j] = c[j], c[i] })
		},
		now: time.Now,
	}
	s.Apply(cfg)
	return s
}

// Apply swaps the pacing and timeout. A running pass keeps its limiter.
func (s *Service) Apply(cfg Config) {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = DefaultRatePerSec
	}
	s.mu.Lock()
	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	s.mu.Unlock()
}

// Running reports whether a pass is in progress.
func (s *Service) Running() bool { return s.running.Load() }

// Last returns the report of the most recent finished run.
func (s *Service) Last() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// Run sends the composed message to every registered chat, one at a time,
// then removes chats that rejected the bot in one batch and sends a summary
// to the admin. With no chats registered it only warns the admin.
func (s *Service) Run(ctx context.Context, trigger Trigger) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, ErrBusy
	}
	defer s.running.Store(false)

	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	// Bookkeeping after the pass must survive the pass timeout.
	bookCtx := context.WithoutCancel(ctx)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	rep := Report{ID: uuid.NewString(), Trigger: trigger, StartedAt: s.now()}
	log := s.log.With(logx.String("run", rep.ID), logx.String("trigger", string(trigger)))

	chats := s.cat.Chats()
	rep.Total = len(chats)
	if len(chats) == 0 {
		rep.NoChats = true
		rep.FinishedAt = s.now()
		log.Info("broadcast skipped: no chats registered")
		if err := s.notify.Notify(bookCtx, NoChatsText); err != nil {
			log.Warn("no-chats warning not delivered", logx.Err(err))
		}
		s.finish(bookCtx, rep)
		return rep, nil
	}

	msg := Compose(s.cat.Header(), chats)
	order := append([]storage.Chat(nil), chats...)
	s.shuffle(order)

	log.Info("broadcast started", logx.Int("chats", len(order)), logx.Bool("media", msg.Media != nil))
	var forbidden []int64
	for i, ch := range order {
		if err := lim.Wait(ctx); err != nil {
			rep.Aborted = err
			for _, rest := range order[i:] {
				rep.Failed++
				rep.Failures = append(rep.Failures, Failure{ChatID: rest.ID, Name: rest.Name, Kind: FailOther, Message: err.Error()})
			}
			log.Warn("broadcast aborted", logx.Int("unsent", len(order)-i), logx.Err(err))
			break
		}
		err := s.deliver(ctx, ch.ID, msg)
		if err == nil {
			rep.OK++
			continue
		}
		rep.Failed++
		f := Failure{ChatID: ch.ID, Name: ch.Name, Kind: FailOther, Message: cause(err).Error()}
		switch {
		case errors.Is(err, kit.ErrForbidden):
			f.Kind = FailForbidden
			forbidden = append(forbidden, ch.ID)
			log.Warn("bot blocked or removed; chat queued for removal", logx.Int64("chat_id", ch.ID), logx.Err(err))
		case errors.Is(err, kit.ErrBadRequest):
			f.Kind = FailBadRequest
			log.Error("broadcast send rejected", logx.Int64("chat_id", ch.ID), logx.Err(err))
		default:
			log.Error("broadcast send failed", logx.Int64("chat_id", ch.ID), logx.Err(err))
		}
		rep.Failures = append(rep.Failures, f)
	}

	if len(forbidden) > 0 {
		removed, err := s.cat.RemoveChats(bookCtx, forbidden...)
		if err != nil {
			log.Error("removing blocked chats failed", logx.Int("count", len(forbidden)), logx.Err(err))
		}
		rep.Removed = removed
		for _, ch := range removed {
			s.bus.Publish(eventbus.Event{Type: eventbus.ChatRemoved, Data: ch})
		}
	}
	rep.FinishedAt = s.now()

	fields := []logx.Field{logx.Int("ok", rep.OK), logx.Int("failed", rep.Failed), logx.Int("removed", len(rep.Removed)), logx.Duration("took", rep.FinishedAt.Sub(rep.StartedAt))}
	if rep.Failed > 0 {
		log.Warn("broadcast finished with failures", fields...)
	} else {
		log.Info("broadcast finished", fields...)
	}
	if err := s.notify.Notify(bookCtx, rep.Summary()); err != nil {
		log.Warn("broadcast summary not delivered", logx.Err(err))
	}
	s.finish(bookCtx, rep)
	return rep, nil
}

func (s *Service) deliver(ctx context.Context, chatID int64, msg Message) error {
	to := kit.ChatTarget{ChatID: chatID}
	opt := &kit.SendOptions{ParseMode: "HTML", DisablePreview: true}
	if msg.Media == nil {
		_, err := s.sender.SendText(ctx, to, msg.Text, opt)
		return err
	}
	if _, err := s.sender.SendMedia(ctx, to, *msg.Media, msg.Caption, opt); err != nil {
		return err
	}
	if msg.FollowUp != "" {
		_, err := s.sender.SendText(ctx, to, msg.FollowUp, opt)
		return err
	}
	return nil
}

func (s *Service) finish(ctx context.Context, rep Report) {
	s.mu.Lock()
	s.last = &rep
	s.mu.Unlock()

	e := storage.AuditEntry{
		At:     rep.FinishedAt,
		Action: "broadcast." + string(rep.Trigger),
		Target: rep.ID,
		OK:     rep.OK,
		Fail:   rep.Failed,
		TookMS: rep.FinishedAt.Sub(rep.StartedAt).Milliseconds(),
	}
	if rep.Aborted != nil {
		e.Error = rep.Aborted.Error()
	}
	s.cat.Audit(ctx, e)
	s.bus.Publish(eventbus.Event{Type: eventbus.BroadcastFinished, Data: rep})
}

// cause strips the transport sentinel from a classified error.
func cause(err error) error {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := u.Unwrap(); len(errs) > 0 {
			return errs[len(errs)-1]
		}
	}
	return err
}

func sortByID(chats []storage.Chat) {
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID < chats[j].ID })
}
