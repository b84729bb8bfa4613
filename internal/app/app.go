package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promobot/internal/catalog"
	"promobot/internal/config"
	"promobot/internal/eventbus"
	"promobot/internal/notifier"
	"promobot/internal/notifier/broadcast"
	"promobot/internal/observability/liveness"
	"promobot/internal/promo"
	rtsup "promobot/internal/runtime/supervisor"
	"promobot/internal/session"
	"promobot/internal/storage"
	"promobot/internal/task/scheduler"
	kit "promobot/internal/transport"
	telegram "promobot/internal/transport/telegram/adapter"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
	"promobot/pkg/systemd"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store    storage.Store
	sessions session.Store
	cat      *catalog.Catalog

	adapter *telegram.Adapter
	router  *router.Router
	notif   *notifier.Service
	bcast   *broadcast.Service
	sched   *scheduler.Service
	promo   *promo.Service
	live    *liveness.Service

	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	pollTimeout, err := mapPollTimeout(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token, PollTimeout: pollTimeout}, bootLog)
	if err != nil {
		return nil, err
	}

	// The Telegram sink stays off until the admin chat is known.
	logCfg := mapLogging(cfg)
	bootCfg := logCfg
	bootCfg.Telegram.Enabled = false
	logSvc, root := logx.New(bootCfg, ad)
	log := root.With(logx.String("comp", "app"))

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, root.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	log.Info("storage opened", logx.String("driver", sc.Driver))

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     eventbus.New(),
		store:   store,
		adapter: ad,
		updates: make(chan kit.Update, 256),
	}
	if err := a.build(cfg, root); err != nil {
		if a.sessions != nil {
			_ = a.sessions.Close()
		}
		_ = store.Close()
		return nil, err
	}

	if adminID, ok := a.cat.AdminID(); ok {
		logSvc.SetTelegramTarget(adminID)
	}
	logSvc.Apply(logCfg)
	return a, nil
}

// build wires the domain services on top of storage and the adapter.
func (a *App) build(cfg *config.Config, root logx.Logger) error {
	comp := func(name string) logx.Logger { return root.With(logx.String("comp", name)) }

	cat, err := catalog.Open(context.Background(), a.store, comp("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.cat = cat

	scfg, err := mapSessions(cfg)
	if err != nil {
		return err
	}
	sessions, err := session.Open(scfg, comp("sessions"))
	if err != nil {
		return fmt.Errorf("open sessions: %w", err)
	}
	a.sessions = sessions

	a.notif = notifier.New(notifier.Config{DedupWindow: notifier.DefaultDedupWindow}, a.adapter, cat, comp("notifier"), a.bus)

	bcfg, err := mapBroadcast(cfg)
	if err != nil {
		return err
	}
	a.bcast = broadcast.New(bcfg, a.adapter, cat, a.notif, comp("broadcast"), a.bus)
	a.sched = scheduler.New(mapScheduler(cfg), comp("scheduler"))

	pcfg, err := mapPromo(cfg)
	if err != nil {
		return err
	}
	svc, err := promo.New(pcfg, promo.Deps{
		Catalog:   cat,
		Sessions:  sessions,
		Sender:    a.adapter,
		Chats:     a.adapter,
		Broadcast: a.bcast,
		Notifier:  a.notif,
		Triggers:  a.sched,
		Spawn:     a.spawn,
		Log:       comp("promo"),
		Bus:       a.bus,
	})
	if err != nil {
		return err
	}
	a.promo = svc

	a.router = router.New(a.adapter, cat, comp("router"),
		router.WithTexts(promo.RouterTexts()),
		router.WithErrorReporter(svc.ReportError),
		router.WithBotUsername(a.adapter.Username()),
	)
	svc.Install(a.router)

	lcfg, err := mapLiveness(cfg)
	if err != nil {
		return err
	}
	a.live = liveness.New(lcfg, comp("liveness"))
	return nil
}

// spawn runs a handler's background work under the app supervisor.
func (a *App) spawn(name string, fn func(ctx context.Context) error) {
	if a.sup == nil {
		go func() {
			if err := fn(context.Background()); err != nil {
				a.log.Warn("background task failed", logx.String("name", name), logx.Err(err))
			}
		}()
		return
	}
	a.sup.Go(name, func(ctx context.Context) error {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			// Handler work must not take the bot down.
			a.log.Warn("background task failed", logx.String("name", name), logx.Err(err))
		}
		return nil
	})
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	run := a.sup.Context()

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateReload(cfg)
	})

	if err := a.adapter.Start(run, a.updates); err != nil {
		return err
	}
	a.sched.Start(run)
	a.promo.Start(run)
	a.live.Start(run)

	menuCtx, cancel := context.WithTimeout(run, 10*time.Second)
	if err := a.router.PublishMenu(menuCtx, a.adapter); err != nil {
		a.log.Warn("command menu not published", logx.Err(err))
	}
	cancel()

	a.sup.Go("router.dispatch", func(c context.Context) error {
		return a.router.DispatchLoop(c, a.updates)
	})

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.watch", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.onEvent(e)
			}
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
			drain:
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						break drain
					}
				}
				a.applyConfig(c, lastApplied, newCfg)
				lastApplied = newCfg
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	if sent, err := systemd.Ready(); err != nil {
		a.log.Warn("sd_notify READY failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify READY sent")
	}
	if d := systemd.WatchdogInterval(); d > 0 {
		a.sup.Go0("systemd.watchdog", func(c context.Context) { systemd.RunWatchdog(c, d) })
		a.log.Info("systemd watchdog enabled", logx.Duration("interval", d))
	}

	a.log.Info("app started")
	return nil
}

func (a *App) onEvent(e eventbus.Event) {
	switch e.Type {
	case eventbus.AdminClaimed:
		if id, ok := e.Data.(int64); ok {
			a.logs.SetTelegramTarget(id)
			a.log.Info("admin claimed; telegram log target set", logx.Int64("admin_id", id))
		}
	case eventbus.BroadcastFinished:
		a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
	default:
		a.log.Trace("event", logx.String("type", e.Type), logx.Time("time", e.Time))
	}
}

// applyConfig fans a reloaded config out to the live components.
func (a *App) applyConfig(c context.Context, oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	if restart := config.RestartRequired(oldCfg, newCfg); len(restart) > 0 {
		a.log.Warn("config changed; restart required for changes to take effect", logx.Strings("sections", restart))
	}

	a.logs.Apply(mapLogging(newCfg))
	a.sched.Apply(mapScheduler(newCfg))

	// validateReload already accepted these; errors only mean a race with a newer file.
	if bc, err := mapBroadcast(newCfg); err != nil {
		a.log.Warn("invalid broadcast config; keeping previous", logx.Err(err))
	} else {
		a.bcast.Apply(bc)
	}
	if pc, err := mapPromo(newCfg); err != nil {
		a.log.Warn("invalid registration config; keeping previous", logx.Err(err))
	} else {
		a.promo.Apply(pc)
	}
	if lc, err := mapLiveness(newCfg); err != nil {
		a.log.Warn("invalid liveness config; keeping previous", logx.Err(err))
	} else {
		a.live.Reconfigure(c, lc)
	}

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config applied", fields...)
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	if _, err := systemd.Stopping(); err != nil {
		a.log.Debug("sd_notify STOPPING failed", logx.Err(err))
	}

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	step := func(name string, limit time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", limit))

		stepCtx := ctx
		if limit > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem < limit {
					limit = max(rem, 0)
				}
			}
			if limit > 0 {
				var cancel context.CancelFunc
				stepCtx, cancel = context.WithTimeout(ctx, limit)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			took := time.Since(start)
			if took >= 500*time.Millisecond {
				a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
			} else {
				a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)),
			)
			go func() {
				err := <-done
				took := time.Since(start)
				if err != nil {
					a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.Err(err), logx.Duration("took", took))
				} else {
					a.log.Info("stop step finished after deadline", logx.String("name", name), logx.Duration("took", took))
				}
			}()
		}
	}

	step("liveness", time.Second, func(c context.Context) error { a.live.Stop(c); return nil })
	step("scheduler", 2*time.Second, func(c context.Context) error { a.sched.Stop(c); return nil })
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	// Supervised work (dispatcher, manual broadcasts) must finish before storage closes.
	step("supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("sessions", time.Second, func(context.Context) error { return a.sessions.Close() })
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
