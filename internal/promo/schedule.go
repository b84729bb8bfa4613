package promo

import (
	"context"
	"sort"
	"strings"
	"time"

	"promobot/internal/eventbus"
	"promobot/internal/session"
	"promobot/internal/storage"
	"promobot/internal/task/scheduler"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
)

// TriggerPrefix names every daily broadcast trigger ("broadcast.09:00").
const TriggerPrefix = "broadcast."

// ScheduleAdapter mirrors a stored schedule into scheduler triggers.
type ScheduleAdapter struct {
	Triggers Triggers
	Timeout  func() time.Duration
	Job      scheduler.Job
	Log      logx.Logger
}

// Reconcile removes all broadcast triggers and, when sc is active,
// installs one per valid time. It returns the installed trigger names.
func (a *ScheduleAdapter) Reconcile(sc storage.Schedule) []string {
	removed := a.Triggers.RemovePrefix(TriggerPrefix)
	if !sc.Active || len(sc.Times) == 0 {
		a.Log.Info("broadcast triggers cleared", logx.Int("removed", removed), logx.Bool("active", sc.Active))
		return nil
	}
	var timeout time.Duration
	if a.Timeout != nil {
		timeout = a.Timeout()
	}
	var names []string
	for _, raw := range sc.Times {
		hhmm, ok := scheduler.NormalizeHHMM(raw)
		if !ok {
			a.Log.Warn("skipping invalid schedule time", logx.String("time", raw))
			continue
		}
		name, err := a.Triggers.AddDaily(TriggerPrefix+hhmm, hhmm, timeout, a.Job)
		if err != nil {
			a.Log.Warn("add trigger failed", logx.String("time", hhmm), logx.Err(err))
			continue
		}
		names = append(names, name)
	}
	a.Log.Info("broadcast triggers installed", logx.Strings("times", names))
	return names
}

// ParseTimes splits a comma-separated list of HH:MM times. Valid entries are
// normalized to two-digit hours, deduplicated and sorted; invalid entries are
// returned as typed.
func ParseTimes(input string) (valid, invalid []string) {
	seen := map[string]bool{}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hhmm, ok := scheduler.NormalizeHHMM(part)
		if !ok {
			invalid = append(invalid, part)
			continue
		}
		if !seen[hhmm] {
			seen[hhmm] = true
			valid = append(valid, hhmm)
		}
	}
	sort.Strings(valid)
	return valid, invalid
}

func (s *Service) cmdSchedule(ctx context.Context, req *router.Request) error {
	sess, err := s.session(ctx, req.FromID)
	if err != nil {
		return err
	}
	if err := s.fire(ctx, &sess, session.EvSchedule); err != nil {
		return err
	}
	sc, _ := s.cat.Schedule(req.FromID)
	_, err = req.Reply(ctx, txtScheduleAsk(sc.Times, sc.Active), nil)
	return err
}

// onScheduleText handles the admin's reply in AwaitingSchedule.
func (s *Service) onScheduleText(ctx context.Context, req *router.Request, sess session.Session) error {
	valid, invalid := ParseTimes(req.Message.Text)
	if len(valid) == 0 {
		msg := txtScheduleNone
		if len(invalid) > 0 {
			msg = txtScheduleInvalid(invalid)
		}
		_, err := req.Reply(ctx, msg, nil)
		return err
	}
	sc, err := s.cat.SetSchedule(ctx, req.FromID, valid)
	s.audit(ctx, req.FromID, "schedule.set", strings.Join(valid, ","), err)
	if err != nil {
		return err
	}
	if err := s.fire(ctx, &sess, session.EvDone); err != nil {
		return err
	}
	s.sched.Reconcile(sc)
	s.publish(eventbus.ScheduleChanged, sc)
	_, err = req.Reply(ctx, txtScheduleSaved(valid, invalid), nil)
	return err
}

func (s *Service) cmdPause(ctx context.Context, req *router.Request) error {
	sc, ok, err := s.cat.SetScheduleActive(ctx, req.FromID, false)
	if err != nil {
		return err
	}
	if !ok {
		_, err = req.Reply(ctx, txtNothingToPause, nil)
		return err
	}
	s.audit(ctx, req.FromID, "schedule.pause", "", nil)
	s.sched.Reconcile(sc)
	s.publish(eventbus.ScheduleChanged, sc)
	_, err = req.Reply(ctx, txtPaused, nil)
	return err
}

func (s *Service) cmdResume(ctx context.Context, req *router.Request) error {
	cur, ok := s.cat.Schedule(req.FromID)
	if !ok {
		_, err := req.Reply(ctx, txtNothingToResume, nil)
		return err
	}
	if len(cur.Times) == 0 {
		_, err := req.Reply(ctx, txtResumeNoTimes, nil)
		return err
	}
	sc, _, err := s.cat.SetScheduleActive(ctx, req.FromID, true)
	if err != nil {
		return err
	}
	s.audit(ctx, req.FromID, "schedule.resume", "", nil)
	s.sched.Reconcile(sc)
	s.publish(eventbus.ScheduleChanged, sc)
	_, err = req.Reply(ctx, txtResumed, nil)
	return err
}
