package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	logx "promobot/pkg/logx"
)

// AddDaily runs job every day at atHHMM in the scheduler timezone.
func (s *Service) AddDaily(name, atHHMM string, timeout time.Duration, job Job) (string, error) {
	h, m, err := ParseHHMM(atHHMM)
	if err != nil {
		return "", err
	}
	return s.AddCron(name, fmt.Sprintf("%d %d * * *", m, h), timeout, job)
}

// AddCron registers job under a standard 5-field cron spec or descriptor
// ("@hourly", "@every 1h"). An existing job with the same name is replaced.
func (s *Service) AddCron(name, spec string, timeout time.Duration, job Job) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name required")
	}
	if job == nil {
		return "", errors.New("job required")
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return "", fmt.Errorf("invalid spec %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(func(n string) bool { return n == name })
	s.defs = append(s.defs, scheduleDef{name: name, spec: spec, timeout: timeout, job: job})
	if s.c != nil {
		s.addCronLocked(&s.defs[len(s.defs)-1])
	}
	args := []logx.Field{logx.String("name", name), logx.String("spec", spec), logx.Duration("timeout", timeout)}
	if next := s.previewNextRunsLocked(spec, 3); next != "" {
		args = append(args, logx.String("next", next))
	}
	s.log.Debug("schedule registered", args...)
	return name, nil
}

// Remove unschedules the job with the given name.
func (s *Service) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	s.mu.Lock()
	n := s.removeLocked(func(n string) bool { return n == name })
	s.mu.Unlock()
	if n > 0 {
		s.log.Debug("schedule removed", logx.String("name", name))
	}
	return n > 0
}

// RemovePrefix unschedules every job whose name starts with prefix and
// returns how many were removed.
func (s *Service) RemovePrefix(prefix string) int {
	if prefix == "" {
		return 0
	}
	s.mu.Lock()
	n := s.removeLocked(func(n string) bool { return strings.HasPrefix(n, prefix) })
	s.mu.Unlock()
	if n > 0 {
		s.log.Debug("schedules removed", logx.String("prefix", prefix), logx.Int("count", n))
	}
	return n
}

// removeLocked drops matching defs and their cron entries. Call with s.mu held.
func (s *Service) removeLocked(match func(name string) bool) int {
	kept := s.defs[:0]
	removed := 0
	for _, d := range s.defs {
		if !match(d.name) {
			kept = append(kept, d)
			continue
		}
		if s.c != nil && d.entryID != 0 {
			s.c.Remove(d.entryID)
		}
		removed++
	}
	s.defs = kept
	return removed
}

// previewNextRunsLocked lists upcoming runs for debug logs. Call with s.mu held.
func (s *Service) previewNextRunsLocked(spec string, n int) string {
	if !s.log.Enabled(logx.LevelDebug) {
		return ""
	}
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return ""
	}
	t := s.now().In(s.loc)
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		parts = append(parts, t.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, ", ")
}
