package scheduler

import "sort"

// Snapshot reports registered jobs with their next and previous run times.
// Next is computed from the spec when cron is not running.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{Running: s.c != nil, Timezone: s.loc.String()}
	now := s.now().In(s.loc)
	for _, d := range s.defs {
		it := ScheduleInfo{Name: d.name, Spec: d.spec, Timeout: d.timeout}
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			it.Next, it.Prev = e.Next, e.Prev
		}
		if it.Next.IsZero() {
			if sched, err := s.parser.Parse(d.spec); err == nil {
				it.Next = sched.Next(now)
			}
		}
		out.Schedules = append(out.Schedules, it)
	}
	sort.Slice(out.Schedules, func(i, j int) bool {
		return out.Schedules[i].Next.Before(out.Schedules[j].Next)
	})
	return out
}
