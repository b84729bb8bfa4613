package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "promobot/pkg/logx"
)

func TestParseHHMM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:00", "09:00", true},
		{"9:05", "09:05", true},
		{" 23:59 ", "23:59", true},
		{"00:00", "00:00", true},
		{"24:00", "", false},
		{"25:99", "", false},
		{"12:60", "", false},
		{"12:5", "", false},
		{"1230", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeHHMM(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("NormalizeHHMM(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAddDailyBeforeStart(t *testing.T) {
	t.Parallel()

	s := New(Config{Timezone: "UTC"}, logx.Nop())
	s.now = func() time.Time { return time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC) }

	noop := func(context.Context) error { return nil }
	for _, at := range []string{"15:30", "09:00"} {
		if _, err := s.AddDaily("broadcast."+at, at, time.Minute, noop); err != nil {
			t.Fatalf("AddDaily(%s) = %v", at, err)
		}
	}
	if _, err := s.AddDaily("broadcast.bad", "25:99", time.Minute, noop); err == nil {
		t.Fatalf("invalid time accepted")
	}

	snap := s.Snapshot()
	if snap.Running || snap.Timezone != "UTC" || len(snap.Schedules) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	want := []time.Time{
		time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC),
	}
	for i, it := range snap.Schedules {
		if !it.Next.Equal(want[i]) {
			t.Fatalf("schedule %s next = %v, want %v", it.Name, it.Next, want[i])
		}
	}
}

func TestAddReplacesByName(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	noop := func(context.Context) error { return nil }
	_, _ = s.AddDaily("job", "10:00", 0, noop)
	_, _ = s.AddDaily("job", "11:00", 0, noop)
	if n := len(s.Snapshot().Schedules); n != 1 {
		t.Fatalf("schedules = %d, want 1", n)
	}
}

func TestRemoveAndRemovePrefix(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())

	noop := func(context.Context) error { return nil }
	for _, n := range []string{"broadcast.09:00", "broadcast.15:30", "other"} {
		if _, err := s.AddDaily(n, "12:00", 0, noop); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.RemovePrefix("broadcast."); got != 2 {
		t.Fatalf("RemovePrefix = %d, want 2", got)
	}
	if got := s.RemovePrefix("broadcast."); got != 0 {
		t.Fatalf("second RemovePrefix = %d, want 0", got)
	}
	if !s.Remove("other") || s.Remove("other") {
		t.Fatalf("Remove should succeed once")
	}
	if n := len(s.Snapshot().Schedules); n != 0 {
		t.Fatalf("schedules left: %d", n)
	}
}

func TestInvalidTimezoneFallsBackToLocal(t *testing.T) {
	t.Parallel()

	s := New(Config{Timezone: "Mars/Olympus"}, logx.Nop())
	if s.Location() != time.Local {
		t.Fatalf("location = %v, want Local", s.Location())
	}
	s.Apply(Config{Timezone: "UTC"})
	if s.Location().String() != "UTC" {
		t.Fatalf("Apply did not change location: %v", s.Location())
	}
}

func TestJobRunsWithTimeoutAndRecovers(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())

	var runs atomic.Int32
	done := make(chan struct{}, 1)
	_, err := s.AddCron("tick", "@every 1s", 50*time.Millisecond, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic("first run panics")
		}
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("job did not run after a panic; runs=%d", runs.Load())
	}
}

func TestAddCronRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := New(Config{}, logx.Nop())
	if _, err := s.AddCron("x", "not a spec", 0, func(context.Context) error { return nil }); err == nil {
		t.Fatalf("bad spec accepted")
	}
	if _, err := s.AddCron("", "@hourly", 0, func(context.Context) error { return nil }); err == nil {
		t.Fatalf("empty name accepted")
	}
}
