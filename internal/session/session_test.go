package session

import (
	"context"
	"errors"
	"testing"
	"time"

	logx "promobot/pkg/logx"
)

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    State
		ev      Event
		want    State
		wantErr bool
	}{
		{"register from idle", Idle, EvRegister, AwaitingLink, false},
		{"link moves to join", AwaitingLink, EvLink, AwaitingJoin, false},
		{"joined ends flow", AwaitingJoin, EvJoined, Idle, false},
		{"schedule replaces register", AwaitingLink, EvSchedule, AwaitingSchedule, false},
		{"header text entry", AwaitingJoin, EvHeaderText, AwaitingHeaderText, false},
		{"header media done", AwaitingHeaderMedia, EvDone, Idle, false},
		{"cancel from idle", Idle, EvCancel, Idle, false},
		{"cancel from join", AwaitingJoin, EvCancel, Idle, false},
		{"link while idle", Idle, EvLink, Idle, true},
		{"joined while awaiting link", AwaitingLink, EvJoined, AwaitingLink, true},
		{"done while idle", Idle, EvDone, Idle, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Next(tt.from, tt.ev)
			if got != tt.want {
				t.Fatalf("Next(%s, %s) = %s, want %s", tt.from, tt.ev, got, tt.want)
			}
			var te *ErrTransition
			if tt.wantErr != errors.As(err, &te) {
				t.Fatalf("Next(%s, %s) err = %v, wantErr %v", tt.from, tt.ev, err, tt.wantErr)
			}
		})
	}
}

func TestFireClearsPendingLink(t *testing.T) {
	t.Parallel()

	s := Session{UserID: 1}
	if err := s.Fire(EvRegister); err != nil {
		t.Fatal(err)
	}
	if err := s.Fire(EvLink); err != nil {
		t.Fatal(err)
	}
	s.PendingLink = "https://t.me/x"
	if err := s.Fire(EvJoined); err != nil {
		t.Fatal(err)
	}
	if s.State != Idle || s.PendingLink != "" {
		t.Fatalf("after join: %+v", s)
	}
	if err := s.Fire(EvDone); err == nil {
		t.Fatalf("done from idle should fail")
	}
}

func TestMemoryTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	if err := m.Put(ctx, Session{UserID: 7, State: AwaitingSchedule}); err != nil {
		t.Fatal(err)
	}
	s, err := m.Get(ctx, 7)
	if err != nil || s.State != AwaitingSchedule {
		t.Fatalf("Get = %+v, %v", s, err)
	}

	now = now.Add(2 * time.Hour)
	s, err = m.Get(ctx, 7)
	if err != nil || s.State != Idle || s.UserID != 7 {
		t.Fatalf("expired Get = %+v, %v", s, err)
	}
}

func TestSaveDeletesIdle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(0)
	_ = Save(ctx, m, Session{UserID: 9, State: AwaitingHeaderText})
	if s, _ := m.Get(ctx, 9); s.State != AwaitingHeaderText {
		t.Fatalf("session not stored: %+v", s)
	}
	_ = Save(ctx, m, Session{UserID: 9, State: Idle})
	m.mu.Lock()
	_, ok := m.byID[9]
	m.mu.Unlock()
	if ok {
		t.Fatalf("idle session should be deleted")
	}
}

func TestOpenDrivers(t *testing.T) {
	t.Parallel()

	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*Memory); !ok {
		t.Fatalf("default driver = %T, want *Memory", st)
	}
	if _, err := Open(Config{Driver: "etcd"}, logx.Nop()); err == nil {
		t.Fatalf("unknown driver should fail")
	}
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatalf("redis without url should fail")
	}
}
