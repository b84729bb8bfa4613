package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"promobot/internal/eventbus"
	kit "promobot/internal/transport"
	logx "promobot/pkg/logx"
)

type fakeSender struct {
	sent []string
	to   []int64
	err  error
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	f.sent = append(f.sent, text)
	f.to = append(f.to, to.ChatID)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, f.err
}

func (f *fakeSender) SendMedia(context.Context, kit.ChatTarget, kit.Media, string, *kit.SendOptions) (kit.MessageRef, error) {
	return kit.MessageRef{}, nil
}

func (f *fakeSender) EditText(context.Context, kit.MessageRef, string, *kit.SendOptions) error {
	return nil
}

func (f *fakeSender) AnswerCallback(context.Context, string, string) error { return nil }

type admin int64

func (a admin) AdminID() (int64, bool) { return int64(a), a != 0 }

func TestNotifyWithoutAdmin(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{}
	s := New(Config{}, fs, admin(0), logx.Nop(), nil)
	if err := s.Notify(context.Background(), "hi"); !errors.Is(err, ErrNoAdmin) {
		t.Fatalf("Notify = %v, want ErrNoAdmin", err)
	}
	if len(fs.sent) != 0 {
		t.Fatalf("sent without admin: %v", fs.sent)
	}
}

func TestNotifyOnceDedup(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	defer unsub()

	s := New(Config{DedupWindow: time.Minute}, fs, admin(77), logx.Nop(), bus)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	_ = s.NotifyOnce(ctx, "err:x", "first")
	_ = s.NotifyOnce(ctx, "err:x", "second")
	now = now.Add(2 * time.Minute)
	_ = s.NotifyOnce(ctx, "err:x", "third")
	_ = s.Notify(ctx, "plain")

	want := []string{"first", "third", "plain"}
	if len(fs.sent) != len(want) {
		t.Fatalf("sent = %v, want %v", fs.sent, want)
	}
	for i := range want {
		if fs.sent[i] != want[i] || fs.to[i] != 77 {
			t.Fatalf("sent[%d] = %q to %d", i, fs.sent[i], fs.to[i])
		}
	}
	if ev := <-events; ev.Type != eventbus.AdminNotified {
		t.Fatalf("event = %+v", ev)
	}
}

func TestFailedNotifyPublishesError(t *testing.T) {
	t.Parallel()

	fs := &fakeSender{err: errors.New("boom")}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(4)
	defer unsub()

	s := New(Config{}, fs, admin(1), logx.Nop(), bus)
	if err := s.NotifyOnce(context.Background(), "k", "x"); err == nil {
		t.Fatalf("NotifyOnce should return the send error")
	}
	ev := <-events
	got, ok := ev.Data.(NotificationEvent)
	if ev.Type != eventbus.AdminNotified || !ok || got.Error != "boom" || got.Key != "k" || got.ChatID != 1 {
		t.Fatalf("event = %+v", ev)
	}
}
