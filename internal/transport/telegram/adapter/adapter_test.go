package adapter

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	kit "promobot/internal/transport"
)

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()

	if got := splitTelegramText("hello", 10, ""); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("short text: got %q", got)
	}
	if got := splitTelegramText("", 10, ""); len(got) != 1 {
		t.Fatalf("empty text should yield one chunk, got %d", len(got))
	}

	long := strings.Repeat("a", 25)
	got := splitTelegramText(long, 10, "")
	if len(got) != 3 {
		t.Fatalf("got %d chunks, want 3", len(got))
	}
	if strings.Join(got, "") != long {
		t.Fatalf("chunks lost data: %q", got)
	}

	lines := "aaaa\nbbbb\ncccc\ndddd"
	got = splitTelegramText(lines, 12, "")
	for _, c := range got {
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk has stray newline: %q", c)
		}
		if len([]rune(c)) > 12 {
			t.Fatalf("chunk too long: %q", c)
		}
	}
	if got[0] != "aaaa\nbbbb" {
		t.Fatalf("expected newline split, got %q", got[0])
	}

	html := "xxxxxx<b>bold</b>"
	got = splitTelegramText(html, 8, "HTML")
	if got[0] != "xxxxxx" {
		t.Fatalf("split inside tag: %q", got)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"blocked", tele.ErrBlockedByUser, kit.ErrForbidden},
		{"api 403", &tele.Error{Code: 403, Description: "Forbidden: bot was kicked"}, kit.ErrForbidden},
		{"api 400", &tele.Error{Code: 400, Description: "Bad Request: chat not found"}, kit.ErrBadRequest},
		{"formatted 403", fmt.Errorf("telegram: Forbidden: bot is not a member (403)"), kit.ErrForbidden},
		{"formatted 400", fmt.Errorf("telegram: Bad Request: message is too long (400)"), kit.ErrBadRequest},
		{"group migrated", tele.GroupError{MigratedTo: -100123}, kit.ErrBadRequest},
		{"wrapped group migrated", fmt.Errorf("send: %w", tele.GroupError{MigratedTo: -100123}), kit.ErrBadRequest},
		{"other", errors.New("dial tcp: timeout"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := classify(tc.err)
			if tc.want == nil {
				if errors.Is(got, kit.ErrForbidden) || errors.Is(got, kit.ErrBadRequest) {
					t.Fatalf("unexpected classification: %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("original error lost from chain: %v", got)
			}
		})
	}
	if classify(nil) != nil {
		t.Fatalf("classify(nil) should be nil")
	}
}

func TestToMembership(t *testing.T) {
	t.Parallel()

	chat := &tele.Chat{ID: -100, Type: tele.ChatChannel, Title: "News"}
	added := toMembership(&tele.ChatMemberUpdate{
		Chat:          chat,
		Sender:        &tele.User{ID: 7},
		OldChatMember: &tele.ChatMember{Role: tele.Left},
		NewChatMember: &tele.ChatMember{Role: tele.Administrator},
	})
	if added == nil || !added.Joined() || added.Left() {
		t.Fatalf("expected join, got %+v", added)
	}
	if added.ChatKind != kit.ChatChannel || added.ChatTitle != "News" || added.ByUserID != 7 {
		t.Fatalf("bad conversion: %+v", added)
	}

	promoted := toMembership(&tele.ChatMemberUpdate{
		Chat:          &tele.Chat{ID: -5, Type: tele.ChatSuperGroup},
		OldChatMember: &tele.ChatMember{Role: tele.Member},
		NewChatMember: &tele.ChatMember{Role: tele.Administrator},
	})
	if !promoted.Joined() {
		t.Fatalf("promotion should count as join")
	}

	kicked := toMembership(&tele.ChatMemberUpdate{
		Chat:          chat,
		OldChatMember: &tele.ChatMember{Role: tele.Administrator},
		NewChatMember: &tele.ChatMember{Role: tele.Kicked},
	})
	if !kicked.Left() || kicked.Joined() {
		t.Fatalf("expected leave, got %+v", kicked)
	}

	if toMembership(nil) != nil {
		t.Fatalf("nil update should map to nil")
	}
}

func TestToChatMember(t *testing.T) {
	t.Parallel()

	channel := &tele.Chat{ID: 1, Type: tele.ChatChannel}
	group := &tele.Chat{ID: 2, Type: tele.ChatSuperGroup}

	noPost := &tele.ChatMember{Role: tele.Administrator}
	if toChatMember(channel, noPost).CanPost {
		t.Fatalf("channel admin without post right must not post")
	}
	withPost := &tele.ChatMember{Role: tele.Administrator}
	withPost.CanPostMessages = true
	if !toChatMember(channel, withPost).CanPost {
		t.Fatalf("channel admin with post right should post")
	}
	if !toChatMember(group, noPost).CanPost {
		t.Fatalf("group admin should post")
	}
	if toChatMember(group, &tele.ChatMember{Role: tele.Member}).CanPost {
		t.Fatalf("plain member is not allowed to post")
	}
}

func TestToMessageMedia(t *testing.T) {
	t.Parallel()

	m := &tele.Message{
		ID:      3,
		Chat:    &tele.Chat{ID: 9, Type: tele.ChatPrivate},
		Sender:  &tele.User{ID: 9, FirstName: "Ana"},
		Photo:   &tele.Photo{File: tele.File{FileID: "ph1"}},
		Caption: "hi",
	}
	got := toMessage(m)
	if got.Media == nil || got.Media.Kind != kit.MediaPhoto || got.Media.FileID != "ph1" {
		t.Fatalf("bad media: %+v", got.Media)
	}
	if got.Text != "hi" || !got.IsPrivate() || got.FromName != "Ana" {
		t.Fatalf("bad message: %+v", got)
	}
}
