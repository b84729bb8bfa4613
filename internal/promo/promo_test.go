package promo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"promobot/internal/catalog"
	"promobot/internal/notifier/broadcast"
	"promobot/internal/session"
	"promobot/internal/storage"
	"promobot/internal/task/scheduler"
	kit "promobot/internal/transport"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
)

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sent
	edits   []string
	answers []string
	// badHTML makes HTML sends containing it fail like Telegram's entity parser.
	badHTML string
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.badHTML != "" && opt != nil && opt.ParseMode == "HTML" && strings.Contains(text, f.badHTML) {
		return kit.MessageRef{}, fmt.Errorf("%w: can't parse entities", kit.ErrBadRequest)
	}
	f.sent = append(f.sent, sent{to.ChatID, text})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeSender) SendMedia(_ context.Context, to kit.ChatTarget, _ kit.Media, caption string, _ *kit.SendOptions) (kit.MessageRef, error) {
	return f.SendText(context.Background(), to, caption, nil)
}

func (f *fakeSender) EditText(_ context.Context, _ kit.MessageRef, text string, _ *kit.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeSender) AnswerCallback(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeSender) textsTo(chatID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.chatID == chatID {
			out = append(out, s.text)
		}
	}
	return out
}

type fakeInspector struct {
	member kit.ChatMember
	count  int
	link   string
}

func (f *fakeInspector) SelfID() int64 { return 999 }

func (f *fakeInspector) MemberOf(context.Context, int64, int64) (kit.ChatMember, error) {
	return f.member, nil
}

func (f *fakeInspector) MemberCount(context.Context, int64) (int, error) { return f.count, nil }

func (f *fakeInspector) ExportInviteLink(context.Context, int64) (string, error) { return f.link, nil }

type fakeNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, text)
	return nil
}

func (f *fakeNotifier) NotifyOnce(ctx context.Context, _ string, text string) error {
	return f.Notify(ctx, text)
}

func (f *fakeNotifier) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.notes {
		if strings.HasPrefix(s, prefix) {
			n++
		}
	}
	return n
}

type fakeTriggers struct {
	mu    sync.Mutex
	names map[string]string
}

func (f *fakeTriggers) AddDaily(name, at string, _ time.Duration, _ scheduler.Job) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[name] = at
	return name, nil
}

func (f *fakeTriggers) RemovePrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.names {
		if strings.HasPrefix(k, prefix) {
			delete(f.names, k)
			n++
		}
	}
	return n
}

func (f *fakeTriggers) Snapshot() scheduler.Snapshot { return scheduler.Snapshot{Timezone: "UTC"} }

type fakeBroadcaster struct {
	mu       sync.Mutex
	triggers []broadcast.Trigger
}

func (f *fakeBroadcaster) Run(_ context.Context, tr broadcast.Trigger) (broadcast.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, tr)
	return broadcast.Report{Trigger: tr}, nil
}

func (f *fakeBroadcaster) Running() bool                  { return false }
func (f *fakeBroadcaster) Last() (broadcast.Report, bool) { return broadcast.Report{}, false }

type fixture struct {
	svc      *Service
	r        *router.Router
	cat      *catalog.Catalog
	sessions *session.Memory
	sender   *fakeSender
	chats    *fakeInspector
	notes    *fakeNotifier
	trig     *fakeTriggers
	bc       *fakeBroadcaster
}

const adminID = 1

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(t.TempDir(), "bot_data.json")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	cat, err := catalog.Open(ctx, st, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		cat:      cat,
		sessions: session.NewMemory(time.Hour),
		sender:   &fakeSender{},
		chats:    &fakeInspector{},
		notes:    &fakeNotifier{},
		trig:     &fakeTriggers{names: map[string]string{}},
		bc:       &fakeBroadcaster{},
	}
	f.svc, err = New(Config{MinMembers: 50}, Deps{
		Catalog:   cat,
		Sessions:  f.sessions,
		Sender:    f.sender,
		Chats:     f.chats,
		Broadcast: f.bc,
		Notifier:  f.notes,
		Triggers:  f.trig,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.r = router.New(f.sender, cat, logx.Nop(),
		router.WithTexts(RouterTexts()),
		router.WithErrorReporter(f.svc.ReportError),
	)
	f.svc.Install(f.r)
	return f
}

func (f *fixture) text(from int64, text string) {
	f.r.Dispatch(context.Background(), kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{
		ChatID: from, ChatKind: kit.ChatPrivate, FromID: from, FromName: "Ana", Text: text,
	}})
}

func (f *fixture) media(from int64, m kit.Media) {
	f.r.Dispatch(context.Background(), kit.Update{Kind: kit.UpdateMedia, Message: &kit.Message{
		ChatID: from, ChatKind: kit.ChatPrivate, FromID: from, Media: &m,
	}})
}

func (f *fixture) press(from int64, a Action) {
	f.r.Dispatch(context.Background(), kit.Update{Kind: kit.UpdateCallback, Callback: &kit.Callback{
		ID: "cb", FromID: from, ChatID: from, MessageID: 10, Data: a.Data(),
	}})
}

func (f *fixture) membership(m kit.Membership) {
	f.r.Dispatch(context.Background(), kit.Update{Kind: kit.UpdateMembership, Membership: &m})
}

func (f *fixture) claimAdmin(t *testing.T) {
	t.Helper()
	f.text(adminID, "/start")
	if !f.cat.IsAdmin(adminID) {
		t.Fatalf("first /start should claim admin")
	}
}

func (f *fixture) state(t *testing.T, userID int64) session.State {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	return s.State
}

func last(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[len(ss)-1]
}

func TestStartClaimsAdminOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	if got := last(f.sender.textsTo(adminID)); !strings.Contains(got, "definido como o administrador") {
		t.Fatalf("new admin greeting = %q", got)
	}
	f.text(2, "/start")
	if f.cat.IsAdmin(2) {
		t.Fatalf("second user must not become admin")
	}
	if got := last(f.sender.textsTo(2)); !strings.Contains(got, "/cadastrar") {
		t.Fatalf("user greeting = %q", got)
	}
	f.text(adminID, "/start")
	if got := last(f.sender.textsTo(adminID)); !strings.Contains(got, "Bem-vindo de volta") {
		t.Fatalf("returning admin greeting = %q", got)
	}
}

func TestScheduleKeepsValidTimes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)

	f.text(adminID, "/agendar")
	if f.state(t, adminID) != session.AwaitingSchedule {
		t.Fatalf("state = %s", f.state(t, adminID))
	}
	f.text(adminID, "09:00, 25:99, 15:30")

	sc, ok := f.cat.Schedule(adminID)
	if !ok || !sc.Active || strings.Join(sc.Times, ",") != "09:00,15:30" {
		t.Fatalf("schedule = %+v (ok=%v)", sc, ok)
	}
	if len(f.trig.names) != 2 || f.trig.names["broadcast.09:00"] != "09:00" || f.trig.names["broadcast.15:30"] != "15:30" {
		t.Fatalf("triggers = %v", f.trig.names)
	}
	if reply := last(f.sender.textsTo(adminID)); !strings.Contains(reply, "25:99") {
		t.Fatalf("invalid time not reported: %q", reply)
	}
	if f.state(t, adminID) != session.Idle {
		t.Fatalf("flow should end after a valid schedule")
	}

	f.text(adminID, "/pause")
	if sc, _ := f.cat.Schedule(adminID); sc.Active || len(sc.Times) != 2 {
		t.Fatalf("pause = %+v", sc)
	}
	if len(f.trig.names) != 0 {
		t.Fatalf("paused schedule left triggers: %v", f.trig.names)
	}
	f.text(adminID, "/resume")
	if len(f.trig.names) != 2 {
		t.Fatalf("resume triggers = %v", f.trig.names)
	}
}

func TestScheduleRepromptsWhenNothingValid(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	f.text(adminID, "/schedule")
	f.text(adminID, "25:00, abc")

	if _, ok := f.cat.Schedule(adminID); ok {
		t.Fatalf("schedule stored from invalid input")
	}
	if f.state(t, adminID) != session.AwaitingSchedule {
		t.Fatalf("state should be kept for a retry")
	}
	if reply := last(f.sender.textsTo(adminID)); !strings.Contains(reply, "25:00, abc") {
		t.Fatalf("reply = %q", reply)
	}
}

func TestNonAdminChannelsDenied(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	_ = f.cat.PutChat(context.Background(), storage.Chat{ID: -100, Name: "Segredo", Kind: "channel"})

	f.text(2, "/ver_canais")
	got := f.sender.textsTo(2)
	if len(got) != 1 || got[0] != txtDenied {
		t.Fatalf("non-admin got %q", got)
	}

	f.press(2, Action{Kind: ActRemoveChat, ChatID: -100})
	if _, ok := f.cat.Chat(-100); !ok {
		t.Fatalf("non-admin button removed a chat")
	}

	f.text(adminID, "/channels")
	if list := last(f.sender.textsTo(adminID)); !strings.Contains(list, "Segredo") {
		t.Fatalf("admin list = %q", list)
	}
}

func TestAdminCommandsInGroupDenied(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	_ = f.cat.PutChat(context.Background(), storage.Chat{ID: -100, Name: "Segredo", Kind: "channel"})

	const group = int64(-300)
	for _, cmd := range []string{"/channels", "/status"} {
		f.r.Dispatch(context.Background(), kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{
			ChatID: group, ChatKind: kit.ChatGroup, FromID: adminID, Text: cmd,
		}})
		if got := last(f.sender.textsTo(group)); got != txtDenied {
			t.Fatalf("%s in group = %q", cmd, got)
		}
	}
	for _, got := range f.sender.textsTo(group) {
		if strings.Contains(got, "Segredo") {
			t.Fatalf("chat list leaked to group: %q", got)
		}
	}
}

func TestRegistration(t *testing.T) {
	t.Parallel()

	adminMember := kit.ChatMember{Status: kit.StatusAdministrator, CanPost: true, ChatKind: kit.ChatChannel, Title: "Canal"}
	tests := []struct {
		name       string
		member     kit.ChatMember
		count      int
		wantCommit bool
		wantChat   string // substring of the message to the chat
	}{
		{"enough members", adminMember, 50, true, "Obrigado por me adicionar"},
		{"too small", adminMember, 49, false, "tem apenas 49 membros"},
		{"not admin", kit.ChatMember{Status: kit.StatusMember, ChatKind: kit.ChatChannel}, 500, false, "me torne administrador"},
		{"admin without post right", kit.ChatMember{Status: kit.StatusAdministrator, ChatKind: kit.ChatChannel}, 500, false, "Postar mensagens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			f.claimAdmin(t)
			f.chats.member = tt.member
			f.chats.count = tt.count
			f.chats.link = "https://t.me/+exported"

			const user, chat = int64(5), int64(-100)
			f.text(user, "/cadastrar")
			f.text(user, "t.me/meucanal")
			sess, _ := f.sessions.Get(context.Background(), user)
			if sess.State != session.AwaitingJoin || sess.PendingLink != "https://t.me/meucanal" {
				t.Fatalf("session after link = %+v", sess)
			}

			join := kit.Membership{ChatID: chat, ChatKind: kit.ChatChannel, ChatTitle: "Canal", ByUserID: user,
				Old: kit.StatusLeft, New: kit.StatusAdministrator}
			f.membership(join)
			// A status update that is not a join is ignored.
			again := join
			again.Old = kit.StatusAdministrator
			f.membership(again)

			ch, ok := f.cat.Chat(chat)
			if ok != tt.wantCommit {
				t.Fatalf("committed = %v, want %v", ok, tt.wantCommit)
			}
			if tt.wantCommit {
				if ch.Members != tt.count || ch.Link != "https://t.me/+exported" {
					t.Fatalf("chat = %+v", ch)
				}
				if n := f.notes.count("Novo canal/grupo cadastrado"); n != 1 {
					t.Fatalf("admin notes = %d", n)
				}
				if len(f.cat.Chats()) != 1 {
					t.Fatalf("chats = %+v", f.cat.Chats())
				}
			}
			if got := strings.Join(f.sender.textsTo(chat), "\n"); !strings.Contains(got, tt.wantChat) {
				t.Fatalf("chat messages = %q, want %q", got, tt.wantChat)
			}
			if len(f.sender.textsTo(user)) < 3 {
				t.Fatalf("requester was not told the outcome: %q", f.sender.textsTo(user))
			}
			if f.state(t, user) != session.Idle {
				t.Fatalf("session should end after the join")
			}
		})
	}
}

func TestJoinByOtherUserLeavesPendingSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	f.chats.member = kit.ChatMember{Status: kit.StatusAdministrator, ChatKind: kit.ChatGroup, Title: "Grupo B"}
	f.chats.count = 100

	const userA, userB, chat = int64(5), int64(6), int64(-200)
	f.text(userA, "/register")
	f.text(userA, "https://t.me/canal_do_usuario5")
	before, _ := f.sessions.Get(context.Background(), userA)
	if before.State != session.AwaitingJoin {
		t.Fatalf("session A = %+v", before)
	}
	sentToA := len(f.sender.textsTo(userA))

	f.membership(kit.Membership{ChatID: chat, ChatKind: kit.ChatGroup, ChatTitle: "Grupo B", ByUserID: userB,
		Old: kit.StatusLeft, New: kit.StatusAdministrator})

	after, _ := f.sessions.Get(context.Background(), userA)
	if after.State != session.AwaitingJoin || after.PendingLink != "https://t.me/canal_do_usuario5" {
		t.Fatalf("session A changed: %+v", after)
	}
	ch, ok := f.cat.Chat(chat)
	if !ok {
		t.Fatalf("chat %d not registered", chat)
	}
	if ch.Link == before.PendingLink {
		t.Fatalf("chat %d took user A's link %q", chat, ch.Link)
	}
	if n := len(f.sender.textsTo(userA)); n != sentToA {
		t.Fatalf("user A got %d new messages", n-sentToA)
	}
}

func TestLinkValidationKeepsState(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.text(7, "/register")
	f.text(7, "olá")
	if got := last(f.sender.textsTo(7)); got != txtLinkInvalid {
		t.Fatalf("reply = %q", got)
	}
	f.text(7, "ftp://t.me/x")
	if got := last(f.sender.textsTo(7)); got != txtLinkMalformed {
		t.Fatalf("reply = %q", got)
	}
	if f.state(t, 7) != session.AwaitingLink {
		t.Fatalf("state = %s", f.state(t, 7))
	}

	f.text(7, "/cancelar")
	if f.state(t, 7) != session.Idle || last(f.sender.textsTo(7)) != txtCancelled {
		t.Fatalf("cancel did not reset")
	}
	f.text(7, "/cancel")
	if last(f.sender.textsTo(7)) != txtNothingCancel {
		t.Fatalf("cancel while idle = %q", last(f.sender.textsTo(7)))
	}
}

func TestRemoveChatIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	_ = f.cat.PutChat(context.Background(), storage.Chat{ID: -100, Name: "Canal", Kind: "channel"})

	f.press(adminID, Action{Kind: ActRemoveChat, ChatID: -100})
	f.press(adminID, Action{Kind: ActRemoveChat, ChatID: -100})

	if f.cat.ChatCount() != 0 {
		t.Fatalf("chat not removed")
	}
	if len(f.sender.edits) != 2 || !strings.Contains(f.sender.edits[0], "removido com sucesso") || f.sender.edits[1] != txtChatNotFound {
		t.Fatalf("edits = %q", f.sender.edits)
	}
}

func TestBotLeftChat(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	_ = f.cat.PutChat(context.Background(), storage.Chat{ID: -100, Name: "Canal", Kind: "channel"})

	left := kit.Membership{ChatID: -100, ChatKind: kit.ChatChannel, ChatTitle: "Canal", Old: kit.StatusAdministrator, New: kit.StatusKicked}
	f.membership(left)
	f.membership(left)

	if f.cat.ChatCount() != 0 {
		t.Fatalf("chat still registered")
	}
	if f.notes.count("AVISO: O bot foi removido") != 1 || f.notes.count("INFO: O bot foi removido de um chat não cadastrado") != 1 {
		t.Fatalf("notes = %q", f.notes.notes)
	}
}

func TestHeaderFlows(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)

	f.press(adminID, Action{Kind: ActHeaderText})
	f.text(adminID, "Nova lista <b>semanal</b>")
	if got := f.cat.Header().Text; got != "Nova lista <b>semanal</b>" {
		t.Fatalf("header text = %q", got)
	}
	if f.state(t, adminID) != session.Idle {
		t.Fatalf("text flow should end")
	}

	f.sender.badHTML = "<b>quebrado"
	f.press(adminID, Action{Kind: ActHeaderText})
	f.text(adminID, "Texto <b>quebrado")
	if got := f.cat.Header().Text; got != "Nova lista <b>semanal</b>" {
		t.Fatalf("rejected markup replaced the header: %q", got)
	}
	if f.state(t, adminID) != session.AwaitingHeaderText || last(f.sender.textsTo(adminID)) != txtHeaderBadMarkup {
		t.Fatalf("rejected markup should keep the flow open")
	}
	f.text(adminID, "Texto <b>corrigido</b>")
	if got := f.cat.Header().Text; got != "Texto <b>corrigido</b>" || f.state(t, adminID) != session.Idle {
		t.Fatalf("header after retry = %q", got)
	}

	f.media(adminID, kit.Media{Kind: kit.MediaPhoto, FileID: "p0"})
	if last(f.sender.textsTo(adminID)) != txtHeaderUseCommand {
		t.Fatalf("media outside the flow should hint the command")
	}

	f.press(adminID, Action{Kind: ActHeaderMedia})
	f.text(adminID, "isto não é mídia")
	if f.state(t, adminID) != session.AwaitingHeaderMedia || last(f.sender.textsTo(adminID)) != txtHeaderMediaRetry {
		t.Fatalf("text in media flow should re-prompt")
	}
	f.media(adminID, kit.Media{Kind: kit.MediaAnimation, FileID: "gif1"})
	if h := f.cat.Header(); h.MediaID != "gif1" || h.MediaKind != "animation" {
		t.Fatalf("header = %+v", h)
	}
	if f.state(t, adminID) != session.Idle {
		t.Fatalf("media flow should end")
	}

	f.press(adminID, Action{Kind: ActHeaderClear})
	if f.cat.Header().HasMedia() {
		t.Fatalf("media not cleared")
	}
}

func TestSendNowUsesBroadcastEntryPoint(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	f.text(adminID, "/testar_envio")
	f.press(adminID, Action{Kind: ActSendNow})

	if len(f.bc.triggers) != 2 || f.bc.triggers[0] != broadcast.TriggerManual {
		t.Fatalf("broadcast runs = %v", f.bc.triggers)
	}
	if err := f.svc.Broadcast(context.Background(), broadcast.TriggerScheduled); err != nil {
		t.Fatal(err)
	}
	if f.bc.triggers[2] != broadcast.TriggerScheduled {
		t.Fatalf("scheduled run = %v", f.bc.triggers)
	}
}

func TestNormalizeLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"https://t.me/canal", "https://t.me/canal", nil},
		{"  t.me/+AbCd  ", "https://t.me/+AbCd", nil},
		{"http://telegram.me/grupo", "http://telegram.me/grupo", nil},
		{"telegram.me/grupo", "https://telegram.me/grupo", nil},
		{"https://example.com/t.me/x", "", ErrMalformedLink},
		{"https://t.me/", "", ErrMalformedLink},
		{"meu canal", "", ErrNotTelegramLink},
	}
	for _, tt := range tests {
		got, err := NormalizeLink(tt.in)
		if got != tt.want || err != tt.wantErr {
			t.Fatalf("NormalizeLink(%q) = %q, %v; want %q, %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseTimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		valid, bad string
	}{
		{"09:00, 25:99, 15:30", "09:00,15:30", "25:99"},
		{"9:05,21:00,9:05", "09:05,21:00", ""},
		{" , 24:00 ,12:60", "", "24:00,12:60"},
		{"23:59", "23:59", ""},
	}
	for _, tt := range tests {
		valid, bad := ParseTimes(tt.in)
		if strings.Join(valid, ",") != tt.valid || strings.Join(bad, ",") != tt.bad {
			t.Fatalf("ParseTimes(%q) = %v, %v", tt.in, valid, bad)
		}
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	for _, a := range []Action{
		{Kind: ActChannels},
		{Kind: ActRemove},
		{Kind: ActRemove, Page: 3},
		{Kind: ActRemoveChat, ChatID: -1001234567890},
		{Kind: ActHeaderClear},
	} {
		data := a.Data()
		parts := strings.SplitN(data, ":", 3)
		payload := ""
		if len(parts) == 3 {
			payload = parts[2]
		}
		got, err := ParseAction(parts[1], payload)
		if err != nil || got != a {
			t.Fatalf("ParseAction(%q) = %+v, %v", data, got, err)
		}
	}
	for _, bad := range [][2]string{{"remove_chat", "abc"}, {"remove", "-1"}, {"nope", ""}} {
		if _, err := ParseAction(bad[0], bad[1]); err == nil {
			t.Fatalf("ParseAction(%q, %q) should fail", bad[0], bad[1])
		}
	}
}

func TestStatusHelpCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.claimAdmin(t)
	ctx := context.Background()
	_ = f.cat.PutChat(ctx, storage.Chat{ID: -100, Name: "Canal", Kind: "channel"})
	if _, err := f.cat.SetSchedule(ctx, adminID, []string{"09:00"}); err != nil {
		t.Fatal(err)
	}

	f.text(adminID, "/status")
	status := last(f.sender.textsTo(adminID))
	for _, want := range []string{"09:00", "Canais/grupos", "UTC"} {
		if !strings.Contains(status, want) {
			t.Fatalf("status %q lacks %q", status, want)
		}
	}

	f.text(2, "/ajuda")
	help := last(f.sender.textsTo(2))
	if !strings.Contains(help, "/register") || strings.Contains(help, "/status") {
		t.Fatalf("user help = %q", help)
	}
	f.text(adminID, "/help")
	if help := last(f.sender.textsTo(adminID)); !strings.Contains(help, "/status") {
		t.Fatalf("admin help = %q", help)
	}

	f.text(2, "/cancel")
	if got := last(f.sender.textsTo(2)); got != txtNothingCancel {
		t.Fatalf("idle cancel = %q", got)
	}
	f.text(2, "/register")
	f.text(2, "/cancelar")
	if got := last(f.sender.textsTo(2)); got != txtCancelled {
		t.Fatalf("cancel = %q", got)
	}
	if f.state(t, 2) != session.Idle {
		t.Fatalf("state after cancel = %s", f.state(t, 2))
	}
}
