package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	logx "promobot/pkg/logx"
)

func sampleSnapshot() Snapshot {
	s := Default()
	s.AdminID = 4242
	s.HeaderText = "Promo do dia"
	s.HeaderMediaID = "AgACAgEAAxkBAAIB"
	s.HeaderMediaKind = "photo"
	s.Chats[-1001] = Chat{
		ID: -1001, Name: "Canal A", Kind: "channel", Link: "https://t.me/canal_a",
		Members: 120, RegisteredAt: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}
	s.Chats[-2002] = Chat{ID: -2002, Name: "Grupo B", Kind: "supergroup", Members: 77}
	s.Schedules[4242] = Schedule{Times: []string{"09:00", "15:30"}, Active: true}
	return s
}

func openTest(t *testing.T, driver string) Store {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{Driver: driver, Path: filepath.Join(dir, "bot_data.json")}
	if driver == "sqlite" {
		cfg.Path = filepath.Join(dir, "bot.db")
	}
	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open(%s) = %v", driver, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			st := openTest(t, driver)

			empty, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load(empty) = %v", err)
			}
			if !reflect.DeepEqual(empty, Default()) {
				t.Fatalf("empty store should load defaults, got %+v", empty)
			}

			want := sampleSnapshot()
			if err := st.Save(ctx, want); err != nil {
				t.Fatalf("Save() = %v", err)
			}
			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load() = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}

			// Wholesale rewrite drops removed chats.
			delete(want.Chats, -2002)
			want.HeaderMediaID, want.HeaderMediaKind = "", ""
			if err := st.Save(ctx, want); err != nil {
				t.Fatalf("Save() = %v", err)
			}
			got, err = st.Load(ctx)
			if err != nil {
				t.Fatalf("Load() = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("rewrite mismatch:\n got %+v\nwant %+v", got, want)
			}

			if err := st.AppendAudit(ctx, AuditEntry{ActorID: 4242, Action: "broadcast", OK: 1}); err != nil {
				t.Fatalf("AppendAudit() = %v", err)
			}
		})
	}
}

func TestFileSchemaUsesStringKeysAndNulls(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bot_data.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	s := Default()
	s.Chats[-100] = Chat{ID: -100, Name: "X", Kind: "group"}
	if err := st.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	chats := raw["chats"].(map[string]any)
	if _, ok := chats["-100"]; !ok {
		t.Fatalf("chat id should be a string key: %s", b)
	}
	for _, k := range []string{"header_media_id", "header_media_kind", "admin_id"} {
		if v, ok := raw[k]; !ok || v != nil {
			t.Fatalf("%s should be null, got %v (present=%v)", k, v, ok)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "bot_data.audit.jsonl")); err != nil {
		t.Fatalf("audit file missing: %v", err)
	}
}

func TestFileMalformedFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot_data.json")
	if err := os.WriteFile(path, []byte(`{"chats": [`), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, err := st.Load(context.Background()); err == nil {
		t.Fatalf("malformed file should fail to load")
	}

	if err := os.WriteFile(path, []byte(`{"chats": {"abc": {"name": "x"}}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "abc") {
		t.Fatalf("non-numeric key should fail, got %v", err)
	}
}

func TestFileLoadsLegacyDocumentWithoutHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bot_data.json")
	doc := `{"chats": {"-5": {"name": "Old", "kind": "channel", "link": "https://t.me/old"}},
	         "schedules": {"7": {"times": ["08:00"], "active": false}},
	         "header_text": "", "header_media_id": null, "header_media_kind": null, "admin_id": 7}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	got, err := st.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.AdminID != 7 || got.HeaderText != DefaultHeaderText || got.Chats[-5].Link != "https://t.me/old" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if sc := got.Schedules[7]; sc.Active || len(sc.Times) != 1 {
		t.Fatalf("unexpected schedule: %+v", sc)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Driver: "mongo"}, logx.Nop()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	a := sampleSnapshot()
	b := a.Clone()
	b.Chats[-1001] = Chat{ID: -1001, Name: "changed"}
	sc := b.Schedules[4242]
	sc.Times[0] = "00:00"
	if a.Chats[-1001].Name != "Canal A" || a.Schedules[4242].Times[0] != "09:00" {
		t.Fatalf("clone shares state with original")
	}
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &sqlStore{postgres: true}
	if got := pg.rebind("INSERT INTO t(a,b) VALUES(?,?)"); got != "INSERT INTO t(a,b) VALUES($1,$2)" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &sqlStore{}
	if got := lite.rebind("x = ?"); got != "x = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}
