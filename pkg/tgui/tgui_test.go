package tgui

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestDataRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ns, action, payload string
	}{
		{"promo", "channels", ""},
		{"promo", "remove_chat", "-1001234567890"},
		{"promo", "remove", "2"},
		{"promo", "x", "a:b"},
	}
	for _, tc := range cases {
		d := Data(tc.ns, tc.action, tc.payload)
		if err := CheckData(d); err != nil {
			t.Fatalf("CheckData(%q) = %v", d, err)
		}
		ns, action, payload, ok := ParseData(d)
		if !ok || ns != tc.ns || action != tc.action || payload != tc.payload {
			t.Fatalf("ParseData(%q) = %q %q %q %v", d, ns, action, payload, ok)
		}
	}
}

func TestParseDataRejectsMalformed(t *testing.T) {
	t.Parallel()

	for _, d := range []string{"", "promo", ":x", "promo:", "  "} {
		if _, _, _, ok := ParseData(d); ok {
			t.Fatalf("ParseData(%q) should fail", d)
		}
	}
	if CheckData(strings.Repeat("x", MaxCallbackDataLen+1)) == nil {
		t.Fatalf("expected too-long error")
	}
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7}
	p := Paginate(items, 1, 3)
	if len(p.Items) != 3 || p.Items[0] != 4 || !p.HasPrev || !p.HasNext || p.Pages != 3 {
		t.Fatalf("page 1: %+v", p)
	}
	last := Paginate(items, 99, 3)
	if last.Index != 2 || len(last.Items) != 1 || last.HasNext {
		t.Fatalf("clamped page: %+v", last)
	}
	if got := last.Label(len(items)); got != "Página 3/3 • 7–7 de 7" {
		t.Fatalf("label = %q", got)
	}
	empty := Paginate([]int(nil), 0, 3)
	if len(empty.Items) != 0 || empty.Pages != 1 || empty.HasNext {
		t.Fatalf("empty page: %+v", empty)
	}
}

func TestBuilderEscapesAndAttachesKeyboard(t *testing.T) {
	t.Parallel()

	kb := NewInline().Row(Btn("ok", Data("promo", "channels", "")))
	m := New().Title("📋", "Chats <2>").KV("name", "a&b").Line("x<y").Inline(kb).Build()

	want := "📋 <b>Chats &lt;2&gt;</b>\n• <b>name</b>: a&amp;b\nx&lt;y"
	if m.Text != want {
		t.Fatalf("text = %q, want %q", m.Text, want)
	}
	if m.Opt.ParseMode != "HTML" || !m.Opt.DisablePreview {
		t.Fatalf("bad options: %+v", m.Opt)
	}
	if _, ok := m.Opt.ReplyMarkupAdapter.(*tele.ReplyMarkup); !ok {
		t.Fatalf("keyboard not attached")
	}
	if New().Line("x").Inline(NewInline()).Build().Opt.ReplyMarkupAdapter != nil {
		t.Fatalf("empty keyboard should not be attached")
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()

	if got := TruncRunes("héllo", 3); got != "hél…" {
		t.Fatalf("got %q", got)
	}
	if got := TruncRunes("abc", 3); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestGrid2(t *testing.T) {
	t.Parallel()

	in := Grid2([]tele.Btn{Btn("a", "1"), Btn("b", "2"), Btn("c", "3")})
	if in.Len() != 2 {
		t.Fatalf("rows = %d, want 2", in.Len())
	}
}
