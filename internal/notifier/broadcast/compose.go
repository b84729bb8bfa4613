package broadcast

import (
	"strings"
	"unicode/utf8"

	"promobot/internal/catalog"
	"promobot/internal/storage"
	kit "promobot/internal/transport"
	"promobot/pkg/tgui"
)

// MaxCaptionRunes is Telegram's limit for media captions.
const MaxCaptionRunes = 1024

// Message is the composed broadcast, built once per run. All text is
// Telegram HTML.
type Message struct {
	Text     string     // full text (header + links)
	Media    *kit.Media // nil for a text-only broadcast
	Caption  string     // caption for Media
	FollowUp string     // sent after Media when the text does not fit in the caption
}

// LinkLines renders one HTML line per chat, sorted by id. Invite links
// become anchors; chats without one are listed by escaped name.
func LinkLines(chats []storage.Chat) []string {
	sorted := append([]storage.Chat(nil), chats...)
	sortByID(sorted)
	lines := make([]string, 0, len(sorted))
	for _, ch := range sorted {
		var line tgui.H
		link := strings.TrimSpace(ch.Link)
		name := strings.TrimSpace(ch.Name)
		switch {
		case strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://"):
			line = tgui.Link(link, link)
		case link != "":
			line = tgui.Esc(link)
		case name != "":
			line = tgui.Esc(name)
		default:
			line = tgui.Esc("Canal/Grupo Desconhecido")
		}
		lines = append(lines, "➡️ "+line.String())
	}
	return lines
}

// Compose builds the broadcast. The header is the admin's own HTML and is
// passed through untouched; link lines are escaped.
func Compose(h catalog.Header, chats []storage.Chat) Message {
	header := strings.TrimSpace(h.Text)
	links := strings.Join(LinkLines(chats), "\n")
	text := header
	if links != "" {
		text += "\n\n" + links
	}
	msg := Message{Text: text}
	if !h.HasMedia() {
		return msg
	}
	msg.Media = &kit.Media{Kind: kit.MediaKind(h.MediaKind), FileID: h.MediaID}
	switch {
	case utf8.RuneCountInString(text) <= MaxCaptionRunes:
		msg.Caption = text
	case utf8.RuneCountInString(header) <= MaxCaptionRunes:
		msg.Caption = header
		msg.FollowUp = links
	default:
		// Cutting HTML could leave a tag open, so the media goes bare.
		msg.FollowUp = text
	}
	return msg
}
