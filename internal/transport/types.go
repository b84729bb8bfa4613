package transport

import (
	"context"
	"errors"
)

type UpdateKind string

const (
	UpdateMessage    UpdateKind = "message"
	UpdateMedia      UpdateKind = "media"
	UpdateCallback   UpdateKind = "callback"
	UpdateMembership UpdateKind = "membership"
)

type Update struct {
	Kind       UpdateKind
	Message    *Message
	Callback   *Callback
	Membership *Membership
}

// ChatKind mirrors Telegram chat types.
type ChatKind string

const (
	ChatPrivate    ChatKind = "private"
	ChatGroup      ChatKind = "group"
	ChatSupergroup ChatKind = "supergroup"
	ChatChannel    ChatKind = "channel"
)

type Message struct {
	ID           int
	ChatID       int64
	ChatKind     ChatKind
	FromID       int64
	FromUsername string
	FromName     string
	Text         string

	// Media is set for photo/video/animation messages; Text then holds the caption.
	Media *Media
}

// IsPrivate reports whether the message came from a one-to-one chat.
func (m *Message) IsPrivate() bool { return m != nil && m.ChatKind == ChatPrivate }

type MediaKind string

const (
	MediaNone      MediaKind = ""
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaAnimation MediaKind = "animation"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaAnimation:
		return true
	}
	return false
}

type Media struct {
	Kind   MediaKind
	FileID string
}

type Callback struct {
	ID        string
	FromID    int64
	ChatID    int64
	MessageID int
	Data      string
}

// MemberStatus is a chat member role as reported by the platform.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// Present reports whether the status means "inside the chat".
func (s MemberStatus) Present() bool {
	switch s {
	case StatusCreator, StatusAdministrator, StatusMember, StatusRestricted:
		return true
	}
	return false
}

func (s MemberStatus) Admin() bool { return s == StatusCreator || s == StatusAdministrator }

// Membership is a change of the bot's own status in a chat.
type Membership struct {
	ChatID    int64
	ChatKind  ChatKind
	ChatTitle string
	ByUserID  int64
	Old       MemberStatus
	New       MemberStatus
}

// Joined reports whether the bot entered the chat or was promoted to admin.
func (m *Membership) Joined() bool {
	if m == nil || !m.New.Present() {
		return false
	}
	if !m.Old.Present() {
		return true
	}
	return m.New.Admin() && !m.Old.Admin()
}

// Left reports whether the bot was removed or blocked.
func (m *Membership) Left() bool {
	return m != nil && m.Old.Present() && !m.New.Present()
}

// ChatMember is the bot's membership in a chat.
type ChatMember struct {
	Status   MemberStatus
	CanPost  bool
	ChatKind ChatKind
	Title    string
}

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode          string
	DisablePreview     bool
	ReplyMarkupAdapter any // adapter-specific markup (Telegram: *telebot.ReplyMarkup)
}

// Delivery failures, classified by the adapter.
var (
	// ErrForbidden: the bot was blocked, kicked, or is not a member.
	ErrForbidden = errors.New("transport: forbidden")
	// ErrBadRequest: the platform rejected the request itself.
	ErrBadRequest = errors.New("transport: bad request")
)

type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	SendMedia(ctx context.Context, to ChatTarget, media Media, caption string, opt *SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *SendOptions) error
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}

// ChatInspector answers questions about chats the bot is in.
type ChatInspector interface {
	SelfID() int64
	MemberOf(ctx context.Context, chatID, userID int64) (ChatMember, error)
	MemberCount(ctx context.Context, chatID int64) (int, error)
	ExportInviteLink(ctx context.Context, chatID int64) (string, error)
}

type Adapter interface {
	Sender
	ChatInspector

	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error
}

// BotCommand represents a single bot command menu entry.
type BotCommand struct {
	Command     string
	Description string
}

// CommandMenuUpdater is an optional interface that adapters can implement
// to update platform-specific bot command menus (e.g. Telegram /menu list).
type CommandMenuUpdater interface {
	UpdateMenuCommands(ctx context.Context, cmds []BotCommand) error
}
