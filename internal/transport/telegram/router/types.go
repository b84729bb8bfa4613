package router

import (
	"context"
	"sync/atomic"
	"time"

	kit "promobot/internal/transport"
	logx "promobot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessAdmin
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Command struct {
	Name        string   // canonical name without slash, e.g. "register"
	Aliases     []string // extra names, e.g. "cadastrar"
	Description string
	Access      Access
	Hidden      bool          // not published in the Telegram menu
	Timeout     time.Duration // overrides the router default
	Handle      HandlerFunc
}

// CallbackRoute handles every button whose data starts with Namespace.
// req.Action and req.Payload carry the rest of the data.
type CallbackRoute struct {
	Namespace string
	Access    Access
	Timeout   time.Duration
	Handle    HandlerFunc
}

// Fallbacks receive updates that are not commands or callbacks.
type Fallbacks struct {
	Text       HandlerFunc // plain text messages
	Media      HandlerFunc // photo / video / animation messages
	Membership HandlerFunc // bot membership changes
}

// AdminChecker decides AccessAdmin.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// ErrorReporter is called when a handler returns an error or panics.
type ErrorReporter func(ctx context.Context, req *Request, err error)

// Texts are the user-facing strings the router itself sends.
type Texts struct {
	Unknown  string // unknown command in a private chat
	Denied   string // admin-only command or button
	Internal string // default error reply
}

type Request struct {
	Update   kit.Update
	Chat     kit.ChatTarget
	FromID   int64
	IsAdmin  bool
	Message  *kit.Message
	Callback *kit.Callback

	Command string   // canonical command name, or "cb:<ns>:<action>"
	Args    []string // whitespace-separated arguments
	RawArgs string   // everything after the command word
	Action  string   // callback action
	Payload string   // callback payload

	ReqID  string
	Logger logx.Logger
	Sender kit.Sender

	answered atomic.Bool
}

// Reply sends text to the request's chat.
func (r *Request) Reply(ctx context.Context, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{DisablePreview: true}
	}
	return r.Sender.SendText(ctx, r.Chat, text, opt)
}

// Answer acknowledges the callback with an optional toast. The router
// answers with an empty toast when the handler did not.
func (r *Request) Answer(ctx context.Context, text string) error {
	if r.Callback == nil || !r.answered.CompareAndSwap(false, true) {
		return nil
	}
	return r.Sender.AnswerCallback(ctx, r.Callback.ID, text)
}

// MessageRef points at the message that carried the pressed button.
func (r *Request) MessageRef() kit.MessageRef {
	if r.Callback == nil {
		return kit.MessageRef{}
	}
	return kit.MessageRef{ChatID: r.Callback.ChatID, MessageID: r.Callback.MessageID}
}
