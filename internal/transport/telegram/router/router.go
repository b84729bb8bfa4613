// Package router turns transport updates into handler calls.
//
// Updates are handled one at a time, in arrival order, by DispatchLoop.
// Commands are matched by name or alias, buttons by callback namespace, and
// everything else goes to the fallbacks. Every handler runs behind the same
// middleware chain: panic recovery, request logging and a timeout.
package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	kit "promobot/internal/transport"
	logx "promobot/pkg/logx"
	"promobot/pkg/tgui"
)

const DefaultTimeout = 30 * time.Second

type Router struct {
	mu        sync.RWMutex
	cmds      map[string]*Command // name and aliases
	ordered   []Command
	callbacks map[string]CallbackRoute
	fallbacks Fallbacks

	sender  kit.Sender
	admin   AdminChecker
	log     logx.Logger
	texts   Texts
	onError ErrorReporter
	timeout time.Duration
	botName string
}

type Option func(*Router)

func WithTimeout(d time.Duration) Option { return func(r *Router) { r.timeout = d } }

func WithTexts(t Texts) Option { return func(r *Router) { r.texts = t } }

func WithErrorReporter(fn ErrorReporter) Option { return func(r *Router) { r.onError = fn } }

// WithBotUsername makes the router ignore "/cmd@otherbot" in groups.
func WithBotUsername(name string) Option {
	return func(r *Router) { r.botName = strings.ToLower(strings.TrimPrefix(name, "@")) }
}

func New(sender kit.Sender, admin AdminChecker, log logx.Logger, opts ...Option) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{
		cmds:      map[string]*Command{},
		callbacks: map[string]CallbackRoute{},
		sender:    sender,
		admin:     admin,
		log:       log,
		timeout:   DefaultTimeout,
		texts: Texts{
			Unknown:  "Unknown command. Try /help",
			Denied:   "Permission denied.",
			Internal: "Internal error.",
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetRegistry replaces commands, callback routes and fallbacks.
func (r *Router) SetRegistry(cmds []Command, cbs []CallbackRoute, fb Fallbacks) {
	byName := map[string]*Command{}
	ordered := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		cc := c
		ordered = append(ordered, cc)
		byName[name] = &cc
		for _, a := range c.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" || strings.Contains(a, " ") {
				continue
			}
			if _, exists := byName[a]; !exists {
				byName[a] = &cc
			}
		}
	}
	cb := map[string]CallbackRoute{}
	for _, rt := range cbs {
		ns := strings.TrimSpace(rt.Namespace)
		if ns == "" || rt.Handle == nil {
			continue
		}
		cb[ns] = rt
	}

	r.mu.Lock()
	r.cmds = byName
	r.ordered = ordered
	r.callbacks = cb
	r.fallbacks = fb
	r.mu.Unlock()
}

// Commands returns the registered commands in registration order.
func (r *Router) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Command(nil), r.ordered...)
}

// DispatchLoop handles updates until ctx is done or updates is closed.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	r.log.Info("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("dispatcher stopped", logx.Err(ctx.Err()))
			return nil
		case up, ok := <-updates:
			if !ok {
				r.log.Info("dispatcher stopped (updates channel closed)")
				return nil
			}
			r.Dispatch(ctx, up)
		}
	}
}

// Dispatch routes one update and returns when its handler is done.
func (r *Router) Dispatch(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage, kit.UpdateMedia:
		r.routeMessage(ctx, up)
	case kit.UpdateCallback:
		r.routeCallback(ctx, up)
	case kit.UpdateMembership:
		r.routeMembership(ctx, up)
	}
}

func (r *Router) routeMessage(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	r.mu.RLock()
	fb := r.fallbacks
	r.mu.RUnlock()

	req := r.newRequest(up, kit.ChatTarget{ChatID: msg.ChatID}, msg.FromID)
	req.Message = msg

	if msg.Media != nil {
		req.Command = "media"
		if fb.Media != nil {
			r.run(ctx, req, fb.Media, 0)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		req.Command = "text"
		if fb.Text != nil {
			r.run(ctx, req, fb.Text, 0)
		}
		return
	}

	word, rest := splitCommand(text)
	if i := strings.IndexByte(word, '@'); i >= 0 {
		target := strings.ToLower(word[i+1:])
		word = word[:i]
		if r.botName != "" && target != r.botName {
			return
		}
	}
	word = strings.ToLower(word)

	r.mu.RLock()
	cmd, ok := r.cmds[word]
	r.mu.RUnlock()
	if !ok {
		if msg.IsPrivate() {
			_, _ = req.Reply(ctx, r.texts.Unknown, nil)
		}
		return
	}
	if cmd.Access == AccessAdmin && !req.IsAdmin {
		req.Logger.Info("admin command denied", logx.String("cmd", cmd.Name))
		_, _ = req.Reply(ctx, r.texts.Denied, nil)
		return
	}
	req.Command = cmd.Name
	req.RawArgs = rest
	req.Args = strings.Fields(rest)
	req.Logger = req.Logger.With(logx.String("cmd", cmd.Name))
	r.run(ctx, req, cmd.Handle, cmd.Timeout)
}

func (r *Router) routeCallback(ctx context.Context, up kit.Update) {
	cb := up.Callback
	if cb == nil {
		return
	}
	req := r.newRequest(up, kit.ChatTarget{ChatID: cb.ChatID}, cb.FromID)
	req.Callback = cb

	ns, action, payload, ok := tgui.ParseData(cb.Data)
	r.mu.RLock()
	route, found := r.callbacks[ns]
	r.mu.RUnlock()
	if !ok || !found {
		req.Logger.Debug("callback without route", logx.String("data", cb.Data))
		_ = req.Answer(ctx, "")
		return
	}
	if route.Access == AccessAdmin && !req.IsAdmin {
		req.Logger.Info("admin callback denied", logx.String("data", cb.Data))
		_ = req.Answer(ctx, r.texts.Denied)
		_, _ = req.Reply(ctx, r.texts.Denied, nil)
		return
	}
	req.Command = "cb:" + ns + ":" + action
	req.Action = action
	req.Payload = payload
	req.Logger = req.Logger.With(logx.String("cmd", req.Command))

	r.run(ctx, req, route.Handle, route.Timeout)
	_ = req.Answer(ctx, "")
}

func (r *Router) routeMembership(ctx context.Context, up kit.Update) {
	m := up.Membership
	if m == nil {
		return
	}
	r.mu.RLock()
	h := r.fallbacks.Membership
	r.mu.RUnlock()
	if h == nil {
		return
	}
	req := r.newRequest(up, kit.ChatTarget{ChatID: m.ChatID}, m.ByUserID)
	req.Command = "membership"
	r.run(ctx, req, h, 0)
}

func (r *Router) newRequest(up kit.Update, chat kit.ChatTarget, from int64) *Request {
	rid := newReqID()
	// Admin rights apply only in the admin's private chat, so admin
	// output never lands in a group or channel.
	isAdmin := r.admin != nil && from != 0 && chat.ChatID == from && r.admin.IsAdmin(from)
	return &Request{
		Update:  up,
		Chat:    chat,
		FromID:  from,
		IsAdmin: isAdmin,
		ReqID:   rid,
		Sender:  r.sender,
		Logger: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", chat.ChatID),
			logx.Int64("from_id", from),
		),
	}
}

func (r *Router) run(ctx context.Context, req *Request, h HandlerFunc, timeout time.Duration) {
	if timeout <= 0 {
		timeout = r.timeout
	}
	final := Chain(h,
		MWPanicRecover(r.log),
		MWRequestLog(r.log),
		MWTimeout(timeout),
	)
	if err := final(ctx, req); err != nil {
		r.reportError(ctx, req, err)
	}
}

func (r *Router) reportError(ctx context.Context, req *Request, err error) {
	if r.onError != nil {
		r.onError(ctx, req, err)
		return
	}
	if req.Message != nil || req.Callback != nil {
		_, _ = req.Reply(ctx, r.texts.Internal, nil)
	}
}

// splitCommand returns the command word without the slash and the rest of the text.
func splitCommand(text string) (word, rest string) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	i := strings.IndexAny(text, " \t\n")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

func newReqID() string {
	return uuid.NewString()[:8]
}
