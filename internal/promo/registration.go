package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"promobot/internal/eventbus"
	"promobot/internal/session"
	"promobot/internal/storage"
	kit "promobot/internal/transport"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
)

var (
	// ErrNotTelegramLink: the text does not mention t.me/ or telegram.me/.
	ErrNotTelegramLink = errors.New("not a telegram link")
	// ErrMalformedLink: it mentions Telegram but does not start with a Telegram host.
	ErrMalformedLink = errors.New("malformed telegram link")
)

var linkPrefixes = []string{
	"https://t.me/", "http://t.me/",
	"https://telegram.me/", "http://telegram.me/",
}

// NormalizeLink validates an invite link and adds https:// when the scheme
// is missing.
func NormalizeLink(text string) (string, error) {
	link := strings.TrimSpace(text)
	if !strings.Contains(link, "t.me/") && !strings.Contains(link, "telegram.me/") {
		return "", ErrNotTelegramLink
	}
	if !strings.HasPrefix(link, "http") {
		link = "https://" + link
	}
	for _, p := range linkPrefixes {
		if strings.HasPrefix(link, p) && len(link) > len(p) {
			return link, nil
		}
	}
	return "", ErrMalformedLink
}

func (s *Service) cmdRegister(ctx context.Context, req *router.Request) error {
	sess, err := s.session(ctx, req.FromID)
	if err != nil {
		return err
	}
	if err := s.fire(ctx, &sess, session.EvRegister); err != nil {
		return err
	}
	_, err = req.Reply(ctx, txtRegisterPrompt, nil)
	return err
}

// onLinkText handles text while the user is asked for an invite link.
func (s *Service) onLinkText(ctx context.Context, req *router.Request, sess session.Session) error {
	link, err := NormalizeLink(req.Message.Text)
	switch {
	case errors.Is(err, ErrMalformedLink):
		_, err = req.Reply(ctx, txtLinkMalformed, nil)
		return err
	case err != nil:
		_, err = req.Reply(ctx, txtLinkInvalid, nil)
		return err
	}
	// A second link while waiting for the join replaces the first.
	if sess.State == session.AwaitingLink {
		if err := sess.Fire(session.EvLink); err != nil {
			return err
		}
	}
	sess.PendingLink = link
	if err := session.Save(ctx, s.sessions, sess); err != nil {
		return err
	}
	req.Logger.Info("invite link accepted; waiting for bot join", logx.String("link", link))
	_, err = req.Reply(ctx, txtLinkAccepted(link, s.config().MinMembers), nil)
	return err
}

// onMembership reacts to changes of the bot's own status in a chat.
func (s *Service) onMembership(ctx context.Context, req *router.Request) error {
	m := req.Update.Membership
	if m == nil {
		return nil
	}
	switch {
	case m.Left():
		return s.chatLeft(ctx, m)
	case m.Joined():
		return s.chatJoined(ctx, req.Logger, m)
	}
	return nil
}

// registration carries one join attempt through its checks.
type registration struct {
	chatID    int64
	title     string
	kind      kit.ChatKind
	requester int64
	link      string
}

// requesterFor returns the session of the user who added the bot, if that
// user is awaiting a join. Other users' sessions are never consulted.
func (s *Service) requesterFor(ctx context.Context, byUserID int64) (session.Session, bool) {
	if byUserID == 0 {
		return session.Session{}, false
	}
	sess, err := s.sessions.Get(ctx, byUserID)
	if err != nil {
		s.log.Warn("session lookup failed", logx.Int64("user_id", byUserID), logx.Err(err))
		return session.Session{}, false
	}
	return sess, sess.State == session.AwaitingJoin
}

func (s *Service) chatJoined(ctx context.Context, log logx.Logger, m *kit.Membership) error {
	reg := registration{chatID: m.ChatID, title: chatTitle(m), kind: m.ChatKind}
	sess, hasSession := s.requesterFor(ctx, m.ByUserID)
	if hasSession {
		reg.requester = sess.UserID
		reg.link = sess.PendingLink
		// The attempt consumes the session whatever the outcome.
		defer func() {
			if err := s.fire(ctx, &sess, session.EvJoined); err != nil {
				log.Warn("session not closed", logx.Int64("user_id", sess.UserID), logx.Err(err))
			}
		}()
	}
	log = log.With(logx.Int64("chat", reg.chatID), logx.String("title", reg.title), logx.Int64("requester", reg.requester))

	err := s.register(ctx, log, &reg)
	if err == nil {
		return nil
	}
	var rej *rejection
	if errors.As(err, &rej) {
		log.Info("registration rejected", logx.String("reason", rej.reason))
		s.audit(ctx, reg.requester, "chat.reject", fmt.Sprint(reg.chatID), err)
		s.publish(eventbus.ChatRejected, reg.chatID)
		s.send(ctx, reg.chatID, rej.chat)
		if reg.requester != 0 && reg.requester != reg.chatID {
			s.send(ctx, reg.requester, rej.requester)
		}
		s.notifyAdmin(ctx, rej.admin)
		return nil
	}

	log.Error("registration failed", logx.Err(err))
	s.audit(ctx, reg.requester, "chat.register", fmt.Sprint(reg.chatID), err)
	s.send(ctx, reg.chatID, txtRegisterFailedChat())
	if reg.requester != 0 && reg.requester != reg.chatID {
		s.send(ctx, reg.requester, txtRegisterFailedRequester(reg.title, reg.chatID))
	}
	s.notifyAdmin(ctx, txtRegisterFailedAdmin(reg.title, reg.chatID, err))
	return nil
}

// rejection is a business-rule refusal with the text for each party.
type rejection struct {
	reason                string
	chat, requester, admin string
}

func (r *rejection) Error() string { return r.reason }

// register runs the checks and commits the chat. It returns a *rejection
// for permission and size refusals.
func (s *Service) register(ctx context.Context, log logx.Logger, reg *registration) error {
	me, err := s.chats.MemberOf(ctx, reg.chatID, s.chats.SelfID())
	if err != nil {
		return fmt.Errorf("bot membership: %w", err)
	}
	if me.Title != "" {
		reg.title = me.Title
	}
	if me.ChatKind != "" {
		reg.kind = me.ChatKind
	}
	isAdmin := me.Status.Admin()
	canPost := isAdmin && (me.CanPost || reg.kind != kit.ChatChannel)
	if !isAdmin || !canPost {
		return &rejection{
			reason:    "missing admin rights",
			chat:      txtNoRightsChat(reg.title, isAdmin, canPost),
			requester: txtNoRightsRequester(reg.title, reg.chatID),
			admin:     txtNoRightsAdmin(reg.title, reg.chatID),
		}
	}

	if reg.kind == kit.ChatChannel || reg.kind == kit.ChatSupergroup {
		exported, err := s.chats.ExportInviteLink(ctx, reg.chatID)
		switch {
		case err != nil:
			log.Warn("export invite link failed", logx.Err(err))
		case strings.Contains(exported, "t.me/"):
			reg.link = exported
		}
	}

	members, err := s.chats.MemberCount(ctx, reg.chatID)
	if err != nil {
		log.Warn("member count failed", logx.Err(err))
		members = 0
	}
	minMembers := s.config().MinMembers
	if reg.kind != kit.ChatPrivate && members < minMembers {
		return &rejection{
			reason:    fmt.Sprintf("only %d members", members),
			chat:      txtTooSmallChat(reg.title, members, minMembers),
			requester: txtTooSmallRequester(reg.title, reg.chatID, members, minMembers),
			admin:     txtTooSmallAdmin(reg.title, reg.chatID, members),
		}
	}

	ch := storage.Chat{
		ID:      reg.chatID,
		Name:    reg.title,
		Kind:    string(reg.kind),
		Link:    reg.link,
		Members: members,
	}
	if err := s.cat.PutChat(ctx, ch); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	log.Info("chat registered", logx.Int("members", members), logx.String("link", reg.link))
	s.audit(ctx, reg.requester, "chat.register", fmt.Sprint(reg.chatID), nil)
	s.publish(eventbus.ChatRegistered, ch)

	s.send(ctx, reg.chatID, txtRegisteredChat(reg.title, reg.chatID, members))
	if reg.requester != 0 && reg.requester != reg.chatID {
		s.send(ctx, reg.requester, txtRegisteredRequester(reg.title, reg.chatID))
	}
	s.notifyAdmin(ctx, txtRegisteredAdmin(reg.title, reg.chatID, members, reg.link))
	return nil
}

func (s *Service) chatLeft(ctx context.Context, m *kit.Membership) error {
	title := chatTitle(m)
	removed, err := s.cat.RemoveChats(ctx, m.ChatID)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		s.log.Info("bot left an unregistered chat", logx.Int64("chat", m.ChatID), logx.String("title", title))
		s.notifyAdmin(ctx, txtLeftUnregistered(title, m.ChatID))
		return nil
	}
	s.log.Info("bot removed; chat unregistered", logx.Int64("chat", m.ChatID), logx.String("title", title))
	s.audit(ctx, m.ByUserID, "chat.left", fmt.Sprint(m.ChatID), nil)
	s.publish(eventbus.ChatRemoved, removed[0])
	s.notifyAdmin(ctx, txtLeftRegistered(title, m.ChatID))
	return nil
}

func chatTitle(m *kit.Membership) string {
	if t := strings.TrimSpace(m.ChatTitle); t != "" {
		return t
	}
	return fmt.Sprintf("Chat ID %d", m.ChatID)
}
