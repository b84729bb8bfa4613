package adapter

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	kit "promobot/internal/transport"
)

func (a *Adapter) SelfID() int64 {
	if a.bot.Me == nil {
		return 0
	}
	return a.bot.Me.ID
}

// Username is the bot's @name without the @.
func (a *Adapter) Username() string {
	if a.bot.Me == nil {
		return ""
	}
	return a.bot.Me.Username
}

// MemberOf returns userID's membership in chatID, with the chat's kind and title.
func (a *Adapter) MemberOf(ctx context.Context, chatID, userID int64) (kit.ChatMember, error) {
	if err := ctx.Err(); err != nil {
		return kit.ChatMember{}, err
	}
	chat, err := a.bot.ChatByID(chatID)
	if err != nil {
		return kit.ChatMember{}, fmt.Errorf("get chat %d: %w", chatID, classify(err))
	}
	m, err := a.bot.ChatMemberOf(chat, &tele.User{ID: userID})
	if err != nil {
		return kit.ChatMember{}, fmt.Errorf("get chat member %d/%d: %w", chatID, userID, classify(err))
	}
	return toChatMember(chat, m), nil
}

func toChatMember(chat *tele.Chat, m *tele.ChatMember) kit.ChatMember {
	out := kit.ChatMember{
		Status:   kit.MemberStatus(m.Role),
		ChatKind: chatKind(chat.Type),
		Title:    chatTitle(chat),
	}
	switch out.Status {
	case kit.StatusCreator:
		out.CanPost = true
	case kit.StatusAdministrator:
		// Groups have no post right; admins can always write there.
		if out.ChatKind == kit.ChatChannel {
			out.CanPost = m.CanPostMessages
		} else {
			out.CanPost = true
		}
	}
	return out
}

func (a *Adapter) MemberCount(ctx context.Context, chatID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := a.bot.Len(&tele.Chat{ID: chatID})
	if err != nil {
		return 0, fmt.Errorf("get member count %d: %w", chatID, classify(err))
	}
	return n, nil
}

func (a *Adapter) ExportInviteLink(ctx context.Context, chatID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	link, err := a.bot.InviteLink(&tele.Chat{ID: chatID})
	if err != nil {
		return "", fmt.Errorf("export invite link %d: %w", chatID, classify(err))
	}
	return link, nil
}
