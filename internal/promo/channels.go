package promo

import (
	"context"
	"fmt"
	"strconv"

	"promobot/internal/eventbus"
	"promobot/internal/storage"
	"promobot/internal/transport/telegram/router"
	"promobot/pkg/tgui"
)

const removePageSize = 8

// channelList renders the registered chats as HTML.
func channelList(chats []storage.Chat) tgui.Message {
	b := tgui.New().Title("📋", fmt.Sprintf("Canais e Grupos Cadastrados (%d)", len(chats)))
	for _, ch := range chats {
		link := ch.Link
		if link == "" {
			link = "Não disponível"
		}
		b.Blank().
			KV("Nome", ch.Name).
			KV("Tipo", ch.Kind).
			KV("Membros", strconv.Itoa(ch.Members)).
			KV("Link", link).
			HTML(tgui.H("• " + tgui.B("ID").String() + ": " + tgui.Code(strconv.FormatInt(ch.ID, 10)).String()))
	}
	return b.Build()
}

func (s *Service) cmdChannels(ctx context.Context, req *router.Request) error {
	chats := s.cat.Chats()
	if len(chats) == 0 {
		_, err := req.Reply(ctx, txtNoChats, nil)
		return err
	}
	// Telegram caps a message at 4096 characters.
	for _, part := range chunk(chats, 15) {
		if _, err := channelList(part).Send(ctx, s.sender, req.Chat); err != nil {
			return err
		}
	}
	return nil
}

// removeMenu is one page of removal buttons with prev/next navigation.
func removeMenu(chats []storage.Chat, page int) (tgui.Message, int) {
	p := tgui.Paginate(chats, page, removePageSize)
	kb := tgui.NewInline()
	for _, ch := range p.Items {
		label := ch.Name
		if label == "" {
			label = fmt.Sprintf("ID: %d", ch.ID)
		}
		kb.Row(tgui.Btn(tgui.TruncRunes(label, 40), Action{Kind: ActRemoveChat, ChatID: ch.ID}.Data()))
	}
	var nav []tgui.Button
	if p.HasPrev {
		nav = append(nav, tgui.Btn("⬅️", Action{Kind: ActRemove, Page: p.Index - 1}.Data()))
	}
	if p.HasNext {
		nav = append(nav, tgui.Btn("➡️", Action{Kind: ActRemove, Page: p.Index + 1}.Data()))
	}
	kb.Row(nav...)
	msg := tgui.New().Inline(kb).
		Line(txtPickRemove).
		Line(p.Label(len(chats))).
		Build()
	return msg, p.Index
}

func (s *Service) cmdRemove(ctx context.Context, req *router.Request) error {
	return s.showRemoveMenu(ctx, req, 0, false)
}

func (s *Service) showRemoveMenu(ctx context.Context, req *router.Request, page int, edit bool) error {
	chats := s.cat.Chats()
	if len(chats) == 0 {
		if edit {
			return s.editOrReply(ctx, req, txtNoChatsRemove)
		}
		_, err := req.Reply(ctx, txtNoChatsRemove, nil)
		return err
	}
	msg, _ := removeMenu(chats, page)
	if edit {
		if err := msg.Edit(ctx, s.sender, req.MessageRef()); err == nil {
			return nil
		}
	}
	_, err := msg.Send(ctx, s.sender, req.Chat)
	return err
}

// removeChat deletes one chat. Removing an absent chat is a no-op that
// reports "not found".
func (s *Service) removeChat(ctx context.Context, req *router.Request, chatID int64) error {
	removed, err := s.cat.RemoveChats(ctx, chatID)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return s.editOrReply(ctx, req, txtChatNotFound)
	}
	ch := removed[0]
	req.Logger.Info("chat removed by admin")
	s.audit(ctx, req.FromID, "chat.remove", strconv.FormatInt(chatID, 10), nil)
	s.publish(eventbus.ChatRemoved, ch)
	return s.editOrReply(ctx, req, txtChatRemoved(ch.Name, ch.ID))
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
