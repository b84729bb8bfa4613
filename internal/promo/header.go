package promo

import (
	"context"
	"errors"

	"promobot/internal/eventbus"
	"promobot/internal/session"
	kit "promobot/internal/transport"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
	"promobot/pkg/tgui"
)

func headerMenu() *tgui.Inline {
	return tgui.NewInline().
		Row(tgui.Btn("Editar Texto", Action{Kind: ActHeaderText}.Data())).
		Row(tgui.Btn("Editar Mídia (Foto/GIF/Vídeo)", Action{Kind: ActHeaderMedia}.Data())).
		Row(tgui.Btn("Remover Mídia do Cabeçalho", Action{Kind: ActHeaderClear}.Data()))
}

func (s *Service) cmdHeader(ctx context.Context, req *router.Request) error {
	h := s.cat.Header()
	b := tgui.New().Inline(headerMenu()).
		Line(txtHeaderMenu).
		Blank().
		KV("Texto atual", tgui.TruncRunes(h.Text, 300))
	if h.HasMedia() {
		b.KV("Mídia", h.MediaKind)
	} else {
		b.KV("Mídia", "nenhuma")
	}
	_, err := b.Build().Send(ctx, s.sender, req.Chat)
	return err
}

// startHeaderEdit enters the text or media edit flow.
func (s *Service) startHeaderEdit(ctx context.Context, req *router.Request, ev session.Event) error {
	sess, err := s.session(ctx, req.FromID)
	if err != nil {
		return err
	}
	if err := s.fire(ctx, &sess, ev); err != nil {
		return err
	}
	text := txtHeaderMediaAsk
	if ev == session.EvHeaderText {
		text = txtHeaderTextAsk(s.cat.Header().Text)
	}
	_, err = req.Reply(ctx, text, nil)
	return err
}

// onHeaderText saves the header. The header is Telegram HTML written by the
// admin; the confirmation echoes it in HTML mode so Telegram vets the markup,
// and a rejected header is rolled back with the flow left open.
func (s *Service) onHeaderText(ctx context.Context, req *router.Request, sess session.Session) error {
	text := req.Message.Text
	prev := s.cat.Header().Text
	if err := s.cat.SetHeaderText(ctx, text); err != nil {
		return err
	}
	_, err := req.Reply(ctx, txtHeaderTextSaved(text), &kit.SendOptions{ParseMode: "HTML", DisablePreview: true})
	if errors.Is(err, kit.ErrBadRequest) {
		req.Logger.Info("header markup rejected", logx.Err(err))
		if err := s.cat.SetHeaderText(ctx, prev); err != nil {
			return err
		}
		_, err = req.Reply(ctx, txtHeaderBadMarkup, nil)
		return err
	}
	if err != nil {
		return err
	}
	s.audit(ctx, req.FromID, "header.text", "", nil)
	s.publish(eventbus.HeaderChanged, s.cat.Header())
	return s.fire(ctx, &sess, session.EvDone)
}

// onMedia handles photo/video/animation messages.
func (s *Service) onMedia(ctx context.Context, req *router.Request) error {
	msg := req.Message
	if !msg.IsPrivate() {
		return nil
	}
	sess, err := s.session(ctx, req.FromID)
	if err != nil {
		return err
	}
	if !req.IsAdmin {
		_, err = req.Reply(ctx, txtUnknown, nil)
		return err
	}
	if sess.State != session.AwaitingHeaderMedia {
		_, err = req.Reply(ctx, txtHeaderUseCommand, nil)
		return err
	}
	media := msg.Media
	if media == nil || !media.Kind.Valid() || media.FileID == "" {
		_, err = req.Reply(ctx, txtHeaderMediaRetry, nil)
		return err
	}
	if err := s.cat.SetHeaderMedia(ctx, string(media.Kind), media.FileID); err != nil {
		return err
	}
	s.audit(ctx, req.FromID, "header.media", string(media.Kind), nil)
	s.publish(eventbus.HeaderChanged, s.cat.Header())
	if err := s.fire(ctx, &sess, session.EvDone); err != nil {
		return err
	}
	_, err = req.Reply(ctx, txtHeaderMediaSaved(string(media.Kind)), nil)
	return err
}

func (s *Service) clearHeaderMedia(ctx context.Context, req *router.Request) error {
	had, err := s.cat.ClearHeaderMedia(ctx)
	if err != nil {
		return err
	}
	text := txtHeaderNoMedia
	if had {
		text = txtHeaderMediaGone
		s.audit(ctx, req.FromID, "header.clear", "", nil)
		s.publish(eventbus.HeaderChanged, s.cat.Header())
	}
	return s.editOrReply(ctx, req, text)
}

// editOrReply replaces the pressed message's text, falling back to a new
// message when the edit fails.
func (s *Service) editOrReply(ctx context.Context, req *router.Request, text string) error {
	if ref := req.MessageRef(); ref.MessageID != 0 {
		if err := s.sender.EditText(ctx, ref, text, &kit.SendOptions{DisablePreview: true}); err == nil {
			return nil
		}
	}
	_, err := req.Reply(ctx, text, nil)
	return err
}
