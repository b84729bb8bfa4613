package promo

import (
	"context"
	"errors"

	"promobot/internal/eventbus"
	"promobot/internal/notifier/broadcast"
	"promobot/internal/session"
	"promobot/internal/transport/telegram/router"
	logx "promobot/pkg/logx"
	"promobot/pkg/tgui"
)

// Commands is the command table. Canonical names are English; the
// Portuguese names stay as aliases.
func (s *Service) Commands() []router.Command {
	admin := router.AccessAdmin
	return []router.Command{
		{Name: "start", Description: "Iniciar o bot", Handle: s.cmdStart},
		{Name: "register", Aliases: []string{"cadastrar"}, Description: "Cadastrar seu canal/grupo para divulgação", Handle: s.cmdRegister},
		{Name: "channels", Aliases: []string{"ver_canais"}, Description: "Ver canais cadastrados", Access: admin, Handle: s.cmdChannels},
		{Name: "header", Aliases: []string{"editar_cabecalho"}, Description: "Editar o cabeçalho", Access: admin, Handle: s.cmdHeader},
		{Name: "schedule", Aliases: []string{"agendar"}, Description: "Agendar publicações diárias", Access: admin, Handle: s.cmdSchedule},
		{Name: "pause", Aliases: []string{"parar_agendamento"}, Description: "Pausar o agendamento", Access: admin, Handle: s.cmdPause},
		{Name: "resume", Aliases: []string{"retomar_agendamento"}, Description: "Retomar o agendamento", Access: admin, Handle: s.cmdResume},
		{Name: "sendnow", Aliases: []string{"testar_envio"}, Description: "Enviar a lista agora", Access: admin, Handle: s.cmdSendNow},
		{Name: "remove", Aliases: []string{"remover_canal"}, Description: "Remover um canal/grupo", Access: admin, Handle: s.cmdRemove},
		{Name: "status", Description: "Agendamento, próximos envios e total de canais", Access: admin, Handle: s.cmdStatus},
		{Name: "help", Aliases: []string{"ajuda"}, Description: "Mostrar esta ajuda", Handle: s.cmdHelp},
		{Name: "cancel", Aliases: []string{"cancelar"}, Description: "Cancelar a operação atual", Handle: s.cmdCancel},
	}
}

func (s *Service) Callbacks() []router.CallbackRoute {
	return []router.CallbackRoute{{Namespace: Namespace, Access: router.AccessAdmin, Handle: s.onCallback}}
}

func (s *Service) Fallbacks() router.Fallbacks {
	return router.Fallbacks{Text: s.onText, Media: s.onMedia, Membership: s.onMembership}
}

func (s *Service) cmdStart(ctx context.Context, req *router.Request) error {
	name := displayName(req.Message)
	if req.IsAdmin {
		_, err := req.Reply(ctx, txtStartAdmin(name), nil)
		return err
	}
	if req.Message.IsPrivate() {
		claimed, err := s.cat.ClaimAdmin(ctx, req.FromID)
		if err != nil {
			return err
		}
		if claimed {
			req.Logger.Info("admin claimed")
			s.audit(ctx, req.FromID, "admin.claim", "", nil)
			s.publish(eventbus.AdminClaimed, req.FromID)
			s.Start(ctx)
			_, err = req.Reply(ctx, txtStartNewAdmin(name), nil)
			return err
		}
	}
	_, err := req.Reply(ctx, txtStartUser(name), nil)
	return err
}

func adminMenu() *tgui.Inline {
	row := func(text string, k ActionKind) tgui.Button { return tgui.Btn(text, Action{Kind: k}.Data()) }
	return tgui.NewInline().
		Row(row("Ver Canais Cadastrados", ActChannels)).
		Row(row("Editar Cabeçalho", ActHeader)).
		Row(row("Agendar Publicações", ActSchedule)).
		Row(row("Parar Agendamento", ActPause), row("Retomar Agendamento", ActResume)).
		Row(row("Testar Envio Agora", ActSendNow)).
		Row(row("Remover Canal", ActRemove))
}

func (s *Service) cmdHelp(ctx context.Context, req *router.Request) error {
	text := txtHelpTitle
	if s.router != nil {
		text = s.router.HelpText(txtHelpTitle, req.IsAdmin)
	}
	b := tgui.New().HTML(tgui.H(text))
	if req.IsAdmin {
		b.Inline(adminMenu())
	}
	_, err := b.Build().Send(ctx, s.sender, req.Chat)
	return err
}

func (s *Service) cmdCancel(ctx context.Context, req *router.Request) error {
	sess, err := s.session(ctx, req.FromID)
	if err != nil {
		return err
	}
	if sess.State == session.Idle {
		_, err = req.Reply(ctx, txtNothingCancel, nil)
		return err
	}
	req.Logger.Info("flow cancelled", logx.String("state", sess.State.String()))
	if err := s.fire(ctx, &sess, session.EvCancel); err != nil {
		return err
	}
	_, err = req.Reply(ctx, txtCancelled, nil)
	return err
}

// cmdSendNow starts a manual broadcast. With a Spawner the pass runs in
// the background so the dispatcher is not held; the report reaches the
// admin when it finishes.
func (s *Service) cmdSendNow(ctx context.Context, req *router.Request) error {
	if s.bcast.Running() {
		_, err := req.Reply(ctx, txtSendBusy, nil)
		return err
	}
	s.audit(ctx, req.FromID, "broadcast.request", "", nil)
	if _, err := req.Reply(ctx, txtSendStarted, nil); err != nil {
		req.Logger.Warn("send-now ack failed", logx.Err(err))
	}
	run := func(ctx context.Context) error {
		err := s.Broadcast(ctx, broadcast.TriggerManual)
		if errors.Is(err, broadcast.ErrBusy) {
			s.notifyAdmin(ctx, txtSendBusy)
			return nil
		}
		return err
	}
	if s.spawn == nil {
		return run(ctx)
	}
	s.spawn("broadcast.manual", run)
	return nil
}

// onText routes plain text by the sender's conversation state.
func (s *Service) onText(ctx context.Context, req *router.Request) error {
	if !req.Message.IsPrivate() {
		return nil
	}
	sess, err := s.session(ctx, req.FromID)
	if err != nil {
		return err
	}
	switch sess.State {
	case session.AwaitingLink, session.AwaitingJoin:
		return s.onLinkText(ctx, req, sess)
	}
	if req.IsAdmin {
		switch sess.State {
		case session.AwaitingSchedule:
			return s.onScheduleText(ctx, req, sess)
		case session.AwaitingHeaderText:
			return s.onHeaderText(ctx, req, sess)
		case session.AwaitingHeaderMedia:
			_, err = req.Reply(ctx, txtHeaderMediaRetry, nil)
			return err
		}
	}
	_, err = req.Reply(ctx, txtUnknown, nil)
	return err
}

func (s *Service) onCallback(ctx context.Context, req *router.Request) error {
	a, err := ParseAction(req.Action, req.Payload)
	if err != nil {
		req.Logger.Warn("bad promo action", logx.String("action", req.Action), logx.Err(err))
		_ = req.Answer(ctx, "Ação inválida.")
		return nil
	}
	switch a.Kind {
	case ActChannels:
		return s.cmdChannels(ctx, req)
	case ActHeader:
		return s.cmdHeader(ctx, req)
	case ActSchedule:
		return s.cmdSchedule(ctx, req)
	case ActPause:
		return s.cmdPause(ctx, req)
	case ActResume:
		return s.cmdResume(ctx, req)
	case ActSendNow:
		return s.cmdSendNow(ctx, req)
	case ActRemove:
		return s.showRemoveMenu(ctx, req, a.Page, req.Payload != "")
	case ActHeaderText:
		return s.startHeaderEdit(ctx, req, session.EvHeaderText)
	case ActHeaderMedia:
		return s.startHeaderEdit(ctx, req, session.EvHeaderMedia)
	case ActHeaderClear:
		return s.clearHeaderMedia(ctx, req)
	case ActRemoveChat:
		return s.removeChat(ctx, req, a.ChatID)
	}
	return nil
}
