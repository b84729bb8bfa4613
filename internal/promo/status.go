package promo

import (
	"context"
	"strconv"
	"strings"
	"time"

	"promobot/internal/transport/telegram/router"
	"promobot/pkg/tgui"
)

func (s *Service) cmdStatus(ctx context.Context, req *router.Request) error {
	sc, _ := s.cat.Schedule(req.FromID)
	snap := s.triggers.Snapshot()

	times := "nenhum"
	if len(sc.Times) > 0 {
		times = strings.Join(sc.Times, ", ")
	}
	b := tgui.New().
		Title("📊", "Status").
		KV("Canais/grupos", strconv.Itoa(s.cat.ChatCount())).
		KV("Horários", times).
		KV("Agendamento", activeLabel(sc.Active)).
		KV("Fuso horário", snap.Timezone)

	var next []string
	for _, it := range snap.Schedules {
		if !strings.HasPrefix(it.Name, TriggerPrefix) || it.Next.IsZero() {
			continue
		}
		next = append(next, it.Next.Format("02/01 15:04"))
	}
	if len(next) > 0 {
		b.KV("Próximos envios", strings.Join(next, ", "))
	}

	h := s.cat.Header()
	media := "nenhuma"
	if h.HasMedia() {
		media = h.MediaKind
	}
	b.KV("Mídia do cabeçalho", media)

	if s.bcast.Running() {
		b.KV("Envio", "em andamento")
	}
	if last, ok := s.bcast.Last(); ok {
		b.Blank().
			Title("📨", "Último envio").
			KV("Quando", last.FinishedAt.In(locationOr(snap.Timezone)).Format("02/01 15:04")).
			KV("Sucessos", strconv.Itoa(last.OK)).
			KV("Falhas", strconv.Itoa(last.Failed))
	}
	_, err := b.Build().Send(ctx, s.sender, req.Chat)
	return err
}

func locationOr(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil && name != "" {
		return loc
	}
	return time.Local
}
