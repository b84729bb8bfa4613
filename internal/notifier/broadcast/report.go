package broadcast

import (
	"fmt"
	"strings"
)

const NoChatsText = "⚠️ Não há canais/grupos cadastrados para o envio agendado. ⚠️"

func (k FailureKind) detail(msg string) string {
	switch k {
	case FailForbidden:
		return "Bot foi bloqueado ou removido. (Removido da lista)"
	case FailBadRequest:
		return fmt.Sprintf("Erro de requisição (%s).", msg)
	default:
		return fmt.Sprintf("Erro inesperado (%s).", msg)
	}
}

// Summary renders the admin report for a finished run.
func (r Report) Summary() string {
	if r.NoChats {
		return NoChatsText
	}
	title := "Relatório de Envio Diário:"
	if r.Trigger == TriggerManual {
		title = "Relatório de Envio (manual):"
	}
	var b strings.Builder
	b.WriteString(title + "\n")
	fmt.Fprintf(&b, "✅ Sucessos: %d\n", r.OK)
	fmt.Fprintf(&b, "❌ Falhas: %d\n", r.Failed)
	if len(r.Failures) > 0 {
		b.WriteString("\nDetalhes das Falhas:\n")
		for _, f := range r.Failures {
			name := f.Name
			if name == "" {
				name = "Desconhecido"
			}
			fmt.Fprintf(&b, "- %s (%d): %s\n", name, f.ChatID, f.Kind.detail(f.Message))
		}
	}
	if r.Aborted != nil {
		fmt.Fprintf(&b, "\n⏹ Envio interrompido: %v\n", r.Aborted)
	}
	return strings.TrimRight(b.String(), "\n")
}
