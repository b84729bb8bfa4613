package promo

import (
	"fmt"
	"strings"

	"promobot/internal/transport/telegram/router"
)

// User-facing strings. The bot talks to its users in Portuguese.
const (
	txtUnknown  = "Desculpe, não entendi o que você quis dizer. Use /ajuda para ver os comandos disponíveis."
	txtDenied   = "Desculpe, este comando é apenas para administradores."
	txtInternal = "Ocorreu um erro interno. Tente novamente mais tarde."

	txtRegisterPrompt = "Por favor, envie o link de convite do seu canal ou grupo (ex: https://t.me/seucanal ou https://t.me/+ABCDEFGH).\n" +
		"O link deve estar no formato t.me/ ou telegram.me/.\n" +
		"Envie /cancelar para abortar a qualquer momento."
	txtLinkMalformed = "O link parece ser do Telegram, mas não está no formato esperado (ex: https://t.me/seucanal ou t.me/seucanal). Por favor, use o link de convite completo."
	txtLinkInvalid   = "Parece que não é um link válido do Telegram. Por favor, tente novamente. O link deve começar com t.me/ ou telegram.me/."

	txtCancelled     = "Operação cancelada."
	txtNothingCancel = "Nenhuma operação em andamento para cancelar."

	txtNoChats       = "Nenhum canal ou grupo cadastrado ainda."
	txtNoChatsRemove = "Nenhum canal ou grupo cadastrado para remover."
	txtPickRemove    = "Selecione o canal/grupo que deseja remover:"
	txtChatNotFound  = "Canal/grupo não encontrado na lista."

	txtHeaderMenu       = "O que você gostaria de editar no cabeçalho da sua lista de divulgação?"
	txtHeaderMediaAsk   = "Por favor, envie a nova foto, GIF ou vídeo para o cabeçalho. A mídia atual será substituída. Envie /cancelar para abortar."
	txtHeaderMediaRetry = "Por favor, envie uma foto, GIF ou vídeo para o cabeçalho."
	txtHeaderMediaGone  = "Mídia do cabeçalho removida com sucesso!"
	txtHeaderNoMedia    = "O cabeçalho não tem mídia para remover."
	txtHeaderUseCommand = "Por favor, use o comando /editar_cabecalho primeiro para iniciar a edição do cabeçalho."

	txtScheduleNone    = "Nenhum horário válido fornecido. Por favor, tente novamente."
	txtPaused          = "Agendamento de posts diários pausado."
	txtNothingToPause  = "Nenhum agendamento ativo para pausar."
	txtResumed         = "Agendamento de posts diários retomado."
	txtResumeNoTimes   = "Não há horários agendados para retomar. Use /agendar primeiro."
	txtNothingToResume = "Nenhum agendamento configurado para retomar. Use /agendar primeiro."

	txtSendStarted = "Testando o envio de publicação para os canais/grupos cadastrados... O relatório chegará ao final do envio."
	txtSendBusy    = "Já existe um envio em andamento. Aguarde o relatório."

	txtHelpTitle = "Comandos disponíveis"
)

// RouterTexts are the strings the router sends on its own.
func RouterTexts() router.Texts {
	return router.Texts{Unknown: txtUnknown, Denied: txtDenied, Internal: txtInternal}
}

func txtStartNewAdmin(name string) string {
	return fmt.Sprintf("Olá, %s! Você foi definido como o administrador deste bot.\n\nUse /ajuda para ver os comandos disponíveis.", name)
}

func txtStartAdmin(name string) string {
	return fmt.Sprintf("Bem-vindo de volta, %s! Você é o administrador.\nUse /ajuda para ver os comandos disponíveis.", name)
}

func txtStartUser(name string) string {
	return fmt.Sprintf("Olá, %s! Eu sou um bot de divulgação de canais e grupos. "+
		"Se você é o proprietário e deseja cadastrar seu canal/grupo para divulgação, use o comando /cadastrar.\n\n"+
		"Se você não é o administrador, por favor, entre em contato com o dono do bot para mais informações.", name)
}

func txtLinkAccepted(link string, minMembers int) string {
	return fmt.Sprintf("Link recebido: %s\n"+
		"Agora, por favor, me adicione como administrador no seu canal/grupo. "+
		"Assim que eu for adicionado, enviarei uma mensagem de confirmação e adicionarei o canal/grupo à lista.\n\n"+
		"Permissões necessárias:\n"+
		"- Administrador com permissão para postar mensagens.\n\n"+
		"Obs: seu canal/grupo deve ter %d membros ou mais para ser adicionado.", link, minMembers)
}

// Registration outcomes, addressed to the chat, the requester and the admin.

func txtNoRightsChat(title string, isAdmin, canPost bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá! Fui adicionado ao '%s', mas preciso ser administrador com permissão para postar mensagens.", title)
	if !isAdmin {
		b.WriteString("\n- Por favor, me torne administrador.")
	}
	if !canPost {
		b.WriteString("\n- Por favor, me dê permissão para 'Postar mensagens'.")
	}
	b.WriteString("\nPor favor, me remova do canal/grupo e adicione-me novamente com as permissões corretas para que eu possa cadastrá-lo.")
	return b.String()
}

func txtNoRightsRequester(title string, chatID int64) string {
	return fmt.Sprintf("⚠️ O cadastro do seu canal/grupo %s (%d) falhou. Não tenho as permissões necessárias. "+
		"Por favor, remova o bot e adicione-o novamente como administrador com permissão para postar mensagens.", title, chatID)
}

func txtNoRightsAdmin(title string, chatID int64) string {
	return fmt.Sprintf("AVISO: Fui adicionado ao canal/grupo %s (%d) mas não tenho as permissões de administrador necessárias. Não pude cadastrá-lo.", title, chatID)
}

func txtTooSmallChat(title string, members, minMembers int) string {
	return fmt.Sprintf("Olá! Eu sou o bot de divulgação. Seu canal/grupo '%s' tem apenas %d membros. "+
		"Não o adicionarei à lista de divulgação por ter menos de %d membros. Por favor, me remova do canal.", title, members, minMembers)
}

func txtTooSmallRequester(title string, chatID int64, members, minMembers int) string {
	return fmt.Sprintf("⚠️ O cadastro do seu canal/grupo %s (%d) falhou. Ele tem apenas %d membros, e o mínimo exigido é %d. "+
		"Por favor, remova o bot do seu canal/grupo e tente novamente quando tiver mais membros.", title, chatID, members, minMembers)
}

func txtTooSmallAdmin(title string, chatID int64, members int) string {
	return fmt.Sprintf("Cadastro recusado: %s (%d) tem apenas %d membros.", title, chatID, members)
}

func txtRegisteredChat(title string, chatID int64, members int) string {
	return fmt.Sprintf("Obrigado por me adicionar! Canal/Grupo '%s' (%d) foi adicionado à lista de divulgação com %d membros.", title, chatID, members)
}

func txtRegisteredRequester(title string, chatID int64) string {
	return fmt.Sprintf("✅ Seu canal/grupo %s (%d) foi cadastrado com sucesso! Ele já está na nossa lista de divulgação.", title, chatID)
}

func txtRegisteredAdmin(title string, chatID int64, members int, link string) string {
	if link == "" {
		link = "não disponível"
	}
	return fmt.Sprintf("Novo canal/grupo cadastrado: %s (%d) com %d membros. Link: %s", title, chatID, members, link)
}

func txtRegisterFailedChat() string {
	return "Ocorreu um erro interno ao tentar verificar minhas permissões ou cadastrar o chat. Por favor, contate o administrador do bot."
}

func txtRegisterFailedRequester(title string, chatID int64) string {
	return fmt.Sprintf("❌ Ocorreu um erro inesperado ao tentar cadastrar seu canal/grupo %s (%d). Por favor, contate o administrador do bot.", title, chatID)
}

func txtRegisterFailedAdmin(title string, chatID int64, err error) string {
	return fmt.Sprintf("ERRO: falha inesperada ao processar a adição do bot ao chat %s (%d): %v", title, chatID, err)
}

func txtLeftRegistered(title string, chatID int64) string {
	return fmt.Sprintf("AVISO: O bot foi removido do canal/grupo %s (%d). Ele foi removido da lista de divulgação.", title, chatID)
}

func txtLeftUnregistered(title string, chatID int64) string {
	return fmt.Sprintf("INFO: O bot foi removido de um chat não cadastrado: %s (%d).", title, chatID)
}

func txtChatRemoved(name string, chatID int64) string {
	return fmt.Sprintf("Canal/grupo '%s' (%d) removido com sucesso da lista.", name, chatID)
}

func txtHeaderTextAsk(current string) string {
	return fmt.Sprintf("Por favor, envie o novo texto para o cabeçalho. Formatação em HTML do Telegram é aceita (<b>negrito</b>, <i>itálico</i>). O texto atual é:\n\n%s\n\nEnvie /cancelar para abortar.", current)
}

const txtHeaderBadMarkup = "O Telegram recusou a formatação do texto. Use apenas tags HTML válidas (<b>, <i>, <a href=\"...\">) e escreva < como &lt; e & como &amp;. Envie o texto novamente ou /cancelar para abortar."

func txtHeaderTextSaved(text string) string {
	return "Texto do cabeçalho atualizado para:\n" + text
}

func txtHeaderMediaSaved(kind string) string {
	switch kind {
	case "animation":
		return "GIF do cabeçalho atualizado com sucesso!"
	case "video":
		return "Vídeo do cabeçalho atualizado com sucesso!"
	default:
		return "Imagem do cabeçalho atualizada com sucesso!"
	}
}

func txtScheduleAsk(times []string, active bool) string {
	cur := "Nenhum"
	if len(times) > 0 {
		cur = strings.Join(times, ", ")
	}
	return fmt.Sprintf("Por favor, envie os horários para agendamento diário (formato HH:MM, separados por vírgula).\n"+
		"Ex: 09:00, 15:30, 21:00\n\n"+
		"Agendamentos atuais: %s\n"+
		"Status: %s\n"+
		"Envie /cancelar para abortar.", cur, activeLabel(active))
}

func txtScheduleSaved(times, invalid []string) string {
	s := fmt.Sprintf("Agendamentos configurados para os seguintes horários: %s\nAs publicações ocorrerão diariamente nestes horários.", strings.Join(times, ", "))
	if len(invalid) > 0 {
		s += fmt.Sprintf("\n\nHorário(s) inválido(s) ignorado(s): %s. Use o formato HH:MM.", strings.Join(invalid, ", "))
	}
	return s
}

func txtScheduleInvalid(invalid []string) string {
	return fmt.Sprintf("Horário(s) inválido(s) encontrado(s): %s. Por favor, use o formato HH:MM (ex: 09:00, 15:30) e tente novamente.", strings.Join(invalid, ", "))
}

func activeLabel(active bool) string {
	if active {
		return "Ativo"
	}
	return "Inativo"
}
