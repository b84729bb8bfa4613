package promo

import (
	"fmt"
	"strconv"

	"promobot/pkg/tgui"
)

// Namespace prefixes every inline button this package creates.
const Namespace = "promo"

type ActionKind string

const (
	ActChannels    ActionKind = "channels"
	ActHeader      ActionKind = "header"
	ActSchedule    ActionKind = "schedule"
	ActPause       ActionKind = "pause"
	ActResume      ActionKind = "resume"
	ActSendNow     ActionKind = "sendnow"
	ActRemove      ActionKind = "remove"       // payload: page index, optional
	ActHeaderText  ActionKind = "header_text"
	ActHeaderMedia ActionKind = "header_media"
	ActHeaderClear ActionKind = "header_clear"
	ActRemoveChat  ActionKind = "remove_chat" // payload: chat id
)

// Action is a parsed inline button.
type Action struct {
	Kind   ActionKind
	ChatID int64
	Page   int
}

// ParseAction validates the action and payload of a promo button.
func ParseAction(action, payload string) (Action, error) {
	a := Action{Kind: ActionKind(action)}
	switch a.Kind {
	case ActChannels, ActHeader, ActSchedule, ActPause, ActResume, ActSendNow,
		ActHeaderText, ActHeaderMedia, ActHeaderClear:
		return a, nil
	case ActRemove:
		if payload == "" {
			return a, nil
		}
		n, err := strconv.Atoi(payload)
		if err != nil || n < 0 {
			return Action{}, fmt.Errorf("bad page %q", payload)
		}
		a.Page = n
		return a, nil
	case ActRemoveChat:
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil || id == 0 {
			return Action{}, fmt.Errorf("bad chat id %q", payload)
		}
		a.ChatID = id
		return a, nil
	}
	return Action{}, fmt.Errorf("unknown action %q", action)
}

// Data renders the callback data for a.
func (a Action) Data() string {
	switch a.Kind {
	case ActRemoveChat:
		return tgui.Data(Namespace, string(a.Kind), strconv.FormatInt(a.ChatID, 10))
	case ActRemove:
		if a.Page > 0 {
			return tgui.Data(Namespace, string(a.Kind), strconv.Itoa(a.Page))
		}
	}
	return tgui.Data(Namespace, string(a.Kind), "")
}
