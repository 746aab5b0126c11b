package dialog

import "strings"

// Intent is the yes/no classification of one utterance.
type Intent int

const (
	// IntentOther covers everything that is neither agreement nor refusal.
	IntentOther Intent = iota
	// IntentYes is agreement ("да, давай", "да").
	IntentYes
	// IntentNo is refusal ("нет, спасибо").
	IntentNo
)

// ClassifyIntent decides whether an utterance agrees or refuses. The check
// is a case-insensitive substring match, agreement first, so "да нет" counts
// as yes — matching how the skill has always behaved. Keeping this separate
// from the state machine lets the wording evolve without touching
// transitions.
func ClassifyIntent(utterance string) Intent {
	u := strings.ToLower(utterance)
	if strings.Contains(u, "да") {
		return IntentYes
	}
	if strings.Contains(u, "нет") {
		return IntentNo
	}
	return IntentOther
}
