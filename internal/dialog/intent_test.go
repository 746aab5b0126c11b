package dialog_test

import (
	"testing"

	"github.com/avoronova/plainnews/internal/dialog"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		utterance string
		want      dialog.Intent
	}{
		{"да", dialog.IntentYes},
		{"Да, давай", dialog.IntentYes},
		{"ДА!", dialog.IntentYes},
		{"ну да, конечно", dialog.IntentYes},
		{"нет", dialog.IntentNo},
		{"Нет, спасибо", dialog.IntentNo},
		{"да нет наверное", dialog.IntentYes}, // agreement wins when both occur
		{"что-нибудь другое", dialog.IntentOther},
		{"", dialog.IntentOther},
		{"расскажи про спорт", dialog.IntentOther},
	}
	for _, c := range cases {
		if got := dialog.ClassifyIntent(c.utterance); got != c.want {
			t.Errorf("ClassifyIntent(%q) = %v, want %v", c.utterance, got, c.want)
		}
	}
}
