// Package alice implements the Yandex Dialogs webhook surface: the JSON
// envelope and the HTTP server that feeds turns into the dialog engine.
package alice

import (
	"encoding/json"

	"github.com/avoronova/plainnews/internal/dates"
)

// EntityDateTime is the NLU entity type carrying a parsed date.
const EntityDateTime = "YANDEX.DATETIME"

// Request is the webhook request envelope.
type Request struct {
	Session Session     `json:"session"`
	Request TurnRequest `json:"request"`
	Version string      `json:"version"`
}

// Session identifies the conversation this turn belongs to.
type Session struct {
	SessionID string `json:"session_id"`
	New       bool   `json:"new"`
}

// TurnRequest carries what the user said this turn.
type TurnRequest struct {
	OriginalUtterance string `json:"original_utterance"`
	NLU               NLU    `json:"nlu"`
}

// NLU holds the platform's entity extraction results.
type NLU struct {
	Entities []Entity `json:"entities"`
}

// Entity is one extracted entity. Value stays raw because its shape depends
// on Type.
type Entity struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Response is the webhook response envelope.
type Response struct {
	Response Reply  `json:"response"`
	Version  string `json:"version"`
}

// Reply is the spoken part of the response. EndSession stays false: the
// skill has no terminal turn.
type Reply struct {
	Text       string `json:"text"`
	EndSession bool   `json:"end_session"`
}

// dateTimeValue mirrors the YANDEX.DATETIME value object. Fields are
// pointers so "absent" and "zero" stay distinguishable.
type dateTimeValue struct {
	Year          *int `json:"year"`
	Month         *int `json:"month"`
	Day           *int `json:"day"`
	DayIsRelative bool `json:"day_is_relative"`
}

// DateEntity extracts the first usable date entity of the turn, or nil when
// the platform found none. Entities of other types and undecodable values
// are ignored.
func (r *TurnRequest) DateEntity() *dates.Entity {
	for _, e := range r.NLU.Entities {
		if e.Type != EntityDateTime {
			continue
		}
		var v dateTimeValue
		if err := json.Unmarshal(e.Value, &v); err != nil {
			continue
		}
		ent := &dates.Entity{DayIsRelative: v.DayIsRelative}
		if v.Year != nil {
			ent.Year, ent.HasYear = *v.Year, true
		}
		if v.Month != nil {
			ent.Month, ent.HasMonth = *v.Month, true
		}
		if v.Day != nil {
			ent.Day, ent.HasDay = *v.Day, true
		}
		if !ent.HasYear && !ent.HasMonth && !ent.HasDay {
			continue
		}
		return ent
	}
	return nil
}
