// Package dates interprets the platform's parsed date entity (or its absence)
// together with the raw utterance, producing the content query for a turn:
// today's news, news for a calendar date, or news matching a keyword.
package dates

import (
	"strings"
	"time"
	"unicode"
)

// Entity is the date/time entity extracted upstream by the platform's NLU.
// Fields are optional; Has* flags tell which ones were actually present.
type Entity struct {
	Year    int
	Month   int
	Day     int
	HasYear bool
	// HasMonth and HasDay report whether the platform supplied those fields.
	HasMonth bool
	HasDay   bool
	// DayIsRelative marks Day as an offset from today ("yesterday" is -1).
	DayIsRelative bool
}

// QueryKind selects the content source for a turn.
type QueryKind int

const (
	// QueryToday asks for today's news (RSS pool).
	QueryToday QueryKind = iota
	// QueryDate asks for news published on a specific calendar day.
	QueryDate
	// QueryKeyword asks for recent news mentioning a word.
	QueryKeyword
)

// Query is the resolved request for one turn.
type Query struct {
	Kind QueryKind
	// Day is the resolved calendar date (midnight, now's location) for
	// QueryDate. For the other kinds it is the zero time.
	Day time.Time
	// Word is the lower-cased search keyword for QueryKeyword.
	Word string
	// Future reports that the requested date lies after today. Callers
	// apologize instead of fetching.
	Future bool
}

// stopwords are filler words stripped before keyword extraction. An utterance
// that is nothing but these resolves to today's news.
var stopwords = map[string]struct{}{
	"новости": {}, "новость": {}, "новостей": {},
	"расскажи": {}, "расскажите": {}, "скажи": {}, "давай": {},
	"найди": {}, "поищи": {}, "покажи": {},
	"про": {}, "о": {}, "об": {}, "обо": {}, "за": {}, "по": {},
	"что": {}, "там": {}, "мне": {}, "есть": {},
	"сегодня": {}, "свежие": {}, "последние": {},
	"слово": {}, "слову": {}, "ключевому": {},
	"пожалуйста": {}, "алиса": {},
}

// Resolve turns the turn's date entity and utterance into a Query, applying
// the platform's date-entity policy:
//
//   - day_is_relative: target is today plus the day offset.
//   - day+month without a year: assume the current year, unless that lands in
//     the future, in which case assume the previous year (so "the 24th of
//     September" asked in January means last September).
//   - no usable entity: try keyword extraction from the utterance; when
//     nothing significant remains, resolve to today.
func Resolve(ent *Entity, utterance string, now time.Time) Query {
	today := midnight(now)

	if ent != nil {
		if ent.DayIsRelative {
			day := today.AddDate(0, 0, ent.Day)
			return dateQuery(day, today)
		}
		if ent.HasDay && ent.HasMonth {
			year := now.Year()
			if ent.HasYear {
				year = ent.Year
			}
			day := time.Date(year, time.Month(ent.Month), ent.Day, 0, 0, 0, 0, now.Location())
			if !ent.HasYear && day.After(today) {
				day = day.AddDate(-1, 0, 0)
			}
			return dateQuery(day, today)
		}
		// Entity without a usable day+month (e.g. bare month or time of
		// day) falls through to keyword handling.
	}

	if word := Keyword(utterance); word != "" {
		return Query{Kind: QueryKeyword, Word: word}
	}
	return Query{Kind: QueryToday}
}

// Keyword extracts a lower-cased search keyword from free text: the first
// word of at least three letters that is not a known filler word. Returns ""
// when the utterance carries no usable keyword.
func Keyword(utterance string) string {
	fields := strings.FieldsFunc(strings.ToLower(utterance), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	for _, f := range fields {
		if _, filler := stopwords[f]; filler {
			continue
		}
		if len([]rune(f)) < 3 {
			continue
		}
		return f
	}
	return ""
}

func dateQuery(day, today time.Time) Query {
	if day.Equal(today) {
		return Query{Kind: QueryToday}
	}
	return Query{Kind: QueryDate, Day: day, Future: day.After(today)}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
