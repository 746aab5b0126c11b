// Package content resolves a date or keyword into a pool of candidate news
// articles, fetched from RSS feeds and a press channel's message history and
// cached with a TTL.
package content

import (
	"fmt"
	"strings"
	"time"
)

// ArticleKind tells whether an article carries narratable body text.
type ArticleKind int

const (
	// KindHeadline marks an article with no body text; the dialog must not
	// offer to read details for it.
	KindHeadline ArticleKind = iota
	// KindFull marks an article whose body can be narrated.
	KindFull
)

// Article is one news item. Immutable once fetched.
type Article struct {
	Title     string
	Body      string
	ExtraLink string
	Kind      ArticleKind
}

// NewArticle builds an Article, deriving Kind from the presence of body text.
func NewArticle(title, body, extraLink string) Article {
	a := Article{
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(body),
		ExtraLink: extraLink,
	}
	if a.Body != "" {
		a.Kind = KindFull
	}
	return a
}

// KeyKind selects the fetch strategy for a pool key.
type KeyKind int

const (
	// KeyToday keys the pool of articles published today (RSS).
	KeyToday KeyKind = iota
	// KeyDate keys the pool of channel posts for one calendar day.
	KeyDate
	// KeyKeyword keys the pool of recent channel posts matching a word.
	KeyKeyword
)

// Key identifies one article pool: today, a calendar date, or a keyword.
type Key struct {
	Kind KeyKind
	Day  time.Time
	Word string
}

// TodayKey returns the key for today's RSS pool.
func TodayKey() Key { return Key{Kind: KeyToday} }

// DateKey returns the key for the channel pool of the given day.
func DateKey(day time.Time) Key { return Key{Kind: KeyDate, Day: day} }

// KeywordKey returns the key for the channel pool matching word.
// The word is lower-cased so "Выборы" and "выборы" share a pool.
func KeywordKey(word string) Key {
	return Key{Kind: KeyKeyword, Word: strings.ToLower(word)}
}

// String returns the canonical cache-key form.
func (k Key) String() string {
	switch k.Kind {
	case KeyDate:
		return "d:" + k.Day.Format("2006-01-02")
	case KeyKeyword:
		return "k:" + k.Word
	default:
		return "today"
	}
}

// Describe returns a short human description for log lines.
func (k Key) Describe() string {
	switch k.Kind {
	case KeyDate:
		return fmt.Sprintf("date %s", k.Day.Format("2006-01-02"))
	case KeyKeyword:
		return fmt.Sprintf("keyword %q", k.Word)
	default:
		return "today"
	}
}
