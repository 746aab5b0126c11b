package dialog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/avoronova/plainnews/common/trace"
	"github.com/avoronova/plainnews/internal/content"
	"github.com/avoronova/plainnews/internal/dates"
	"github.com/avoronova/plainnews/internal/session"
	"github.com/avoronova/plainnews/internal/speech"
)

// Library is what the engine needs from the content layer: draw one random
// article from the pool for a key. found=false means the pool was empty.
type Library interface {
	Draw(ctx context.Context, key content.Key) (article content.Article, found bool, err error)
}

// Config holds engine tunables. Zero values pick defaults.
type Config struct {
	// ChunkLimit is the maximum rune length of one spoken body chunk. The
	// platform caps a reply around 1024 characters; the default leaves room
	// for the trailing question.
	ChunkLimit int
	// Now is the clock used for date resolution, injectable for tests.
	Now func() time.Time
}

const defaultChunkLimit = 900

// Engine drives the dialog: one HandleTurn call per webhook turn.
type Engine struct {
	library    Library
	sessions   *session.Store[State]
	chunkLimit int
	now        func() time.Time
}

// NewEngine builds an Engine over the given content library and session
// store.
func NewEngine(library Library, sessions *session.Store[State], cfg Config) *Engine {
	if cfg.ChunkLimit <= 0 {
		cfg.ChunkLimit = defaultChunkLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		library:    library,
		sessions:   sessions,
		chunkLimit: cfg.ChunkLimit,
		now:        cfg.Now,
	}
}

// HandleTurn processes one turn and returns the spoken reply. The session's
// state is replaced only when the turn succeeds; a failed turn leaves the
// previous state so the user can simply retry.
func (e *Engine) HandleTurn(ctx context.Context, sessionID string, newSession bool, utterance string, ent *dates.Entity) string {
	sess := e.sessions.Acquire(sessionID)

	if newSession {
		// The platform restarted the conversation; stale browsing state
		// from an earlier visit must not leak into it.
		sess.Reset()
	}

	state := sess.State()
	reply, next, err := e.step(ctx, state, utterance, ent)
	if err != nil {
		sess.Abort()
		slog.Error("dialog: turn failed",
			"turn", trace.FromContext(ctx),
			"session", sessionID,
			"stage", Stage(state),
			"err", err)
		return PhraseApology
	}

	slog.Info("dialog: turn",
		"turn", trace.FromContext(ctx),
		"session", sessionID,
		"stage", Stage(next))
	sess.Release(next)
	return reply
}

// step dispatches on the current stage. It returns the reply and the next
// state; on error the caller keeps the previous state.
func (e *Engine) step(ctx context.Context, state State, utterance string, ent *dates.Entity) (string, State, error) {
	switch st := state.(type) {
	case AwaitingInput, nil:
		return e.stepAwaiting(ctx, utterance, ent)
	case OfferingDetail:
		return e.stepOfferingDetail(ctx, st, utterance)
	case ContinuingBody:
		return e.stepContinuing(st, utterance)
	case OfferingExtra:
		return e.stepOfferingExtra(ctx, st, utterance)
	case OfferingMore:
		return e.stepOfferingMore(ctx, st, utterance)
	default:
		// Unreachable while State stays sealed.
		return e.stepAwaiting(ctx, utterance, ent)
	}
}

// stepAwaiting treats every utterance as a content request: resolve the date
// or keyword and offer an article from the matching pool.
func (e *Engine) stepAwaiting(ctx context.Context, utterance string, ent *dates.Entity) (string, State, error) {
	if strings.TrimSpace(utterance) == "" && ent == nil {
		return phraseGreeting, AwaitingInput{}, nil
	}

	q := dates.Resolve(ent, utterance, e.now())
	if q.Future {
		return phraseFutureDate, AwaitingInput{}, nil
	}

	key := queryKey(q)
	article, found, err := e.library.Draw(ctx, key)
	if err != nil {
		// A broken backend reads the same as an empty pool for the user;
		// the log line keeps the difference.
		slog.Warn("dialog: fetch failed, reporting empty pool",
			"turn", trace.FromContext(ctx), "key", key.String(), "err", err)
		return phraseNoNews(key), AwaitingInput{}, nil
	}
	if !found {
		return phraseNoNews(key), AwaitingInput{}, nil
	}

	reply, next := e.offer(article, key, "")
	return reply, next, nil
}

func (e *Engine) stepOfferingDetail(ctx context.Context, st OfferingDetail, utterance string) (string, State, error) {
	switch ClassifyIntent(utterance) {
	case IntentYes:
		return e.narrate(st.Article.Body, st.Article.ExtraLink, st.Ref)
	case IntentNo:
		article, found, err := e.library.Draw(ctx, st.Ref)
		if err != nil {
			return "", nil, err
		}
		if !found {
			return phraseNoNews(st.Ref), AwaitingInput{}, nil
		}
		reply, next := e.offer(article, st.Ref, phraseAnotherIntro)
		return reply, next, nil
	default:
		return phraseSayYesOrNo, st, nil
	}
}

func (e *Engine) stepContinuing(st ContinuingBody, utterance string) (string, State, error) {
	switch ClassifyIntent(utterance) {
	case IntentYes:
		return e.narrate(st.Remaining, st.ExtraLink, st.Ref)
	case IntentNo:
		return phraseOkayAnother, OfferingMore{Ref: st.Ref}, nil
	default:
		return phraseSayYesOrNo, st, nil
	}
}

// stepOfferingExtra serves a fresh today-article as filler when the user
// wants more after finishing a linked story.
func (e *Engine) stepOfferingExtra(ctx context.Context, st OfferingExtra, utterance string) (string, State, error) {
	switch ClassifyIntent(utterance) {
	case IntentYes:
		article, found, err := e.library.Draw(ctx, content.TodayKey())
		if err != nil {
			return "", nil, err
		}
		if !found {
			return phraseNoFreshExtra + " " + phraseWantAnother, OfferingMore{Ref: st.Ref}, nil
		}
		head, _ := speech.Chunk(article.Body, e.chunkLimit)
		reply := joinSpoken(article.Title, head, phraseWantAnother)
		return reply, OfferingMore{Ref: st.Ref}, nil
	case IntentNo:
		return phraseOkayAnother, OfferingMore{Ref: st.Ref}, nil
	default:
		return phraseSayYesOrNo, st, nil
	}
}

func (e *Engine) stepOfferingMore(ctx context.Context, st OfferingMore, utterance string) (string, State, error) {
	switch ClassifyIntent(utterance) {
	case IntentYes:
		article, found, err := e.library.Draw(ctx, st.Ref)
		if err != nil {
			return "", nil, err
		}
		if !found {
			return phraseNoNews(st.Ref), AwaitingInput{}, nil
		}
		reply, next := e.offer(article, st.Ref, "")
		return reply, next, nil
	case IntentNo:
		return phraseBackToStart, AwaitingInput{}, nil
	default:
		return phraseSayYesOrNo, st, nil
	}
}

// offer reads an article's title and proposes the next step. Headline-only
// articles have nothing to narrate, so the skill goes straight to offering
// another one.
func (e *Engine) offer(article content.Article, ref content.Key, intro string) (string, State) {
	if article.Kind == content.KindHeadline {
		return joinSpoken(intro, article.Title, phraseWantAnother), OfferingMore{Ref: ref}
	}
	return joinSpoken(intro, article.Title, phraseWantDetails), OfferingDetail{Article: article, Ref: ref}
}

// narrate speaks the next chunk of a body and decides what to offer after
// it: the rest of the body, the extra link, or another article.
func (e *Engine) narrate(body, extraLink string, ref content.Key) (string, State, error) {
	head, tail := speech.Chunk(body, e.chunkLimit)
	switch {
	case tail != "":
		return joinSpoken(head, phraseContinue), ContinuingBody{Remaining: tail, ExtraLink: extraLink, Ref: ref}, nil
	case extraLink != "":
		return joinSpoken(head, phraseWantExtra), OfferingExtra{ExtraLink: extraLink, Ref: ref}, nil
	default:
		return joinSpoken(head, phraseWantAnother), OfferingMore{Ref: ref}, nil
	}
}

func queryKey(q dates.Query) content.Key {
	switch q.Kind {
	case dates.QueryDate:
		return content.DateKey(q.Day)
	case dates.QueryKeyword:
		return content.KeywordKey(q.Word)
	default:
		return content.TodayKey()
	}
}

// joinSpoken glues phrase fragments with single spaces, skipping empties.
func joinSpoken(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
