// Package dialog implements the per-session state machine of the skill:
// given the current stage, the turn's utterance, and the cached article, it
// decides what to say and which stage to move to.
package dialog

import "github.com/avoronova/plainnews/internal/content"

// State is the dialog stage of one session. It is a closed sum type: each
// variant carries exactly the fields its stage needs, so illegal
// stage/field combinations cannot be represented.
type State interface {
	stage() string
}

// AwaitingInput is the initial stage: the skill waits for a date or keyword
// request. Every utterance here is a request, not a yes/no answer.
type AwaitingInput struct{}

// OfferingDetail means a title has been read and the skill asked whether to
// narrate the body.
type OfferingDetail struct {
	Article content.Article
	// Ref is the pool key the article came from; "give me another" draws
	// from the same pool.
	Ref content.Key
}

// ContinuingBody means the body is being narrated across turns.
type ContinuingBody struct {
	Remaining string
	ExtraLink string
	Ref       content.Key
}

// OfferingExtra means the body has been read and the article has a link with
// more material; the skill offered a fresh extra.
type OfferingExtra struct {
	ExtraLink string
	Ref       content.Key
}

// OfferingMore means the current article is finished and the skill asked
// whether to pick another from the same pool.
type OfferingMore struct {
	Ref content.Key
}

func (AwaitingInput) stage() string  { return "awaiting_input" }
func (OfferingDetail) stage() string { return "offering_detail" }
func (ContinuingBody) stage() string { return "continuing_body" }
func (OfferingExtra) stage() string  { return "offering_extra" }
func (OfferingMore) stage() string   { return "offering_more" }

// Stage names the state for log lines.
func Stage(s State) string {
	if s == nil {
		return "awaiting_input"
	}
	return s.stage()
}
