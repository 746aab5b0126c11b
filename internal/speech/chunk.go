// Package speech splits long article bodies into voice-sized pieces.
//
// Voice platforms cap the length of a single spoken reply, so a long body is
// narrated across several turns: each turn speaks the head returned by Chunk
// and carries the tail into the next turn's session state.
package speech

import "strings"

// Chunk splits text into a speakable head of at most limit runes and the
// remaining tail.
//
// When the whole text fits, the head is the trimmed text and the tail is
// empty. Otherwise the cut falls at the last period inside the limit-rune
// window (the period stays in the head), or at the last space when the window
// contains no period, or at exactly limit runes when it contains neither.
// Only boundary whitespace is dropped: concatenating head and tail (with the
// trimmed separator restored) reconstructs the input, so repeated calls on
// successive tails narrate the full body without losing text.
func Chunk(text string, limit int) (head, tail string) {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if limit <= 0 || len(runes) <= limit {
		return trimmed, ""
	}

	window := runes[:limit]
	cut := lastIndex(window, '.')
	if cut < 0 {
		cut = lastIndex(window, ' ')
	}
	if cut < 0 {
		// Degenerate case: no sentence or word boundary in the window.
		cut = limit - 1
	}

	head = strings.TrimRight(string(runes[:cut+1]), " \t\n")
	tail = strings.TrimLeft(string(runes[cut+1:]), " \t\n")
	return head, tail
}

func lastIndex(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
