package speech_test

import (
	"strings"
	"testing"

	"github.com/avoronova/plainnews/internal/speech"
)

func TestChunk_ShortTextFits(t *testing.T) {
	head, tail := speech.Chunk("  Короткая новость.  ", 100)
	if head != "Короткая новость." {
		t.Fatalf("unexpected head: %q", head)
	}
	if tail != "" {
		t.Fatalf("expected empty tail, got %q", tail)
	}
}

func TestChunk_CutsAtLastPeriod(t *testing.T) {
	head, tail := speech.Chunk("A. B. "+strings.Repeat("x", 2000), 10)
	if head != "A. B." {
		t.Fatalf("expected cut at last period in window, got head %q", head)
	}
	if !strings.HasPrefix(tail, "xxx") {
		t.Fatalf("unexpected tail start: %q", tail[:10])
	}
}

func TestChunk_FallsBackToSpace(t *testing.T) {
	head, tail := speech.Chunk("первое второе третье", 14)
	if head != "первое второе" {
		t.Fatalf("expected cut at last space, got %q", head)
	}
	if tail != "третье" {
		t.Fatalf("unexpected tail: %q", tail)
	}
}

func TestChunk_NoBoundaryCutsAtLimit(t *testing.T) {
	head, tail := speech.Chunk(strings.Repeat("ж", 20), 8)
	if got := len([]rune(head)); got != 8 {
		t.Fatalf("expected hard cut at 8 runes, got %d (%q)", got, head)
	}
	if got := len([]rune(tail)); got != 12 {
		t.Fatalf("expected 12 runes of tail, got %d", got)
	}
}

func TestChunk_HeadNeverExceedsLimit(t *testing.T) {
	texts := []string{
		"Это довольно длинная новость. В ней несколько предложений. И ещё одно.",
		strings.Repeat("слово ", 300),
		strings.Repeat("б", 500),
		"Mixed русский and english text. With periods. And more words here",
	}
	for _, text := range texts {
		for limit := 5; limit <= 50; limit += 9 {
			rest := text
			for rest != "" {
				head, tail := speech.Chunk(rest, limit)
				if n := len([]rune(head)); n > limit {
					t.Fatalf("head %q has %d runes, limit %d", head, n, limit)
				}
				if head == "" && tail != "" {
					t.Fatalf("empty head with non-empty tail for limit %d", limit)
				}
				rest = tail
			}
		}
	}
}

func TestChunk_ReassemblyLosesNoWords(t *testing.T) {
	text := "Первое предложение о событиях дня. Второе предложение чуть длиннее первого. Третье завершает рассказ."
	var parts []string
	rest := text
	for rest != "" {
		head, tail := speech.Chunk(rest, 40)
		parts = append(parts, head)
		rest = tail
	}
	rebuilt := strings.Join(parts, " ")
	if rebuilt != text {
		t.Fatalf("reassembled text differs:\n got %q\nwant %q", rebuilt, text)
	}
}
