package dates_test

import (
	"testing"
	"time"

	"github.com/avoronova/plainnews/internal/dates"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_DayMonthWithoutYearAssumesLastOccurrence(t *testing.T) {
	ent := &dates.Entity{Month: 9, Day: 24, HasMonth: true, HasDay: true}

	// Asked in January: September 24 has not happened this year yet.
	q := dates.Resolve(ent, "", day(2025, time.January, 10))
	if q.Kind != dates.QueryDate {
		t.Fatalf("expected date query, got kind %v", q.Kind)
	}
	if !q.Day.Equal(day(2024, time.September, 24)) {
		t.Errorf("expected 2024-09-24, got %v", q.Day)
	}
	if q.Future {
		t.Error("expected Future=false")
	}

	// Asked in October: September 24 already passed this year.
	q = dates.Resolve(ent, "", day(2025, time.October, 1))
	if !q.Day.Equal(day(2025, time.September, 24)) {
		t.Errorf("expected 2025-09-24, got %v", q.Day)
	}
	if q.Future {
		t.Error("expected Future=false")
	}
}

func TestResolve_ExplicitFutureYear(t *testing.T) {
	ent := &dates.Entity{Year: 2030, Month: 1, Day: 1, HasYear: true, HasMonth: true, HasDay: true}
	q := dates.Resolve(ent, "", day(2025, time.June, 15))
	if !q.Future {
		t.Error("expected Future=true for an explicit future date")
	}
}

func TestResolve_RelativeDay(t *testing.T) {
	nows := []time.Time{
		day(2025, time.January, 1),
		day(2025, time.March, 1),
		day(2024, time.February, 29),
	}
	for _, now := range nows {
		ent := &dates.Entity{Day: -1, HasDay: true, DayIsRelative: true}
		q := dates.Resolve(ent, "", now)
		if q.Kind != dates.QueryDate {
			t.Fatalf("expected date query for yesterday at %v, got %v", now, q.Kind)
		}
		want := now.AddDate(0, 0, -1)
		if !q.Day.Equal(want) {
			t.Errorf("at %v expected %v, got %v", now, want, q.Day)
		}
		if q.Future {
			t.Error("yesterday must not be future")
		}
	}
}

func TestResolve_RelativeZeroIsToday(t *testing.T) {
	ent := &dates.Entity{Day: 0, HasDay: true, DayIsRelative: true}
	q := dates.Resolve(ent, "", day(2025, time.May, 5))
	if q.Kind != dates.QueryToday {
		t.Fatalf("expected today query, got %v", q.Kind)
	}
}

func TestResolve_RelativeTomorrowIsFuture(t *testing.T) {
	ent := &dates.Entity{Day: 1, HasDay: true, DayIsRelative: true}
	q := dates.Resolve(ent, "", day(2025, time.May, 5))
	if q.Kind != dates.QueryDate || !q.Future {
		t.Fatalf("expected future date query, got %+v", q)
	}
}

func TestResolve_NoEntityFallsBackToKeyword(t *testing.T) {
	q := dates.Resolve(nil, "расскажи новости про выборы", day(2025, time.May, 5))
	if q.Kind != dates.QueryKeyword {
		t.Fatalf("expected keyword query, got %v", q.Kind)
	}
	if q.Word != "выборы" {
		t.Errorf("expected keyword %q, got %q", "выборы", q.Word)
	}
}

func TestResolve_NoEntityNoKeywordIsToday(t *testing.T) {
	for _, utterance := range []string{"", "расскажи новости", "что там сегодня"} {
		q := dates.Resolve(nil, utterance, day(2025, time.May, 5))
		if q.Kind != dates.QueryToday {
			t.Errorf("utterance %q: expected today query, got %v", utterance, q.Kind)
		}
	}
}

func TestKeyword_LowercasesAndSkipsShortWords(t *testing.T) {
	if got := dates.Keyword("Новости про НЛО и Космонавтику"); got != "нло" {
		t.Errorf("expected %q, got %q", "нло", got)
	}
}
