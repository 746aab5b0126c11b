package content_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avoronova/plainnews/internal/content"
)

func rssDoc(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Лента</title>` + items + `</channel></rss>`
}

func rssItem(title, desc string, pub time.Time) string {
	return fmt.Sprintf(
		`<item><title>%s</title><description>%s</description><link>https://example.org/a</link><pubDate>%s</pubDate></item>`,
		title, desc, pub.Format(time.RFC1123Z))
}

func TestFeedSet_KeepsOnlyTodaysEntries(t *testing.T) {
	now := time.Date(2025, 5, 5, 15, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(
			rssItem("Свежая новость", "Текст свежей новости.", now.Add(-2*time.Hour))+
				rssItem("Вчерашняя новость", "Старый текст.", now.Add(-26*time.Hour))+
				`<item><title>Без даты</title><description>Не должна попасть.</description></item>`,
		))
	}))
	defer srv.Close()

	feeds := content.NewFeedSet([]string{srv.URL}, content.FeedConfig{
		Now: func() time.Time { return now },
	})
	articles, err := feeds.FetchToday(context.Background())
	if err != nil {
		t.Fatalf("FetchToday: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d: %+v", len(articles), articles)
	}
	if articles[0].Title != "Свежая новость" {
		t.Errorf("unexpected title: %q", articles[0].Title)
	}
	if articles[0].Kind != content.KindFull {
		t.Error("expected full article")
	}
	if articles[0].ExtraLink != "https://example.org/a" {
		t.Errorf("unexpected link: %q", articles[0].ExtraLink)
	}
}

func TestFeedSet_FailingFeedIsSkippedNotFatal(t *testing.T) {
	now := time.Date(2025, 5, 5, 15, 0, 0, 0, time.UTC)

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(rssItem("Рабочая лента", "Текст.", now.Add(-time.Hour))))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	feeds := content.NewFeedSet([]string{bad.URL, good.URL, "http://127.0.0.1:1/unreachable"}, content.FeedConfig{
		Timeout: time.Second,
		Now:     func() time.Time { return now },
	})
	articles, err := feeds.FetchToday(context.Background())
	if err != nil {
		t.Fatalf("FetchToday: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "Рабочая лента" {
		t.Fatalf("expected only the working feed's article, got %+v", articles)
	}
}

func TestFeedSet_HTMLStrippedFromBodies(t *testing.T) {
	now := time.Date(2025, 5, 5, 15, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssDoc(rssItem("Новость", "&lt;p&gt;Абзац &lt;b&gt;жирного&lt;/b&gt; текста&lt;/p&gt;", now)))
	}))
	defer srv.Close()

	feeds := content.NewFeedSet([]string{srv.URL}, content.FeedConfig{
		Now: func() time.Time { return now },
	})
	articles, err := feeds.FetchToday(context.Background())
	if err != nil {
		t.Fatalf("FetchToday: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Body != "Абзац жирного текста" {
		t.Errorf("expected tags stripped, got %q", articles[0].Body)
	}
}
