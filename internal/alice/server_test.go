package alice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avoronova/plainnews/internal/alice"
	"github.com/avoronova/plainnews/internal/dates"
	"github.com/avoronova/plainnews/internal/dialog"
)

type fakeHandler struct {
	reply     string
	delay     time.Duration
	panicWith any

	sessionID  string
	newSession bool
	utterance  string
	ent        *dates.Entity
}

func (f *fakeHandler) HandleTurn(ctx context.Context, sessionID string, newSession bool, utterance string, ent *dates.Entity) string {
	f.sessionID = sessionID
	f.newSession = newSession
	f.utterance = utterance
	f.ent = ent
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return f.reply
}

func postTurn(t *testing.T, srv *alice.Server, body string) (*httptest.ResponseRecorder, alice.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	srv.ServeHTTP(rec, req)

	var resp alice.Response
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("undecodable response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func TestServer_Liveness(t *testing.T) {
	srv := alice.NewServer(&fakeHandler{}, alice.ServerConfig{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("GET / = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}

func TestServer_Turn(t *testing.T) {
	h := &fakeHandler{reply: "Вот новость."}
	srv := alice.NewServer(h, alice.ServerConfig{})

	rec, resp := postTurn(t, srv, `{
		"session": {"session_id": "sess-1", "new": true},
		"request": {
			"original_utterance": "что было вчера",
			"nlu": {"entities": [
				{"type": "YANDEX.FIO", "value": {"first_name": "иван"}},
				{"type": "YANDEX.DATETIME", "value": {"day": -1, "day_is_relative": true}}
			]}
		},
		"version": "1.0"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Response.Text != "Вот новость." {
		t.Errorf("text = %q", resp.Response.Text)
	}
	if resp.Response.EndSession {
		t.Error("end_session must stay false")
	}
	if resp.Version != "1.0" {
		t.Errorf("version = %q, want echo of request version", resp.Version)
	}
	if h.sessionID != "sess-1" || !h.newSession || h.utterance != "что было вчера" {
		t.Errorf("handler got session=%q new=%v utterance=%q", h.sessionID, h.newSession, h.utterance)
	}
	if h.ent == nil || !h.ent.DayIsRelative || h.ent.Day != -1 {
		t.Errorf("handler got entity %+v, want relative day -1", h.ent)
	}
}

func TestServer_TurnWithoutEntity(t *testing.T) {
	h := &fakeHandler{reply: "Привет!"}
	srv := alice.NewServer(h, alice.ServerConfig{})

	_, resp := postTurn(t, srv, `{
		"session": {"session_id": "sess-2", "new": false},
		"request": {"original_utterance": "про спорт", "nlu": {"entities": []}},
		"version": "1.0"
	}`)
	if resp.Response.Text != "Привет!" {
		t.Errorf("text = %q", resp.Response.Text)
	}
	if h.ent != nil {
		t.Errorf("expected nil entity, got %+v", h.ent)
	}
}

func TestServer_BadJSON(t *testing.T) {
	srv := alice.NewServer(&fakeHandler{}, alice.ServerConfig{})
	rec, _ := postTurn(t, srv, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServer_PanicBecomesApology(t *testing.T) {
	h := &fakeHandler{panicWith: "boom"}
	srv := alice.NewServer(h, alice.ServerConfig{})

	rec, resp := postTurn(t, srv, `{"session":{"session_id":"s"},"request":{},"version":"1.0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on panic", rec.Code)
	}
	if resp.Response.Text != dialog.PhraseApology {
		t.Errorf("text = %q, want apology", resp.Response.Text)
	}
}

func TestServer_SlowTurnBecomesApology(t *testing.T) {
	h := &fakeHandler{reply: "поздно", delay: time.Second}
	srv := alice.NewServer(h, alice.ServerConfig{TurnTimeout: 50 * time.Millisecond})

	rec, resp := postTurn(t, srv, `{"session":{"session_id":"s"},"request":{},"version":"1.0"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Response.Text != dialog.PhraseApology {
		t.Errorf("text = %q, want apology on deadline", resp.Response.Text)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := alice.NewServer(&fakeHandler{}, alice.ServerConfig{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestDateEntity_PartialDate(t *testing.T) {
	var tr alice.TurnRequest
	raw := `{"original_utterance":"про 24 сентября","nlu":{"entities":[
		{"type":"YANDEX.DATETIME","value":{"day":24,"month":9}}]}}`
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		t.Fatal(err)
	}
	ent := tr.DateEntity()
	if ent == nil {
		t.Fatal("expected an entity")
	}
	if !ent.HasDay || !ent.HasMonth || ent.HasYear {
		t.Errorf("entity = %+v, want day+month without year", ent)
	}
	if ent.Day != 24 || ent.Month != 9 {
		t.Errorf("entity = %+v", ent)
	}
}
