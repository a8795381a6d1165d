package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/evaluator"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/render"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/storage"
	"github.com/md-rashed-zaman/tzoverlap/services/overlap-service/internal/zoned"
)

type memStore struct {
	items map[string]storage.Participant
	order []string
}

func newMemStore() *memStore {
	return &memStore{items: map[string]storage.Participant{}}
}

func (m *memStore) Create(_ context.Context, p storage.Participant) (storage.Participant, error) {
	p.ID = "p" + string(rune('0'+len(m.order)+1))
	p.CreatedAt = time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)
	m.items[p.ID] = p
	m.order = append(m.order, p.ID)
	return p, nil
}

func (m *memStore) Get(_ context.Context, id string) (storage.Participant, error) {
	p, ok := m.items[id]
	if !ok {
		return storage.Participant{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *memStore) List(_ context.Context, limit int) ([]storage.Participant, error) {
	var out []storage.Participant
	for _, id := range m.order {
		if len(out) == limit {
			break
		}
		out = append(out, m.items[id])
	}
	return out, nil
}

func newTestHandler(store ParticipantStore) http.Handler {
	now := func() time.Time { return time.Date(2026, 7, 15, 6, 0, 0, 0, time.UTC) }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := evaluator.NewService(zoned.NewSystemOracle(now), logger)
	mux := http.NewServeMux()
	NewOverlapHandler(svc, store, logger).Register(mux)
	return mux
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) render.View {
	t.Helper()
	var v render.View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
	return v
}

func TestOverlapGet(t *testing.T) {
	h := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/overlap?tz1=Europe/Stockholm&start1=09:00&end1=17:00&tz2=America/Chicago&start2=09:00&end2=17:00", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeView(t, rec)
	if !v.HasOverlap || len(v.Sections) != 2 {
		t.Fatalf("unexpected view: %+v", v)
	}
	if got := len(v.Sections[0].Slots); got != 2 {
		t.Fatalf("expected 2 thirty-minute slots, got %d", got)
	}
	if got := len(v.Sections[1].Slots); got != 1 {
		t.Fatalf("expected 1 hour slot, got %d", got)
	}
	if v.Sections[0].Slots[0].Person1 != "16:00 - 16:30 (Stockholm)" {
		t.Fatalf("unexpected person1 %q", v.Sections[0].Slots[0].Person1)
	}
}

func TestOverlapPost(t *testing.T) {
	h := newTestHandler(nil)
	body := `{"tz1":"UTC","start1":"09:00","end1":"10:00","tz2":"UTC","start2":"11:00","end2":"12:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/overlap", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	v := decodeView(t, rec)
	if v.HasOverlap || v.Message != render.MsgNoOverlap {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestOverlapErrors(t *testing.T) {
	h := newTestHandler(nil)
	cases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"missing field", http.MethodGet, "/api/v1/overlap?tz1=UTC&start1=09:00&end1=17:00&tz2=UTC&start2=09:00", "", http.StatusBadRequest},
		{"bad clock", http.MethodGet, "/api/v1/overlap?tz1=UTC&start1=9am&end1=17:00&tz2=UTC&start2=09:00&end2=17:00", "", http.StatusBadRequest},
		{"bad zone", http.MethodGet, "/api/v1/overlap?tz1=Mars/Olympus&start1=09:00&end1=17:00&tz2=UTC&start2=09:00&end2=17:00", "", http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/api/v1/overlap", "{", http.StatusBadRequest},
		{"method", http.MethodDelete, "/api/v1/overlap", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestParticipantsDisabled(t *testing.T) {
	h := newTestHandler(nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestParticipantsFlow(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)

	create := func(body string) participantItem {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/participants", strings.NewReader(body)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var item participantItem
		if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return item
	}

	a := create(`{"name":"Anna","timezone":"Europe/Stockholm","start":"09:00","end":"17:00"}`)
	b := create(`{"name":"Bob","timezone":"America/Chicago","start":"09:00","end":"17:00"}`)
	if a.Start != "09:00" || a.End != "17:00" || a.CrossesMidnight {
		t.Fatalf("unexpected item: %+v", a)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/participants", nil))
	var list []participantItem
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 2 {
		t.Fatalf("list: err=%v len=%d", err, len(list))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/participants?id="+b.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/participants/overlap?a="+a.ID+"&b="+b.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("overlap: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if v := decodeView(t, rec); !v.HasOverlap {
		t.Fatalf("expected overlap: %+v", v)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/participants/overlap?a="+a.ID+"&b=missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateParticipantValidation(t *testing.T) {
	h := newTestHandler(newMemStore())
	cases := map[string]struct {
		body string
		want int
	}{
		"missing name": {`{"timezone":"UTC","start":"09:00","end":"17:00"}`, http.StatusBadRequest},
		"bad clock":    {`{"name":"x","timezone":"UTC","start":"25:00","end":"17:00"}`, http.StatusBadRequest},
		"bad zone":     {`{"name":"x","timezone":"Nowhere/City","start":"09:00","end":"17:00"}`, http.StatusUnprocessableEntity},
	}
	for name, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/participants", strings.NewReader(tc.body)))
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", name, tc.want, rec.Code)
		}
	}
}
