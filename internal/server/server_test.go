package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Railwatch/internal/alert"
	"github.com/Alias1177/Railwatch/internal/feed"
	"github.com/Alias1177/Railwatch/models"
)

type fakeAsker struct {
	answer string
	err    error
}

func (a *fakeAsker) Ask(ctx context.Context, question string) (string, error) {
	return a.answer, a.err
}

func newTestServer(asker Asker) (*Server, *feed.Feed, *alert.Alerter) {
	f := feed.New(0)
	a := alert.New(nil, time.Hour, zerolog.Nop())
	if asker == nil {
		asker = &fakeAsker{answer: "fine"}
	}
	return New(f, a, asker, zerolog.Nop()), f, a
}

func seedFeed(f *feed.Feed) {
	f.LoadBatch([]models.Anomaly{
		{ID: "t1", Status: models.StatusActive, Severity: models.SeverityHigh},
		{ID: "t2", Status: models.StatusInvestigating, Severity: models.SeverityMedium},
		{ID: "t3", Status: models.StatusResolved, Severity: models.SeverityLow},
	})
}

func TestGetAnomalies(t *testing.T) {
	s, f, _ := newTestServer(nil)
	seedFeed(f)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anomalies", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var items []models.Anomaly
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(items) != 3 || items[0].ID != "t1" {
		t.Errorf("items = %+v, want 3 entries starting with t1", items)
	}
}

func TestGetAnomaliesLimit(t *testing.T) {
	s, f, _ := newTestServer(nil)
	seedFeed(f)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anomalies?limit=2", nil))

	var items []models.Anomaly
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
}

func TestGetAnomaliesEmptyFeed(t *testing.T) {
	s, _, _ := newTestServer(nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anomalies", nil))

	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestGetCounts(t *testing.T) {
	s, f, _ := newTestServer(nil)
	seedFeed(f)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/anomalies/counts", nil))

	var resp struct {
		Active        int     `json:"active"`
		Investigating int     `json:"investigating"`
		Resolved      int     `json:"resolved"`
		ResolvedToday int     `json:"resolved_today"`
		DetectionRate float64 `json:"detection_rate"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Active != 1 || resp.Investigating != 1 || resp.Resolved != 1 {
		t.Errorf("counts = %+v, want 1/1/1", resp)
	}
}

func TestAlertLifecycleOverHTTP(t *testing.T) {
	s, _, a := newTestServer(nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/alert", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status with no alert = %d, want 204", rr.Code)
	}

	a.Trigger(models.Anomaly{ID: "t9", Severity: models.SeverityHigh})

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/alert", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status with alert = %d, want 200", rr.Code)
	}
	var got models.Anomaly
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.ID != "t9" {
		t.Errorf("alert id = %q, want t9", got.ID)
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/alert/dismiss", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("dismiss status = %d, want 204", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/alert", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status after dismiss = %d, want 204", rr.Code)
	}
}

func TestChatProxy(t *testing.T) {
	s, _, _ := newTestServer(&fakeAsker{answer: "3 refunds today"})

	body := strings.NewReader(`{"question":"refunds?"}`)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Answer != "3 refunds today" {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestChatProxyErrors(t *testing.T) {
	tests := []struct {
		name   string
		asker  Asker
		method string
		body   string
		status int
	}{
		{
			name:   "assistant down",
			asker:  &fakeAsker{err: errors.New("timeout")},
			method: http.MethodPost,
			body:   `{"question":"hi"}`,
			status: http.StatusBadGateway,
		},
		{
			name:   "empty question",
			asker:  &fakeAsker{},
			method: http.MethodPost,
			body:   `{}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "wrong method",
			asker:  &fakeAsker{},
			method: http.MethodGet,
			body:   "",
			status: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestServer(tt.asker)

			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(tt.method, "/chat", strings.NewReader(tt.body)))
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
