package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/storage"
	"github.com/your-org/presence/pkg/dto"
)

type fakeEventStore struct {
	filter storage.EventFilter
	events []models.AttendanceEvent
	total  int
}

func (f *fakeEventStore) QueryEvents(_ context.Context, filter storage.EventFilter) ([]models.AttendanceEvent, int, error) {
	f.filter = filter
	return f.events, f.total, nil
}

func newEventRouter(store *fakeEventStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/attendance/events", NewEventHandler(store).List)
	return r
}

func TestEventListReturnsAuditLog(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := &fakeEventStore{
		events: []models.AttendanceEvent{{
			ID:             uuid.New(),
			IdentityID:     uuid.New(),
			UserRef:        "u1",
			Name:           "Alice",
			Day:            "2026-03-02",
			Action:         models.ActionCheckIn,
			Confidence:     0.91,
			EvidenceKey:    "evidence/x/check_in.jpg",
			ElapsedSeconds: 0,
			Timestamp:      ts,
		}},
		total: 1,
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/events", nil)
	newEventRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp dto.EventListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Events) != 1 {
		t.Fatalf("unexpected listing: %+v", resp)
	}

	got := resp.Events[0]
	if got.UserRef != "u1" || got.Action != "check_in" || got.Day != "2026-03-02" {
		t.Errorf("event fields wrong: %+v", got)
	}
	if got.Timestamp != "2026-03-02T09:00:00Z" {
		t.Errorf("timestamp = %q", got.Timestamp)
	}
}

func TestEventListFilterParsing(t *testing.T) {
	store := &fakeEventStore{}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/v1/attendance/events?user_ref=u1&from=2026-03-01T00:00:00Z&to=2026-03-02T23:59:59Z&limit=10&offset=20", nil)
	newEventRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if store.filter.UserRef != "u1" || store.filter.Limit != 10 || store.filter.Offset != 20 {
		t.Errorf("filter = %+v", store.filter)
	}
	if store.filter.From == nil || store.filter.From.Day() != 1 {
		t.Errorf("from not parsed: %v", store.filter.From)
	}
	if store.filter.To == nil || store.filter.To.Day() != 2 {
		t.Errorf("to not parsed: %v", store.filter.To)
	}
}

func TestEventListRejectsBadTimestamp(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/events?from=yesterday", nil)
	newEventRouter(&fakeEventStore{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
