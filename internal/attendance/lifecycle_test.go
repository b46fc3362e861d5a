package attendance

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/presence/internal/models"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts
}

func TestStateOf(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		rec  *models.AttendanceRecord
		want State
	}{
		{"nil record", nil, StateUnmarked},
		{"no check-in", &models.AttendanceRecord{}, StateUnmarked},
		{"checked in", &models.AttendanceRecord{CheckIn: &now}, StateCheckedIn},
		{"checked out", &models.AttendanceRecord{CheckIn: &now, CheckOut: &now}, StateCheckedOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateOf(tt.rec); got != tt.want {
				t.Errorf("StateOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestApplyCheckIn(t *testing.T) {
	now := mustTime(t, "2026-03-02T09:00:00Z")
	rec := &models.AttendanceRecord{ID: uuid.New(), Day: DayOf(now)}

	tr, err := Apply(rec, models.ActionCheckIn, now, Evidence{Key: "k1", Confidence: 0.9})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.State != StateCheckedIn || !tr.Changed || tr.AlreadyMarked {
		t.Errorf("unexpected transition %+v", tr)
	}
	if rec.CheckIn == nil || !rec.CheckIn.Equal(now) {
		t.Errorf("check-in not recorded: %v", rec.CheckIn)
	}
	if rec.CheckInKey != "k1" || rec.CheckInConfidence != 0.9 {
		t.Errorf("evidence not recorded: %q %f", rec.CheckInKey, rec.CheckInConfidence)
	}
}

func TestApplyCheckInIdempotent(t *testing.T) {
	checkIn := mustTime(t, "2026-03-02T09:00:00Z")
	later := checkIn.Add(2 * time.Hour)
	rec := &models.AttendanceRecord{CheckIn: &checkIn, CheckInKey: "orig"}

	tr, err := Apply(rec, models.ActionCheckIn, later, Evidence{Key: "dup"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !tr.AlreadyMarked || tr.Changed {
		t.Errorf("repeat check-in should be a no-op, got %+v", tr)
	}
	if rec.CheckInKey != "orig" {
		t.Errorf("repeat check-in overwrote evidence: %q", rec.CheckInKey)
	}
	if tr.ElapsedSeconds != 7200 {
		t.Errorf("elapsed = %d, want 7200", tr.ElapsedSeconds)
	}
}

func TestApplyCheckOutBeforeCheckIn(t *testing.T) {
	rec := &models.AttendanceRecord{}
	_, err := Apply(rec, models.ActionCheckOut, time.Now(), Evidence{})
	if !errors.Is(err, ErrMustCheckInFirst) {
		t.Errorf("err = %v, want ErrMustCheckInFirst", err)
	}
	if rec.CheckOut != nil {
		t.Error("rejected check-out must not mutate the record")
	}
}

func TestApplyCheckOutElapsed(t *testing.T) {
	tests := []struct {
		name    string
		in, out string
		want    int64
	}{
		{"one hour one minute one second", "2026-03-02T09:00:00Z", "2026-03-02T10:01:01Z", 3661},
		{"standard working day", "2026-03-02T09:00:00Z", "2026-03-02T17:30:00Z", 30600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkIn := mustTime(t, tt.in)
			now := mustTime(t, tt.out)
			rec := &models.AttendanceRecord{CheckIn: &checkIn}

			tr, err := Apply(rec, models.ActionCheckOut, now, Evidence{Key: "out"})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if tr.State != StateCheckedOut || !tr.Changed {
				t.Errorf("unexpected transition %+v", tr)
			}
			if tr.ElapsedSeconds != tt.want {
				t.Errorf("elapsed = %d, want %d", tr.ElapsedSeconds, tt.want)
			}
		})
	}
}

func TestApplyCheckOutIdempotent(t *testing.T) {
	checkIn := mustTime(t, "2026-03-02T09:00:00Z")
	checkOut := mustTime(t, "2026-03-02T17:30:00Z")
	muchLater := checkOut.Add(5 * time.Hour)
	rec := &models.AttendanceRecord{CheckIn: &checkIn, CheckOut: &checkOut}

	tr, err := Apply(rec, models.ActionCheckOut, muchLater, Evidence{Key: "dup"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !tr.AlreadyMarked || tr.Changed {
		t.Errorf("repeat check-out should be a no-op, got %+v", tr)
	}
	// Elapsed is frozen at the recorded span, not recomputed from now.
	if tr.ElapsedSeconds != 30600 {
		t.Errorf("elapsed = %d, want 30600", tr.ElapsedSeconds)
	}
}

func TestElapsedSecondsLive(t *testing.T) {
	checkIn := mustTime(t, "2026-03-02T09:00:00Z")
	rec := &models.AttendanceRecord{CheckIn: &checkIn}

	got := ElapsedSeconds(rec, checkIn.Add(90*time.Minute))
	if got != 5400 {
		t.Errorf("live elapsed = %d, want 5400", got)
	}
	if ElapsedSeconds(nil, time.Now()) != 0 {
		t.Error("nil record should report zero elapsed")
	}
}

func TestDayOf(t *testing.T) {
	ts := mustTime(t, "2026-03-02T23:59:59Z")
	day := DayOf(ts)
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 {
		t.Errorf("DayOf not truncated: %v", day)
	}
	if day.Format("2006-01-02") != "2026-03-02" {
		t.Errorf("DayOf = %s, want 2026-03-02", day.Format("2006-01-02"))
	}
}
