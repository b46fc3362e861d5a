package attendance

import (
	"errors"
	"time"

	"github.com/your-org/presence/internal/models"
)

// State is the per-identity, per-day lifecycle position. The day ends
// in CHECKED_OUT; no transition reverses within a day.
type State string

const (
	StateUnmarked   State = "UNMARKED"
	StateCheckedIn  State = "CHECKED_IN"
	StateCheckedOut State = "CHECKED_OUT"
)

// ErrMustCheckInFirst rejects an out-of-order check-out. It fails the
// request, not the system.
var ErrMustCheckInFirst = errors.New("must check in before checking out")

// StateOf derives the lifecycle state from a day's record.
func StateOf(rec *models.AttendanceRecord) State {
	switch {
	case rec == nil || rec.CheckIn == nil:
		return StateUnmarked
	case rec.CheckOut == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// Evidence ties a transition to the frame that authorised it.
type Evidence struct {
	Key        string
	Confidence float32
}

// Transition is the outcome of applying an action to a day's record.
type Transition struct {
	State          State
	AlreadyMarked  bool // repeated action: state returned unchanged
	Changed        bool // record was mutated and must be persisted
	CheckIn        *time.Time
	CheckOut       *time.Time
	ElapsedSeconds int64
}

// Apply drives the state machine for one action against one day's
// record, mutating rec in place when a transition fires. Repeated
// actions are idempotent and reported via AlreadyMarked rather than
// as errors; only a check-out with no prior check-in is rejected.
func Apply(rec *models.AttendanceRecord, action models.Action, now time.Time, ev Evidence) (Transition, error) {
	state := StateOf(rec)

	switch action {
	case models.ActionCheckIn:
		if state != StateUnmarked {
			return Transition{
				State:          state,
				AlreadyMarked:  true,
				CheckIn:        rec.CheckIn,
				CheckOut:       rec.CheckOut,
				ElapsedSeconds: ElapsedSeconds(rec, now),
			}, nil
		}

		rec.CheckIn = &now
		rec.CheckInKey = ev.Key
		rec.CheckInConfidence = ev.Confidence
		return Transition{
			State:   StateCheckedIn,
			Changed: true,
			CheckIn: &now,
		}, nil

	case models.ActionCheckOut:
		switch state {
		case StateUnmarked:
			return Transition{State: state}, ErrMustCheckInFirst

		case StateCheckedOut:
			return Transition{
				State:          state,
				AlreadyMarked:  true,
				CheckIn:        rec.CheckIn,
				CheckOut:       rec.CheckOut,
				ElapsedSeconds: ElapsedSeconds(rec, now),
			}, nil
		}

		rec.CheckOut = &now
		rec.CheckOutKey = ev.Key
		rec.CheckOutConfidence = ev.Confidence
		return Transition{
			State:          StateCheckedOut,
			Changed:        true,
			CheckIn:        rec.CheckIn,
			CheckOut:       &now,
			ElapsedSeconds: int64(now.Sub(*rec.CheckIn).Seconds()),
		}, nil
	}

	return Transition{State: state}, errors.New("unknown action: " + string(action))
}

// ElapsedSeconds reports the worked duration for a record: check-out
// minus check-in once checked out, otherwise live against now.
func ElapsedSeconds(rec *models.AttendanceRecord, now time.Time) int64 {
	if rec == nil || rec.CheckIn == nil {
		return 0
	}
	if rec.CheckOut != nil {
		return int64(rec.CheckOut.Sub(*rec.CheckIn).Seconds())
	}
	return int64(now.Sub(*rec.CheckIn).Seconds())
}

// DayOf truncates a timestamp to its calendar day. The result is a
// UTC-midnight marker for the local date, suitable for a DATE column.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
