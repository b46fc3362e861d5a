package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/presence/internal/models"
)

// SummaryEntry is one identity's position on the summarised day.
type SummaryEntry struct {
	Identity       models.Identity `json:"identity"`
	State          State           `json:"state"`
	CheckIn        *time.Time      `json:"check_in,omitempty"`
	CheckOut       *time.Time      `json:"check_out,omitempty"`
	ElapsedSeconds int64           `json:"elapsed_seconds"`
}

// Summary aggregates one day across every active identity.
type Summary struct {
	Day        string         `json:"day"`
	Total      int            `json:"total"`
	CheckedIn  int            `json:"checked_in"`
	CheckedOut int            `json:"checked_out"`
	Unmarked   int            `json:"unmarked"`
	Entries    []SummaryEntry `json:"entries"`
}

// Summarize builds the per-day roll-up. Identities with no record for
// the day are reported as UNMARKED rather than omitted.
func (s *Service) Summarize(ctx context.Context, day time.Time) (*Summary, error) {
	day = DayOf(day)

	identities, err := s.store.ActiveIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	records, err := s.store.RecordsForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	byIdentity := make(map[string]*models.AttendanceRecord, len(records))
	for i := range records {
		byIdentity[records[i].IdentityID.String()] = &records[i]
	}

	now := s.now()
	summary := &Summary{
		Day:     day.Format("2006-01-02"),
		Total:   len(identities),
		Entries: make([]SummaryEntry, 0, len(identities)),
	}

	for _, identity := range identities {
		rec := byIdentity[identity.ID.String()]
		entry := SummaryEntry{
			Identity: identity,
			State:    StateOf(rec),
		}
		if rec != nil {
			entry.CheckIn = rec.CheckIn
			entry.CheckOut = rec.CheckOut
			entry.ElapsedSeconds = ElapsedSeconds(rec, now)
		}

		switch entry.State {
		case StateCheckedIn:
			summary.CheckedIn++
		case StateCheckedOut:
			summary.CheckedOut++
		default:
			summary.Unmarked++
		}
		summary.Entries = append(summary.Entries, entry)
	}

	return summary, nil
}
