package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/presence/internal/config"
	"github.com/your-org/presence/internal/models"
	"github.com/your-org/presence/internal/observability"
	"github.com/your-org/presence/internal/vision"
)

// Store is the persistence surface the service needs. Lookup methods
// return (nil, nil) when the row does not exist.
type Store interface {
	IdentityByRef(ctx context.Context, userRef string) (*models.Identity, error)
	ActiveIdentities(ctx context.Context) ([]models.Identity, error)
	CreateIdentity(ctx context.Context, id *models.Identity) error
	UpdateIdentity(ctx context.Context, id *models.Identity) error

	SamplesByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.FaceSample, error)
	AddSample(ctx context.Context, sample *models.FaceSample) error

	RecordFor(ctx context.Context, identityID uuid.UUID, day time.Time) (*models.AttendanceRecord, error)
	RecordsForDay(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error)
	// CreateRecord inserts a new day record. It reports false without
	// error when a concurrent writer created the row first.
	CreateRecord(ctx context.Context, rec *models.AttendanceRecord) (bool, error)
	UpdateRecord(ctx context.Context, rec *models.AttendanceRecord) error
}

// EvidenceStore holds captured frames keyed by object name.
type EvidenceStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Publisher fans attendance events out to downstream consumers.
type Publisher interface {
	PublishAttendance(ctx context.Context, ev models.AttendanceEvent) error
}

// Extractor turns a raw frame into a face signature.
type Extractor interface {
	ExtractSignature(imageData []byte) (*vision.Capture, error)
}

// Service implements registration, verification and attendance marking
// on top of the signature pipeline and the persistence interfaces.
type Service struct {
	store     Store
	evidence  EvidenceStore
	publisher Publisher
	extractor Extractor

	weights   vision.FusionWeights
	tolerance float64
	training  config.TrainingConfig

	now func() time.Time
}

func NewService(store Store, evidence EvidenceStore, publisher Publisher, extractor Extractor, tolerance float64, training config.TrainingConfig) *Service {
	return &Service{
		store:     store,
		evidence:  evidence,
		publisher: publisher,
		extractor: extractor,
		weights:   vision.DefaultFusionWeights,
		tolerance: tolerance,
		training:  training,
		now:       time.Now,
	}
}

type RegisterRequest struct {
	UserRef  string
	Name     string
	Email    string
	Image    []byte
	AsSample bool
}

const (
	RegisterCreated     = "created"
	RegisterUpdated     = "updated"
	RegisterSampleAdded = "sample_added"
)

type RegisterResult struct {
	Identity    *models.Identity
	Status      string
	SampleCount int
	Quality     float32
}

// Register enrolls a face for a user. A repeat registration replaces
// the primary signature; with AsSample set the capture is appended to
// the identity's training set instead.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	capture, err := s.extractor.ExtractSignature(req.Image)
	if err != nil {
		observability.Registrations.WithLabelValues("rejected").Inc()
		return nil, err
	}

	existing, err := s.store.IdentityByRef(ctx, req.UserRef)
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}

	if req.AsSample {
		return s.registerSample(ctx, existing, capture)
	}

	if existing != nil {
		existing.Signature = capture.Signature
		if req.Name != "" {
			existing.Name = req.Name
		}
		if req.Email != "" {
			existing.Email = req.Email
		}
		if err := s.store.UpdateIdentity(ctx, existing); err != nil {
			return nil, fmt.Errorf("update identity: %w", err)
		}
		observability.Registrations.WithLabelValues("updated").Inc()
		return &RegisterResult{
			Identity: existing,
			Status:   RegisterUpdated,
			Quality:  capture.Quality,
		}, nil
	}

	identity := &models.Identity{
		ID:        uuid.New(),
		UserRef:   req.UserRef,
		Name:      req.Name,
		Email:     req.Email,
		Signature: capture.Signature,
		Active:    true,
	}
	if err := s.store.CreateIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	observability.Registrations.WithLabelValues("created").Inc()
	return &RegisterResult{
		Identity: identity,
		Status:   RegisterCreated,
		Quality:  capture.Quality,
	}, nil
}

func (s *Service) registerSample(ctx context.Context, identity *models.Identity, capture *vision.Capture) (*RegisterResult, error) {
	if identity == nil {
		return nil, ErrIdentityNotFound
	}

	samples, err := s.store.SamplesByIdentity(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	if len(samples) >= s.training.MaxSamples {
		return nil, ErrSampleLimit
	}

	sample := &models.FaceSample{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		Signature:  capture.Signature,
		Quality:    capture.Quality,
		SourceKey:  s.storeSnapshot(ctx, identity.ID, "sample", capture.Snapshot),
		CapturedAt: s.now(),
	}
	if err := s.store.AddSample(ctx, sample); err != nil {
		return nil, fmt.Errorf("add sample: %w", err)
	}

	observability.Registrations.WithLabelValues("sample").Inc()
	return &RegisterResult{
		Identity:    identity,
		Status:      RegisterSampleAdded,
		SampleCount: len(samples) + 1,
		Quality:     capture.Quality,
	}, nil
}

type VerifyResult struct {
	Identity   *models.Identity
	Confidence float64
	Best       float64
	Capture    *vision.Capture
}

// Verify matches a frame against every active identity. Each identity
// is scored against its primary signature plus all training samples;
// the winner is the identity with the highest fused confidence, and
// the winner's best single-sample score decides whether the match
// clears the gate at all.
func (s *Service) Verify(ctx context.Context, image []byte) (*VerifyResult, error) {
	capture, err := s.extractor.ExtractSignature(image)
	if err != nil {
		observability.Verifications.WithLabelValues("rejected").Inc()
		return nil, err
	}

	identities, err := s.store.ActiveIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	if len(identities) == 0 {
		return nil, ErrNoEnrolledIdentities
	}

	var (
		winner      *models.Identity
		winnerScore vision.MultiScore
		winnerCount int
	)
	for i := range identities {
		identity := &identities[i]

		samples, err := s.store.SamplesByIdentity(ctx, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("list samples: %w", err)
		}

		known := make([][]float32, 0, len(samples)+1)
		known = append(known, identity.Signature)
		for _, sample := range samples {
			known = append(known, sample.Signature)
		}

		ms := vision.ScoreMulti(known, capture.Signature, s.weights, s.tolerance)
		if winner == nil || ms.Confidence > winnerScore.Confidence {
			winner = identity
			winnerScore = ms
			winnerCount = len(samples)
		}
	}

	if !winnerScore.Matched {
		observability.Verifications.WithLabelValues("no_match").Inc()
		return nil, &NoMatchError{Confidence: winnerScore.Confidence}
	}

	observability.Verifications.WithLabelValues("matched").Inc()
	observability.MatchConfidence.Observe(winnerScore.Confidence)

	s.maybeTrain(ctx, winner, capture, winnerScore.Confidence, winnerCount)

	return &VerifyResult{
		Identity:   winner,
		Confidence: winnerScore.Confidence,
		Best:       winnerScore.Best,
		Capture:    capture,
	}, nil
}

// maybeTrain appends the capture to the winner's sample set when the
// match was confident and the frame sharp enough. Failures are logged
// and swallowed; training never fails a verification.
func (s *Service) maybeTrain(ctx context.Context, identity *models.Identity, capture *vision.Capture, confidence float64, sampleCount int) {
	if !s.training.Enabled {
		return
	}
	if confidence <= s.training.MinConfidence ||
		float64(capture.Quality) <= s.training.MinQuality ||
		sampleCount >= s.training.MaxSamples {
		return
	}

	sample := &models.FaceSample{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		Signature:  capture.Signature,
		Quality:    capture.Quality,
		SourceKey:  s.storeSnapshot(ctx, identity.ID, "auto", capture.Snapshot),
		CapturedAt: s.now(),
	}
	if err := s.store.AddSample(ctx, sample); err != nil {
		slog.Warn("auto-train sample not stored",
			"identity_id", identity.ID, "error", err)
		return
	}

	observability.TrainingSamplesAdded.Inc()
	slog.Debug("auto-train sample added",
		"identity_id", identity.ID,
		"confidence", confidence,
		"quality", capture.Quality,
		"samples", sampleCount+1)
}

// storeSnapshot uploads a face crop and returns its key, or an empty
// key when the upload fails. Snapshot storage is advisory.
func (s *Service) storeSnapshot(ctx context.Context, identityID uuid.UUID, kind string, snapshot []byte) string {
	if len(snapshot) == 0 {
		return ""
	}
	key := fmt.Sprintf("faces/%s/%s_%s.jpg", identityID, kind, s.now().UTC().Format("20060102T150405.000"))
	if err := s.evidence.Put(ctx, key, snapshot, "image/jpeg"); err != nil {
		slog.Warn("snapshot not stored", "key", key, "error", err)
		return ""
	}
	return key
}

type MarkRequest struct {
	UserRef string // optional claimed identity; enforced when set
	Action  models.Action
	Image   []byte
}

type MarkResult struct {
	Identity       *models.Identity
	Day            string
	Action         models.Action
	State          State
	AlreadyMarked  bool
	CheckIn        *time.Time
	CheckOut       *time.Time
	ElapsedSeconds int64
	Confidence     float64
	EvidenceKey    string
}

// Mark verifies the frame, then applies the requested transition to
// the matched identity's record for today. Evidence is uploaded only
// when the transition fires, and before the record write, so repeats
// and rejections leave no orphan objects and a failed upload leaves
// the day untouched.
func (s *Service) Mark(ctx context.Context, req MarkRequest) (*MarkResult, error) {
	if !req.Action.Valid() {
		return nil, ErrInvalidAction
	}

	vr, err := s.Verify(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	if req.UserRef != "" && vr.Identity.UserRef != req.UserRef {
		observability.AttendanceTransitions.WithLabelValues(string(req.Action), "mismatch").Inc()
		return nil, ErrIdentityMismatch
	}

	now := s.now()
	day := DayOf(now)

	rec, err := s.store.RecordFor(ctx, vr.Identity.ID, day)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	isNew := rec == nil
	if isNew {
		rec = &models.AttendanceRecord{
			ID:         uuid.New(),
			IdentityID: vr.Identity.ID,
			Day:        day,
		}
	}

	key := fmt.Sprintf("evidence/%s/%s_%s.jpg",
		vr.Identity.ID, req.Action, now.UTC().Format("20060102T150405.000"))
	ev := Evidence{Key: key, Confidence: float32(vr.Confidence)}
	tr, err := Apply(rec, req.Action, now, ev)
	if err != nil {
		observability.AttendanceTransitions.WithLabelValues(string(req.Action), "rejected").Inc()
		return nil, err
	}

	if tr.Changed {
		if err := s.evidence.Put(ctx, key, vr.Capture.Snapshot, "image/jpeg"); err != nil {
			return nil, fmt.Errorf("store evidence: %w", err)
		}
		if isNew {
			created, err := s.store.CreateRecord(ctx, rec)
			if err != nil {
				return nil, fmt.Errorf("create record: %w", err)
			}
			if !created {
				// Lost the insert race; replay against the winner's row.
				tr, rec, err = s.replay(ctx, vr.Identity.ID, day, req.Action, now, ev)
				if err != nil {
					return nil, err
				}
			}
		} else {
			if err := s.store.UpdateRecord(ctx, rec); err != nil {
				return nil, fmt.Errorf("update record: %w", err)
			}
		}
	}

	result := "marked"
	if tr.AlreadyMarked {
		result = "duplicate"
	}
	observability.AttendanceTransitions.WithLabelValues(string(req.Action), result).Inc()

	evidenceKey := key
	if tr.AlreadyMarked {
		// Nothing was uploaded for a repeat; report the original frame.
		if req.Action == models.ActionCheckIn {
			evidenceKey = rec.CheckInKey
		} else {
			evidenceKey = rec.CheckOutKey
		}
	}

	if tr.Changed {
		s.publish(ctx, vr.Identity, day, req.Action, vr.Confidence, key, tr.ElapsedSeconds)
	}

	return &MarkResult{
		Identity:       vr.Identity,
		Day:            day.Format("2006-01-02"),
		Action:         req.Action,
		State:          tr.State,
		AlreadyMarked:  tr.AlreadyMarked,
		CheckIn:        tr.CheckIn,
		CheckOut:       tr.CheckOut,
		ElapsedSeconds: tr.ElapsedSeconds,
		Confidence:     vr.Confidence,
		EvidenceKey:    evidenceKey,
	}, nil
}

// replay re-reads the day's record after a lost insert race and
// applies the action against what the concurrent writer left behind.
func (s *Service) replay(ctx context.Context, identityID uuid.UUID, day time.Time, action models.Action, now time.Time, ev Evidence) (Transition, *models.AttendanceRecord, error) {
	rec, err := s.store.RecordFor(ctx, identityID, day)
	if err != nil {
		return Transition{}, nil, fmt.Errorf("reload record: %w", err)
	}
	if rec == nil {
		return Transition{}, nil, fmt.Errorf("record vanished after insert conflict")
	}

	tr, err := Apply(rec, action, now, ev)
	if err != nil {
		return Transition{}, nil, err
	}
	if tr.Changed {
		if err := s.store.UpdateRecord(ctx, rec); err != nil {
			return Transition{}, nil, fmt.Errorf("update record: %w", err)
		}
	}
	return tr, rec, nil
}

func (s *Service) publish(ctx context.Context, identity *models.Identity, day time.Time, action models.Action, confidence float64, evidenceKey string, elapsed int64) {
	ev := models.AttendanceEvent{
		ID:             uuid.New(),
		IdentityID:     identity.ID,
		UserRef:        identity.UserRef,
		Name:           identity.Name,
		Day:            day.Format("2006-01-02"),
		Action:         action,
		Confidence:     float32(confidence),
		EvidenceKey:    evidenceKey,
		ElapsedSeconds: elapsed,
		Timestamp:      s.now(),
	}
	if err := s.publisher.PublishAttendance(ctx, ev); err != nil {
		slog.Warn("attendance event not published",
			"identity_id", identity.ID, "action", action, "error", err)
	}
}

type StatusResult struct {
	Identity       *models.Identity
	Day            string
	State          State
	CheckIn        *time.Time
	CheckOut       *time.Time
	ElapsedSeconds int64
}

// Status reports the lifecycle position of one user for today.
// Elapsed time keeps counting while the user is checked in.
func (s *Service) Status(ctx context.Context, userRef string) (*StatusResult, error) {
	identity, err := s.store.IdentityByRef(ctx, userRef)
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if identity == nil {
		return nil, ErrIdentityNotFound
	}

	now := s.now()
	day := DayOf(now)
	rec, err := s.store.RecordFor(ctx, identity.ID, day)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	result := &StatusResult{
		Identity: identity,
		Day:      day.Format("2006-01-02"),
		State:    StateOf(rec),
	}
	if rec != nil {
		result.CheckIn = rec.CheckIn
		result.CheckOut = rec.CheckOut
		result.ElapsedSeconds = ElapsedSeconds(rec, now)
	}
	return result, nil
}
