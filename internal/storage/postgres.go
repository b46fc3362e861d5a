package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/your-org/presence/internal/config"
	"github.com/your-org/presence/internal/models"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema applies the embedded schema. Every statement is
// idempotent, so running it at startup is safe.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// --- Identities ---

func (s *PostgresStore) CreateIdentity(ctx context.Context, id *models.Identity) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO identities (id, user_ref, name, email, signature, active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
		id.ID, id.UserRef, id.Name, id.Email, pgvector.NewVector(id.Signature), id.Active,
	).Scan(&id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateIdentity(ctx context.Context, id *models.Identity) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE identities
		 SET name = $2, email = $3, signature = $4, active = $5, updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		id.ID, id.Name, id.Email, pgvector.NewVector(id.Signature), id.Active,
	).Scan(&id.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("identity not found")
		}
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) IdentityByRef(ctx context.Context, userRef string) (*models.Identity, error) {
	return s.identityBy(ctx, `WHERE user_ref = $1`, userRef)
}

func (s *PostgresStore) IdentityByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	return s.identityBy(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) identityBy(ctx context.Context, where string, arg interface{}) (*models.Identity, error) {
	id := &models.Identity{}
	var sig pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_ref, name, email, signature, active, created_at, updated_at
		 FROM identities `+where, arg,
	).Scan(&id.ID, &id.UserRef, &id.Name, &id.Email, &sig, &id.Active, &id.CreatedAt, &id.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	id.Signature = sig.Slice()
	return id, nil
}

// ActiveIdentities returns enrollment candidates in enrollment order,
// signatures included. Matching iterates this slice, so the order
// doubles as the tie-break for equal confidences.
func (s *PostgresStore) ActiveIdentities(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_ref, name, email, signature, active, created_at, updated_at
		 FROM identities WHERE active ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active identities: %w", err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var id models.Identity
		var sig pgvector.Vector
		if err := rows.Scan(&id.ID, &id.UserRef, &id.Name, &id.Email, &sig,
			&id.Active, &id.CreatedAt, &id.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		id.Signature = sig.Slice()
		identities = append(identities, id)
	}
	return identities, nil
}

// ListIdentities returns every identity without signatures, for the
// admin surface.
func (s *PostgresStore) ListIdentities(ctx context.Context) ([]models.Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_ref, name, email, active, created_at, updated_at
		 FROM identities ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var identities []models.Identity
	for rows.Next() {
		var id models.Identity
		if err := rows.Scan(&id.ID, &id.UserRef, &id.Name, &id.Email,
			&id.Active, &id.CreatedAt, &id.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, id)
	}
	return identities, nil
}

// DeleteIdentity removes an identity; samples and records go with it
// via ON DELETE CASCADE.
func (s *PostgresStore) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("identity not found")
	}
	return nil
}

// --- Face samples ---

func (s *PostgresStore) AddSample(ctx context.Context, sample *models.FaceSample) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO face_samples (id, identity_id, signature, quality, source_key, captured_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sample.ID, sample.IdentityID, pgvector.NewVector(sample.Signature),
		sample.Quality, sample.SourceKey, sample.CapturedAt)
	if err != nil {
		return fmt.Errorf("add sample: %w", err)
	}
	return nil
}

func (s *PostgresStore) SamplesByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.FaceSample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, identity_id, signature, quality, source_key, captured_at
		 FROM face_samples WHERE identity_id = $1 ORDER BY captured_at ASC`,
		identityID)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var samples []models.FaceSample
	for rows.Next() {
		var sm models.FaceSample
		var sig pgvector.Vector
		if err := rows.Scan(&sm.ID, &sm.IdentityID, &sig, &sm.Quality,
			&sm.SourceKey, &sm.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.Signature = sig.Slice()
		samples = append(samples, sm)
	}
	return samples, nil
}

func (s *PostgresStore) DeleteSample(ctx context.Context, identityID, sampleID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM face_samples WHERE id = $1 AND identity_id = $2`, sampleID, identityID)
	if err != nil {
		return fmt.Errorf("delete sample: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sample not found")
	}
	return nil
}

// --- Attendance records ---

func (s *PostgresStore) RecordFor(ctx context.Context, identityID uuid.UUID, day time.Time) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, identity_id, day, check_in, check_in_key, check_in_confidence,
		        check_out, check_out_key, check_out_confidence, created_at, updated_at
		 FROM attendance_records WHERE identity_id = $1 AND day = $2`,
		identityID, day,
	).Scan(&rec.ID, &rec.IdentityID, &rec.Day,
		&rec.CheckIn, &rec.CheckInKey, &rec.CheckInConfidence,
		&rec.CheckOut, &rec.CheckOutKey, &rec.CheckOutConfidence,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) RecordByID(ctx context.Context, id uuid.UUID) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, identity_id, day, check_in, check_in_key, check_in_confidence,
		        check_out, check_out_key, check_out_confidence, created_at, updated_at
		 FROM attendance_records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.IdentityID, &rec.Day,
		&rec.CheckIn, &rec.CheckInKey, &rec.CheckInConfidence,
		&rec.CheckOut, &rec.CheckOutKey, &rec.CheckOutConfidence,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) RecordsForDay(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, identity_id, day, check_in, check_in_key, check_in_confidence,
		        check_out, check_out_key, check_out_confidence, created_at, updated_at
		 FROM attendance_records WHERE day = $1`, day)
	if err != nil {
		return nil, fmt.Errorf("list records for day: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CreateRecord inserts a day record; the (identity, day) unique
// constraint makes concurrent first-marks race safely. Reports false
// when another writer already owns the row.
func (s *PostgresStore) CreateRecord(ctx context.Context, rec *models.AttendanceRecord) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attendance_records
		   (id, identity_id, day, check_in, check_in_key, check_in_confidence,
		    check_out, check_out_key, check_out_confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (identity_id, day) DO NOTHING`,
		rec.ID, rec.IdentityID, rec.Day,
		rec.CheckIn, rec.CheckInKey, rec.CheckInConfidence,
		rec.CheckOut, rec.CheckOutKey, rec.CheckOutConfidence)
	if err != nil {
		return false, fmt.Errorf("create record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, rec *models.AttendanceRecord) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE attendance_records
		 SET check_in = $2, check_in_key = $3, check_in_confidence = $4,
		     check_out = $5, check_out_key = $6, check_out_confidence = $7,
		     updated_at = now()
		 WHERE id = $1 RETURNING updated_at`,
		rec.ID, rec.CheckIn, rec.CheckInKey, rec.CheckInConfidence,
		rec.CheckOut, rec.CheckOutKey, rec.CheckOutConfidence,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("record not found")
		}
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// RecordFilter narrows the admin listing. Zero values mean "no filter".
type RecordFilter struct {
	UserRef string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// QueryRecords lists records newest-day-first with a total count for
// pagination.
func (s *PostgresStore) QueryRecords(ctx context.Context, f RecordFilter) ([]models.AttendanceRecord, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}

	baseWhere := "WHERE true"
	args := []interface{}{}
	argIdx := 1

	if f.UserRef != "" {
		baseWhere += fmt.Sprintf(" AND r.identity_id IN (SELECT id FROM identities WHERE user_ref = $%d)", argIdx)
		args = append(args, f.UserRef)
		argIdx++
	}
	if f.From != nil {
		baseWhere += fmt.Sprintf(" AND r.day >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		baseWhere += fmt.Sprintf(" AND r.day <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM attendance_records r " + baseWhere
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT r.id, r.identity_id, r.day, r.check_in, r.check_in_key, r.check_in_confidence,
		        r.check_out, r.check_out_key, r.check_out_confidence, r.created_at, r.updated_at
		 FROM attendance_records r %s ORDER BY r.day DESC, r.created_at DESC LIMIT $%d OFFSET $%d`,
		baseWhere, argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SetRecordTimes overwrites check-in/check-out on the named records.
// A nil time leaves the column untouched; rows where the correction
// would put check-out before check-in are skipped. Returns the number
// of rows actually changed.
func (s *PostgresStore) SetRecordTimes(ctx context.Context, ids []uuid.UUID, checkIn, checkOut *time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE attendance_records
		 SET check_in = COALESCE($2, check_in),
		     check_out = COALESCE($3, check_out),
		     updated_at = now()
		 WHERE id = ANY($1)
		   AND (COALESCE($3, check_out) IS NULL
		        OR COALESCE($2, check_in) IS NULL
		        OR COALESCE($3, check_out) >= COALESCE($2, check_in))`,
		ids, checkIn, checkOut)
	if err != nil {
		return 0, fmt.Errorf("set record times: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteRecords(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM attendance_records WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanRecords(rows pgx.Rows) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	for rows.Next() {
		var rec models.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.IdentityID, &rec.Day,
			&rec.CheckIn, &rec.CheckInKey, &rec.CheckInConfidence,
			&rec.CheckOut, &rec.CheckOutKey, &rec.CheckOutConfidence,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// --- Attendance events ---

// InsertEvent persists one audit row. The consumer may redeliver, so
// the insert ignores duplicate IDs.
func (s *PostgresStore) InsertEvent(ctx context.Context, ev *models.AttendanceEvent) error {
	day, err := time.Parse("2006-01-02", ev.Day)
	if err != nil {
		return fmt.Errorf("parse event day: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attendance_events
		   (id, identity_id, user_ref, name, day, action, confidence, evidence_key, elapsed_seconds, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.IdentityID, ev.UserRef, ev.Name, day, ev.Action,
		ev.Confidence, ev.EvidenceKey, ev.ElapsedSeconds, ev.Timestamp)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventFilter narrows the audit log listing. Zero values mean "no filter".
type EventFilter struct {
	UserRef string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// QueryEvents lists audit events newest-first with a total count for
// pagination.
func (s *PostgresStore) QueryEvents(ctx context.Context, f EventFilter) ([]models.AttendanceEvent, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}

	baseWhere := "WHERE true"
	args := []interface{}{}
	argIdx := 1

	if f.UserRef != "" {
		baseWhere += fmt.Sprintf(" AND user_ref = $%d", argIdx)
		args = append(args, f.UserRef)
		argIdx++
	}
	if f.From != nil {
		baseWhere += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		baseWhere += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM attendance_events " + baseWhere
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, identity_id, user_ref, name, day, action, confidence, evidence_key, elapsed_seconds, timestamp
		 FROM attendance_events %s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		baseWhere, argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.AttendanceEvent
	for rows.Next() {
		var ev models.AttendanceEvent
		var day time.Time
		if err := rows.Scan(&ev.ID, &ev.IdentityID, &ev.UserRef, &ev.Name, &day,
			&ev.Action, &ev.Confidence, &ev.EvidenceKey, &ev.ElapsedSeconds, &ev.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		ev.Day = day.Format("2006-01-02")
		events = append(events, ev)
	}
	return events, total, nil
}
