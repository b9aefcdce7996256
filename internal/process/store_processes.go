package process

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"litany/internal/logging"
	"litany/internal/services"
)

// Field names a payload column that stage handlers may mutate individually.
type Field string

const (
	FieldTitle        Field = "title"
	FieldContent      Field = "content"
	FieldShortContent Field = "short_content"
	FieldDescription  Field = "description"
	FieldImagePrompt  Field = "image_prompt"
	FieldImageRef     Field = "image_ref"
	FieldAudioRef     Field = "audio_ref"
)

var payloadColumns = map[Field]string{
	FieldTitle:        "title",
	FieldContent:      "content",
	FieldShortContent: "short_content",
	FieldDescription:  "description",
	FieldImagePrompt:  "image_prompt",
	FieldImageRef:     "image_ref",
	FieldAudioRef:     "audio_ref",
}

// Create inserts a new process with its payload in a single transaction. When
// id is empty a fresh UUID is issued. Reusing an existing id fails with
// services.ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, id string, payload Payload) (*Process, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}

	titlesJSON, err := marshalTitles(payload.Titles)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO processes (id, stage, stage_label, progress, completed, created_at, updated_at)
         VALUES (?, ?, ?, 0, 0, ?, ?)`,
		id, StageInitiated, "Queued", timestamp, timestamp,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, services.Wrap(services.ErrAlreadyExists, "", "create process", id, nil)
		}
		return nil, fmt.Errorf("insert process: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO process_payloads (
            process_id, topic, style, duration, prayer_type, language, notes,
            generate_image, generate_short, generate_audio, await_title_selection,
            title, titles_json, content, short_content, description, image_prompt, image_ref, audio_ref
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		nullableString(payload.Topic),
		nullableString(payload.Style),
		nullableString(payload.Duration),
		nullableString(payload.PrayerType),
		nullableString(payload.Language),
		nullableString(payload.Notes),
		boolToInt(payload.GenerateImage),
		nullableBool(payload.GenerateShort),
		boolToInt(payload.GenerateAudio),
		boolToInt(payload.AwaitTitleSelection),
		nullableString(payload.Title),
		nullableString(titlesJSON),
		nullableString(payload.Content),
		nullableString(payload.ShortContent),
		nullableString(payload.Description),
		nullableString(payload.ImagePrompt),
		nullableString(payload.ImageRef),
		nullableString(payload.AudioRef),
	); err != nil {
		return nil, fmt.Errorf("insert payload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}

	return s.Get(ctx, id)
}

const processColumns = `p.id, p.stage, p.stage_label, p.progress, p.completed, p.result_ref, p.created_at, p.updated_at,
        d.topic, d.style, d.duration, d.prayer_type, d.language, d.notes,
        d.generate_image, d.generate_short, d.generate_audio, d.await_title_selection,
        d.title, d.titles_json, d.content, d.short_content, d.description, d.image_prompt, d.image_ref, d.audio_ref`

const processQuery = `SELECT ` + processColumns + `
    FROM processes p JOIN process_payloads d ON d.process_id = p.id`

// Get fetches a process by identifier. Unknown ids fail with
// services.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Process, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, processQuery+` WHERE p.id = ?`, id)
	proc, err := scanProcess(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "", "get process", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get process: %w", err)
	}
	return proc, nil
}

// List returns processes filtered by stage set (or all processes when no
// stage is provided), ordered by creation time.
func (s *Store) List(ctx context.Context, stages ...Stage) ([]*Process, error) {
	ctx = ensureContext(ctx)

	query := processQuery
	args := make([]any, 0, len(stages))
	if len(stages) > 0 {
		placeholders := make([]string, len(stages))
		for i, stage := range stages {
			placeholders[i] = "?"
			args = append(args, stage)
		}
		query += ` WHERE p.stage IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY p.created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	var processes []*Process
	for rows.Next() {
		proc, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, proc)
	}
	return processes, rows.Err()
}

// Stats returns aggregated process counts.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT stage, COUNT(1) FROM processes GROUP BY stage`)
	if err != nil {
		return Summary{}, fmt.Errorf("process stats: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var stage Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch stage {
		case StageCompleted:
			summary.Completed += count
		case StageFailed:
			summary.Failed += count
		default:
			summary.Active += count
		}
	}
	return summary, rows.Err()
}

// UpdateStatus records a stage transition with its progress checkpoint.
// Writes are last-write-wins except that progress never decreases. Unknown
// ids are logged at debug level and ignored.
func (s *Store) UpdateStatus(ctx context.Context, id string, stage Stage, label string, percent float64) error {
	ctx = ensureContext(ctx)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE processes
         SET stage = ?, stage_label = ?, progress = MAX(progress, ?), updated_at = ?
         WHERE id = ?`,
		stage, nullableString(label), percent, nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.logger.Debug("status update for unknown process ignored",
			logging.String(logging.FieldProcessID, id),
			logging.String(logging.FieldStage, string(stage)))
	}
	return nil
}

// SetField mutates exactly one payload column.
func (s *Store) SetField(ctx context.Context, id string, field Field, value string) error {
	column, ok := payloadColumns[field]
	if !ok {
		return services.Wrap(services.ErrValidation, "", "set field", fmt.Sprintf("unknown field %q", field), nil)
	}
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		`UPDATE process_payloads SET `+column+` = ? WHERE process_id = ?`,
		nullableString(value), id,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "", "set field", id, nil)
	}
	return s.touch(ctx, id)
}

// SetTitles stores the candidate title list.
func (s *Store) SetTitles(ctx context.Context, id string, titles []string) error {
	titlesJSON, err := marshalTitles(titles)
	if err != nil {
		return err
	}
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		`UPDATE process_payloads SET titles_json = ? WHERE process_id = ?`,
		nullableString(titlesJSON), id,
	)
	if err != nil {
		return fmt.Errorf("set titles: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrNotFound, "", "set titles", id, nil)
	}
	return s.touch(ctx, id)
}

// Titles returns the candidate title list for a process.
func (s *Store) Titles(ctx context.Context, id string) ([]string, error) {
	proc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return proc.Payload.Titles, nil
}

// SetResult records the compiled result reference. The first write wins;
// later calls are no-ops so a late audio failure cannot clobber the result.
func (s *Store) SetResult(ctx context.Context, id string, ref string) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		`UPDATE processes SET result_ref = ?, updated_at = ?
         WHERE id = ? AND (result_ref IS NULL OR result_ref = '')`,
		ref, nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("set result: %w", err)
	}
	return nil
}

// MarkFailed moves the process to the failed stage, recording the diagnostic
// as the stage label and resetting progress.
func (s *Store) MarkFailed(ctx context.Context, id string, diagnostic string) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		`UPDATE processes SET stage = ?, stage_label = ?, progress = 0, updated_at = ? WHERE id = ?`,
		StageFailed, nullableString(diagnostic), nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// MarkCompleted moves the process to the completed stage at 100%.
func (s *Store) MarkCompleted(ctx context.Context, id string, label string) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(label) == "" {
		label = "Completed"
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE processes SET stage = ?, stage_label = ?, progress = 100, completed = 1, updated_at = ? WHERE id = ?`,
		StageCompleted, label, nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

func (s *Store) touch(ctx context.Context, id string) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE processes SET updated_at = ? WHERE id = ?`, nowString(), id)
	if err != nil {
		return fmt.Errorf("touch process: %w", err)
	}
	return nil
}

// isUniqueViolation matches the sqlite unique-violation message only; other
// constraint breaches (NOT NULL, CHECK) must not map to ErrAlreadyExists.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func marshalTitles(titles []string) (string, error) {
	if len(titles) == 0 {
		return "", nil
	}
	data, err := json.Marshal(titles)
	if err != nil {
		return "", fmt.Errorf("marshal titles: %w", err)
	}
	return string(data), nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
