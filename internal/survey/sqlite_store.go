package survey

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ResponseStore is a local durable sink for response records. It exists
// alongside the remote spreadsheet adapter so a network outage never loses
// a trial; like every sink it is best-effort from the recorder's view.
type ResponseStore struct {
	db *sql.DB
}

func NewResponseStore(path string) (*ResponseStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "survey.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &ResponseStore{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *ResponseStore) Close() error {
	return s.db.Close()
}

func (s *ResponseStore) initSchema(ctx context.Context) error {
	// One column per schema field. The primary key enforces the
	// exactly-one-record-per-trial invariant at the storage layer too:
	// a replayed append for the same trial is ignored, never overwritten.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS responses (
			study_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			consented INTEGER NOT NULL,
			consent_timestamp_iso TEXT NOT NULL,
			name TEXT NOT NULL,
			age INTEGER NOT NULL,
			gender TEXT NOT NULL,
			nationality TEXT NOT NULL,
			trial_index INTEGER NOT NULL,
			order_index INTEGER NOT NULL,
			image_file TEXT NOT NULL,
			rating_angry INTEGER NOT NULL,
			rating_happy INTEGER NOT NULL,
			rating_sad INTEGER NOT NULL,
			rating_scared INTEGER NOT NULL,
			rating_surprised INTEGER NOT NULL,
			rating_neutral INTEGER NOT NULL,
			rating_disgusted INTEGER NOT NULL,
			rating_contempt INTEGER NOT NULL,
			result_estimate TEXT NOT NULL,
			response_timestamp_iso TEXT NOT NULL,
			PRIMARY KEY (study_id, participant_id, trial_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_responses_participant ON responses(participant_id, order_index);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *ResponseStore) AppendResponse(ctx context.Context, record ResponseRecord) error {
	consented := 0
	if record.Consented {
		consented = 1
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO responses (
			study_id, participant_id, consented, consent_timestamp_iso,
			name, age, gender, nationality,
			trial_index, order_index, image_file,
			rating_angry, rating_happy, rating_sad, rating_scared,
			rating_surprised, rating_neutral, rating_disgusted, rating_contempt,
			result_estimate, response_timestamp_iso
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.StudyID,
		record.ParticipantID,
		consented,
		record.ConsentTimestampISO,
		record.Name,
		record.Age,
		record.Gender,
		record.Nationality,
		record.TrialIndex,
		record.OrderIndex,
		record.ImageFile,
		record.RatingAngry,
		record.RatingHappy,
		record.RatingSad,
		record.RatingScared,
		record.RatingSurprised,
		record.RatingNeutral,
		record.RatingDisgusted,
		record.RatingContempt,
		record.ResultEstimate,
		record.ResponseTimestampISO,
	)
	return err
}

// ListResponses returns a participant's persisted records in submission
// order.
func (s *ResponseStore) ListResponses(ctx context.Context, participantID string) ([]ResponseRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT study_id, participant_id, consented, consent_timestamp_iso,
			name, age, gender, nationality,
			trial_index, order_index, image_file,
			rating_angry, rating_happy, rating_sad, rating_scared,
			rating_surprised, rating_neutral, rating_disgusted, rating_contempt,
			result_estimate, response_timestamp_iso
		 FROM responses
		 WHERE participant_id = ?
		 ORDER BY order_index ASC`,
		participantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ResponseRecord, 0)
	for rows.Next() {
		var (
			record    ResponseRecord
			consented int
		)
		if err := rows.Scan(
			&record.StudyID,
			&record.ParticipantID,
			&consented,
			&record.ConsentTimestampISO,
			&record.Name,
			&record.Age,
			&record.Gender,
			&record.Nationality,
			&record.TrialIndex,
			&record.OrderIndex,
			&record.ImageFile,
			&record.RatingAngry,
			&record.RatingHappy,
			&record.RatingSad,
			&record.RatingScared,
			&record.RatingSurprised,
			&record.RatingNeutral,
			&record.RatingDisgusted,
			&record.RatingContempt,
			&record.ResultEstimate,
			&record.ResponseTimestampISO,
		); err != nil {
			return nil, err
		}
		record.Consented = consented != 0
		records = append(records, record)
	}

	return records, rows.Err()
}

func (s *ResponseStore) CountResponses(ctx context.Context, participantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM responses WHERE participant_id = ?`,
		participantID,
	).Scan(&count)
	return count, err
}
