package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bitacoras (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	transcription TEXT NOT NULL,
	summary TEXT NOT NULL,
	emotion_state TEXT NOT NULL,
	follow_up_question TEXT NOT NULL,
	analysis TEXT NOT NULL,
	transcription_service TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bitacoras_user_created ON bitacoras(user_id, created_at);
`

// sqliteTimeLayout sorts lexically in time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteDB is a single-file Store for local development and small deployments.
type SQLiteDB struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	log.Info().Str("path", path).Msg("sqlite database opened")
	return &SQLiteDB{db: db, log: log, now: time.Now}, nil
}

// InsertBitacora stores row and returns it with its id and creation time.
func (s *SQLiteDB) InsertBitacora(ctx context.Context, row *BitacoraRow) (*Bitacora, error) {
	b := bitacoraFromRow(row)
	b.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bitacoras (
			user_id, title, transcription, summary,
			emotion_state, follow_up_question, analysis, transcription_service, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		row.UserID, row.Title, row.Transcription, row.Summary,
		row.EmotionState, row.FollowUpQuestion, row.Analysis, row.TranscriptionService,
		b.CreatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert bitacora: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("insert bitacora: %w", err)
	}
	return b, nil
}

// ListBitacoras returns every entry for userID, newest first.
func (s *SQLiteDB) ListBitacoras(ctx context.Context, userID string) ([]Bitacora, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, transcription, summary,
			emotion_state, follow_up_question, analysis, transcription_service, created_at
		FROM bitacoras
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Bitacora{}
	for rows.Next() {
		var b Bitacora
		var created string
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Title, &b.Transcription, &b.Summary,
			&b.EmotionState, &b.FollowUpQuestion, &b.Analysis, &b.TranscriptionService, &created,
		); err != nil {
			return nil, err
		}
		if b.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
			return nil, fmt.Errorf("bitacora %d: parse created_at: %w", b.ID, err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// ListEmotions returns the emotional history for userID, newest first.
func (s *SQLiteDB) ListEmotions(ctx context.Context, userID string) ([]EmotionPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT emotion_state, created_at
		FROM bitacoras
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []EmotionPoint{}
	for rows.Next() {
		var p EmotionPoint
		var created string
		if err := rows.Scan(&p.EmotionState, &created); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *SQLiteDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() {
	s.log.Info().Msg("closing sqlite database")
	s.db.Close()
}
