package database

import (
	"context"
	"fmt"
	"time"
)

// BitacoraRow is the input for inserting a journal entry.
type BitacoraRow struct {
	UserID               string `json:"user_id"`
	Title                string `json:"title"`
	Transcription        string `json:"transcription"`
	Summary              string `json:"summary"`
	EmotionState         string `json:"emotion_state"`
	FollowUpQuestion     string `json:"follow_up_question"`
	Analysis             string `json:"analysis"`
	TranscriptionService string `json:"transcription_service,omitempty"` // "aws", "whisper"
}

// Bitacora is a stored journal entry. Entries are never updated.
type Bitacora struct {
	ID                   int64     `json:"id"`
	UserID               string    `json:"user_id"`
	Title                string    `json:"title"`
	Transcription        string    `json:"transcription"`
	Summary              string    `json:"summary"`
	EmotionState         string    `json:"emotion_state"`
	FollowUpQuestion     string    `json:"follow_up_question"`
	Analysis             string    `json:"analysis"`
	TranscriptionService string    `json:"transcription_service,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// EmotionPoint is one entry of a user's emotional history.
type EmotionPoint struct {
	EmotionState string    `json:"emotion_state"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists journal entries. Lists are ordered newest first.
type Store interface {
	InsertBitacora(ctx context.Context, row *BitacoraRow) (*Bitacora, error)
	ListBitacoras(ctx context.Context, userID string) ([]Bitacora, error)
	ListEmotions(ctx context.Context, userID string) ([]EmotionPoint, error)
	HealthCheck(ctx context.Context) error
	Close()
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLiteDB)(nil)
)

// InsertBitacora stores row and returns it with its id and creation time.
func (db *DB) InsertBitacora(ctx context.Context, row *BitacoraRow) (*Bitacora, error) {
	b := bitacoraFromRow(row)
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO bitacoras (
			user_id, title, transcription, summary,
			emotion_state, follow_up_question, analysis, transcription_service
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		row.UserID, row.Title, row.Transcription, row.Summary,
		row.EmotionState, row.FollowUpQuestion, row.Analysis, pqString(row.TranscriptionService),
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert bitacora: %w", err)
	}
	return b, nil
}

// ListBitacoras returns every entry for userID, newest first.
func (db *DB) ListBitacoras(ctx context.Context, userID string) ([]Bitacora, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, title, transcription, summary,
			emotion_state, follow_up_question, analysis,
			COALESCE(transcription_service, ''), created_at
		FROM bitacoras
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Bitacora{}
	for rows.Next() {
		var b Bitacora
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Title, &b.Transcription, &b.Summary,
			&b.EmotionState, &b.FollowUpQuestion, &b.Analysis,
			&b.TranscriptionService, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// ListEmotions returns the emotional history for userID, newest first.
func (db *DB) ListEmotions(ctx context.Context, userID string) ([]EmotionPoint, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT emotion_state, created_at
		FROM bitacoras
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []EmotionPoint{}
	for rows.Next() {
		var p EmotionPoint
		if err := rows.Scan(&p.EmotionState, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func bitacoraFromRow(row *BitacoraRow) *Bitacora {
	return &Bitacora{
		UserID:               row.UserID,
		Title:                row.Title,
		Transcription:        row.Transcription,
		Summary:              row.Summary,
		EmotionState:         row.EmotionState,
		FollowUpQuestion:     row.FollowUpQuestion,
		Analysis:             row.Analysis,
		TranscriptionService: row.TranscriptionService,
	}
}
