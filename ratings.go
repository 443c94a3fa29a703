package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"
)

// ratingStore persists coach reply ratings. saveRating upserts on
// (SessionID, Generation, MessageIndex); listRatings returns a session's
// ratings ordered by Generation, then MessageIndex.
type ratingStore interface {
	saveRating(ctx context.Context, r coachRating) error
	listRatings(ctx context.Context, sessionID string) ([]coachRating, error)
}

/* ─── In-memory ──────────────────────────────────────────────────────── */

type ratingKey struct {
	generation   int
	messageIndex int
}

type memoryRatingStore struct {
	mu      sync.Mutex
	ratings map[string]map[ratingKey]coachRating
}

func newMemoryRatingStore() *memoryRatingStore {
	return &memoryRatingStore{ratings: make(map[string]map[ratingKey]coachRating)}
}

func (m *memoryRatingStore) saveRating(_ context.Context, r coachRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bySession, ok := m.ratings[r.SessionID]
	if !ok {
		bySession = make(map[ratingKey]coachRating)
		m.ratings[r.SessionID] = bySession
	}
	bySession[ratingKey{r.Generation, r.MessageIndex}] = r
	return nil
}

func (m *memoryRatingStore) listRatings(_ context.Context, sessionID string) ([]coachRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]coachRating, 0, len(m.ratings[sessionID]))
	for _, r := range m.ratings[sessionID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Generation != out[j].Generation {
			return out[i].Generation < out[j].Generation
		}
		return out[i].MessageIndex < out[j].MessageIndex
	})
	return out, nil
}

/* ─── Postgres ───────────────────────────────────────────────────────── */

// pgRatingStore writes to the coach_ratings table created by
// db/2026-10-16-001-create-coach-ratings.sql.
type pgRatingStore struct {
	db *pgxpool.Pool
}

func (p *pgRatingStore) saveRating(ctx context.Context, r coachRating) error {
	_, err := queryOne[coachRating](p.db, ctx,
		`INSERT INTO coach_ratings (session_id, generation, message_index, reply, rating, created_at)
		 VALUES (@sessionID, @generation, @messageIndex, @reply, @rating, @createdAt)
		 ON CONFLICT (session_id, generation, message_index) DO UPDATE
		 SET rating = EXCLUDED.rating, reply = EXCLUDED.reply, created_at = EXCLUDED.created_at
		 RETURNING session_id, generation, message_index, reply, rating, created_at`,
		pgx.NamedArgs{
			"sessionID": r.SessionID, "generation": r.Generation, "messageIndex": r.MessageIndex,
			"reply": r.Reply, "rating": r.Rating, "createdAt": r.CreatedAt,
		})
	return err
}

func (p *pgRatingStore) listRatings(ctx context.Context, sessionID string) ([]coachRating, error) {
	ratings, err := queryMany[coachRating](p.db, ctx,
		`SELECT session_id, generation, message_index, reply, rating, created_at
		 FROM coach_ratings
		 WHERE session_id = @sessionID
		 ORDER BY generation, message_index`,
		pgx.NamedArgs{"sessionID": sessionID})
	if err != nil {
		return nil, err
	}
	if ratings == nil {
		ratings = []coachRating{}
	}
	return ratings, nil
}

/* ─── SQLite ─────────────────────────────────────────────────────────── */

// sqliteRatingStore is the single-file option for local runs.
type sqliteRatingStore struct {
	db *sql.DB
}

func newSQLiteRatingStore(ctx context.Context, db *sql.DB) (*sqliteRatingStore, error) {
	s := &sqliteRatingStore{db: db}
	if err := s.initTable(ctx); err != nil {
		return nil, fmt.Errorf("init coach_ratings: %w", err)
	}
	return s, nil
}

func (s *sqliteRatingStore) initTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS coach_ratings (
			session_id    TEXT    NOT NULL,
			generation    INTEGER NOT NULL,
			message_index INTEGER NOT NULL,
			reply         TEXT    NOT NULL,
			rating        INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			created_at    TEXT    NOT NULL,
			PRIMARY KEY (session_id, generation, message_index)
		)`)
	return err
}

func (s *sqliteRatingStore) saveRating(ctx context.Context, r coachRating) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_ratings (session_id, generation, message_index, reply, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, generation, message_index) DO UPDATE SET
			reply = excluded.reply,
			rating = excluded.rating,
			created_at = excluded.created_at`,
		r.SessionID, r.Generation, r.MessageIndex, r.Reply, r.Rating, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *sqliteRatingStore) listRatings(ctx context.Context, sessionID string) ([]coachRating, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, generation, message_index, reply, rating, created_at
		FROM coach_ratings
		WHERE session_id = ?
		ORDER BY generation, message_index`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := []coachRating{}
	for rows.Next() {
		var r coachRating
		var createdAt string
		if err := rows.Scan(&r.SessionID, &r.Generation, &r.MessageIndex, &r.Reply, &r.Rating, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

/* ─── Export ─────────────────────────────────────────────────────────── */

const (
	csvMIMEType  = "text/csv"
	xlsxMIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ratingsSheet = "Ratings"
)

// writeRatingsCSV writes a "reply,rating" header followed by one row per rating.
func writeRatingsCSV(w io.Writer, ratings []coachRating) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"reply", "rating"}); err != nil {
		return err
	}
	for _, r := range ratings {
		if err := cw.Write([]string{r.Reply, strconv.Itoa(r.Rating)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeRatingsXLSX writes the same columns as writeRatingsCSV to a single
// "Ratings" sheet with a styled header row.
func writeRatingsXLSX(w io.Writer, ratings []coachRating) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ratingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(ratingsSheet, "A1", &[]interface{}{"reply", "rating"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(ratingsSheet, "A1", "B1", style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(ratingsSheet, "A", "A", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, r := range ratings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(ratingsSheet, cell, &[]interface{}{r.Reply, r.Rating}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
