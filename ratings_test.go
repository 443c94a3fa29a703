package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite"
)

func makeRatings() []coachRating {
	at := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	return []coachRating{
		{SessionID: "s1", Generation: 1, MessageIndex: 4, Reply: "Eat more, protein at every meal.", Rating: 3, CreatedAt: at},
		{SessionID: "s1", Generation: 1, MessageIndex: 2, Reply: "Walk 10,000 steps.", Rating: 5, CreatedAt: at},
		{SessionID: "s2", Generation: 1, MessageIndex: 2, Reply: "Sleep 8 hours.", Rating: 4, CreatedAt: at},
	}
}

// exerciseRatingStore runs the shared contract against any backend: ratings
// come back per session ordered by generation and index, re-rating a reply
// overwrites, and the same index in a later generation is a separate rating.
func exerciseRatingStore(t *testing.T, store ratingStore) {
	t.Helper()
	ctx := context.Background()

	for _, r := range makeRatings() {
		if err := store.saveRating(ctx, r); err != nil {
			t.Fatalf("saveRating: %v", err)
		}
	}

	got, err := store.listRatings(ctx, "s1")
	if err != nil {
		t.Fatalf("listRatings: %v", err)
	}
	if len(got) != 2 || got[0].MessageIndex != 2 || got[1].MessageIndex != 4 {
		t.Fatalf("ratings for s1 = %+v", got)
	}
	if !got[0].CreatedAt.Equal(makeRatings()[1].CreatedAt) {
		t.Errorf("created_at = %v", got[0].CreatedAt)
	}

	rerate := makeRatings()[0]
	rerate.Rating = 1
	if err := store.saveRating(ctx, rerate); err != nil {
		t.Fatalf("saveRating (re-rate): %v", err)
	}
	got, _ = store.listRatings(ctx, "s1")
	if len(got) != 2 || got[1].Rating != 1 {
		t.Errorf("after re-rate = %+v", got)
	}

	later := coachRating{
		SessionID: "s1", Generation: 2, MessageIndex: 2,
		Reply: "Add a rest day.", Rating: 2, CreatedAt: makeRatings()[0].CreatedAt,
	}
	if err := store.saveRating(ctx, later); err != nil {
		t.Fatalf("saveRating (generation 2): %v", err)
	}
	got, _ = store.listRatings(ctx, "s1")
	if len(got) != 3 {
		t.Fatalf("after generation 2 = %+v, want 3 ratings", got)
	}
	if got[0].Reply != "Walk 10,000 steps." || got[0].Rating != 5 {
		t.Errorf("generation 1 rating overwritten: %+v", got[0])
	}
	if got[2].Generation != 2 || got[2].Reply != "Add a rest day." {
		t.Errorf("last rating = %+v, want generation 2", got[2])
	}

	empty, err := store.listRatings(ctx, "unknown")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("listRatings(unknown) = %v, %v; want empty non-nil slice", empty, err)
	}
}

func TestMemoryRatingStore(t *testing.T) {
	exerciseRatingStore(t, newMemoryRatingStore())
}

func TestSQLiteRatingStore(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := newSQLiteRatingStore(context.Background(), db)
	if err != nil {
		t.Fatalf("newSQLiteRatingStore: %v", err)
	}
	exerciseRatingStore(t, store)
}

// TestPgRatingStore runs the shared contract against Postgres. It needs a
// disposable database in TEST_DB_URL and is skipped otherwise.
func TestPgRatingStore(t *testing.T) {
	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set")
	}
	ctx := context.Background()

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("parse TEST_DB_URL: %v", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile(filepath.Join("db", "2026-10-16-001-create-coach-ratings.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	cleanup := func() {
		pool.Exec(ctx, "DELETE FROM coach_ratings WHERE session_id IN ('s1', 's2', 'unknown')")
	}
	cleanup()
	t.Cleanup(cleanup)

	exerciseRatingStore(t, &pgRatingStore{db: pool})
}

func TestSQLiteRatingStore_RejectsOutOfRange(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store, err := newSQLiteRatingStore(context.Background(), db)
	if err != nil {
		t.Fatalf("newSQLiteRatingStore: %v", err)
	}
	bad := makeRatings()[0]
	bad.Rating = 6
	if err := store.saveRating(context.Background(), bad); err == nil {
		t.Error("expected check constraint violation for rating 6")
	}
}

/* ─── Export ─────────────────────────────────────────────────────────── */

func TestWriteRatingsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRatingsCSV(&buf, makeRatings()[:2]); err != nil {
		t.Fatalf("writeRatingsCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	want := [][]string{
		{"reply", "rating"},
		{"Eat more, protein at every meal.", "3"},
		{"Walk 10,000 steps.", "5"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i][0] != want[i][0] || records[i][1] != want[i][1] {
			t.Errorf("record %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestWriteRatingsXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRatingsXLSX(&buf, makeRatings()[:2]); err != nil {
		t.Fatalf("writeRatingsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(ratingsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "reply" || rows[0][1] != "rating" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][0] != "Walk 10,000 steps." || rows[2][1] != "5" {
		t.Errorf("row 2 = %v", rows[2])
	}

	styleID, err := f.GetCellStyle(ratingsSheet, "B1")
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style.Font == nil || !style.Font.Bold {
		t.Errorf("header style = %+v, %v; want bold", style, err)
	}
	if width, err := f.GetColWidth(ratingsSheet, "A"); err != nil || width != 80 {
		t.Errorf("column A width = %v, %v; want 80", width, err)
	}
}
