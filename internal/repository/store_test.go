package repository

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"kanji-quiz/internal/db"
	"kanji-quiz/internal/domain"
)

const testSessionID = "5b0c7a43-5d0f-4c1e-9a59-0f1d1b2f8c11"

func newSQLiteStores(t *testing.T) Stores {
	t.Helper()
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// una segunda pasada no debe fallar
	if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	return NewSQLiteStore(sqlDB).Stores()
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Stores{
		"memory": func(t *testing.T) Stores { return NewMemoryStore().Stores() },
		"sqlite": newSQLiteStores,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("sessions", func(t *testing.T) { testSessions(t, open(t)) })
			t.Run("answers", func(t *testing.T) { testAnswers(t, open(t)) })
			t.Run("concurrent answers", func(t *testing.T) { testConcurrentAnswers(t, open(t)) })
			t.Run("results", func(t *testing.T) { testResults(t, open(t)) })
		})
	}
}

func seedSession(t *testing.T, stores Stores) time.Time {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	created, err := stores.Sessions.Ensure(context.Background(), domain.Session{
		ID:        testSessionID,
		Language:  "ja",
		UserName:  "Aiko",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("ensure session: %v", err)
	}
	if !created {
		t.Fatalf("expected session to be created")
	}
	return now
}

func testSessions(t *testing.T, stores Stores) {
	ctx := context.Background()
	now := seedSession(t, stores)

	created, err := stores.Sessions.Ensure(ctx, domain.Session{ID: testSessionID, Language: "en", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if created {
		t.Fatalf("expected second ensure to be a no-op")
	}

	got, err := stores.Sessions.GetByID(ctx, testSessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Language != "ja" || got.UserName != "Aiko" {
		t.Fatalf("expected original session, got %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, got.CreatedAt)
	}

	later := now.Add(time.Minute)
	if err := stores.Sessions.Touch(ctx, testSessionID, later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ = stores.Sessions.GetByID(ctx, testSessionID)
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %v, got %v", later, got.UpdatedAt)
	}

	if _, err := stores.Sessions.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testAnswers(t *testing.T, stores Stores) {
	ctx := context.Background()
	now := seedSession(t, stores)

	for i, q := range []string{"Q1", "Q2", "Q3"} {
		err := stores.Answers.InsertIfAbsent(ctx, domain.Answer{
			SessionID:  testSessionID,
			QuestionID: q,
			OptionID:   "A",
			AnsweredAt: now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", q, err)
		}
	}

	err := stores.Answers.InsertIfAbsent(ctx, domain.Answer{SessionID: testSessionID, QuestionID: "Q2", OptionID: "B", AnsweredAt: now})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	answers, err := stores.Answers.ListBySessionID(ctx, testSessionID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(answers))
	}
	for i, q := range []string{"Q1", "Q2", "Q3"} {
		if answers[i].QuestionID != q || answers[i].OptionID != "A" {
			t.Fatalf("unexpected answer %d: %+v", i, answers[i])
		}
	}

	empty, err := stores.Answers.ListBySessionID(ctx, "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no answers, got %d", len(empty))
	}
}

func testConcurrentAnswers(t *testing.T, stores Stores) {
	ctx := context.Background()
	now := seedSession(t, stores)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := "A"
			if i%2 == 1 {
				option = "B"
			}
			err := stores.Answers.InsertIfAbsent(ctx, domain.Answer{SessionID: testSessionID, QuestionID: "Q1", OptionID: option, AnsweredAt: now})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyExists):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 || dupes != workers-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, successes, dupes)
	}
	answers, _ := stores.Answers.ListBySessionID(ctx, testSessionID)
	if len(answers) != 1 {
		t.Fatalf("expected exactly one stored answer, got %d", len(answers))
	}
}

func testResults(t *testing.T, stores Stores) {
	ctx := context.Background()
	now := seedSession(t, stores)

	if _, err := stores.Results.GetBySessionID(ctx, testSessionID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := domain.Result{
		SessionID:      testSessionID,
		CandidateID:    "onwa",
		Subtype:        "peace_rest",
		Labels:         domain.Labels{"motivation": "stability", "style": "deliberate"},
		Traits:         domain.TraitVector{"stability": 12, "decisiveness": -3},
		Kanji:          "穏和",
		Reading:        "Onwa",
		Meaning:        domain.LocalizedText{"en": "calm harmony", "ja": "おだやかな和"},
		Explanation:    domain.LocalizedText{"en": "calm"},
		CatalogVersion: "v1",
		GeneratedAt:    now,
	}
	stored, inserted, err := stores.Results.InsertIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("insert result: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first insert to win")
	}

	second := first
	second.CandidateID = "onka"
	second.GeneratedAt = now.Add(time.Hour)
	stored, inserted, err = stores.Results.InsertIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("insert second result: %v", err)
	}
	if inserted {
		t.Fatalf("expected second insert to be rejected")
	}
	if !reflect.DeepEqual(stored, first) {
		t.Fatalf("expected stored result %+v, got %+v", first, stored)
	}

	got, err := stores.Results.GetBySessionID(ctx, testSessionID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if !reflect.DeepEqual(got, first) {
		t.Fatalf("expected %+v, got %+v", first, got)
	}
	// el resultado guardado no comparte mapas con el llamador
	got.Labels["motivation"] = "freedom"
	got.Traits["stability"] = 0
	got.Meaning["en"] = "changed"
	first.Explanation["en"] = "changed"

	again, err := stores.Results.GetBySessionID(ctx, testSessionID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if again.Labels["motivation"] != "stability" || again.Traits["stability"] != 12 {
		t.Fatalf("stored labels or traits were mutated: %+v", again)
	}
	if again.Meaning["en"] != "calm harmony" || again.Explanation["en"] != "calm" {
		t.Fatalf("stored texts were mutated: %+v", again)
	}
}
