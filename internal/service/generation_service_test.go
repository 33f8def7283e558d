package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
	"kanji-quiz/internal/email"
	"kanji-quiz/internal/repository"
	"kanji-quiz/internal/scoring"
)

func newGenerationService(stores repository.Stores, cat *catalog.Catalog) *GenerationService {
	svc := NewGenerationService(zap.NewNop(), stores, scoring.NewEngine(cat), nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 123456789, time.UTC) }
	return svc
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string]domain.Result
	sets  int
}

func (c *memoryCache) Get(_ context.Context, sessionID string) (domain.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[sessionID]
	return r, ok
}

func (c *memoryCache) Set(_ context.Context, result domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]domain.Result{}
	}
	c.items[result.SessionID] = result
	c.sets++
}

type recordingSender struct {
	sent []email.ResultMessage
	err  error
}

func (s *recordingSender) SendResult(_ context.Context, msg email.ResultMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestGenerateKanjiName(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	sessionID := uuid.NewString()
	f.answerAll(t, sessionID, leaderAnswers)

	first, err := f.generation.GenerateKanjiName(ctx, sessionID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Subtype != "leadership_command" || first.CandidateID != "budou" {
		t.Fatalf("unexpected result %+v", first)
	}
	if first.GeneratedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Fatalf("expected millisecond precision, got %v", first.GeneratedAt)
	}

	f.generation.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	second, err := f.generation.GenerateKanjiName(ctx, sessionID)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) || second.CandidateID != first.CandidateID {
		t.Fatalf("expected the stored result, got %+v", second)
	}

	summary, err := f.sessions.GetSession(ctx, sessionID, "ja")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if summary.State != domain.SessionGenerated || summary.Result == nil {
		t.Fatalf("expected generated state, got %+v", summary)
	}
}

func TestGenerateRequiresCompleteSession(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	sessionID := uuid.NewString()
	f.answerAll(t, sessionID, "Q1=male,Q2=A,Q3=A")

	_, err := f.generation.GenerateKanjiName(ctx, sessionID)
	if !errors.Is(err, domain.ErrInsufficientAnswers) {
		t.Fatalf("expected INSUFFICIENT_ANSWERS, got %v", err)
	}
	if _, err := f.stores.Results.GetBySessionID(ctx, sessionID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no stored result, got %v", err)
	}
	if _, err := f.generation.GetResult(ctx, sessionID); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected RESULT_NOT_FOUND, got %v", err)
	}
}

func TestGenerateUnknownSession(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	sessionID := uuid.NewString()
	_, err := f.generation.GenerateKanjiName(ctx, sessionID)
	if !errors.Is(err, domain.ErrInsufficientAnswers) {
		t.Fatalf("expected INSUFFICIENT_ANSWERS, got %v", err)
	}
	if _, err := f.stores.Results.GetBySessionID(ctx, sessionID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected no stored result, got %v", err)
	}
}

func TestGenerateIgnoresCallerCancellation(t *testing.T) {
	f := newQuizFixture(t, nil)
	sessionID := uuid.NewString()
	f.answerAll(t, sessionID, leaderAnswers)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := f.generation.GenerateKanjiName(ctx, sessionID)
	if err != nil {
		t.Fatalf("expected shared generation to finish, got %v", err)
	}
	if result.Subtype != "leadership_command" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestEmptyLanguageFollowsSession(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()

	start, err := f.sessions.StartSession(ctx, StartSessionInput{Language: "ja"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	id := start.Session.ID

	out, err := f.answers.SubmitAnswerAndGetNext(ctx, SubmitAnswerInput{SessionID: id, QuestionID: "Q1", OptionID: "male"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Next.Question == nil || out.Next.Question.Language != "ja" {
		t.Fatalf("expected japanese next question, got %+v", out.Next)
	}

	step, err := f.sessions.NextQuestion(ctx, id, "")
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if step.Question == nil || step.Question.Language != "ja" {
		t.Fatalf("expected japanese question, got %+v", step)
	}
	step, err = f.sessions.NextQuestion(ctx, uuid.NewString(), "")
	if err != nil {
		t.Fatalf("next question for new session: %v", err)
	}
	if step.Question == nil || step.Question.Language != "en" {
		t.Fatalf("expected default language for an unknown session, got %+v", step)
	}

	for _, p := range pairs(leaderAnswers)[1:] {
		if _, _, err := f.answers.SubmitAnswer(ctx, id, p[0], p[1]); err != nil {
			t.Fatalf("submit %s: %v", p[0], err)
		}
	}
	result, err := f.generation.GenerateKanjiName(ctx, id)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	localized, err := f.generation.LocalizeForSession(ctx, result, "")
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if localized.Language != "ja" || localized.FellBack {
		t.Fatalf("expected japanese result, got %+v", localized)
	}
	localized, err = f.generation.LocalizeForSession(ctx, result, "en")
	if err != nil {
		t.Fatalf("localize: %v", err)
	}
	if localized.Language != "en" {
		t.Fatalf("expected explicit language to win, got %+v", localized)
	}
}

func TestConcurrentGenerateStoresOneResult(t *testing.T) {
	f := newQuizFixture(t, nil)
	ctx := context.Background()
	sessionID := uuid.NewString()
	f.answerAll(t, sessionID, leaderAnswers)

	// un segundo servicio sobre el mismo store simula otro proceso
	other := newGenerationService(f.stores, f.flow.Catalog())
	other.now = func() time.Time { return time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC) }

	const workers = 10
	results := make([]domain.Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := f.generation
			if i%2 == 1 {
				svc = other
			}
			r, err := svc.GenerateKanjiName(ctx, sessionID)
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	stored, err := f.stores.Results.GetBySessionID(ctx, sessionID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	for i, r := range results {
		if !r.GeneratedAt.Equal(stored.GeneratedAt) || r.CandidateID != stored.CandidateID {
			t.Fatalf("worker %d saw %+v, stored %+v", i, r, stored)
		}
	}
}

func TestGetResultUsesCache(t *testing.T) {
	f := newQuizFixture(t, nil)
	cache := &memoryCache{}
	f.generation.cache = cache
	ctx := context.Background()
	sessionID := uuid.NewString()
	f.answerAll(t, sessionID, leaderAnswers)

	generated, err := f.generation.GenerateKanjiName(ctx, sessionID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected cache to be filled on generation, got %d sets", cache.sets)
	}

	got, err := f.generation.GetResult(ctx, sessionID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if got.CandidateID != generated.CandidateID || cache.sets != 1 {
		t.Fatalf("expected cached result, got %+v (sets=%d)", got, cache.sets)
	}
}

func TestStartSessionAndNextQuestion(t *testing.T) {
	f := newQuizFixture(t, nil)
	f.sessions.tokens = NewSessionTokenService("secret", time.Hour)
	ctx := context.Background()

	out, err := f.sessions.StartSession(ctx, StartSessionInput{Language: "ja-JP", UserName: " Aiko ", ClientAddr: "203.0.113.7"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if out.Session.Language != "ja" || out.Session.UserName != "Aiko" {
		t.Fatalf("unexpected session %+v", out.Session)
	}
	if out.Session.ClientHash == "" || strings.Contains(out.Session.ClientHash, "203.0.113.7") {
		t.Fatalf("expected hashed client address, got %q", out.Session.ClientHash)
	}
	if out.Token == "" || out.TokenExpiresAt == nil {
		t.Fatalf("expected a session token")
	}
	claims, err := f.sessions.tokens.Parse(out.Token)
	if err != nil || claims.SessionID != out.Session.ID {
		t.Fatalf("token does not carry the session: %+v %v", claims, err)
	}
	if out.Next.Question == nil || out.Next.Question.ID != "Q1" || out.Next.Question.Language != "ja" {
		t.Fatalf("unexpected first step %+v", out.Next)
	}

	f.answerAll(t, out.Session.ID, "Q1=nonbinary")
	step, err := f.sessions.NextQuestion(ctx, out.Session.ID, "en")
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if step.Question == nil || step.Question.ID != "Q2" {
		t.Fatalf("expected Q2, got %+v", step)
	}

	summary, err := f.sessions.GetSession(ctx, out.Session.ID, "")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if summary.State != domain.SessionStarted || summary.Answered != 1 || summary.Total != 16 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.NextStep.Question.Language != "ja" {
		t.Fatalf("expected session language by default, got %q", summary.NextStep.Question.Language)
	}

	if _, err := f.sessions.GetSession(ctx, uuid.NewString(), ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected SESSION_NOT_FOUND, got %v", err)
	}
}

func TestDeliverResult(t *testing.T) {
	f := newQuizFixture(t, nil)
	sender := &recordingSender{}
	delivery := NewDeliveryService(zap.NewNop(), f.stores, f.generation, sender)
	ctx := context.Background()
	sessionID := uuid.NewString()

	if _, err := delivery.DeliverResult(ctx, sessionID, "not an address", "en"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected INVALID_REQUEST, got %v", err)
	}

	f.answerAll(t, sessionID, leaderAnswers)
	localized, err := delivery.DeliverResult(ctx, sessionID, "Aiko <aiko@example.com>", "ja")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "aiko@example.com" || msg.Language != "ja" || msg.Kanji != localized.Kanji {
		t.Fatalf("unexpected message %+v", msg)
	}
	if _, err := f.stores.Results.GetBySessionID(ctx, sessionID); err != nil {
		t.Fatalf("expected delivery to persist the result: %v", err)
	}

	sender.err = errors.New("smtp down")
	if _, err := delivery.DeliverResult(ctx, sessionID, "aiko@example.com", "en"); domain.KindOf(err) != domain.KindInternal {
		t.Fatalf("expected INTERNAL on send failure, got %v", err)
	}
}
