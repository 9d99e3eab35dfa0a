package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/handler"
	"github.com/finaura/finaura-go/internal/infra/cache"
	"github.com/finaura/finaura-go/internal/infra/client"
	"github.com/finaura/finaura-go/internal/infra/memory"
	"github.com/finaura/finaura-go/internal/infra/observability"
	"github.com/finaura/finaura-go/internal/infra/resilience"
	"github.com/finaura/finaura-go/internal/service"

	"go.uber.org/zap"
)

// scriptedExtractor returns pre-normalized fields for each upload in order,
// standing in for the vision model at the pipeline boundary.
type scriptedExtractor struct {
	mu      sync.Mutex
	results []extractionResult
	next    int
}

type extractionResult struct {
	fields *domain.BillFields
	err    error
}

func (s *scriptedExtractor) Extract(context.Context, []byte, string) (*domain.BillFields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.results) {
		return nil, &domain.ErrExtraction{Reason: domain.ExtractionServiceError, Err: fmt.Errorf("no scripted result")}
	}
	r := s.results[s.next]
	s.next++
	return r.fields, r.err
}

func fields(vendor, category string, amount float64) *domain.BillFields {
	date := "2026-04-01"
	return &domain.BillFields{
		Vendor:   &vendor,
		Amount:   &amount,
		Date:     &date,
		Category: &category,
	}
}

func buildRouter(t *testing.T, extractor *scriptedExtractor, advisorURL string) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}
	store := memory.NewStore()
	userCache := cache.New[any](5 * time.Minute)

	achievements := service.NewAchievementService(store, store, domain.DefaultTiers, metrics, logger)
	svcs := handler.Services{
		Users:        service.NewUserService(store, userCache, metrics, logger),
		Bills:        service.NewBillService(extractor, store, store, achievements, userCache, metrics, logger),
		Score:        service.NewScoreService(store, store, userCache, metrics, logger),
		Achievements: achievements,
		Advisor:      service.NewAdvisorService(client.NewAdvisorClient(httpClient, advisorURL, cb, cfg), store, metrics, logger),
		Vault:        service.NewVaultService(store, store, logger),
	}
	return handler.NewRouter(svcs, metrics, logger)
}

func postJSON(t *testing.T, router http.Handler, path string, body any, out any) int {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return rec.Code
}

func getJSON(t *testing.T, router http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return rec.Code
}

func upload(t *testing.T, router http.Handler, userID string) (*domain.UploadResponse, int) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("user_id", userID)
	part, _ := mw.CreateFormFile("file", "bill.jpg")
	part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/bills/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp domain.UploadResponse
	if rec.Code < 300 {
		json.NewDecoder(rec.Body).Decode(&resp)
	}
	return &resp, rec.Code
}

// TestIntegration_FullFlow drives the whole journey through the HTTP
// surface: create a user, upload bills (one of them failing extraction),
// then read back score, achievements and the advisor chat.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock advisor agent ---
	advisorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.AdvisorRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := domain.AdvisorResponse{
			Reply:      "Your score is trending up. Keep your utility payments steady.",
			TokensUsed: domain.TokenUsage{PromptTokens: 700, CompletionTokens: 180, TotalTokens: 880},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer advisorServer.Close()

	extractor := &scriptedExtractor{results: []extractionResult{
		{fields: fields("Big Bazaar", "groceries", 150)},
		{fields: fields("Enel", "utilities", 90)},
		{err: &domain.ErrExtraction{Reason: domain.ExtractionUnparseable, Err: fmt.Errorf("blurry image")}},
	}}

	router := buildRouter(t, extractor, advisorServer.URL)

	// --- Create user ---
	var user domain.UserAggregate
	code := postJSON(t, router, "/v1/users", domain.CreateUserRequest{Name: "Priya", Email: "priya@example.com"}, &user)
	if code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", code)
	}

	// --- Upload two good bills and one that fails extraction ---
	for i := 0; i < 3; i++ {
		resp, code := upload(t, router, user.ID)
		if code != http.StatusCreated {
			t.Fatalf("upload %d: expected 201, got %d", i, code)
		}
		if !resp.Success {
			t.Fatalf("upload %d: expected success envelope", i)
		}
	}

	// --- Counters reflect all three uploads, failed one included ---
	var updated domain.UserAggregate
	getJSON(t, router, "/v1/users/"+user.ID, &updated)
	if updated.TotalBills != 3 {
		t.Errorf("expected total_bills=3, got %d", updated.TotalBills)
	}
	if updated.TotalTransactions != 240 {
		t.Errorf("expected total_transactions=240, got %v", updated.TotalTransactions)
	}

	// --- History holds three records, one failed ---
	var history struct {
		Bills []domain.BillRecord `json:"bills"`
	}
	getJSON(t, router, "/v1/users/"+user.ID+"/bills", &history)
	if len(history.Bills) != 3 {
		t.Fatalf("expected 3 bills, got %d", len(history.Bills))
	}
	failed := 0
	for _, b := range history.Bills {
		if b.ExtractionStatus == domain.ExtractionFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed record, got %d", failed)
	}

	// --- Score from the two scorable bills ---
	// frequency 2*5=10, diversity 2*10=20, activity avg(120)/100*10=12 -> 42.0
	var score domain.ScoreResult
	getJSON(t, router, "/v1/users/"+user.ID+"/score", &score)
	if score.Score != 42.0 {
		t.Errorf("expected score 42.0, got %v", score.Score)
	}

	// --- Achievements: thresholds 1 crossed on first upload ---
	var achievements struct {
		Achievements []domain.AchievementUnlock `json:"achievements"`
	}
	getJSON(t, router, "/v1/users/"+user.ID+"/achievements", &achievements)
	if len(achievements.Achievements) != 1 || achievements.Achievements[0].Title != "First Step" {
		t.Errorf("expected only First Step, got %+v", achievements.Achievements)
	}

	// --- Advisor chat round trip through the mock agent ---
	var chat domain.ChatAPIResponse
	code = postJSON(t, router, "/v1/chat", domain.ChatAPIRequest{UserID: user.ID, Message: "How am I doing?"}, &chat)
	if code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d", code)
	}
	if chat.Response == "" {
		t.Error("expected a non-empty advisor reply")
	}

	var transcript struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	getJSON(t, router, "/v1/chat/"+chat.SessionID+"/history", &transcript)
	if len(transcript.Messages) != 2 {
		t.Errorf("expected 2 transcript messages, got %d", len(transcript.Messages))
	}
}

// TestIntegration_AdvisorUnavailable verifies the chat endpoint degrades to
// an error response while bill ingestion keeps working.
func TestIntegration_AdvisorUnavailable(t *testing.T) {
	advisorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer advisorServer.Close()

	extractor := &scriptedExtractor{results: []extractionResult{
		{fields: fields("IKEA", "shopping", 499)},
	}}
	router := buildRouter(t, extractor, advisorServer.URL)

	var user domain.UserAggregate
	postJSON(t, router, "/v1/users", domain.CreateUserRequest{Name: "Omar", Email: "omar@example.com"}, &user)

	code := postJSON(t, router, "/v1/chat", domain.ChatAPIRequest{UserID: user.ID, Message: "hi"}, nil)
	if code != http.StatusBadGateway {
		t.Errorf("expected 502 when the agent errors, got %d", code)
	}

	if _, code := upload(t, router, user.ID); code != http.StatusCreated {
		t.Errorf("expected ingestion to keep working, got %d", code)
	}
}

// TestIntegration_AchievementProgression uploads past the second threshold
// and checks the tier set grows exactly once per tier.
func TestIntegration_AchievementProgression(t *testing.T) {
	results := make([]extractionResult, 0, 6)
	for i := 0; i < 6; i++ {
		results = append(results, extractionResult{fields: fields("Vendor", "groceries", 10)})
	}
	extractor := &scriptedExtractor{results: results}

	advisorServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.AdvisorResponse{Reply: "ok"})
	}))
	defer advisorServer.Close()

	router := buildRouter(t, extractor, advisorServer.URL)

	var user domain.UserAggregate
	postJSON(t, router, "/v1/users", domain.CreateUserRequest{Name: "Lena", Email: "lena@example.com"}, &user)

	for i := 0; i < 6; i++ {
		if _, code := upload(t, router, user.ID); code != http.StatusCreated {
			t.Fatalf("upload %d failed with %d", i, code)
		}
	}

	var achievements struct {
		Achievements []domain.AchievementUnlock `json:"achievements"`
	}
	getJSON(t, router, "/v1/users/"+user.ID+"/achievements", &achievements)
	if len(achievements.Achievements) != 2 {
		t.Fatalf("expected First Step and Getting Started, got %+v", achievements.Achievements)
	}
	titles := map[string]bool{}
	for _, a := range achievements.Achievements {
		if titles[a.Title] {
			t.Errorf("tier %q unlocked twice", a.Title)
		}
		titles[a.Title] = true
	}
}
