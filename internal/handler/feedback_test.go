package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/feedback-widget/internal/ai"
	"github.com/feedback-widget/internal/domain"
	"github.com/feedback-widget/internal/ratelimit"
	"github.com/feedback-widget/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test doubles.

type stubClassifier struct {
	result *domain.ClassificationResult
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, message string, image *ai.ImagePayload) (*domain.ClassificationResult, error) {
	return s.result, s.err
}

type stubRepo struct {
	mu        sync.Mutex
	inserted  []*domain.FeedbackRecord
	records   map[int64]*domain.FeedbackRecord
	insertErr error
	nextID    int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{records: make(map[int64]*domain.FeedbackRecord)}
}

func (s *stubRepo) Insert(ctx context.Context, record *domain.FeedbackRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	record.ID = s.nextID
	s.inserted = append(s.inserted, record)
	s.records[record.ID] = record
	return s.nextID, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id int64) (*domain.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id], nil
}

func (s *stubRepo) List(ctx context.Context, limit, offset int, status domain.Status) ([]*domain.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.FeedbackRecord
	for _, r := range s.inserted {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return errors.New("not found")
	}
	r.Status = status
	return nil
}

func (s *stubRepo) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

type stubBlobs struct{}

func (stubBlobs) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	return "/uploads/test.png", nil
}

type stubNotifier struct {
	mu    sync.Mutex
	count int
}

func (s *stubNotifier) Dispatch(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
}

type fixture struct {
	router     *gin.Engine
	repo       *stubRepo
	classifier *stubClassifier
	notifier   *stubNotifier
}

func newFixture(t *testing.T, rateLimit int) *fixture {
	t.Helper()

	f := &fixture{
		repo:       newStubRepo(),
		classifier: &stubClassifier{err: domain.ErrAINotConfigured},
		notifier:   &stubNotifier{},
	}

	limiter := ratelimit.New(rateLimit, time.Minute, zap.NewNop())
	t.Cleanup(limiter.Stop)

	ingestor := service.NewIngestor(
		limiter, f.classifier, f.repo, stubBlobs{}, f.notifier,
		service.IngestorConfig{MaxScreenshotBytes: 5 * 1024 * 1024},
		zap.NewNop(),
	)

	h := NewFeedbackHandler(ingestor, f.repo, FeedbackHandlerConfig{
		MaxScreenshotBytes: 5 * 1024 * 1024,
		FallbackIdentity:   "unknown",
	}, zap.NewNop())

	router := gin.New()
	router.POST("/api/feedback", h.HandleSubmit)
	router.GET("/api/feedback", h.HandleList)
	router.GET("/api/feedback/:id", h.HandleGet)
	router.PATCH("/api/feedback/:id/status", h.HandleUpdateStatus)
	f.router = router
	return f
}

func multipartBody(t *testing.T, fields map[string]string, screenshot []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if screenshot != nil {
		part, err := writer.CreateFormFile("screenshot", "shot.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(screenshot)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func submit(t *testing.T, f *fixture, fields map[string]string, screenshot []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, screenshot)
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", body)
	req.Header.Set("Content-Type", contentType)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestHandleSubmit_Success(t *testing.T) {
	f := newFixture(t, 10)
	f.classifier.result = &domain.ClassificationResult{
		Title:             "Export broken",
		Summary:           "Export button does nothing",
		SuggestedCategory: domain.CategoryBug,
		FeatureArea:       "reports",
		SuggestedPriority: domain.PriorityHigh,
		Confidence:        0.9,
	}
	f.classifier.err = nil

	w := submit(t, f, map[string]string{"message": "Export button does nothing"}, nil, map[string]string{
		"X-Forwarded-For": "203.0.113.9",
		"Origin":          "https://app.example.com",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID     int64 `json:"id"`
		AIData *struct {
			SuggestedCategory string `json:"suggested_category"`
			SuggestedPriority string `json:"suggested_priority"`
		} `json:"ai_data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.ID != 1 {
		t.Errorf("id = %d, want 1", resp.ID)
	}
	if resp.AIData == nil {
		t.Fatal("ai_data should be present")
	}
	if resp.AIData.SuggestedCategory != "bug" {
		t.Errorf("ai_data.suggested_category = %s, want bug", resp.AIData.SuggestedCategory)
	}
	if resp.AIData.SuggestedPriority != "high" {
		t.Errorf("ai_data.suggested_priority = %s, want high", resp.AIData.SuggestedPriority)
	}

	if f.repo.insertCount() != 1 {
		t.Errorf("inserted %d records, want 1", f.repo.insertCount())
	}
	if f.repo.inserted[0].Status != domain.StatusNew {
		t.Errorf("persisted status = %s, want new", f.repo.inserted[0].Status)
	}
	if f.repo.inserted[0].OriginURL != "https://app.example.com" {
		t.Errorf("origin = %s, want the Origin header", f.repo.inserted[0].OriginURL)
	}
}

func TestHandleSubmit_AIFailureStillPersists(t *testing.T) {
	f := newFixture(t, 10)
	f.classifier.err = domain.ErrAIUnavailable

	w := submit(t, f, map[string]string{"message": "something broke"}, nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ai_data":null`) {
		t.Errorf("ai_data should be null, body: %s", w.Body.String())
	}
	if f.repo.insertCount() != 1 {
		t.Error("record should persist despite AI failure")
	}
}

func TestHandleSubmit_MissingMessage(t *testing.T) {
	f := newFixture(t, 10)

	for _, message := range []string{"", "   "} {
		w := submit(t, f, map[string]string{"message": message}, nil, nil)

		if w.Code != http.StatusBadRequest {
			t.Errorf("message %q: status = %d, want 400", message, w.Code)
		}
		if !strings.Contains(w.Body.String(), "message required") {
			t.Errorf("message %q: body = %s, want reason 'message required'", message, w.Body.String())
		}
	}

	if f.repo.insertCount() != 0 {
		t.Error("invalid submissions must not persist")
	}
}

func TestHandleSubmit_Honeypot(t *testing.T) {
	f := newFixture(t, 10)

	w := submit(t, f, map[string]string{
		"message": "buy cheap watches",
		"website": "https://spam.example.com",
	}, nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("honeypot hit must look like success, got %d", w.Code)
	}

	var resp domain.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.ID <= 0 {
		t.Error("honeypot response should carry a plausible id")
	}

	if f.repo.insertCount() != 0 {
		t.Error("honeypot hit must not persist a record")
	}
	if f.notifier.count != 0 {
		t.Error("honeypot hit must not notify")
	}
}

func TestHandleSubmit_RateLimited(t *testing.T) {
	f := newFixture(t, 10)
	headers := map[string]string{"X-Forwarded-For": "198.51.100.7"}

	for i := 0; i < 10; i++ {
		w := submit(t, f, map[string]string{"message": "hello"}, nil, headers)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	w := submit(t, f, map[string]string{"message": "hello"}, nil, headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("11th request: status = %d, want 429", w.Code)
	}
	if !strings.Contains(w.Body.String(), "too many requests") {
		t.Errorf("body = %s, want reason 'too many requests'", w.Body.String())
	}
}

func TestHandleSubmit_DistinctIdentitiesNotLimitedTogether(t *testing.T) {
	f := newFixture(t, 1)

	w1 := submit(t, f, map[string]string{"message": "a"}, nil, map[string]string{"X-Forwarded-For": "10.0.0.1"})
	w2 := submit(t, f, map[string]string{"message": "b"}, nil, map[string]string{"X-Forwarded-For": "10.0.0.2"})

	if w1.Code != http.StatusOK || w2.Code != http.StatusOK {
		t.Errorf("distinct identities should not share a budget: %d, %d", w1.Code, w2.Code)
	}
}

func TestHandleSubmit_StorageFailure(t *testing.T) {
	f := newFixture(t, 10)
	f.repo.insertErr = errors.New("disk full")

	w := submit(t, f, map[string]string{"message": "hello"}, nil, nil)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "failed to save") {
		t.Errorf("body = %s, want reason 'failed to save'", w.Body.String())
	}
	if f.notifier.count != 0 {
		t.Error("storage failure must not notify")
	}
}

func TestHandleSubmit_WithScreenshot(t *testing.T) {
	f := newFixture(t, 10)

	w := submit(t, f, map[string]string{"message": "layout broken"}, []byte{0x89, 0x50, 0x4E, 0x47}, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if f.repo.inserted[0].ScreenshotRef != "/uploads/test.png" {
		t.Errorf("screenshot ref = %q, want blob reference", f.repo.inserted[0].ScreenshotRef)
	}
}

func TestHandleList(t *testing.T) {
	f := newFixture(t, 10)

	submit(t, f, map[string]string{"message": "one"}, nil, nil)
	submit(t, f, map[string]string{"message": "two"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/feedback", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var records []*domain.FeedbackRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestHandleGet(t *testing.T) {
	f := newFixture(t, 10)
	submit(t, f, map[string]string{"message": "one"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/feedback/1", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("existing record: status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/feedback/99", nil)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing record: status = %d, want 404", w.Code)
	}
}

func TestHandleUpdateStatus(t *testing.T) {
	f := newFixture(t, 10)
	submit(t, f, map[string]string{"message": "one"}, nil, nil)

	body := strings.NewReader(`{"status":"resolved"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/feedback/1/status", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if f.repo.records[1].Status != domain.StatusResolved {
		t.Errorf("record status = %s, want resolved", f.repo.records[1].Status)
	}

	body = strings.NewReader(`{"status":"bogus"}`)
	req = httptest.NewRequest(http.MethodPatch, "/api/feedback/1/status", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid status: status = %d, want 400", w.Code)
	}
}
