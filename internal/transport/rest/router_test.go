package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"veenoe/internal/config"
	"veenoe/internal/model"
	"veenoe/internal/service"
	"veenoe/internal/transport/ws"
)

// stubVerifier resolves fixed bearer tokens to users.
type stubVerifier map[string]*model.AuthenticatedUser

func (v stubVerifier) VerifyToken(token string) (*model.AuthenticatedUser, error) {
	if user, ok := v[token]; ok {
		return user, nil
	}
	return nil, service.ErrInvalidToken
}

// stubLimiter allows or denies everything.
type stubLimiter struct{ deny bool }

func (l *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return !l.deny, nil
}

// memSessionRepo is an in-memory session store that counts reads, so
// tests can prove malformed ids never reach the store.
type memSessionRepo struct {
	sessions map[string]*model.VivaSession
	getCalls int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.VivaSession)}
}

func (r *memSessionRepo) Create(ctx context.Context, s *model.VivaSession) error {
	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}
	copied := *s
	r.sessions[s.ID] = &copied
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*model.VivaSession, error) {
	r.getCalls++
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memSessionRepo) GetByUser(ctx context.Context, userID string) ([]*model.VivaSession, error) {
	var result []*model.VivaSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			copied := *s
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memSessionRepo) Rename(ctx context.Context, id, title string) error {
	if s, ok := r.sessions[id]; ok {
		s.Title = title
	}
	return nil
}

func (r *memSessionRepo) AppendTurn(ctx context.Context, id string, turn model.VivaTurn) error {
	if s, ok := r.sessions[id]; ok {
		s.Turns = append(s.Turns, turn)
	}
	return nil
}

func (r *memSessionRepo) Conclude(ctx context.Context, id string, feedback *model.VivaFeedback, endedAt time.Time) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionInProgress {
		return false, nil
	}
	s.Status = model.SessionCompleted
	s.Feedback = feedback
	s.EndedAt = &endedAt
	return true, nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

// memQuestionRepo serves nothing; bank endpoints are not under test.
type memQuestionRepo struct{}

func (r *memQuestionRepo) Create(ctx context.Context, q *model.QuestionBankEntry) error { return nil }
func (r *memQuestionRepo) FindByDifficulty(ctx context.Context, topic string, classLevel, difficulty int, excluding []string) (*model.QuestionBankEntry, error) {
	return nil, nil
}
func (r *memQuestionRepo) FindAny(ctx context.Context, topic string, classLevel int, excluding []string) (*model.QuestionBankEntry, error) {
	return nil, nil
}

type stubProvisioner struct{ fail bool }

func (p *stubProvisioner) CreateEphemeralToken(ctx context.Context, contract *model.LiveContract) (*model.TokenGrant, error) {
	if p.fail {
		return nil, errors.New("upstream down")
	}
	return &model.TokenGrant{
		Token:          "ephemeral-token",
		ModelName:      contract.Model,
		VoiceName:      contract.VoiceName,
		SessionMinutes: contract.SessionMinutes,
	}, nil
}

type testEnv struct {
	router      http.Handler
	sessions    *memSessionRepo
	provisioner *stubProvisioner
	limiter     *stubLimiter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sessions := newMemSessionRepo()
	provisioner := &stubProvisioner{}
	limiter := &stubLimiter{}

	aiCfg := &config.AIConfig{
		LiveModel:      "gemini-live-test",
		DefaultVoice:   "Kore",
		SessionMinutes: 5,
		Protocol:       config.ProtocolSingleCall,
	}
	vivaSvc := service.NewVivaService(
		sessions,
		&memQuestionRepo{},
		service.NewContractBuilder(aiCfg),
		provisioner,
		nil,
		nil,
	)

	verifier := stubVerifier{
		"owner-token":    {UserID: "user_owner"},
		"stranger-token": {UserID: "user_stranger"},
	}

	router := NewRouter(&Container{
		Config:      &config.Config{},
		Verifier:    verifier,
		VivaService: vivaSvc,
		RateLimiter: limiter,
		WSHub:       ws.NewHub(),
	})

	return &testEnv{router: router, sessions: sessions, provisioner: provisioner, limiter: limiter}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedSession(t *testing.T, userID string) string {
	t.Helper()
	session := &model.VivaSession{
		UserID:      userID,
		StudentName: "Ada",
		Title:       "Python Programming",
		Topic:       "Python Programming",
		ClassLevel:  10,
		SessionType: model.SessionTypeViva,
		StartedAt:   time.Now().UTC(),
		Status:      model.SessionInProgress,
	}
	if err := e.sessions.Create(context.Background(), session); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return session.ID
}

func TestMalformedSessionIDRejectedWithoutStoreCall(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/v1/viva/not-a-valid-objectid-0000", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.sessions.getCalls != 0 {
		t.Errorf("store queried %d times for malformed id", env.sessions.getCalls)
	}
}

func TestGetDetailsIsPublic(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSession(t, "user_owner")

	// No Authorization header at all.
	rec := env.do(t, "GET", "/api/v1/viva/"+id, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var session model.VivaSession
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.ID != id || session.Status != model.SessionInProgress {
		t.Errorf("session = %+v", session)
	}
}

func TestGetDetailsNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/v1/viva/"+primitive.NewObjectID().Hex(), "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestStartRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/v1/viva/start", "", `{"studentName":"Ada","topic":"Python Programming","classLevel":10}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestStartHappyPath(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/v1/viva/start", "owner-token", `{"studentName":"Ada","topic":"Python Programming","classLevel":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.StartVivaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.EphemeralToken != "ephemeral-token" {
		t.Errorf("token = %q", resp.EphemeralToken)
	}
	if resp.VivaSessionID == "" {
		t.Error("no session id returned")
	}
	if env.sessions.sessions[resp.VivaSessionID].UserID != "user_owner" {
		t.Error("session not stamped with verified principal")
	}
}

func TestStartValidation(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"missing student": `{"topic":"Python Programming","classLevel":10}`,
		"missing topic":   `{"studentName":"Ada","classLevel":10}`,
		"zero class":      `{"studentName":"Ada","topic":"Python Programming"}`,
		"bad type":        `{"studentName":"Ada","topic":"Python Programming","classLevel":10,"sessionType":"quiz"}`,
	} {
		rec := env.do(t, "POST", "/api/v1/viva/start", "owner-token", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestStartProvisioningFailureReturnsOrphanID(t *testing.T) {
	env := newTestEnv(t)
	env.provisioner.fail = true

	rec := env.do(t, "POST", "/api/v1/viva/start", "owner-token", `{"studentName":"Ada","topic":"Python Programming","classLevel":10}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	orphanID := resp["vivaSessionId"]
	if orphanID == "" {
		t.Fatal("no orphan session id in 502 response")
	}
	if env.sessions.sessions[orphanID] == nil {
		t.Error("orphan session not persisted")
	}
}

func TestStartRateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.limiter.deny = true

	rec := env.do(t, "POST", "/api/v1/viva/start", "owner-token", `{"studentName":"Ada","topic":"Python Programming","classLevel":10}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestConcludeErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSession(t, "user_owner")

	// Score outside 0..10.
	rec := env.do(t, "POST", "/api/v1/viva/conclude-viva", "owner-token",
		`{"vivaSessionId":"`+id+`","score":11,"summary":"s"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad score: status = %d, want 400", rec.Code)
	}

	// Non-owner: forbidden, no detail about the record.
	rec = env.do(t, "POST", "/api/v1/viva/conclude-viva", "stranger-token",
		`{"vivaSessionId":"`+id+`","score":5,"summary":"s"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner: status = %d, want 403", rec.Code)
	}

	// Owner succeeds.
	rec = env.do(t, "POST", "/api/v1/viva/conclude-viva", "owner-token",
		`{"vivaSessionId":"`+id+`","score":8,"summary":"Good grasp of loops","strongPoints":["loops"],"areasOfImprovement":["recursion"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner conclude: status = %d: %s", rec.Code, rec.Body.String())
	}

	// Second conclusion conflicts.
	rec = env.do(t, "POST", "/api/v1/viva/conclude-viva", "owner-token",
		`{"vivaSessionId":"`+id+`","score":2,"summary":"again"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("second conclude: status = %d, want 409", rec.Code)
	}

	// Missing session.
	rec = env.do(t, "POST", "/api/v1/viva/conclude-viva", "owner-token",
		`{"vivaSessionId":"`+primitive.NewObjectID().Hex()+`","score":5,"summary":"s"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}
}

func TestRenameForbiddenForNonOwner(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSession(t, "user_owner")

	rec := env.do(t, "PATCH", "/api/v1/viva/"+id+"/rename", "stranger-token", `{"newTitle":"Hijacked"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if env.sessions.sessions[id].Title != "Python Programming" {
		t.Error("title changed by forbidden rename")
	}

	rec = env.do(t, "PATCH", "/api/v1/viva/"+id+"/rename", "owner-token", `{"newTitle":"Midterm Viva"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner rename: status = %d", rec.Code)
	}
	if env.sessions.sessions[id].Title != "Midterm Viva" {
		t.Error("title not updated by owner rename")
	}
}

func TestDeleteThenGetDetailsNotFound(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSession(t, "user_owner")

	rec := env.do(t, "DELETE", "/api/v1/viva/"+id, "owner-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	rec = env.do(t, "GET", "/api/v1/viva/"+id, "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestHistoryScopedToCaller(t *testing.T) {
	env := newTestEnv(t)
	env.seedSession(t, "user_owner")
	env.seedSession(t, "user_owner")
	env.seedSession(t, "user_stranger")

	rec := env.do(t, "GET", "/api/v1/viva/history", "owner-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(resp.Sessions))
	}
}

func TestEvaluateAnswerValidatesDifficulty(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSession(t, "user_owner")

	rec := env.do(t, "POST", "/api/v1/viva/evaluate-answer", "owner-token",
		`{"vivaSessionId":"`+id+`","questionText":"q","difficulty":7,"studentAnswer":"a","evaluation":"ok"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = env.do(t, "POST", "/api/v1/viva/evaluate-answer", "owner-token",
		`{"vivaSessionId":"`+id+`","questionText":"q","difficulty":3,"studentAnswer":"a","evaluation":"ok"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp model.EvaluateAnswerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TurnID != 1 {
		t.Errorf("turnId = %d, want 1", resp.TurnID)
	}
}

func TestNextQuestionExhaustedBankIs404(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSession(t, "user_owner")

	rec := env.do(t, "POST", "/api/v1/viva/next-question", "owner-token",
		`{"vivaSessionId":"`+id+`","topic":"Python Programming","classLevel":10,"difficulty":2}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthRootAlive(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
