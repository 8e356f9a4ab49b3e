package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"veenoe/internal/cache"
	"veenoe/internal/model"
	"veenoe/internal/repository"
)

var (
	ErrSessionNotFound  = errors.New("viva session not found")
	ErrForbidden        = errors.New("forbidden")
	ErrSessionNotActive = errors.New("viva session is not in progress")
	ErrNoQuestions      = errors.New("no questions available")
)

// ProvisioningError reports a failed token issuance for a session that
// was already persisted. The session is NOT rolled back: it stays
// in_progress with no credential, and the owner can retry or delete it.
type ProvisioningError struct {
	SessionID string
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("token provisioning failed for session %s: %v", e.SessionID, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// VivaService owns the session lifecycle: starting sessions, applying
// the model's relayed tool calls, and the owner-scoped administrative
// operations. It is the only writer of session records.
//
// Concurrent mutations of the same session are serialized only as far
// as Mongo's single-document atomic updates go: conclusion uses a
// conditional update and turn append uses $push, but the turn_id
// assignment reads then writes and can collide under concurrent
// evaluate_and_save calls for one session.
type VivaService struct {
	sessions  repository.SessionRepo
	questions repository.QuestionRepo
	contracts *ContractBuilder
	tokens    TokenProvisioner
	cache     cache.SessionCache
	events    Broadcaster
}

func NewVivaService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	contracts *ContractBuilder,
	tokens TokenProvisioner,
	sessionCache cache.SessionCache,
	events Broadcaster,
) *VivaService {
	return &VivaService{
		sessions:  sessions,
		questions: questions,
		contracts: contracts,
		tokens:    tokens,
		cache:     sessionCache,
		events:    events,
	}
}

// StartViva persists a new in_progress session owned by user, then
// provisions an ephemeral live token scoped to the session's contract.
// The session is persisted first so the credential always references
// a real record; a provisioning failure leaves the session in place.
func (s *VivaService) StartViva(ctx context.Context, req *model.StartVivaRequest, user *model.AuthenticatedUser) (*model.StartVivaResponse, error) {
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = model.SessionTypeViva
	}

	session := &model.VivaSession{
		UserID:      user.UserID,
		StudentName: req.StudentName,
		Title:       req.Topic,
		Topic:       req.Topic,
		ClassLevel:  req.ClassLevel,
		SessionType: sessionType,
		StartedAt:   time.Now().UTC(),
		Status:      model.SessionInProgress,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	contract := s.contracts.Build(req)

	grant, err := s.tokens.CreateEphemeralToken(ctx, contract)
	if err != nil {
		log.Printf("Token provisioning failed for session %s: %v", session.ID, err)
		return nil, &ProvisioningError{SessionID: session.ID, Err: err}
	}

	return &model.StartVivaResponse{
		VivaSessionID:  session.ID,
		EphemeralToken: grant.Token,
		Model:          grant.ModelName,
		SessionMinutes: grant.SessionMinutes,
		VoiceName:      grant.VoiceName,
	}, nil
}

// ConcludeViva applies the conclude_viva tool call. Only the owner may
// conclude, and only once: a second attempt fails with
// ErrSessionNotActive and leaves the record untouched.
func (s *VivaService) ConcludeViva(ctx context.Context, req *model.ConcludeVivaRequest, user *model.AuthenticatedUser) (*model.ConcludeVivaResponse, error) {
	session, err := s.sessions.GetByID(ctx, req.VivaSessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != user.UserID {
		return nil, ErrForbidden
	}
	if session.Status != model.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	feedback := &model.VivaFeedback{
		Score:              req.Score,
		Summary:            req.Summary,
		StrongPoints:       req.StrongPoints,
		AreasOfImprovement: req.AreasOfImprovement,
	}

	ok, err := s.sessions.Conclude(ctx, session.ID, feedback, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to another conclusion.
		return nil, ErrSessionNotActive
	}

	s.invalidate(ctx, session.ID)
	s.publish(session.ID, "session_concluded", map[string]interface{}{
		"score":   feedback.Score,
		"summary": feedback.Summary,
	})

	return &model.ConcludeVivaResponse{
		Status:        string(model.SessionCompleted),
		Score:         req.Score,
		FinalFeedback: req.Summary,
	}, nil
}

// GetSessionDetails returns the full session view. Deliberately not
// ownership-checked so session links can be shared.
func (s *VivaService) GetSessionDetails(ctx context.Context, sessionID string) (*model.VivaSession, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, sessionID); err == nil && cached != nil {
			return cached, nil
		}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, session); err != nil {
			log.Printf("Session cache set failed for %s: %v", sessionID, err)
		}
	}

	return session, nil
}

// GetUserHistory returns the caller's sessions, most recent first.
func (s *VivaService) GetUserHistory(ctx context.Context, userID string) ([]model.SessionSummary, error) {
	sessions, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	history := make([]model.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		history = append(history, model.SessionSummary{
			VivaSessionID: session.ID,
			Title:         session.Title,
			Topic:         session.Topic,
			ClassLevel:    session.ClassLevel,
			StartedAt:     session.StartedAt,
			SessionType:   session.SessionType,
			Status:        session.Status,
		})
	}

	return history, nil
}

// RenameSession updates the title. Owner only.
func (s *VivaService) RenameSession(ctx context.Context, sessionID, newTitle string, user *model.AuthenticatedUser) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.UserID != user.UserID {
		return ErrForbidden
	}

	if err := s.sessions.Rename(ctx, sessionID, newTitle); err != nil {
		return err
	}

	s.invalidate(ctx, sessionID)
	s.publish(sessionID, "session_renamed", map[string]string{"title": newTitle})
	return nil
}

// DeleteSession permanently removes the session. Owner only,
// irreversible.
func (s *VivaService) DeleteSession(ctx context.Context, sessionID string, user *model.AuthenticatedUser) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.UserID != user.UserID {
		return ErrForbidden
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.invalidate(ctx, sessionID)
	if s.events != nil {
		s.events.DisconnectSession(sessionID)
	}
	return nil
}

// NextQuestion selects an unasked bank question for the session,
// preferring the requested difficulty and falling back to any
// difficulty for the topic and class level.
func (s *VivaService) NextQuestion(ctx context.Context, req *model.NextQuestionRequest) (*model.NextQuestionResponse, error) {
	session, err := s.sessions.GetByID(ctx, req.VivaSessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	asked := askedQuestionIDs(session)

	question, err := s.questions.FindByDifficulty(ctx, req.Topic, req.ClassLevel, req.Difficulty, asked)
	if err != nil {
		return nil, err
	}
	if question == nil {
		question, err = s.questions.FindAny(ctx, req.Topic, req.ClassLevel, asked)
		if err != nil {
			return nil, err
		}
	}
	if question == nil {
		return nil, ErrNoQuestions
	}

	return &model.NextQuestionResponse{
		QuestionText: question.QuestionText,
		Difficulty:   question.Difficulty,
		QuestionID:   question.ID,
	}, nil
}

// EvaluateAndSave appends one turn to the session. Turns are never
// rewritten; repeated calls for the same question append again —
// deduplication is the agent's job, not ours.
func (s *VivaService) EvaluateAndSave(ctx context.Context, req *model.EvaluateAnswerRequest) (*model.EvaluateAnswerResponse, error) {
	session, err := s.sessions.GetByID(ctx, req.VivaSessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	turn := model.VivaTurn{
		TurnID:        len(session.Turns) + 1,
		QuestionText:  req.QuestionText,
		Difficulty:    req.Difficulty,
		QuestionID:    req.QuestionID,
		StudentAnswer: req.StudentAnswer,
		AIEvaluation:  req.Evaluation,
		IsCorrect:     req.IsCorrect,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.sessions.AppendTurn(ctx, session.ID, turn); err != nil {
		return nil, err
	}

	s.invalidate(ctx, session.ID)
	s.publish(session.ID, "turn_recorded", map[string]interface{}{
		"turnId":       turn.TurnID,
		"questionText": turn.QuestionText,
		"difficulty":   turn.Difficulty,
	})

	return &model.EvaluateAnswerResponse{TurnID: turn.TurnID}, nil
}

func (s *VivaService) invalidate(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		log.Printf("Session cache invalidation failed for %s: %v", sessionID, err)
	}
}

func (s *VivaService) publish(sessionID, msgType string, payload interface{}) {
	if s.events != nil {
		s.events.BroadcastToSession(sessionID, msgType, payload)
	}
}

func askedQuestionIDs(session *model.VivaSession) []string {
	var ids []string
	for _, turn := range session.Turns {
		if turn.QuestionID != "" {
			ids = append(ids, turn.QuestionID)
		}
	}
	return ids
}
