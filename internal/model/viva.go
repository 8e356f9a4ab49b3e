package model

import "time"

// StartVivaRequest is the request body for starting a session.
type StartVivaRequest struct {
	StudentName string      `json:"studentName"`
	Topic       string      `json:"topic"`
	ClassLevel  int         `json:"classLevel"`
	SessionType SessionType `json:"sessionType,omitempty"`
	VoiceName   string      `json:"voiceName,omitempty"`
}

// StartVivaResponse carries the session id and the live-connection
// parameters for the client.
type StartVivaResponse struct {
	VivaSessionID  string `json:"vivaSessionId"`
	EphemeralToken string `json:"ephemeralToken"`
	Model          string `json:"model"`
	SessionMinutes int    `json:"sessionDurationMinutes"`
	VoiceName      string `json:"voiceName"`
}

// ConcludeVivaRequest is the relayed conclude_viva tool call.
type ConcludeVivaRequest struct {
	VivaSessionID      string   `json:"vivaSessionId"`
	Score              int      `json:"score"`
	Summary            string   `json:"summary"`
	StrongPoints       []string `json:"strongPoints"`
	AreasOfImprovement []string `json:"areasOfImprovement"`
}

// ConcludeVivaResponse confirms completion.
type ConcludeVivaResponse struct {
	Status        string `json:"status"`
	Score         int    `json:"score"`
	FinalFeedback string `json:"finalFeedback"`
}

// SessionSummary is the lightweight history entry.
type SessionSummary struct {
	VivaSessionID string        `json:"vivaSessionId"`
	Title         string        `json:"title"`
	Topic         string        `json:"topic"`
	ClassLevel    int           `json:"classLevel"`
	StartedAt     time.Time     `json:"startedAt"`
	SessionType   SessionType   `json:"sessionType"`
	Status        SessionStatus `json:"status"`
}

// HistoryResponse wraps a user's session summaries.
type HistoryResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// RenameSessionRequest is the request body for renaming a session.
type RenameSessionRequest struct {
	NewTitle string `json:"newTitle"`
}

// NextQuestionRequest is the relayed get_next_question tool call.
type NextQuestionRequest struct {
	VivaSessionID string `json:"vivaSessionId"`
	Topic         string `json:"topic"`
	ClassLevel    int    `json:"classLevel"`
	Difficulty    int    `json:"difficulty"`
}

// NextQuestionResponse returns the selected bank question.
type NextQuestionResponse struct {
	QuestionText string `json:"questionText"`
	Difficulty   int    `json:"difficulty"`
	QuestionID   string `json:"questionId"`
}

// EvaluateAnswerRequest is the relayed evaluate_and_save tool call.
type EvaluateAnswerRequest struct {
	VivaSessionID string `json:"vivaSessionId"`
	QuestionText  string `json:"questionText"`
	Difficulty    int    `json:"difficulty"`
	QuestionID    string `json:"questionId,omitempty"`
	StudentAnswer string `json:"studentAnswer"`
	Evaluation    string `json:"evaluation"`
	IsCorrect     *bool  `json:"isCorrect,omitempty"`
}

// EvaluateAnswerResponse acknowledges the recorded turn.
type EvaluateAnswerResponse struct {
	TurnID int `json:"turnId"`
}
