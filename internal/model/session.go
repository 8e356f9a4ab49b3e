package model

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

type SessionType string

const (
	SessionTypeViva  SessionType = "viva"
	SessionTypeLearn SessionType = "learn"
)

// VivaFeedback is the structured result attached to a session when the
// model concludes it. Score is 0..10. Present iff status is completed.
type VivaFeedback struct {
	Score              int      `json:"score" bson:"score"`
	Summary            string   `json:"summary" bson:"summary"`
	StrongPoints       []string `json:"strongPoints" bson:"strongPoints"`
	AreasOfImprovement []string `json:"areasOfImprovement" bson:"areasOfImprovement"`
}

// VivaTurn is one question/answer exchange recorded by the multi-tool
// protocol. Turns are append-only; TurnID starts at 1 with no gaps.
type VivaTurn struct {
	TurnID        int       `json:"turnId" bson:"turnId"`
	QuestionText  string    `json:"questionText" bson:"questionText"`
	Difficulty    int       `json:"difficulty" bson:"difficulty"`
	QuestionID    string    `json:"questionId,omitempty" bson:"questionId,omitempty"`
	StudentAnswer string    `json:"studentAnswer,omitempty" bson:"studentAnswer,omitempty"`
	AIEvaluation  string    `json:"aiEvaluation,omitempty" bson:"aiEvaluation,omitempty"`
	IsCorrect     *bool     `json:"isCorrect,omitempty" bson:"isCorrect,omitempty"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
}

// VivaSession is one oral-exam attempt, owned by the user who started
// it. UserID is stamped from the verified token at creation, never
// from client input.
type VivaSession struct {
	ID          string        `json:"id" bson:"_id,omitempty"`
	UserID      string        `json:"userId" bson:"userId"`
	StudentName string        `json:"studentName" bson:"studentName"`
	Title       string        `json:"title" bson:"title"`
	Topic       string        `json:"topic" bson:"topic"`
	ClassLevel  int           `json:"classLevel" bson:"classLevel"`
	SessionType SessionType   `json:"sessionType" bson:"sessionType"`
	StartedAt   time.Time     `json:"startedAt" bson:"startedAt"`
	EndedAt     *time.Time    `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
	Status      SessionStatus `json:"status" bson:"status"`
	Feedback    *VivaFeedback `json:"feedback,omitempty" bson:"feedback,omitempty"`
	Turns       []VivaTurn    `json:"turns,omitempty" bson:"turns,omitempty"`
}
