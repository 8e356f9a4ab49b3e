package model

// QuestionBankEntry is a pre-authored exam question. The bank is read
// by the multi-tool protocol and never mutated during a session.
type QuestionBankEntry struct {
	ID           string   `json:"id" bson:"_id,omitempty"`
	Topic        string   `json:"topic" bson:"topic"`
	ClassLevel   int      `json:"classLevel" bson:"classLevel"`
	Difficulty   int      `json:"difficulty" bson:"difficulty"` // 1..5
	QuestionText string   `json:"questionText" bson:"questionText"`
	Keywords     []string `json:"expectedAnswerKeywords,omitempty" bson:"expectedAnswerKeywords,omitempty"`
}
