package service

import (
	"fmt"

	"veenoe/internal/config"
	"veenoe/internal/model"
)

// ContractBuilder assembles the behavioral contract for a session: the
// system instruction, the declared tool surface and the modality
// configuration. It is pure — same inputs, same contract — so token
// requests and tests are reproducible. Secrets never enter the
// instruction text.
type ContractBuilder struct {
	liveModel      string
	defaultVoice   string
	sessionMinutes int
	protocol       config.Protocol
}

func NewContractBuilder(cfg *config.AIConfig) *ContractBuilder {
	return &ContractBuilder{
		liveModel:      cfg.LiveModel,
		defaultVoice:   cfg.DefaultVoice,
		sessionMinutes: cfg.SessionMinutes,
		protocol:       cfg.Protocol,
	}
}

// Build returns the contract for one session.
func (b *ContractBuilder) Build(req *model.StartVivaRequest) *model.LiveContract {
	voice := req.VoiceName
	if voice == "" {
		voice = b.defaultVoice
	}

	return &model.LiveContract{
		Model:              b.liveModel,
		SystemInstruction:  b.buildInstruction(req),
		Tools:              b.buildTools(),
		ResponseModalities: []string{"AUDIO"},
		VoiceName:          voice,
		SessionMinutes:     b.sessionMinutes,
	}
}

func (b *ContractBuilder) buildInstruction(req *model.StartVivaRequest) string {
	role := "an expert oral examiner conducting a Viva (oral exam) for a student"
	if req.SessionType == model.SessionTypeLearn {
		role = "a patient oral tutor running a guided learning conversation with a student"
	}

	questioning := `2.  **Questioning**: Ask **one question at a time**.
    -   Generate questions dynamically based on the topic and class level.
    -   Keep questions conversational but academically rigorous.
    -   Start with fundamental concepts. If answered correctly, increase difficulty.
    -   If the student struggles, provide a small hint or ask a simpler follow-up.`
	if b.protocol == config.ProtocolMultiTool {
		questioning = `2.  **Questioning**: Ask **one question at a time**.
    -   Before asking each question, call the ` + "`get_next_question`" + ` tool with the difficulty you want (1-5) and read its question to the student.
    -   After the student answers, call the ` + "`evaluate_and_save`" + ` tool with the question, the student's answer, your evaluation and whether it was correct.
    -   Start at difficulty 1-2. If answered correctly, request higher difficulty.
    -   If the student struggles, provide a small hint or request an easier question.`
	}

	return fmt.Sprintf(`You are %s.

**Student Name:** %s
**Topic:** %s
**Class Level:** %d
**Session Duration:** %d minutes maximum

**Your Role & Protocol:**
1.  **Welcome**: Start by welcoming the student and stating the topic clearly.
%s
3.  **Evaluation (Internal)**: You must mentally track their performance.
    -   Start with a baseline score of 10/10.
    -   Deduct points for factual errors, inability to explain concepts, or requiring too many hints.
    -   Note down specific strengths and weaknesses as you go.
4.  **Conclusion**: After asking 5-7 questions OR if the user indicates they want to stop (e.g., "End viva"), you MUST conclude the session in **two steps**:
    a.  **First, speak your conclusion out loud.** Thank the student for their time, give a brief verbal summary of how they did (e.g., "You demonstrated a solid understanding of X and Y. I'd suggest reviewing Z for next time."), and say a warm goodbye.
    b.  **Then, immediately after you finish speaking, call the `+"`conclude_viva`"+` tool** with the final score and detailed written feedback.

**Strict Rules:**
-   **DO NOT** provide a running score after every question.
-   **DO NOT** say "Correct" or "Incorrect" robotically. Respond naturally (e.g., "That's a great point, but have you considered...").
-   When using `+"`conclude_viva`"+`, ensure the `+"`strong_points`"+` and `+"`areas_of_improvement`"+` are specific to the topics discussed, not generic advice.
-   **CRITICAL:** You MUST speak your concluding remarks BEFORE calling the `+"`conclude_viva`"+` tool. Do not call the tool silently.`,
		role, req.StudentName, req.Topic, req.ClassLevel, b.sessionMinutes, questioning)
}

func (b *ContractBuilder) buildTools() []model.ToolDeclaration {
	tools := []model.ToolDeclaration{concludeVivaTool}
	if b.protocol == config.ProtocolMultiTool {
		tools = append(tools, nextQuestionTool, evaluateAndSaveTool)
	}
	return tools
}

var concludeVivaTool = model.ToolDeclaration{
	Name:        "conclude_viva",
	Description: "Call this tool to END the viva session. You MUST provide a score, summary, strengths, and areas for improvement.",
	Parameters: model.Schema{
		Type: "OBJECT",
		Properties: map[string]model.Schema{
			"score": {
				Type:        "INTEGER",
				Description: "Final score out of 10 based on technical accuracy and communication.",
			},
			"summary": {
				Type:        "STRING",
				Description: "A polite closing statement and final performance summary.",
			},
			"strong_points": {
				Type:        "ARRAY",
				Items:       &model.Schema{Type: "STRING"},
				Description: "List of 2-3 specific concepts the student demonstrated strong understanding of.",
			},
			"areas_of_improvement": {
				Type:        "ARRAY",
				Items:       &model.Schema{Type: "STRING"},
				Description: "List of 2-3 specific topics the student needs to improve.",
			},
		},
		Required: []string{"score", "summary", "strong_points", "areas_of_improvement"},
	},
}

var nextQuestionTool = model.ToolDeclaration{
	Name:        "get_next_question",
	Description: "Fetch the next question from the question bank. Call this BEFORE asking each question.",
	Parameters: model.Schema{
		Type: "OBJECT",
		Properties: map[string]model.Schema{
			"difficulty": {
				Type:        "INTEGER",
				Description: "Desired difficulty from 1 (easiest) to 5 (hardest).",
			},
		},
		Required: []string{"difficulty"},
	},
}

var evaluateAndSaveTool = model.ToolDeclaration{
	Name:        "evaluate_and_save",
	Description: "Record the student's answer and your evaluation. Call this AFTER each answer.",
	Parameters: model.Schema{
		Type: "OBJECT",
		Properties: map[string]model.Schema{
			"question_text": {
				Type:        "STRING",
				Description: "The question that was asked.",
			},
			"difficulty": {
				Type:        "INTEGER",
				Description: "Difficulty of the question, 1 to 5.",
			},
			"question_id": {
				Type:        "STRING",
				Description: "Id returned by get_next_question, if the question came from the bank.",
			},
			"student_answer": {
				Type:        "STRING",
				Description: "Transcription of the student's answer.",
			},
			"evaluation": {
				Type:        "STRING",
				Description: "Your short written evaluation of the answer.",
			},
			"is_correct": {
				Type:        "BOOLEAN",
				Description: "Whether the answer was substantially correct.",
			},
		},
		Required: []string{"question_text", "difficulty", "student_answer", "evaluation"},
	},
}
