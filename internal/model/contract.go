package model

// Schema is a minimal JSON-schema node for tool parameter declarations,
// using the uppercase type names the Gemini API expects.
type Schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Items       *Schema           `json:"items,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

// ToolDeclaration is one function the live model is allowed to call.
type ToolDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// LiveContract is the full behavioral contract for one session: the
// system instruction, the declared tool surface, and the modality and
// voice configuration the ephemeral token is scoped to.
type LiveContract struct {
	Model              string            `json:"model"`
	SystemInstruction  string            `json:"systemInstruction"`
	Tools              []ToolDeclaration `json:"tools"`
	ResponseModalities []string          `json:"responseModalities"`
	VoiceName          string            `json:"voiceName,omitempty"`
	SessionMinutes     int               `json:"sessionMinutes"`
}

// TokenGrant is the provisioner's answer: a single-use, time-limited
// credential plus the metadata the client needs to connect.
type TokenGrant struct {
	Token          string `json:"token"`
	ModelName      string `json:"modelName"`
	VoiceName      string `json:"voiceName"`
	SessionMinutes int    `json:"sessionMinutes"`
}
