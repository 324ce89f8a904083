package realtime

// Client-to-server event payloads. These mirror the realtime wire
// contract: session configuration, conversation items, response
// requests, and audio appends.

// SessionUpdate configures the session. It must be sent before any
// audio is forwarded and before the buffered greeting is flushed.
type SessionUpdate struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

// SessionConfig carries audio formats, voice identity, instructions,
// tool declarations, and turn-detection mode.
type SessionConfig struct {
	TurnDetection           *TurnDetection       `json:"turn_detection,omitempty"`
	InputAudioFormat        string               `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string               `json:"output_audio_format,omitempty"`
	Voice                   string               `json:"voice,omitempty"`
	Instructions            string               `json:"instructions,omitempty"`
	Modalities              []string             `json:"modalities,omitempty"`
	Temperature             float64              `json:"temperature,omitempty"`
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`
	Tools                   []Tool               `json:"tools,omitempty"`
	ToolChoice              string               `json:"tool_choice,omitempty"`
}

// TurnDetection selects the turn-detection mode.
type TurnDetection struct {
	Type string `json:"type"`
}

// TranscriptionConfig selects the input transcription model.
type TranscriptionConfig struct {
	Model string `json:"model"`
}

// Tool declares one callable function to the model.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters is the JSON-schema object describing tool arguments.
// Required names must match declared property names.
type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

// ToolProperty describes one tool argument.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ConversationItemCreate inserts an item into the conversation.
type ConversationItemCreate struct {
	Type string           `json:"type"`
	Item ConversationItem `json:"item"`
}

// ConversationItem is either a message or a function call output.
type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
	Output  string        `json:"output,omitempty"`
}

// ContentPart is one typed message fragment.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ResponseCreate instructs the model to produce a response.
type ResponseCreate struct {
	Type     string          `json:"type"`
	Response *ResponseConfig `json:"response,omitempty"`
}

// ResponseConfig scopes one response request.
type ResponseConfig struct {
	Modalities   []string `json:"modalities,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// InputAudioAppend forwards one caller audio payload verbatim.
type InputAudioAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// NewUserMessageItem builds a synthetic user text message, used for the
// buffered greeting.
func NewUserMessageItem(text string) ConversationItemCreate {
	return ConversationItemCreate{
		Type: "conversation.item.create",
		Item: ConversationItem{
			Type: "message",
			Role: "user",
			Content: []ContentPart{
				{Type: "input_text", Text: text},
			},
		},
	}
}

// NewFunctionOutputItem wraps a tool result for the model.
func NewFunctionOutputItem(output string) ConversationItemCreate {
	return ConversationItemCreate{
		Type: "conversation.item.create",
		Item: ConversationItem{
			Type:   "function_call_output",
			Role:   "system",
			Output: output,
		},
	}
}

// NewResponseCreate requests a response with session defaults.
func NewResponseCreate() ResponseCreate {
	return ResponseCreate{Type: "response.create"}
}

// NewSpokenResponse requests a spoken response with one-off instructions.
func NewSpokenResponse(instructions string) ResponseCreate {
	return ResponseCreate{
		Type: "response.create",
		Response: &ResponseConfig{
			Modalities:   []string{"text", "audio"},
			Instructions: instructions,
		},
	}
}

// NewAudioAppend forwards one caller audio payload.
func NewAudioAppend(payload string) InputAudioAppend {
	return InputAudioAppend{
		Type:  "input_audio_buffer.append",
		Audio: payload,
	}
}
