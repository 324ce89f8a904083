package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is one decoded server event from the realtime transport. The
// wire format tags events with a "type" string; decoding converts them
// into this closed set before dispatch.
type Event interface {
	isRealtimeEvent()
}

// ResponseAudioDelta carries one chunk of synthesized audio.
type ResponseAudioDelta struct {
	Delta string
}

// FunctionCallArgumentsDone announces a completed tool invocation
// request: the declared tool name and its JSON-encoded arguments.
type FunctionCallArgumentsDone struct {
	Name      string
	CallID    string
	Arguments string
}

// ResponseDone marks a completed model response. Transcript is the
// spoken text extracted from the response output, empty when the
// response carried none.
type ResponseDone struct {
	Transcript string
}

// InputAudioTranscriptionCompleted carries a recognized caller utterance.
type InputAudioTranscriptionCompleted struct {
	Transcript string
}

// Diagnostic is any recognized event the bridge only logs.
type Diagnostic struct {
	Kind string
}

// Unknown is any event type outside the recognized set.
type Unknown struct {
	Kind string
}

func (ResponseAudioDelta) isRealtimeEvent()               {}
func (FunctionCallArgumentsDone) isRealtimeEvent()        {}
func (ResponseDone) isRealtimeEvent()                     {}
func (InputAudioTranscriptionCompleted) isRealtimeEvent() {}
func (Diagnostic) isRealtimeEvent()                       {}
func (Unknown) isRealtimeEvent()                          {}

// MalformedEventError reports a server event that could not be decoded.
// Callers log and drop it; one bad frame never terminates a call.
type MalformedEventError struct {
	Err error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed realtime event: %v", e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// diagnosticTypes are event kinds surfaced in logs only.
var diagnosticTypes = map[string]bool{
	"error":                             true,
	"session.created":                   true,
	"session.updated":                   true,
	"rate_limits.updated":               true,
	"response.created":                  true,
	"response.content.done":             true,
	"response.text.done":                true,
	"input_audio_buffer.committed":      true,
	"input_audio_buffer.speech_started": true,
	"input_audio_buffer.speech_stopped": true,
}

type wireEvent struct {
	Type       string        `json:"type"`
	Delta      string        `json:"delta,omitempty"`
	Name       string        `json:"name,omitempty"`
	CallID     string        `json:"call_id,omitempty"`
	Arguments  string        `json:"arguments,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Response   *wireResponse `json:"response,omitempty"`
}

type wireResponse struct {
	Output []wireOutputItem `json:"output"`
}

type wireOutputItem struct {
	Content []wireContent `json:"content"`
}

type wireContent struct {
	Transcript string `json:"transcript,omitempty"`
}

// ParseEvent decodes one server event into its typed variant.
func ParseEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &MalformedEventError{Err: err}
	}
	if w.Type == "" {
		return nil, &MalformedEventError{Err: fmt.Errorf("event missing type tag")}
	}

	switch w.Type {
	case "response.audio.delta":
		return ResponseAudioDelta{Delta: w.Delta}, nil
	case "response.function_call_arguments.done":
		return FunctionCallArgumentsDone{
			Name:      w.Name,
			CallID:    w.CallID,
			Arguments: w.Arguments,
		}, nil
	case "response.done":
		return ResponseDone{Transcript: extractTranscript(w.Response)}, nil
	case "conversation.item.input_audio_transcription.completed":
		return InputAudioTranscriptionCompleted{
			Transcript: strings.TrimSpace(w.Transcript),
		}, nil
	default:
		if diagnosticTypes[w.Type] {
			return Diagnostic{Kind: w.Type}, nil
		}
		return Unknown{Kind: w.Type}, nil
	}
}

// extractTranscript pulls the first spoken transcript fragment out of a
// completed response's output.
func extractTranscript(r *wireResponse) string {
	if r == nil {
		return ""
	}
	for _, item := range r.Output {
		for _, content := range item.Content {
			if content.Transcript != "" {
				return content.Transcript
			}
		}
	}
	return ""
}
