// Package telephony decodes and builds Twilio Media Stream frames.
// Frames are JSON-tagged by an "event" field; decoding converts them
// into a closed set of typed events before dispatch so the bridge never
// branches on raw strings.
package telephony

import (
	"encoding/json"
	"fmt"
)

// Event is one decoded media-stream frame.
type Event interface {
	isTelephonyEvent()
}

// StartEvent announces the media stream: the assigned stream SID, the
// call SID, and custom parameters carried over from call setup.
type StartEvent struct {
	StreamSID        string
	CallSID          string
	CustomParameters map[string]string
}

// MediaEvent carries one base64-encoded caller audio payload.
type MediaEvent struct {
	Payload string
}

// StopEvent signals the provider ended the stream.
type StopEvent struct{}

// UnknownEvent is any recognized frame the bridge has no handling for
// (connected, mark, dtmf). Logged, no state change.
type UnknownEvent struct {
	Kind string
}

func (StartEvent) isTelephonyEvent()   {}
func (MediaEvent) isTelephonyEvent()   {}
func (StopEvent) isTelephonyEvent()    {}
func (UnknownEvent) isTelephonyEvent() {}

// MalformedFrameError reports a frame that could not be decoded. One bad
// frame never terminates a call; callers log and drop it.
type MalformedFrameError struct {
	Err error
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed media-stream frame: %v", e.Err)
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

// Wire layout of inbound frames.
type frame struct {
	Event string        `json:"event"`
	Start *startPayload `json:"start,omitempty"`
	Media *mediaPayload `json:"media,omitempty"`
}

type startPayload struct {
	StreamSID        string            `json:"streamSid"`
	AccountSID       string            `json:"accountSid"`
	CallSID          string            `json:"callSid"`
	CustomParameters map[string]string `json:"customParameters"`
}

type mediaPayload struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"`
}

// ParseEvent decodes one inbound frame into its typed variant.
func ParseEvent(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &MalformedFrameError{Err: err}
	}

	switch f.Event {
	case "start":
		if f.Start == nil {
			return nil, &MalformedFrameError{Err: fmt.Errorf("start frame missing start payload")}
		}
		return StartEvent{
			StreamSID:        f.Start.StreamSID,
			CallSID:          f.Start.CallSID,
			CustomParameters: f.Start.CustomParameters,
		}, nil
	case "media":
		if f.Media == nil {
			return nil, &MalformedFrameError{Err: fmt.Errorf("media frame missing media payload")}
		}
		return MediaEvent{Payload: f.Media.Payload}, nil
	case "stop":
		return StopEvent{}, nil
	default:
		return UnknownEvent{Kind: f.Event}, nil
	}
}

// OutboundMedia is the frame relayed back to the provider carrying
// synthesized audio for the current stream.
type OutboundMedia struct {
	Event     string               `json:"event"`
	StreamSID string               `json:"streamSid"`
	Media     OutboundMediaPayload `json:"media"`
}

// OutboundMediaPayload wraps the base64 audio chunk.
type OutboundMediaPayload struct {
	Payload string `json:"payload"`
}

// NewMediaFrame builds an outbound media frame tagged with the stream SID.
func NewMediaFrame(streamSID, payload string) OutboundMedia {
	return OutboundMedia{
		Event:     "media",
		StreamSID: streamSID,
		Media: OutboundMediaPayload{
			Payload: payload,
		},
	}
}
