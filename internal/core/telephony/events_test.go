package telephony

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStartEvent(t *testing.T) {
	data := []byte(`{
		"event": "start",
		"start": {
			"streamSid": "MZ18ad3ab5a668481ce02b83e7395059f0",
			"callSid": "CA123",
			"customParameters": {
				"firstMessage": "Hi there!",
				"callerNumber": "+15551234567"
			}
		}
	}`)

	event, err := ParseEvent(data)
	require.NoError(t, err)

	start, ok := event.(StartEvent)
	require.True(t, ok)
	assert.Equal(t, "MZ18ad3ab5a668481ce02b83e7395059f0", start.StreamSID)
	assert.Equal(t, "CA123", start.CallSID)
	assert.Equal(t, "Hi there!", start.CustomParameters["firstMessage"])
	assert.Equal(t, "+15551234567", start.CustomParameters["callerNumber"])
}

func TestParseMediaEvent(t *testing.T) {
	data := []byte(`{"event":"media","media":{"track":"inbound","chunk":"3","timestamp":"60","payload":"dGVzdA=="}}`)

	event, err := ParseEvent(data)
	require.NoError(t, err)

	media, ok := event.(MediaEvent)
	require.True(t, ok)
	assert.Equal(t, "dGVzdA==", media.Payload)
}

func TestParseStopEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"event":"stop"}`))
	require.NoError(t, err)
	assert.IsType(t, StopEvent{}, event)
}

func TestParseUnknownEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"event":"mark"}`))
	require.NoError(t, err)

	unknown, ok := event.(UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, "mark", unknown.Kind)
}

func TestParseMalformedFrames(t *testing.T) {
	cases := map[string]string{
		"not json":              `{{{`,
		"start without payload": `{"event":"start"}`,
		"media without payload": `{"event":"media"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(raw))
			var malformed *MalformedFrameError
			require.ErrorAs(t, err, &malformed)
		})
	}
}

func TestNewMediaFrame(t *testing.T) {
	frame := NewMediaFrame("MZ1", "dGVzdA==")

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"media","streamSid":"MZ1","media":{"payload":"dGVzdA=="}}`, string(data))
}
