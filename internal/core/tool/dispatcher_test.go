package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	route  webhook.Route
	data1  string
	data2  string
	callID string
	calls  int

	reply string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, route webhook.Route, data1, data2, callID string) (string, error) {
	f.calls++
	f.route = route
	f.data1 = data1
	f.data2 = data2
	f.callID = callID
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestDispatchQuestion(t *testing.T) {
	notifier := &fakeNotifier{reply: `{"message":"The promotion pays per post.","thread":"th_2"}`}
	d := NewDispatcher(notifier)

	result, err := d.Dispatch(context.Background(), Request{
		Name:         ToolNameQuestionAndAnswer,
		Arguments:    `{"question":"How does the promotion work?"}`,
		CallID:       "CA123",
		CallerNumber: "+15551234567",
		ThreadID:     "th_1",
	})
	require.NoError(t, err)

	assert.Equal(t, webhook.RouteQuestion, notifier.route)
	assert.Equal(t, "How does the promotion work?", notifier.data1)
	assert.Equal(t, "th_1", notifier.data2)
	assert.Equal(t, "CA123", notifier.callID)

	assert.Equal(t, "The promotion pays per post.", result.Message)
	assert.Equal(t, "th_2", result.ThreadID)
	assert.Contains(t, result.SpeakInstructions, "The promotion pays per post.")
}

func TestDispatchQuestionDefaultMessage(t *testing.T) {
	notifier := &fakeNotifier{reply: `{"status":"ok"}`}
	d := NewDispatcher(notifier)

	result, err := d.Dispatch(context.Background(), Request{
		Name:      ToolNameQuestionAndAnswer,
		Arguments: `{"question":"anything"}`,
		CallID:    "CA123",
	})
	require.NoError(t, err)
	assert.Equal(t, "I'm sorry, I couldn't find an answer to that question.", result.Message)
}

func TestDispatchNegotiation(t *testing.T) {
	notifier := &fakeNotifier{reply: `{"message":"Price recorded."}`}
	d := NewDispatcher(notifier)

	result, err := d.Dispatch(context.Background(), Request{
		Name:         ToolNameNegotiation,
		Arguments:    `{"price":150.5}`,
		CallID:       "CA123",
		CallerNumber: "+15551234567",
	})
	require.NoError(t, err)

	assert.Equal(t, webhook.RouteNegotiation, notifier.route)
	assert.Equal(t, "+15551234567", notifier.data1)
	assert.Equal(t, "150.5", notifier.data2)

	assert.Equal(t, "Price recorded.", result.Message)
	assert.Empty(t, result.ThreadID)
	assert.Contains(t, result.SpeakInstructions, "Price recorded.")
}

func TestDispatchUndeclaredTool(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDispatcher(notifier)

	_, err := d.Dispatch(context.Background(), Request{Name: "transfer_call"})

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, "transfer_call", dispatchErr.Tool)
	assert.Zero(t, notifier.calls, "undeclared tools must not reach the webhook")
}

func TestDispatchWebhookFailure(t *testing.T) {
	notifier := &fakeNotifier{err: &webhook.Failure{StatusCode: 500}}
	d := NewDispatcher(notifier)

	_, err := d.Dispatch(context.Background(), Request{
		Name:      ToolNameQuestionAndAnswer,
		Arguments: `{"question":"anything"}`,
	})

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)

	var failure *webhook.Failure
	assert.True(t, errors.As(err, &failure))
}

func TestDispatchMalformedArguments(t *testing.T) {
	notifier := &fakeNotifier{}
	d := NewDispatcher(notifier)

	_, err := d.Dispatch(context.Background(), Request{
		Name:      ToolNameNegotiation,
		Arguments: `not json`,
	})

	var dispatchErr *DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Zero(t, notifier.calls)
}

func TestDeclarationsRequireDeclaredProperties(t *testing.T) {
	for _, decl := range Declarations() {
		for _, required := range decl.Parameters.Required {
			_, ok := decl.Parameters.Properties[required]
			assert.True(t, ok, "tool %s requires undeclared property %s", decl.Name, required)
		}
	}
}
