// Package tool maps AI-declared function invocations to business
// webhook round-trips and translates the results back into spoken
// continuations.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ClareAI/astra-call-bridge/internal/adapters/webhook"
	"github.com/ClareAI/astra-call-bridge/internal/core/realtime"
	"github.com/ClareAI/astra-call-bridge/pkg/logger"
	"go.uber.org/zap"
)

// Declared tool names.
const (
	ToolNameQuestionAndAnswer = "question_and_answer"
	ToolNameNegotiation       = "negotiation"
)

// DispatchError indicates a tool round-trip failed or returned unusable
// data. The bridge substitutes a generic spoken apology; the
// conversation never stalls on it.
type DispatchError struct {
	Tool string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("tool dispatch failed for %s: %v", e.Tool, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Notifier is the webhook surface the dispatcher needs.
type Notifier interface {
	Notify(ctx context.Context, route webhook.Route, data1, data2, callID string) (string, error)
}

// Request carries one tool invocation from the model plus the call
// context it runs in.
type Request struct {
	Name         string
	Arguments    string
	CallID       string
	CallerNumber string
	ThreadID     string
}

// Result is a resolved tool invocation: the message fed back as the
// function output, instructions for the spoken continuation, and the
// updated conversation-continuity token when the webhook returned one.
type Result struct {
	Message           string
	SpeakInstructions string
	ThreadID          string
}

// Dispatcher resolves declared tool names to webhook routes.
type Dispatcher struct {
	notifier Notifier
}

// NewDispatcher creates a dispatcher backed by the given webhook client.
func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{notifier: n}
}

// Dispatch resolves one tool invocation. An undeclared name fails
// without touching the webhook.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	logger.Base().Info("dispatching tool call",
		zap.String("tool", req.Name),
		zap.String("call_id", req.CallID))

	switch req.Name {
	case ToolNameQuestionAndAnswer:
		return d.dispatchQuestion(ctx, req)
	case ToolNameNegotiation:
		return d.dispatchNegotiation(ctx, req)
	default:
		return nil, &DispatchError{Tool: req.Name, Err: fmt.Errorf("undeclared tool")}
	}
}

func (d *Dispatcher) dispatchQuestion(ctx context.Context, req Request) (*Result, error) {
	var args struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
		return nil, &DispatchError{Tool: req.Name, Err: fmt.Errorf("failed to parse arguments: %w", err)}
	}

	raw, err := d.notifier.Notify(ctx, webhook.RouteQuestion, args.Question, req.ThreadID, req.CallID)
	if err != nil {
		return nil, &DispatchError{Tool: req.Name, Err: err}
	}

	reply := webhook.ParseReply(raw)
	message := reply.Message
	if message == "" {
		message = "I'm sorry, I couldn't find an answer to that question."
	}

	return &Result{
		Message:           message,
		ThreadID:          reply.Thread,
		SpeakInstructions: fmt.Sprintf("Respond to the user's question %q based on this information: %s. Be concise and friendly.", args.Question, message),
	}, nil
}

func (d *Dispatcher) dispatchNegotiation(ctx context.Context, req Request) (*Result, error) {
	var args struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
		return nil, &DispatchError{Tool: req.Name, Err: fmt.Errorf("failed to parse arguments: %w", err)}
	}

	price := strconv.FormatFloat(args.Price, 'f', -1, 64)
	raw, err := d.notifier.Notify(ctx, webhook.RouteNegotiation, req.CallerNumber, price, req.CallID)
	if err != nil {
		return nil, &DispatchError{Tool: req.Name, Err: err}
	}

	reply := webhook.ParseReply(raw)
	message := reply.Message
	if message == "" {
		message = "I'm sorry, I couldn't record the negotiation outcome at this time."
	}

	return &Result{
		Message:           message,
		SpeakInstructions: fmt.Sprintf("Inform the user about the negotiation status: %s. Be concise and friendly.", message),
	}, nil
}

// Declarations returns the tool schemas advertised in the session
// configuration. Required argument names match the declared properties.
func Declarations() []realtime.Tool {
	return []realtime.Tool{
		{
			Type:        "function",
			Name:        ToolNameQuestionAndAnswer,
			Description: "Look up the answer to a question the influencer asked about the promotion.",
			Parameters: realtime.ToolParameters{
				Type: "object",
				Properties: map[string]realtime.ToolProperty{
					"question": {
						Type:        "string",
						Description: "The influencer's question, verbatim.",
					},
				},
				Required: []string{"question"},
			},
		},
		{
			Type:        "function",
			Name:        ToolNameNegotiation,
			Description: "Record the promotion price agreed with the influencer and close the deal.",
			Parameters: realtime.ToolParameters{
				Type: "object",
				Properties: map[string]realtime.ToolProperty{
					"price": {
						Type:        "number",
						Description: "The agreed promotion price.",
					},
				},
				Required: []string{"price"},
			},
		},
	}
}
