// Package nlu talks to the natural-language-understanding backend and turns
// its replies into platform-neutral messages.
package nlu

import (
	"context"
	"encoding/json"
)

// Fulfillment is one raw reply entry: either a plain text entry or a custom
// rich-content payload.
type Fulfillment struct {
	Text    *FulfillmentText `json:"text,omitempty"`
	Payload json.RawMessage  `json:"payload,omitempty"`
}

type FulfillmentText struct {
	Text []string `json:"text"`
}

type Intent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// QueryResult is the structured outcome of one detect-intent call. Output
// contexts are kept opaque; they are stored verbatim and replayed verbatim.
type QueryResult struct {
	QueryText           string            `json:"queryText"`
	Action              string            `json:"action"`
	Intent              Intent            `json:"intent"`
	FulfillmentMessages []Fulfillment     `json:"fulfillmentMessages"`
	OutputContexts      []json.RawMessage `json:"outputContexts"`
}

// Client is the NLU backend boundary.
type Client interface {
	// DetectIntent sends one utterance under the given backend session.
	DetectIntent(ctx context.Context, sessionKey, text string) (*QueryResult, error)

	// SetContexts restores previously stored contexts on the backend session
	// before the next utterance is sent.
	SetContexts(ctx context.Context, sessionKey string, contexts []json.RawMessage) error
}
