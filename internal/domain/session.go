package domain

import (
	"encoding/json"
	"time"
)

// Session tracks one conversation's state between turns. There is exactly one
// per (platform, conversation) pair, keyed by the platform prefix + chat ID.
type Session struct {
	Key              string            `json:"key"`
	Platform         string            `json:"platform"`
	FirstInteraction time.Time         `json:"firstInteraction"`
	LastInteraction  time.Time         `json:"lastInteraction"`
	MessageCount     int64             `json:"messageCount"`
	Contexts         []json.RawMessage `json:"contexts"`
	Extra            map[string]any    `json:"extra,omitempty"`
}

// SessionKey builds the composite store key for a conversation.
func SessionKey(platform, conversationID string) string {
	return platform + conversationID
}

// NewSession seeds a fresh session for a conversation's first message.
func NewSession(key, platform string, now time.Time, extra map[string]any) *Session {
	return &Session{
		Key:              key,
		Platform:         platform,
		FirstInteraction: now,
		LastInteraction:  now,
		MessageCount:     0,
		Contexts:         []json.RawMessage{},
		Extra:            extra,
	}
}

// Clone returns an independent copy, so store callers can't alias the
// store-owned record across turns.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Contexts = make([]json.RawMessage, len(s.Contexts))
	for i, c := range s.Contexts {
		cp.Contexts[i] = append(json.RawMessage(nil), c...)
	}
	if s.Extra != nil {
		cp.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}
