package nlu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

const apologyText = "🐛 _Desculpe! Ocorreu um erro ao analisar as respostas da intenção, por favor contate o administrador_"

// overridable in tests for deterministic random picks
var randIntN = rand.IntN

// Apology is the generic fallback delivered when a reply cannot be parsed.
// The renderer must always receive a non-empty, valid list.
func Apology() []domain.Message {
	return []domain.Message{domain.TextMessage(apologyText)}
}

// Normalize converts raw fulfillment entries into a flat, validated message
// list: decode, drop malformed candidates, resolve random variant groups,
// drop again. An unrecoverable decode error degrades to the apology message
// instead of failing the turn.
func Normalize(entries []Fulfillment) []domain.Message {
	msgs, err := normalize(entries)
	if err != nil {
		slog.Error("failed to parse NLU reply", "error", err)
		return Apology()
	}
	return msgs
}

func normalize(entries []Fulfillment) ([]domain.Message, error) {
	candidates, err := decodeEntries(entries)
	if err != nil {
		return nil, err
	}

	candidates = filterValid(candidates)

	candidates, err = resolveRandom(candidates)
	if err != nil {
		return nil, err
	}

	// A random pick can itself be malformed.
	candidates = filterValid(candidates)

	msgs := make([]domain.Message, 0, len(candidates))
	for _, c := range candidates {
		var msg domain.Message
		if err := json.Unmarshal(c, &msg); err != nil {
			slog.Warn("dropping undecodable reply message", "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// decodeEntries maps each fulfillment entry to zero or more candidate
// messages. Text entries join their lines; rich payloads contribute their
// first content group, flattened one level.
func decodeEntries(entries []Fulfillment) ([]json.RawMessage, error) {
	var candidates []json.RawMessage
	for _, entry := range entries {
		switch {
		case entry.Text != nil:
			raw, err := json.Marshal(domain.TextMessage(strings.Join(entry.Text.Text, "\n")))
			if err != nil {
				return nil, fmt.Errorf("encode text entry: %w", err)
			}
			candidates = append(candidates, raw)

		case len(entry.Payload) > 0:
			var payload struct {
				RichContent [][]json.RawMessage `json:"richContent"`
			}
			if err := json.Unmarshal(entry.Payload, &payload); err != nil {
				return nil, fmt.Errorf("decode rich content payload: %w", err)
			}
			if len(payload.RichContent) == 0 {
				return nil, fmt.Errorf("rich content payload has no content group")
			}
			candidates = append(candidates, payload.RichContent[0]...)
		}
	}
	return candidates, nil
}

// filterValid keeps only candidates that are JSON objects carrying a string
// "type" field.
func filterValid(candidates []json.RawMessage) []json.RawMessage {
	out := candidates[:0]
	for _, c := range candidates {
		if _, ok := candidateType(c); ok {
			out = append(out, c)
		}
	}
	return out
}

func candidateType(raw json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	var typ string
	if err := json.Unmarshal(obj["type"], &typ); err != nil {
		return "", false
	}
	return typ, true
}

// resolveRandom replaces each random variant group with one uniformly chosen
// item. An item may itself be a list of messages, which is flattened in
// place. Candidates without an items list pass through untouched.
func resolveRandom(candidates []json.RawMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(candidates))
	for _, c := range candidates {
		typ, _ := candidateType(c)
		if strings.ToLower(strings.TrimSpace(typ)) != domain.TypeRandom {
			out = append(out, c)
			continue
		}

		var group struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(c, &group); err != nil || group.Items == nil {
			// items absent or not a list: nothing to resolve, keep the
			// candidate as is.
			out = append(out, c)
			continue
		}
		if len(group.Items) == 0 {
			continue
		}

		pick := group.Items[randIntN(len(group.Items))]
		if bytes.HasPrefix(bytes.TrimSpace(pick), []byte("[")) {
			var nested []json.RawMessage
			if err := json.Unmarshal(pick, &nested); err != nil {
				return nil, fmt.Errorf("decode random item list: %w", err)
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, pick)
	}
	return out, nil
}
