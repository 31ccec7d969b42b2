// Package render holds the platform-neutral pre-render transform applied to
// a normalized message list before per-message dispatch.
package render

import (
	"fmt"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

// Prepare drops messages flagged to skip the given platform, then folds
// chips into their neighbors. The result contains terminal types only and is
// safe to dispatch in order.
func Prepare(msgs []domain.Message, platform string) []domain.Message {
	return MergeChips(dropIgnored(msgs, platform))
}

// MergeChips resolves quick-reply chips in a single forward pass over the
// list, emitting into a fresh slice instead of nulling shared array slots:
//
//   - chips with at least one linked option expand to one text message per
//     option, label bolded above the link;
//   - chips without links become buttons on the nearest preceding surviving
//     message, or are dropped when nothing precedes them.
func MergeChips(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Kind() != domain.TypeChips {
			out = append(out, msg)
			continue
		}

		if hasLinkOption(msg.Options) {
			for _, opt := range msg.Options {
				out = append(out, domain.TextMessage(fmt.Sprintf("*%s*\n%s", opt.Text, opt.Link)))
			}
			continue
		}

		if len(out) == 0 {
			// No predecessor to attach the options to.
			continue
		}

		prev := &out[len(out)-1]
		buttons := make([]domain.Button, 0, len(prev.Buttons)+len(msg.Options))
		buttons = append(buttons, prev.Buttons...)
		buttons = append(buttons, msg.Options...)
		prev.Buttons = buttons
	}
	return out
}

func hasLinkOption(options []domain.Button) bool {
	for _, opt := range options {
		if opt.Link != "" {
			return true
		}
	}
	return false
}

func dropIgnored(msgs []domain.Message, platform string) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, msg := range msgs {
		switch platform {
		case domain.PlatformTelegram:
			if msg.IgnoreTelegram {
				continue
			}
		case domain.PlatformWhatsApp:
			if msg.IgnoreWhatsApp {
				continue
			}
		case domain.PlatformWebchat:
			if msg.IgnoreWebchat {
				continue
			}
		}
		out = append(out, msg)
	}
	return out
}
