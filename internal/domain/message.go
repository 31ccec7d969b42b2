package domain

import "strings"

// Message type tags. TypeRandom and TypeChips are resolved away before a
// message reaches a renderer; the remaining tags are terminal.
const (
	TypeText       = "text"
	TypeImage      = "image"
	TypeFile       = "file"
	TypeContact    = "contact"
	TypeAccordion  = "accordion"
	TypeOptionList = "option_list"
	TypeSticker    = "sticker"
	TypeChips      = "chips"
	TypeRandom     = "random"
)

// Button is a quick-reply option, either a callback button or a link.
type Button struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Message is the platform-neutral reply unit produced by the normalizer.
// Field names mirror the rich-content payload keys emitted by the NLU agent,
// so a validated candidate decodes directly into it.
type Message struct {
	Type              string   `json:"type"`
	Text              string   `json:"text,omitempty"`
	Title             string   `json:"title,omitempty"`
	Subtitle          string   `json:"subtitle,omitempty"`
	RawURL            string   `json:"rawUrl,omitempty"`
	URL               string   `json:"url,omitempty"`
	Caption           string   `json:"caption,omitempty"`
	AccessibilityText string   `json:"accessibilityText,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Name              string   `json:"name,omitempty"`
	Options           []Button `json:"options,omitempty"`
	Buttons           []Button `json:"buttons,omitempty"`
	IgnoreTelegram    bool     `json:"ignoreTelegram,omitempty"`
	IgnoreWhatsApp    bool     `json:"ignoreWhatsApp,omitempty"`
	IgnoreWebchat     bool     `json:"ignoreWebchat,omitempty"`
}

// Kind returns the canonical type tag, lowercased and trimmed. Agent authors
// type these by hand in the console, so casing and stray spaces vary.
func (m Message) Kind() string {
	return strings.ToLower(strings.TrimSpace(m.Type))
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: TypeText, Text: text}
}
