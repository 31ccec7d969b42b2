package domain

// Platform tags prefix the conversation ID in session keys and select
// renderer-specific behavior.
const (
	PlatformTelegram = "telegram"
	PlatformWhatsApp = "whatsapp"
	PlatformWebchat  = "webchat"
)
