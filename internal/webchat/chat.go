package webchat

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AlanMartines/ifpbbot/internal/domain"
	"github.com/AlanMartines/ifpbbot/internal/render"
)

// inboundFrame is one user utterance from the page.
type inboundFrame struct {
	Text string `json:"text"`
}

// outboundFrame wraps everything the server pushes to the page.
type outboundFrame struct {
	Type    string          `json:"type"`
	Session string          `json:"session,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
}

// handleChat runs one websocket conversation. The client may pass
// ?session=<id> to resume an earlier conversation; otherwise a fresh ID is
// issued and announced in the first frame.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conversationID := r.URL.Query().Get("session")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	if err := conn.WriteJSON(outboundFrame{Type: "session", Session: conversationID}); err != nil {
		return
	}

	for {
		var in inboundFrame
		if err := conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("webchat connection closed", "session", conversationID, "error", err)
			}
			return
		}
		if in.Text == "" {
			continue
		}

		msgs := s.conv.HandleUtterance(r.Context(), in.Text, conversationID, domain.PlatformWebchat, map[string]any{
			"remoteAddr": r.RemoteAddr,
		})

		if err := s.deliver(r.Context(), conn, msgs); err != nil {
			slog.Warn("webchat delivery failed", "session", conversationID, "error", err)
			return
		}
	}
}

// deliver writes each normalized message as its own frame, in order. The web
// client renders buttons natively, so chips still get the same merge
// treatment as other surfaces before dispatch.
func (s *Server) deliver(_ context.Context, conn *websocket.Conn, msgs []domain.Message) error {
	for _, msg := range render.Prepare(msgs, domain.PlatformWebchat) {
		m := msg
		if err := conn.WriteJSON(outboundFrame{Type: "message", Message: &m}); err != nil {
			return err
		}
	}
	return nil
}
