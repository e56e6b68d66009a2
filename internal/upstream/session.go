// Package upstream implements the upstream session manager (C4): one
// gorilla/websocket client connection to the realtime model peer per
// browser session, grounded on the teacher's internal/gateway control
// plane websocket shape but as an outbound client instead of an inbound
// server.
package upstream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fenwick-labs/voicegate/internal/config"
)

// Session is a single open connection to the upstream realtime endpoint.
type Session struct {
	conn *websocket.Conn
}

// Dial establishes the upstream connection for persona, sending the API
// key via the Authorization header (never the URL, per spec.md §4.4) and
// bounding the handshake to cfg.ConnectTimeout (defaulting to 10s).
func Dial(ctx context.Context, cfg config.UpstreamConfig, persona *config.PersonaConfig) (*Session, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(dialCtx, cfg.Endpoint, header)
	if err != nil {
		return nil, &config.Error{Kind: config.ErrUpstreamConnectFailed, Msg: err.Error()}
	}

	session := &Session{conn: conn}
	if err := session.sendSessionUpdate(persona); err != nil {
		_ = conn.Close()
		return nil, &config.Error{Kind: config.ErrUpstreamConnectFailed, Msg: err.Error()}
	}
	return session, nil
}

// sessionUpdateEvent mirrors spec.md §6's exact session.update shape.
type sessionUpdateEvent struct {
	Type    string              `json:"type"`
	Session sessionUpdatePayload `json:"session"`
}

type sessionUpdatePayload struct {
	Modalities        []string      `json:"modalities"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Tools             []toolPayload `json:"tools"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	TurnDetection     turnDetection `json:"turn_detection"`
}

type toolPayload struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
	CreateResponse    bool    `json:"create_response"`
}

// sendSessionUpdate emits the initial session.update carrying the
// persona's voice, instructions, tool schemas, PCM16 audio formats, and
// server-VAD parameters.
func (s *Session) sendSessionUpdate(persona *config.PersonaConfig) error {
	event := sessionUpdateEvent{
		Type: "session.update",
		Session: sessionUpdatePayload{
			Modalities:        []string{"text", "audio"},
			Voice:             persona.VoiceID,
			Instructions:      persona.Instructions,
			Tools:             toolPayloads(persona.Tools),
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			TurnDetection: turnDetection{
				Type:              "server_vad",
				Threshold:         persona.VAD.Threshold,
				PrefixPaddingMs:   persona.VAD.PrefixPaddingMs,
				SilenceDurationMs: persona.VAD.SilenceDurationMs,
				CreateResponse:    persona.VAD.CreateResponse,
			},
		},
	}
	return s.WriteJSON(event)
}

func toolPayloads(tools []config.ToolSchema) []toolPayload {
	out := make([]toolPayload, 0, len(tools))
	for _, t := range tools {
		params := map[string]any{"type": "object", "properties": map[string]any{}}
		properties := params["properties"].(map[string]any)
		var required []string
		for name, arg := range t.ArgumentsSchema {
			properties[name] = map[string]any{"type": arg.Type}
			if arg.Required {
				required = append(required, name)
			}
		}
		if len(required) > 0 {
			params["required"] = required
		}
		out = append(out, toolPayload{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		})
	}
	return out
}

// WriteJSON marshals v as a text frame.
func (s *Session) WriteJSON(v any) error {
	return s.conn.WriteJSON(v)
}

// ReadMessage reads the next frame, returning its websocket message type
// and payload. Callers treat websocket.TextMessage frames as upstream
// events and forward anything else (binary) verbatim.
func (s *Session) ReadMessage() (messageType int, data []byte, err error) {
	return s.conn.ReadMessage()
}

// WriteMessage writes a raw frame of the given message type, used by the
// up-pump to forward browser frames verbatim without re-encoding them.
func (s *Session) WriteMessage(messageType int, data []byte) error {
	return s.conn.WriteMessage(messageType, data)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Read/write deadlines are intentionally left unset: the upstream
// connection's lifetime is bounded by the relay's cancellation, not by
// idle timeouts, since a voice session may have long silent stretches
// that are not themselves failures.
