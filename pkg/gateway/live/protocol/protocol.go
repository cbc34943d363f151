// Package protocol defines the JSON frames exchanged with the browser over
// the tutoring WebSocket.
//
// Browser -> server:
//
//	binary frame                                   raw PCM audio (16 kHz, 16-bit, mono)
//	text "END"                                     graceful stop (handled by the session loop)
//	{"type":"text","text":...,"mode":...}          student text message
//	{"type":"image","mimeType":...,"data":...}     base64 image + optional caption
//
// Server -> browser:
//
//	{"type":"status","value":"connected","session_id":...}   on open
//	{"type":"message","role":"tutor","text":...}             text reply
//	binary frame                                             raw PCM audio (24 kHz, 16-bit, mono)
//	{"type":"status","value":"interrupted"}                  on barge-in
//	{"type":"recap","data":{...}}                            on close
//	{"type":"error","value":...}                             on failure
package protocol

import (
	"encoding/json"
	"strings"
)

// EndSignal is the text frame a browser sends to stop streaming gracefully.
const EndSignal = "END"

// Tutoring modes selectable per text/image exchange.
const (
	ModeExplain  = "explain"
	ModeQuiz     = "quiz"
	ModeHomework = "homework"
)

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e.Param != "" {
		return e.Message + " (param: " + e.Param + ")"
	}
	return e.Message
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// ClientText is a single student text turn.
type ClientText struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// ClientImage is a base64-encoded image with an optional caption.
type ClientImage struct {
	Type     string `json:"type"`
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
	Caption  string `json:"caption,omitempty"`
	Mode     string `json:"mode,omitempty"`
}

// DecodeClientMessage decodes a text frame into one of the Client* types.
// The "END" sentinel is not JSON and must be special-cased by the caller
// before reaching here.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "text":
		var msg ClientText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid text frame", "")
		}
		msg.Mode = normalizeMode(msg.Mode)
		return msg, nil
	case "image":
		var msg ClientImage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid image frame", "")
		}
		if strings.TrimSpace(msg.MIMEType) == "" {
			msg.MIMEType = "image/*"
		}
		msg.Mode = normalizeMode(msg.Mode)
		return msg, nil
	default:
		return nil, unsupported("unsupported message type", "type")
	}
}

func normalizeMode(mode string) string {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return ModeExplain
	}
	return mode
}

type ServerStatus struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	SessionID string `json:"session_id,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Text string `json:"text"`
}

type ServerError struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Recap is the end-of-session summary derived from the tool-event history.
type Recap struct {
	SessionID       string   `json:"session_id"`
	DurationSeconds float64  `json:"duration_seconds"`
	TopicsCovered   []string `json:"topics_covered"`
	Mistakes        []string `json:"mistakes"`
	Corrections     []string `json:"corrections"`
	Score           float64  `json:"score"`
	Summary         string   `json:"summary"`
}

type ServerRecap struct {
	Type string `json:"type"`
	Data Recap  `json:"data"`
}

func StatusConnected(sessionID string) ServerStatus {
	return ServerStatus{Type: "status", Value: "connected", SessionID: sessionID}
}

func StatusInterrupted() ServerStatus {
	return ServerStatus{Type: "status", Value: "interrupted"}
}

func TutorMessage(text string) ServerMessage {
	return ServerMessage{Type: "message", Role: "tutor", Text: text}
}

func ErrorFrame(value string) ServerError {
	return ServerError{Type: "error", Value: value}
}
