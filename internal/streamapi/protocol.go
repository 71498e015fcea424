package streamapi

import "github.com/danor93/chat-router/internal/models"

// request is the shape of every client→server frame on /ws, discriminated
// by Type per spec.md §4.4.
type request struct {
	Type     string  `json:"type"`
	Platform string  `json:"platform,omitempty"`
	ChatID   string  `json:"platformChatId,omitempty"`
	After    *int64  `json:"after,omitempty"`
	Before   *int64  `json:"before,omitempty"`
	Limit    int     `json:"limit,omitempty"`
}

// response wraps a request result.
type response struct {
	Type        string `json:"type"`
	RequestType string `json:"requestType"`
	Data        any    `json:"data"`
}

// pushFrame is the unsolicited server→client broadcast of a newly
// persisted entry.
type pushFrame struct {
	Type  string               `json:"type"`
	Entry models.TimelineEntry `json:"entry"`
}

// errorFrame reports a malformed frame or unknown request type. The
// connection remains open.
type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newPushFrame(entry models.TimelineEntry) pushFrame {
	return pushFrame{Type: "new_message", Entry: entry}
}

func newErrorFrame(message string) errorFrame {
	return errorFrame{Type: "error", Message: message}
}

func newResponseFrame(requestType string, data any) response {
	return response{Type: "response", RequestType: requestType, Data: data}
}
