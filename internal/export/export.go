// Package export serializes a conversation's messages to a downloadable
// document.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pyai/assistant-platform/internal/model"
)

// Format selects the export encoding.
type Format string

const (
	// FormatText renders one "<Role label>: <content>" paragraph per
	// message, each followed by a blank line.
	FormatText Format = "text"
	// FormatJSON renders an ordered array of {role, content} objects,
	// pretty-printed with 2-space indentation.
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for formats other than text and json.
var ErrUnknownFormat = fmt.Errorf("unknown export format")

// Document is a rendered export ready to be served as a download.
type Document struct {
	Data      []byte
	MediaType string
	Filename  string
}

// record is the structured-export shape of one message.
type record struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

var roleLabels = map[model.Role]string{
	model.RoleUser:      "You",
	model.RoleAssistant: "Assistant",
}

// Export renders a conversation in the requested format. System
// messages never appear in stored conversations, so every stored
// message is exported.
func Export(conv *model.Conversation, format Format) (*Document, error) {
	switch format {
	case FormatText:
		return exportText(conv), nil
	case FormatJSON:
		return exportJSON(conv)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ParseFormat maps a query-parameter value to a Format. An empty value
// defaults to plain text.
func ParseFormat(value string) (Format, error) {
	switch value {
	case "", "text", "txt", "plain":
		return FormatText, nil
	case "json", "structured":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

func exportText(conv *model.Conversation) *Document {
	var b strings.Builder
	for _, msg := range conv.Messages {
		label, ok := roleLabels[msg.Role]
		if !ok {
			continue
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return &Document{
		Data:      []byte(b.String()),
		MediaType: "text/plain; charset=utf-8",
		Filename:  fmt.Sprintf("chat_%s.txt", conv.ID),
	}
}

func exportJSON(conv *model.Conversation) (*Document, error) {
	records := make([]record, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		if _, ok := roleLabels[msg.Role]; !ok {
			continue
		}
		records = append(records, record{Role: msg.Role, Content: msg.Content})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding messages: %w", err)
	}

	return &Document{
		Data:      data,
		MediaType: "application/json",
		Filename:  fmt.Sprintf("chat_%s.json", conv.ID),
	}, nil
}
