package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyai/assistant-platform/internal/model"
)

func sampleConversation() *model.Conversation {
	return &model.Conversation{
		ID:    "20250310_143000",
		Title: "hi",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "hi", CreatedAt: time.Now()},
			{Role: model.RoleAssistant, Content: "hello", CreatedAt: time.Now()},
		},
		CreatedAt: time.Now(),
	}
}

func TestExport_Text(t *testing.T) {
	doc, err := Export(sampleConversation(), FormatText)
	require.NoError(t, err)

	assert.Equal(t, "You: hi\n\nAssistant: hello\n\n", string(doc.Data))
	assert.Equal(t, "text/plain; charset=utf-8", doc.MediaType)
	assert.Equal(t, "chat_20250310_143000.txt", doc.Filename)
}

func TestExport_Text_EmptyConversation(t *testing.T) {
	doc, err := Export(&model.Conversation{ID: "20250310_143000"}, FormatText)
	require.NoError(t, err)
	assert.Empty(t, doc.Data)
}

func TestExport_JSON(t *testing.T) {
	doc, err := Export(sampleConversation(), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, "application/json", doc.MediaType)
	assert.Equal(t, "chat_20250310_143000.json", doc.Filename)

	// Order and fields survive the round trip.
	var records []map[string]string
	require.NoError(t, json.Unmarshal(doc.Data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, map[string]string{"role": "user", "content": "hi"}, records[0])
	assert.Equal(t, map[string]string{"role": "assistant", "content": "hello"}, records[1])

	// Pretty-printed with 2-space indentation.
	assert.Contains(t, string(doc.Data), "\n  {")
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := Export(sampleConversation(), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		value   string
		want    Format
		wantErr bool
	}{
		{value: "", want: FormatText},
		{value: "text", want: FormatText},
		{value: "txt", want: FormatText},
		{value: "plain", want: FormatText},
		{value: "json", want: FormatJSON},
		{value: "structured", want: FormatJSON},
		{value: "xml", wantErr: true},
	}

	for _, tc := range tests {
		t.Run("value="+tc.value, func(t *testing.T) {
			got, err := ParseFormat(tc.value)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
