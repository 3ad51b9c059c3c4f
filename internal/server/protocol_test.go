package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		cmd     string
		payload string
	}{
		{"find Lee 3 2024-05-01 19:00", "find", "Lee 3 2024-05-01 19:00"},
		{"bill", "bill", ""},
		{"  take  ", "take", ""},
		{"order C1: C1-2 D3-1", "order", "C1: C1-2 D3-1"},
		{"", "", ""},
	}
	for _, tc := range tests {
		cmd, payload := parseCommand(tc.line)
		assert.Equal(t, tc.cmd, cmd, "line=%q", tc.line)
		assert.Equal(t, tc.payload, payload, "line=%q", tc.line)
	}
}

func TestWriteReply(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeReply(&b, 2, "T14 ROOM1 FIREPLACE", "T24 ROOM2 ENTRANCE"))
	assert.Equal(t, "2\nT14 ROOM1 FIREPLACE\nT24 ROOM2 ENTRANCE\n", b.String())

	b.Reset()
	require.NoError(t, writeReply(&b, -1))
	assert.Equal(t, "-1\n", b.String())
}

func TestSplitOrderPayload(t *testing.T) {
	course, items, ok := splitOrderPayload("C1: C1-2 D3-1")
	require.True(t, ok)
	assert.Equal(t, "C1", course)
	assert.Equal(t, "C1-2 D3-1", items)

	_, _, ok = splitOrderPayload("no colon here")
	assert.False(t, ok)
	_, _, ok = splitOrderPayload(": C1-2")
	assert.False(t, ok)
	_, _, ok = splitOrderPayload("C1:")
	assert.False(t, ok)
}
