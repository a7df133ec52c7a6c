package rtvoice

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/rtvoice/realtime"
)

func TestEventLog_AppendAggregates(t *testing.T) {
	var log EventLog
	now := time.Now()

	require.True(t, log.Append(now, realtime.SourceServer, "response.audio.delta", nil))
	require.False(t, log.Append(now, realtime.SourceServer, "response.audio.delta", nil))
	require.False(t, log.Append(now, realtime.SourceServer, "response.audio.delta", nil))
	require.True(t, log.Append(now, realtime.SourceServer, "response.done", nil))

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "response.audio.delta", entries[0].Type)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, "response.done", entries[1].Type)
	assert.Equal(t, 1, entries[1].Count)
}

func TestEventLog_AlternatingTypesDoNotMerge(t *testing.T) {
	var log EventLog
	now := time.Now()

	log.Append(now, realtime.SourceClient, "input_audio_buffer.append", nil)
	log.Append(now, realtime.SourceServer, "response.audio.delta", nil)
	log.Append(now, realtime.SourceClient, "input_audio_buffer.append", nil)

	entries := log.Entries()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, 1, e.Count)
	}
}

func TestEventLog_MergeKeepsLatestPayload(t *testing.T) {
	var log EventLog
	now := time.Now()

	log.Append(now, realtime.SourceServer, "response.audio.delta", json.RawMessage(`{"n":1}`))
	log.Append(now.Add(time.Second), realtime.SourceServer, "response.audio.delta", json.RawMessage(`{"n":2}`))

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"n":2}`, string(entries[0].Payload))
	assert.Equal(t, 2, entries[0].Count)
}

func TestEventLog_Reset(t *testing.T) {
	var log EventLog
	log.Append(time.Now(), realtime.SourceServer, "session.created", nil)
	require.Equal(t, 1, log.Len())

	log.Reset()
	assert.Zero(t, log.Len())
	assert.Empty(t, log.Entries())

	// an entry after reset starts a fresh run, even with the same type
	require.True(t, log.Append(time.Now(), realtime.SourceServer, "session.created", nil))
	require.Equal(t, 1, log.Entries()[0].Count)
}
