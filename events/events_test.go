package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBase(t *testing.T) {
	a := NewBase("session.update")
	b := NewBase("session.update")

	assert.Equal(t, "session.update", a.Type)
	assert.NotEmpty(t, a.EventID)
	assert.NotEqual(t, a.EventID, b.EventID)
}

func TestSessionUpdate_NilTurnDetectionSerializesAsNull(t *testing.T) {
	data, err := json.Marshal(SessionUpdate{TurnDetection: nil})
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	require.Contains(t, obj, "turn_detection")
	assert.Nil(t, obj["turn_detection"])
}

func TestSessionUpdate_ServerVAD(t *testing.T) {
	data, err := json.Marshal(SessionUpdate{TurnDetection: ServerVAD()})
	require.NoError(t, err)

	var obj struct {
		TurnDetection struct {
			Type              string `json:"type"`
			CreateResponse    bool   `json:"create_response"`
			InterruptResponse bool   `json:"interrupt_response"`
		} `json:"turn_detection"`
	}
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Equal(t, "server_vad", obj.TurnDetection.Type)
	assert.True(t, obj.TurnDetection.CreateResponse)
	assert.True(t, obj.TurnDetection.InterruptResponse)
}

func TestParse(t *testing.T) {
	evt, err := Parse[ConversationItemTruncatedEvent](
		[]byte(`{"type":"conversation.item.truncated","item_id":"a1","audio_end_ms":1500}`))
	require.NoError(t, err)
	assert.Equal(t, "a1", evt.ItemID)
	assert.Equal(t, 1500, evt.AudioEndMs)

	_, err = Parse[ConversationItemTruncatedEvent]([]byte(`{`))
	assert.Error(t, err)
}

func TestErrorEvent_Error(t *testing.T) {
	evt, err := Parse[ErrorEvent](
		[]byte(`{"type":"error","error":{"code":"rate_limit","message":"slow down"}}`))
	require.NoError(t, err)
	assert.Contains(t, evt.Error(), "rate_limit")
	assert.Contains(t, evt.Error(), "slow down")
}
