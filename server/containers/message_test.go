package containers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelltigre/sketchparty/game"
)

func decode(t *testing.T, raw string) ActionMessage {
	t.Helper()
	var m ActionMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestToActionCarriesPayloads(t *testing.T) {
	m := decode(t, `{"type": "initialize", "msg": {"rounds": 3, "timeLimitSeconds": 90}}`)
	a, err := m.ToAction(7)
	require.NoError(t, err)
	assert.Equal(t, game.ActionInitialize, a.Type)
	assert.Equal(t, uint(7), a.ActorID)
	assert.Equal(t, 3, a.Rounds)
	assert.Equal(t, 90, a.TimeLimitSecs)

	m = decode(t, `{"type": "guess", "msg": {"guess": "elephant"}}`)
	a, err = m.ToAction(7)
	require.NoError(t, err)
	assert.Equal(t, game.ActionGuess, a.Type)
	assert.Equal(t, "elephant", a.Guess)

	m = decode(t, `{"type": "submitEarly", "msg": {"imageData": "data:image/png;base64,xyzzy"}}`)
	a, err = m.ToAction(7)
	require.NoError(t, err)
	assert.Equal(t, game.ActionSubmit, a.Type)
	assert.Equal(t, "data:image/png;base64,xyzzy", a.ImageData)
}

func TestToActionPayloadlessTypes(t *testing.T) {
	for _, typ := range []string{"nextTurn", "end", "leave"} {
		m := ActionMessage{Type: typ}
		a, err := m.ToAction(7)
		require.NoError(t, err, "type %s", typ)
		assert.Equal(t, game.ActionType(typ), a.Type)
	}
}

func TestToActionRejectsUnknownType(t *testing.T) {
	m := decode(t, `{"type": "teleport", "msg": {}}`)
	_, err := m.ToAction(7)
	assert.Error(t, err)
}

func TestToActionRejectsMalformedPayload(t *testing.T) {
	m := decode(t, `{"type": "start", "msg": {"word": 42}}`)
	_, err := m.ToAction(7)
	assert.Error(t, err)
}

func TestEncodeRejectionWireShape(t *testing.T) {
	raw, err := EncodeRejection(&game.Rejection{Code: game.RejectBadActor, Reason: "only the host can start a game"})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "error",
		"msg": {"code": "bad_actor", "reason": "only the host can start a game"}
	}`, string(raw))
}
