package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterJoinOrderAndHost(t *testing.T) {
	r := NewRoster()
	r.Join(1, "alice")
	r.Join(2, "bob")
	r.Join(3, "carol")

	assert.Equal(t, uint(1), r.HostID())
	ids := r.IDs()
	assert.Equal(t, []uint{1, 2, 3}, ids)
	assert.Equal(t, 3, r.ConnectedCount())
}

func TestRosterRejoinKeepsScore(t *testing.T) {
	r := NewRoster()
	p, reconnected := r.Join(1, "alice")
	require.False(t, reconnected)
	p.Score = 42
	p.HasDrawnThisRound = true

	r.SetConnected(1, false)
	q, reconnected := r.Join(1, "alice")
	require.True(t, reconnected)
	assert.True(t, q.Connected)
	assert.Equal(t, 42, q.Score)
	assert.True(t, q.HasDrawnThisRound)
	assert.Equal(t, 1, r.Len())
}

func TestRosterHostMigratesOnLeave(t *testing.T) {
	r := NewRoster()
	r.Join(1, "alice")
	r.Join(2, "bob")
	r.Join(3, "carol")

	require.True(t, r.Leave(1))
	assert.Equal(t, uint(2), r.HostID())
	assert.Equal(t, 2, r.Len())

	// A disconnected player cannot inherit the role.
	r.SetConnected(2, false)
	assert.Equal(t, uint(3), r.HostID())
}

func TestRosterLeaveUnknown(t *testing.T) {
	r := NewRoster()
	assert.False(t, r.Leave(9))
	assert.False(t, r.SetConnected(9, true))
}
