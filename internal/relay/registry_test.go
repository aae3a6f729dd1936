package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackRequiresRegistration(t *testing.T) {
	r := NewRegistry()
	cl := NewClient(1)

	require.False(t, r.Track(cl, "meet-42"))

	r.Add(cl)
	require.True(t, r.Track(cl, "meet-42"))
	require.True(t, r.InRoom(cl, "meet-42"))
	require.False(t, r.InRoom(cl, "meet-43"))
}

func TestRemoveReturnsJoinedRooms(t *testing.T) {
	r := NewRegistry()
	cl := NewClient(1)

	r.Add(cl)
	r.Track(cl, "meet-42")
	r.Track(cl, "meet-43")
	r.Track(cl, "meet-42") // repeat join, no extra entry

	rooms, ok := r.Remove(cl)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"meet-42", "meet-43"}, rooms)
	require.Equal(t, 0, r.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	cl := NewClient(1)

	r.Add(cl)
	_, ok := r.Remove(cl)
	require.True(t, ok)

	rooms, ok := r.Remove(cl)
	require.False(t, ok)
	require.Nil(t, rooms)

	// A removed connection cannot re-enter rooms.
	require.False(t, r.Track(cl, "meet-42"))
}
