package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinIsIdempotent(t *testing.T) {
	ri := NewRoomIndex()
	cl := NewClient(1)

	ri.Join("meet-42", cl)
	ri.Join("meet-42", cl)
	ri.Join("meet-42", cl)

	members := ri.MembersOf("meet-42")
	require.Len(t, members, 1)
	require.Same(t, cl, members[0])
}

func TestMembersOfUnknownRoomIsEmpty(t *testing.T) {
	ri := NewRoomIndex()

	members := ri.MembersOf("nowhere")
	require.NotNil(t, members)
	require.Empty(t, members)
}

func TestLeavePrunesEmptyRooms(t *testing.T) {
	ri := NewRoomIndex()
	a := NewClient(1)
	b := NewClient(1)

	ri.Join("meet-42", a)
	ri.Join("meet-42", b)
	require.Equal(t, 1, ri.Rooms())

	ri.Leave("meet-42", a)
	require.Equal(t, 1, ri.Rooms())
	require.Len(t, ri.MembersOf("meet-42"), 1)

	ri.Leave("meet-42", b)
	require.Equal(t, 0, ri.Rooms())
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	ri := NewRoomIndex()
	ri.Leave("nowhere", NewClient(1))
	require.Equal(t, 0, ri.Rooms())
}

func TestMembersOfReturnsSnapshot(t *testing.T) {
	ri := NewRoomIndex()
	a := NewClient(1)

	ri.Join("meet-42", a)
	snapshot := ri.MembersOf("meet-42")

	ri.Leave("meet-42", a)

	// The earlier snapshot is unaffected by later mutation.
	require.Len(t, snapshot, 1)
	require.Empty(t, ri.MembersOf("meet-42"))
}
