package client

import (
	"testing"

	"github.com/meetflow/chat-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryDeduplicatesEchoOfLocalSend(t *testing.T) {
	history := NewHistory()

	msg, err := domain.NewTextMessage(domain.Identity{UserID: "u1", UserName: "Ana"}, "hello")
	require.NoError(t, err)

	assert.True(t, history.AddLocal(msg))
	assert.False(t, history.AddRemote(msg), "relay echo of a local send must not duplicate")
	assert.Equal(t, 1, history.Len())
}

func TestHistoryKeepsArrivalOrder(t *testing.T) {
	history := NewHistory()
	identity := domain.Identity{UserID: "u1", UserName: "Ana"}

	first, err := domain.NewTextMessage(identity, "first")
	require.NoError(t, err)
	second, err := domain.NewTextMessage(identity, "second")
	require.NoError(t, err)

	history.AddRemote(first)
	history.AddLocal(second)

	messages := history.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
}

func TestHistoryMessagesReturnsSnapshot(t *testing.T) {
	history := NewHistory()

	msg, err := domain.NewTextMessage(domain.Identity{UserID: "u1"}, "hello")
	require.NoError(t, err)
	history.AddLocal(msg)

	snapshot := history.Messages()
	snapshot[0].Text = "mutated"

	assert.Equal(t, "hello", history.Messages()[0].Text)
}

func TestHistoryAcceptsDistinctMessagesFromBothSources(t *testing.T) {
	history := NewHistory()

	mine, err := domain.NewTextMessage(domain.Identity{UserID: "u1", UserName: "Ana"}, "mine")
	require.NoError(t, err)
	theirs, err := domain.NewTextMessage(domain.Identity{UserID: "u2", UserName: "Ben"}, "theirs")
	require.NoError(t, err)

	assert.True(t, history.AddLocal(mine))
	assert.True(t, history.AddRemote(theirs))
	assert.Equal(t, 2, history.Len())
}
