package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextMessage(t *testing.T) {
	identity := Identity{UserID: "u1", UserName: "Ana"}

	msg, err := NewTextMessage(identity, "hello")
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, "Ana", msg.UserName)
	assert.Equal(t, "hello", msg.Text)
	assert.Nil(t, msg.File)
	assert.Positive(t, msg.Timestamp)
}

func TestNewTextMessageValidation(t *testing.T) {
	_, err := NewTextMessage(Identity{}, "hello")
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = NewTextMessage(Identity{UserID: "u1"}, "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNewFileMessageCopiesFileInfo(t *testing.T) {
	file := &FileInfo{URL: "/api/uploads/a.png", Name: "a.png", Size: 10, Type: "image/png"}

	msg, err := NewFileMessage(Identity{UserID: "u1"}, file)
	require.NoError(t, err)

	file.URL = "mutated"
	assert.Equal(t, "/api/uploads/a.png", msg.File.URL)
}

func TestNewFileMessageValidation(t *testing.T) {
	_, err := NewFileMessage(Identity{UserID: "u1"}, nil)
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = NewFileMessage(Identity{UserID: "u1"}, &FileInfo{})
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	identity := Identity{UserID: "u1"}

	for i := 0; i < 100; i++ {
		msg, err := NewTextMessage(identity, "x")
		require.NoError(t, err)
		require.Len(t, msg.ID, 10)

		_, dup := seen[msg.ID]
		require.False(t, dup)
		seen[msg.ID] = struct{}{}
	}
}

func TestMessageJSONShape(t *testing.T) {
	msg := Message{
		ID:        "abc",
		UserID:    "u1",
		UserName:  "Ana",
		Text:      "hi",
		Timestamp: 1700000000000,
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":"abc","userId":"u1","userName":"Ana","text":"hi","timestamp":1700000000000}`, string(data))
}
