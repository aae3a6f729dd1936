package domain

import (
	"errors"
	"time"

	"github.com/jaevor/go-nanoid"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyText       = errors.New("message text is empty")
	ErrMissingIdentity = errors.New("missing user identity")
	ErrInvalidFile     = errors.New("invalid file attachment")
)

// FileInfo describes an uploaded attachment as returned by the upload service.
type FileInfo struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Message is the chat payload relayed between room members. The relay treats
// it as opaque; only clients construct and inspect it. Exactly one of Text
// or File is populated by convention. Timestamp is epoch milliseconds.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text,omitempty"`
	File      *FileInfo `json:"file,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// Identity is what the identity provider yields for the current session.
type Identity struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// newMessageID generates short url-safe tokens. Collisions are not checked
// server-side; unique enough for a single meeting room's message volume.
var newMessageID = func() func() string {
	gen, err := nanoid.CustomASCII("0123456789abcdefghijklmnopqrstuvwxyz", 10)
	if err != nil {
		panic(err)
	}
	return gen
}()

func NewTextMessage(identity Identity, text string) (*Message, error) {
	if identity.UserID == "" {
		return nil, ErrMissingIdentity
	}
	if text == "" {
		return nil, ErrEmptyText
	}

	return &Message{
		ID:        newMessageID(),
		UserID:    identity.UserID,
		UserName:  identity.UserName,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

func NewFileMessage(identity Identity, file *FileInfo) (*Message, error) {
	if identity.UserID == "" {
		return nil, ErrMissingIdentity
	}
	if file == nil || file.URL == "" || file.Size < 0 {
		return nil, ErrInvalidFile
	}

	cpy := *file
	return &Message{
		ID:        newMessageID(),
		UserID:    identity.UserID,
		UserName:  identity.UserName,
		File:      &cpy,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
