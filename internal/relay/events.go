package relay

import "encoding/json"

const (
	EventJoinRoom       = "join-room"
	EventJoinedRoom     = "joined-room"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
)

// Envelope is the tagged wire frame for every relay event. The message body
// stays raw JSON end to end: the relay inspects roomId only, and message
// identity survives the round trip byte for byte.
type Envelope struct {
	Event   string          `json:"event"`
	RoomID  string          `json:"roomId,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
}

func NewJoinRoom(roomID string) *Envelope {
	return &Envelope{
		Event:  EventJoinRoom,
		RoomID: roomID,
	}
}

func NewJoinedRoom(roomID string) *Envelope {
	return &Envelope{
		Event:  EventJoinedRoom,
		RoomID: roomID,
	}
}

func NewSendMessage(roomID string, message json.RawMessage) *Envelope {
	return &Envelope{
		Event:   EventSendMessage,
		RoomID:  roomID,
		Message: message,
	}
}

func NewReceiveMessage(message json.RawMessage) *Envelope {
	return &Envelope{
		Event:   EventReceiveMessage,
		Message: message,
	}
}
