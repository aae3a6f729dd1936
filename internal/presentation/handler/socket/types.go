package socket

import "github.com/meetflow/chat-relay/internal/relay"

type connectResponse struct {
	SID string `json:"sid"`
}

type pollResponse struct {
	Envelopes []*relay.Envelope `json:"envelopes"`
}
