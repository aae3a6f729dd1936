package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/meetflow/chat-relay/internal/domain"
)

const CookieIdentity = "chat_identity"

var ErrNoIdentity = errors.New("no identity on request")

// GetIdentity resolves the caller's identity from the identity cookie,
// falling back to the X-User-Id / X-User-Name headers set by non-browser
// clients. The identity provider upstream is trusted; nothing is verified
// here beyond presence.
func GetIdentity(r *http.Request) (*domain.Identity, error) {
	if identity, err := getCookieIdentity(r); err == nil {
		return identity, nil
	}

	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		return nil, ErrNoIdentity
	}

	userName := r.Header.Get("X-User-Name")
	if userName == "" {
		userName = "Anonymous"
	}

	return &domain.Identity{UserID: userID, UserName: userName}, nil
}

// EnsureIdentity returns the caller's identity, minting and setting a guest
// identity cookie when none is present.
func EnsureIdentity(w http.ResponseWriter, r *http.Request) *domain.Identity {
	if identity, err := GetIdentity(r); err == nil {
		return identity
	}

	identity := &domain.Identity{
		UserID:   uuid.NewString(),
		UserName: "Anonymous",
	}
	SetIdentityCookie(w, identity)
	return identity
}

func SetIdentityCookie(w http.ResponseWriter, identity *domain.Identity) {
	encoded, err := json.Marshal(identity)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieIdentity,
		Value:    base64.StdEncoding.EncodeToString(encoded),
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

func getCookieIdentity(r *http.Request) (*domain.Identity, error) {
	cookie, err := r.Cookie(CookieIdentity)
	if err != nil {
		return nil, ErrNoIdentity
	}

	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, ErrNoIdentity
	}

	identity := &domain.Identity{}
	if err := json.Unmarshal(decoded, identity); err != nil || identity.UserID == "" {
		return nil, ErrNoIdentity
	}
	return identity, nil
}
