// Package auth gates listing-desk requests: signed form nonces, sessions,
// API keys, and the role capabilities that decide who may search, edit
// and export.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Nonce actions.
const (
	ActionAjax     = "listing_ajax"
	ActionSaveMeta = "save_property_meta"
)

// nonceLen is the number of hex characters kept from the signature.
const nonceLen = 20

// Nonces issues and checks time-limited form tokens bound to an action and
// a subject (the session email, or "" for anonymous visitors).
// A nonce is accepted for between half and one full lifetime.
type Nonces struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewNonces creates a nonce issuer. An empty secret is replaced with random
// bytes, so nonces stop verifying after a restart.
func NewNonces(secret string, lifetime time.Duration) (*Nonces, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generating nonce secret: %w", err)
		}
	}
	if lifetime < 2*time.Second {
		return nil, fmt.Errorf("nonce lifetime too short: %s", lifetime)
	}
	return &Nonces{secret: key, lifetime: lifetime, now: time.Now}, nil
}

// Create returns a nonce for action and subject valid from now.
func (n *Nonces) Create(action, subject string) string {
	return n.sign(n.tick(), action, subject)
}

// Verify reports whether nonce was issued for action and subject in the
// current or previous tick.
func (n *Nonces) Verify(nonce, action, subject string) bool {
	if len(nonce) != nonceLen {
		return false
	}
	tick := n.tick()
	for _, t := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(nonce), []byte(n.sign(t, action, subject))) {
			return true
		}
	}
	return false
}

func (n *Nonces) tick() int64 {
	half := int64(n.lifetime / 2 / time.Second)
	return n.now().Unix() / half
}

func (n *Nonces) sign(tick int64, action, subject string) string {
	mac := hmac.New(sha256.New, n.secret)
	mac.Write([]byte(strconv.FormatInt(tick, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(action))
	mac.Write([]byte{0})
	mac.Write([]byte(subject))
	return hex.EncodeToString(mac.Sum(nil))[:nonceLen]
}
