// internal/web/flash.go
package web

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const flashCookie = "flash"

// Message categories understood by the layout template.
const (
	CategorySuccess = "success"
	CategoryError   = "error"
)

// Message is a one-shot notice shown on the next rendered page.
type Message struct {
	Category string `json:"c"`
	Text     string `json:"t"`
}

// Success and Error build messages for immediate rendering.
func Success(text string) Message { return Message{Category: CategorySuccess, Text: text} }
func Error(text string) Message   { return Message{Category: CategoryError, Text: text} }

// Flasher keeps flash messages in a cookie signed with a keyed BLAKE2b MAC.
type Flasher struct {
	key [32]byte
}

func NewFlasher(secret []byte) *Flasher {
	return &Flasher{key: blake2b.Sum256(secret)}
}

// Add queues msg for the next page the client renders.
func (f *Flasher) Add(w http.ResponseWriter, r *http.Request, msg Message) {
	msgs := append(f.read(r), msg)

	payload, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(f.sign(payload))

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending messages and clears the cookie.
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) []Message {
	if _, err := r.Cookie(flashCookie); err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return f.read(r)
}

func (f *Flasher) read(r *http.Request) []Message {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}

	encPayload, encMAC, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return nil
	}
	mac, err := base64.RawURLEncoding.DecodeString(encMAC)
	if err != nil || subtle.ConstantTimeCompare(mac, f.sign(payload)) != 1 {
		return nil
	}

	var msgs []Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil
	}
	return msgs
}

func (f *Flasher) sign(payload []byte) []byte {
	h, _ := blake2b.New256(f.key[:])
	h.Write(payload)
	return h.Sum(nil)
}
