// Package cache provides the key-value cache used by the Pantheon API
// client. Entries carry a TTL; an entry past its TTL reads as absent.
//
// Payloads are stored inside a self-describing envelope that records when
// the data was fetched, so callers can tell users how stale a cached
// response is.
package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Store is a key-value cache with per-entry TTL.
type Store interface {
	// Get returns the value for key, or false if the key is absent or its
	// TTL has elapsed.
	Get(key string) ([]byte, bool)

	// Set stores value under key with the given TTL.
	Set(key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Envelope wraps a cached payload with the time it was fetched.
type Envelope struct {
	Data     json.RawMessage `json:"data"`
	CachedAt int64           `json:"cached_at"`
}

// Age returns how long ago the enveloped payload was fetched.
func (e Envelope) Age() time.Duration {
	return time.Since(time.Unix(e.CachedAt, 0))
}

// Wrap serializes payload into an Envelope stamped with now.
func Wrap(payload any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache payload: %w", err)
	}
	return json.Marshal(Envelope{
		Data:     data,
		CachedAt: now.Unix(),
	})
}

// Unwrap deserializes an Envelope produced by Wrap and decodes its payload
// into out. It returns the envelope so callers can report data age.
//
// Entries written before the envelope format are bare payloads; those are
// accepted and reported with a zero CachedAt.
func Unwrap(raw []byte, out any) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal cache envelope: %w", err)
	}
	if env.Data == nil {
		env = Envelope{Data: append(json.RawMessage(nil), raw...)}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env, fmt.Errorf("failed to unmarshal cache payload: %w", err)
		}
	}
	return env, nil
}
