// Cache entry and document types.
//
// The document is a single JSON object: a format version and a map of
// entries keyed by caller-chosen strings (for example
// "refresh_token/<tenant>/<client>").
package credcache

import (
	"bytes"
	"maps"
	"time"

	json "github.com/goccy/go-json"
)

// Entry kinds. Kind is free-form; these are the ones the CLI knows about.
const (
	KindAccessToken  = "access_token"
	KindRefreshToken = "refresh_token"
	KindIDToken      = "id_token"
	KindAccount      = "account"
)

// documentVersion is written into every saved document.
const documentVersion = 1

// Entry is one cached credential.
type Entry struct {
	Kind      string            `json:"kind"`
	Secret    string            `json:"secret"`
	ExpiresAt int64             `json:"expires_at,omitempty"` // Unix seconds, 0 = never
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Expired reports whether e has an expiry at or before now.
func (e Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.Unix() >= e.ExpiresAt
}

// clone returns e with its own copy of Attrs.
func (e Entry) clone() Entry {
	e.Attrs = maps.Clone(e.Attrs)
	return e
}

// cloneEntries copies entries deeply enough that no Attrs map is shared
// with the original.
func cloneEntries(entries map[string]Entry) map[string]Entry {
	out := make(map[string]Entry, len(entries))
	for k, e := range entries {
		out[k] = e.clone()
	}
	return out
}

type document struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// decodeDocument parses a saved document. Empty input is an empty cache.
func decodeDocument(data []byte) (map[string]Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Entry{}, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrCorruptCache
	}
	if doc.Entries == nil {
		doc.Entries = map[string]Entry{}
	}
	return doc.Entries, nil
}

func encodeDocument(entries map[string]Entry) ([]byte, error) {
	return json.Marshal(document{Version: documentVersion, Entries: entries})
}
