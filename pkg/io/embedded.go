package io

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeEmbedded decodes raw into v, where raw is either a JSON value or a
// JSON string holding an encoded value. The prediction backend double-encodes
// most of its payloads.
func DecodeEmbedded(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	return json.Unmarshal(raw, v)
}
