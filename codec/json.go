package codec

import "encoding/json"

// JSON is the standard-library JSON codec.
//
// Item payloads survive a round trip as generic JSON values
// (map[string]any, []any, float64); identity and ordering are exact.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured. Snapshots are
// self-describing, so existing files remain readable if this changes.
var Default Codec = JSON{}
