package codec

import "github.com/sugawarayuuta/sonnet"

// Sonnet is a JSON codec backed by github.com/sugawarayuuta/sonnet, a
// drop-in encoding/json replacement with faster decoding.
type Sonnet struct{}

// Marshal encodes the value to compact JSON.
func (Sonnet) Marshal(v any) ([]byte, error) { return sonnet.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (Sonnet) Unmarshal(data []byte, v any) error { return sonnet.Unmarshal(data, v) }

// Name returns the unique name of the codec ("sonnet").
func (Sonnet) Name() string { return "sonnet" }

// Append encodes the value to JSON and appends it to dst.
func (Sonnet) Append(dst []byte, v any) ([]byte, error) {
	b, err := sonnet.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
