package config

import (
	"encoding/json"

	"github.com/tvforge/tvforge/pkg/bytesize"
)

// ByteSize is a byte count with human-readable parsing ("64MB", "1.5GiB",
// or a plain number of bytes). It implements encoding.TextUnmarshaler for
// Viper/YAML support.
type ByteSize int64

// ParseByteSize parses a human-readable size string.
func ParseByteSize(s string) (ByteSize, error) {
	v, err := bytesize.Parse(s)
	if err != nil {
		return 0, err
	}
	return ByteSize(v), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting either a string or
// a raw byte count.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*b = ByteSize(n)
		return nil
	}
	return b.UnmarshalText([]byte(s))
}

// MarshalJSON implements json.Marshaler.
func (b ByteSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// Int64 returns the size as a plain byte count.
func (b ByteSize) Int64() int64 {
	return int64(b)
}

// String renders the value human-readably ("64MB", "512KB").
func (b ByteSize) String() string {
	return bytesize.Size(b).String()
}
