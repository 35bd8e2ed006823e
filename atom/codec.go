package atom

import (
	"bytes"
	"encoding/json"
)

// Atoms encode as their content only. The storage variant and any table
// index are process-local, so decoding goes back through Default().New and
// may pick a different variant than the one that was encoded.

// MarshalText implements encoding.TextMarshaler.
func (a Atom) MarshalText() ([]byte, error) {
	return a.Bytes(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The previous value of
// a is released.
func (a *Atom) UnmarshalText(text []byte) error {
	a.Release()
	*a = Default().NewBytes(text)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Atom) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.view())
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves a unchanged.
func (a *Atom) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	a.Release()
	*a = Default().New(s)
	return nil
}
