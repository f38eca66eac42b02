package marker

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// ReadJSON reads a marker list written by WriteJSON. Markers come back
// normalized.
func ReadJSON(r io.Reader) ([]Marker, error) {
	var ms []Marker
	if err := json.NewDecoder(r).Decode(&ms); err != nil {
		return nil, errors.Wrap(err, "decoding markers json")
	}
	return Normalize(ms), nil
}

// WriteJSON writes markers as an indented JSON array. A nil list is
// written as [] so readers always see an array.
func WriteJSON(w io.Writer, ms []Marker) error {
	if ms == nil {
		ms = []Marker{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(ms), "encoding markers json")
}
