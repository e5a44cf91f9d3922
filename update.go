package docmigrate

import (
	"encoding/json"
	"sort"

	"github.com/tidwall/sjson"
)

// PartialUpdate maps a dotted field path to the new value of that field.
// An empty update signals that a document needs no change.
type PartialUpdate map[string]interface{}

// Set records the new value of the field at path.
func (u PartialUpdate) Set(path string, value interface{}) {
	u[path] = value
}

// IsEmpty reports whether the update changes nothing.
func (u PartialUpdate) IsEmpty() bool {
	return len(u) == 0
}

// Paths returns the updated field paths in lexical order. A parent path
// always sorts before its children.
func (u PartialUpdate) Paths() []string {
	paths := make([]string, 0, len(u))
	for p := range u {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ApplyTo returns a copy of the raw JSON document with every field of the
// update written into it. json.RawMessage values are spliced in verbatim.
func (u PartialUpdate) ApplyTo(raw []byte) ([]byte, error) {
	out := append([]byte(nil), raw...)
	for _, path := range u.Paths() {
		var err error
		switch v := u[path].(type) {
		case json.RawMessage:
			out, err = sjson.SetRawBytes(out, path, v)
		default:
			out, err = sjson.SetBytes(out, path, v)
		}
		if err != nil {
			return nil, &Error{
				Code: EInvalid,
				Op:   "docmigrate.PartialUpdate.ApplyTo",
				Msg:  "unable to set " + path,
				Err:  err,
			}
		}
	}
	return out, nil
}
