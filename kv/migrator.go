package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// compactAll rewrites every value of b in compact JSON and returns the number
// of values visited. Values already compact are left untouched.
func compactAll(b Bucket) (int, error) {
	var pairs []Pair
	if err := forEach(b, func(k, v []byte) error {
		pairs = append(pairs, Pair{
			Key:   append([]byte(nil), k...),
			Value: append([]byte(nil), v...),
		})
		return nil
	}); err != nil {
		return 0, err
	}

	var dst bytes.Buffer
	for _, p := range pairs {
		dst.Reset()
		if err := json.Compact(&dst, p.Value); err != nil {
			return 0, fmt.Errorf("err in migration, k: %s: %w", p.Key, err)
		}
		if bytes.Equal(dst.Bytes(), p.Value) {
			continue
		}
		if err := b.Put(p.Key, append([]byte(nil), dst.Bytes()...)); err != nil {
			return 0, fmt.Errorf("err in migration, k: %s: %w", p.Key, err)
		}
	}
	return len(pairs), nil
}
