// Package storage holds the byte-level backends behind checklist
// persistence: in-memory, one-file-per-key on disk, and SQLite.
package storage

import "pagekit/enhance"

// Prefixed partitions a shared backend: every key is stored as
// prefix + "|" + key.
func Prefixed(b enhance.Backend, prefix string) enhance.Backend {
	if b == nil {
		return nil
	}
	return &prefixed{b: b, prefix: prefix + "|"}
}

type prefixed struct {
	b      enhance.Backend
	prefix string
}

func (p *prefixed) GetItem(key string) ([]byte, error) { return p.b.GetItem(p.prefix + key) }

func (p *prefixed) SetItem(key string, value []byte) error {
	return p.b.SetItem(p.prefix+key, value)
}
