package settings

import (
	_ "embed"
)

//go:embed defaults.json
var defaultsJSON []byte

var template = mustDecode(defaultsJSON)

func mustDecode(data []byte) Document {
	doc, err := Decode(data)
	if err != nil {
		panic(err)
	}
	return doc
}

// Defaults returns a fresh copy of the template new guilds are seeded with.
func Defaults() Document {
	return template.Clone()
}

// DefaultAt returns a copy of the template subtree at p. ok is false when the
// template has nothing at p.
func DefaultAt(p Path) (value any, ok bool) {
	value, ok = template.Get(p)
	if !ok {
		return nil, false
	}
	return Normalize(value), true
}
