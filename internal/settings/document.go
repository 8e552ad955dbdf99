// Package settings models the per-guild settings document: typed paths into
// it, the operations the store applies to it, and the default template.
package settings

import (
	"errors"
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNotList   = errors.New("settings: value at path is not a list")
	ErrNotObject = errors.New("settings: value at path is not an object")
)

// Document is a decoded guild settings tree. Values are restricted to the
// JSON data model: map[string]any, []any, string, float64, bool and nil.
type Document map[string]any

func Decode(data []byte) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode settings document: %w", err)
	}
	return doc, nil
}

func (d Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

func (d Document) Clone() Document {
	out, _ := Normalize(map[string]any(d)).(map[string]any)
	if out == nil {
		return Document{}
	}
	return Document(out)
}

// Normalize converts v into the JSON data model so stored values compare
// equal to values read back from any backend.
func Normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func (d Document) Get(p Path) (any, bool) {
	if p.IsRoot() {
		return map[string]any(d), true
	}
	var current any = map[string]any(d)
	for _, key := range p {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key.Name]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set overwrites the value at p, creating intermediate objects. Setting the
// root replaces the whole document and requires an object.
func (d Document) Set(p Path, value any) error {
	value = Normalize(value)
	if p.IsRoot() {
		obj, ok := value.(map[string]any)
		if !ok {
			return ErrNotObject
		}
		for k := range d {
			delete(d, k)
		}
		for k, v := range obj {
			d[k] = v
		}
		return nil
	}
	parent := d.parent(p, true)
	parent[p[len(p)-1].Name] = value
	return nil
}

func (d Document) Push(p Path, value any, allowDuplicates bool) error {
	value = Normalize(value)
	list, err := d.list(p, true)
	if err != nil {
		return err
	}
	if !allowDuplicates && indexOf(list, value) >= 0 {
		return nil
	}
	return d.Set(p, append(list, value))
}

// Remove drops the first entry equal to value. A missing list is a no-op.
func (d Document) Remove(p Path, value any) error {
	list, err := d.list(p, false)
	if err != nil || list == nil {
		return err
	}
	idx := indexOf(list, Normalize(value))
	if idx < 0 {
		return nil
	}
	out := make([]any, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return d.Set(p, out)
}

func (d Document) Delete(p Path) error {
	if p.IsRoot() {
		for k := range d {
			delete(d, k)
		}
		return nil
	}
	parent := d.parent(p, false)
	if parent != nil {
		delete(parent, p[len(p)-1].Name)
	}
	return nil
}

// Ensure sets value at p only when nothing is stored there yet.
func (d Document) Ensure(p Path, value any) error {
	if _, ok := d.Get(p); ok {
		return nil
	}
	return d.Set(p, value)
}

func (d Document) Includes(p Path, value any) (bool, error) {
	list, err := d.list(p, false)
	if err != nil {
		return false, err
	}
	return indexOf(list, Normalize(value)) >= 0, nil
}

func (d Document) parent(p Path, create bool) map[string]any {
	current := map[string]any(d)
	for _, key := range p[:len(p)-1] {
		next, ok := current[key.Name].(map[string]any)
		if !ok {
			if !create {
				return nil
			}
			next = map[string]any{}
			current[key.Name] = next
		}
		current = next
	}
	return current
}

func (d Document) list(p Path, create bool) ([]any, error) {
	value, ok := d.Get(p)
	if !ok || value == nil {
		if create {
			return []any{}, nil
		}
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotList, p)
	}
	return list, nil
}

func indexOf(list []any, value any) int {
	for i, item := range list {
		if reflect.DeepEqual(item, value) {
			return i
		}
	}
	return -1
}
