// Package tensor holds arbitrarily nested numeric sequences, such as the
// per-layer weight and bias tensors stored in model files.
package tensor

import "bytes"
import "encoding/json"

import "github.com/pkg/errors"

// Nested is either a leaf number or an ordered list of Nested values.
type Nested struct {
	leaf   float64
	items  []Nested
	isLeaf bool
}

// Leaf makes a leaf value.
func Leaf(v float64) Nested {
	return Nested{leaf: v, isLeaf: true}
}

// List makes a list value.
func List(items ...Nested) Nested {
	if items == nil {
		items = []Nested{}
	}
	return Nested{items: items}
}

// Vector makes a one level list.
func Vector(values []float64) Nested {
	items := make([]Nested, len(values))
	for i, v := range values {
		items[i] = Leaf(v)
	}
	return List(items...)
}

// Matrix makes a two level list, one inner list per row.
func Matrix(rows [][]float64) Nested {
	items := make([]Nested, len(rows))
	for i, r := range rows {
		items[i] = Vector(r)
	}
	return List(items...)
}

// IsLeaf reports whether n is a number rather than a list.
func (n Nested) IsLeaf() bool {
	return n.isLeaf
}

// Value returns the number of a leaf.
func (n Nested) Value() float64 {
	return n.leaf
}

// Items returns the children of a list.
func (n Nested) Items() []Nested {
	return n.items
}

// Walk visits every leaf depth-first, in order.
func (n Nested) Walk(visit func(float64)) {
	if n.isLeaf {
		visit(n.leaf)
		return
	}
	for _, item := range n.items {
		item.Walk(visit)
	}
}

// Flatten returns all leaves in depth-first order.
func (n Nested) Flatten() []float64 {
	out := make([]float64, 0, n.Count())
	n.Walk(func(v float64) {
		out = append(out, v)
	})
	return out
}

// Count returns the number of leaves.
func (n Nested) Count() (c int) {
	n.Walk(func(float64) {
		c++
	})
	return c
}

// MarshalJSON encodes leaves as numbers and lists as arrays.
func (n Nested) MarshalJSON() ([]byte, error) {
	if n.isLeaf {
		return json.Marshal(n.leaf)
	}
	var b bytes.Buffer
	b.WriteByte('[')
	for i, item := range n.items {
		if i != 0 {
			b.WriteByte(',')
		}
		data, err := item.MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(data)
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

// UnmarshalJSON accepts a number or an array of nested values.
func (n *Nested) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]Nested, len(raw))
		for i := range raw {
			if err := items[i].UnmarshalJSON(raw[i]); err != nil {
				return errors.Wrapf(err, "item %d", i)
			}
		}
		*n = List(items...)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "nested value must be a number or an array")
	}
	*n = Leaf(v)
	return nil
}
