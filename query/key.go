package query

import "slices"

// Key identifies a cached read: a query name and its parameters. A key with
// fewer parameters addresses every key that extends it, so invalidating
// NewKey("getPostById") drops the entry of every post.
type Key struct {
	Name   string
	Params []any
}

// NewKey builds a key.
func NewKey(name string, params ...any) Key {
	return Key{Name: name, Params: params}
}

// With returns a copy of k extended by params.
func (k Key) With(params ...any) Key {
	return Key{Name: k.Name, Params: append(slices.Clip(k.Params), params...)}
}
