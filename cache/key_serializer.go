package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// defaultKeySerializer joins a query name and its parameters with
// KeySeparator. Every segment is escaped so that a parameter containing the
// separator can never produce a key that looks like a longer key.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds "name::p1::p2". Parameters are rendered by kind: scalars
// as text, slices and arrays as [a,b], maps with sorted keys as {k=v}, structs
// by exported field, anything else as JSON. Text inside a list, map or struct
// has its delimiters backslash-escaped, so []string{"a,b"} and
// []string{"a", "b"} render differently.
func (s *defaultKeySerializer) SerializeKey(name string, params ...any) string {
	var b strings.Builder
	b.WriteString(EscapeSegment(name))
	for _, p := range params {
		b.WriteString(KeySeparator)
		b.WriteString(EscapeSegment(s.render(reflect.ValueOf(p), false)))
	}
	return b.String()
}

// EscapeSegment makes s safe to use as one key segment by percent-encoding
// '%' and ':'.
func EscapeSegment(s string) string {
	if !strings.ContainsAny(s, "%:") {
		return s
	}
	return segmentEscaper.Replace(s)
}

var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

var elementEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	"=", `\=`,
	"[", `\[`,
	"]", `\]`,
	"{", `\{`,
	"}", `\}`,
)

// text returns s as rendered text, escaped when it is an element of a
// composite value.
func text(s string, nested bool) string {
	if nested {
		return elementEscaper.Replace(s)
	}
	return s
}

func (s *defaultKeySerializer) render(v reflect.Value, nested bool) string {
	if !v.IsValid() {
		return "nil"
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return s.render(v.Elem(), nested)
	case reflect.String:
		return text(v.String(), nested)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits())
	case reflect.Slice:
		if v.IsNil() {
			return "[]"
		}
		return s.renderList(v)
	case reflect.Array:
		return s.renderList(v)
	case reflect.Map:
		return s.renderMap(v)
	case reflect.Struct:
		return s.renderStruct(v)
	case reflect.Func, reflect.Chan:
		return fmt.Sprintf("%s@%#x", v.Kind(), v.Pointer())
	}
	return text(s.renderJSON(v), nested)
}

func (s *defaultKeySerializer) renderList(v reflect.Value) string {
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = s.render(v.Index(i), true)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *defaultKeySerializer) renderMap(v reflect.Value) string {
	pairs := make([]string, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.render(iter.Key(), true)+"="+s.render(iter.Value(), true))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

func (s *defaultKeySerializer) renderStruct(v reflect.Value) string {
	t := v.Type()
	parts := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		parts = append(parts, f.Name+"="+s.render(v.Field(i), true))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func (s *defaultKeySerializer) renderJSON(v reflect.Value) string {
	if !v.CanInterface() {
		return v.Type().String()
	}
	data, err := json.Marshal(v.Interface())
	if err != nil {
		return v.Type().String()
	}
	return string(data)
}
