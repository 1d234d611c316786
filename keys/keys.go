// Package keys derives stable cache keys from structured input.
package keys

import (
	"bytes"
	"crypto/sha1"
	"encoding"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Null is what Canonical renders for nil and JSON null.
const Null = "null"

// maxDepth bounds nesting; deeper (or cyclic) values use the fallback rendering.
const maxDepth = 64

var errUnsupported = errors.New("keys: value has no canonical form")

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

var (
	marshalerType     = reflect.TypeFor[jsonMarshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	numberType        = reflect.TypeFor[json.Number]()
)

/*
Canonical renders v as a deterministic string.

- Maps and structs render as objects with keys sorted lexicographically,
  so field insertion order never changes the result
- Struct fields follow their json tags (name, "-", omitempty)
- Slices and arrays keep their order
- Scalars use their JSON text
- nil renders as Null
- A string that is not valid UTF-8 renders as ! followed by its Go-quoted
  bytes, so no two distinct strings share a rendering

Values that have no JSON form (channels, funcs) fall back to their %v text.
*/
func Canonical(v any) string {
	if v == nil {
		return Null
	}

	var b strings.Builder
	if err := writeValue(&b, reflect.ValueOf(v), 0); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return b.String()
}

func writeValue(b *strings.Builder, rv reflect.Value, depth int) error {
	if depth > maxDepth {
		return errUnsupported
	}
	if !rv.IsValid() {
		b.WriteString(Null)
		return nil
	}

	t := rv.Type()
	if t == numberType {
		b.WriteString(rv.String())
		return nil
	}
	if rv.CanInterface() && t.Kind() != reflect.Interface {
		if t.Implements(marshalerType) {
			if t.Kind() == reflect.Pointer && rv.IsNil() {
				b.WriteString(Null)
				return nil
			}
			return writeMarshaled(b, rv.Interface())
		}
		if rv.CanAddr() && reflect.PointerTo(t).Implements(marshalerType) {
			return writeMarshaled(b, rv.Addr().Interface())
		}
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString(Null)
			return nil
		}
		return writeValue(b, rv.Elem(), depth+1)

	case reflect.String:
		writeString(b, rv.String())

	case reflect.Bool:
		b.WriteString(strconv.FormatBool(rv.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		var f any = rv.Float()
		if rv.Kind() == reflect.Float32 {
			f = float32(rv.Float())
		}
		raw, err := json.Marshal(f)
		if err != nil {
			return errUnsupported
		}
		b.Write(raw)

	case reflect.Slice:
		if rv.IsNil() {
			b.WriteString(Null)
			return nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			// base64, as encoding/json does for []byte
			raw, _ := json.Marshal(rv.Bytes())
			b.Write(raw)
			return nil
		}
		return writeSequence(b, rv, depth)

	case reflect.Array:
		return writeSequence(b, rv, depth)

	case reflect.Map:
		if rv.IsNil() {
			b.WriteString(Null)
			return nil
		}
		return writeMap(b, rv, depth)

	case reflect.Struct:
		fields := map[string]reflect.Value{}
		if err := collectFields(fields, rv, depth); err != nil {
			return err
		}
		return writeObject(b, fields, depth)

	default:
		return errUnsupported
	}
	return nil
}

// writeString keeps valid UTF-8 as JSON text and every other byte sequence exact.
func writeString(b *strings.Builder, s string) {
	if !utf8.ValidString(s) {
		b.WriteByte('!')
		b.WriteString(strconv.Quote(s))
		return
	}
	raw, _ := json.Marshal(s)
	b.Write(raw)
}

func writeSequence(b *strings.Builder, rv reflect.Value, depth int) error {
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeValue(b, rv.Index(i), depth+1); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func writeMap(b *strings.Builder, rv reflect.Value, depth int) error {
	fields := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key())
		if err != nil {
			return err
		}
		fields[k] = iter.Value()
	}
	return writeObject(b, fields, depth)
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if k.CanInterface() && k.Type().Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", errUnsupported
		}
		return string(text), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", errUnsupported
}

func writeObject(b *strings.Builder, fields map[string]reflect.Value, depth int) error {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	slices.Sort(names)

	b.WriteByte('{')
	for i, k := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(b, k)
		b.WriteByte(':')
		if err := writeValue(b, fields[k], depth+1); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

// collectFields gathers the JSON-visible fields of a struct, promoting untagged embedded structs.
func collectFields(dst map[string]reflect.Value, rv reflect.Value, depth int) error {
	if depth > maxDepth {
		return errUnsupported
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv, ft = fv.Elem(), ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := collectFields(dst, fv, depth+1); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if slices.Contains(strings.Split(opts, ","), "omitempty") && isEmpty(fv) {
			continue
		}
		if _, seen := dst[name]; !seen {
			dst[name] = fv
		}
	}
	return nil
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

// writeMarshaled canonicalizes the output of a custom MarshalJSON.
func writeMarshaled(b *strings.Builder, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errUnsupported
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic any
	if err := dec.Decode(&generic); err != nil {
		return errUnsupported
	}
	writeGeneric(b, generic)
	return nil
}

func writeGeneric(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString(Null)
	case map[string]any:
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		slices.Sort(names)

		b.WriteByte('{')
		for i, k := range names {
			if i > 0 {
				b.WriteByte(',')
			}
			writeString(b, k)
			b.WriteByte(':')
			writeGeneric(b, t[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeGeneric(b, e)
		}
		b.WriteByte(']')
	case json.Number:
		b.WriteString(t.String())
	case string:
		writeString(b, t)
	default:
		raw, _ := json.Marshal(t)
		b.Write(raw)
	}
}

// Derive returns the SHA-1 hex digest of Canonical(v): 40 characters regardless of input size.
func Derive(v any) string {
	sum := sha1.Sum([]byte(Canonical(v)))
	return hex.EncodeToString(sum[:])
}

// ForTool namespaces a derived key with a tool name, e.g. "vin_lookup:3f2a...".
func ForTool(name string, args any) string {
	return name + ":" + Derive(args)
}
