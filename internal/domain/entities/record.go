package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Extra keeps the parts of a stored record that its Go type does not model, so
// the record is written back with every field it was read with.
type Extra struct {
	// keys no struct field claims
	fields map[string]json.RawMessage
	// claimed keys whose stored form is not what the field would encode to
	kept map[string]keptValue
	// the whole record when it is not a JSON object
	raw json.RawMessage
}

type keptValue struct {
	stored  json.RawMessage
	decoded []byte
}

// Field returns a stored field no struct field models
func (e *Extra) Field(name string) (json.RawMessage, bool) {
	if e == nil {
		return nil, false
	}
	raw, ok := e.fields[name]
	return raw, ok
}

// Unmodelled returns only the fields no struct field claims, ready to be carried
// over to another record type
func (e *Extra) Unmodelled() *Extra {
	if e == nil || len(e.fields) == 0 {
		return nil
	}
	fields := make(map[string]json.RawMessage, len(e.fields))
	for name, raw := range e.fields {
		fields[name] = raw
	}
	return &Extra{fields: fields}
}

func (e *Extra) keep(name string, stored json.RawMessage, decoded []byte) {
	if e.kept == nil {
		e.kept = make(map[string]keptValue)
	}
	e.kept[name] = keptValue{stored: stored, decoded: decoded}
}

type recordField struct {
	name  string
	index int
}

var recordFieldCache sync.Map

func recordFields(t reflect.Type) []recordField {
	if cached, ok := recordFieldCache.Load(t); ok {
		return cached.([]recordField)
	}

	fields := make([]recordField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields = append(fields, recordField{name: name, index: i})
	}

	recordFieldCache.Store(t, fields)
	return fields
}

func modelled(fields []recordField, name string) bool {
	for _, f := range fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// UnmarshalRecord decodes data into the struct v points to, field by field. A value
// that does not fit its field leaves the field zero and is kept as stored; numbers
// sent as strings are parsed. Fields v does not model are returned in the Extra,
// which is nil when nothing had to be kept.
func UnmarshalRecord(data []byte, v interface{}) (*Extra, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("entities: record target must be a struct pointer, got %T", v)
	}
	rv = rv.Elem()

	var object map[string]json.RawMessage
	err := json.Unmarshal(data, &object)
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr), err == nil && object == nil:
		return &Extra{raw: append(json.RawMessage(nil), data...)}, nil
	case err != nil:
		return nil, err
	}

	extra := &Extra{}
	for _, f := range recordFields(rv.Type()) {
		raw, ok := object[f.name]
		if !ok {
			continue
		}
		delete(object, f.name)

		field := rv.Field(f.index)
		if err := json.Unmarshal(raw, field.Addr().Interface()); err == nil {
			continue
		}
		field.Set(reflect.Zero(field.Type()))
		parseNumber(raw, field)

		decoded, err := json.Marshal(field.Interface())
		if err != nil {
			return nil, fmt.Errorf("entities: encode field %q: %w", f.name, err)
		}
		extra.keep(f.name, raw, decoded)
	}
	if len(object) > 0 {
		extra.fields = object
	}

	if extra.fields == nil && extra.kept == nil {
		return nil, nil
	}
	return extra, nil
}

// MarshalRecord encodes the struct v and merges back what extra kept. A kept value
// is written as stored unless the field changed since it was read.
func MarshalRecord(v interface{}, extra *Extra) ([]byte, error) {
	if extra != nil && extra.raw != nil {
		return extra.raw, nil
	}

	data, err := json.Marshal(v)
	if err != nil || extra == nil {
		return data, err
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, err
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	fields := recordFields(rv.Type())
	for _, f := range fields {
		kept, ok := extra.kept[f.name]
		if !ok {
			continue
		}
		current, err := json.Marshal(rv.Field(f.index).Interface())
		if err != nil {
			return nil, err
		}
		if bytes.Equal(current, kept.decoded) {
			object[f.name] = kept.stored
		}
	}
	for name, raw := range extra.fields {
		if !modelled(fields, name) {
			object[name] = raw
		}
	}

	return json.Marshal(object)
}

// parseNumber fills a numeric field from a JSON string such as "48.85" or "48,85"
func parseNumber(raw json.RawMessage, field reflect.Value) {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return
	}
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))

	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			field.SetFloat(f)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil && !field.OverflowInt(n) {
			field.SetInt(n)
		}
	}
}
