package outline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed is returned when an outline document does not have the
// expected shape.
var ErrMalformed = errors.New("malformed outline")

// Decode reads a JSON array of modules. Missing classes, methods and
// functions decode as empty sequences. Any type mismatch or a module without
// a filename fails the whole document.
func Decode(r io.Reader) ([]Module, error) {
	var modules []Module
	dec := json.NewDecoder(r)
	if err := dec.Decode(&modules); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after outline", ErrMalformed)
	}

	for i := range modules {
		m := &modules[i]
		if m.Filename == "" {
			return nil, fmt.Errorf("%w: module %d has no filename", ErrMalformed, i)
		}
		normalize(m)
	}
	if modules == nil {
		modules = []Module{}
	}
	return modules, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) ([]Module, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeModule decodes a single module object.
func DecodeModule(data []byte) (Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return Module{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Filename == "" {
		return Module{}, fmt.Errorf("%w: module has no filename", ErrMalformed)
	}
	normalize(&m)
	return m, nil
}

// Encode writes modules in the wire format. Empty sequences are written as
// [] rather than null.
func Encode(w io.Writer, modules []Module) error {
	out := make([]Module, len(modules))
	for i, m := range modules {
		out[i] = m.clone()
		normalize(&out[i])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	return nil
}

// normalize replaces nil sequences with empty ones and sets owner tags.
func normalize(m *Module) {
	if m.Classes == nil {
		m.Classes = []Class{}
	}
	if m.Functions == nil {
		m.Functions = []Symbol{}
	}
	for i := range m.Functions {
		m.Functions[i].Owner = OwnerModule
	}
	for i := range m.Classes {
		c := &m.Classes[i]
		if c.Methods == nil {
			c.Methods = []Symbol{}
		}
		for j := range c.Methods {
			c.Methods[j].Owner = OwnerClass
		}
	}
}

func (m Module) clone() Module {
	c := Module{Filename: m.Filename}
	if m.Functions != nil {
		c.Functions = append([]Symbol{}, m.Functions...)
	}
	if m.Classes != nil {
		c.Classes = make([]Class, len(m.Classes))
		for i, cls := range m.Classes {
			c.Classes[i] = cls
			if cls.Methods != nil {
				c.Classes[i].Methods = append([]Symbol{}, cls.Methods...)
			}
		}
	}
	return c
}
