package outline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The document the analysis service returns for a single file.
const serviceDoc = `[
  {
    "filename": "/repo/test_file.py",
    "classes": [
      {
        "name": "TestClass",
        "line_number": 2,
        "end_line_number": 7,
        "methods": [
          {"name": "method1", "line_number": 3, "end_line_number": 4},
          {"name": "method2", "line_number": 6, "end_line_number": 7}
        ]
      }
    ],
    "functions": [
      {"name": "standalone_function", "line_number": 9, "end_line_number": 10}
    ]
  }
]`

func TestDecode(t *testing.T) {
	modules, err := DecodeBytes([]byte(serviceDoc))
	require.NoError(t, err)
	require.Len(t, modules, 1)

	m := modules[0]
	assert.Equal(t, "/repo/test_file.py", m.Filename)
	assert.Equal(t, "test_file.py", m.Base())
	require.Len(t, m.Classes, 1)
	assert.Equal(t, Class{
		Name: "TestClass", Line: 2, EndLine: 7,
		Methods: []Symbol{NewMethod("method1", 3, 4), NewMethod("method2", 6, 7)},
	}, m.Classes[0])
	assert.Equal(t, []Symbol{NewFunction("standalone_function", 9, 10)}, m.Functions)
	assert.Equal(t, 4, m.SymbolCount())
}

func TestDecodeMissingSequences(t *testing.T) {
	modules, err := DecodeBytes([]byte(`[{"filename": "a.py", "classes": [{"name": "A", "line_number": 1, "end_line_number": 2}]}]`))
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.NotNil(t, modules[0].Functions)
	assert.Empty(t, modules[0].Functions)
	assert.NotNil(t, modules[0].Classes[0].Methods)
}

func TestDecodeEmpty(t *testing.T) {
	for _, doc := range []string{`[]`, `null`, " [ ] \n"} {
		modules, err := DecodeBytes([]byte(doc))
		require.NoError(t, err, doc)
		assert.NotNil(t, modules, doc)
		assert.Empty(t, modules, doc)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ``},
		{"object", `{"filename": "a.py"}`},
		{"no filename", `[{"classes": []}]`},
		{"empty filename", `[{"filename": ""}]`},
		{"string line", `[{"filename": "a.py", "functions": [{"name": "f", "line_number": "ten"}]}]`},
		{"classes not array", `[{"filename": "a.py", "classes": {}}]`},
		{"trailing data", `[] []`},
		{"truncated", `[{"filename": "a.py"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modules, err := DecodeBytes([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, modules)
		})
	}
}

func TestDecodeModule(t *testing.T) {
	m, err := DecodeModule([]byte(`{"filename": "a.py", "functions": [{"name": "f", "line_number": 1, "end_line_number": 1}]}`))
	require.NoError(t, err)
	assert.Equal(t, OwnerModule, m.Functions[0].Owner)
	assert.NotNil(t, m.Classes)

	_, err = DecodeModule([]byte(`{"classes": []}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncode(t *testing.T) {
	modules := []Module{{Filename: "/r/a.py"}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, modules))
	out := buf.String()
	assert.Contains(t, out, `"classes": []`)
	assert.Contains(t, out, `"functions": []`)
	assert.NotContains(t, out, "null")
	assert.NotContains(t, out, "Owner")

	assert.Nil(t, modules[0].Classes, "Encode must not modify its input")
	assert.Nil(t, modules[0].Functions)
}

func TestEncodeNil(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestEncodeDecode(t *testing.T) {
	modules, err := DecodeBytes([]byte(serviceDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, modules))
	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, modules, again)
}

func TestBase(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"/a/b/c.py", "c.py"},
		{"c.py", "c.py"},
		{"/trailing/", ""},
		{"", ""},
		{`C:\x\y.py`, `C:\x\y.py`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Module{Filename: tt.filename}.Base(), tt.filename)
	}
}

func TestOwnerString(t *testing.T) {
	assert.Equal(t, "function", OwnerModule.String())
	assert.Equal(t, "method", OwnerClass.String())
}
