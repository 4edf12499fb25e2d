package kind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rhdl-go/rhdl/internal/kind"
)

// fixtureKind is the small, human-editable YAML shape a layout fixture
// describes a kind.Kind with (SPEC_FULL.md §A.4): just enough of the Kind
// algebra (bits, array, struct) to express the struct-of-array-of-bits
// shapes these layout fixtures exercise, not the full sealed interface.
type fixtureKind struct {
	Kind   string         `yaml:"kind"`
	Width  int            `yaml:"width,omitempty"`
	Base   *fixtureKind   `yaml:"base,omitempty"`
	Size   int            `yaml:"size,omitempty"`
	Name   string         `yaml:"name,omitempty"`
	Fields []fixtureField `yaml:"fields,omitempty"`
}

type fixtureField struct {
	Name string      `yaml:"name"`
	Kind fixtureKind `yaml:"kind"`
}

func (f fixtureKind) toKind() kind.Kind {
	switch f.Kind {
	case "bits":
		return kind.BitsKind{N: f.Width}
	case "signed":
		return kind.SignedKind{N: f.Width}
	case "array":
		return kind.ArrayKind{Base: f.Base.toKind(), Size: f.Size}
	case "struct":
		fields := make([]kind.FieldDef, len(f.Fields))
		for i, ff := range f.Fields {
			fields[i] = kind.FieldDef{Name: ff.Name, Kind: ff.Kind.toKind()}
		}
		return kind.StructKind{Name: f.Name, Fields: fields}
	default:
		panic("layout_fixture_test: unknown fixture kind " + f.Kind)
	}
}

// layoutFixture pairs a YAML-described Kind with its expected total width
// and one expected field/element bit range, the same property
// TestStructFieldLayout/TestArrayElementLayout assert from Go literals.
type layoutFixture struct {
	Kind        fixtureKind `yaml:"kind"`
	TotalBits   int         `yaml:"total_bits"`
	FieldName   string      `yaml:"field_name,omitempty"`
	ElementIdx  int64       `yaml:"element_index,omitempty"`
	ExpectStart int         `yaml:"expect_start"`
	ExpectEnd   int         `yaml:"expect_end"`
}

const packetHeaderFixture = `
kind:
  kind: struct
  name: PacketHeader
  fields:
    - name: version
      kind: {kind: bits, width: 4}
    - name: flags
      kind: {kind: bits, width: 4}
    - name: length
      kind: {kind: bits, width: 16}
total_bits: 24
field_name: length
expect_start: 8
expect_end: 24
`

const laneArrayFixture = `
kind:
  kind: array
  base: {kind: bits, width: 8}
  size: 4
total_bits: 32
element_index: 2
expect_start: 16
expect_end: 24
`

func loadLayoutFixture(t *testing.T, doc string) layoutFixture {
	t.Helper()
	var f layoutFixture
	require.NoError(t, yaml.Unmarshal([]byte(doc), &f))
	return f
}

// TestYAMLStructFixtureLayout loads a struct Kind from a YAML fixture
// (rather than a Go literal, unlike TestStructFieldLayout) and checks its
// total width and one field's bit range.
func TestYAMLStructFixtureLayout(t *testing.T) {
	f := loadLayoutFixture(t, packetHeaderFixture)
	k := f.Kind.toKind()

	require.NoError(t, kind.Validate(k))
	assert.Equal(t, f.TotalBits, k.Bits())

	r, _, err := kind.BitRange(k, kind.Path{kind.Field(f.FieldName)})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: f.ExpectStart, End: f.ExpectEnd}, r)
}

// TestYAMLArrayFixtureLayout does the same for an array Kind and an
// element index rather than a field name.
func TestYAMLArrayFixtureLayout(t *testing.T) {
	f := loadLayoutFixture(t, laneArrayFixture)
	k := f.Kind.toKind()

	require.NoError(t, kind.Validate(k))
	assert.Equal(t, f.TotalBits, k.Bits())

	r, _, err := kind.BitRange(k, kind.Path{kind.Index(f.ElementIdx)})
	require.NoError(t, err)
	assert.Equal(t, kind.Range{Start: f.ExpectStart, End: f.ExpectEnd}, r)
}
