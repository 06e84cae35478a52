package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Attribute is a sealed interface for the immutable payloads attached to
// operations. Attributes are compared and hashed structurally through their
// canonical JSON form (see AttrEqual, AttrHash); they are never mutated in
// place. Replacing an attribute means installing a new one with SetAttr.
//
// Only the types in this file implement Attribute.
type Attribute interface {
	attribute()

	// canonical returns the attribute as a tree of string, int64, bool,
	// []any and map[string]any values accepted by MarshalCanonical.
	canonical() any

	String() string
}

// Type is an Attribute that tags a Value. Types print as short names
// ("i32", "index", "none") and serialize as bare JSON strings.
type Type interface {
	Attribute
	typeTag()
}

// IntegerType is a signless integer of Width bits.
type IntegerType struct {
	Width int
}

func (IntegerType) attribute() {}
func (IntegerType) typeTag()   {}

func (t IntegerType) canonical() any { return t.String() }

func (t IntegerType) String() string { return fmt.Sprintf("i%d", t.Width) }

// IndexType is the target-sized integer used for sizes and subscripts.
type IndexType struct{}

func (IndexType) attribute()     {}
func (IndexType) typeTag()       {}
func (IndexType) canonical() any { return "index" }
func (IndexType) String() string { return "index" }

// NoneType is the unit type.
type NoneType struct{}

func (NoneType) attribute()     {}
func (NoneType) typeTag()       {}
func (NoneType) canonical() any { return "none" }
func (NoneType) String() string { return "none" }

// Common types.
var (
	I1    Type = IntegerType{Width: 1}
	I8    Type = IntegerType{Width: 8}
	I16   Type = IntegerType{Width: 16}
	I32   Type = IntegerType{Width: 32}
	I64   Type = IntegerType{Width: 64}
	Index Type = IndexType{}
	None  Type = NoneType{}
)

// IntegerAttr is an integer literal of a given type.
// Value is stored sign-extended; callers that need width semantics
// truncate before constructing the attribute.
type IntegerAttr struct {
	Value int64
	Type  Type
}

func (IntegerAttr) attribute() {}

func (a IntegerAttr) canonical() any {
	return map[string]any{
		"kind":  "int",
		"type":  typeCanonical(a.Type),
		"value": a.Value,
	}
}

func (a IntegerAttr) String() string {
	return fmt.Sprintf("%d : %s", a.Value, typeString(a.Type))
}

// StringAttr is a string literal. Strings are NFC normalized when serialized.
type StringAttr string

func (StringAttr) attribute() {}

func (a StringAttr) canonical() any {
	return map[string]any{"kind": "string", "value": string(a)}
}

func (a StringAttr) String() string { return fmt.Sprintf("%q", string(a)) }

// BoolAttr is a boolean literal.
type BoolAttr bool

func (BoolAttr) attribute() {}

func (a BoolAttr) canonical() any {
	return map[string]any{"kind": "bool", "value": bool(a)}
}

func (a BoolAttr) String() string {
	if a {
		return "true"
	}
	return "false"
}

// UnitAttr marks presence without a payload.
type UnitAttr struct{}

func (UnitAttr) attribute()     {}
func (UnitAttr) canonical() any { return map[string]any{"kind": "unit"} }
func (UnitAttr) String() string { return "unit" }

// ArrayAttr is an ordered list of attributes.
type ArrayAttr []Attribute

func (ArrayAttr) attribute() {}

func (a ArrayAttr) canonical() any {
	elems := make([]any, len(a))
	for i, e := range a {
		if e == nil {
			elems[i] = nil
			continue
		}
		elems[i] = e.canonical()
	}
	return map[string]any{"kind": "array", "elems": elems}
}

func (a ArrayAttr) String() string {
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = attrString(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictAttr maps names to attributes. Use SortedKeys for deterministic iteration.
type DictAttr map[string]Attribute

func (DictAttr) attribute() {}

func (a DictAttr) canonical() any {
	entries := make(map[string]any, len(a))
	for k, v := range a {
		if v == nil {
			entries[k] = nil
			continue
		}
		entries[k] = v.canonical()
	}
	return map[string]any{"kind": "dict", "entries": entries}
}

func (a DictAttr) String() string {
	keys := a.SortedKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " = " + attrString(a[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (a DictAttr) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// TypeEqual reports whether two type tags are structurally equal.
// Two nil types are equal.
func TypeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

// IntegerWidth returns the bit width carried by an integer-like type.
// Index is treated as 64 bits. ok is false for non-integer types.
func IntegerWidth(t Type) (width int, ok bool) {
	switch tt := t.(type) {
	case IntegerType:
		return tt.Width, true
	case IndexType:
		return 64, true
	default:
		return 0, false
	}
}

func typeCanonical(t Type) any {
	if t == nil {
		return None.canonical()
	}
	return t.canonical()
}

func typeString(t Type) string {
	if t == nil {
		return None.String()
	}
	return t.String()
}

func attrString(a Attribute) string {
	if a == nil {
		return "<nil>"
	}
	return a.String()
}
