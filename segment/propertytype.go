package segment

import "fmt"

// TypeTag identifies the value type of a property.
type TypeTag uint8

const (
	TypeUndefined TypeTag = iota
	TypeString
	TypeBinary
	TypeLong
	TypeDouble
	TypeDate
	TypeBoolean
	TypeName
	TypePath
	TypeReference
	TypeWeakReference
	TypeURI
	TypeDecimal
	typeTagMax = TypeDecimal
)

var typeTagNames = [...]string{
	TypeUndefined:     "Undefined",
	TypeString:        "String",
	TypeBinary:        "Binary",
	TypeLong:          "Long",
	TypeDouble:        "Double",
	TypeDate:          "Date",
	TypeBoolean:       "Boolean",
	TypeName:          "Name",
	TypePath:          "Path",
	TypeReference:     "Reference",
	TypeWeakReference: "WeakReference",
	TypeURI:           "URI",
	TypeDecimal:       "Decimal",
}

func (t TypeTag) String() string {
	if t > typeTagMax {
		return fmt.Sprintf("TypeTag(%d)", uint8(t))
	}
	return typeTagNames[t]
}

// PropertyType is the declared type of a property. Array properties store a
// count and a list of values of the base type.
type PropertyType struct {
	Tag   TypeTag
	Array bool
}

// DecodePropertyType decodes the 1 byte type field of a property template.
// The byte is the signed type tag, negated for array types.
func DecodePropertyType(b byte) (PropertyType, error) {
	v := int8(b)
	t := PropertyType{}
	if v < 0 {
		t.Array = true
		v = -v
	}
	if v <= int8(TypeUndefined) || v > int8(typeTagMax) {
		return PropertyType{}, fmt.Errorf("%w: %02x", ErrBadPropertyType, b)
	}
	t.Tag = TypeTag(v)
	return t, nil
}

// Encode returns the 1 byte type field for the property type.
func (p PropertyType) Encode() byte {
	v := int8(p.Tag)
	if p.Array {
		v = -v
	}
	return byte(v)
}

// IsBinary returns true if values of the type are stored as binary records
// rather than string records.
func (p PropertyType) IsBinary() bool {
	return p.Tag == TypeBinary
}

func (p PropertyType) String() string {
	if p.Array {
		return p.Tag.String() + "[]"
	}
	return p.Tag.String()
}
