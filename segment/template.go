package segment

import "fmt"

const (
	// TemplateHeadBytes is the width of the template head word.
	TemplateHeadBytes = 4

	// PropertyTypeBytes is the width of the type field of a property template.
	PropertyTypeBytes = 1

	templateHasPrimaryType = 1 << 31
	templateHasMixinTypes  = 1 << 30
	templateZeroChildNodes = 1 << 29
	templateManyChildNodes = 1 << 28

	templateMixinCountShift   = 18
	templateMixinCountBits    = 10
	templateMixinCountMask    = (1 << templateMixinCountBits) - 1
	templatePropertyCountBits = 18
	templatePropertyCountMask = (1 << templatePropertyCountBits) - 1
)

// ChildNodes is the child node encoding declared by a template.
type ChildNodes uint8

const (
	// ZeroChildNodes nodes have no child id.
	ZeroChildNodes ChildNodes = iota
	// OneChildNode nodes store the id of their only child. The child name is
	// held by the template.
	OneChildNode
	// ManyChildNodes nodes store the id of a map from child name to child node.
	ManyChildNodes
)

// TemplateHead holds the fields packed into the template head word.
type TemplateHead struct {
	HasPrimaryType bool
	HasMixinTypes  bool
	ZeroChildNodes bool
	ManyChildNodes bool
	MixinCount     uint16
	PropertyCount  uint32
}

// DecodeTemplateHead unpacks a template head word.
func DecodeTemplateHead(head uint32) TemplateHead {
	return TemplateHead{
		HasPrimaryType: head&templateHasPrimaryType != 0,
		HasMixinTypes:  head&templateHasMixinTypes != 0,
		ZeroChildNodes: head&templateZeroChildNodes != 0,
		ManyChildNodes: head&templateManyChildNodes != 0,
		MixinCount:     uint16((head >> templateMixinCountShift) & templateMixinCountMask),
		PropertyCount:  head & templatePropertyCountMask,
	}
}

// EncodeTemplateHead packs h into a template head word.
func EncodeTemplateHead(h TemplateHead) (uint32, error) {
	if h.MixinCount > templateMixinCountMask || h.PropertyCount > templatePropertyCountMask {
		return 0, fmt.Errorf("%w: mixins %d, properties %d", ErrTemplateOverflow, h.MixinCount, h.PropertyCount)
	}
	var head uint32
	if h.HasPrimaryType {
		head |= templateHasPrimaryType
	}
	if h.HasMixinTypes {
		head |= templateHasMixinTypes
	}
	if h.ZeroChildNodes {
		head |= templateZeroChildNodes
	}
	if h.ManyChildNodes {
		head |= templateManyChildNodes
	}
	head |= uint32(h.MixinCount) << templateMixinCountShift
	head |= h.PropertyCount
	return head, nil
}

// ChildNodes returns the child node encoding. The zero flag takes precedence
// over the many flag.
func (h TemplateHead) ChildNodes() ChildNodes {
	switch {
	case h.ZeroChildNodes:
		return ZeroChildNodes
	case h.ManyChildNodes:
		return ManyChildNodes
	default:
		return OneChildNode
	}
}

// PropertyTemplate is the name and declared type of one property.
type PropertyTemplate struct {
	Name RecordID
	Type PropertyType
}

// Template is a decoded template record. Name fields are string record ids.
type Template struct {
	Head        TemplateHead
	PrimaryType RecordID   // valid if Head.HasPrimaryType
	MixinTypes  []RecordID // empty unless Head.HasMixinTypes
	ChildName   RecordID   // valid if ChildNodes() == OneChildNode
	Properties  []PropertyTemplate
}

func (t Template) ChildNodes() ChildNodes { return t.Head.ChildNodes() }

// Size returns the encoded size of the template record. Name strings are
// separate records and are not included.
func (t Template) Size() int {
	size := TemplateHeadBytes
	if t.Head.HasPrimaryType {
		size += RecordIDBytes
	}
	size += len(t.MixinTypes) * RecordIDBytes
	if t.ChildNodes() == OneChildNode {
		size += RecordIDBytes
	}
	size += len(t.Properties) * (RecordIDBytes + PropertyTypeBytes)
	return size
}

// ReadTemplate decodes the template record at offset.
func (s *Segment) ReadTemplate(offset uint32) (Template, error) {
	head, err := s.ReadUint32(offset)
	if err != nil {
		return Template{}, err
	}
	t := Template{Head: DecodeTemplateHead(head)}
	pos := offset + TemplateHeadBytes

	next := func() (RecordID, error) {
		id, err := s.ReadRecordID(pos)
		pos += RecordIDBytes
		return id, err
	}

	if t.Head.HasPrimaryType {
		if t.PrimaryType, err = next(); err != nil {
			return Template{}, err
		}
	}
	if t.Head.HasMixinTypes {
		t.MixinTypes = make([]RecordID, t.Head.MixinCount)
		for i := range t.MixinTypes {
			if t.MixinTypes[i], err = next(); err != nil {
				return Template{}, err
			}
		}
	}
	if t.ChildNodes() == OneChildNode {
		if t.ChildName, err = next(); err != nil {
			return Template{}, err
		}
	}

	// Guard the allocation against a corrupt property count.
	if uint64(pos)+uint64(t.Head.PropertyCount)*(RecordIDBytes+PropertyTypeBytes) > uint64(s.Size()) {
		return Template{}, fmt.Errorf(
			"%w: %d properties overrun segment %s at %d", ErrBadTemplate, t.Head.PropertyCount, s.id, offset)
	}
	t.Properties = make([]PropertyTemplate, t.Head.PropertyCount)
	for i := range t.Properties {
		if t.Properties[i].Name, err = next(); err != nil {
			return Template{}, err
		}
		b, err := s.ReadUint8(pos)
		if err != nil {
			return Template{}, err
		}
		pos += PropertyTypeBytes
		if t.Properties[i].Type, err = DecodePropertyType(b); err != nil {
			return Template{}, err
		}
	}
	return t, nil
}
