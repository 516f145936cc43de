package usage

import (
	"context"
	"fmt"
	"math"

	"github.com/forestrie/go-segmentusage/segment"
)

const arrayCountBytes = 4

func (a *Analyser) analyseNode(ctx context.Context, id segment.RecordID, depth int) error {
	if depth > a.opts.maxDepth {
		return fmt.Errorf("%w: node %s", ErrMaxDepthExceeded, id)
	}
	if !a.seen.MarkSeen(id) {
		return nil
	}
	s, err := a.segment(ctx, id)
	if err != nil {
		return err
	}
	templateID, err := s.ReadRecordID(id.Offset)
	if err != nil {
		return fmt.Errorf("%w, node %s", err, id)
	}
	t, err := a.analyseTemplate(ctx, templateID)
	if err != nil {
		return err
	}

	ids := 1
	switch t.ChildNodes() {
	case segment.ManyChildNodes:
		mapID, err := s.ReadRecordID(id.Offset + segment.RecordIDBytes)
		if err != nil {
			return fmt.Errorf("%w, node %s", err, id)
		}
		if err := a.analyseMap(ctx, mapID, depth+1); err != nil {
			return err
		}
		children, err := segment.MapEntries(ctx, a.segments, mapID)
		if err != nil {
			return fmt.Errorf("%w, child map %s", err, mapID)
		}
		for _, child := range children {
			if err := a.analyseNode(ctx, child.Value, depth+1); err != nil {
				return err
			}
		}
		ids++

	case segment.OneChildNode:
		childID, err := s.ReadRecordID(id.Offset + segment.RecordIDBytes)
		if err != nil {
			return fmt.Errorf("%w, node %s", err, id)
		}
		if err := a.analyseNode(ctx, childID, depth+1); err != nil {
			return err
		}
		ids++
	}

	a.usage.Nodes += int64(ids+len(t.Properties)) * segment.RecordIDBytes
	for i, p := range t.Properties {
		propertyID, err := s.ReadRecordID(id.Offset + uint32((ids+i)*segment.RecordIDBytes))
		if err != nil {
			return fmt.Errorf("%w, node %s", err, id)
		}
		if err := a.analyseProperty(ctx, propertyID, p); err != nil {
			return err
		}
	}
	return nil
}

// analyseTemplate decodes the template id, charging it and its name strings
// if it has not been seen. The template is returned either way.
func (a *Analyser) analyseTemplate(ctx context.Context, id segment.RecordID) (segment.Template, error) {
	s, err := a.segment(ctx, id)
	if err != nil {
		return segment.Template{}, err
	}
	t, err := s.ReadTemplate(id.Offset)
	if err != nil {
		return segment.Template{}, fmt.Errorf("%w, template %s", err, id)
	}
	if !a.seen.MarkSeen(id) {
		return t, nil
	}

	var names []segment.RecordID
	if t.Head.HasPrimaryType {
		names = append(names, t.PrimaryType)
	}
	names = append(names, t.MixinTypes...)
	if t.ChildNodes() == segment.OneChildNode {
		names = append(names, t.ChildName)
	}
	for _, p := range t.Properties {
		names = append(names, p.Name)
	}
	for _, name := range names {
		if err := a.analyseString(ctx, name); err != nil {
			return segment.Template{}, err
		}
	}
	a.usage.Templates += int64(t.Size())
	return t, nil
}

func (a *Analyser) analyseProperty(ctx context.Context, id segment.RecordID, p segment.PropertyTemplate) error {
	if a.seen.Contains(id) {
		return nil
	}
	if !p.Type.Array {
		return a.analyseValue(ctx, id, p.Type)
	}

	a.seen.MarkSeen(id)
	s, err := a.segment(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.ReadUint32(id.Offset)
	if err != nil {
		return fmt.Errorf("%w, array %s", err, id)
	}
	if count > math.MaxInt32 {
		return fmt.Errorf("%w: %d, array %s", ErrBadArrayCount, count, id)
	}
	a.usage.Values += arrayCountBytes
	if count == 0 {
		return nil
	}

	listID, err := s.ReadRecordID(id.Offset + arrayCountBytes)
	if err != nil {
		return fmt.Errorf("%w, array %s", err, id)
	}
	a.usage.Values += segment.RecordIDBytes
	values, err := segment.ListEntries(ctx, a.segments, listID, int(count), a.opts.listLevelSize)
	if err != nil {
		return fmt.Errorf("%w, array %s", err, id)
	}
	element := segment.PropertyType{Tag: p.Type.Tag}
	for _, v := range values {
		if err := a.analyseValue(ctx, v, element); err != nil {
			return err
		}
	}
	// a single value list is the value itself, already charged above
	a.analyseList(listID, int(count))
	return nil
}
