package interp

// Field is one member of a Record layout: a descriptor placed at a fixed byte offset
// within the record's data region.
type Field struct {
	Offset int
	Desc   *Descriptor
}

// Record describes the layout of a composite type: base subobjects followed by fields,
// each at descriptor-determined offsets. For unions, at most one field is active at a
// time and construction marks fields inactive.
type Record struct {
	Name    string
	IsUnion bool
	Bases   []Field
	Fields  []Field

	fullSize int
}

// NewRecord builds a record layout from its bases and fields. The record's full size is
// the end of its furthest member, aligned up to the platform word.
func NewRecord(name string, isUnion bool, bases []Field, fields []Field) *Record {
	r := &Record{
		Name:    name,
		IsUnion: isUnion,
		Bases:   bases,
		Fields:  fields,
	}

	var end int
	for _, f := range bases {
		fieldEnd := f.Offset + f.Desc.AllocSize
		if fieldEnd > end {
			end = fieldEnd
		}
	}
	for _, f := range fields {
		fieldEnd := f.Offset + f.Desc.AllocSize
		if fieldEnd > end {
			end = fieldEnd
		}
	}

	r.fullSize = alignedAllocSize(end, 0)
	return r
}

// FullSize returns the record's total data footprint in bytes.
func (r *Record) FullSize() int {
	return r.fullSize
}
