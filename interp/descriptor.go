package interp

import (
	"github.com/cvmkit/interpmem"
)

// descriptorAlignment is the alignment applied to every block allocation footprint.
const descriptorAlignment = 8

// BlockCtorFn initializes the data region of a freshly allocated block. The data slice
// has already been zero-filled; the callback only needs to establish whatever additional
// state the type requires.
type BlockCtorFn func(b *Block, data []byte, isConst bool, isMutable bool, isActive bool, d *Descriptor)

// BlockDtorFn tears down the data region of a block at the end of its lifetime.
type BlockDtorFn func(b *Block, data []byte, d *Descriptor)

// BlockMoveFn transfers the data region of a block into the storage of its relocated
// copy. When a descriptor carries no move callback, relocation copies the raw bytes.
type BlockMoveFn func(b *Block, src []byte, dst []byte, d *Descriptor)

// Descriptor is the per-type static metadata for a block: the layout of its single
// contiguous allocation and the callbacks that construct, destroy and move its contents.
//
//	RawData()                   Data()
//	│                           │
//	▼                           ▼
//	┌───────────────────────────┬────────────────┐
//	│ Metadata                  │ Data           │
//	│ MDSize                    │ Size           │
//	└───────────────────────────┴────────────────┘
//
// AllocSize covers both regions and is what a block actually reserves.
//
// The callbacks are resolved exactly once, when the descriptor is built; block
// construction and destruction never perform a type lookup.
type Descriptor struct {
	// Name identifies the source declaration or expression for diagnostics.
	Name string

	// ElemSize is the size in bytes of a single element of an array descriptor, or the
	// full data size for non-arrays.
	ElemSize int
	// Size is the size in bytes of the data region.
	Size int
	// MDSize is the size in bytes of the metadata region preceding the data region.
	MDSize int
	// AllocSize is the full allocation footprint: metadata plus data, aligned.
	AllocSize int
	// NumElems is the element count for array descriptors, 1 otherwise.
	NumElems int

	// ElemDesc is the element descriptor for arrays of composite elements.
	ElemDesc *Descriptor
	// ElemRecord is the layout for record descriptors.
	ElemRecord *Record

	IsConst     bool
	IsMutable   bool
	IsTemporary bool
	IsArray     bool

	CtorFn BlockCtorFn
	DtorFn BlockDtorFn
	MoveFn BlockMoveFn
}

// alignedAllocSize computes a descriptor's full allocation footprint from its data and
// metadata region sizes.
func alignedAllocSize(size, mdSize int) int {
	interpmem.DebugCheckPow2(uint(descriptorAlignment), "descriptor alignment")
	return interpmem.AlignUp(size+mdSize, descriptorAlignment)
}

// NewPrimDescriptor builds a descriptor for a single primitive value. Primitives carry
// no construct or destroy callbacks: zero-fill is a complete initialization for every
// primitive family.
func NewPrimDescriptor(name string, t PrimType, mdSize int, isConst, isTemporary, isMutable bool) *Descriptor {
	elemSize := t.Size()
	d := &Descriptor{
		Name:        name,
		ElemSize:    elemSize,
		Size:        elemSize,
		MDSize:      mdSize,
		AllocSize:   alignedAllocSize(elemSize, mdSize),
		NumElems:    1,
		IsConst:     isConst,
		IsMutable:   isMutable,
		IsTemporary: isTemporary,
	}

	interpmem.DebugAssert(d.AllocSize >= d.Size, "descriptor %s allocates %d bytes for %d bytes of data", name, d.AllocSize, d.Size)
	return d
}

// NewPrimArrayDescriptor builds a descriptor for an array of numElems primitive values.
// Array blocks track per-element initialization through an InitMap owned by the block;
// the construct callback resets that tracking and the destroy callback drops it.
func NewPrimArrayDescriptor(name string, t PrimType, mdSize int, numElems int, isConst, isTemporary, isMutable bool) *Descriptor {
	elemSize := t.Size()
	d := &Descriptor{
		Name:        name,
		ElemSize:    elemSize,
		Size:        elemSize * numElems,
		MDSize:      mdSize,
		NumElems:    numElems,
		IsConst:     isConst,
		IsMutable:   isMutable,
		IsTemporary: isTemporary,
		IsArray:     true,
		CtorFn:      ctorPrimArray,
		DtorFn:      dtorPrimArray,
	}
	d.AllocSize = alignedAllocSize(d.Size, mdSize)

	return d
}

// NewCompositeArrayDescriptor builds a descriptor for an array whose elements are
// themselves described by elem. Element construction, destruction and relocation
// delegate to the element descriptor's callbacks at each element offset.
func NewCompositeArrayDescriptor(name string, elem *Descriptor, mdSize int, numElems int, isConst, isTemporary, isMutable bool) *Descriptor {
	d := &Descriptor{
		Name:        name,
		ElemSize:    elem.AllocSize,
		Size:        elem.AllocSize * numElems,
		MDSize:      mdSize,
		NumElems:    numElems,
		ElemDesc:    elem,
		IsConst:     isConst,
		IsMutable:   isMutable,
		IsTemporary: isTemporary,
		IsArray:     true,
		CtorFn:      ctorCompositeArray,
		DtorFn:      dtorCompositeArray,
		MoveFn:      moveCompositeArray,
	}
	d.AllocSize = alignedAllocSize(d.Size, mdSize)

	return d
}

// NewRecordDescriptor builds a descriptor for a composite record laid out by r.
func NewRecordDescriptor(name string, r *Record, mdSize int, isConst, isTemporary, isMutable bool) *Descriptor {
	d := &Descriptor{
		Name:        name,
		ElemSize:    r.FullSize(),
		Size:        r.FullSize(),
		MDSize:      mdSize,
		NumElems:    1,
		ElemRecord:  r,
		IsConst:     isConst,
		IsMutable:   isMutable,
		IsTemporary: isTemporary,
		CtorFn:      ctorRecord,
		DtorFn:      dtorRecord,
		MoveFn:      moveRecord,
	}
	d.AllocSize = alignedAllocSize(d.Size, mdSize)

	return d
}

func ctorPrimArray(b *Block, data []byte, isConst, isMutable, isActive bool, d *Descriptor) {
	b.initMap = NewInitMap(d.NumElems)
}

func dtorPrimArray(b *Block, data []byte, d *Descriptor) {
	b.initMap = nil
}

func ctorCompositeArray(b *Block, data []byte, isConst, isMutable, isActive bool, d *Descriptor) {
	if d.ElemDesc.CtorFn == nil {
		return
	}

	for i := 0; i < d.NumElems; i++ {
		elemData := data[i*d.ElemSize : i*d.ElemSize+d.ElemDesc.Size]
		d.ElemDesc.CtorFn(b, elemData, isConst || d.ElemDesc.IsConst, isMutable || d.ElemDesc.IsMutable, isActive, d.ElemDesc)
	}
}

func dtorCompositeArray(b *Block, data []byte, d *Descriptor) {
	if d.ElemDesc.DtorFn == nil {
		return
	}

	for i := 0; i < d.NumElems; i++ {
		elemData := data[i*d.ElemSize : i*d.ElemSize+d.ElemDesc.Size]
		d.ElemDesc.DtorFn(b, elemData, d.ElemDesc)
	}
}

func moveCompositeArray(b *Block, src, dst []byte, d *Descriptor) {
	for i := 0; i < d.NumElems; i++ {
		srcElem := src[i*d.ElemSize : i*d.ElemSize+d.ElemDesc.Size]
		dstElem := dst[i*d.ElemSize : i*d.ElemSize+d.ElemDesc.Size]

		if d.ElemDesc.MoveFn != nil {
			d.ElemDesc.MoveFn(b, srcElem, dstElem, d.ElemDesc)
		} else {
			copy(dstElem, srcElem)
		}
	}
}

func ctorRecord(b *Block, data []byte, isConst, isMutable, isActive bool, d *Descriptor) {
	record := d.ElemRecord

	// Every subobject of a union starts out inactive, bases included.
	subActive := isActive && !record.IsUnion

	ctorSub := func(f Field) {
		if f.Desc.CtorFn == nil {
			return
		}

		subData := data[f.Offset : f.Offset+f.Desc.Size]
		f.Desc.CtorFn(b, subData, isConst || f.Desc.IsConst, isMutable || f.Desc.IsMutable, subActive, f.Desc)
	}

	for _, base := range record.Bases {
		ctorSub(base)
	}
	for _, field := range record.Fields {
		ctorSub(field)
	}
}

func dtorRecord(b *Block, data []byte, d *Descriptor) {
	dtorSub := func(f Field) {
		if f.Desc.DtorFn == nil {
			return
		}
		f.Desc.DtorFn(b, data[f.Offset:f.Offset+f.Desc.Size], f.Desc)
	}

	for _, base := range d.ElemRecord.Bases {
		dtorSub(base)
	}
	for _, field := range d.ElemRecord.Fields {
		dtorSub(field)
	}
}

func moveRecord(b *Block, src, dst []byte, d *Descriptor) {
	for _, field := range d.ElemRecord.Fields {
		srcField := src[field.Offset : field.Offset+field.Desc.Size]
		dstField := dst[field.Offset : field.Offset+field.Desc.Size]

		if field.Desc.MoveFn != nil {
			field.Desc.MoveFn(b, srcField, dstField, field.Desc)
		} else {
			copy(dstField, srcField)
		}
	}
}
