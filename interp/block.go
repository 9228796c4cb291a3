package interp

import (
	"github.com/cockroachdb/errors"
	"github.com/cvmkit/interpmem"
	"golang.org/x/exp/slices"
)

// DeclID identifies the declaration a block was created for. Blocks for temporaries
// and other unnamed storage carry NoDeclID.
type DeclID uint32

// NoDeclID marks a block with no associated declaration.
const NoDeclID DeclID = ^DeclID(0)

// Block is one contiguous allocation for a single interpreter-visible object.
//
// The block owns a single buffer sized by its descriptor: a metadata region followed
// by the data region (see Descriptor for the layout). It also threads the chain of
// live pointers into itself, so storage can outlive its automatic lifetime for as long
// as something still references it.
//
// None of the block's operations fail at runtime. Misuse - constructing twice,
// destroying without a prior construct, detaching a pointer that was never attached -
// is a breach of the caller's contract and is only caught by assertions under the
// debug_interp_mem build tag.
type Block struct {
	// Live pointers into this block, in attach order.
	pointers []*Pointer
	// Identifier of the declaration this block was created for, if any.
	declID DeclID
	// Set if the block has static storage duration. Fixed at creation.
	isStatic bool
	// Set if the block is an extern. Fixed at creation.
	isExtern bool
	// Set once, when the block's contents move into a DeadBlock. Never cleared.
	isDead bool
	// Set between Construct and its matching Destroy.
	isInitialized bool
	// Per-element initialization tracking for array blocks.
	initMap *InitMap
	// Owning DeadBlock when this block is the embedded copy inside one.
	dead *DeadBlock

	desc *Descriptor
	buf  []byte
}

// NewBlock reserves storage for one object laid out by desc. The returned block is
// uninitialized; call Construct before reading its data.
func NewBlock(declID DeclID, desc *Descriptor, isStatic, isExtern bool) *Block {
	return &Block{
		declID:   declID,
		isStatic: isStatic,
		isExtern: isExtern,
		desc:     desc,
		buf:      newBlockBuffer(desc),
	}
}

// newBlockBuffer reserves the block's single allocation, plus the corruption-detection
// margin in debug builds.
func newBlockBuffer(desc *Descriptor) []byte {
	buf := make([]byte, desc.AllocSize+interpmem.DebugMargin)
	interpmem.WriteMagicValue(buf, desc.AllocSize)
	return buf
}

// Descriptor returns the block's descriptor.
func (b *Block) Descriptor() *Descriptor { return b.desc }

// HasPointers reports whether the block has any live pointers.
func (b *Block) HasPointers() bool { return len(b.pointers) > 0 }

// IsExtern reports whether the block is an extern.
func (b *Block) IsExtern() bool { return b.isExtern }

// IsStatic reports whether the block has static storage duration.
func (b *Block) IsStatic() bool { return b.isStatic }

// IsTemporary reports whether the block holds a temporary.
func (b *Block) IsTemporary() bool { return b.desc.IsTemporary }

// IsDead reports whether the block's contents have been moved into a DeadBlock.
func (b *Block) IsDead() bool { return b.isDead }

// IsInitialized reports whether the block contents have been initialized via Construct.
func (b *Block) IsInitialized() bool { return b.isInitialized }

// Size returns the block's full allocation footprint in bytes.
func (b *Block) Size() int { return b.desc.AllocSize }

// DeclID returns the identifier of the declaration this block was created for,
// or NoDeclID.
func (b *Block) DeclID() DeclID { return b.declID }

// Data returns the data region. Callers may access up to Descriptor().Size bytes;
// the block performs no bounds enforcement beyond the slice itself.
func (b *Block) Data() []byte {
	return b.buf[b.desc.MDSize : b.desc.MDSize+b.desc.Size]
}

// RawData returns the metadata and data regions as one view. Callers may access up
// to Descriptor().AllocSize bytes.
func (b *Block) RawData() []byte {
	return b.buf[:b.desc.AllocSize]
}

// Construct zero-fills the allocation and runs the descriptor's construct callback,
// if any. Must be called at most once before a matching Destroy, and never twice
// without an intervening Destroy.
func (b *Block) Construct() {
	interpmem.DebugAssert(!b.isInitialized, "constructing block %q twice without an intervening destroy", b.desc.Name)

	raw := b.RawData()
	for i := range raw {
		raw[i] = 0
	}

	if b.desc.CtorFn != nil {
		b.desc.CtorFn(b, b.Data(), b.desc.IsConst, b.desc.IsMutable, true, b.desc)
	}
	b.isInitialized = true
}

// Destroy runs the descriptor's destroy callback, if any. Calling it without a prior
// Construct is a contract breach, not a detected error.
func (b *Block) Destroy() {
	interpmem.DebugAssert(b.isInitialized, "destroying block %q without a prior construct", b.desc.Name)

	if b.desc.DtorFn != nil {
		b.desc.DtorFn(b, b.Data(), b.desc)
	}
	b.isInitialized = false
}

// InitElement marks array element i initialized and returns true once the whole
// array is initialized. Only meaningful on array blocks after Construct.
func (b *Block) InitElement(i int) bool {
	interpmem.DebugAssert(b.initMap != nil, "element init tracking on block %q, which has no init map", b.desc.Name)
	return b.initMap.InitializeElement(i)
}

// IsElementInitialized reports whether array element i has been initialized.
func (b *Block) IsElementInitialized(i int) bool {
	if b.initMap == nil {
		return false
	}
	return b.initMap.IsElementInitialized(i)
}

// AddPointer attaches a pointer to the end of the block's chain. The pointer must
// not currently be attached to any block.
func (b *Block) AddPointer(p *Pointer) {
	interpmem.DebugAssert(p.pointee == nil, "attaching a pointer that is already attached to block %q", b.desc.Name)

	p.pointee = b
	b.pointers = append(b.pointers, p)

	interpmem.DebugValidate(b)
}

// RemovePointer detaches a pointer from the block's chain, preserving the order of
// the remaining pointers. Detaching the last pointer of a dead block releases the
// DeadBlock holding it.
func (b *Block) RemovePointer(p *Pointer) {
	idx := slices.Index(b.pointers, p)
	interpmem.DebugAssert(idx >= 0, "detaching a pointer that is not attached to block %q", b.desc.Name)

	b.pointers = append(b.pointers[:idx], b.pointers[idx+1:]...)
	p.pointee = nil

	interpmem.DebugValidate(b)
	b.cleanup()
}

// ReplacePointer substitutes new for old in the chain without changing the chain's
// length or the position old held.
func (b *Block) ReplacePointer(old, new *Pointer) {
	idx := slices.Index(b.pointers, old)
	interpmem.DebugAssert(idx >= 0, "replacing a pointer that is not attached to block %q", b.desc.Name)
	interpmem.DebugAssert(new.pointee == nil, "replacement pointer is already attached to block %q", b.desc.Name)

	b.pointers[idx] = new
	old.pointee = nil
	new.pointee = b

	interpmem.DebugValidate(b)
}

// HasPointer reports whether p is attached to this block. Debug-only membership
// query for assertions; the hot path never needs it.
func (b *Block) HasPointer(p *Pointer) bool {
	return slices.Index(b.pointers, p) >= 0
}

// VisitPointers calls the provided callback once for each pointer attached to the
// block, in attach order. Diagnostic use only; the callback must not mutate the
// chain.
func (b *Block) VisitPointers(handlePointer func(p *Pointer) error) error {
	for _, p := range b.pointers {
		if err := handlePointer(p); err != nil {
			return err
		}
	}

	return nil
}

// cleanup releases the DeadBlock holding this block once its chain empties. Blocks
// still within their automatic lifetime are reclaimed by their owner, not here.
func (b *Block) cleanup() {
	if b.isDead && len(b.pointers) == 0 && b.dead != nil {
		b.dead.free()
	}
}

// Validate performs internal consistency checks on the block's pointer chain and, in
// debug builds, on the corruption-detection margin after its data region. When the
// package is functioning correctly it should not be possible for this method to
// return an error.
func (b *Block) Validate() error {
	seen := make(map[*Pointer]struct{}, len(b.pointers))

	for i, p := range b.pointers {
		if p == nil {
			return errors.Newf("block %q holds a nil pointer at chain position %d", b.desc.Name, i)
		}
		if p.pointee != b {
			return errors.Newf("pointer at chain position %d of block %q targets a different block", i, b.desc.Name)
		}
		if _, ok := seen[p]; ok {
			return errors.Newf("pointer at chain position %d of block %q appears in the chain twice", i, b.desc.Name)
		}
		seen[p] = struct{}{}
	}

	if !interpmem.ValidateMagicValue(b.buf, b.desc.AllocSize) {
		return errors.Newf("memory corruption detected after the data region of block %q", b.desc.Name)
	}

	return nil
}
