package interp

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Pointer is a non-owning reference into a block. A pointer is attached to at most one
// chain at a time; while attached it keeps its target reachable and is retargeted in
// place when the target's contents move into a DeadBlock. Pointers never free the
// storage they reference.
type Pointer struct {
	pointee *Block
	offset  int
}

// NewPointer creates a pointer to the start of b's data region and attaches it to
// b's chain.
func NewPointer(b *Block) *Pointer {
	return NewPointerAt(b, 0)
}

// NewPointerAt creates a pointer offset bytes into b's data region and attaches it
// to b's chain. The offset is not bounds-checked against the descriptor.
func NewPointerAt(b *Block, offset int) *Pointer {
	p := &Pointer{offset: offset}
	b.AddPointer(p)
	return p
}

// Block returns the block this pointer currently targets, or nil after Release.
func (p *Pointer) Block() *Block { return p.pointee }

// Offset returns the pointer's byte offset into its target's data region.
func (p *Pointer) Offset() int { return p.offset }

// IsLive reports whether the pointer targets storage that is still within its
// automatic lifetime.
func (p *Pointer) IsLive() bool {
	return p.pointee != nil && !p.pointee.isDead
}

// IsDead reports whether the pointer targets storage whose automatic lifetime has
// ended. Such a pointer is still safe to inspect; it is kept valid by the DeadBlock
// holding the relocated contents.
func (p *Pointer) IsDead() bool {
	return p.pointee != nil && p.pointee.isDead
}

// Data returns a view of the target's data region starting at the pointer's offset.
func (p *Pointer) Data() []byte {
	return p.pointee.Data()[p.offset:]
}

// Release detaches the pointer from its target's chain. Releasing the last pointer
// into dead storage reclaims that storage.
func (p *Pointer) Release() {
	if p.pointee == nil {
		return
	}
	p.pointee.RemovePointer(p)
}

func (p *Pointer) printParameters(json *jwriter.ObjectState) {
	json.Name("Offset").Int(p.offset)
	json.Name("Live").Bool(p.IsLive())

	if p.pointee != nil && p.pointee.declID != NoDeclID {
		json.Name("Decl").String(fmt.Sprintf("%d", p.pointee.declID))
	}
}
