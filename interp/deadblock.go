package interp

import (
	"github.com/cvmkit/interpmem"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// DeadBlock owns an independently allocated copy of a block whose automatic lifetime
// has ended while pointers into it remained live. Dead blocks are chained in a
// doubly linked list owned by the heap so they can be deallocated whenever their
// last pointer detaches.
type DeadBlock struct {
	list *DeadBlockList
	prev *DeadBlock
	next *DeadBlock

	// Embedded block holding the relocated contents and the transferred chain.
	block Block
}

// NewDeadBlock relocates the contents of b into freshly allocated storage and links
// the result at the head of list. Every pointer attached to b is retargeted to the
// copy; chain length and order are preserved. On return b's storage holds nothing
// of interest and may be reclaimed by its owner.
func NewDeadBlock(list *DeadBlockList, b *Block) *DeadBlock {
	interpmem.DebugAssert(!b.isDead, "relocating block %q, which is already dead", b.desc.Name)
	interpmem.DebugAssert(b.HasPointers(), "relocating block %q, which has no live pointers", b.desc.Name)

	d := &DeadBlock{
		list: list,
		block: Block{
			declID:   NoDeclID,
			isStatic: b.isStatic,
			isExtern: b.isExtern,
			isDead:   true,
			desc:     b.desc,
			buf:      newBlockBuffer(b.desc),
		},
	}
	d.block.dead = d

	// Raw copy carries the metadata region and any data the move callback does not
	// reconstruct; the move callback then runs over the data region.
	copy(d.block.RawData(), b.RawData())
	if b.desc.MoveFn != nil {
		b.desc.MoveFn(b, b.Data(), d.block.Data(), b.desc)
	}

	d.block.initMap = b.initMap
	b.initMap = nil
	d.block.isInitialized = b.isInitialized
	b.isInitialized = false

	// Transfer the chain wholesale and retarget every pointer at the copy.
	d.block.pointers = b.pointers
	b.pointers = nil
	for _, p := range d.block.pointers {
		p.pointee = &d.block
	}

	b.isDead = true

	list.push(d)
	interpmem.DebugValidate(list)

	return d
}

// Data returns the data region of the relocated contents.
func (d *DeadBlock) Data() []byte { return d.block.Data() }

// RawData returns the metadata and data regions of the relocated contents.
func (d *DeadBlock) RawData() []byte { return d.block.RawData() }

// Block returns the embedded block holding the relocated contents.
func (d *DeadBlock) Block() *Block { return &d.block }

// free destroys the relocated contents and unlinks this node from the heap's list.
// Only reachable once the embedded block's chain has emptied.
func (d *DeadBlock) free() {
	interpmem.DebugAssert(!d.block.HasPointers(), "releasing dead block %q while pointers into it remain live", d.block.desc.Name)

	if d.block.isInitialized {
		d.block.Destroy()
	}

	d.list.remove(d)
	interpmem.DebugValidate(d.list)
}

func (d *DeadBlock) printParameters(json *jwriter.ObjectState) {
	json.Name("Name").String(d.block.desc.Name)
	json.Name("Size").Int(d.block.Size())
	json.Name("Initialized").Bool(d.block.isInitialized)

	pointers := json.Name("Pointers").Array()
	for _, p := range d.block.pointers {
		o := pointers.Object()
		p.printParameters(&o)
		o.End()
	}
	pointers.End()
}
