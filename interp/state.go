package interp

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"

	"github.com/cvmkit/interpmem"
)

// InterpState is the interpreter's heap: it allocates blocks, owns the list of dead
// blocks awaiting their last pointer, and keeps the registry of global blocks keyed
// by declaration id.
//
// The state decides when a block's automatic lifetime ends by calling Deallocate;
// the block layer only provides the primitives that make that decision safe to act
// on. Evaluation-error unwinding must still call Deallocate for every live block so
// that a constructed block is always eventually destroyed.
type InterpState struct {
	logger *slog.Logger

	deadBlocks DeadBlockList
	globals    *swiss.Map[uint32, *Block]

	// Blocks whose automatic lifetime has not yet ended.
	live []*Block
}

// NewInterpState creates an empty heap. A nil logger falls back to slog.Default.
func NewInterpState(logger *slog.Logger) *InterpState {
	if logger == nil {
		logger = slog.Default()
	}

	return &InterpState{
		logger:  logger,
		globals: swiss.NewMap[uint32, *Block](42),
	}
}

// NewBlock allocates a block for one object laid out by desc. The block is returned
// uninitialized; Construct establishes its contents.
func (s *InterpState) NewBlock(declID DeclID, desc *Descriptor, isStatic, isExtern bool) *Block {
	b := NewBlock(declID, desc, isStatic, isExtern)
	s.live = append(s.live, b)
	return b
}

// RegisterGlobal adds a block with static storage duration to the global registry.
func (s *InterpState) RegisterGlobal(b *Block) {
	interpmem.DebugAssert(b.declID != NoDeclID, "registering a global block with no declaration id")
	interpmem.DebugAssert(b.isStatic, "registering block %q as a global, but it does not have static storage duration", b.desc.Name)

	s.globals.Put(uint32(b.declID), b)
}

// Global retrieves a registered global block by declaration id.
func (s *InterpState) Global(declID DeclID) (*Block, error) {
	b, ok := s.globals.Get(uint32(declID))
	if !ok {
		return nil, errors.Newf("no global block is registered for declaration %d", declID)
	}

	return b, nil
}

// Deallocate ends a block's automatic lifetime. A block with an empty chain is
// destroyed in place; a block that still has live pointers is relocated into a
// DeadBlock, which persists until its chain empties.
func (s *InterpState) Deallocate(b *Block) {
	interpmem.DebugAssert(!b.isDead, "deallocating block %q, which is already dead", b.desc.Name)
	interpmem.DebugValidate(b)

	idx := slices.Index(s.live, b)
	interpmem.DebugAssert(idx >= 0, "deallocating block %q, which this heap does not own", b.desc.Name)
	s.live = append(s.live[:idx], s.live[idx+1:]...)

	if b.HasPointers() {
		NewDeadBlock(&s.deadBlocks, b)
		return
	}

	if b.isInitialized {
		b.Destroy()
	}
}

// DeadBlocks exposes the heap's list of dead blocks.
func (s *InterpState) DeadBlocks() *DeadBlockList {
	return &s.deadBlocks
}

// AddStatistics sums the heap's block counts into the provided statistics.
func (s *InterpState) AddStatistics(stats *interpmem.HeapStatistics) {
	for _, b := range s.live {
		stats.BlockCount++
		stats.BlockBytes += b.Size()
		stats.PointerCount += len(b.pointers)
	}

	for d := s.deadBlocks.head; d != nil; d = d.next {
		stats.DeadBlockCount++
		stats.DeadBlockBytes += d.block.Size()
		stats.PointerCount += len(d.block.pointers)
	}
}

// AddDetailedStatistics sums the heap's block counts and size extrema into the
// provided statistics.
func (s *InterpState) AddDetailedStatistics(stats *interpmem.DetailedHeapStatistics) {
	for _, b := range s.live {
		stats.AddBlock(b.Size())
		stats.PointerCount += len(b.pointers)
	}

	s.deadBlocks.AddDetailedStatistics(stats)
}

// BuildStatsString writes a JSON object describing the heap for diagnostics.
func (s *InterpState) BuildStatsString(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	liveBytes := 0
	for _, b := range s.live {
		liveBytes += b.Size()
	}

	obj.Name("LiveBlocks").Int(len(s.live))
	obj.Name("LiveBytes").Int(liveBytes)
	obj.Name("DeadBlocks").Int(s.deadBlocks.Count())

	s.deadBlocks.BuildStatsString(obj.Name("DeadBlockList"))
}

// Destroy tears down the heap at the end of evaluation. Dead blocks that still have
// live pointers at this point are leaks in the driver; each one is logged and an
// error is returned.
func (s *InterpState) Destroy() error {
	if s.deadBlocks.IsEmpty() {
		return nil
	}

	for d := s.deadBlocks.head; d != nil; d = d.next {
		s.logger.LogAttrs(context.Background(),
			slog.LevelError,
			"[UNRELEASED STORAGE] dead block still has live pointers at heap teardown",
			slog.String("name", d.block.desc.Name),
			slog.Int("size", d.block.Size()),
			slog.Int("pointers", len(d.block.pointers)))
	}

	return errors.New("some pointers were not released before the destruction of this heap!")
}
