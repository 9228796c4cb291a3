package interp_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/cvmkit/interpmem/interp"
)

func newTestState() *interp.InterpState {
	return interp.NewInterpState(slog.New(slog.NewTextHandler(io.Discard)))
}

func TestScopeEndRelocatesReferencedBlock(t *testing.T) {
	state := newTestState()

	desc := interp.NewPrimArrayDescriptor("local", interp.PrimUint8, 0, 16, false, false, false)
	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()

	for _, value := range b.Data() {
		require.Zero(t, value)
	}

	data := b.Data()
	for i := range data {
		data[i] = 0xAA
	}

	p1 := interp.NewPointer(b)
	p2 := interp.NewPointer(b)

	p1.Release()
	require.True(t, b.HasPointers())

	state.Deallocate(b)

	require.True(t, b.IsDead())
	require.False(t, b.HasPointers(), "the chain moves to the relocated block")
	require.True(t, p2.IsDead())
	require.Equal(t, 1, state.DeadBlocks().Count())

	require.Equal(t, bytes.Repeat([]byte{0xAA}, 16), p2.Data())

	p2.Release()
	require.True(t, state.DeadBlocks().IsEmpty())
}

func TestRelocationPreservesChainLengthAndOrder(t *testing.T) {
	state := newTestState()

	desc := interp.NewPrimArrayDescriptor("local", interp.PrimUint8, 0, 4, false, false, false)
	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()

	p1 := interp.NewPointer(b)
	p2 := interp.NewPointerAt(b, 1)
	p3 := interp.NewPointerAt(b, 2)

	state.Deallocate(b)

	dead := state.DeadBlocks().Head()
	require.NotNil(t, dead)
	require.Equal(t, []*interp.Pointer{p1, p2, p3}, chainOrder(t, dead.Block()))

	for _, p := range []*interp.Pointer{p1, p2, p3} {
		require.Same(t, dead.Block(), p.Block())
	}

	p1.Release()
	p2.Release()
	p3.Release()
	require.True(t, state.DeadBlocks().IsEmpty())
}

func TestScopeEndFreesUnreferencedBlockInPlace(t *testing.T) {
	state := newTestState()

	tracker := &callTracker{}
	desc := trackedByteDescriptor("local", 8, tracker)

	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()

	state.Deallocate(b)

	require.Equal(t, 1, tracker.dtorCalls)
	require.False(t, b.IsInitialized())
	require.True(t, state.DeadBlocks().IsEmpty())
}

func TestNeverConstructedBlockRunsNoDestroyCallback(t *testing.T) {
	state := newTestState()

	tracker := &callTracker{}
	desc := trackedByteDescriptor("local", 8, tracker)

	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	state.Deallocate(b)

	require.Zero(t, tracker.dtorCalls)
}

func TestDestroyCallbackDeferredUntilLastPointerReleases(t *testing.T) {
	state := newTestState()

	tracker := &callTracker{}
	desc := trackedByteDescriptor("local", 8, tracker)

	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()
	p := interp.NewPointer(b)

	state.Deallocate(b)
	require.Zero(t, tracker.dtorCalls, "relocation moves contents without destroying them")

	p.Release()
	require.Equal(t, 1, tracker.dtorCalls)
	require.True(t, state.DeadBlocks().IsEmpty())
}

func TestMoveCallbackRunsDuringRelocation(t *testing.T) {
	state := newTestState()

	desc := interp.NewPrimArrayDescriptor("local", interp.PrimUint8, 0, 8, false, false, false)

	moveCalls := 0
	desc.MoveFn = func(b *interp.Block, src, dst []byte, d *interp.Descriptor) {
		moveCalls++
		copy(dst, src)
	}

	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()
	b.Data()[0] = 0x42

	p := interp.NewPointer(b)
	state.Deallocate(b)

	require.Equal(t, 1, moveCalls)
	require.Equal(t, byte(0x42), p.Data()[0])

	p.Release()
}

func TestDeadBlockListUnlinksEveryPosition(t *testing.T) {
	state := newTestState()
	list := state.DeadBlocks()

	desc := interp.NewPrimArrayDescriptor("local", interp.PrimUint8, 0, 8, false, false, false)

	var pointers []*interp.Pointer
	var deadBlocks []*interp.DeadBlock
	for i := 0; i < 3; i++ {
		b := state.NewBlock(interp.NoDeclID, desc, false, false)
		b.Construct()
		pointers = append(pointers, interp.NewPointer(b))
		state.Deallocate(b)
		deadBlocks = append(deadBlocks, list.Head())
	}

	// Most-recently-relocated block sits at the head.
	require.Equal(t, 3, list.Count())
	require.Same(t, deadBlocks[2], list.Head())
	require.NoError(t, list.Validate())

	// Middle.
	pointers[1].Release()
	require.Equal(t, 2, list.Count())
	require.Same(t, deadBlocks[2], list.Head())
	require.NoError(t, list.Validate())

	// Head.
	pointers[2].Release()
	require.Equal(t, 1, list.Count())
	require.Same(t, deadBlocks[0], list.Head())
	require.NoError(t, list.Validate())

	// Tail.
	pointers[0].Release()
	require.True(t, list.IsEmpty())
	require.Nil(t, list.Head())
	require.NoError(t, list.Validate())
}

func TestRelocationCarriesMetadataRegion(t *testing.T) {
	state := newTestState()

	desc := interp.NewPrimArrayDescriptor("local", interp.PrimUint8, 8, 8, false, false, false)
	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()

	raw := b.RawData()
	for i := 0; i < desc.MDSize; i++ {
		raw[i] = byte(0xB0 + i)
	}

	p := interp.NewPointer(b)
	state.Deallocate(b)

	dead := state.DeadBlocks().Head()
	require.NotNil(t, dead)
	for i := 0; i < desc.MDSize; i++ {
		require.Equal(t, byte(0xB0+i), dead.RawData()[i])
	}

	p.Release()
}

func TestRelocationCarriesElementInitState(t *testing.T) {
	state := newTestState()

	desc := interp.NewPrimArrayDescriptor("arr", interp.PrimInt32, 0, 4, false, false, false)
	b := state.NewBlock(interp.NoDeclID, desc, false, false)
	b.Construct()
	b.InitElement(2)

	p := interp.NewPointer(b)
	state.Deallocate(b)

	dead := state.DeadBlocks().Head()
	require.True(t, dead.Block().IsElementInitialized(2))
	require.False(t, dead.Block().IsElementInitialized(0))

	p.Release()
}
