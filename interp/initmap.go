package interp

// InitMap tracks per-element initialization state for array blocks. Elements start
// uninitialized; the map counts down outstanding elements so a fully-initialized
// array can be detected without a scan.
type InitMap struct {
	uninitElems int
	data        []uint64
}

const initMapBitsPerBucket = 64

func NewInitMap(numElems int) *InitMap {
	return &InitMap{
		uninitElems: numElems,
		data:        make([]uint64, (numElems+initMapBitsPerBucket-1)/initMapBitsPerBucket),
	}
}

// InitializeElement marks element i initialized and returns true once every element
// of the array has been initialized.
func (m *InitMap) InitializeElement(i int) bool {
	bucket := i / initMapBitsPerBucket
	mask := uint64(1) << (i % initMapBitsPerBucket)

	if m.data[bucket]&mask == 0 {
		m.data[bucket] |= mask
		m.uninitElems--
	}

	return m.uninitElems == 0
}

func (m *InitMap) IsElementInitialized(i int) bool {
	bucket := i / initMapBitsPerBucket
	return m.data[bucket]&(uint64(1)<<(i%initMapBitsPerBucket)) != 0
}
