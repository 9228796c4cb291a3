package interpmem

import "math"

// HeapStatistics is a summary of the storage currently managed by an interpreter heap: blocks
// whose automatic lifetime has not yet ended, and dead blocks kept alive by outstanding pointers.
type HeapStatistics struct {
	BlockCount     int
	DeadBlockCount int
	BlockBytes     int
	DeadBlockBytes int
	PointerCount   int
}

func (s *HeapStatistics) Clear() {
	s.BlockCount = 0
	s.DeadBlockCount = 0
	s.BlockBytes = 0
	s.DeadBlockBytes = 0
	s.PointerCount = 0
}

func (s *HeapStatistics) AddStatistics(other *HeapStatistics) {
	s.BlockCount += other.BlockCount
	s.DeadBlockCount += other.DeadBlockCount
	s.BlockBytes += other.BlockBytes
	s.DeadBlockBytes += other.DeadBlockBytes
	s.PointerCount += other.PointerCount
}

type DetailedHeapStatistics struct {
	HeapStatistics
	BlockSizeMin     int
	BlockSizeMax     int
	DeadBlockSizeMin int
	DeadBlockSizeMax int
}

func (s *DetailedHeapStatistics) Clear() {
	s.HeapStatistics.Clear()
	s.BlockSizeMin = math.MaxInt
	s.BlockSizeMax = 0
	s.DeadBlockSizeMin = math.MaxInt
	s.DeadBlockSizeMax = 0
}

func (s *DetailedHeapStatistics) AddBlock(size int) {
	s.BlockCount++
	s.BlockBytes += size

	if size < s.BlockSizeMin {
		s.BlockSizeMin = size
	}

	if size > s.BlockSizeMax {
		s.BlockSizeMax = size
	}
}

func (s *DetailedHeapStatistics) AddDeadBlock(size int) {
	s.DeadBlockCount++
	s.DeadBlockBytes += size

	if size < s.DeadBlockSizeMin {
		s.DeadBlockSizeMin = size
	}

	if size > s.DeadBlockSizeMax {
		s.DeadBlockSizeMax = size
	}
}

func (s *DetailedHeapStatistics) AddDetailedStatistics(other *DetailedHeapStatistics) {
	s.HeapStatistics.AddStatistics(&other.HeapStatistics)

	if other.BlockSizeMin < s.BlockSizeMin {
		s.BlockSizeMin = other.BlockSizeMin
	}

	if other.BlockSizeMax > s.BlockSizeMax {
		s.BlockSizeMax = other.BlockSizeMax
	}

	if other.DeadBlockSizeMin < s.DeadBlockSizeMin {
		s.DeadBlockSizeMin = other.DeadBlockSizeMin
	}

	if other.DeadBlockSizeMax > s.DeadBlockSizeMax {
		s.DeadBlockSizeMax = other.DeadBlockSizeMax
	}
}
