package interp

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"

	"github.com/cvmkit/interpmem"
)

// DeadBlockList is the heap-owned doubly linked list of dead blocks awaiting their
// last pointer detach. The most recently relocated block sits at the head.
type DeadBlockList struct {
	head  *DeadBlock
	count int
}

func (l *DeadBlockList) push(d *DeadBlock) {
	if l.head != nil {
		l.head.prev = d
	}
	d.next = l.head
	d.prev = nil
	l.head = d
	l.count++
}

func (l *DeadBlockList) remove(d *DeadBlock) {
	if d.prev != nil {
		d.prev.next = d.next
	} else {
		l.head = d.next
	}

	if d.next != nil {
		d.next.prev = d.prev
	}

	d.prev = nil
	d.next = nil

	l.count--
}

// IsEmpty reports whether any dead blocks remain.
func (l *DeadBlockList) IsEmpty() bool {
	return l.count == 0
}

// Count returns the number of dead blocks in the list.
func (l *DeadBlockList) Count() int {
	return l.count
}

// Head returns the most recently relocated dead block, or nil.
func (l *DeadBlockList) Head() *DeadBlock {
	return l.head
}

// Validate performs internal consistency checks on the list structure.
func (l *DeadBlockList) Validate() error {
	declaredCount := l.count
	actualCount := 0

	var prev *DeadBlock
	for d := l.head; d != nil; d = d.next {
		if d.prev != prev {
			return errors.Errorf("the dead block at list position %d has a stale back link", actualCount)
		}
		if d.list != l {
			return errors.Errorf("the dead block at list position %d belongs to a different list", actualCount)
		}

		prev = d
		actualCount++
	}

	if declaredCount != actualCount {
		return errors.Errorf("the listed number of dead blocks (%d) does not match the actual number of dead blocks (%d)", declaredCount, actualCount)
	}

	return nil
}

// AddDetailedStatistics sums the list's contents into the provided statistics.
func (l *DeadBlockList) AddDetailedStatistics(stats *interpmem.DetailedHeapStatistics) {
	for d := l.head; d != nil; d = d.next {
		stats.AddDeadBlock(d.block.Size())
		stats.PointerCount += len(d.block.pointers)
	}
}

// BuildStatsString writes a JSON array describing every dead block still held alive
// by outstanding pointers.
func (l *DeadBlockList) BuildStatsString(writer *jwriter.Writer) {
	s := writer.Array()
	defer s.End()

	for d := l.head; d != nil; d = d.next {
		o := s.Object()
		d.printParameters(&o)
		o.End()
	}
}
