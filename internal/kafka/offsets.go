package kafka

import (
	"sync"

	"github.com/segmentio/kafka-go"
)

// offsetTracker records fetched messages per partition so that a commit
// never moves past a job that is still running
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int]*partitionOffsets
}

type partitionOffsets struct {
	pending []kafka.Message // fetch order
	done    map[int64]bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[int]*partitionOffsets)}
}

// track registers msg as in flight. Messages of one partition must be
// tracked in offset order.
func (t *offsetTracker) track(msg kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[msg.Partition]
	if !ok {
		p = &partitionOffsets{done: make(map[int64]bool)}
		t.partitions[msg.Partition] = p
	}
	p.pending = append(p.pending, msg)
}

// complete marks msg finished and returns the newest message of its
// partition that can be committed, if the finished prefix grew
func (t *offsetTracker) complete(msg kafka.Message) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[msg.Partition]
	if !ok {
		return kafka.Message{}, false
	}
	p.done[msg.Offset] = true

	var upTo kafka.Message
	advanced := false
	for len(p.pending) > 0 && p.done[p.pending[0].Offset] {
		upTo = p.pending[0]
		delete(p.done, upTo.Offset)
		p.pending = p.pending[1:]
		advanced = true
	}
	return upTo, advanced
}
