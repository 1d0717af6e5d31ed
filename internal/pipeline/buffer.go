package pipeline

import "context"

// bufferDepth is the number of tiles a worker holds at once.
const bufferDepth = 2

// slot is one tile-sized buffer and the tile it currently holds.
type slot struct {
	src, dst int
	data     []byte
}

// doubleBuffer hands bufferDepth slots back and forth between a worker's
// reader and writer. A slot is owned by exactly one side at a time.
type doubleBuffer struct {
	free   chan *slot
	filled chan *slot
}

func newDoubleBuffer(tileBytes int) *doubleBuffer {
	b := &doubleBuffer{
		free:   make(chan *slot, bufferDepth),
		filled: make(chan *slot, bufferDepth),
	}
	for range bufferDepth {
		b.free <- &slot{data: make([]byte, tileBytes)}
	}
	return b
}

// acquire blocks until a free slot is available or ctx is done.
func (b *doubleBuffer) acquire(ctx context.Context) (*slot, error) {
	select {
	case s := <-b.free:
		if err := ctx.Err(); err != nil {
			b.free <- s
			return nil, err
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// push hands a filled slot to the writer. It never blocks: at most
// bufferDepth slots exist.
func (b *doubleBuffer) push(s *slot) {
	b.filled <- s
}

// release returns a written slot to the reader.
func (b *doubleBuffer) release(s *slot) {
	b.free <- s
}

// done signals the writer that no more slots will be pushed.
func (b *doubleBuffer) done() {
	close(b.filled)
}
