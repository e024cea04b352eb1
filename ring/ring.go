// Package ring implements a fixed-capacity byte FIFO with an injectable
// locking strategy, used to hand diagnostic text from the control domain
// to a transport reader.
package ring

import "errors"

var (
	ErrInvalidParam = errors.New("ring: invalid parameter")
	ErrOverflow     = errors.New("ring: not enough free space")
	ErrNotFound     = errors.New("ring: not found")
)

// Lock is the mutual-exclusion capability injected at construction.
// Acquire and Release bracket every buffer operation. Implementations
// must be safe to call from every context the buffer is shared with,
// including interrupt-style callbacks.
type Lock interface {
	Acquire()
	Release()
}

// noLock is the default strategy: operations run unguarded.
type noLock struct{}

func (noLock) Acquire() {}
func (noLock) Release() {}

// Buffer is a circular byte store. An explicit count tracks the number
// of valid bytes, so capacity is exactly len(storage): no slot is wasted
// on a fullness sentinel and head==tail is ambiguous only to code that
// ignores the count.
type Buffer struct {
	data  []byte
	head  int
	tail  int
	count int
	lock  Lock
}

// New creates a buffer with the given capacity.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidParam
	}
	return &Buffer{
		data: make([]byte, capacity),
		lock: noLock{},
	}, nil
}

// NewThreadSafe creates a buffer whose operations are bracketed by lock.
// A nil lock leaves operations unguarded.
func NewThreadSafe(capacity int, lock Lock) (*Buffer, error) {
	b, err := New(capacity)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		b.lock = lock
	}
	return b, nil
}

// Put appends data in full or not at all. If data does not fit in the
// free space the buffer is left untouched and ErrOverflow is returned.
func (b *Buffer) Put(data []byte) error {
	if len(data) == 0 {
		return ErrInvalidParam
	}

	b.lock.Acquire()
	defer b.lock.Release()

	free := len(b.data) - b.length()
	if len(data) > free {
		return ErrOverflow
	}

	for _, c := range data {
		b.data[b.head] = c
		b.head++
		if b.head == len(b.data) {
			b.head = 0
		}
	}
	b.count += len(data)
	return nil
}

// Get reads up to max bytes into a new slice, in FIFO order. Reading
// from an empty buffer is not an error; the result is simply empty.
func (b *Buffer) Get(max int) ([]byte, error) {
	if max < 0 {
		return nil, ErrInvalidParam
	}

	b.lock.Acquire()
	defer b.lock.Release()

	n := b.length()
	if max < n {
		n = max
	}

	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = b.data[b.tail]
		b.tail++
		if b.tail == len(b.data) {
			b.tail = 0
		}
	}
	b.count -= n
	return out, nil
}

// Read drains up to len(p) bytes into p and reports the count, so the
// buffer can sit behind an io.Reader-shaped transport drain.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b.lock.Acquire()
	defer b.lock.Release()

	n := b.length()
	if len(p) < n {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = b.data[b.tail]
		b.tail++
		if b.tail == len(b.data) {
			b.tail = 0
		}
	}
	b.count -= n
	return n, nil
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.lock.Acquire()
	defer b.lock.Release()
	return b.length()
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// IndexOf returns the distance from the read position to the first
// occurrence of value, or ErrNotFound.
func (b *Buffer) IndexOf(value byte) (int, error) {
	b.lock.Acquire()
	defer b.lock.Release()

	pos := b.tail
	for i := 0; i < b.length(); i++ {
		if b.data[pos] == value {
			return i, nil
		}
		pos++
		if pos == len(b.data) {
			pos = 0
		}
	}
	return 0, ErrNotFound
}

// Find returns the distance from the read position to the first position
// where pattern matches contiguously, wrapping through the ring, or
// ErrNotFound. The match may not extend past the write position.
func (b *Buffer) Find(pattern []byte) (int, error) {
	if len(pattern) == 0 {
		return 0, ErrInvalidParam
	}

	b.lock.Acquire()
	defer b.lock.Release()

	avail := b.length()
	pos := b.tail
	for count := 0; count+len(pattern) <= avail; count++ {
		if b.data[pos] == pattern[0] {
			matched := 1
			for matched < len(pattern) {
				if b.data[(pos+matched)%len(b.data)] != pattern[matched] {
					break
				}
				matched++
			}
			if matched == len(pattern) {
				return count, nil
			}
		}
		pos++
		if pos == len(b.data) {
			pos = 0
		}
	}
	return 0, ErrNotFound
}

// Skip discards up to n buffered bytes and returns the count discarded.
func (b *Buffer) Skip(n int) int {
	if n <= 0 {
		return 0
	}

	b.lock.Acquire()
	defer b.lock.Release()

	avail := b.length()
	if n > avail {
		n = avail
	}
	b.tail = (b.tail + n) % len(b.data)
	b.count -= n
	return n
}

// Reset discards all buffered bytes.
func (b *Buffer) Reset() {
	b.lock.Acquire()
	defer b.lock.Release()
	b.head = 0
	b.tail = 0
	b.count = 0
}

// length is the unlocked size read; callers hold the lock.
func (b *Buffer) length() int {
	return b.count
}
