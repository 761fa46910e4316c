package routine

import (
	"fmt"

	"go.starlark.net/starlark"
)

// Buffer exposes an int32 slice to Starlark as an indexable, assignable
// sequence. The backing slice can be swapped between calls.
type Buffer struct {
	name string
	data []int32
}

var (
	_ starlark.Indexable   = (*Buffer)(nil)
	_ starlark.HasSetIndex = (*Buffer)(nil)
)

// NewBuffer wraps data.
func NewBuffer(name string, data []int32) *Buffer {
	return &Buffer{name: name, data: data}
}

// Reset points the buffer at data.
func (b *Buffer) Reset(data []int32) {
	b.data = data
}

// Data returns the backing slice.
func (b *Buffer) Data() []int32 {
	return b.data
}

func (b *Buffer) String() string {
	return fmt.Sprintf("<buffer %s len=%d>", b.name, len(b.data))
}

func (b *Buffer) Type() string {
	return "buffer"
}

// Freeze is a no-op. Buffers are owned by one worker at a time.
func (b *Buffer) Freeze() {}

func (b *Buffer) Truth() starlark.Bool {
	return len(b.data) > 0
}

func (b *Buffer) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: buffer")
}

func (b *Buffer) Index(i int) starlark.Value {
	return starlark.MakeInt(int(b.data[i]))
}

func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) SetIndex(i int, v starlark.Value) error {
	x, err := starlark.AsInt32(v)
	if err != nil {
		return fmt.Errorf("%s[%d]: %w", b.name, i, err)
	}

	b.data[i] = int32(x)

	return nil
}
