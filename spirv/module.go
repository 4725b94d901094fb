package spirv

import (
	"encoding/binary"
	"math/bits"
)

// Module is a decoded SPIR-V binary: the header followed by a linear
// instruction stream, held as 32-bit words.
//
// The byte order of the source buffer is detected from the magic number
// and reused by Bytes.
type Module struct {
	words []uint32
	order binary.ByteOrder
}

// ParseModule decodes a SPIR-V binary and verifies that its instruction
// stream tiles the buffer exactly. The input is not retained.
func ParseModule(data []byte) (*Module, error) {
	if len(data)%4 != 0 {
		return nil, newError(ErrUnaligned, "length %d is not a multiple of 4", len(data))
	}
	if len(data) < HeaderWords*4 {
		return nil, newError(ErrTruncatedHeader, "got %d bytes, need at least %d", len(data), HeaderWords*4)
	}

	var order binary.ByteOrder
	switch magic := binary.LittleEndian.Uint32(data); magic {
	case MagicNumber:
		order = binary.LittleEndian
	case bits.ReverseBytes32(MagicNumber):
		order = binary.BigEndian
	default:
		return nil, newError(ErrBadMagic, "got 0x%08X, want 0x%08X", magic, MagicNumber)
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}

	m := &Module{words: words, order: order}
	if err := m.CheckStructure(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewModule wraps an already decoded word stream. The slice is owned by the
// module afterwards.
func NewModule(words []uint32) (*Module, error) {
	if len(words) < HeaderWords {
		return nil, newError(ErrTruncatedHeader, "got %d words, need at least %d", len(words), HeaderWords)
	}
	if words[0] != MagicNumber {
		return nil, newError(ErrBadMagic, "got 0x%08X, want 0x%08X", words[0], MagicNumber)
	}
	m := &Module{words: words, order: binary.LittleEndian}
	if err := m.CheckStructure(); err != nil {
		return nil, err
	}
	return m, nil
}

// Bytes encodes the module in the byte order it was parsed from.
func (m *Module) Bytes() []byte {
	out := make([]byte, len(m.words)*4)
	for i, w := range m.words {
		m.order.PutUint32(out[i*4:], w)
	}
	return out
}

// Words returns the module's words. The slice aliases the module and is
// invalidated by Edits.Apply.
func (m *Module) Words() []uint32 {
	return m.words
}

// Len returns the module length in words, header included.
func (m *Module) Len() int {
	return len(m.words)
}

// ByteOrder returns the byte order used by Bytes.
func (m *Module) ByteOrder() binary.ByteOrder {
	return m.order
}

// Version returns the SPIR-V version declared in the header.
func (m *Module) Version() Version {
	return Version{Major: uint8(m.words[1] >> 16), Minor: uint8(m.words[1] >> 8)}
}

// Bound returns the ID bound: one greater than the largest ID in use.
func (m *Module) Bound() uint32 {
	return m.words[BoundWord]
}

// SetBound overwrites the ID bound.
func (m *Module) SetBound(bound uint32) {
	m.words[BoundWord] = bound
}

// Clone returns a deep copy of the module.
func (m *Module) Clone() *Module {
	words := make([]uint32, len(m.words))
	copy(words, m.words)
	return &Module{words: words, order: m.order}
}

// IDAllocator hands out fresh result IDs starting at a module's bound.
type IDAllocator struct {
	next uint32
}

// NewIDAllocator creates an allocator continuing after m's current bound.
func NewIDAllocator(m *Module) *IDAllocator {
	return &IDAllocator{next: m.Bound()}
}

// AllocID allocates a new SPIR-V ID.
func (a *IDAllocator) AllocID() uint32 {
	id := a.next
	a.next++
	return id
}

// Bound returns the ID bound covering every ID allocated so far.
func (a *IDAllocator) Bound() uint32 {
	return a.next
}
