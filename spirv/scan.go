package spirv

// ControlFlow tells Scan whether to keep visiting instructions.
type ControlFlow uint8

const (
	// Continue visits the next instruction.
	Continue ControlFlow = iota
	// Stop ends the scan after the current instruction.
	Stop
)

// Visitor is called once per instruction with the word index of its header,
// the decoded header and its operand words. The operand slice aliases the
// module, so same-width edits may be written through it. Structural edits
// must be staged in an Edits list instead.
type Visitor func(pos int, hdr Header, operands []uint32) ControlFlow

// Scan walks the instruction stream front to back, starting after the
// header. It advances by each instruction's declared word count no matter
// what the visitor did.
func (m *Module) Scan(visit Visitor) error {
	pos := HeaderWords
	for pos < len(m.words) {
		hdr := DecodeHeader(m.words[pos])
		if hdr.WordCount == 0 {
			return instructionError(ErrZeroWordCount, pos, hdr.Opcode, "instruction declares 0 words")
		}
		end := pos + int(hdr.WordCount)
		if end > len(m.words) {
			return instructionError(ErrTruncatedInstruction, pos, hdr.Opcode,
				"%s declares %d words, only %d left", hdr.Opcode, hdr.WordCount, len(m.words)-pos)
		}
		if visit(pos, hdr, m.words[pos+1:end]) == Stop {
			return nil
		}
		pos = end
	}
	return nil
}

// CheckStructure verifies the header and that every instruction's word
// count lands exactly on the next instruction or the end of the module.
func (m *Module) CheckStructure() error {
	if len(m.words) < HeaderWords {
		return newError(ErrTruncatedHeader, "got %d words, need at least %d", len(m.words), HeaderWords)
	}
	if m.words[0] != MagicNumber {
		return newError(ErrBadMagic, "got 0x%08X, want 0x%08X", m.words[0], MagicNumber)
	}
	return m.Scan(func(int, Header, []uint32) ControlFlow { return Continue })
}

// Located is an instruction together with the word index of its header.
type Located struct {
	Pos int
	Instruction
}

// End returns the word index just past the instruction.
func (l Located) End() int {
	return l.Pos + len(l.Words) + 1
}

// Instructions returns a copy of every instruction in stream order.
func (m *Module) Instructions() ([]Located, error) {
	var out []Located
	err := m.Scan(func(pos int, hdr Header, operands []uint32) ControlFlow {
		words := make([]uint32, len(operands))
		copy(words, operands)
		out = append(out, Located{Pos: pos, Instruction: Instruction{Opcode: hdr.Opcode, Words: words}})
		return Continue
	})
	return out, err
}
