package spirv

import (
	"errors"
	"slices"
	"testing"
)

// nopModule returns a module with n OpNop instructions after the header,
// followed by words that make the tail easy to recognize.
func nopModule(t *testing.T, n int) *Module {
	t.Helper()
	words := []uint32{MagicNumber, 0x00010000, 0, 1, 0}
	for i := 0; i < n; i++ {
		words = append(words, Header{WordCount: 1, Opcode: OpNop}.Encode())
	}
	m, err := NewModule(words)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}
	return m
}

func nop() uint32 { return Header{WordCount: 1, Opcode: OpNop}.Encode() }

func mark(op OpCode) uint32 { return Header{WordCount: 1, Opcode: op}.Encode() }

func TestEdits_Apply(t *testing.T) {
	m := nopModule(t, 4) // words 5..8

	var edits Edits
	edits.Remove(6, 7)
	edits.Insert(6, mark(OpReturn))
	edits.Insert(9, mark(OpFunctionEnd))
	edits.Insert(5, mark(OpLabel))
	edits.Insert(6, mark(OpNoLine))

	if edits.Len() != 5 {
		t.Errorf("Len = %d, want 5", edits.Len())
	}
	if edits.Delta() != 3 {
		t.Errorf("Delta = %d, want 3", edits.Delta())
	}
	if err := edits.Apply(m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if edits.Len() != 0 {
		t.Error("Apply did not clear the list")
	}

	want := []uint32{
		mark(OpLabel), nop(),
		mark(OpReturn), mark(OpNoLine), // queue order, before the removed word
		nop(), nop(),
		mark(OpFunctionEnd),
	}
	if got := m.Words()[HeaderWords:]; !slices.Equal(got, want) {
		t.Errorf("words = %x, want %x", got, want)
	}
	if err := m.CheckStructure(); err != nil {
		t.Errorf("CheckStructure: %v", err)
	}
}

func TestEdits_ApplyRejects(t *testing.T) {
	tests := []struct {
		name  string
		queue func(*Edits)
	}{
		{"inside header", func(e *Edits) { e.Insert(2, nop()) }},
		{"past end", func(e *Edits) { e.Remove(8, 10) }},
		{"overlapping removals", func(e *Edits) { e.Remove(5, 7); e.Remove(6, 8) }},
		{"insert inside removal", func(e *Edits) { e.Remove(5, 8); e.Insert(6, nop()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := nopModule(t, 4)
			before := slices.Clone(m.Words())

			var edits Edits
			tt.queue(&edits)
			err := edits.Apply(m)

			var e *Error
			if !errors.As(err, &e) || e.Kind != ErrBadEdit {
				t.Fatalf("Apply error = %v, want BadEdit", err)
			}
			if IsMalformed(err) {
				t.Error("bad edit reported as malformed module")
			}
			if !slices.Equal(m.Words(), before) {
				t.Error("module changed by a rejected edit")
			}
		})
	}
}

func TestEdits_AdjacentRemovals(t *testing.T) {
	m := nopModule(t, 4)
	var edits Edits
	edits.Remove(5, 6)
	edits.Remove(6, 7)
	edits.Insert(7, mark(OpReturn))
	if err := edits.Apply(m); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []uint32{mark(OpReturn), nop(), nop()}
	if got := m.Words()[HeaderWords:]; !slices.Equal(got, want) {
		t.Errorf("words = %x, want %x", got, want)
	}
}
