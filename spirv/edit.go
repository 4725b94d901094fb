package spirv

import "sort"

// Edits is a staged list of structural changes to a module's word stream.
//
// Every position refers to the module as it was when the edits were
// computed; Apply takes care of the shifting. Insertions at the same
// position are emitted in the order they were queued.
type Edits struct {
	edits []edit
}

type edit struct {
	pos    int
	end    int // exclusive end of a removal; == pos for an insertion
	insert []uint32
	seq    int
}

// Insert queues words to be spliced in before word index pos. pos may equal
// the module length to append.
func (e *Edits) Insert(pos int, words ...uint32) {
	if len(words) == 0 {
		return
	}
	e.edits = append(e.edits, edit{pos: pos, end: pos, insert: words, seq: len(e.edits)})
}

// InsertInstruction queues an encoded instruction before word index pos.
func (e *Edits) InsertInstruction(pos int, inst Instruction) {
	e.Insert(pos, inst.Encode()...)
}

// Remove queues deletion of the words [start, end).
func (e *Edits) Remove(start, end int) {
	e.edits = append(e.edits, edit{pos: start, end: end, seq: len(e.edits)})
}

// Len returns the number of queued edits.
func (e *Edits) Len() int {
	return len(e.edits)
}

// Delta returns the net change in module length, in words.
func (e *Edits) Delta() int {
	delta := 0
	for _, ed := range e.edits {
		delta += len(ed.insert) - (ed.end - ed.pos)
	}
	return delta
}

// Apply performs every queued edit in a single linear copy and clears the
// list. At a position holding both, insertions land before the removed
// range. The header is never edited.
func (e *Edits) Apply(m *Module) error {
	if len(e.edits) == 0 {
		return nil
	}
	edits := make([]edit, len(e.edits))
	copy(edits, e.edits)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].pos != edits[j].pos {
			return edits[i].pos < edits[j].pos
		}
		// insertions first, then queue order
		ri, rj := edits[i].end > edits[i].pos, edits[j].end > edits[j].pos
		if ri != rj {
			return rj
		}
		return edits[i].seq < edits[j].seq
	})

	removedTo := HeaderWords
	for _, ed := range edits {
		if ed.pos < HeaderWords || ed.end > len(m.words) || ed.end < ed.pos {
			return instructionError(ErrBadEdit, ed.pos, OpNop,
				"edit [%d,%d) outside instruction stream of %d words", ed.pos, ed.end, len(m.words))
		}
		if ed.pos < removedTo {
			return instructionError(ErrBadEdit, ed.pos, OpNop, "edit overlaps removal ending at %d", removedTo)
		}
		if ed.end > ed.pos {
			removedTo = ed.end
		}
	}

	out := make([]uint32, 0, len(m.words)+e.Delta())
	cursor := 0
	for _, ed := range edits {
		if ed.pos > cursor {
			out = append(out, m.words[cursor:ed.pos]...)
			cursor = ed.pos
		}
		if ed.end > ed.pos {
			cursor = ed.end
			continue
		}
		out = append(out, ed.insert...)
	}
	out = append(out, m.words[cursor:]...)

	m.words = out
	e.edits = e.edits[:0]
	return nil
}
