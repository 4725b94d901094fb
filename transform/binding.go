// Package transform implements rewriting passes over SPIR-V modules.
//
// Every pass follows the same shape: one or more read-only scans collect
// positions and IDs, same-width edits are written in place, and structural
// edits are staged in a spirv.Edits list applied once at the end. Passes
// must run one after another on a module, never concurrently.
package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gogpu/spvpass/spirv"
)

// Binding is a descriptor set and binding index pair.
type Binding struct {
	DescriptorSet uint32
	Binding       uint32
}

// String formats the binding as "set:binding".
func (b Binding) String() string {
	return fmt.Sprintf("%d:%d", b.DescriptorSet, b.Binding)
}

// ParseBinding parses a "set:binding" pair.
func ParseBinding(s string) (Binding, error) {
	set, binding, ok := strings.Cut(s, ":")
	if !ok {
		return Binding{}, fmt.Errorf("binding %q: want set:binding", s)
	}
	setValue, err := strconv.ParseUint(strings.TrimSpace(set), 10, 32)
	if err != nil {
		return Binding{}, fmt.Errorf("binding %q: descriptor set: %w", s, err)
	}
	bindingValue, err := strconv.ParseUint(strings.TrimSpace(binding), 10, 32)
	if err != nil {
		return Binding{}, fmt.Errorf("binding %q: binding index: %w", s, err)
	}
	return Binding{DescriptorSet: uint32(setValue), Binding: uint32(bindingValue)}, nil
}

// ImageSamplerPair links the binding of a split image to the binding of
// the sampler that was separated from it.
type ImageSamplerPair struct {
	Image   Binding
	Sampler Binding
}

// BindingConflictError reports a sampler binding chosen by a caller's
// binding policy that is already taken in its descriptor set.
type BindingConflictError struct {
	Image   Binding
	Sampler Binding
	// Owner is the ID already holding the binding. For a clash between two
	// new samplers it is the image variable whose sampler came first.
	Owner uint32
}

func (e *BindingConflictError) Error() string {
	return fmt.Sprintf("sampler binding %s for image %s is already used by %%%d", e.Sampler, e.Image, e.Owner)
}

// bindingDecorations tracks the DescriptorSet and Binding decorations seen
// for one target ID. A position of -1 means the decoration was not seen.
type bindingDecorations struct {
	set, binding       uint32
	setPos, bindingPos int
	end                int // word index just past the later of the two
}

func (d *bindingDecorations) complete() bool {
	return d.setPos >= 0 && d.bindingPos >= 0
}

func (d *bindingDecorations) value() Binding {
	return Binding{DescriptorSet: d.set, Binding: d.binding}
}

// bindingTable collects binding decorations per target ID.
type bindingTable map[uint32]*bindingDecorations

// observe records one OpDecorate. Decorations other than DescriptorSet and
// Binding, and decorations without a value, are ignored. A repeated
// decoration overrides the earlier one.
func (t bindingTable) observe(pos int, hdr spirv.Header, dec spirv.Decorate) {
	if dec.Value == nil {
		return
	}
	if dec.Decoration != spirv.DecorationDescriptorSet && dec.Decoration != spirv.DecorationBinding {
		return
	}
	entry, ok := t[dec.TargetID]
	if !ok {
		entry = &bindingDecorations{setPos: -1, bindingPos: -1}
		t[dec.TargetID] = entry
	}
	if dec.Decoration == spirv.DecorationDescriptorSet {
		entry.set, entry.setPos = *dec.Value, pos
	} else {
		entry.binding, entry.bindingPos = *dec.Value, pos
	}
	entry.end = max(entry.end, pos+int(hdr.WordCount))
}

// completeTargets returns the IDs carrying both decorations, ascending.
func (t bindingTable) completeTargets() []uint32 {
	var ids []uint32
	for id, entry := range t {
		if entry.complete() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// highest returns the largest complete binding index per descriptor set.
func (t bindingTable) highest() map[uint32]uint32 {
	out := make(map[uint32]uint32)
	for _, entry := range t {
		if !entry.complete() {
			continue
		}
		if cur, ok := out[entry.set]; !ok || entry.binding > cur {
			out[entry.set] = entry.binding
		}
	}
	return out
}

// owners maps every complete binding to the lowest target ID holding it.
func (t bindingTable) owners() map[Binding]uint32 {
	out := make(map[Binding]uint32)
	for _, id := range t.completeTargets() {
		b := t[id].value()
		if _, taken := out[b]; !taken {
			out[b] = id
		}
	}
	return out
}

// scan runs visit over m and stops at the first error the visitor returns,
// attaching the instruction's word offset to it.
func scan(m *spirv.Module, visit func(pos int, hdr spirv.Header, ops []uint32) (spirv.ControlFlow, error)) error {
	var visitErr error
	err := m.Scan(func(pos int, hdr spirv.Header, ops []uint32) spirv.ControlFlow {
		flow, err := visit(pos, hdr, ops)
		if err != nil {
			visitErr = spirv.At(pos, err)
			return spirv.Stop
		}
		return flow
	})
	if err != nil {
		return err
	}
	return visitErr
}

// decorate encodes an OpDecorate carrying one literal.
func decorate(target uint32, decoration spirv.Decoration, value uint32) spirv.Instruction {
	return spirv.NewInstruction(spirv.OpDecorate, target, uint32(decoration), value)
}
