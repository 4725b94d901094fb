package transform

import (
	"github.com/gogpu/spvpass/spirv"
	log "github.com/sirupsen/logrus"
)

// RemapBindings rewrites the DescriptorSet and Binding decorations of every
// target that has both, replacing its binding with remap(binding). remap is
// called exactly once per such target, in ascending ID order, after all
// decorations have been collected. Targets with only one of the two
// decorations are left untouched. It returns the number of remapped
// targets.
func RemapBindings(m *spirv.Module, remap func(Binding) Binding) (int, error) {
	table := bindingTable{}
	err := scan(m, func(pos int, hdr spirv.Header, ops []uint32) (spirv.ControlFlow, error) {
		if hdr.Opcode != spirv.OpDecorate {
			return spirv.Continue, nil
		}
		dec, err := spirv.DecodeDecorate(ops)
		if err != nil {
			return spirv.Stop, err
		}
		table.observe(pos, hdr, dec)
		return spirv.Continue, nil
	})
	if err != nil {
		return 0, err
	}

	targets := table.completeTargets()
	if len(targets) == 0 {
		return 0, nil
	}
	remapped := make(map[uint32]Binding, len(targets))
	for _, id := range targets {
		remapped[id] = remap(table[id].value())
	}

	err = scan(m, func(_ int, hdr spirv.Header, ops []uint32) (spirv.ControlFlow, error) {
		if hdr.Opcode != spirv.OpDecorate || len(ops) < 3 {
			return spirv.Continue, nil
		}
		b, ok := remapped[ops[0]]
		if !ok {
			return spirv.Continue, nil
		}
		switch spirv.Decoration(ops[1]) {
		case spirv.DecorationDescriptorSet:
			ops[2] = b.DescriptorSet
		case spirv.DecorationBinding:
			ops[2] = b.Binding
		}
		return spirv.Continue, nil
	})
	if err != nil {
		return 0, err
	}

	log.Debugf("remapped %d bindings", len(targets))
	return len(targets), nil
}
