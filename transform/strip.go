package transform

import (
	"github.com/gogpu/spvpass/spirv"
	log "github.com/sirupsen/logrus"
)

// RemoveDebugInfo deletes every source, name, string, line and
// module-processed instruction and returns how many were removed. Running
// it again on its output removes nothing.
func RemoveDebugInfo(m *spirv.Module) (int, error) {
	n, err := removeInstructions(m, func(hdr spirv.Header, _ []uint32) (bool, error) {
		return hdr.Opcode.IsDebugInfo(), nil
	})
	if err != nil {
		return 0, err
	}
	log.Debugf("removed %d debug instructions", n)
	return n, nil
}

// RemoveDecoration deletes every OpDecorate and OpMemberDecorate applying
// the given decoration and returns how many were removed.
func RemoveDecoration(m *spirv.Module, decoration spirv.Decoration) (int, error) {
	n, err := removeInstructions(m, func(hdr spirv.Header, ops []uint32) (bool, error) {
		switch hdr.Opcode {
		case spirv.OpDecorate:
			dec, err := spirv.DecodeDecorate(ops)
			return err == nil && dec.Decoration == decoration, err
		case spirv.OpMemberDecorate:
			dec, err := spirv.DecodeMemberDecorate(ops)
			return err == nil && dec.Decoration == decoration, err
		}
		return false, nil
	})
	if err != nil {
		return 0, err
	}
	log.Debugf("removed %d %s decorations", n, decoration)
	return n, nil
}

// removeInstructions deletes every instruction matched by match.
func removeInstructions(m *spirv.Module, match func(spirv.Header, []uint32) (bool, error)) (int, error) {
	var edits spirv.Edits
	err := scan(m, func(pos int, hdr spirv.Header, ops []uint32) (spirv.ControlFlow, error) {
		ok, err := match(hdr, ops)
		if err != nil {
			return spirv.Stop, err
		}
		if ok {
			edits.Remove(pos, pos+int(hdr.WordCount))
		}
		return spirv.Continue, nil
	})
	if err != nil {
		return 0, err
	}
	n := edits.Len()
	return n, edits.Apply(m)
}
