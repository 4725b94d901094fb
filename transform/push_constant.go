package transform

import (
	"errors"

	"github.com/gogpu/spvpass/spirv"
	log "github.com/sirupsen/logrus"
)

// ErrMultiplePushConstants is returned when a module declares more than one
// push-constant variable, so there is no single block to turn into a
// uniform buffer.
var ErrMultiplePushConstants = errors.New("module declares more than one push-constant variable")

// PushConstToUBO turns the module's push-constant block into a uniform
// buffer at the given descriptor set and binding.
//
// Every PushConstant pointer type and the PushConstant variable are
// rewritten to the Uniform storage class, and DescriptorSet/Binding
// decorations for the variable are inserted before the first type
// declaration. It reports false, leaving the module untouched, when there
// is no push-constant variable.
func PushConstToUBO(m *spirv.Module, descriptorSet, binding uint32) (bool, error) {
	var (
		firstDecl = -1
		target    uint32
		found     bool
		rewrites  []int // word indices of storage-class operands
	)
	err := scan(m, func(pos int, hdr spirv.Header, ops []uint32) (spirv.ControlFlow, error) {
		if hdr.Opcode == spirv.OpFunction {
			// no global declarations past this point
			return spirv.Stop, nil
		}
		if firstDecl < 0 && isGlobalDeclaration(hdr.Opcode) {
			firstDecl = pos
		}
		switch hdr.Opcode {
		case spirv.OpTypePointer:
			ptr, err := spirv.DecodeTypePointer(ops)
			if err != nil {
				return spirv.Stop, err
			}
			if ptr.StorageClass == spirv.StorageClassPushConstant {
				rewrites = append(rewrites, pos+2)
			}
		case spirv.OpVariable:
			v, err := spirv.DecodeVariable(ops)
			if err != nil {
				return spirv.Stop, err
			}
			if v.StorageClass != spirv.StorageClassPushConstant {
				break
			}
			if found {
				return spirv.Stop, ErrMultiplePushConstants
			}
			found, target = true, v.ResultID
			rewrites = append(rewrites, pos+3)
		}
		return spirv.Continue, nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		log.Debug("no push constants to replace")
		return false, nil
	}

	words := m.Words()
	for _, i := range rewrites {
		words[i] = uint32(spirv.StorageClassUniform)
	}

	var edits spirv.Edits
	edits.InsertInstruction(firstDecl, decorate(target, spirv.DecorationDescriptorSet, descriptorSet))
	edits.InsertInstruction(firstDecl, decorate(target, spirv.DecorationBinding, binding))
	if err := edits.Apply(m); err != nil {
		return false, err
	}

	log.Debugf("replaced push constants %%%d with uniform buffer at %d:%d", target, descriptorSet, binding)
	return true, nil
}

// isGlobalDeclaration reports whether op starts the types, constants and
// global variables section.
func isGlobalDeclaration(op spirv.OpCode) bool {
	return op.IsTypeDeclaration() || op.IsConstant() || op == spirv.OpVariable
}
