// Package spirv reads, edits and writes SPIR-V binaries at the word level.
//
// SPIR-V is the standard intermediate language for GPU shaders,
// used by Vulkan, OpenCL, and other APIs.
//
// # Reading
//
// ParseModule decodes a binary in either byte order and checks that its
// instructions tile the buffer exactly. Scan walks the instruction stream
// and hands each visitor the decoded header and the operand words:
//
//	m, err := spirv.ParseModule(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = m.Scan(func(pos int, hdr spirv.Header, ops []uint32) spirv.ControlFlow {
//		if hdr.Opcode == spirv.OpFunction {
//			return spirv.Stop
//		}
//		return spirv.Continue
//	})
//
// Typed decoders such as DecodeTypePointer and DecodeEntryPoint turn
// operand words into structs and report short instructions as *Error.
//
// # Editing
//
// Operand words may be overwritten in place through the scan visitor or
// Module.Words when the instruction keeps its width. Insertions and
// removals are staged in an Edits list, addressed by positions in the
// unedited module, and applied in one pass:
//
//	var edits spirv.Edits
//	edits.Remove(pos, pos+int(hdr.WordCount))
//	edits.InsertInstruction(at, spirv.NewInstruction(spirv.OpTypeSampler, id))
//	err := edits.Apply(m)
//
// IDAllocator hands out fresh IDs past the module's bound.
//
// # Writing
//
// ModuleBuilder constructs modules section by section:
//
//	builder := spirv.NewModuleBuilder(spirv.Version1_3)
//	builder.AddCapability(spirv.CapabilityShader)
//	builder.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
//
//	floatType := builder.AddTypeFloat(32)
//	vec4Type := builder.AddTypeVector(floatType, 4)
//
//	binary := builder.Build()
//
// Disassemble prints a module in spvasm-like text.
//
// # SPIR-V Structure
//
// SPIR-V modules consist of:
//   - Header (magic, version, generator, bound, schema)
//   - Capabilities (required features)
//   - Extensions (optional extensions)
//   - Extended instruction imports (GLSL.std.450, etc.)
//   - Memory model (addressing and memory model)
//   - Entry points (shader entry functions)
//   - Execution modes (shader configuration)
//   - Debug information (names, source info)
//   - Annotations (decorations)
//   - Types and constants
//   - Global variables
//   - Functions (code)
//
// # References
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv
