package transform

import (
	"testing"

	"github.com/gogpu/spvpass/spirv"
)

// combinedShader is a fragment shader sampling one combined image sampler,
// optionally through a helper function taking it as a parameter.
type combinedShader struct {
	data         []byte
	image        uint32
	sampledImage uint32
	pointer      uint32
	texture      uint32
	main         uint32
	helper       uint32
	helperType   uint32
	param        uint32
	load         uint32
	sample       uint32
	uniform      uint32
}

type shaderOptions struct {
	viaHelper      bool
	withSampler    bool // declare an OpTypeSampler up front
	skipBinding    bool // leave the texture without a Binding decoration
	uniformBinding uint32
}

func buildCombinedShader(set, binding uint32, opts shaderOptions) combinedShader {
	var s combinedShader
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	float := b.AddTypeFloat(32)
	vec2 := b.AddTypeVector(float, 2)
	vec4 := b.AddTypeVector(float, 4)
	if opts.withSampler {
		b.AddTypeSampler()
	}
	s.image = b.AddTypeImage(float, spirv.Dim2D, false)
	s.sampledImage = b.AddTypeSampledImage(s.image)
	s.pointer = b.AddTypePointer(spirv.StorageClassUniformConstant, s.sampledImage)
	block := b.AddTypeStruct(vec4)
	blockPtr := b.AddTypePointer(spirv.StorageClassUniform, block)
	mainType := b.AddTypeFunction(void)
	if opts.viaHelper {
		s.helperType = b.AddTypeFunction(vec4, s.pointer)
	}
	zero := b.AddConstantFloat32(float, 0)
	coord := b.AddConstantComposite(vec2, zero, zero)

	s.uniform = b.AddVariable(blockPtr, spirv.StorageClassUniform)
	b.AddDecorate(block, spirv.DecorationBlock)
	b.AddDecorate(s.uniform, spirv.DecorationDescriptorSet, set)
	b.AddDecorate(s.uniform, spirv.DecorationBinding, opts.uniformBinding)
	s.texture = b.AddVariable(s.pointer, spirv.StorageClassUniformConstant)
	b.AddDecorate(s.texture, spirv.DecorationDescriptorSet, set)
	if !opts.skipBinding {
		b.AddDecorate(s.texture, spirv.DecorationBinding, binding)
	}

	if opts.viaHelper {
		s.helper = b.AddFunction(s.helperType, vec4, spirv.FunctionControlNone)
		s.param = b.AddFunctionParameter(s.pointer)
		b.AddLabel()
		s.load = b.AddLoad(s.sampledImage, s.param)
		s.sample = b.AddImageOp(spirv.OpImageSampleImplicitLod, vec4, s.load, coord)
		b.AddReturnValue(s.sample)
		b.AddFunctionEnd()
	}

	s.main = b.AddFunction(mainType, void, spirv.FunctionControlNone)
	b.AddLabel()
	if opts.viaHelper {
		b.AddFunctionCall(vec4, s.helper, s.texture)
	} else {
		s.load = b.AddLoad(s.sampledImage, s.texture)
		s.sample = b.AddImageOp(spirv.OpImageSampleImplicitLod, vec4, s.load, coord)
	}
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelFragment, s.main, "main", []uint32{s.texture})
	b.AddExecutionMode(s.main, spirv.ExecutionModeOriginUpperLeft)

	s.data = b.Build()
	return s
}

// pushConstantShader is a vertex shader reading one push-constant block.
type pushConstantShader struct {
	data      []byte
	block     uint32
	pointer   uint32
	constants uint32
}

func buildPushConstantShader(blocks int) pushConstantShader {
	var s pushConstantShader
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	float := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(float, 4)
	s.block = b.AddTypeStruct(vec4)
	s.pointer = b.AddTypePointer(spirv.StorageClassPushConstant, s.block)
	fieldPtr := b.AddTypePointer(spirv.StorageClassPushConstant, vec4)
	mainType := b.AddTypeFunction(void)
	index := b.AddConstant(b.AddTypeInt(32, true), 0)

	b.AddDecorate(s.block, spirv.DecorationBlock)
	b.AddMemberDecorate(s.block, 0, spirv.DecorationOffset, 0)
	for i := 0; i < blocks; i++ {
		v := b.AddVariable(s.pointer, spirv.StorageClassPushConstant)
		if i == 0 {
			s.constants = v
		}
	}

	main := b.AddFunction(mainType, void, spirv.FunctionControlNone)
	b.AddLabel()
	if blocks > 0 {
		field := b.AddAccessChain(fieldPtr, s.constants, index)
		b.AddLoad(vec4, field)
	}
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelVertex, main, "main", nil)

	s.data = b.Build()
	return s
}

func mustParse(t *testing.T, data []byte) *spirv.Module {
	t.Helper()
	m, err := spirv.ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	return m
}

// reparse checks that m still tiles and returns its instructions.
func reparse(t *testing.T, m *spirv.Module) []spirv.Located {
	t.Helper()
	insts, err := mustParse(t, m.Bytes()).Instructions()
	if err != nil {
		t.Fatalf("Instructions: %v", err)
	}
	return insts
}

func filter(insts []spirv.Located, op spirv.OpCode) []spirv.Located {
	var out []spirv.Located
	for _, inst := range insts {
		if inst.Opcode == op {
			out = append(out, inst)
		}
	}
	return out
}

// decorationValue returns the value of a single-literal decoration on id.
func decorationValue(insts []spirv.Located, id uint32, decoration spirv.Decoration) (uint32, bool) {
	for _, inst := range filter(insts, spirv.OpDecorate) {
		if len(inst.Words) == 3 && inst.Words[0] == id && spirv.Decoration(inst.Words[1]) == decoration {
			return inst.Words[2], true
		}
	}
	return 0, false
}

// defining returns the instruction whose result ID (at operand index
// resultIndex) is id.
func defining(t *testing.T, insts []spirv.Located, op spirv.OpCode, resultIndex int, id uint32) spirv.Located {
	t.Helper()
	for _, inst := range filter(insts, op) {
		if len(inst.Words) > resultIndex && inst.Words[resultIndex] == id {
			return inst
		}
	}
	t.Fatalf("no %s defines %%%d", op, id)
	return spirv.Located{}
}

// texture declares one combined image sampler variable. A negative binding
// leaves the Binding decoration off.
type texture struct {
	set     uint32
	binding int
}

// texturesShader is a fragment shader sampling several combined image
// samplers that share one pointer type.
type texturesShader struct {
	data         []byte
	image        uint32
	sampledImage uint32
	pointer      uint32
	sampler      uint32 // OpTypeSampler, when declared
	textures     []uint32
	loads        []uint32
	samples      []uint32
}

// buildTexturesShader declares the textures in order. With lateSampler an
// unused OpTypeSampler is placed after the last variable.
func buildTexturesShader(t *testing.T, textures []texture, lateSampler bool) texturesShader {
	t.Helper()
	var s texturesShader
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	float := b.AddTypeFloat(32)
	vec2 := b.AddTypeVector(float, 2)
	vec4 := b.AddTypeVector(float, 4)
	if lateSampler {
		s.sampler = b.AddTypeSampler()
	}
	s.image = b.AddTypeImage(float, spirv.Dim2D, false)
	s.sampledImage = b.AddTypeSampledImage(s.image)
	s.pointer = b.AddTypePointer(spirv.StorageClassUniformConstant, s.sampledImage)
	mainType := b.AddTypeFunction(void)
	zero := b.AddConstantFloat32(float, 0)
	coord := b.AddConstantComposite(vec2, zero, zero)

	for _, tex := range textures {
		v := b.AddVariable(s.pointer, spirv.StorageClassUniformConstant)
		b.AddDecorate(v, spirv.DecorationDescriptorSet, tex.set)
		if tex.binding >= 0 {
			b.AddDecorate(v, spirv.DecorationBinding, uint32(tex.binding))
		}
		s.textures = append(s.textures, v)
	}

	main := b.AddFunction(mainType, void, spirv.FunctionControlNone)
	b.AddLabel()
	for _, v := range s.textures {
		load := b.AddLoad(s.sampledImage, v)
		s.loads = append(s.loads, load)
		s.samples = append(s.samples, b.AddImageOp(spirv.OpImageSampleImplicitLod, vec4, load, coord))
	}
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelFragment, main, "main", s.textures)
	b.AddExecutionMode(main, spirv.ExecutionModeOriginUpperLeft)
	s.data = b.Build()

	if lateSampler {
		m := mustParse(t, s.data)
		insts, err := m.Instructions()
		if err != nil {
			t.Fatalf("Instructions: %v", err)
		}
		sampler := filter(insts, spirv.OpTypeSampler)[0]
		vars := filter(insts, spirv.OpVariable)
		var edits spirv.Edits
		edits.Remove(sampler.Pos, sampler.End())
		edits.InsertInstruction(vars[len(vars)-1].End(), sampler.Instruction)
		if err := edits.Apply(m); err != nil {
			t.Fatalf("moving OpTypeSampler: %v", err)
		}
		s.data = m.Bytes()
	}
	return s
}

// checkDeclaredBeforeUse fails when a global type or variable refers to an
// ID declared after it.
func checkDeclaredBeforeUse(t *testing.T, insts []spirv.Located) {
	t.Helper()
	declared := make(map[uint32]bool)
	use := func(inst spirv.Located, ids ...uint32) {
		for _, id := range ids {
			if !declared[id] {
				t.Errorf("%s at word %d refers to %%%d before its declaration", inst.Opcode, inst.Pos, id)
			}
		}
	}
	for _, inst := range insts {
		switch {
		case inst.Opcode == spirv.OpFunction:
			return
		case inst.Opcode == spirv.OpTypePointer:
			use(inst, inst.Words[2])
		case inst.Opcode == spirv.OpTypeSampledImage:
			use(inst, inst.Words[1])
		case inst.Opcode == spirv.OpTypeFunction:
			use(inst, inst.Words[1:]...)
		case inst.Opcode == spirv.OpVariable:
			use(inst, inst.Words[0])
			declared[inst.Words[1]] = true
		}
		switch {
		case inst.Opcode.IsTypeDeclaration():
			declared[inst.Words[0]] = true
		case inst.Opcode.IsConstant():
			declared[inst.Words[1]] = true
		}
	}
}
