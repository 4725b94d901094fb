package spvpass_test

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/gogpu/spvpass"
	"github.com/gogpu/spvpass/spirv"
	"github.com/gogpu/spvpass/transform"
)

// buildShader returns a fragment shader with a push-constant block, a
// combined image sampler at 0:1, debug names and a RelaxedPrecision
// decoration.
func buildShader() []byte {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	float := b.AddTypeFloat(32)
	vec2 := b.AddTypeVector(float, 2)
	vec4 := b.AddTypeVector(float, 4)
	image := b.AddTypeImage(float, spirv.Dim2D, false)
	sampled := b.AddTypeSampledImage(image)
	texPtr := b.AddTypePointer(spirv.StorageClassUniformConstant, sampled)
	block := b.AddTypeStruct(vec4)
	blockPtr := b.AddTypePointer(spirv.StorageClassPushConstant, block)
	mainType := b.AddTypeFunction(void)
	zero := b.AddConstantFloat32(float, 0)
	coord := b.AddConstantComposite(vec2, zero, zero)

	constants := b.AddVariable(blockPtr, spirv.StorageClassPushConstant)
	tex := b.AddVariable(texPtr, spirv.StorageClassUniformConstant)
	b.AddName(tex, "tex")
	b.AddName(constants, "constants")
	b.AddDecorate(block, spirv.DecorationBlock)
	b.AddMemberDecorate(block, 0, spirv.DecorationOffset, 0)
	b.AddDecorate(tex, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(tex, spirv.DecorationBinding, 1)
	b.AddDecorate(vec4, spirv.DecorationRelaxedPrecision)

	main := b.AddFunction(mainType, void, spirv.FunctionControlNone)
	b.AddName(main, "main")
	b.AddLabel()
	loaded := b.AddLoad(sampled, tex)
	b.AddImageOp(spirv.OpImageSampleImplicitLod, vec4, loaded, coord)
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelFragment, main, "main", []uint32{tex})
	b.AddExecutionMode(main, spirv.ExecutionModeOriginUpperLeft)
	return b.Build()
}

func TestTransform_AllPasses(t *testing.T) {
	input := buildShader()
	original := slices.Clone(input)

	opts := spvpass.DefaultOptions()
	opts.RemoveDecorations = []spirv.Decoration{spirv.DecorationRelaxedPrecision}
	opts.PushConstant = &transform.Binding{DescriptorSet: 0, Binding: 0}
	opts.SeparateSamplers = true
	var remapCalls int
	opts.Remap = func(b transform.Binding) transform.Binding {
		remapCalls++
		return transform.Binding{DescriptorSet: b.DescriptorSet + 1, Binding: b.Binding}
	}

	result, err := spvpass.Transform(input, opts)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !bytes.Equal(input, original) {
		t.Error("Transform modified its input")
	}

	// push constants, texture and sampler
	if remapCalls != 3 {
		t.Errorf("Remap called %d times, want 3", remapCalls)
	}
	want := []transform.ImageSamplerPair{{
		Image:   transform.Binding{DescriptorSet: 1, Binding: 1},
		Sampler: transform.Binding{DescriptorSet: 1, Binding: 2},
	}}
	if !slices.Equal(result.Pairs, want) {
		t.Errorf("Pairs = %v, want %v", result.Pairs, want)
	}

	m, err := spirv.ParseModule(result.Binary)
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	insts, err := m.Instructions()
	if err != nil {
		t.Fatalf("Instructions: %v", err)
	}
	for _, inst := range insts {
		switch {
		case inst.Opcode.IsDebugInfo():
			t.Errorf("debug instruction %s survived", inst.Opcode)
		case inst.Opcode == spirv.OpDecorate && spirv.Decoration(inst.Words[1]) == spirv.DecorationRelaxedPrecision:
			t.Error("RelaxedPrecision survived")
		case inst.Opcode == spirv.OpTypePointer && spirv.StorageClass(inst.Words[1]) == spirv.StorageClassPushConstant:
			t.Error("PushConstant pointer survived")
		}
	}
}

func TestTransform_NoPasses(t *testing.T) {
	input := buildShader()
	result, err := spvpass.Transform(input, spvpass.Options{})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if !bytes.Equal(result.Binary, input) {
		t.Error("empty pipeline changed the module")
	}
	if result.Pairs != nil {
		t.Errorf("Pairs = %v, want nil", result.Pairs)
	}
}

func TestTransform_ParseError(t *testing.T) {
	_, err := spvpass.Transform([]byte{1, 2, 3}, spvpass.DefaultOptions())
	var serr *spirv.Error
	if !errors.As(err, &serr) || serr.Kind != spirv.ErrUnaligned {
		t.Fatalf("err = %v, want Unaligned", err)
	}
}

func TestTransform_SamplerConflict(t *testing.T) {
	opts := spvpass.Options{
		SeparateSamplers: true,
		SamplerBinding: func(image transform.Binding) transform.Binding {
			return image
		},
	}
	_, err := spvpass.Transform(buildShader(), opts)
	var conflict *transform.BindingConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want *BindingConflictError", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := spvpass.DefaultOptions()
	if !opts.StripDebugInfo {
		t.Error("default options should strip debug info")
	}
	if opts.SeparateSamplers || opts.PushConstant != nil || opts.Remap != nil || len(opts.RemoveDecorations) != 0 {
		t.Errorf("default options enable more than debug stripping: %+v", opts)
	}
}

func ExampleTransform() {
	opts := spvpass.DefaultOptions()
	opts.SeparateSamplers = true
	opts.PushConstant = &transform.Binding{DescriptorSet: 0, Binding: 0}

	result, err := spvpass.Transform(buildShader(), opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range result.Pairs {
		fmt.Println(p.Image, "->", p.Sampler)
	}
	// Output: 0:1 -> 0:2
}
