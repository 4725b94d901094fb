package spirv

import "fmt"

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// SPIR-V magic number and constants
const (
	MagicNumber = 0x07230203
	GeneratorID = 0x00000000 // Unregistered generator

	// HeaderWords is the number of words before the first instruction.
	HeaderWords = 5

	// BoundWord is the index of the ID bound in the header.
	BoundWord = 3
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes decoded, synthesized or named by this package.
const (
	OpNop                          OpCode = 0
	OpUndef                        OpCode = 1
	OpSourceContinued              OpCode = 2
	OpSource                       OpCode = 3
	OpSourceExtension              OpCode = 4
	OpName                         OpCode = 5
	OpMemberName                   OpCode = 6
	OpString                       OpCode = 7
	OpLine                         OpCode = 8
	OpExtension                    OpCode = 10
	OpExtInstImport                OpCode = 11
	OpExtInst                      OpCode = 12
	OpMemoryModel                  OpCode = 14
	OpEntryPoint                   OpCode = 15
	OpExecutionMode                OpCode = 16
	OpCapability                   OpCode = 17
	OpTypeVoid                     OpCode = 19
	OpTypeBool                     OpCode = 20
	OpTypeInt                      OpCode = 21
	OpTypeFloat                    OpCode = 22
	OpTypeVector                   OpCode = 23
	OpTypeMatrix                   OpCode = 24
	OpTypeImage                    OpCode = 25
	OpTypeSampler                  OpCode = 26
	OpTypeSampledImage             OpCode = 27
	OpTypeArray                    OpCode = 28
	OpTypeRuntimeArray             OpCode = 29
	OpTypeStruct                   OpCode = 30
	OpTypeOpaque                   OpCode = 31
	OpTypePointer                  OpCode = 32
	OpTypeFunction                 OpCode = 33
	OpTypeEvent                    OpCode = 34
	OpTypeDeviceEvent              OpCode = 35
	OpTypeReserveID                OpCode = 36
	OpTypeQueue                    OpCode = 37
	OpTypePipe                     OpCode = 38
	OpTypeForwardPointer           OpCode = 39
	OpConstantTrue                 OpCode = 41
	OpConstantFalse                OpCode = 42
	OpConstant                     OpCode = 43
	OpConstantComposite            OpCode = 44
	OpConstantSampler              OpCode = 45
	OpConstantNull                 OpCode = 46
	OpSpecConstantTrue             OpCode = 48
	OpSpecConstantFalse            OpCode = 49
	OpSpecConstant                 OpCode = 50
	OpSpecConstantComposite        OpCode = 51
	OpSpecConstantOp               OpCode = 52
	OpFunction                     OpCode = 54
	OpFunctionParameter            OpCode = 55
	OpFunctionEnd                  OpCode = 56
	OpFunctionCall                 OpCode = 57
	OpVariable                     OpCode = 59
	OpLoad                         OpCode = 61
	OpStore                        OpCode = 62
	OpAccessChain                  OpCode = 65
	OpDecorate                     OpCode = 71
	OpMemberDecorate               OpCode = 72
	OpCompositeConstruct           OpCode = 80
	OpCompositeExtract             OpCode = 81
	OpSampledImage                 OpCode = 86
	OpImageSampleImplicitLod       OpCode = 87
	OpImageSampleExplicitLod       OpCode = 88
	OpImageSampleDrefImplicitLod   OpCode = 89
	OpImageSampleDrefExplicitLod   OpCode = 90
	OpImageSampleProjImplicitLod   OpCode = 91
	OpImageSampleProjExplicitLod   OpCode = 92
	OpImageSampleProjDrefImplicit  OpCode = 93
	OpImageSampleProjDrefExplicit  OpCode = 94
	OpImageFetch                   OpCode = 95
	OpImageGather                  OpCode = 96
	OpImageDrefGather              OpCode = 97
	OpImageRead                    OpCode = 98
	OpImageWrite                   OpCode = 99
	OpImage                        OpCode = 100
	OpImageQuerySizeLod            OpCode = 103
	OpImageQuerySize               OpCode = 104
	OpImageQueryLod                OpCode = 105
	OpImageQueryLevels             OpCode = 106
	OpImageQuerySamples            OpCode = 107
	OpFAdd                         OpCode = 129
	OpFMul                         OpCode = 133
	OpLabel                        OpCode = 248
	OpBranch                       OpCode = 249
	OpReturn                       OpCode = 253
	OpReturnValue                  OpCode = 254
	OpImageSparseSampleImplicitLod OpCode = 305
	OpImageSparseFetch             OpCode = 313
	OpImageSparseDrefGather        OpCode = 315
	OpNoLine                       OpCode = 317
	OpTypePipeStorage              OpCode = 322
	OpTypeNamedBarrier             OpCode = 327
	OpModuleProcessed              OpCode = 330
	OpTypeCooperativeMatrixKHR     OpCode = 4456
	OpTypeRayQueryKHR              OpCode = 4472
	OpImageSampleWeightedQCOM      OpCode = 4480
	OpImageBoxFilterQCOM           OpCode = 4481
	OpImageBlockMatchSSDQCOM       OpCode = 4482
	OpImageBlockMatchSADQCOM       OpCode = 4483
	OpImageBlockMatchWindowSSDQCOM OpCode = 4500
	OpImageBlockMatchWindowSADQCOM OpCode = 4501
	OpImageBlockMatchGatherSSDQCOM OpCode = 4502
	OpImageBlockMatchGatherSADQCOM OpCode = 4503
	OpImageSampleFootprintNV       OpCode = 5283
	OpTypeHitObjectNV              OpCode = 5281
	OpTypeCooperativeMatrixNV      OpCode = 5358
	OpTypeBufferSurfaceINTEL       OpCode = 6086
	OpTypeStructContinuedINTEL     OpCode = 6090
)

var opcodeNames = map[OpCode]string{
	OpNop: "OpNop", OpUndef: "OpUndef", OpSourceContinued: "OpSourceContinued",
	OpSource: "OpSource", OpSourceExtension: "OpSourceExtension", OpName: "OpName",
	OpMemberName: "OpMemberName", OpString: "OpString", OpLine: "OpLine",
	OpExtension: "OpExtension", OpExtInstImport: "OpExtInstImport", OpExtInst: "OpExtInst",
	OpMemoryModel: "OpMemoryModel", OpEntryPoint: "OpEntryPoint",
	OpExecutionMode: "OpExecutionMode", OpCapability: "OpCapability",
	OpTypeVoid: "OpTypeVoid", OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector", OpTypeMatrix: "OpTypeMatrix",
	OpTypeImage: "OpTypeImage", OpTypeSampler: "OpTypeSampler",
	OpTypeSampledImage: "OpTypeSampledImage", OpTypeArray: "OpTypeArray",
	OpTypeRuntimeArray: "OpTypeRuntimeArray", OpTypeStruct: "OpTypeStruct",
	OpTypeOpaque: "OpTypeOpaque", OpTypePointer: "OpTypePointer",
	OpTypeFunction: "OpTypeFunction", OpTypeForwardPointer: "OpTypeForwardPointer",
	OpConstantTrue: "OpConstantTrue", OpConstantFalse: "OpConstantFalse",
	OpConstant: "OpConstant", OpConstantComposite: "OpConstantComposite",
	OpConstantSampler: "OpConstantSampler", OpConstantNull: "OpConstantNull",
	OpSpecConstantTrue: "OpSpecConstantTrue", OpSpecConstantFalse: "OpSpecConstantFalse",
	OpSpecConstant: "OpSpecConstant", OpSpecConstantComposite: "OpSpecConstantComposite",
	OpSpecConstantOp: "OpSpecConstantOp", OpFunction: "OpFunction",
	OpFunctionParameter: "OpFunctionParameter", OpFunctionEnd: "OpFunctionEnd",
	OpFunctionCall: "OpFunctionCall", OpVariable: "OpVariable", OpLoad: "OpLoad",
	OpStore: "OpStore", OpAccessChain: "OpAccessChain", OpDecorate: "OpDecorate",
	OpMemberDecorate: "OpMemberDecorate", OpCompositeConstruct: "OpCompositeConstruct",
	OpCompositeExtract: "OpCompositeExtract", OpSampledImage: "OpSampledImage",
	OpImageSampleImplicitLod: "OpImageSampleImplicitLod",
	OpImageSampleExplicitLod: "OpImageSampleExplicitLod",
	OpImageSampleDrefImplicitLod: "OpImageSampleDrefImplicitLod",
	OpImageSampleDrefExplicitLod: "OpImageSampleDrefExplicitLod",
	OpImageSampleProjImplicitLod: "OpImageSampleProjImplicitLod",
	OpImageSampleProjExplicitLod: "OpImageSampleProjExplicitLod",
	OpImageSampleProjDrefImplicit: "OpImageSampleProjDrefImplicitLod",
	OpImageSampleProjDrefExplicit: "OpImageSampleProjDrefExplicitLod",
	OpImageFetch: "OpImageFetch", OpImageGather: "OpImageGather",
	OpImageDrefGather: "OpImageDrefGather", OpImageRead: "OpImageRead",
	OpImageWrite: "OpImageWrite", OpImage: "OpImage",
	OpImageQuerySizeLod: "OpImageQuerySizeLod", OpImageQuerySize: "OpImageQuerySize",
	OpImageQueryLod: "OpImageQueryLod", OpImageQueryLevels: "OpImageQueryLevels",
	OpImageQuerySamples: "OpImageQuerySamples", OpFAdd: "OpFAdd", OpFMul: "OpFMul",
	OpLabel: "OpLabel", OpBranch: "OpBranch", OpReturn: "OpReturn",
	OpReturnValue: "OpReturnValue", OpNoLine: "OpNoLine",
	OpModuleProcessed: "OpModuleProcessed",
	OpImageSampleFootprintNV: "OpImageSampleFootprintNV",
}

// String returns the opcode's assembly name, or "Op<n>" for opcodes this
// package does not name.
func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op%d", uint16(op))
}

// IsDebugInfo reports whether op belongs to the debug-information section
// (source text, names, strings, line markers and processing notes).
func (op OpCode) IsDebugInfo() bool {
	switch op {
	case OpSourceContinued, OpSource, OpSourceExtension, OpName, OpMemberName,
		OpString, OpLine, OpNoLine, OpModuleProcessed:
		return true
	}
	return false
}

// IsTypeDeclaration reports whether op declares a type, including the
// vendor type extensions.
func (op OpCode) IsTypeDeclaration() bool {
	if op >= OpTypeVoid && op <= OpTypeForwardPointer {
		return true
	}
	switch op {
	case OpTypePipeStorage, OpTypeNamedBarrier, OpTypeCooperativeMatrixKHR,
		OpTypeRayQueryKHR, OpTypeHitObjectNV, OpTypeCooperativeMatrixNV,
		OpTypeBufferSurfaceINTEL, OpTypeStructContinuedINTEL:
		return true
	}
	return false
}

// IsConstant reports whether op declares a constant or specialization
// constant.
func (op OpCode) IsConstant() bool {
	return op >= OpConstantTrue && op <= OpSpecConstantOp
}

// IsSamplingOp reports whether op consumes a sampled image as its third
// operand (result type, result, sampled image, ...).
//
// OpImageFetch and OpImageSparseFetch are excluded: they read an image, not
// a sampled image.
func (op OpCode) IsSamplingOp() bool {
	switch {
	case op >= OpImageSampleImplicitLod && op <= OpImageDrefGather:
		return op != OpImageFetch
	case op == OpImage, op == OpImageQueryLod:
		return true
	case op >= OpImageSparseSampleImplicitLod && op <= OpImageSparseDrefGather:
		return op != OpImageSparseFetch
	case op >= OpImageSampleWeightedQCOM && op <= OpImageBlockMatchSADQCOM,
		op >= OpImageBlockMatchWindowSSDQCOM && op <= OpImageBlockMatchGatherSADQCOM:
		return true
	case op == OpImageSampleFootprintNV:
		return true
	}
	return false
}

// SampledImageOperand is the operand index of the sampled image consumed
// by a sampling op.
const SampledImageOperand = 2

// Decoration represents a SPIR-V decoration.
type Decoration uint32

// Common decorations
const (
	DecorationRelaxedPrecision Decoration = 0
	DecorationBlock            Decoration = 2
	DecorationBufferBlock      Decoration = 3
	DecorationRowMajor         Decoration = 4
	DecorationColMajor         Decoration = 5
	DecorationArrayStride      Decoration = 6
	DecorationMatrixStride     Decoration = 7
	DecorationBuiltIn          Decoration = 11
	DecorationNonWritable      Decoration = 24
	DecorationNonReadable      Decoration = 25
	DecorationLocation         Decoration = 30
	DecorationBinding          Decoration = 33
	DecorationDescriptorSet    Decoration = 34
	DecorationOffset           Decoration = 35
)

var decorationNames = map[Decoration]string{
	DecorationRelaxedPrecision: "RelaxedPrecision", DecorationBlock: "Block",
	DecorationBufferBlock: "BufferBlock", DecorationRowMajor: "RowMajor",
	DecorationColMajor: "ColMajor", DecorationArrayStride: "ArrayStride",
	DecorationMatrixStride: "MatrixStride", DecorationBuiltIn: "BuiltIn",
	DecorationNonWritable: "NonWritable", DecorationNonReadable: "NonReadable",
	DecorationLocation: "Location", DecorationBinding: "Binding",
	DecorationDescriptorSet: "DescriptorSet", DecorationOffset: "Offset",
}

func (d Decoration) String() string {
	if name, ok := decorationNames[d]; ok {
		return name
	}
	return fmt.Sprintf("%d", uint32(d))
}

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

// Storage classes
const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassGeneric         StorageClass = 8
	StorageClassPushConstant    StorageClass = 9
	StorageClassAtomicCounter   StorageClass = 10
	StorageClassImage           StorageClass = 11
	StorageClassStorageBuffer   StorageClass = 12
)

var storageClassNames = [...]string{
	"UniformConstant", "Input", "Uniform", "Output", "Workgroup",
	"CrossWorkgroup", "Private", "Function", "Generic", "PushConstant",
	"AtomicCounter", "Image", "StorageBuffer",
}

func (s StorageClass) String() string {
	if int(s) < len(storageClassNames) {
		return storageClassNames[s]
	}
	return fmt.Sprintf("%d", uint32(s))
}

// Capability represents a SPIR-V capability.
type Capability uint32

// Common capabilities
const (
	CapabilityMatrix Capability = 0
	CapabilityShader Capability = 1
)

// AddressingModel represents a SPIR-V addressing model.
type AddressingModel uint32

// AddressingModelLogical is the only model used by shaders.
const AddressingModelLogical AddressingModel = 0

// MemoryModel represents a SPIR-V memory model.
type MemoryModel uint32

// Memory models
const (
	MemoryModelSimple  MemoryModel = 0
	MemoryModelGLSL450 MemoryModel = 1
	MemoryModelVulkan  MemoryModel = 3
)

// ExecutionModel represents a shader stage.
type ExecutionModel uint32

// Execution models
const (
	ExecutionModelVertex    ExecutionModel = 0
	ExecutionModelFragment  ExecutionModel = 4
	ExecutionModelGLCompute ExecutionModel = 5
)

// ExecutionMode represents a SPIR-V execution mode.
type ExecutionMode uint32

// Execution modes
const (
	ExecutionModeOriginUpperLeft ExecutionMode = 7
	ExecutionModeLocalSize       ExecutionMode = 17
)

// Dim is the dimensionality of an image type.
type Dim uint32

// Image dimensions
const (
	Dim1D   Dim = 0
	Dim2D   Dim = 1
	Dim3D   Dim = 2
	DimCube Dim = 3
)

// ImageFormat is the texel format of a storage image; sampled images use
// ImageFormatUnknown.
type ImageFormat uint32

// ImageFormatUnknown is the format of every sampled image.
const ImageFormatUnknown ImageFormat = 0

// FunctionControl is the control mask of OpFunction.
type FunctionControl uint32

// FunctionControlNone requests no special handling.
const FunctionControlNone FunctionControl = 0

// SourceLanguage identifies the language named by OpSource.
type SourceLanguage uint32

// Source languages
const (
	SourceLanguageUnknown SourceLanguage = 0
	SourceLanguageGLSL    SourceLanguage = 2
	SourceLanguageHLSL    SourceLanguage = 5
	SourceLanguageWGSL    SourceLanguage = 10
)
