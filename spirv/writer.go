package spirv

import (
	"encoding/binary"
	"math"
)

// Instruction represents a SPIR-V instruction.
type Instruction struct {
	Opcode OpCode
	Words  []uint32 // result type ID, result ID, operands
}

// NewInstruction creates an instruction from its operand words.
func NewInstruction(opcode OpCode, words ...uint32) Instruction {
	return Instruction{Opcode: opcode, Words: words}
}

// InstructionBuilder builds SPIR-V instructions.
type InstructionBuilder struct {
	words []uint32
}

// NewInstructionBuilder creates a new instruction builder.
func NewInstructionBuilder() *InstructionBuilder {
	return &InstructionBuilder{
		words: make([]uint32, 0, 8),
	}
}

// AddWord adds a word to the instruction.
func (b *InstructionBuilder) AddWord(word uint32) {
	b.words = append(b.words, word)
}

// AddWords adds several words to the instruction.
func (b *InstructionBuilder) AddWords(words ...uint32) {
	b.words = append(b.words, words...)
}

// AddString adds a null-terminated UTF-8 string.
func (b *InstructionBuilder) AddString(s string) {
	bytes := []byte(s)
	// Add null terminator if not present
	if len(bytes) == 0 || bytes[len(bytes)-1] != 0 {
		bytes = append(bytes, 0)
	}

	// Pad to word boundary
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}

	for i := 0; i < len(bytes); i += 4 {
		b.words = append(b.words, binary.LittleEndian.Uint32(bytes[i:]))
	}
}

// Build builds the instruction with the given opcode.
func (b *InstructionBuilder) Build(opcode OpCode) Instruction {
	return Instruction{
		Opcode: opcode,
		Words:  b.words,
	}
}

// Header returns the instruction's encoded header.
func (i Instruction) Header() Header {
	return Header{WordCount: uint16(len(i.Words) + 1), Opcode: i.Opcode}
}

// Encode encodes the instruction to binary.
func (i Instruction) Encode() []uint32 {
	result := make([]uint32, 0, len(i.Words)+1)
	result = append(result, i.Header().Encode())
	result = append(result, i.Words...)
	return result
}

// ModuleBuilder builds complete SPIR-V modules section by section.
type ModuleBuilder struct {
	// Header
	version   Version
	generator uint32
	bound     uint32 // max ID + 1
	schema    uint32

	// Sections (ordered per SPIR-V spec)
	capabilities   []Instruction
	extInstImports []Instruction
	memoryModel    *Instruction
	entryPoints    []Instruction
	executionModes []Instruction
	debugStrings   []Instruction // OpString, OpSource*
	debugNames     []Instruction // OpName, OpMemberName
	debugModule    []Instruction // OpModuleProcessed
	annotations    []Instruction // OpDecorate, OpMemberDecorate
	types          []Instruction // OpType*, OpConstant*
	globalVars     []Instruction // OpVariable (global)
	functions      []Instruction // OpFunction...OpFunctionEnd

	// ID allocation
	nextID uint32
}

// NewModuleBuilder creates a new SPIR-V module builder.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{
		version:   version,
		generator: GeneratorID,
		nextID:    1,
	}
}

// AllocID allocates a new SPIR-V ID.
func (b *ModuleBuilder) AllocID() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

// AddCapability adds a capability.
func (b *ModuleBuilder) AddCapability(capability Capability) {
	b.capabilities = append(b.capabilities, NewInstruction(OpCapability, uint32(capability)))
}

// AddExtInstImport imports an extended instruction set.
func (b *ModuleBuilder) AddExtInstImport(name string) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(name)
	b.extInstImports = append(b.extInstImports, builder.Build(OpExtInstImport))
	return id
}

// SetMemoryModel sets the memory model.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	inst := NewInstruction(OpMemoryModel, uint32(addressing), uint32(memory))
	b.memoryModel = &inst
}

// AddEntryPoint adds an entry point.
func (b *ModuleBuilder) AddEntryPoint(execModel ExecutionModel, funcID uint32, name string, interfaces []uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(execModel))
	builder.AddWord(funcID)
	builder.AddString(name)
	builder.AddWords(interfaces...)
	b.entryPoints = append(b.entryPoints, builder.Build(OpEntryPoint))
}

// AddExecutionMode adds an execution mode.
func (b *ModuleBuilder) AddExecutionMode(entryPoint uint32, mode ExecutionMode, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(entryPoint)
	builder.AddWord(uint32(mode))
	builder.AddWords(params...)
	b.executionModes = append(b.executionModes, builder.Build(OpExecutionMode))
}

// AddString adds a debug string.
func (b *ModuleBuilder) AddString(text string) uint32 {
	id := b.AllocID()
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(text)
	b.debugStrings = append(b.debugStrings, builder.Build(OpString))
	return id
}

// AddSource records the source language, optionally naming a file declared
// with AddString (0 for none) and carrying source text.
func (b *ModuleBuilder) AddSource(lang SourceLanguage, version uint32, file uint32, text string) {
	builder := NewInstructionBuilder()
	builder.AddWord(uint32(lang))
	builder.AddWord(version)
	if file != 0 {
		builder.AddWord(file)
		if text != "" {
			builder.AddString(text)
		}
	}
	b.debugStrings = append(b.debugStrings, builder.Build(OpSource))
}

// AddSourceContinued continues the text of the preceding OpSource.
func (b *ModuleBuilder) AddSourceContinued(text string) {
	builder := NewInstructionBuilder()
	builder.AddString(text)
	b.debugStrings = append(b.debugStrings, builder.Build(OpSourceContinued))
}

// AddSourceExtension records a source-language extension.
func (b *ModuleBuilder) AddSourceExtension(name string) {
	builder := NewInstructionBuilder()
	builder.AddString(name)
	b.debugStrings = append(b.debugStrings, builder.Build(OpSourceExtension))
}

// AddName adds a debug name.
func (b *ModuleBuilder) AddName(id uint32, name string) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddString(name)
	b.debugNames = append(b.debugNames, builder.Build(OpName))
}

// AddMemberName adds a debug member name.
func (b *ModuleBuilder) AddMemberName(structID, member uint32, name string) {
	builder := NewInstructionBuilder()
	builder.AddWord(structID)
	builder.AddWord(member)
	builder.AddString(name)
	b.debugNames = append(b.debugNames, builder.Build(OpMemberName))
}

// AddModuleProcessed records a processing step applied to the module.
func (b *ModuleBuilder) AddModuleProcessed(process string) {
	builder := NewInstructionBuilder()
	builder.AddString(process)
	b.debugModule = append(b.debugModule, builder.Build(OpModuleProcessed))
}

// AddDecorate adds a decoration.
func (b *ModuleBuilder) AddDecorate(id uint32, decoration Decoration, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(id)
	builder.AddWord(uint32(decoration))
	builder.AddWords(params...)
	b.annotations = append(b.annotations, builder.Build(OpDecorate))
}

// AddMemberDecorate adds a member decoration.
func (b *ModuleBuilder) AddMemberDecorate(structID, member uint32, decoration Decoration, params ...uint32) {
	builder := NewInstructionBuilder()
	builder.AddWord(structID)
	builder.AddWord(member)
	builder.AddWord(uint32(decoration))
	builder.AddWords(params...)
	b.annotations = append(b.annotations, builder.Build(OpMemberDecorate))
}

// addType appends a type instruction whose first operand is a fresh ID.
func (b *ModuleBuilder) addType(opcode OpCode, operands ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, NewInstruction(opcode, append([]uint32{id}, operands...)...))
	return id
}

// AddTypeVoid adds OpTypeVoid.
func (b *ModuleBuilder) AddTypeVoid() uint32 {
	return b.addType(OpTypeVoid)
}

// AddTypeFloat adds OpTypeFloat.
func (b *ModuleBuilder) AddTypeFloat(width uint32) uint32 {
	return b.addType(OpTypeFloat, width)
}

// AddTypeInt adds OpTypeInt.
func (b *ModuleBuilder) AddTypeInt(width uint32, signed bool) uint32 {
	var signedness uint32
	if signed {
		signedness = 1
	}
	return b.addType(OpTypeInt, width, signedness)
}

// AddTypeVector adds OpTypeVector.
func (b *ModuleBuilder) AddTypeVector(componentType uint32, count uint32) uint32 {
	return b.addType(OpTypeVector, componentType, count)
}

// AddTypeStruct adds OpTypeStruct.
func (b *ModuleBuilder) AddTypeStruct(memberTypes ...uint32) uint32 {
	return b.addType(OpTypeStruct, memberTypes...)
}

// AddTypeArray adds OpTypeArray. length is a constant ID.
func (b *ModuleBuilder) AddTypeArray(elementType uint32, length uint32) uint32 {
	return b.addType(OpTypeArray, elementType, length)
}

// AddTypeImage adds a sampled (Sampled=1), non-arrayed, single-sample
// OpTypeImage of unknown format.
func (b *ModuleBuilder) AddTypeImage(sampledType uint32, dim Dim, depth bool) uint32 {
	var d uint32
	if depth {
		d = 1
	}
	return b.addType(OpTypeImage, sampledType, uint32(dim), d, 0, 0, 1, uint32(ImageFormatUnknown))
}

// AddTypeSampler adds OpTypeSampler.
func (b *ModuleBuilder) AddTypeSampler() uint32 {
	return b.addType(OpTypeSampler)
}

// AddTypeSampledImage adds OpTypeSampledImage.
func (b *ModuleBuilder) AddTypeSampledImage(imageType uint32) uint32 {
	return b.addType(OpTypeSampledImage, imageType)
}

// AddTypePointer adds OpTypePointer.
func (b *ModuleBuilder) AddTypePointer(storageClass StorageClass, baseType uint32) uint32 {
	return b.addType(OpTypePointer, uint32(storageClass), baseType)
}

// AddTypeFunction adds OpTypeFunction.
func (b *ModuleBuilder) AddTypeFunction(returnType uint32, paramTypes ...uint32) uint32 {
	return b.addType(OpTypeFunction, append([]uint32{returnType}, paramTypes...)...)
}

// AddConstant adds OpConstant.
func (b *ModuleBuilder) AddConstant(typeID uint32, values ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, NewInstruction(OpConstant, append([]uint32{typeID, id}, values...)...))
	return id
}

// AddConstantFloat32 adds a 32-bit float constant.
func (b *ModuleBuilder) AddConstantFloat32(typeID uint32, value float32) uint32 {
	return b.AddConstant(typeID, math.Float32bits(value))
}

// AddConstantComposite adds OpConstantComposite.
func (b *ModuleBuilder) AddConstantComposite(typeID uint32, constituents ...uint32) uint32 {
	id := b.AllocID()
	b.types = append(b.types, NewInstruction(OpConstantComposite, append([]uint32{typeID, id}, constituents...)...))
	return id
}

// AddVariable adds a global OpVariable.
func (b *ModuleBuilder) AddVariable(pointerType uint32, storageClass StorageClass) uint32 {
	id := b.AllocID()
	b.globalVars = append(b.globalVars, NewInstruction(OpVariable, pointerType, id, uint32(storageClass)))
	return id
}

// AddFunction adds a function definition.
func (b *ModuleBuilder) AddFunction(funcType uint32, returnType uint32, control FunctionControl) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpFunction, returnType, id, uint32(control), funcType))
	return id
}

// AddFunctionParameter adds a function parameter.
func (b *ModuleBuilder) AddFunctionParameter(typeID uint32) uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpFunctionParameter, typeID, id))
	return id
}

// AddLabel adds a label.
func (b *ModuleBuilder) AddLabel() uint32 {
	id := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpLabel, id))
	return id
}

// AddLine adds an OpLine marker inside the current function.
func (b *ModuleBuilder) AddLine(file, line, column uint32) {
	b.functions = append(b.functions, NewInstruction(OpLine, file, line, column))
}

// AddNoLine ends the scope of the preceding OpLine.
func (b *ModuleBuilder) AddNoLine() {
	b.functions = append(b.functions, NewInstruction(OpNoLine))
}

// AddReturn adds OpReturn.
func (b *ModuleBuilder) AddReturn() {
	b.functions = append(b.functions, NewInstruction(OpReturn))
}

// AddReturnValue adds OpReturnValue.
func (b *ModuleBuilder) AddReturnValue(valueID uint32) {
	b.functions = append(b.functions, NewInstruction(OpReturnValue, valueID))
}

// AddFunctionEnd adds OpFunctionEnd.
func (b *ModuleBuilder) AddFunctionEnd() {
	b.functions = append(b.functions, NewInstruction(OpFunctionEnd))
}

// AddFunctionCall adds OpFunctionCall.
func (b *ModuleBuilder) AddFunctionCall(resultType uint32, function uint32, args ...uint32) uint32 {
	resultID := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpFunctionCall, append([]uint32{resultType, resultID, function}, args...)...))
	return resultID
}

// AddLoad adds OpLoad.
func (b *ModuleBuilder) AddLoad(resultType uint32, pointer uint32) uint32 {
	resultID := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpLoad, resultType, resultID, pointer))
	return resultID
}

// AddStore adds OpStore.
func (b *ModuleBuilder) AddStore(pointer uint32, value uint32) {
	b.functions = append(b.functions, NewInstruction(OpStore, pointer, value))
}

// AddAccessChain adds OpAccessChain.
func (b *ModuleBuilder) AddAccessChain(resultType uint32, base uint32, indices ...uint32) uint32 {
	resultID := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpAccessChain, append([]uint32{resultType, resultID, base}, indices...)...))
	return resultID
}

// AddSampledImage adds OpSampledImage combining an image and a sampler.
func (b *ModuleBuilder) AddSampledImage(resultType uint32, image uint32, sampler uint32) uint32 {
	resultID := b.AllocID()
	b.functions = append(b.functions, NewInstruction(OpSampledImage, resultType, resultID, image, sampler))
	return resultID
}

// AddImageOp adds an image instruction shaped
// (result type, result, sampled image, operands...), such as
// OpImageSampleImplicitLod or OpImage.
func (b *ModuleBuilder) AddImageOp(opcode OpCode, resultType uint32, sampledImage uint32, operands ...uint32) uint32 {
	resultID := b.AllocID()
	b.functions = append(b.functions, NewInstruction(opcode, append([]uint32{resultType, resultID, sampledImage}, operands...)...))
	return resultID
}

// Build generates the final SPIR-V binary.
func (b *ModuleBuilder) Build() []byte {
	words := b.BuildWords()
	buffer := make([]byte, len(words)*4)
	for i, word := range words {
		binary.LittleEndian.PutUint32(buffer[i*4:], word)
	}
	return buffer
}

// BuildWords generates the final module as words.
func (b *ModuleBuilder) BuildWords() []uint32 {
	// Update bound to max ID
	b.bound = b.nextID

	words := make([]uint32, 0, 64)
	words = append(words, MagicNumber, versionToWord(b.version), b.generator, b.bound, b.schema)

	// Write sections in order
	words = appendInstructions(words, b.capabilities)
	words = appendInstructions(words, b.extInstImports)
	if b.memoryModel != nil {
		words = append(words, b.memoryModel.Encode()...)
	}
	words = appendInstructions(words, b.entryPoints)
	words = appendInstructions(words, b.executionModes)
	words = appendInstructions(words, b.debugStrings)
	words = appendInstructions(words, b.debugNames)
	words = appendInstructions(words, b.debugModule)
	words = appendInstructions(words, b.annotations)
	words = appendInstructions(words, b.types)
	words = appendInstructions(words, b.globalVars)
	return appendInstructions(words, b.functions)
}

// appendInstructions encodes instructions onto words.
func appendInstructions(words []uint32, instructions []Instruction) []uint32 {
	for _, inst := range instructions {
		words = append(words, inst.Encode()...)
	}
	return words
}

// versionToWord converts Version to SPIR-V word format.
func versionToWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}
