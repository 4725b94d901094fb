package spirv

// Header is the first word of every instruction.
type Header struct {
	// WordCount includes the header word itself. It is never 0 in a valid
	// module.
	WordCount uint16
	Opcode    OpCode
}

// DecodeHeader splits an instruction's first word into word count and
// opcode.
func DecodeHeader(word uint32) Header {
	return Header{WordCount: uint16(word >> 16), Opcode: OpCode(word & 0xFFFF)}
}

// Encode packs the header back into a word.
func (h Header) Encode() uint32 {
	return uint32(h.WordCount)<<16 | uint32(h.Opcode)
}

// TypePointer is OpTypePointer.
type TypePointer struct {
	ResultID     uint32
	StorageClass StorageClass
	TypeID       uint32
}

// Variable is OpVariable.
type Variable struct {
	ResultTypeID uint32
	ResultID     uint32
	StorageClass StorageClass
	Initializer  *uint32
}

// Decorate is OpDecorate. Value holds the first extra operand when present.
type Decorate struct {
	TargetID   uint32
	Decoration Decoration
	Value      *uint32
}

// MemberDecorate is OpMemberDecorate.
type MemberDecorate struct {
	StructureTypeID uint32
	Member          uint32
	Decoration      Decoration
	Value           *uint32
}

// TypeImage is OpTypeImage.
type TypeImage struct {
	ResultID      uint32
	SampledTypeID uint32
	Dim           Dim
	Depth         uint32
	Arrayed       uint32
	MS            uint32
	Sampled       uint32
	ImageFormat   ImageFormat
}

// TypeSampledImage is OpTypeSampledImage.
type TypeSampledImage struct {
	ResultID    uint32
	ImageTypeID uint32
}

// Load is OpLoad.
type Load struct {
	ResultTypeID uint32
	ResultID     uint32
	PointerID    uint32
}

// TypeFunction is OpTypeFunction.
type TypeFunction struct {
	ResultID     uint32
	ReturnTypeID uint32
	Parameters   []uint32
}

// Function is OpFunction.
type Function struct {
	ResultTypeID   uint32
	ResultID       uint32
	Control        FunctionControl
	FunctionTypeID uint32
}

// FunctionParameter is OpFunctionParameter.
type FunctionParameter struct {
	ResultTypeID uint32
	ResultID     uint32
}

// FunctionCall is OpFunctionCall.
type FunctionCall struct {
	ResultTypeID uint32
	ResultID     uint32
	FunctionID   uint32
	Arguments    []uint32
}

// EntryPoint is OpEntryPoint. InterfaceOffset is the operand index of the
// first interface ID.
type EntryPoint struct {
	ExecutionModel  ExecutionModel
	FunctionID      uint32
	Name            string
	Interface       []uint32
	InterfaceOffset int
}

// need checks that an instruction has at least n operands.
func need(op OpCode, operands []uint32, n int) error {
	if len(operands) < n {
		return instructionError(ErrShortOperands, -1, op, "%s needs %d operands, got %d", op, n, len(operands))
	}
	return nil
}

// optional returns a pointer to operands[i] if present.
func optional(operands []uint32, i int) *uint32 {
	if i >= len(operands) {
		return nil
	}
	v := operands[i]
	return &v
}

// DecodeTypePointer decodes OpTypePointer operands.
func DecodeTypePointer(operands []uint32) (TypePointer, error) {
	if err := need(OpTypePointer, operands, 3); err != nil {
		return TypePointer{}, err
	}
	return TypePointer{
		ResultID:     operands[0],
		StorageClass: StorageClass(operands[1]),
		TypeID:       operands[2],
	}, nil
}

// DecodeVariable decodes OpVariable operands.
func DecodeVariable(operands []uint32) (Variable, error) {
	if err := need(OpVariable, operands, 3); err != nil {
		return Variable{}, err
	}
	return Variable{
		ResultTypeID: operands[0],
		ResultID:     operands[1],
		StorageClass: StorageClass(operands[2]),
		Initializer:  optional(operands, 3),
	}, nil
}

// DecodeDecorate decodes OpDecorate operands.
func DecodeDecorate(operands []uint32) (Decorate, error) {
	if err := need(OpDecorate, operands, 2); err != nil {
		return Decorate{}, err
	}
	return Decorate{
		TargetID:   operands[0],
		Decoration: Decoration(operands[1]),
		Value:      optional(operands, 2),
	}, nil
}

// DecodeMemberDecorate decodes OpMemberDecorate operands.
func DecodeMemberDecorate(operands []uint32) (MemberDecorate, error) {
	if err := need(OpMemberDecorate, operands, 3); err != nil {
		return MemberDecorate{}, err
	}
	return MemberDecorate{
		StructureTypeID: operands[0],
		Member:          operands[1],
		Decoration:      Decoration(operands[2]),
		Value:           optional(operands, 3),
	}, nil
}

// DecodeTypeImage decodes OpTypeImage operands. The optional access
// qualifier is ignored.
func DecodeTypeImage(operands []uint32) (TypeImage, error) {
	if err := need(OpTypeImage, operands, 8); err != nil {
		return TypeImage{}, err
	}
	return TypeImage{
		ResultID:      operands[0],
		SampledTypeID: operands[1],
		Dim:           Dim(operands[2]),
		Depth:         operands[3],
		Arrayed:       operands[4],
		MS:            operands[5],
		Sampled:       operands[6],
		ImageFormat:   ImageFormat(operands[7]),
	}, nil
}

// DecodeTypeSampledImage decodes OpTypeSampledImage operands.
func DecodeTypeSampledImage(operands []uint32) (TypeSampledImage, error) {
	if err := need(OpTypeSampledImage, operands, 2); err != nil {
		return TypeSampledImage{}, err
	}
	return TypeSampledImage{ResultID: operands[0], ImageTypeID: operands[1]}, nil
}

// DecodeLoad decodes OpLoad operands. Memory operands are ignored.
func DecodeLoad(operands []uint32) (Load, error) {
	if err := need(OpLoad, operands, 3); err != nil {
		return Load{}, err
	}
	return Load{ResultTypeID: operands[0], ResultID: operands[1], PointerID: operands[2]}, nil
}

// DecodeTypeFunction decodes OpTypeFunction operands.
func DecodeTypeFunction(operands []uint32) (TypeFunction, error) {
	if err := need(OpTypeFunction, operands, 2); err != nil {
		return TypeFunction{}, err
	}
	return TypeFunction{
		ResultID:     operands[0],
		ReturnTypeID: operands[1],
		Parameters:   append([]uint32(nil), operands[2:]...),
	}, nil
}

// DecodeFunction decodes OpFunction operands.
func DecodeFunction(operands []uint32) (Function, error) {
	if err := need(OpFunction, operands, 4); err != nil {
		return Function{}, err
	}
	return Function{
		ResultTypeID:   operands[0],
		ResultID:       operands[1],
		Control:        FunctionControl(operands[2]),
		FunctionTypeID: operands[3],
	}, nil
}

// DecodeFunctionParameter decodes OpFunctionParameter operands.
func DecodeFunctionParameter(operands []uint32) (FunctionParameter, error) {
	if err := need(OpFunctionParameter, operands, 2); err != nil {
		return FunctionParameter{}, err
	}
	return FunctionParameter{ResultTypeID: operands[0], ResultID: operands[1]}, nil
}

// DecodeFunctionCall decodes OpFunctionCall operands.
func DecodeFunctionCall(operands []uint32) (FunctionCall, error) {
	if err := need(OpFunctionCall, operands, 3); err != nil {
		return FunctionCall{}, err
	}
	return FunctionCall{
		ResultTypeID: operands[0],
		ResultID:     operands[1],
		FunctionID:   operands[2],
		Arguments:    append([]uint32(nil), operands[3:]...),
	}, nil
}

// DecodeEntryPoint decodes OpEntryPoint operands, skipping the literal name
// so that interface IDs are never confused with its bytes.
func DecodeEntryPoint(operands []uint32) (EntryPoint, error) {
	if err := need(OpEntryPoint, operands, 3); err != nil {
		return EntryPoint{}, err
	}
	name, n, err := DecodeLiteralString(operands[2:])
	if err != nil {
		return EntryPoint{}, err
	}
	offset := 2 + n
	return EntryPoint{
		ExecutionModel:  ExecutionModel(operands[0]),
		FunctionID:      operands[1],
		Name:            name,
		Interface:       append([]uint32(nil), operands[offset:]...),
		InterfaceOffset: offset,
	}, nil
}

// DecodeLiteralString decodes a NUL-terminated UTF-8 literal packed
// little-end first into words, as written by InstructionBuilder.AddString.
// It returns the string and the number of words it occupies.
func DecodeLiteralString(words []uint32) (string, int, error) {
	buf := make([]byte, 0, len(words)*4)
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return string(buf), i + 1, nil
			}
			buf = append(buf, c)
		}
	}
	return "", 0, instructionError(ErrShortOperands, -1, OpNop, "unterminated literal string")
}
