package spirv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var dimNames = map[Dim]string{
	Dim1D: "1D", Dim2D: "2D", Dim3D: "3D", DimCube: "Cube", 4: "Rect", 5: "Buffer", 6: "SubpassData",
}

var executionModelNames = map[ExecutionModel]string{
	ExecutionModelVertex: "Vertex", 1: "TessellationControl", 2: "TessellationEvaluation",
	3: "Geometry", ExecutionModelFragment: "Fragment", ExecutionModelGLCompute: "GLCompute",
}

// Disassemble writes a textual listing of m in spvasm-like syntax. Opcodes
// without a dedicated layout fall back to printing their operands as IDs.
func Disassemble(w io.Writer, m *Module) error {
	out := bufio.NewWriter(w)
	v := m.Version()
	fmt.Fprintf(out, "; SPIR-V\n")
	fmt.Fprintf(out, "; Version: %d.%d\n", v.Major, v.Minor)
	fmt.Fprintf(out, "; Generator: 0x%08X\n", m.words[2])
	fmt.Fprintf(out, "; Bound: %d\n", m.Bound())
	fmt.Fprintf(out, "; Schema: %d\n\n", m.words[4])

	err := m.Scan(func(pos int, hdr Header, ops []uint32) ControlFlow {
		fmt.Fprintln(out, formatInstruction(hdr.Opcode, ops))
		return Continue
	})
	if err != nil {
		return err
	}
	return out.Flush()
}

func id(n uint32) string {
	return fmt.Sprintf("%%%d", n)
}

func ids(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = id(w)
	}
	return strings.Join(parts, " ")
}

func literals(words []uint32) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("%d", w)
	}
	return strings.Join(parts, " ")
}

func lookup[K comparable](m map[K]string, v K) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func quoted(words []uint32) string {
	s, _, err := DecodeLiteralString(words)
	if err != nil {
		return `"?"`
	}
	return fmt.Sprintf("%q", s)
}

// result formats "%id = Name rest" with the given result operand.
func result(resultID uint32, name string, rest ...string) string {
	line := fmt.Sprintf("%12s = %s", id(resultID), name)
	return strings.TrimRight(line+" "+strings.Join(rest, " "), " ")
}

// plain formats an instruction without a result ID.
func plain(name string, rest ...string) string {
	return strings.TrimRight(fmt.Sprintf("%15s%s %s", "", name, strings.Join(rest, " ")), " ")
}

//nolint:gocyclo,cyclop,funlen // one case per opcode layout
func formatInstruction(op OpCode, ops []uint32) string {
	name := op.String()
	short := func(n int) bool { return len(ops) < n }

	switch op {
	case OpCapability:
		if short(1) {
			break
		}
		return plain(name, literals(ops[:1]))
	case OpExtension, OpSourceExtension, OpModuleProcessed, OpSourceContinued:
		return plain(name, quoted(ops))
	case OpExtInstImport, OpString:
		if short(2) {
			break
		}
		return result(ops[0], name, quoted(ops[1:]))
	case OpMemoryModel:
		if short(2) {
			break
		}
		return plain(name, literals(ops))
	case OpEntryPoint:
		ep, err := DecodeEntryPoint(ops)
		if err != nil {
			break
		}
		return plain(name, lookup(executionModelNames, ep.ExecutionModel), id(ep.FunctionID),
			fmt.Sprintf("%q", ep.Name), ids(ep.Interface))
	case OpExecutionMode:
		if short(2) {
			break
		}
		return plain(name, id(ops[0]), literals(ops[1:]))
	case OpSource:
		if short(2) {
			break
		}
		rest := []string{literals(ops[:2])}
		if len(ops) > 2 {
			rest = append(rest, id(ops[2]))
		}
		if len(ops) > 3 {
			rest = append(rest, quoted(ops[3:]))
		}
		return plain(name, rest...)
	case OpName:
		if short(2) {
			break
		}
		return plain(name, id(ops[0]), quoted(ops[1:]))
	case OpMemberName:
		if short(3) {
			break
		}
		return plain(name, id(ops[0]), fmt.Sprintf("%d", ops[1]), quoted(ops[2:]))
	case OpLine:
		if short(3) {
			break
		}
		return plain(name, id(ops[0]), literals(ops[1:]))
	case OpDecorate:
		d, err := DecodeDecorate(ops)
		if err != nil {
			break
		}
		return plain(name, id(d.TargetID), d.Decoration.String(), literals(ops[2:]))
	case OpMemberDecorate:
		d, err := DecodeMemberDecorate(ops)
		if err != nil {
			break
		}
		return plain(name, id(d.StructureTypeID), fmt.Sprintf("%d", d.Member), d.Decoration.String(), literals(ops[3:]))
	case OpTypeInt, OpTypeFloat:
		if short(2) {
			break
		}
		return result(ops[0], name, literals(ops[1:]))
	case OpTypeVector, OpTypeMatrix:
		if short(3) {
			break
		}
		return result(ops[0], name, id(ops[1]), literals(ops[2:]))
	case OpTypeImage:
		img, err := DecodeTypeImage(ops)
		if err != nil {
			break
		}
		return result(img.ResultID, name, id(img.SampledTypeID), lookup(dimNames, img.Dim), literals(ops[3:]))
	case OpTypePointer:
		ptr, err := DecodeTypePointer(ops)
		if err != nil {
			break
		}
		return result(ptr.ResultID, name, ptr.StorageClass.String(), id(ptr.TypeID))
	case OpVariable:
		v, err := DecodeVariable(ops)
		if err != nil {
			break
		}
		rest := []string{id(v.ResultTypeID), v.StorageClass.String()}
		if v.Initializer != nil {
			rest = append(rest, id(*v.Initializer))
		}
		return result(v.ResultID, name, rest...)
	case OpConstant:
		if short(3) {
			break
		}
		return result(ops[1], name, id(ops[0]), literals(ops[2:]))
	case OpFunction:
		if short(4) {
			break
		}
		return result(ops[1], name, id(ops[0]), literals(ops[2:3]), id(ops[3]))
	case OpFunctionEnd, OpReturn, OpNoLine, OpNop:
		return plain(name)
	}

	switch {
	case len(ops) == 0:
		return plain(name)
	case op.IsTypeDeclaration() && op != OpTypeForwardPointer:
		return result(ops[0], name, ids(ops[1:]))
	case hasResultType(op) && len(ops) >= 2:
		return result(ops[1], name, id(ops[0]), ids(ops[2:]))
	default:
		return plain(name, ids(ops))
	}
}

// hasResultType reports whether op's first two operands are a result type
// and a result ID.
func hasResultType(op OpCode) bool {
	switch {
	case op.IsConstant(), op.IsSamplingOp():
		return true
	}
	switch op {
	case OpUndef, OpExtInst, OpFunctionParameter, OpFunctionCall, OpLoad,
		OpAccessChain, OpCompositeConstruct, OpCompositeExtract, OpSampledImage,
		OpImageFetch, OpImageRead, OpImageQuerySizeLod, OpImageQuerySize,
		OpImageQueryLevels, OpImageQuerySamples, OpFAdd, OpFMul:
		return true
	}
	return false
}
