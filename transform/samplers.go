package transform

import (
	"sort"

	"github.com/gogpu/spvpass/spirv"
	log "github.com/sirupsen/logrus"
)

// SeparateCombinedImageSamplers splits every combined image sampler into a
// separate image and sampler, for targets whose shading language has no
// combined type.
//
// A combined image sampler is a UniformConstant variable or function
// parameter whose pointer type points at an OpTypeSampledImage. Its
// pointer type is retyped to point at the underlying image, a sampler
// variable or parameter is added next to it, and every load through it is
// followed by a sampler load and an OpSampledImage that takes the old
// load's place in sampling instructions. Entry point interfaces, function
// types and call sites gain the new sampler alongside the image.
//
// binding picks the sampler binding for an image binding. When nil, the
// sampler goes one past the highest binding in the image's descriptor set.
// A binding already taken returns a *BindingConflictError and leaves the
// module untouched.
//
// A variable without a complete binding is left combined on its own; its
// split siblings move to a fresh image pointer type so the shared one keeps
// its meaning. Parameters that cannot be split consistently leave every
// user of their pointer type combined. The returned pairs list split
// variables ordered by image binding.
func SeparateCombinedImageSamplers(m *spirv.Module, binding func(image Binding) Binding) ([]ImageSamplerPair, error) {
	s := newSamplerSplit()
	if err := s.collect(m); err != nil {
		return nil, err
	}
	s.findCombined()
	if len(s.combined) == 0 {
		log.Debug("no combined image samplers to split")
		return nil, nil
	}
	s.resolve()
	if len(s.vars)+len(s.params) == 0 {
		log.Debug("no combined image sampler could be split")
		return nil, nil
	}
	if err := s.assignBindings(binding); err != nil {
		return nil, err
	}
	if err := s.rewrite(m); err != nil {
		return nil, err
	}

	pairs := make([]ImageSamplerPair, len(s.vars))
	for i, v := range s.vars {
		pairs[i] = ImageSamplerPair{Image: v.image, Sampler: v.sampler}
	}
	return pairs, nil
}

// located pairs a decoded instruction with its word range.
type located[T any] struct {
	pos, end int
	inst     T
}

type function struct {
	located[spirv.Function]
	params []uint32
}

type parameter struct {
	located[spirv.FunctionParameter]
	function uint32
	index    int
}

// combinedType is a pointer type to a sampled image of a known image type.
type combinedType struct {
	pointer      located[spirv.TypePointer]
	sampledImage uint32
	image        uint32
}

// splitVariable is a combined variable chosen for splitting.
type splitVariable struct {
	located[spirv.Variable]
	image   Binding
	sampler Binding
	// bindingEnd is the word index just past its later binding decoration.
	bindingEnd int
}

type samplerSplit struct {
	images         map[uint32]spirv.TypeImage
	sampledImages  map[uint32]spirv.TypeSampledImage
	pointers       map[uint32]located[spirv.TypePointer]
	functionTypes  map[uint32]located[spirv.TypeFunction]
	functions      map[uint32]*function
	samplerType    uint32
	samplerTypePos int
	samplerTypeEnd int
	variables      []located[spirv.Variable]
	parameters     []parameter
	loads          []located[spirv.Load]
	calls          []located[spirv.FunctionCall]
	entryPoints    []located[spirv.EntryPoint]
	samplingOps    []int
	bindings       bindingTable

	combined map[uint32]combinedType
	excluded map[uint32]bool // combined pointer types left untouched
	shared   map[uint32]bool // combined pointer types also used by unsplit variables
	vars     []splitVariable
	params   []parameter
}

func newSamplerSplit() *samplerSplit {
	return &samplerSplit{
		images:        make(map[uint32]spirv.TypeImage),
		sampledImages: make(map[uint32]spirv.TypeSampledImage),
		pointers:      make(map[uint32]located[spirv.TypePointer]),
		functionTypes: make(map[uint32]located[spirv.TypeFunction]),
		functions:     make(map[uint32]*function),
		bindings:      bindingTable{},
		combined:      make(map[uint32]combinedType),
		excluded:      make(map[uint32]bool),
		shared:        make(map[uint32]bool),
	}
}

//nolint:gocyclo,cyclop // one case per collected opcode
func (s *samplerSplit) collect(m *spirv.Module) error {
	var current *function
	return scan(m, func(pos int, hdr spirv.Header, ops []uint32) (spirv.ControlFlow, error) {
		end := pos + int(hdr.WordCount)
		switch op := hdr.Opcode; op {
		case spirv.OpTypeImage:
			img, err := spirv.DecodeTypeImage(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.images[img.ResultID] = img
		case spirv.OpTypeSampledImage:
			si, err := spirv.DecodeTypeSampledImage(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.sampledImages[si.ResultID] = si
		case spirv.OpTypeSampler:
			if s.samplerType == 0 && len(ops) > 0 {
				s.samplerType, s.samplerTypePos, s.samplerTypeEnd = ops[0], pos, end
			}
		case spirv.OpTypePointer:
			ptr, err := spirv.DecodeTypePointer(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.pointers[ptr.ResultID] = located[spirv.TypePointer]{pos, end, ptr}
		case spirv.OpTypeFunction:
			ft, err := spirv.DecodeTypeFunction(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.functionTypes[ft.ResultID] = located[spirv.TypeFunction]{pos, end, ft}
		case spirv.OpDecorate:
			dec, err := spirv.DecodeDecorate(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.bindings.observe(pos, hdr, dec)
		case spirv.OpEntryPoint:
			ep, err := spirv.DecodeEntryPoint(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.entryPoints = append(s.entryPoints, located[spirv.EntryPoint]{pos, end, ep})
		case spirv.OpVariable:
			v, err := spirv.DecodeVariable(ops)
			if err != nil {
				return spirv.Stop, err
			}
			if v.StorageClass == spirv.StorageClassUniformConstant {
				s.variables = append(s.variables, located[spirv.Variable]{pos, end, v})
			}
		case spirv.OpFunction:
			fn, err := spirv.DecodeFunction(ops)
			if err != nil {
				return spirv.Stop, err
			}
			current = &function{located: located[spirv.Function]{pos, end, fn}}
			s.functions[fn.ResultID] = current
		case spirv.OpFunctionParameter:
			p, err := spirv.DecodeFunctionParameter(ops)
			if err != nil {
				return spirv.Stop, err
			}
			if current == nil {
				break
			}
			s.parameters = append(s.parameters, parameter{
				located:  located[spirv.FunctionParameter]{pos, end, p},
				function: current.inst.ResultID,
				index:    len(current.params),
			})
			current.params = append(current.params, p.ResultID)
		case spirv.OpFunctionEnd:
			current = nil
		case spirv.OpFunctionCall:
			call, err := spirv.DecodeFunctionCall(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.calls = append(s.calls, located[spirv.FunctionCall]{pos, end, call})
		case spirv.OpLoad:
			l, err := spirv.DecodeLoad(ops)
			if err != nil {
				return spirv.Stop, err
			}
			s.loads = append(s.loads, located[spirv.Load]{pos, end, l})
		default:
			if op.IsSamplingOp() && len(ops) > spirv.SampledImageOperand {
				s.samplingOps = append(s.samplingOps, pos)
			}
		}
		return spirv.Continue, nil
	})
}

// findCombined records every UniformConstant pointer to a sampled image
// whose image type is declared.
func (s *samplerSplit) findCombined() {
	for id, ptr := range s.pointers {
		if ptr.inst.StorageClass != spirv.StorageClassUniformConstant {
			continue
		}
		si, ok := s.sampledImages[ptr.inst.TypeID]
		if !ok {
			continue
		}
		if _, ok := s.images[si.ImageTypeID]; !ok {
			continue
		}
		s.combined[id] = combinedType{pointer: ptr, sampledImage: si.ResultID, image: si.ImageTypeID}
	}
}

func (s *samplerSplit) exclude(pointerType uint32, format string, args ...any) bool {
	if s.excluded[pointerType] {
		return false
	}
	s.excluded[pointerType] = true
	log.Warnf("leaving combined image sampler type %%%d intact: "+format, append([]any{pointerType}, args...)...)
	return true
}

// resolve picks the variables and parameters to split. A variable without
// a complete binding is skipped alone. A pointer type is excluded as a whole
// when one of its parameters cannot be rewritten, and exclusions propagate
// through call sites until nothing changes.
func (s *samplerSplit) resolve() {
	vars := make(map[uint32]located[spirv.Variable])
	for _, v := range s.variables {
		if _, ok := s.combined[v.inst.ResultTypeID]; !ok {
			continue
		}
		if entry, ok := s.bindings[v.inst.ResultID]; !ok || !entry.complete() {
			s.shared[v.inst.ResultTypeID] = true
			log.Warnf("leaving combined image sampler %%%d intact: no descriptor set and binding", v.inst.ResultID)
			continue
		}
		vars[v.inst.ResultID] = v
	}

	params := make(map[uint32]parameter)
	for _, p := range s.parameters {
		if _, ok := s.combined[p.inst.ResultTypeID]; !ok {
			continue
		}
		params[p.inst.ResultID] = p
		if _, ok := s.functionTypes[s.functions[p.function].inst.FunctionTypeID]; !ok {
			s.exclude(p.inst.ResultTypeID, "function %%%d has no declared type", p.function)
		}
		if s.shared[p.inst.ResultTypeID] {
			s.exclude(p.inst.ResultTypeID, "parameter %%%d shares it with a variable left combined", p.inst.ResultID)
		}
	}

	pointerTypeOf := func(id uint32) (uint32, bool) {
		if v, ok := vars[id]; ok {
			return v.inst.ResultTypeID, true
		}
		if p, ok := params[id]; ok {
			return p.inst.ResultTypeID, true
		}
		return 0, false
	}

	for changed := true; changed; {
		changed = false
		for _, call := range s.calls {
			fn, ok := s.functions[call.inst.FunctionID]
			if !ok {
				continue
			}
			for i, paramID := range fn.params {
				p, ok := params[paramID]
				if !ok {
					continue
				}
				paramType := p.inst.ResultTypeID
				if i >= len(call.inst.Arguments) {
					changed = s.exclude(paramType, "call %%%d passes too few arguments", call.inst.ResultID) || changed
					continue
				}
				arg := call.inst.Arguments[i]
				argType, known := pointerTypeOf(arg)
				switch {
				case s.excluded[paramType]:
					if known && !s.excluded[argType] {
						changed = s.exclude(argType, "%%%d is passed to a parameter left combined", arg) || changed
					}
				case !known || s.excluded[argType]:
					changed = s.exclude(paramType, "call %%%d passes %%%d which cannot be split", call.inst.ResultID, arg) || changed
				}
			}
		}
	}

	for _, v := range vars {
		if s.excluded[v.inst.ResultTypeID] {
			continue
		}
		entry := s.bindings[v.inst.ResultID]
		s.vars = append(s.vars, splitVariable{located: v, image: entry.value(), bindingEnd: entry.end})
	}
	sort.Slice(s.vars, func(i, j int) bool {
		a, b := s.vars[i], s.vars[j]
		if a.image.DescriptorSet != b.image.DescriptorSet {
			return a.image.DescriptorSet < b.image.DescriptorSet
		}
		if a.image.Binding != b.image.Binding {
			return a.image.Binding < b.image.Binding
		}
		return a.inst.ResultID < b.inst.ResultID
	})

	for _, p := range s.parameters {
		if _, ok := params[p.inst.ResultID]; ok && !s.excluded[p.inst.ResultTypeID] {
			s.params = append(s.params, p)
		}
	}
}

// assignBindings chooses every sampler binding before anything is written.
func (s *samplerSplit) assignBindings(decide func(Binding) Binding) error {
	highest := s.bindings.highest()
	owners := s.bindings.owners()
	for i := range s.vars {
		v := &s.vars[i]
		set := v.image.DescriptorSet
		if decide == nil {
			v.sampler = Binding{DescriptorSet: set, Binding: highest[set] + 1}
		} else {
			v.sampler = decide(v.image)
			if owner, taken := owners[v.sampler]; taken {
				return &BindingConflictError{Image: v.image, Sampler: v.sampler, Owner: owner}
			}
		}
		owners[v.sampler] = v.inst.ResultID
		if cur, ok := highest[v.sampler.DescriptorSet]; !ok || v.sampler.Binding > cur {
			highest[v.sampler.DescriptorSet] = v.sampler.Binding
		}
	}
	return nil
}

//nolint:funlen // one linear rewrite over every collected site
func (s *samplerSplit) rewrite(m *spirv.Module) error {
	words := m.Words()
	alloc := spirv.NewIDAllocator(m)
	var edits spirv.Edits

	// pointer types being split, by ID
	retyped := make(map[uint32]combinedType)
	for _, v := range s.vars {
		retyped[v.inst.ResultTypeID] = s.combined[v.inst.ResultTypeID]
	}
	for _, p := range s.params {
		retyped[p.inst.ResultTypeID] = s.combined[p.inst.ResultTypeID]
	}
	retypedIDs := make([]uint32, 0, len(retyped))
	typeInsert := len(words)
	for id, ct := range retyped {
		retypedIDs = append(retypedIDs, id)
		typeInsert = min(typeInsert, ct.pointer.pos)
	}
	sort.Slice(retypedIDs, func(i, j int) bool { return retypedIDs[i] < retypedIDs[j] })

	// first instruction referring to the sampler pointer type
	firstUse := len(words)
	for _, v := range s.vars {
		firstUse = min(firstUse, v.pos)
	}
	for _, p := range s.params {
		firstUse = min(firstUse, p.pos)
	}
	for _, ft := range s.functionTypes {
		if s.extendsFunctionType(ft.inst, retyped) {
			firstUse = min(firstUse, ft.pos)
		}
	}

	samplerType := s.samplerType
	pointerInsert := typeInsert
	switch {
	case samplerType == 0:
		samplerType = alloc.AllocID()
		edits.InsertInstruction(typeInsert, spirv.NewInstruction(spirv.OpTypeSampler, samplerType))
	case s.samplerTypeEnd > firstUse:
		// declared too late to be referenced; move it up under the same ID
		edits.Remove(s.samplerTypePos, s.samplerTypeEnd)
		edits.InsertInstruction(typeInsert, spirv.NewInstruction(spirv.OpTypeSampler, samplerType))
	case s.samplerTypeEnd > typeInsert:
		pointerInsert = s.samplerTypeEnd
	}
	samplerPointer := s.samplerPointerType(samplerType, pointerInsert)
	if samplerPointer == 0 {
		samplerPointer = alloc.AllocID()
		edits.InsertInstruction(pointerInsert, spirv.NewInstruction(spirv.OpTypePointer,
			samplerPointer, uint32(spirv.StorageClassUniformConstant), samplerType))
	}

	// a pointer type still used by an unsplit variable keeps pointing at the
	// sampled image; its split users get a new pointer to the image
	imagePointer := make(map[uint32]uint32)
	for _, id := range retypedIDs {
		ct := retyped[id]
		if !s.shared[id] {
			words[ct.pointer.pos+3] = ct.image
			continue
		}
		ptr := alloc.AllocID()
		imagePointer[id] = ptr
		edits.InsertInstruction(ct.pointer.end, spirv.NewInstruction(spirv.OpTypePointer,
			ptr, uint32(spirv.StorageClassUniformConstant), ct.image))
	}

	samplerFor := make(map[uint32]uint32)
	for _, v := range s.vars {
		if ptr, ok := imagePointer[v.inst.ResultTypeID]; ok {
			words[v.pos+1] = ptr
		}
		sampler := alloc.AllocID()
		samplerFor[v.inst.ResultID] = sampler
		edits.InsertInstruction(v.pos, spirv.NewInstruction(spirv.OpVariable,
			samplerPointer, sampler, uint32(spirv.StorageClassUniformConstant)))
		edits.InsertInstruction(v.bindingEnd, decorate(sampler, spirv.DecorationDescriptorSet, v.sampler.DescriptorSet))
		edits.InsertInstruction(v.bindingEnd, decorate(sampler, spirv.DecorationBinding, v.sampler.Binding))
		log.Debugf("split image sampler %%%d at %s, sampler %%%d at %s", v.inst.ResultID, v.image, sampler, v.sampler)
	}
	for _, p := range s.params {
		sampler := alloc.AllocID()
		samplerFor[p.inst.ResultID] = sampler
		edits.InsertInstruction(p.end, spirv.NewInstruction(spirv.OpFunctionParameter, samplerPointer, sampler))
	}

	// loads through a split pointer now yield the image; the combined value
	// is rebuilt right after them
	replaced := make(map[uint32]uint32)
	for _, l := range s.loads {
		sampler, ok := samplerFor[l.inst.PointerID]
		if !ok {
			continue
		}
		ct := retyped[s.pointerTypeOf(l.inst.PointerID)]
		words[l.pos+1] = ct.image
		loaded, combined := alloc.AllocID(), alloc.AllocID()
		edits.InsertInstruction(l.end, spirv.NewInstruction(spirv.OpLoad, samplerType, loaded, sampler))
		edits.InsertInstruction(l.end, spirv.NewInstruction(spirv.OpSampledImage,
			ct.sampledImage, combined, l.inst.ResultID, loaded))
		replaced[l.inst.ResultID] = combined
	}
	for _, pos := range s.samplingOps {
		operand := pos + 1 + spirv.SampledImageOperand
		if combined, ok := replaced[words[operand]]; ok {
			words[operand] = combined
		}
	}

	for _, ep := range s.entryPoints {
		added := 0
		for _, id := range ep.inst.Interface {
			if sampler, ok := samplerFor[id]; ok {
				edits.Insert(ep.end, sampler)
				added++
			}
		}
		growInstruction(words, ep.pos, added)
	}

	for _, ft := range s.functionTypes {
		added := 0
		for i, paramType := range ft.inst.Parameters {
			if _, ok := retyped[paramType]; ok && !s.shared[paramType] {
				edits.Insert(ft.pos+4+i, samplerPointer)
				added++
			}
		}
		growInstruction(words, ft.pos, added)
	}

	for _, call := range s.calls {
		fn, ok := s.functions[call.inst.FunctionID]
		if !ok {
			continue
		}
		added := 0
		for i, paramID := range fn.params {
			if _, ok := samplerFor[paramID]; !ok {
				continue
			}
			edits.Insert(call.pos+5+i, samplerFor[call.inst.Arguments[i]])
			added++
		}
		growInstruction(words, call.pos, added)
	}

	if err := edits.Apply(m); err != nil {
		return err
	}
	m.SetBound(alloc.Bound())
	return nil
}

// extendsFunctionType reports whether ft takes a parameter whose pointer type
// is retyped in place, so it gains a sampler parameter.
func (s *samplerSplit) extendsFunctionType(ft spirv.TypeFunction, retyped map[uint32]combinedType) bool {
	for _, paramType := range ft.Parameters {
		if _, ok := retyped[paramType]; ok && !s.shared[paramType] {
			return true
		}
	}
	return false
}

// samplerPointerType returns an existing UniformConstant pointer to
// samplerType declared before pos, or 0.
func (s *samplerSplit) samplerPointerType(samplerType uint32, pos int) uint32 {
	var found uint32
	for id, ptr := range s.pointers {
		if ptr.inst.StorageClass != spirv.StorageClassUniformConstant || ptr.inst.TypeID != samplerType || ptr.pos >= pos {
			continue
		}
		if found == 0 || id < found {
			found = id
		}
	}
	return found
}

// pointerTypeOf returns the pointer type of a split variable or parameter.
func (s *samplerSplit) pointerTypeOf(id uint32) uint32 {
	for _, v := range s.vars {
		if v.inst.ResultID == id {
			return v.inst.ResultTypeID
		}
	}
	for _, p := range s.params {
		if p.inst.ResultID == id {
			return p.inst.ResultTypeID
		}
	}
	return 0
}

// growInstruction adds n to the word count of the instruction at pos.
func growInstruction(words []uint32, pos, n int) {
	if n == 0 {
		return
	}
	hdr := spirv.DecodeHeader(words[pos])
	hdr.WordCount += uint16(n)
	words[pos] = hdr.Encode()
}
