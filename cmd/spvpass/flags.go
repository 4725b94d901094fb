package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/spvpass/spirv"
	"github.com/gogpu/spvpass/transform"
)

// remapRule moves one binding, or every binding of a descriptor set when
// wholeSet is true.
type remapRule struct {
	from, to transform.Binding
	wholeSet bool
}

// parseRemap turns "set:binding=set:binding" and "set:*=set:*" arguments into a
// remap function. Exact rules win over whole-set rules; unmatched bindings
// are kept.
func parseRemap(args []string) (func(transform.Binding) transform.Binding, error) {
	if len(args) == 0 {
		return nil, nil
	}
	exact := make(map[transform.Binding]transform.Binding)
	sets := make(map[uint32]uint32)
	for _, arg := range args {
		rule, err := parseRemapRule(arg)
		if err != nil {
			return nil, err
		}
		if rule.wholeSet {
			sets[rule.from.DescriptorSet] = rule.to.DescriptorSet
		} else {
			exact[rule.from] = rule.to
		}
	}
	return func(b transform.Binding) transform.Binding {
		if to, ok := exact[b]; ok {
			return to
		}
		if set, ok := sets[b.DescriptorSet]; ok {
			return transform.Binding{DescriptorSet: set, Binding: b.Binding}
		}
		return b
	}, nil
}

func parseRemapRule(arg string) (remapRule, error) {
	from, to, ok := strings.Cut(arg, "=")
	if !ok {
		return remapRule{}, fmt.Errorf("remap %q: want from=to", arg)
	}
	fromSet, fromBinding, ok1 := strings.Cut(from, ":")
	toSet, toBinding, ok2 := strings.Cut(to, ":")
	if !ok1 || !ok2 {
		return remapRule{}, fmt.Errorf("remap %q: want set:binding on both sides", arg)
	}

	if fromBinding == "*" || toBinding == "*" {
		if fromBinding != toBinding {
			return remapRule{}, fmt.Errorf("remap %q: * must appear on both sides", arg)
		}
		src, err := strconv.ParseUint(fromSet, 10, 32)
		if err != nil {
			return remapRule{}, fmt.Errorf("remap %q: %w", arg, err)
		}
		dst, err := strconv.ParseUint(toSet, 10, 32)
		if err != nil {
			return remapRule{}, fmt.Errorf("remap %q: %w", arg, err)
		}
		return remapRule{
			from:     transform.Binding{DescriptorSet: uint32(src)},
			to:       transform.Binding{DescriptorSet: uint32(dst)},
			wholeSet: true,
		}, nil
	}

	src, err := transform.ParseBinding(from)
	if err != nil {
		return remapRule{}, fmt.Errorf("remap %q: %w", arg, err)
	}
	dst, err := transform.ParseBinding(to)
	if err != nil {
		return remapRule{}, fmt.Errorf("remap %q: %w", arg, err)
	}
	return remapRule{from: src, to: dst}, nil
}

// parseDecoration accepts a decoration number or one of the names known to
// the spirv package, such as "RelaxedPrecision".
func parseDecoration(s string) (spirv.Decoration, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return spirv.Decoration(n), nil
	}
	for d := spirv.Decoration(0); d <= spirv.DecorationOffset; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown decoration %q", s)
}
