// Package spvpass rewrites SPIR-V binaries for the needs of a graphics
// backend.
//
// spvpass runs a fixed pipeline of word-level passes over one module:
//   - debug information stripping (OpName, OpLine, OpSource, ...)
//   - removal of a decoration such as RelaxedPrecision
//   - turning the push-constant block into a uniform buffer
//   - splitting combined image samplers into separate images and samplers
//   - remapping descriptor set and binding decorations
//
// The package provides a simple, high-level API as well as lower-level
// access to individual passes through the transform package.
//
// Example usage:
//
//	opts := spvpass.DefaultOptions()
//	opts.SeparateSamplers = true
//	opts.PushConstant = &transform.Binding{DescriptorSet: 2, Binding: 0}
//	result, err := spvpass.Transform(spirvBytes, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range result.Pairs {
//	    fmt.Println(p.Image, "->", p.Sampler)
//	}
//
// For single passes, parse once and call the transform package directly:
//
//	m, _ := spirv.ParseModule(spirvBytes)
//	n, err := transform.RemoveDebugInfo(m)
package spvpass

import (
	"fmt"

	"github.com/gogpu/spvpass/spirv"
	"github.com/gogpu/spvpass/transform"
)

// Options configures which passes Transform runs.
type Options struct {
	// StripDebugInfo removes names, strings, source and line information.
	StripDebugInfo bool

	// RemoveDecorations lists decorations to delete from every target and
	// struct member.
	RemoveDecorations []spirv.Decoration

	// PushConstant, when set, turns the push-constant block into a uniform
	// buffer at this binding.
	PushConstant *transform.Binding

	// SeparateSamplers splits combined image samplers.
	SeparateSamplers bool

	// SamplerBinding picks the binding of each separated sampler from its
	// image binding. Nil selects the next free binding in the image's set.
	SamplerBinding func(image transform.Binding) transform.Binding

	// Remap, when set, rewrites every complete descriptor binding. It runs
	// last, so it also sees the bindings created by earlier passes.
	Remap func(transform.Binding) transform.Binding
}

// DefaultOptions returns sensible default options: debug information is
// stripped and every other pass is off.
func DefaultOptions() Options {
	return Options{
		StripDebugInfo: true,
	}
}

// Result is the output of Transform.
type Result struct {
	// Binary is the rewritten module, in the byte order of the input.
	Binary []byte

	// Pairs links each split image to its new sampler, with bindings as
	// they are after remapping.
	Pairs []transform.ImageSamplerPair
}

// Transform parses a SPIR-V binary and runs the passes enabled in opts.
//
// The pipeline is:
//  1. Strip debug information
//  2. Remove decorations
//  3. Push constants to uniform buffer
//  4. Separate combined image samplers
//  5. Remap bindings
//
// The input buffer is not modified.
func Transform(data []byte, opts Options) (*Result, error) {
	m, err := spirv.ParseModule(data)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if opts.StripDebugInfo {
		if _, err := transform.RemoveDebugInfo(m); err != nil {
			return nil, fmt.Errorf("strip debug info: %w", err)
		}
	}

	for _, decoration := range opts.RemoveDecorations {
		if _, err := transform.RemoveDecoration(m, decoration); err != nil {
			return nil, fmt.Errorf("remove %s decorations: %w", decoration, err)
		}
	}

	if opts.PushConstant != nil {
		if _, err := transform.PushConstToUBO(m, opts.PushConstant.DescriptorSet, opts.PushConstant.Binding); err != nil {
			return nil, fmt.Errorf("push constants: %w", err)
		}
	}

	var pairs []transform.ImageSamplerPair
	if opts.SeparateSamplers {
		pairs, err = transform.SeparateCombinedImageSamplers(m, opts.SamplerBinding)
		if err != nil {
			return nil, fmt.Errorf("separate samplers: %w", err)
		}
	}

	if opts.Remap != nil {
		remapped := make(map[transform.Binding]transform.Binding)
		_, err := transform.RemapBindings(m, func(b transform.Binding) transform.Binding {
			to := opts.Remap(b)
			remapped[b] = to
			return to
		})
		if err != nil {
			return nil, fmt.Errorf("remap bindings: %w", err)
		}
		for i, p := range pairs {
			if to, ok := remapped[p.Image]; ok {
				pairs[i].Image = to
			}
			if to, ok := remapped[p.Sampler]; ok {
				pairs[i].Sampler = to
			}
		}
	}

	return &Result{Binary: m.Bytes(), Pairs: pairs}, nil
}
