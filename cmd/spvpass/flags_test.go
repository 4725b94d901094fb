package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/gogpu/spvpass/spirv"
	"github.com/gogpu/spvpass/transform"
)

func b(set, binding uint32) transform.Binding {
	return transform.Binding{DescriptorSet: set, Binding: binding}
}

func TestParseRemap(t *testing.T) {
	remap, err := parseRemap([]string{"0:*=2:*", "0:1=5:5", "3:4=3:0"})
	if err != nil {
		t.Fatalf("parseRemap: %v", err)
	}

	tests := []struct {
		in, want transform.Binding
	}{
		{b(0, 1), b(5, 5)},
		{b(0, 7), b(2, 7)},
		{b(3, 4), b(3, 0)},
		{b(3, 5), b(3, 5)},
		{b(1, 0), b(1, 0)},
	}
	for _, tt := range tests {
		if got := remap(tt.in); got != tt.want {
			t.Errorf("remap(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRemap_Empty(t *testing.T) {
	remap, err := parseRemap(nil)
	if err != nil || remap != nil {
		t.Fatalf("parseRemap(nil) = %v, %v; want nil, nil", remap != nil, err)
	}
}

func TestParseRemap_Errors(t *testing.T) {
	for _, arg := range []string{
		"0:1",
		"0:1=2",
		"0=1:2",
		"0:*=1:2",
		"x:*=1:*",
		"0:*=y:*",
		"0:a=1:2",
		"0:1=1:b",
	} {
		if _, err := parseRemap([]string{arg}); err == nil {
			t.Errorf("parseRemap(%q) succeeded, want error", arg)
		}
	}
}

func TestParseDecoration(t *testing.T) {
	tests := []struct {
		in   string
		want spirv.Decoration
	}{
		{"0", spirv.DecorationRelaxedPrecision},
		{"RelaxedPrecision", spirv.DecorationRelaxedPrecision},
		{"relaxedprecision", spirv.DecorationRelaxedPrecision},
		{"NonWritable", spirv.DecorationNonWritable},
		{"44", spirv.Decoration(44)},
	}
	for _, tt := range tests {
		got, err := parseDecoration(tt.in)
		if err != nil {
			t.Errorf("parseDecoration(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDecoration(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := parseDecoration("Shiny"); err == nil {
		t.Error("parseDecoration(Shiny) succeeded, want error")
	}
}

func TestWritePairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.json")
	pairs := []transform.ImageSamplerPair{{Image: b(0, 1), Sampler: b(0, 2)}}
	if err := writePairs(path, pairs); err != nil {
		t.Fatalf("writePairs: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var records []pairRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("pairs file is not JSON: %v\n%s", err, data)
	}
	want := pairRecord{Image: bindingRecord{0, 1}, Sampler: bindingRecord{0, 2}}
	if len(records) != 1 || records[0] != want {
		t.Errorf("records = %+v, want [%+v]", records, want)
	}
}

func TestWritePairs_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.json")
	if err := writePairs(path, nil); err != nil {
		t.Fatalf("writePairs: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("pairs file = %q, want %q", data, "[]\n")
	}
}

func TestValidator_MissingBinary(t *testing.T) {
	v := &validator{bin: filepath.Join(t.TempDir(), "no-such-spirv-val")}
	if err := v.validate(context.Background(), nil); err == nil {
		t.Fatal("validate succeeded without a validator binary")
	}
}

func TestValidator_EmptyFragmentShader(t *testing.T) {
	bin, err := exec.LookPath("spirv-val")
	if err != nil {
		t.Skip("spirv-val not installed")
	}
	builder := spirv.NewModuleBuilder(spirv.Version1_0)
	builder.AddCapability(spirv.CapabilityShader)
	builder.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)
	voidType := builder.AddTypeVoid()
	entry := builder.AddFunction(builder.AddTypeFunction(voidType), voidType, spirv.FunctionControlNone)
	builder.AddLabel()
	builder.AddReturn()
	builder.AddFunctionEnd()
	builder.AddEntryPoint(spirv.ExecutionModelFragment, entry, "main", nil)
	builder.AddExecutionMode(entry, spirv.ExecutionModeOriginUpperLeft)

	v := &validator{bin: bin}
	if err := v.validate(context.Background(), builder.Build()); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
