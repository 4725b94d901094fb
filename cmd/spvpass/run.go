package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gogpu/spvpass"
	"github.com/gogpu/spvpass/transform"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] input.spv",
	Short: "Run rewriting passes over a SPIR-V binary.",
	Long: `Run rewriting passes over a SPIR-V binary. Passes run in a fixed
order: strip debug info, remove decorations, push constants to uniform
buffer, separate samplers, remap bindings.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		output := getString(cmd, "output")
		if output == "" && term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: refusing to write a binary module to a terminal, use -o")
			os.Exit(2)
		}

		input, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}

		result, err := spvpass.Transform(input, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
			os.Exit(1)
		}
		log.Debugf("%s: %d bytes in, %d bytes out", args[0], len(input), len(result.Binary))

		if getFlag(cmd, "validate") {
			v := &validator{bin: getString(cmd, "spirv-val")}
			if err := v.validate(cmd.Context(), result.Binary); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
				os.Exit(1)
			}
		}

		if pairs := getString(cmd, "pairs"); pairs != "" {
			if err := writePairs(pairs, result.Pairs); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing pairs: %v\n", err)
				os.Exit(1)
			}
		}

		if output != "" {
			if err := os.WriteFile(output, result.Binary, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
				os.Exit(1)
			}
			return
		}
		if _, err := os.Stdout.Write(result.Binary); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	},
}

func optionsFromFlags(cmd *cobra.Command) (spvpass.Options, error) {
	var opts spvpass.Options
	opts.StripDebugInfo = getFlag(cmd, "strip-debug")
	opts.SeparateSamplers = getFlag(cmd, "separate-samplers")

	for _, s := range getStringArray(cmd, "remove-decoration") {
		d, err := parseDecoration(s)
		if err != nil {
			return opts, err
		}
		opts.RemoveDecorations = append(opts.RemoveDecorations, d)
	}

	if s := getString(cmd, "push-constant"); s != "" {
		b, err := transform.ParseBinding(s)
		if err != nil {
			return opts, fmt.Errorf("push-constant: %w", err)
		}
		opts.PushConstant = &b
	}

	remap, err := parseRemap(getStringArray(cmd, "remap"))
	if err != nil {
		return opts, err
	}
	opts.Remap = remap
	return opts, nil
}

// pairRecord is the JSON form of one image/sampler pair.
type pairRecord struct {
	Image   bindingRecord `json:"image"`
	Sampler bindingRecord `json:"sampler"`
}

type bindingRecord struct {
	Set     uint32 `json:"set"`
	Binding uint32 `json:"binding"`
}

func writePairs(path string, pairs []transform.ImageSamplerPair) error {
	records := make([]pairRecord, 0, len(pairs))
	for _, p := range pairs {
		records = append(records, pairRecord{
			Image:   bindingRecord{p.Image.DescriptorSet, p.Image.Binding},
			Sampler: bindingRecord{p.Sampler.DescriptorSet, p.Sampler.Binding},
		})
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	runCmd.Flags().Bool("strip-debug", false, "remove names, strings, source and line information")
	runCmd.Flags().StringArray("remove-decoration", nil, "remove a decoration, by number or name (repeatable)")
	runCmd.Flags().String("push-constant", "", "turn the push-constant block into a uniform buffer at set:binding")
	runCmd.Flags().StringArray("remap", nil, "remap set:binding=set:binding or set:*=set:* (repeatable)")
	runCmd.Flags().Bool("separate-samplers", false, "split combined image samplers")
	runCmd.Flags().String("pairs", "", "write the image/sampler pairs as JSON to this file")
	runCmd.Flags().Bool("validate", false, "run spirv-val on the result before writing it")
}
