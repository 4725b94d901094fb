package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// validator runs spirv-val over a module fed on standard input.
type validator struct {
	bin string
}

func (v *validator) validate(ctx context.Context, module []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, v.bin, "-")
	cmd.Stdin = bytes.NewReader(module)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String() + string(out))
		if msg != "" {
			return fmt.Errorf("failed to run %v: %w\n%s", cmd.Args, err, msg)
		}
		return fmt.Errorf("failed to run %v: %w", cmd.Args, err)
	}
	log.Debugf("%v: module is valid", cmd.Args)
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate input.spv",
	Short: "Check a SPIR-V binary with spirv-val.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}
		v := &validator{bin: getString(cmd, "spirv-val")}
		if err := v.validate(cmd.Context(), data); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
			os.Exit(1)
		}
		fmt.Printf("%s: ok\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
