package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MRamiBalles/ShiftEngine/server/internal/rulepack"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rule packs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file or dir...]",
		Short: "Check rule pack files and print lint findings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRulesValidate,
	})
	return cmd
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, arg := range args {
		files, err := packFiles(arg)
		if err != nil {
			return err
		}
		for _, file := range files {
			p, err := rulepack.LoadFile(file)
			if err != nil {
				fmt.Fprintf(out, "✗ %v\n", err)
				failed++
				continue
			}
			fmt.Fprintf(out, "✓ %s: pack %q, %d rules\n", file, p.Name, len(p.Rules))
			for _, w := range p.Warnings {
				fmt.Fprintf(out, "  ! %s\n", w)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d rule pack(s) failed validation", failed)
	}
	return nil
}

func packFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && rulepack.Supported(e.Name()) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	return files, nil
}
