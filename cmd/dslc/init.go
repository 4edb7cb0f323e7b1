package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dslc/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a dslc.toml project with a sample source",
	Long: `Init writes dslc.toml and src/main.dsl into path, creating the directory
when it does not exist. The project is named after the directory unless --name
is given. An existing manifest is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "package name (default: directory name)")
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name, _ := cmd.Flags().GetString("name")
	manifest, err := project.Init(target, name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created %s\n", manifest)
	fmt.Fprintf(out, "created %s\n", filepath.Join(filepath.Dir(manifest), "src", "main.dsl"))
	return nil
}
