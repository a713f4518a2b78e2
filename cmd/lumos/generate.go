package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/boynton/lumos"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/logger"
	"github.com/boynton/lumos/rust"
	"github.com/boynton/lumos/typescript"
	"github.com/boynton/lumos/util"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const (
	rustFile       = "generated.rs"
	typescriptFile = "generated.ts"
)

var (
	outputDir   string
	forceWrite  bool
	watchSource bool
	anchorMode  string
)

var generateCmd = &cobra.Command{
	Use:   "generate <schema>",
	Short: "Generate Rust and TypeScript code from a schema",
	Long: `Generate generated.rs and generated.ts from a .lumos schema (or a legacy .toml schema).

Existing files are only replaced with --force. With --watch the schema is recompiled on
every change until interrupted, and regeneration always overwrites.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
	generateCmd.Flags().BoolVarP(&forceWrite, "force", "f", false, "Overwrite existing generated files")
	generateCmd.Flags().BoolVarP(&watchSource, "watch", "w", false, "Regenerate whenever the schema changes")
	generateCmd.Flags().StringVar(&anchorMode, "anchor", rust.AnchorAuto, "Anchor mode for Rust output: auto, always, never")
}

// output is one generated file.
type output struct {
	Name    string
	Content string
}

// render produces every generated file for a schema, always in the same order.
func render(schema lumos.Schema, conf *util.Data) []output {
	return []output{
		{Name: rustFile, Content: rust.Generate(schema, conf)},
		{Name: typescriptFile, Content: typescript.Generate(schema, conf)},
	}
}

func compileWithSource(path string, conf *util.Data) (lumos.Schema, error) {
	schema, err := lumos.CompileFile(path)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		logger.Logger.Warnw("schema declares no types", "file", path)
	}
	conf.Put("source", filepath.Base(path))
	return schema, nil
}

// generate compiles path and writes the generated files into dir.
func generate(path string, dir string, conf *util.Data) ([]string, error) {
	schema, err := compileWithSource(path, conf)
	if err != nil {
		return nil, err
	}
	gen := &lumos.Generator{Config: conf, OutDir: dir}
	outputs := render(schema, conf)
	names := make([]string, 0, len(outputs))
	for _, out := range outputs {
		names = append(names, out.Name)
	}
	if err := gen.CheckOverwrite(names...); err != nil {
		return nil, err
	}
	var written []string
	for _, out := range outputs {
		gen.WriteFile(out.Name, out.Content)
		if gen.Err != nil {
			return written, gen.Err
		}
		written = append(written, filepath.Join(dir, out.Name))
	}
	logger.Logger.Debugw("generated", "source", path, "types", len(schema), "files", written)
	return written, nil
}

// stale lists the generated files in dir that are missing or differ from what path
// would generate now.
func stale(path string, dir string, conf *util.Data) ([]string, error) {
	schema, err := compileWithSource(path, conf)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, o := range render(schema, conf) {
		existing, err := os.ReadFile(filepath.Join(dir, o.Name))
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "cannot read %s", o.Name)
		}
		if err != nil || !bytes.Equal(existing, []byte(o.Content)) {
			out = append(out, o.Name)
		}
	}
	return out, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if watchSource {
		conf.Put("force-overwrite", true)
		return watch(cmd.Context(), args[0], outputDir, conf)
	}
	written, err := generate(args[0], outputDir, conf)
	if err != nil {
		return err
	}
	for _, f := range written {
		pterm.Success.Printfln("Wrote %s", f)
	}
	return nil
}

var checkCmd = &cobra.Command{
	Use:   "check <schema>",
	Short: "Check that generated files are up to date",
	Long: `Regenerate in memory and compare byte for byte with the files in the output directory.

Exits non-zero when any generated file is missing or differs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		files, err := stale(args[0], outputDir, conf)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			pterm.Success.Println("Generated files are up to date")
			return nil
		}
		for _, f := range files {
			pterm.Error.Printfln("%s is out of date", filepath.Join(outputDir, f))
		}
		return errors.Newf("%d generated file(s) out of date - run 'lumos generate %s --force'", len(files), args[0])
	},
}

func init() {
	checkCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory holding the generated files")
	checkCmd.Flags().StringVar(&anchorMode, "anchor", rust.AnchorAuto, "Anchor mode for Rust output: auto, always, never")
}
