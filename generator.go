package lumos

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/util"
)

// Generator is the shared emitter for the code generators. Output is accumulated between
// Begin and End; the first write error sticks in Err and suppresses further output.
type Generator struct {
	Config *util.Data
	OutDir string
	Err    error
	buf    bytes.Buffer
	writer *bufio.Writer
}

func (gen *Generator) GetConfigBool(k string, defaultValue bool) bool {
	return gen.Config.GetBoolOr(defaultValue, k)
}

func (gen *Generator) Begin() {
	if gen.Err != nil {
		return
	}
	gen.buf.Reset()
	gen.writer = bufio.NewWriter(&gen.buf)
}

func (gen *Generator) Emit(s string) {
	if gen.Err == nil && gen.writer != nil {
		_, gen.Err = gen.writer.WriteString(s)
	}
}

func (gen *Generator) Emitf(format string, args ...interface{}) {
	gen.Emit(fmt.Sprintf(format, args...))
}

// EmitTemplate executes a text/template against data and emits the result.
func (gen *Generator) EmitTemplate(name string, tmplSource string, data interface{}, funcMap template.FuncMap) {
	if gen.Err != nil {
		return
	}
	tmpl, err := template.New(name).Funcs(funcMap).Parse(tmplSource)
	if err != nil {
		gen.Err = err
		return
	}
	var b bytes.Buffer
	writer := bufio.NewWriter(&b)
	if gen.Err = tmpl.Execute(writer, data); gen.Err != nil {
		return
	}
	if gen.Err = writer.Flush(); gen.Err != nil {
		return
	}
	gen.Emit(b.String())
}

func (gen *Generator) End() string {
	if gen.Err != nil || gen.writer == nil {
		return ""
	}
	gen.Err = gen.writer.Flush()
	return gen.buf.String()
}

// EmitHeader writes the generated-file banner unless the "header" option is false.
// The banner has no timestamp so that regenerating identical input is byte-identical.
func (gen *Generator) EmitHeader(commentPrefix string, source string) {
	if !gen.GetConfigBool("header", true) {
		return
	}
	banner := "Code generated by lumos. DO NOT EDIT."
	if source != "" {
		banner += "\nSource: " + source
	}
	gen.Emit(util.FormatComment("", commentPrefix+" ", banner, 100, false))
	gen.Emit("\n")
}

// CheckOverwrite fails with ErrCodeGen if any of names already exists under OutDir and
// "force-overwrite" is not set. Callers writing several files check them all first.
func (gen *Generator) CheckOverwrite(names ...string) error {
	if gen.GetConfigBool("force-overwrite", false) {
		return nil
	}
	for _, name := range names {
		path := filepath.Join(gen.OutDir, name)
		if FileExists(path) {
			return errors.Mark(errors.Newf("%s already exists, not overwriting", path), errors.ErrCodeGen)
		}
	}
	return nil
}

// WriteFile writes content under OutDir. An existing file is only replaced when the
// "force-overwrite" option is set.
func (gen *Generator) WriteFile(name string, content string) {
	if gen.Err != nil {
		return
	}
	if gen.Err = gen.CheckOverwrite(name); gen.Err != nil {
		return
	}
	path := filepath.Join(gen.OutDir, name)
	if gen.OutDir != "" {
		if gen.Err = os.MkdirAll(gen.OutDir, 0755); gen.Err != nil {
			return
		}
	}
	f, err := os.Create(path)
	if err != nil {
		gen.Err = err
		return
	}
	defer f.Close()
	writer := bufio.NewWriter(f)
	if _, gen.Err = writer.WriteString(content); gen.Err == nil {
		gen.Err = writer.Flush()
	}
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
