package util

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/boynton/lumos/logger"
)

// IsSymbolChar reports whether ch may appear in an identifier. Identifiers may begin with '_'.
func IsSymbolChar(ch rune, first bool) bool {
	if IsLetter(ch) || ch == '_' {
		return true
	}
	if first {
		return false
	}
	return IsDigit(ch)
}

func IsSymbol(s string) bool {
	if s == "" || s == "_" {
		return false
	}
	for i, c := range s {
		if !IsSymbolChar(c, i == 0) {
			return false
		}
	}
	return true
}

func IsWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func IsDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func IsLetter(ch rune) bool {
	return IsUppercaseLetter(ch) || IsLowercaseLetter(ch)
}

func IsUppercaseLetter(ch rune) bool {
	return ch >= 'A' && ch <= 'Z'
}

func IsLowercaseLetter(ch rune) bool {
	return ch >= 'a' && ch <= 'z'
}

// Debug joins its arguments the way fmt.Print would and sends them to the debug log.
func Debug(args ...interface{}) {
	if len(args) == 0 {
		return
	}
	logger.Logger.Debug(fmt.Sprint(args...))
}

// Pretty renders obj as indented JSON, falling back to %v if it cannot be marshaled.
func Pretty(obj interface{}) string {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return fmt.Sprint(obj)
	}
	return buf.String()
}

// FormatComment wraps comment at maxcol, prefixing every line with indent and prefix.
// Comments that already contain newlines are emitted line for line.
func FormatComment(indent, prefix, comment string, maxcol int, extraPad bool) string {
	left := len(indent)
	if maxcol <= left && !strings.Contains(comment, "\n") {
		return indent + prefix + comment + "\n"
	}
	if strings.Contains(comment, "\n") {
		var buf strings.Builder
		for _, line := range strings.Split(comment, "\n") {
			buf.WriteString(strings.TrimRight(indent+prefix+line, " "))
			buf.WriteString("\n")
		}
		return buf.String()
	}
	var buf bytes.Buffer
	col := 0
	for _, tok := range strings.Fields(comment) {
		toklen := len(tok)
		if col > 0 && col+toklen >= maxcol {
			buf.WriteString("\n")
			col = 0
		}
		if col == 0 {
			buf.WriteString(indent)
			buf.WriteString(prefix)
			buf.WriteString(tok)
			col = left + len(prefix) + toklen
		} else {
			buf.WriteString(" ")
			buf.WriteString(tok)
			col += toklen + 1
		}
	}
	buf.WriteString("\n")
	pad := ""
	if extraPad {
		pad = indent + strings.TrimRight(prefix, " ") + "\n"
	}
	return pad + buf.String() + pad
}
