package util

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

type TokenType int

const (
	UNDEFINED TokenType = iota
	ILLEGAL
	EOF
	LINE_COMMENT
	BLOCK_COMMENT
	SYMBOL
	NUMBER
	STRING
	COLON
	SEMICOLON
	COMMA
	DOT
	EQUALS
	QUESTION
	OPEN_BRACE
	CLOSE_BRACE
	OPEN_BRACKET
	CLOSE_BRACKET
	OPEN_PAREN
	CLOSE_PAREN
	OPEN_ANGLE
	CLOSE_ANGLE
	NEWLINE
	HASH
	BANG
	STAR
	AMPERSAND
	SLASH
	MINUS
)

var tokenTypeNames = [...]string{
	UNDEFINED:     "UNDEFINED",
	ILLEGAL:       "ILLEGAL",
	EOF:           "EOF",
	LINE_COMMENT:  "LINE_COMMENT",
	BLOCK_COMMENT: "BLOCK_COMMENT",
	SYMBOL:        "SYMBOL",
	NUMBER:        "NUMBER",
	STRING:        "STRING",
	COLON:         "COLON",
	SEMICOLON:     "SEMICOLON",
	COMMA:         "COMMA",
	DOT:           "DOT",
	EQUALS:        "EQUALS",
	QUESTION:      "QUESTION",
	OPEN_BRACE:    "OPEN_BRACE",
	CLOSE_BRACE:   "CLOSE_BRACE",
	OPEN_BRACKET:  "OPEN_BRACKET",
	CLOSE_BRACKET: "CLOSE_BRACKET",
	OPEN_PAREN:    "OPEN_PAREN",
	CLOSE_PAREN:   "CLOSE_PAREN",
	OPEN_ANGLE:    "OPEN_ANGLE",
	CLOSE_ANGLE:   "CLOSE_ANGLE",
	NEWLINE:       "NEWLINE",
	HASH:          "HASH",
	BANG:          "BANG",
	STAR:          "STAR",
	AMPERSAND:     "AMPERSAND",
	SLASH:         "SLASH",
	MINUS:         "MINUS",
}

func (tokenType TokenType) String() string {
	if int(tokenType) >= 0 && int(tokenType) < len(tokenTypeNames) {
		return tokenTypeNames[tokenType]
	}
	return "?"
}

// Token is a lexeme with its 1-based line and column.
type Token struct {
	Type  TokenType
	Text  string
	Line  int
	Start int
}

func (tok Token) String() string {
	return fmt.Sprintf("<%v %q %d:%d>", tok.Type, tok.Text, tok.Line, tok.Start)
}

func (tok Token) IsComment() bool {
	return tok.Type == LINE_COMMENT || tok.Type == BLOCK_COMMENT
}

var eof = rune(0)

type Scanner struct {
	r          *bufio.Reader
	line       int
	column     int
	prevColumn int
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r), line: 1, column: 0}
}

func (s *Scanner) read() rune {
	ch, _, err := s.r.ReadRune()
	if err != nil {
		return eof
	}
	if ch == '\n' {
		s.line = s.line + 1
		s.prevColumn = s.column + 1
		s.column = 0
	} else {
		s.column = s.column + 1
	}
	return ch
}

func (s *Scanner) unread(ch rune) {
	if ch == eof {
		return
	}
	if ch == '\n' {
		s.column = s.prevColumn - 1
		s.line = s.line - 1
	} else {
		s.column = s.column - 1
	}
	s.r.UnreadRune()
}

func (s *Scanner) startToken(tokenType TokenType) Token {
	return Token{Type: tokenType, Text: "", Line: s.line, Start: s.column}
}

func (tok Token) finish(text string) Token {
	tok.Text = text
	return tok
}

func (tok Token) illegal(text string) Token {
	tok.Type = ILLEGAL
	return tok.finish(text)
}

// Scan returns the next token. Once the input is exhausted every call returns EOF.
func (s *Scanner) Scan() Token {
	for {
		ch := s.read()
		if ch == eof {
			return Token{Type: EOF, Line: s.line, Start: s.column + 1}
		}
		if ch == '\n' {
			return Token{Type: NEWLINE, Text: "\n", Line: s.line - 1, Start: s.prevColumn}
		}
		if IsWhitespace(ch) {
			continue
		}
		switch {
		case IsSymbolChar(ch, true):
			return s.scanSymbol(ch)
		case IsDigit(ch):
			return s.scanNumber(ch)
		case ch == '/':
			return s.scanComment()
		case ch == '"':
			return s.scanString()
		}
		return s.scanPunct(ch)
	}
}

func (s *Scanner) scanSymbol(firstChar rune) Token {
	var buf bytes.Buffer
	buf.WriteRune(firstChar)
	tok := s.startToken(SYMBOL)
	for {
		ch := s.read()
		if ch == eof {
			break
		} else if !IsSymbolChar(ch, false) {
			s.unread(ch)
			break
		}
		buf.WriteRune(ch)
	}
	return tok.finish(buf.String())
}

// scanNumber accepts decimal integers and floats; digit separators ('_') are allowed and dropped.
func (s *Scanner) scanNumber(firstDigit rune) Token {
	var buf bytes.Buffer
	buf.WriteRune(firstDigit)
	tok := s.startToken(NUMBER)
	gotDecimal := false
	for {
		ch := s.read()
		if ch == eof {
			break
		}
		if IsDigit(ch) {
			buf.WriteRune(ch)
		} else if ch == '_' {
			continue
		} else if ch == '.' {
			buf.WriteRune(ch)
			if gotDecimal {
				return tok.illegal(buf.String())
			}
			gotDecimal = true
		} else if IsLetter(ch) {
			for ; IsSymbolChar(ch, false); ch = s.read() {
				buf.WriteRune(ch)
			}
			s.unread(ch)
			return tok.illegal(buf.String())
		} else {
			s.unread(ch)
			break
		}
	}
	return tok.finish(buf.String())
}

func (s *Scanner) scanComment() Token {
	tok := s.startToken(LINE_COMMENT)
	ch := s.read()
	switch ch {
	case '/':
		var buf bytes.Buffer
		for {
			ch = s.read()
			if ch == eof {
				break
			}
			if ch == '\n' {
				s.unread(ch)
				break
			}
			buf.WriteRune(ch)
		}
		return tok.finish(buf.String())
	case '*':
		tok.Type = BLOCK_COMMENT
		var buf bytes.Buffer
		depth := 1
		var prev rune
		for {
			ch = s.read()
			if ch == eof {
				return tok.illegal("Unterminated block comment")
			}
			if prev == '*' && ch == '/' {
				depth--
				if depth == 0 {
					text := buf.String()
					return tok.finish(text[:len(text)-1])
				}
				prev = 0
			} else if prev == '/' && ch == '*' {
				depth++
				prev = 0
			} else {
				prev = ch
			}
			buf.WriteRune(ch)
		}
	}
	s.unread(ch)
	tok.Type = SLASH
	return tok.finish("/")
}

func (s *Scanner) scanString() Token {
	escape := false
	var buf bytes.Buffer
	tok := s.startToken(STRING)
	for {
		ch := s.read()
		if ch == eof {
			return tok.illegal("Unterminated string")
		}
		if escape {
			switch ch {
			case 'n':
				buf.WriteRune('\n')
			case 'r':
				buf.WriteRune('\r')
			case 't':
				buf.WriteRune('\t')
			case '0':
				buf.WriteRune(0)
			case '"', '\\', '\'':
				buf.WriteRune(ch)
			case 'u':
				r, ok := s.scanUnicodeEscape()
				if !ok {
					return tok.illegal("Unicode escape must contain 4 hex digits")
				}
				buf.WriteRune(r)
			default:
				return tok.illegal("Bad escape char in string: \\" + string(ch))
			}
			escape = false
			continue
		}
		switch ch {
		case '"':
			return tok.finish(buf.String())
		case '\\':
			escape = true
		default:
			buf.WriteRune(ch)
		}
	}
}

func (s *Scanner) scanUnicodeEscape() (rune, bool) {
	var r rune
	for i := 0; i < 4; i++ {
		ch := s.read()
		if ch == eof {
			return 0, false
		}
		h := hexDigit(ch)
		if h > 15 {
			return 0, false
		}
		r = r<<4 + h
	}
	return r, true
}

func hexDigit(c rune) rune {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 100
}

func (s *Scanner) scanPunct(ch rune) Token {
	tok := s.startToken(UNDEFINED)
	tok.Text = string(ch)
	switch ch {
	case ';':
		tok.Type = SEMICOLON
	case ':':
		tok.Type = COLON
	case ',':
		tok.Type = COMMA
	case '.':
		tok.Type = DOT
	case '=':
		tok.Type = EQUALS
	case '?':
		tok.Type = QUESTION
	case '{':
		tok.Type = OPEN_BRACE
	case '}':
		tok.Type = CLOSE_BRACE
	case '[':
		tok.Type = OPEN_BRACKET
	case ']':
		tok.Type = CLOSE_BRACKET
	case '(':
		tok.Type = OPEN_PAREN
	case ')':
		tok.Type = CLOSE_PAREN
	case '<':
		tok.Type = OPEN_ANGLE
	case '>':
		tok.Type = CLOSE_ANGLE
	case '#':
		tok.Type = HASH
	case '!':
		tok.Type = BANG
	case '*':
		tok.Type = STAR
	case '&':
		tok.Type = AMPERSAND
	case '-':
		tok.Type = MINUS
	}
	return tok
}

const BLACK = "\033[0;0m"
const RED = "\033[0;31m"
const YELLOW = "\033[0;33m"
const BLUE = "\033[94m"
const GREEN = "\033[92m"

// FormattedAnnotation renders msg with contextSize lines of source on either side of tok,
// highlighting the token itself. An empty color disables highlighting.
func FormattedAnnotation(filename string, source string, prefix string, msg string, tok *Token, color string, contextSize int) string {
	highlight, restore := "", ""
	if color != "" {
		highlight = color + "\033[1m"
		restore = BLACK + "\033[0m"
	}
	if tok == nil {
		return fmt.Sprintf("%s%s", prefix, msg)
	}
	where := fmt.Sprintf("%d:%d", tok.Line, tok.Start)
	if filename != "" {
		where = path.Base(filename) + ":" + where
	}
	if source == "" || contextSize < 0 {
		return fmt.Sprintf("%s%s: %s", prefix, where, msg)
	}
	lines := strings.Split(source, "\n")
	line := tok.Line - 1
	begin := maxInt(0, line-contextSize)
	end := minInt(len(lines), line+contextSize+1)
	var buf strings.Builder
	for i := begin; i < end; i++ {
		l := lines[i]
		if i != line || tok.Start < 1 || tok.Start > len(l) {
			fmt.Fprintf(&buf, "%3d\t%v\n", i+1, l)
			continue
		}
		toklen := tokenWidth(tok)
		from := tok.Start - 1
		to := minInt(len(l), from+toklen)
		fmt.Fprintf(&buf, "%3d\t%s%s%s%s%s\n", i+1, l[:from], highlight, l[from:to], restore, l[to:])
	}
	return fmt.Sprintf("%s%s: %s%s%s\n%s", prefix, where, highlight, msg, restore, buf.String())
}

func tokenWidth(tok *Token) int {
	switch tok.Type {
	case STRING:
		return len(fmt.Sprintf("%q", tok.Text))
	case LINE_COMMENT:
		return len(tok.Text) + 2
	case ILLEGAL, EOF, NEWLINE:
		return 1
	}
	if tok.Text == "" {
		return 1
	}
	return len(tok.Text)
}

func maxInt(n1 int, n2 int) int {
	if n1 > n2 {
		return n1
	}
	return n2
}

func minInt(n1 int, n2 int) int {
	if n1 < n2 {
		return n1
	}
	return n2
}
