package parse

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/boynton/lumos/ast"
	"github.com/boynton/lumos/errors"
	"github.com/boynton/lumos/util"
)

// ErrorColor highlights the offending token in syntax error excerpts. Empty means plain text.
var ErrorColor = ""

//
// import "github.com/boynton/lumos/parse"
// ...
// file, err := parse.File("/some/path/schema.lumos")
//
func File(path string) (*ast.File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}
	return newParser(path, string(b)).Parse()
}

//
// import "github.com/boynton/lumos/parse"
// ...
// file, err := parse.String("struct User { id: u64 }")
//
func String(src string) (*ast.File, error) {
	return newParser("", src).Parse()
}

//----------------

type Parser struct {
	path          string
	source        string
	scanner       *util.Scanner
	lastToken     *util.Token
	prevLastToken *util.Token
	ungottenToken *util.Token
	declared      map[string]ast.Pos
}

func newParser(path, src string) *Parser {
	return &Parser{
		path:     path,
		source:   src,
		scanner:  util.NewScanner(strings.NewReader(src)),
		declared: make(map[string]ast.Pos),
	}
}

func (p *Parser) ungetToken() {
	util.Debug("ungetToken() -> ", p.lastToken)
	p.ungottenToken = p.lastToken
	p.lastToken = p.prevLastToken
}

// getToken returns the next significant token. Newlines and comments are skipped; at the
// end of input it keeps returning the EOF token.
func (p *Parser) getToken() *util.Token {
	if p.ungottenToken != nil {
		p.lastToken = p.ungottenToken
		p.ungottenToken = nil
		util.Debug("getToken() -> ", p.lastToken)
		return p.lastToken
	}
	p.prevLastToken = p.lastToken
	tok := p.scanner.Scan()
	for tok.Type == util.NEWLINE || tok.IsComment() {
		tok = p.scanner.Scan()
	}
	p.lastToken = &tok
	util.Debug("getToken() -> ", p.lastToken)
	return p.lastToken
}

func (p *Parser) peek(toktype util.TokenType) bool {
	tok := p.getToken()
	p.ungetToken()
	return tok.Type == toktype
}

func (p *Parser) pos(tok *util.Token) ast.Pos {
	return ast.Pos{Line: tok.Line, Column: tok.Start}
}

func (p *Parser) Parse() (*ast.File, error) {
	file := &ast.File{}
	var attrs []*ast.Attribute
	for {
		var err error
		var item ast.Item
		tok := p.getToken()
		if tok.Type == util.EOF {
			break
		}
		switch tok.Type {
		case util.HASH:
			if p.peek(util.BANG) {
				p.getToken()
				if err = p.expect(util.OPEN_BRACKET); err == nil {
					_, err = p.collectUntilClose(util.OPEN_BRACKET)
				}
			} else {
				var attr *ast.Attribute
				if attr, err = p.parseAttribute(); err == nil {
					attrs = append(attrs, attr)
				}
			}
		case util.SYMBOL:
			switch tok.Text {
			case "pub":
				err = p.skipVisibility()
			case "struct":
				item, err = p.parseStruct(attrs, p.pos(tok))
				attrs = nil
			case "enum":
				item, err = p.parseEnum(attrs, p.pos(tok))
				attrs = nil
			default:
				err = p.skipItem()
				attrs = nil
			}
		case util.SEMICOLON:
			/* ignore */
		case util.CLOSE_BRACE, util.CLOSE_BRACKET, util.CLOSE_PAREN:
			err = p.Error(fmt.Sprintf("Unexpected '%s'", tok.Text))
		case util.ILLEGAL:
			err = p.Error(tok.Text)
		default:
			err = p.skipItem()
			attrs = nil
		}
		if err != nil {
			return nil, err
		}
		if item != nil {
			util.Debug("parsed ", item.ItemName())
			file.Items = append(file.Items, item)
		}
	}
	if len(attrs) > 0 {
		return nil, p.Error("Attribute is not followed by a struct or enum")
	}
	if len(file.Items) == 0 {
		return nil, errors.Mark(errors.New("No struct or enum definitions found"), errors.ErrNoDeclarations)
	}
	return file, nil
}

// skipVisibility consumes the remainder of `pub`, `pub(crate)`, `pub(in path)`.
func (p *Parser) skipVisibility() error {
	if p.peek(util.OPEN_PAREN) {
		p.getToken()
		_, err := p.collectUntilClose(util.OPEN_PAREN)
		return err
	}
	return nil
}

// skipItem discards a top-level construct that is not a schema item. It ends at a ';' or
// at the '}' that closes a block opened at the top level of the item.
func (p *Parser) skipItem() error {
	start := p.lastToken
	var stack []util.TokenType
	for {
		tok := p.getToken()
		switch tok.Type {
		case util.EOF:
			if len(stack) > 0 {
				p.lastToken = start
				return p.Error("Unterminated item")
			}
			return nil
		case util.ILLEGAL:
			if strings.HasPrefix(tok.Text, "Unterminated") {
				return p.Error(tok.Text)
			}
		case util.SEMICOLON:
			if len(stack) == 0 {
				return nil
			}
		case util.OPEN_BRACE, util.OPEN_BRACKET, util.OPEN_PAREN:
			stack = append(stack, tok.Type)
		case util.CLOSE_BRACE, util.CLOSE_BRACKET, util.CLOSE_PAREN:
			if len(stack) == 0 || stack[len(stack)-1] != openerOf(tok.Type) {
				return p.Error(fmt.Sprintf("Unbalanced '%s'", tok.Text))
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 && tok.Type == util.CLOSE_BRACE {
				return nil
			}
		}
	}
}

// collectUntilClose returns the tokens between an already consumed opener and its
// matching closer, which is consumed as well.
func (p *Parser) collectUntilClose(opener util.TokenType) ([]*util.Token, error) {
	stack := []util.TokenType{opener}
	var toks []*util.Token
	for {
		tok := p.getToken()
		switch tok.Type {
		case util.EOF:
			return nil, p.endOfFileError()
		case util.ILLEGAL:
			return nil, p.Error(tok.Text)
		case util.OPEN_BRACE, util.OPEN_BRACKET, util.OPEN_PAREN:
			stack = append(stack, tok.Type)
		case util.CLOSE_BRACE, util.CLOSE_BRACKET, util.CLOSE_PAREN:
			if stack[len(stack)-1] != openerOf(tok.Type) {
				return nil, p.Error(fmt.Sprintf("Unbalanced '%s'", tok.Text))
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return toks, nil
			}
		}
		toks = append(toks, tok)
	}
}

func openerOf(closer util.TokenType) util.TokenType {
	switch closer {
	case util.CLOSE_BRACE:
		return util.OPEN_BRACE
	case util.CLOSE_BRACKET:
		return util.OPEN_BRACKET
	case util.CLOSE_PAREN:
		return util.OPEN_PAREN
	}
	return util.UNDEFINED
}

func (p *Parser) declare(name string, tok *util.Token) error {
	if prev, ok := p.declared[name]; ok {
		return p.structureError(fmt.Sprintf("Duplicate type name '%s' (first declared at %d:%d)", name, prev.Line, prev.Column))
	}
	p.declared[name] = p.pos(tok)
	return nil
}

func (p *Parser) parseStruct(attrs []*ast.Attribute, pos ast.Pos) (*ast.StructDef, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.declare(name, p.lastToken); err != nil {
		return nil, err
	}
	tok := p.getToken()
	switch tok.Type {
	case util.OPEN_BRACE:
	case util.OPEN_ANGLE:
		return nil, p.Error(fmt.Sprintf("Generic struct '%s' is not supported", name))
	case util.OPEN_PAREN, util.SEMICOLON:
		return nil, p.Error(fmt.Sprintf("Struct '%s' must declare named fields in braces", name))
	default:
		return nil, p.Error(fmt.Sprintf("Expected '{' after struct %s, found %s", name, describe(tok)))
	}
	fields, err := p.parseFields(name)
	if err != nil {
		return nil, err
	}
	return &ast.StructDef{Name: name, Attributes: attrs, Fields: fields, Pos: pos}, nil
}

// parseFields reads `name: Type` entries up to and including the closing brace. Commas
// separate fields and a trailing comma is allowed.
func (p *Parser) parseFields(owner string) ([]*ast.FieldDef, error) {
	fields := make([]*ast.FieldDef, 0)
	seen := make(map[string]bool)
	for {
		if p.peek(util.CLOSE_BRACE) {
			p.getToken()
			return fields, nil
		}
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		if seen[field.Name] {
			return nil, p.structureError(fmt.Sprintf("Duplicate field '%s' in %s", field.Name, owner))
		}
		seen[field.Name] = true
		fields = append(fields, field)
		tok := p.getToken()
		switch tok.Type {
		case util.COMMA:
		case util.CLOSE_BRACE:
			return fields, nil
		default:
			return nil, p.Error(fmt.Sprintf("Expected ',' or '}' after field '%s', found %s", field.Name, describe(tok)))
		}
	}
}

func (p *Parser) parseField() (*ast.FieldDef, error) {
	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}
	if tok := p.getToken(); tok.Type == util.SYMBOL && tok.Text == "pub" {
		if err := p.skipVisibility(); err != nil {
			return nil, err
		}
	} else {
		p.ungetToken()
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	field := &ast.FieldDef{Name: name, Attributes: attrs, Pos: p.pos(p.lastToken)}
	tok := p.getToken()
	switch tok.Type {
	case util.QUESTION:
		field.Optional = true
		if err := p.expect(util.COLON); err != nil {
			return nil, err
		}
	case util.COLON:
	default:
		return nil, p.Error(fmt.Sprintf("Expected ':' after field name '%s', found %s", name, describe(tok)))
	}
	typeTok := p.getToken()
	p.ungetToken()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if opt, ok := t.(*ast.OptionType); ok {
		if field.Optional {
			p.lastToken = typeTok
			return nil, p.Error(fmt.Sprintf("Field '%s' is marked optional twice ('?' and Option<...>)", name))
		}
		field.Optional = true
		t = opt.Elem
	}
	field.Type = t
	return field, nil
}

// parseType reads a type expression: Name, path::to::Name, [T], Option<T>, or Vec<T>.
func (p *Parser) parseType() (ast.TypeRef, error) {
	tok := p.getToken()
	switch tok.Type {
	case util.OPEN_BRACKET:
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		tok = p.getToken()
		switch tok.Type {
		case util.CLOSE_BRACKET:
			return &ast.ArrayType{Elem: elem}, nil
		case util.SEMICOLON:
			return nil, p.Error("Fixed-size arrays are not supported, use [T]")
		}
		return nil, p.Error(fmt.Sprintf("Expected ']', found %s", describe(tok)))
	case util.SYMBOL:
		pos := p.pos(tok)
		name, err := p.parsePath(tok.Text)
		if err != nil {
			return nil, err
		}
		if !p.peek(util.OPEN_ANGLE) {
			return &ast.NamedType{Name: name, Pos: pos}, nil
		}
		switch name {
		case "Option", "Vec":
			p.getToken()
			elem, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if err := p.expect(util.CLOSE_ANGLE); err != nil {
				return nil, err
			}
			if name == "Vec" {
				return &ast.ArrayType{Elem: elem}, nil
			}
			return &ast.OptionType{Elem: elem}, nil
		}
		p.getToken()
		return nil, p.Error(fmt.Sprintf("Generic type '%s<...>' is not supported", name))
	case util.ILLEGAL:
		return nil, p.Error(tok.Text)
	case util.EOF:
		return nil, p.endOfFileError()
	}
	return nil, p.Error(fmt.Sprintf("Expected a type, found %s", describe(tok)))
}

// parsePath accepts a::b::C and returns the final segment.
func (p *Parser) parsePath(first string) (string, error) {
	name := first
	for p.peek(util.COLON) {
		p.getToken()
		if err := p.expect(util.COLON); err != nil {
			return "", err
		}
		segment, err := p.expectIdentifier()
		if err != nil {
			return "", err
		}
		name = segment
	}
	return name, nil
}

func (p *Parser) parseEnum(attrs []*ast.Attribute, pos ast.Pos) (*ast.EnumDef, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	nameTok := p.lastToken
	if err := p.declare(name, nameTok); err != nil {
		return nil, err
	}
	tok := p.getToken()
	if tok.Type == util.OPEN_ANGLE {
		return nil, p.Error(fmt.Sprintf("Generic enum '%s' is not supported", name))
	}
	if tok.Type != util.OPEN_BRACE {
		return nil, p.Error(fmt.Sprintf("Expected '{' after enum %s, found %s", name, describe(tok)))
	}
	enum := &ast.EnumDef{Name: name, Attributes: attrs, Pos: pos}
	seen := make(map[string]bool)
	for {
		if p.peek(util.CLOSE_BRACE) {
			p.getToken()
			break
		}
		v, err := p.parseVariant(name)
		if err != nil {
			return nil, err
		}
		if seen[v.Name] {
			return nil, p.structureError(fmt.Sprintf("Duplicate variant '%s' in enum %s", v.Name, name))
		}
		seen[v.Name] = true
		enum.Variants = append(enum.Variants, v)
		tok = p.getToken()
		if tok.Type == util.CLOSE_BRACE {
			break
		}
		if tok.Type != util.COMMA {
			return nil, p.Error(fmt.Sprintf("Expected ',' or '}' after variant '%s', found %s", v.Name, describe(tok)))
		}
	}
	if len(enum.Variants) == 0 {
		p.lastToken = nameTok
		return nil, p.structureError(fmt.Sprintf("Enum '%s' must have at least one variant", name))
	}
	return enum, nil
}

func (p *Parser) parseVariant(enumName string) (*ast.Variant, error) {
	// variant attributes are accepted and dropped
	if _, err := p.parseAttributes(); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	v := &ast.Variant{Kind: ast.UnitVariant, Name: name, Pos: p.pos(p.lastToken)}
	tok := p.getToken()
	switch tok.Type {
	case util.OPEN_PAREN:
		v.Kind = ast.TupleVariant
		v.Types = make([]ast.TypeRef, 0)
		for !p.peek(util.CLOSE_PAREN) {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			v.Types = append(v.Types, t)
			if !p.peek(util.COMMA) {
				break
			}
			p.getToken()
		}
		if err := p.expect(util.CLOSE_PAREN); err != nil {
			return nil, err
		}
	case util.OPEN_BRACE:
		v.Kind = ast.StructVariant
		if v.Fields, err = p.parseFields(enumName + "::" + name); err != nil {
			return nil, err
		}
	case util.EQUALS:
		return nil, p.Error(fmt.Sprintf("Explicit discriminant on %s::%s is not supported", enumName, name))
	default:
		p.ungetToken()
	}
	return v, nil
}

func (p *Parser) parseAttributes() ([]*ast.Attribute, error) {
	var attrs []*ast.Attribute
	for p.peek(util.HASH) {
		p.getToken()
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// parseAttribute reads the remainder of #[name], #[name(value)] or #[name = value] after the '#'.
func (p *Parser) parseAttribute() (*ast.Attribute, error) {
	if err := p.expect(util.OPEN_BRACKET); err != nil {
		return nil, err
	}
	tok := p.getToken()
	if tok.Type != util.SYMBOL {
		return nil, p.Error(fmt.Sprintf("Expected attribute name, found %s", describe(tok)))
	}
	name, err := p.parsePath(tok.Text)
	if err != nil {
		return nil, err
	}
	attr := &ast.Attribute{Name: name}
	tok = p.getToken()
	switch tok.Type {
	case util.CLOSE_BRACKET:
		return attr, nil
	case util.OPEN_PAREN:
		toks, err := p.collectUntilClose(util.OPEN_PAREN)
		if err != nil {
			return nil, err
		}
		attr.Value = attributeValue(toks)
	case util.EQUALS:
		toks, err := p.collectUntilClose(util.OPEN_BRACKET)
		if err != nil {
			return nil, err
		}
		attr.Value = attributeValue(toks)
		return attr, nil
	default:
		return nil, p.Error(fmt.Sprintf("Expected ']' or '(' in attribute '%s', found %s", name, describe(tok)))
	}
	if err := p.expect(util.CLOSE_BRACKET); err != nil {
		return nil, err
	}
	return attr, nil
}

// attributeValue interprets attribute payload tokens: an unsigned integer, then true/false,
// then a quoted string, otherwise the raw token text.
func attributeValue(toks []*util.Token) *ast.AttributeValue {
	if len(toks) == 0 {
		return nil
	}
	if len(toks) == 1 {
		tok := toks[0]
		switch tok.Type {
		case util.NUMBER:
			if n, err := strconv.ParseUint(tok.Text, 10, 64); err == nil {
				return &ast.AttributeValue{Kind: ast.IntegerValue, Integer: n}
			}
		case util.SYMBOL:
			if tok.Text == "true" || tok.Text == "false" {
				return &ast.AttributeValue{Kind: ast.BoolValue, Bool: tok.Text == "true"}
			}
		case util.STRING:
			return &ast.AttributeValue{Kind: ast.StringValue, String: tok.Text}
		}
	}
	return &ast.AttributeValue{Kind: ast.StringValue, String: rawText(toks)}
}

func rawText(toks []*util.Token) string {
	var buf strings.Builder
	for i, tok := range toks {
		text := tok.Text
		if tok.Type == util.STRING {
			text = strconv.Quote(tok.Text)
		}
		if i > 0 && spaced(toks[i-1], tok) {
			buf.WriteString(" ")
		}
		buf.WriteString(text)
	}
	return buf.String()
}

func spaced(prev, tok *util.Token) bool {
	switch tok.Type {
	case util.COMMA, util.CLOSE_PAREN, util.CLOSE_BRACKET, util.CLOSE_BRACE, util.DOT, util.COLON:
		return false
	}
	switch prev.Type {
	case util.OPEN_PAREN, util.OPEN_BRACKET, util.OPEN_BRACE, util.DOT, util.COLON, util.MINUS:
		return false
	}
	return true
}

func describe(tok *util.Token) string {
	switch tok.Type {
	case util.EOF:
		return "end of file"
	case util.SYMBOL, util.NUMBER:
		return fmt.Sprintf("'%s'", tok.Text)
	case util.STRING:
		return strconv.Quote(tok.Text)
	}
	return fmt.Sprintf("'%s'", tok.Text)
}

// Error reports a syntax error at the last token read, with an excerpt of the source.
func (p *Parser) Error(msg string) error {
	util.Debug("*** error, last token: ", p.lastToken)
	return errors.Mark(errors.New(p.annotate(msg)), errors.ErrSyntax)
}

func (p *Parser) structureError(msg string) error {
	return errors.Mark(errors.New(p.annotate(msg)), errors.ErrStructure)
}

func (p *Parser) annotate(msg string) string {
	return strings.TrimRight(util.FormattedAnnotation(p.path, p.source, "", msg, p.lastToken, ErrorColor, 2), "\n")
}

func (p *Parser) endOfFileError() error {
	return p.Error("Unexpected end of file")
}

func (p *Parser) expectIdentifier() (string, error) {
	tok := p.getToken()
	switch tok.Type {
	case util.SYMBOL:
		return tok.Text, nil
	case util.EOF:
		return "", p.endOfFileError()
	case util.ILLEGAL:
		return "", p.Error(tok.Text)
	}
	return "", p.Error(fmt.Sprintf("Expected identifier, found %s", describe(tok)))
}

func (p *Parser) expect(toktype util.TokenType) error {
	tok := p.getToken()
	if tok.Type == toktype {
		return nil
	}
	switch tok.Type {
	case util.EOF:
		return p.endOfFileError()
	case util.ILLEGAL:
		return p.Error(tok.Text)
	}
	return p.Error(fmt.Sprintf("Expected %v, found %s", toktype, describe(tok)))
}
