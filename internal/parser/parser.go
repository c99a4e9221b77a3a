// Package parser turns a token stream into an *ast.Program using
// recursive descent for statements/items and Pratt precedence climbing
// for expressions. Like the lexer, it never gives up: a token that
// cannot start an expression is replaced with an *ast.ErrorExpr
// sentinel, a missing expected token is recorded (AT1011) without being
// consumed, and a top-level item that consumes nothing makes the loop
// skip one token, so one syntax error never hides the rest of the
// file's diagnostics. No parse path calls synchronize(): parsing does
// not skip ahead to the next `;`, `}` or item keyword after an error.
//
// The token-buffer-plus-index shape (rather than a streaming
// lexer.Next() call per token) and the synchronize() helper are
// generalized from the teacher's internal/parser.Parser, adapted to
// Atlas's expression-oriented grammar (if/block/match all produce
// values, so statements and expressions are parsed through a shared
// "tail expression" path that the teacher's statement-oriented grammar
// does not need).
package parser

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/lexer"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/token"
)

// Parser parses a pre-tokenized Atlas source buffer.
type Parser struct {
	toks  []token.Token
	pos   int
	diags diag.Bag
}

// New constructs a Parser over an already-scanned token stream.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse tokenizes and parses src in one step, merging lexer and parser
// diagnostics into a single bag.
func Parse(src string) (*ast.Program, *diag.Bag) {
	toks, lexDiags := lexer.Tokenize(src)
	p := New(toks)
	prog := p.ParseProgram()
	p.diags.Extend(lexDiags)
	return prog, &p.diags
}

// Diagnostics returns every diagnostic recorded while parsing.
func (p *Parser) Diagnostics() *diag.Bag { return &p.diags }

// ParseProgram parses every top-level item until EOF. A program may mix
// declarations (fn/let/var/export/import/type/trait) with script-style
// executable statements and a final tail expression, since spec.md §8's
// testable scenarios are themselves bare top-level code (see
// ast.ProgramTail's doc comment).
func (p *Parser) ParseProgram() *ast.Program {
	var items []ast.Item
	for !p.at(token.EOF) {
		start := p.pos
		item := p.parseItem()
		if item != nil {
			items = append(items, item)
			if _, isTail := item.(*ast.ProgramTail); isTail {
				break
			}
		}
		if p.pos == start {
			// parseItem made no progress; force it to avoid looping forever.
			p.advance()
		}
	}
	return &ast.Program{Items: items}
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) peek(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes the current token if it matches k, otherwise records
// AT1011 and returns the (unconsumed) current token so callers can still
// read its span.
func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.diags.Errorf(diag.ErrSyntaxExpectedToken, p.cur().Span, "expected %s, found %s", k, p.cur().Kind)
	return p.cur()
}

// synchronize advances past tokens until it finds a plausible recovery
// point: a statement terminator, a block boundary, or a keyword that
// starts a new item/statement.
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		if p.at(token.SEMI) {
			p.advance()
			return
		}
		switch p.cur().Kind {
		case token.RBRACE, token.FN, token.LET, token.VAR, token.IF, token.WHILE,
			token.FOR, token.RETURN, token.BREAK, token.CONTINUE, token.MATCH,
			token.IMPORT, token.EXPORT, token.TYPE, token.TRAIT:
			return
		}
		p.advance()
	}
}

func (p *Parser) errorExprAt(sp span.Span) ast.Expr { return &ast.ErrorExpr{SpanVal: sp} }

// ---- items ----

func (p *Parser) parseItem() ast.Item {
	switch p.cur().Kind {
	case token.FN:
		return p.parseFnDecl()
	case token.LET:
		return p.parseLetDecl()
	case token.VAR:
		return p.parseVarDecl()
	case token.EXPORT:
		return p.parseExportDecl()
	case token.IMPORT:
		return p.parseImportDecl()
	case token.TYPE:
		return p.parseTypeDecl()
	case token.TRAIT:
		return p.parseTraitDecl()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.BREAK:
		sp := p.advance().Span
		end := p.expect(token.SEMI).Span
		return &ast.BreakStmt{SpanVal: sp.Merge(end)}
	case token.CONTINUE:
		sp := p.advance().Span
		end := p.expect(token.SEMI).Span
		return &ast.ContinueStmt{SpanVal: sp.Merge(end)}
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForOrForIn().(ast.Item)
	default:
		return p.parseTopLevelExprOrTail()
	}
}

// parseTopLevelExprOrTail parses a bare expression at the top level: an
// expression statement, a simple/compound assignment, or — if nothing
// follows but EOF — the program's final ast.ProgramTail value (the
// top-level analogue of parseBlockMember's tail-expression case, with
// EOF standing in for the enclosing block's `}`).
func (p *Parser) parseTopLevelExprOrTail() ast.Item {
	exprStart := p.cur().Span
	expr := p.parseExpr(lowest)

	if token.IsAssignOp(p.cur().Kind) {
		op := p.advance().Kind
		value := p.parseExpr(lowest)
		end := p.expect(token.SEMI).Span
		return &ast.AssignStmt{SpanVal: exprStart.Merge(end), Target: expr, Op: op, Value: value}
	}

	if p.at(token.SEMI) {
		end := p.advance().Span
		return &ast.ExprStmt{SpanVal: exprStart.Merge(end), X: expr}
	}

	if p.at(token.EOF) {
		return &ast.ProgramTail{SpanVal: exprStart.Merge(expr.Span()), X: expr}
	}

	if blockTerminated(expr) {
		return &ast.ExprStmt{SpanVal: exprStart.Merge(expr.Span()), X: expr}
	}

	p.diags.Errorf(diag.ErrSyntaxExpectedToken, p.cur().Span, "expected ';' after expression statement, found %s", p.cur().Kind)
	return &ast.ExprStmt{SpanVal: exprStart.Merge(expr.Span()), X: expr}
}

func (p *Parser) parseTypeParams() []string {
	if _, ok := p.accept(token.LT); !ok {
		return nil
	}
	var names []string
	for !p.at(token.GT) && !p.at(token.EOF) {
		before := p.pos
		t := p.expect(token.IDENT)
		names = append(names, t.Literal)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	p.expect(token.GT)
	return names
}

// progress forces the parser forward by one token if a loop iteration
// consumed nothing, guarding against infinite loops when expect() fails
// to match without advancing (malformed input at a list boundary).
func (p *Parser) progress(before int) {
	if p.pos == before {
		p.advance()
	}
}

func (p *Parser) parseParams() []*ast.Param {
	p.expect(token.LPAREN)
	var params []*ast.Param
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		before := p.pos
		start := p.cur().Span
		ownership := ast.OwnershipDefault
		switch p.cur().Kind {
		case token.OWN:
			p.advance()
			ownership = ast.OwnershipOwn
		case token.BORROW:
			p.advance()
			ownership = ast.OwnershipBorrow
		}
		nameTok := p.expect(token.IDENT)
		var typeAnn ast.TypeExpr
		if _, ok := p.accept(token.COLON); ok {
			typeAnn = p.parseTypeExpr()
		}
		end := p.toks[p.pos-1].Span
		params = append(params, &ast.Param{
			SpanVal:   start.Merge(end),
			Name:      nameTok.Literal,
			TypeAnn:   typeAnn,
			Ownership: ownership,
		})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseFnDecl() *ast.FnDecl {
	start := p.expect(token.FN).Span
	nameTok := p.expect(token.IDENT)
	typeParams := p.parseTypeParams()
	params := p.parseParams()
	var ret ast.TypeExpr
	if _, ok := p.accept(token.ARROW); ok {
		ret = p.parseTypeExpr()
	}
	body := p.parseBlockExpr()
	return &ast.FnDecl{
		SpanVal:    start.Merge(body.Span()),
		Name:       nameTok.Literal,
		TypeParams: typeParams,
		Params:     params,
		ReturnType: ret,
		Body:       body,
	}
}

func (p *Parser) parseLetDecl() *ast.LetDecl {
	start := p.expect(token.LET).Span
	nameTok := p.expect(token.IDENT)
	var typeAnn ast.TypeExpr
	if _, ok := p.accept(token.COLON); ok {
		typeAnn = p.parseTypeExpr()
	}
	p.expect(token.ASSIGN)
	value := p.parseExpr(lowest)
	end := p.expect(token.SEMI).Span
	return &ast.LetDecl{SpanVal: start.Merge(end), Name: nameTok.Literal, TypeAnn: typeAnn, Value: value}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.expect(token.VAR).Span
	nameTok := p.expect(token.IDENT)
	var typeAnn ast.TypeExpr
	if _, ok := p.accept(token.COLON); ok {
		typeAnn = p.parseTypeExpr()
	}
	p.expect(token.ASSIGN)
	value := p.parseExpr(lowest)
	end := p.expect(token.SEMI).Span
	return &ast.VarDecl{SpanVal: start.Merge(end), Name: nameTok.Literal, TypeAnn: typeAnn, Value: value}
}

func (p *Parser) parseExportDecl() *ast.ExportDecl {
	start := p.expect(token.EXPORT).Span
	inner := p.parseItem()
	if inner == nil {
		return &ast.ExportDecl{SpanVal: start, Inner: &ast.LetDecl{SpanVal: start, Value: p.errorExprAt(start)}}
	}
	return &ast.ExportDecl{SpanVal: start.Merge(inner.Span()), Inner: inner}
}

func (p *Parser) parseImportDecl() *ast.ImportDecl {
	start := p.expect(token.IMPORT).Span
	p.expect(token.LBRACE)
	var names []string
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		t := p.expect(token.IDENT)
		names = append(names, t.Literal)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	p.expect(token.RBRACE)
	// `from` is contextually recognized: not a reserved keyword, just an
	// identifier whose literal must read "from".
	fromTok := p.expect(token.IDENT)
	if fromTok.Literal != "from" {
		p.diags.Errorf(diag.ErrSyntaxUnexpectedToken, fromTok.Span, "expected 'from', found %q", fromTok.Literal)
	}
	pathTok := p.expect(token.STRING)
	end := p.expect(token.SEMI).Span
	return &ast.ImportDecl{SpanVal: start.Merge(end), Path: pathTok.Literal, Names: names}
}

func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	start := p.expect(token.TYPE).Span
	nameTok := p.expect(token.IDENT)
	typeParams := p.parseTypeParams()
	p.expect(token.ASSIGN)
	def := p.parseTypeExpr()
	end := p.expect(token.SEMI).Span
	return &ast.TypeDecl{SpanVal: start.Merge(end), Name: nameTok.Literal, TypeParams: typeParams, Def: def}
}

func (p *Parser) parseTraitDecl() *ast.TraitDecl {
	start := p.expect(token.TRAIT).Span
	nameTok := p.expect(token.IDENT)
	p.expect(token.LBRACE)
	var methods []*ast.TraitMethodSig
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		mStart := p.expect(token.FN).Span
		mName := p.expect(token.IDENT)
		params := p.parseParams()
		var ret ast.TypeExpr
		if _, ok := p.accept(token.ARROW); ok {
			ret = p.parseTypeExpr()
		}
		mEnd := p.expect(token.SEMI).Span
		methods = append(methods, &ast.TraitMethodSig{
			SpanVal: mStart.Merge(mEnd), Name: mName.Literal, Params: params, ReturnType: ret,
		})
		p.progress(before)
	}
	end := p.expect(token.RBRACE).Span
	return &ast.TraitDecl{SpanVal: start.Merge(end), Name: nameTok.Literal, Methods: methods}
}
