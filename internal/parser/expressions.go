package parser

import (
	"strconv"

	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/token"
)

// Precedence levels, lowest to highest, per spec.md §4.2's expression
// grammar. Assignment is not an expression precedence level at all: it
// is recognized at the statement boundary (see parseBlockMember), so
// Atlas has no comma-expression/assignment-expression ambiguity to
// resolve here.
const (
	lowest = iota
	orPrec
	andPrec
	equalityPrec
	comparisonPrec
	additivePrec
	multiplicativePrec
	unaryPrec
	postfixPrec
)

func infixPrecedence(k token.Kind) int {
	switch k {
	case token.OR:
		return orPrec
	case token.AND:
		return andPrec
	case token.EQ, token.NEQ:
		return equalityPrec
	case token.LT, token.LTE, token.GT, token.GTE:
		return comparisonPrec
	case token.PLUS, token.MINUS:
		return additivePrec
	case token.STAR, token.SLASH, token.PERCENT:
		return multiplicativePrec
	case token.LPAREN, token.LBRACKET, token.DOT, token.INC, token.DEC:
		return postfixPrec
	default:
		return lowest
	}
}

// parseExpr parses an expression via precedence climbing: it keeps
// folding infix/postfix operators into left as long as their binding
// power exceeds minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePrefixExpr()
	for minPrec < infixPrecedence(p.cur().Kind) {
		left = p.parseInfixExpr(left)
	}
	return left
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	switch p.cur().Kind {
	case token.INT, token.FLOAT:
		return p.parseNumberLiteral()
	case token.STRING:
		t := p.advance()
		return &ast.StringLiteral{SpanVal: t.Span, Value: t.Literal}
	case token.TRUE:
		t := p.advance()
		return &ast.BoolLiteral{SpanVal: t.Span, Value: true}
	case token.FALSE:
		t := p.advance()
		return &ast.BoolLiteral{SpanVal: t.Span, Value: false}
	case token.NULL:
		t := p.advance()
		return &ast.NullLiteral{SpanVal: t.Span}
	case token.IDENT:
		t := p.advance()
		return &ast.Identifier{SpanVal: t.Span, Name: t.Literal}
	case token.MINUS, token.BANG:
		op := p.advance()
		x := p.parseExpr(unaryPrec)
		return &ast.UnaryExpr{SpanVal: op.Span.Merge(x.Span()), Op: op.Kind, X: x}
	case token.LPAREN:
		return p.parseParenExpr()
	case token.LBRACKET:
		return p.parseArrayLiteral()
	case token.LBRACE:
		return p.parseBraceExpr()
	case token.IF:
		return p.parseIfExpr()
	case token.MATCH:
		return p.parseMatchExpr()
	case token.FN:
		return p.parseLambdaFnExpr()
	default:
		sp := p.cur().Span
		p.diags.Errorf(diag.ErrSyntaxUnexpectedToken, sp, "expected an expression, found %s", p.cur().Kind)
		p.advance()
		return &ast.ErrorExpr{SpanVal: sp}
	}
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	switch p.cur().Kind {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE:
		op := p.advance().Kind
		prec := infixPrecedence(op)
		right := p.parseExpr(prec)
		return &ast.BinaryExpr{SpanVal: left.Span().Merge(right.Span()), Op: op, X: left, Y: right}
	case token.AND, token.OR:
		op := p.advance().Kind
		prec := infixPrecedence(op)
		right := p.parseExpr(prec)
		return &ast.LogicalExpr{SpanVal: left.Span().Merge(right.Span()), Op: op, X: left, Y: right}
	case token.LPAREN:
		return p.parseCallExpr(left)
	case token.LBRACKET:
		p.advance()
		index := p.parseExpr(lowest)
		end := p.expect(token.RBRACKET).Span
		return &ast.IndexExpr{SpanVal: left.Span().Merge(end), X: left, Index: index}
	case token.DOT:
		p.advance()
		name := p.expect(token.IDENT)
		return &ast.MemberExpr{SpanVal: left.Span().Merge(name.Span), X: left, Name: name.Literal}
	case token.INC, token.DEC:
		op := p.advance()
		return &ast.PostfixExpr{SpanVal: left.Span().Merge(op.Span), Op: op.Kind, X: left}
	default:
		return left
	}
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	t := p.advance()
	v, err := strconv.ParseFloat(t.Literal, 64)
	if err != nil {
		p.diags.Errorf(diag.ErrSyntaxUnexpectedToken, t.Span, "invalid numeric literal %q", t.Literal)
	}
	return &ast.NumberLiteral{SpanVal: t.Span, Value: v}
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	p.expect(token.LPAREN)
	var args []ast.Expr
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		before := p.pos
		args = append(args, p.parseExpr(lowest))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	end := p.expect(token.RPAREN).Span
	return &ast.CallExpr{SpanVal: callee.Span().Merge(end), Callee: callee, Args: args}
}

func (p *Parser) parseArrayLiteral() ast.Expr {
	start := p.expect(token.LBRACKET).Span
	var elems []ast.Expr
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		before := p.pos
		elems = append(elems, p.parseExpr(lowest))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	end := p.expect(token.RBRACKET).Span
	return &ast.ArrayLiteral{SpanVal: start.Merge(end), Elements: elems}
}

// parseBraceExpr disambiguates `{` starting an object literal from `{`
// starting a block expression, by looking ahead for the `key:` shape of
// an object field. An empty `{}` is treated as an empty object literal.
func (p *Parser) parseBraceExpr() ast.Expr {
	if p.peek(1).Kind == token.RBRACE {
		return p.parseObjectLiteral()
	}
	keyish := p.peek(1).Kind == token.IDENT || p.peek(1).Kind == token.STRING
	if keyish && p.peek(2).Kind == token.COLON {
		return p.parseObjectLiteral()
	}
	return p.parseBlockExpr()
}

func (p *Parser) parseObjectLiteral() ast.Expr {
	start := p.expect(token.LBRACE).Span
	var keys []string
	var values []ast.Expr
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		var key string
		switch p.cur().Kind {
		case token.IDENT, token.STRING:
			key = p.advance().Literal
		default:
			p.diags.Errorf(diag.ErrSyntaxUnexpectedToken, p.cur().Span, "expected an object key, found %s", p.cur().Kind)
			key = "<error>"
		}
		p.expect(token.COLON)
		val := p.parseExpr(lowest)
		keys = append(keys, key)
		values = append(values, val)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	end := p.expect(token.RBRACE).Span
	return &ast.ObjectLiteral{SpanVal: start.Merge(end), Keys: keys, Values: values}
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.expect(token.IF).Span
	p.expect(token.LPAREN)
	cond := p.parseExpr(lowest)
	p.expect(token.RPAREN)
	then := p.parseBlockExpr()
	var elseExpr ast.Expr
	end := then.Span()
	if _, ok := p.accept(token.ELSE); ok {
		if p.at(token.IF) {
			elseExpr = p.parseIfExpr()
		} else {
			elseExpr = p.parseBlockExpr()
		}
		end = elseExpr.Span()
	}
	return &ast.IfExpr{SpanVal: start.Merge(end), Cond: cond, Then: then, Else: elseExpr}
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.expect(token.MATCH).Span
	p.expect(token.LPAREN)
	subject := p.parseExpr(lowest)
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	var arms []*ast.MatchArm
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		arms = append(arms, p.parseMatchArm())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	end := p.expect(token.RBRACE).Span
	return &ast.MatchExpr{SpanVal: start.Merge(end), Subject: subject, Arms: arms}
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	start := p.cur().Span
	pattern := p.parsePattern()
	var guard ast.Expr
	if _, ok := p.accept(token.IF); ok {
		guard = p.parseExpr(lowest)
	}
	p.expect(token.FATARROW)
	body := p.parseExpr(lowest)
	return &ast.MatchArm{SpanVal: start.Merge(body.Span()), Pattern: pattern, Guard: guard, Body: body}
}

func (p *Parser) parsePattern() ast.Pattern {
	if p.at(token.IDENT) && p.cur().Literal == "_" {
		t := p.advance()
		return &ast.WildcardPattern{SpanVal: t.Span}
	}
	if p.at(token.IDENT) {
		t := p.advance()
		return &ast.IdentPattern{SpanVal: t.Span, Name: t.Literal}
	}
	start := p.cur().Span
	neg := false
	if _, ok := p.accept(token.MINUS); ok {
		neg = true
	}
	switch p.cur().Kind {
	case token.INT, token.FLOAT:
		t := p.advance()
		v, _ := strconv.ParseFloat(t.Literal, 64)
		if neg {
			v = -v
		}
		return &ast.LiteralPattern{SpanVal: start.Merge(t.Span), Value: &ast.NumberLiteral{SpanVal: t.Span, Value: v}}
	case token.STRING:
		t := p.advance()
		return &ast.LiteralPattern{SpanVal: t.Span, Value: &ast.StringLiteral{SpanVal: t.Span, Value: t.Literal}}
	case token.TRUE:
		t := p.advance()
		return &ast.LiteralPattern{SpanVal: t.Span, Value: &ast.BoolLiteral{SpanVal: t.Span, Value: true}}
	case token.FALSE:
		t := p.advance()
		return &ast.LiteralPattern{SpanVal: t.Span, Value: &ast.BoolLiteral{SpanVal: t.Span, Value: false}}
	case token.NULL:
		t := p.advance()
		return &ast.LiteralPattern{SpanVal: t.Span, Value: &ast.NullLiteral{SpanVal: t.Span}}
	default:
		p.diags.Errorf(diag.ErrSyntaxUnexpectedToken, p.cur().Span, "expected a pattern, found %s", p.cur().Kind)
		sp := p.cur().Span
		p.advance()
		return &ast.LiteralPattern{SpanVal: sp, Value: &ast.ErrorExpr{SpanVal: sp}}
	}
}

func (p *Parser) parseLambdaFnExpr() ast.Expr {
	start := p.expect(token.FN).Span
	params := p.parseParams()
	var ret ast.TypeExpr
	if _, ok := p.accept(token.ARROW); ok {
		ret = p.parseTypeExpr()
	}
	body := p.parseBlockExpr()
	return &ast.LambdaExpr{SpanVal: start.Merge(body.Span()), Params: params, ReturnType: ret, Body: body, IsArrow: false}
}

// parseParenExpr resolves the `(` ambiguity between a grouped
// expression and an arrow lambda's parameter list by scanning ahead to
// the matching `)` and checking whether `=>` follows it.
func (p *Parser) parseParenExpr() ast.Expr {
	openIdx := p.pos
	closeIdx := p.findMatchingParen(openIdx)
	if closeIdx+1 < len(p.toks) && p.toks[closeIdx+1].Kind == token.FATARROW {
		return p.parseArrowLambda()
	}
	p.expect(token.LPAREN)
	inner := p.parseExpr(lowest)
	p.expect(token.RPAREN)
	return inner
}

func (p *Parser) parseArrowLambda() ast.Expr {
	start := p.cur().Span
	params := p.parseParams()
	p.expect(token.FATARROW)
	var body ast.Expr
	if p.at(token.LBRACE) {
		body = p.parseBraceExpr()
	} else {
		body = p.parseExpr(lowest)
	}
	return &ast.LambdaExpr{SpanVal: start.Merge(body.Span()), Params: params, Body: body, IsArrow: true}
}

func (p *Parser) findMatchingParen(openIdx int) int {
	depth := 0
	for i := openIdx; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(p.toks) - 1
}
