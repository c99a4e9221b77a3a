package parser

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/token"
)

// parseTypeExpr parses a type annotation: a union of one or more type
// terms joined by `|`.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	first := p.parseTypeTerm()
	if !p.at(token.OR) {
		return first
	}
	members := []ast.TypeExpr{first}
	for {
		if _, ok := p.accept(token.OR); !ok {
			break
		}
		members = append(members, p.parseTypeTerm())
	}
	return &ast.UnionTypeExpr{SpanVal: first.Span().Merge(members[len(members)-1].Span()), Members: members}
}

// parseTypeTerm parses one named/function type, followed by any number
// of `[]` array suffixes.
func (p *Parser) parseTypeTerm() ast.TypeExpr {
	var base ast.TypeExpr
	switch p.cur().Kind {
	case token.LPAREN:
		base = p.parseFunctionTypeExpr()
	case token.IDENT:
		base = p.parseNamedTypeExpr()
	default:
		sp := p.cur().Span
		p.diags.Errorf(diag.ErrSyntaxUnexpectedToken, sp, "expected a type, found %s", p.cur().Kind)
		base = &ast.NamedTypeExpr{SpanVal: sp, Name: "<error>"}
	}
	for p.at(token.LBRACKET) && p.peek(1).Kind == token.RBRACKET {
		start := base.Span()
		p.advance()
		end := p.advance().Span
		base = &ast.ArrayTypeExpr{SpanVal: start.Merge(end), Elem: base}
	}
	return base
}

func (p *Parser) parseNamedTypeExpr() ast.TypeExpr {
	nameTok := p.advance()
	start := nameTok.Span
	end := nameTok.Span
	var args []ast.TypeExpr
	if _, ok := p.accept(token.LT); ok {
		for !p.at(token.GT) && !p.at(token.EOF) {
			before := p.pos
			args = append(args, p.parseTypeExpr())
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
			p.progress(before)
		}
		end = p.expect(token.GT).Span
	}
	switch nameTok.Literal {
	case "Option":
		if len(args) == 1 {
			return &ast.OptionTypeExpr{SpanVal: start.Merge(end), Inner: args[0]}
		}
	case "Result":
		if len(args) == 2 {
			return &ast.ResultTypeExpr{SpanVal: start.Merge(end), Ok: args[0], Err: args[1]}
		}
	}
	return &ast.NamedTypeExpr{SpanVal: start.Merge(end), Name: nameTok.Literal, Args: args}
}

func (p *Parser) parseFunctionTypeExpr() ast.TypeExpr {
	start := p.expect(token.LPAREN).Span
	var params []ast.TypeExpr
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		before := p.pos
		params = append(params, p.parseTypeExpr())
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		p.progress(before)
	}
	p.expect(token.RPAREN)
	p.expect(token.ARROW)
	ret := p.parseTypeExpr()
	return &ast.FunctionTypeExpr{SpanVal: start.Merge(ret.Span()), Params: params, Return: ret}
}
