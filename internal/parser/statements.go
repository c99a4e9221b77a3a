package parser

import (
	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/token"
)

// blockTerminated reports whether e is a construct that already ends in
// `}` at the surface syntax level, so a trailing `;` is optional when it
// appears as a standalone statement (matches how `if`, `match`, and bare
// blocks read in the teacher's grammar notes for statement expressions).
func blockTerminated(e ast.Expr) bool {
	switch e.(type) {
	case *ast.IfExpr, *ast.BlockExpr, *ast.MatchExpr:
		return true
	case *ast.LambdaExpr:
		return !e.(*ast.LambdaExpr).IsArrow
	default:
		return false
	}
}

// parseBlockExpr parses `{ stmt* tailExpr? }`. A trailing expression not
// followed by `;` becomes the block's Tail; everything else becomes a
// Stmt in order.
func (p *Parser) parseBlockExpr() *ast.BlockExpr {
	start := p.expect(token.LBRACE).Span
	var stmts []ast.Stmt
	var tail ast.Expr

	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		beforePos := p.pos
		if stmt, isTail, tailExpr := p.parseBlockMember(); isTail {
			tail = tailExpr
			break
		} else if stmt != nil {
			stmts = append(stmts, stmt)
		}
		if p.pos == beforePos {
			p.advance()
		}
	}
	end := p.expect(token.RBRACE).Span
	return &ast.BlockExpr{SpanVal: start.Merge(end), Stmts: stmts, Tail: tail}
}

// parseBlockMember parses one member of a block body. It returns either
// a Stmt to append, or (isTail=true, tailExpr) if the member turned out
// to be the block's final, semicolon-less tail expression.
func (p *Parser) parseBlockMember() (ast.Stmt, bool, ast.Expr) {
	switch p.cur().Kind {
	case token.RETURN:
		return p.parseReturnStmt(), false, nil
	case token.BREAK:
		sp := p.advance().Span
		end := p.expect(token.SEMI).Span
		return &ast.BreakStmt{SpanVal: sp.Merge(end)}, false, nil
	case token.CONTINUE:
		sp := p.advance().Span
		end := p.expect(token.SEMI).Span
		return &ast.ContinueStmt{SpanVal: sp.Merge(end)}, false, nil
	case token.WHILE:
		return p.parseWhileStmt(), false, nil
	case token.FOR:
		return p.parseForOrForIn(), false, nil
	case token.LET:
		return p.parseLetStmt(), false, nil
	case token.VAR:
		return p.parseVarStmt(), false, nil
	case token.FN:
		return p.parseFnDecl(), false, nil
	}

	exprStart := p.cur().Span
	expr := p.parseExpr(lowest)

	if token.IsAssignOp(p.cur().Kind) {
		op := p.advance().Kind
		value := p.parseExpr(lowest)
		end := p.expect(token.SEMI).Span
		return &ast.AssignStmt{SpanVal: exprStart.Merge(end), Target: expr, Op: op, Value: value}, false, nil
	}

	if p.at(token.SEMI) {
		end := p.advance().Span
		return &ast.ExprStmt{SpanVal: exprStart.Merge(end), X: expr}, false, nil
	}

	if p.at(token.RBRACE) {
		return nil, true, expr
	}

	if blockTerminated(expr) {
		return &ast.ExprStmt{SpanVal: exprStart.Merge(expr.Span()), X: expr}, false, nil
	}

	p.diags.Errorf(diag.ErrSyntaxExpectedToken, p.cur().Span, "expected ';' after expression statement, found %s", p.cur().Kind)
	return &ast.ExprStmt{SpanVal: exprStart.Merge(expr.Span()), X: expr}, false, nil
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.expect(token.RETURN).Span
	if _, ok := p.accept(token.SEMI); ok {
		return &ast.ReturnStmt{SpanVal: start}
	}
	value := p.parseExpr(lowest)
	end := p.expect(token.SEMI).Span
	return &ast.ReturnStmt{SpanVal: start.Merge(end), Value: value}
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.expect(token.WHILE).Span
	p.expect(token.LPAREN)
	cond := p.parseExpr(lowest)
	p.expect(token.RPAREN)
	body := p.parseBlockExpr()
	return &ast.WhileStmt{SpanVal: start.Merge(body.Span()), Cond: cond, Body: body}
}

// parseForOrForIn disambiguates `for (name in iterable) body` from the
// classic three-part `for (init; cond; post) body` by looking ahead for
// an IDENT immediately followed by `in`.
func (p *Parser) parseForOrForIn() ast.Stmt {
	start := p.expect(token.FOR).Span
	p.expect(token.LPAREN)

	if p.at(token.IDENT) && p.peek(1).Kind == token.IN {
		name := p.advance().Literal
		p.advance() // `in`
		iterable := p.parseExpr(lowest)
		p.expect(token.RPAREN)
		body := p.parseBlockExpr()
		return &ast.ForInStmt{SpanVal: start.Merge(body.Span()), Name: name, Iterable: iterable, Body: body}
	}

	var init ast.Stmt
	switch p.cur().Kind {
	case token.SEMI:
		p.advance()
	case token.LET:
		init = p.parseLetStmt()
	case token.VAR:
		init = p.parseVarStmt()
	default:
		exprStart := p.cur().Span
		expr := p.parseExpr(lowest)
		if token.IsAssignOp(p.cur().Kind) {
			op := p.advance().Kind
			value := p.parseExpr(lowest)
			end := p.expect(token.SEMI).Span
			init = &ast.AssignStmt{SpanVal: exprStart.Merge(end), Target: expr, Op: op, Value: value}
		} else {
			end := p.expect(token.SEMI).Span
			init = &ast.ExprStmt{SpanVal: exprStart.Merge(end), X: expr}
		}
	}

	var cond ast.Expr
	if !p.at(token.SEMI) {
		cond = p.parseExpr(lowest)
	}
	p.expect(token.SEMI)

	var post ast.Stmt
	if !p.at(token.RPAREN) {
		postStart := p.cur().Span
		expr := p.parseExpr(lowest)
		if token.IsAssignOp(p.cur().Kind) {
			op := p.advance().Kind
			value := p.parseExpr(lowest)
			post = &ast.AssignStmt{SpanVal: postStart.Merge(value.Span()), Target: expr, Op: op, Value: value}
		} else {
			post = &ast.ExprStmt{SpanVal: postStart.Merge(expr.Span()), X: expr}
		}
	}
	p.expect(token.RPAREN)
	body := p.parseBlockExpr()
	return &ast.ForStmt{SpanVal: start.Merge(body.Span()), Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseLetStmt() *ast.LetStmt {
	start := p.expect(token.LET).Span
	nameTok := p.expect(token.IDENT)
	var typeAnn ast.TypeExpr
	if _, ok := p.accept(token.COLON); ok {
		typeAnn = p.parseTypeExpr()
	}
	p.expect(token.ASSIGN)
	value := p.parseExpr(lowest)
	end := p.expect(token.SEMI).Span
	return &ast.LetStmt{SpanVal: start.Merge(end), Name: nameTok.Literal, TypeAnn: typeAnn, Value: value}
}

func (p *Parser) parseVarStmt() *ast.VarStmt {
	start := p.expect(token.VAR).Span
	nameTok := p.expect(token.IDENT)
	var typeAnn ast.TypeExpr
	if _, ok := p.accept(token.COLON); ok {
		typeAnn = p.parseTypeExpr()
	}
	p.expect(token.ASSIGN)
	value := p.parseExpr(lowest)
	end := p.expect(token.SEMI).Span
	return &ast.VarStmt{SpanVal: start.Merge(end), Name: nameTok.Literal, TypeAnn: typeAnn, Value: value}
}
