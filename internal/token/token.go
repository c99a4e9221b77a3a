// Package token defines the lexical token kinds produced by the lexer
// and consumed by the parser.
package token

import (
	"fmt"

	"github.com/atlas-lang/atlas/internal/span"
)

// Kind classifies a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	// Literals
	INT
	FLOAT
	STRING
	TRUE
	FALSE
	NULL
	IDENT

	// Keywords
	LET
	VAR
	FN
	IF
	ELSE
	WHILE
	FOR
	IN
	RETURN
	BREAK
	CONTINUE
	MATCH
	OWN
	BORROW
	IMPORT
	EXPORT
	TYPE
	TRAIT

	// Punctuation
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	COLON
	SEMI
	DOT
	ARROW    // ->
	FATARROW // =>

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	BANG     // !
	EQ       // ==
	NEQ      // !=
	LT       // <
	LTE      // <=
	GT       // >
	GTE      // >=
	AND      // &&
	OR       // ||
	INC      // ++
	DEC      // --
	PLUSEQ   // +=
	MINUSEQ  // -=
	STAREQ   // *=
	SLASHEQ  // /=
	PERCENTEQ // %=
)

var keywords = map[string]Kind{
	"let":      LET,
	"var":      VAR,
	"fn":       FN,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"match":    MATCH,
	"own":      OWN,
	"borrow":   BORROW,
	"import":   IMPORT,
	"export":   EXPORT,
	"type":     TYPE,
	"trait":    TRAIT,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
}

// LookupIdent returns the keyword Kind for ident if it is a reserved
// word, otherwise IDENT.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF",
	INT: "INT", FLOAT: "FLOAT", STRING: "STRING",
	TRUE: "true", FALSE: "false", NULL: "null", IDENT: "IDENT",
	LET: "let", VAR: "var", FN: "fn", IF: "if", ELSE: "else",
	WHILE: "while", FOR: "for", IN: "in", RETURN: "return",
	BREAK: "break", CONTINUE: "continue", MATCH: "match",
	OWN: "own", BORROW: "borrow", IMPORT: "import", EXPORT: "export",
	TYPE: "type", TRAIT: "trait",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", COMMA: ",", COLON: ":", SEMI: ";",
	DOT: ".", ARROW: "->", FATARROW: "=>",
	ASSIGN: "=", PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	BANG: "!", EQ: "==", NEQ: "!=", LT: "<", LTE: "<=", GT: ">", GTE: ">=",
	AND: "&&", OR: "||", INC: "++", DEC: "--",
	PLUSEQ: "+=", MINUSEQ: "-=", STAREQ: "*=", SLASHEQ: "/=", PERCENTEQ: "%=",
}

func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical token: a kind, its literal source text, and
// the span it occupies.
type Token struct {
	Kind    Kind
	Literal string
	Span    span.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Literal, t.Span)
}

// IsAssignOp reports whether kind is a simple or compound assignment
// operator, used by the parser to recognize assignment statements.
func IsAssignOp(k Kind) bool {
	switch k {
	case ASSIGN, PLUSEQ, MINUSEQ, STAREQ, SLASHEQ, PERCENTEQ:
		return true
	default:
		return false
	}
}
