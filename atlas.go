// Package atlas is the embedder-facing facade over the whole pipeline
// (lex -> parse -> bind -> typecheck -> {compile -> vm, interpret}),
// mirroring the shape of the teacher's pkg/dwscript package: a thin
// wrapper an embedding Go program imports instead of reaching into
// internal/* directly.
package atlas

import (
	"context"
	"io"
	"os"

	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/atlas-lang/atlas/internal/compiler"
	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/interpreter"
	"github.com/atlas-lang/atlas/internal/parser"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/symbols"
	"github.com/atlas-lang/atlas/internal/typecheck"
	"github.com/atlas-lang/atlas/internal/value"
	"github.com/atlas-lang/atlas/internal/vm"
)

// Engine selects which of the two parity-equivalent runtimes executes a
// compiled program (spec.md §8).
type Engine int

const (
	// EngineVM runs a compiled *bytecode.Bytecode on the stack machine.
	EngineVM Engine = iota
	// EngineInterpreter walks the *ast.Program directly, skipping
	// internal/compiler entirely.
	EngineInterpreter
)

// Session holds everything one compile-and-run needs: the parsed
// program (kept so EngineInterpreter never needs a round trip through
// bytecode), its compiled form (nil until Compile succeeds), and the
// security posture every builtin call is gated against.
//
// One Session is single-use per spec.md §5 ("single-threaded evaluation
// per session"); run concurrent scripts from separate goroutines each
// with their own Session.
type Session struct {
	Security *security.Context
	Stdout   io.Writer

	prog *ast.Program
	bc   *bytecode.Bytecode
}

// NewSession constructs a Session with the given security posture.
// A nil sec is equivalent to security.Standard(); a nil stdout writes
// to os.Stdout, mirroring the teacher's interp.New(os.Stdout) default.
func NewSession(sec *security.Context, stdout io.Writer) *Session {
	if sec == nil {
		sec = security.Standard()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Session{Security: sec, Stdout: stdout}
}

// Parse lexes and parses src, binds and typechecks the result, and
// keeps the resulting *ast.Program on the session for either engine to
// run. It returns every diagnostic accumulated across the three stages
// (spec.md §7: "later stages run on partial output"); the caller should
// check bag.HasErrors() before calling Run or Compile.
func (s *Session) Parse(src string) *diag.Bag {
	prog, bag := parser.Parse(src)
	_, bindBag := symbols.Bind(prog)
	bag.Extend(bindBag)
	if bag.HasErrors() {
		s.prog = prog
		return bag
	}
	_, checkBag := typecheck.Check(prog)
	bag.Extend(checkBag)
	s.prog = prog
	return bag
}

// Compile lowers the session's parsed program to bytecode and validates
// it, the explicit step an embedder takes before EngineVM.Run or before
// persisting the result via internal/bytecode.Serialize. Parse must
// have been called first.
func (s *Session) Compile() error {
	bc, err := compiler.Compile(s.prog)
	if err != nil {
		return err
	}
	if err := bytecode.Validate(bc); err != nil {
		return err
	}
	s.bc = bc
	return nil
}

// Run executes the session's program on the requested engine and
// returns its final value, or the diag.Diagnostic an uncaught runtime
// error produced. ctx is checked at every function-call boundary
// (spec.md §5); pass context.Background() for an uncancellable run.
// EngineVM requires a prior successful Compile.
func (s *Session) Run(ctx context.Context, engine Engine) (value.Value, *diag.Diagnostic) {
	switch engine {
	case EngineVM:
		if s.bc == nil {
			return nil, diag.New(diag.ErrInternal, "atlas: Run(EngineVM) called before a successful Compile", s.prog.Span())
		}
		return vm.New(ctx, s.bc, s.Security, s.Stdout).Run()
	case EngineInterpreter:
		return interpreter.New(ctx, s.Security, s.Stdout).Run(s.prog)
	default:
		return nil, diag.New(diag.ErrInternal, "atlas: unknown engine", s.prog.Span())
	}
}

// Compile is a package-level convenience that parses, typechecks, and
// compiles src in one step, for callers that only ever want EngineVM.
func Compile(src string, sec *security.Context) (*bytecode.Bytecode, *diag.Bag, error) {
	s := NewSession(sec, io.Discard)
	bag := s.Parse(src)
	if bag.HasErrors() {
		return nil, bag, nil
	}
	if err := s.Compile(); err != nil {
		return nil, bag, err
	}
	return s.bc, bag, nil
}

// Run is a package-level convenience that parses, typechecks, and
// (for EngineVM) compiles src, then executes it on the requested
// engine, writing `print` output to stdout.
func Run(ctx context.Context, src string, engine Engine, sec *security.Context, stdout io.Writer) (value.Value, *diag.Bag, *diag.Diagnostic) {
	s := NewSession(sec, stdout)
	bag := s.Parse(src)
	if bag.HasErrors() {
		return nil, bag, nil
	}
	if engine == EngineVM {
		if err := s.Compile(); err != nil {
			bag.Errorf(diag.ErrInternal, s.prog.Span(), "%v", err)
			return nil, bag, nil
		}
	}
	v, derr := s.Run(ctx, engine)
	return v, bag, derr
}
