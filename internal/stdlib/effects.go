// effects.go holds every builtin SPEC_FULL.md §4.9/§4.10 requires to
// check a *security.Context before touching the outside world:
// filesystem, network, subprocess, environment, plus the ambient
// datetime and locale-aware string builtins that don't need gating.
package stdlib

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/span"
	"github.com/atlas-lang/atlas/internal/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

func builtinFSReadFile(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	path, diagErr := asString(args[0], sp, "fs_readFile path")
	if diagErr != nil {
		return nil, diagErr
	}
	if !sec.CheckFilesystem(path, false) {
		return nil, securityErr(sp, "filesystem read denied: %s", path)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	return value.Ok(value.String(data)), nil
}

func builtinFSWriteFile(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	path, diagErr := asString(args[0], sp, "fs_writeFile path")
	if diagErr != nil {
		return nil, diagErr
	}
	content, diagErr := asString(args[1], sp, "fs_writeFile content")
	if diagErr != nil {
		return nil, diagErr
	}
	if !sec.CheckFilesystem(path, true) {
		return nil, securityErr(sp, "filesystem write denied: %s", path)
	}
	if err := os.WriteFile(filepath.Clean(path), []byte(content), 0o644); err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	return value.Ok(value.TheNull), nil
}

func builtinFSExists(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	path, diagErr := asString(args[0], sp, "fs_exists path")
	if diagErr != nil {
		return nil, diagErr
	}
	if !sec.CheckFilesystem(path, false) {
		return nil, securityErr(sp, "filesystem read denied: %s", path)
	}
	_, err := os.Stat(filepath.Clean(path))
	return value.Bool(err == nil), nil
}

// builtinNetGet implements net_get (spec.md §4.10): a single blocking
// GET request, gated on the target host, returning Result<string, string>
// rather than raising a diagnostic for ordinary transport failures so
// Atlas programs can pattern-match on them.
func builtinNetGet(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	target, diagErr := asString(args[0], sp, "net_get url")
	if diagErr != nil {
		return nil, diagErr
	}
	u, err := url.Parse(target)
	if err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	if !sec.CheckNetwork(u.Hostname()) {
		return nil, securityErr(sp, "network access denied: %s", u.Hostname())
	}
	resp, err := http.Get(target)
	if err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	if resp.StatusCode >= 400 {
		return value.Err(value.String(resp.Status)), nil
	}
	return value.Ok(value.String(body)), nil
}

// builtinProcRun implements proc_run (spec.md §4.10): splits the
// command line on whitespace and executes the first field as the
// program with the rest as its arguments, directly and not through a
// shell, gated on that program name, returning its combined
// stdout/stderr.
func builtinProcRun(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	line, diagErr := asString(args[0], sp, "proc_run command")
	if diagErr != nil {
		return nil, diagErr
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return value.Err(value.String("empty command")), nil
	}
	if !sec.CheckProcess(fields[0]) {
		return nil, securityErr(sp, "process execution denied: %s", fields[0])
	}
	cmd := exec.Command(fields[0], fields[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	return value.Ok(value.String(out)), nil
}

func builtinEnvGet(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	name, diagErr := asString(args[0], sp, "env_get name")
	if diagErr != nil {
		return nil, diagErr
	}
	if !sec.CheckEnvironment(name) {
		return nil, securityErr(sp, "environment read denied: %s", name)
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return value.None(), nil
	}
	return value.Some(value.String(v)), nil
}

func builtinEnvSet(args []value.Value, sp span.Span, sec *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	name, diagErr := asString(args[0], sp, "env_set name")
	if diagErr != nil {
		return nil, diagErr
	}
	val, diagErr := asString(args[1], sp, "env_set value")
	if diagErr != nil {
		return nil, diagErr
	}
	if !sec.CheckEnvironment(name) {
		return nil, securityErr(sp, "environment write denied: %s", name)
	}
	if err := os.Setenv(name, val); err != nil {
		return value.Err(value.String(err.Error())), nil
	}
	return value.Ok(value.TheNull), nil
}

// builtinTimeNow/builtinTimeFormat implement time_now/time_format
// (spec.md §4.10) directly on stdlib time, ungated: wall-clock reads
// carry no capability the spec's SecurityContext enumerates.
func builtinTimeNow(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	return value.Number(float64(time.Now().UnixMilli())), nil
}

func builtinTimeFormat(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	millis, diagErr := asNumber(args[0], sp, "time_format timestamp")
	if diagErr != nil {
		return nil, diagErr
	}
	layout, diagErr := asString(args[1], sp, "time_format layout")
	if diagErr != nil {
		return nil, diagErr
	}
	t := time.UnixMilli(int64(millis)).UTC()
	return value.String(t.Format(goLayout(layout))), nil
}

// goLayout translates a handful of strftime-style directives (the form
// original_source's date helper accepts) into Go's reference-time
// layout, since Atlas source text spells formats the strftime way.
func goLayout(pattern string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	return r.Replace(pattern)
}

// string_normalize/string_toUpperLocale/string_toLowerLocale/string_foldCase
// (spec.md §4.10) implement the locale-aware string operations DWScript's
// ASCII-only string builtins have no equivalent of, grounded in
// golang.org/x/text/cases and golang.org/x/text/unicode/norm, the
// ecosystem's standard Unicode-correct case-mapping and normalization
// libraries.
func builtinStringNormalize(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "string_normalize argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(norm.NFC.String(s)), nil
}

func builtinStringToUpperLocale(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "string_toUpperLocale argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(cases.Upper(language.Und).String(s)), nil
}

func builtinStringToLowerLocale(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "string_toLowerLocale argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(cases.Lower(language.Und).String(s)), nil
}

func builtinStringFoldCase(args []value.Value, sp span.Span, _ *security.Context, _ io.Writer) (value.Value, *diag.Diagnostic) {
	s, diagErr := asString(args[0], sp, "string_foldCase argument")
	if diagErr != nil {
		return nil, diagErr
	}
	return value.String(cases.Fold().String(s)), nil
}
