// Package security implements Atlas's capability-based SecurityContext
// (spec.md §4.9): an immutable permission set every effectful builtin
// in internal/stdlib must consult before touching the filesystem,
// network, a subprocess, or an environment variable.
//
// The four permission tables and the three named modes ("none",
// "standard", "strict") are grounded directly in
// original_source/crates/atlas-config/src/security.rs's SecurityConfig/
// FilesystemPermissions/NetworkPermissions/ProcessPermissions/
// EnvironmentPermissions shape, translated from serde's
// `#[serde(deny_unknown_fields)]` TOML decoding to
// github.com/pelletier/go-toml/v2's `Decoder.DisallowUnknownFields`, the
// ecosystem's equivalent strict-mode decoding (no teacher dependency covers TOML;
// DWScript has no sandboxing layer, so this is a new domain dependency
// grounded in the wider retrieved corpus, see DESIGN.md).
package security

import (
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Mode names a named permission preset.
type Mode string

const (
	ModeNone     Mode = "none"
	ModeStandard Mode = "standard"
	ModeStrict   Mode = "strict"
)

// FilesystemRule is one allow/deny path-prefix entry.
type FilesystemRule struct {
	Path      string `toml:"path"`
	Recursive bool   `toml:"recursive"`
}

// FilesystemPermissions gates fs.readFile/fs.writeFile/fs.exists.
type FilesystemPermissions struct {
	Read  []FilesystemRule `toml:"read"`
	Write []FilesystemRule `toml:"write"`
	Deny  []FilesystemRule `toml:"deny"`
}

// NetworkPermissions gates net.get. Entries are exact-match hostnames
// with optional `*` wildcard.
type NetworkPermissions struct {
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
}

// ProcessPermissions gates proc.run.
type ProcessPermissions struct {
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
}

// EnvironmentPermissions gates env.get/env.set.
type EnvironmentPermissions struct {
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
}

// Config is the TOML-decodable security configuration (spec.md §6).
// Unknown fields are rejected by DecodeConfig's strict decoder.
type Config struct {
	Mode        Mode                   `toml:"mode"`
	Filesystem  FilesystemPermissions  `toml:"filesystem"`
	Network     NetworkPermissions     `toml:"network"`
	Process     ProcessPermissions     `toml:"process"`
	Environment EnvironmentPermissions `toml:"environment"`
}

// DecodeConfig parses TOML security configuration text, rejecting any
// field not named above (spec.md §6: "unknown fields rejected").
func DecodeConfig(text []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(strings.NewReader(string(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Context is the immutable permission set consulted by every effectful
// builtin. Construct one via None, Standard, Strict, AllowAll, or
// FromConfig; Context itself has no mutating methods.
type Context struct {
	fs  FilesystemPermissions
	net NetworkPermissions
	proc ProcessPermissions
	env EnvironmentPermissions
}

// None denies every effectful operation by default (spec.md §4.9).
func None() *Context { return &Context{} }

// Standard is a curated safe set: read access under "." and write
// access under "./output", consistent with the original_source test
// fixture's shape (read ["./data","./config"], write ["./output"]).
func Standard() *Context {
	return &Context{
		fs: FilesystemPermissions{
			Read:  []FilesystemRule{{Path: ".", Recursive: true}},
			Write: []FilesystemRule{{Path: "./output", Recursive: true}},
		},
		env: EnvironmentPermissions{Allow: []string{"PATH", "HOME"}},
	}
}

// Strict denies everything by default; every capability requires an
// explicit allow entry (Context{} fields are zero-value empty slices,
// same shape as None, but callers are expected to add Config-driven
// allows on top — Strict exists as a named, documented starting point
// distinct from None for configuration authors, per spec.md §4.9).
func Strict() *Context { return &Context{} }

// AllowAll grants every capability; intended for host CLIs running
// fully-trusted source, matching `run`-style semantics (spec.md §4.9).
func AllowAll() *Context {
	return &Context{
		fs:   FilesystemPermissions{Read: []FilesystemRule{{Path: "/", Recursive: true}}, Write: []FilesystemRule{{Path: "/", Recursive: true}}},
		net:  NetworkPermissions{Allow: []string{"*"}},
		proc: ProcessPermissions{Allow: []string{"*"}},
		env:  EnvironmentPermissions{Allow: []string{"*"}},
	}
}

// FromConfig builds a Context from a parsed Config, applying the named
// mode as a base and layering the config's explicit permission tables
// on top.
func FromConfig(cfg *Config) *Context {
	var base *Context
	switch cfg.Mode {
	case ModeStrict:
		base = Strict()
	case ModeStandard, "":
		base = Standard()
	default:
		base = None()
	}
	return &Context{
		fs:   mergeFS(base.fs, cfg.Filesystem),
		net:  NetworkPermissions{Allow: append(append([]string(nil), base.net.Allow...), cfg.Network.Allow...), Deny: append(append([]string(nil), base.net.Deny...), cfg.Network.Deny...)},
		proc: ProcessPermissions{Allow: append(append([]string(nil), base.proc.Allow...), cfg.Process.Allow...), Deny: append(append([]string(nil), base.proc.Deny...), cfg.Process.Deny...)},
		env:  EnvironmentPermissions{Allow: append(append([]string(nil), base.env.Allow...), cfg.Environment.Allow...), Deny: append(append([]string(nil), base.env.Deny...), cfg.Environment.Deny...)},
	}
}

func mergeFS(base FilesystemPermissions, over FilesystemPermissions) FilesystemPermissions {
	return FilesystemPermissions{
		Read:  append(append([]FilesystemRule(nil), base.Read...), over.Read...),
		Write: append(append([]FilesystemRule(nil), base.Write...), over.Write...),
		Deny:  append(append([]FilesystemRule(nil), base.Deny...), over.Deny...),
	}
}

// matchesRule reports whether path is covered by rule's prefix (and,
// for a non-recursive rule, lies directly inside it rather than in a
// nested subdirectory).
func matchesRule(path string, rule FilesystemRule) bool {
	clean := strings.TrimSuffix(path, "/")
	prefix := strings.TrimSuffix(rule.Path, "/")
	if clean == prefix {
		return true
	}
	if !strings.HasPrefix(clean, prefix+"/") {
		return false
	}
	if rule.Recursive {
		return true
	}
	rest := strings.TrimPrefix(clean, prefix+"/")
	return !strings.Contains(rest, "/")
}

// CheckFilesystem reports whether a read (write=false) or a write
// (write=true) is permitted on path. A deny entry always shadows an allow (spec.md §4.9).
func (c *Context) CheckFilesystem(path string, write bool) bool {
	for _, d := range c.fs.Deny {
		if matchesRule(path, d) {
			return false
		}
	}
	rules := c.fs.Read
	if write {
		rules = c.fs.Write
	}
	for _, r := range rules {
		if matchesRule(path, r) {
			return true
		}
	}
	return false
}

func matchesPattern(value, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(value, strings.TrimPrefix(pattern, "*"))
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "*"))
	}
	return value == pattern
}

func checkAllowDeny(value string, allow, deny []string) bool {
	for _, d := range deny {
		if matchesPattern(value, d) {
			return false
		}
	}
	for _, a := range allow {
		if matchesPattern(value, a) {
			return true
		}
	}
	return false
}

// CheckNetwork reports whether a connection to host is permitted.
func (c *Context) CheckNetwork(host string) bool {
	return checkAllowDeny(host, c.net.Allow, c.net.Deny)
}

// CheckProcess reports whether running cmd is permitted.
func (c *Context) CheckProcess(cmd string) bool {
	return checkAllowDeny(cmd, c.proc.Allow, c.proc.Deny)
}

// CheckEnvironment reports whether reading/writing the named variable
// is permitted.
func (c *Context) CheckEnvironment(name string) bool {
	return checkAllowDeny(name, c.env.Allow, c.env.Deny)
}
