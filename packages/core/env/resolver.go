package env

import (
	"os"
	"regexp"
	"strings"
	"sync"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is called for every template that could not be resolved
type WarnFunc func(format string, args ...any)

// Resolver substitutes {{...}} templates. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	funcs     map[string]Func
	lookupEnv func(string) (string, bool)
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
		funcs:     defaultFuncs(),
		lookupEnv: os.LookupEnv,
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Clone returns an independent resolver with the same variables and
// functions, so per-document variables do not leak between documents.
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := &Resolver{
		variables: make(map[string]string, len(r.variables)),
		funcs:     make(map[string]Func, len(r.funcs)),
		lookupEnv: r.lookupEnv,
		warnFunc:  r.warnFunc,
	}
	for k, v := range r.variables {
		c.variables[k] = v
	}
	for k, fn := range r.funcs {
		c.funcs[k] = fn
	}
	return c
}

// Resolve replaces every resolvable template in input. Unresolved templates
// are left verbatim.
func (r *Resolver) Resolve(input string) string {
	if !strings.Contains(input, "{{") {
		return input
	}
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if val, ok := r.lookup(strings.TrimSpace(match[2 : len(match)-2])); ok {
			return val
		}
		return match
	})
}

func (r *Resolver) lookup(expr string) (string, bool) {
	if strings.HasPrefix(expr, "$") {
		name := expr[1:]
		if val, ok := r.lookupEnv(name); ok {
			return val, true
		}
		r.warn("unresolved environment variable: $%s", name)
		return "", false
	}

	if m := funcCallPattern.FindStringSubmatch(expr); m != nil {
		r.mu.RLock()
		fn, ok := r.funcs[m[1]]
		r.mu.RUnlock()
		if ok {
			return fn(splitArgs(m[2])), true
		}
		r.warn("unresolved function call: %s", expr)
		return "", false
	}

	r.mu.RLock()
	val, ok := r.variables[expr]
	r.mu.RUnlock()
	if ok {
		return val, true
	}

	r.warn("unresolved variable: %s", expr)
	return "", false
}

// HasUnresolvedVariables reports whether Resolve would leave any template in
// input untouched.
func (r *Resolver) HasUnresolvedVariables(input string) bool {
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		if _, ok := r.lookupQuiet(strings.TrimSpace(m[1])); !ok {
			return true
		}
	}
	return false
}

func (r *Resolver) lookupQuiet(expr string) (string, bool) {
	c := r.Clone()
	c.warnFunc = nil
	return c.lookup(expr)
}
