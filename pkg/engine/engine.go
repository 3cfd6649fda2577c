// Package engine evaluates tile catalog source. It wraps zygomys in a
// sandboxed environment with a small geometry DSL and produces tile
// definitions ready for catalog.Build.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/tessera/pkg/catalog"
	"github.com/chazu/tessera/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultDetail is the meshing detail used for :shape tiles.
const DefaultDetail = 2

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalErrors is returned by Load when the source fails to evaluate.
type EvalErrors []EvalError

func (es EvalErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "catalog source: " + strings.Join(msgs, "; ")
}

// Engine wraps the zygomys interpreter for catalog evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel  kernel.Kernel
	detail  int
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithDetail sets the meshing detail for :shape tiles.
func WithDetail(d int) Option {
	return func(e *Engine) { e.detail = d }
}

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an Engine. k may be nil, in which case only tiles
// given as :edges or :mesh can be defined.
func NewEngine(k kernel.Kernel, opts ...Option) *Engine {
	e := &Engine{kernel: k, detail: DefaultDetail, timeout: EvalTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate takes catalog source and returns the tiles it defines, in
// declaration order.
//
// Return semantics:
//   - On success: returns defs + nil errors + nil error
//   - On parse/eval failure: returns nil defs + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) ([]catalog.TileDef, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		defs, evalErrs, err := e.evaluate(source)
		ch <- evalResult{defs: defs, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, e.timeout, gen, &e.mu, &e.generation)
}

// Load evaluates source and builds a catalog from it. Evaluation errors
// come back as EvalErrors.
func (e *Engine) Load(source string) (*catalog.Catalog, []catalog.Warning, error) {
	defs, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return nil, nil, err
	}
	if len(evalErrs) > 0 {
		return nil, nil, EvalErrors(evalErrs)
	}
	return catalog.Build(defs)
}

// AsEvalErrors reports whether err carries evaluation errors.
func AsEvalErrors(err error) (EvalErrors, bool) {
	var es EvalErrors
	ok := errors.As(err, &es)
	return es, ok
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) ([]catalog.TileDef, []EvalError, error) {
	// Empty source is a valid program that defines no tiles.
	if strings.TrimSpace(source) == "" {
		return []catalog.TileDef{}, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	defs := []catalog.TileDef{}
	registerBuiltins(env, e.kernel, e.detail, &defs)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return defs, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
