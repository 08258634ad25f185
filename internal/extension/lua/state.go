package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds every chunk and call run on a State.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps a gopher-lua state for one extension module.
//
// gopher-lua's LState is not goroutine-safe; all access goes through the
// mutex, including callbacks from menu pre-hooks fired after composition.
type State struct {
	L *lua.LState

	mu               sync.Mutex
	closed           bool
	executionTimeout time.Duration
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the limit for a single chunk or call. Zero or
// negative disables it; the caller's context still applies.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// NewState creates a Lua state with the safe standard libraries opened.
func NewState(opts ...StateOption) *State {
	s := &State{executionTimeout: DefaultExecutionTimeout}
	for _, opt := range opts {
		opt(s)
	}
	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	return s
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// dofile/loadfile reach the filesystem through base.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
}

// DoFile executes a Lua file.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.do(ctx, func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a chunk of Lua source.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.do(ctx, func() error {
		return s.L.DoString(code)
	})
}

// Call calls the global function fn. A missing global returns
// (nil, false, nil) so callers can treat it as an absent capability.
func (s *State) Call(ctx context.Context, fn string, args ...lua.LValue) ([]lua.LValue, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, ErrStateClosed
	}

	v := s.L.GetGlobal(fn)
	if v == lua.LNil {
		return nil, false, nil
	}
	f, ok := v.(*lua.LFunction)
	if !ok {
		return nil, true, fmt.Errorf("%w: %q is %s", ErrNotFunction, fn, v.Type())
	}

	results, err := s.pcall(ctx, f, args)
	return results, true, err
}

// CallFunction calls a Lua function value.
func (s *State) CallFunction(ctx context.Context, fn *lua.LFunction, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	return s.pcall(ctx, fn, args)
}

// Exec runs fn with exclusive access to the underlying LState.
func (s *State) Exec(fn func(L *lua.LState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return recovered(func() error {
		return fn(s.L)
	})
}

// HasFunction reports whether the global name holds a function.
func (s *State) HasFunction(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	return s.L.GetGlobal(name).Type() == lua.LTFunction
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// RegisterModule installs a global table of Go functions and returns it.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) (*lua.LTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}
	tbl := s.L.SetFuncs(s.L.NewTable(), funcs)
	s.L.SetGlobal(name, tbl)
	return tbl, nil
}

// Close releases the Lua state. Further calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}

func (s *State) do(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()
	return timedOut(ctx, recovered(fn))
}

// pcall must be called with s.mu held.
func (s *State) pcall(ctx context.Context, fn *lua.LFunction, args []lua.LValue) ([]lua.LValue, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	s.L.Push(fn)
	for _, arg := range args {
		s.L.Push(arg)
	}

	if err := recovered(func() error {
		return s.L.PCall(len(args), lua.MultRet, nil)
	}); err != nil {
		s.L.SetTop(top)
		return nil, timedOut(ctx, err)
	}

	n := s.L.GetTop() - top
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return results, nil
}

// bound applies the execution timeout to ctx.
func (s *State) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.executionTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.executionTimeout)
}

// timedOut tags err with ErrExecutionTimeout when ctx hit its deadline.
func timedOut(ctx context.Context, err error) error {
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrExecutionTimeout, err)
	}
	return err
}

func recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
