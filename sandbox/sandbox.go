package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// NoOutput is returned by Execute when a script completes without printing
// anything.
const NoOutput = "[No output]"

// Namespace holds the initial global bindings of a Sandbox.
type Namespace map[string]any

// Delegator is a capability that answers a sub-task. Values of this type in a
// Namespace are bound as an object exposing only completion(task).
type Delegator interface {
	Delegate(ctx context.Context, task string) (string, error)
}

// Recoverable is implemented by Delegator errors that a script is allowed to
// catch. Any other Delegator error aborts the running script and is returned
// from Execute.
type Recoverable interface {
	Recoverable() bool
}

// Sandbox is a persistent JavaScript execution environment.
type Sandbox struct {
	vm   *goja.Runtime
	sink *strings.Builder
	ctx  context.Context
	mu   sync.Mutex
}

// New creates a Sandbox with print and console registered and every entry of
// ns bound as a global.
func New(ns Namespace) *Sandbox {
	s := &Sandbox{
		vm:  goja.New(),
		ctx: context.Background(),
	}
	s.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	s.registerOutput()
	for name, value := range ns {
		if d, ok := value.(Delegator); ok {
			s.bindDelegator(name, d)
			continue
		}
		s.set(s.vm.GlobalObject(), name, value)
	}
	return s
}

// Execute runs code in the persistent namespace and returns everything it
// printed. A script fault is appended to the output as a diagnostic and is
// not an error.
func (s *Sandbox) Execute(ctx context.Context, code string) (out string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	sink := s.acquire(ctx)
	defer s.release()

	s.vm.ClearInterrupt()
	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(ctx.Err())
	})
	defer stop()

	defer func() {
		// A Go panic inside a host function is a script fault too.
		if r := recover(); r != nil {
			fmt.Fprintf(sink, "panic: %v\n", r)
			out, err = sink.String(), nil
		}
	}()

	if _, runErr := s.vm.RunString(code); runErr != nil {
		var interrupted *goja.InterruptedError
		if errors.As(runErr, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return sink.String(), cause
			}
			return sink.String(), fmt.Errorf("script interrupted: %v", interrupted.Value())
		}
		writeDiagnostic(sink, runErr)
	}

	if sink.Len() == 0 {
		return NoOutput, nil
	}
	return sink.String(), nil
}

// Get returns the exported Go value of the global binding name.
func (s *Sandbox) Get(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.vm.Get(name)
	if v == nil {
		return nil, false
	}
	return v.Export(), true
}

// acquire installs a fresh output sink for the duration of one Execute call.
func (s *Sandbox) acquire(ctx context.Context) *strings.Builder {
	s.sink = &strings.Builder{}
	s.ctx = ctx
	return s.sink
}

func (s *Sandbox) release() {
	s.sink = nil
	s.ctx = context.Background()
}

func (s *Sandbox) write(text string) {
	if s.sink == nil {
		return
	}
	s.sink.WriteString(text)
}

func (s *Sandbox) bindDelegator(name string, d Delegator) {
	obj := s.vm.NewObject()
	s.set(obj, "completion", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(s.vm.NewTypeError("completion requires a task argument"))
		}
		result, err := d.Delegate(s.ctx, call.Argument(0).String())
		if err != nil {
			var rec Recoverable
			if errors.As(err, &rec) && rec.Recoverable() {
				panic(s.vm.NewGoError(err))
			}
			s.vm.Interrupt(err)
			return goja.Undefined()
		}
		return s.vm.ToValue(result)
	})
	s.set(s.vm.GlobalObject(), name, obj)
}

// set binds a property, which only fails on a frozen object.
func (s *Sandbox) set(obj *goja.Object, name string, value any) {
	if err := obj.Set(name, value); err != nil {
		panic(fmt.Sprintf("sandbox: bind %q: %v", name, err))
	}
}

func writeDiagnostic(sink *strings.Builder, err error) {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		sink.WriteString(ex.String())
		return
	}
	sink.WriteString(err.Error())
	sink.WriteByte('\n')
}
