package sandbox

import (
	"strings"

	"github.com/dop251/goja"
)

// registerOutput binds print and console.* to the current sink. All of them
// write one line made of their space-separated arguments.
func (s *Sandbox) registerOutput() {
	s.set(s.vm.GlobalObject(), "print", s.printer(""))

	console := s.vm.NewObject()
	for _, level := range []string{"log", "info", "debug"} {
		s.set(console, level, s.printer(""))
	}
	s.set(console, "warn", s.printer("warning: "))
	s.set(console, "error", s.printer("error: "))
	s.set(s.vm.GlobalObject(), "console", console)
}

func (s *Sandbox) printer(prefix string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = s.format(arg)
		}
		s.write(prefix + strings.Join(parts, " ") + "\n")
		return goja.Undefined()
	}
}

// format renders a value the way a REPL shows it: strings raw, plain objects
// and arrays as JSON, everything else through its JavaScript string form.
func (s *Sandbox) format(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return v.String()
	}
	switch obj.ClassName() {
	case "Object", "Array":
		if text, ok := s.stringify(obj); ok {
			return text
		}
	}
	return v.String()
}

func (s *Sandbox) stringify(obj *goja.Object) (string, bool) {
	json := s.vm.Get("JSON")
	if json == nil {
		return "", false
	}
	stringify, ok := goja.AssertFunction(json.ToObject(s.vm).Get("stringify"))
	if !ok {
		return "", false
	}
	out, err := stringify(goja.Undefined(), obj)
	if err != nil || goja.IsUndefined(out) {
		return "", false
	}
	return out.String(), true
}
