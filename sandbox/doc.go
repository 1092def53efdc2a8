// Package sandbox runs model-written JavaScript inside an embedded goja
// interpreter.
//
// A Sandbox owns one goja runtime whose global environment is the persistent
// namespace: variables, functions and implicit assignments made by one
// Execute call are visible to the next. Everything a script prints through
// print or console.* during a call is captured and returned as that call's
// observation text.
//
// Script faults (thrown exceptions, syntax errors, reference errors) never
// escape Execute as Go errors. The diagnostic is appended to whatever the
// script printed before failing and returned as ordinary output. Execute only
// returns an error when the caller's context is cancelled or a bound
// Delegator fails in a way the script must not be allowed to swallow.
//
// # Quick Start
//
//	sb := sandbox.New(sandbox.Namespace{"rlm": agent})
//	out, err := sb.Execute(ctx, `var x = 2 + 2; print(x)`)
//	// out == "4\n"
package sandbox
