// Package rlm implements a Recursive Language Model agent.
//
// An Agent solves a task by conversing with a completion backend. Each reply
// is inspected for a "Final Answer:" marker, which ends the run, or a fenced
// JavaScript block, which is executed in the agent's sandbox and fed back to
// the model as an "Observation". Replies with neither get a fixed re-prompt.
// The run stops after a fixed iteration budget.
//
// Scripts reach the agent through the rlm object bound into the sandbox.
// rlm.completion("sub-task") runs a child agent with a fresh history and a
// fresh sandbox on the same backend and returns its answer as a string, so
// the model can break a problem apart recursively.
//
// # Architecture
//
//   - Agent: owns the history of the current run, the sandbox and the
//     delegation capability.
//   - Backend: the completion service. *llm.Client satisfies it.
//   - Result: the tagged outcome of a run, answered or exhausted.
//   - EventEmitter: typed event stream shared by an agent and its children.
//
// # Quick Start
//
//	client := llm.NewClient(llm.WithProvider("openai", adapter))
//	agent := rlm.New(client, &rlm.Config{Model: "gpt-4o-mini", MaxIterations: 10})
//	defer agent.Close()
//
//	result, err := agent.Completion(ctx, "What is the 10th Fibonacci number?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result)
package rlm
