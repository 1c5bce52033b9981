package core

// AgentKind tags the closed set of agent variants the Coordinator dispatches over.
type AgentKind string

const (
	// AgentKindWorker executes exactly the task handed to it and never delegates.
	AgentKindWorker AgentKind = "worker"
	// AgentKindCoordinator sequences tasks, delegates to workers and runs the QA pass.
	AgentKindCoordinator AgentKind = "coordinator"
)

// AgentInfo carries the persona and identifying details of an agent. It is
// used for prompting, logging and task records.
type AgentInfo struct {
	Name        string
	Role        string
	Goal        string
	Backstory   string
	Kind        AgentKind
	CanDelegate bool
	Model       string
}

// Agent defines the contract every agent variant satisfies.
//
// Execute receives the fully rendered task description and the tools the
// caller allows for this execution. It blocks until the agent produced its
// final text or failed. Implementations must respect cancellation of
// runCtx.Context and must not retain runCtx after returning.
type Agent interface {
	Info() AgentInfo
	Tools() []Tool
	Execute(runCtx *RunContext, description string, tools []Tool) (string, error)
}

// Coordinator is the manager variant: an Agent that additionally drives an
// ordered task list and finalizes the last output with a bounded QA pass.
type Coordinator interface {
	Agent
	RunPipeline(runCtx *RunContext, tasks []*Task) (string, error)
}
