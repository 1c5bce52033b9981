package agent

import (
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
)

// Worker executes exactly the task handed to it. It may call any of the tools
// it is given but never delegates.
type Worker struct {
	BaseAgent
}

var _ core.Agent = (*Worker)(nil)

// NewWorker creates a worker persona backed by llm.
//
// Example:
//
//	officer := agent.NewWorker("ComplianceOfficer", llm, func(o *agent.Options) {
//	  o.Role = "Compliance Officer"
//	  o.Goal = "Flag regulatory requirements for the proposed partnership"
//	  o.Tools = []core.Tool{retrieval.NewTool("knowledge")}
//	})
func NewWorker(name string, llm model.Model, optFns ...func(o *Options)) *Worker {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Worker{BaseAgent: newBaseAgent(name, core.AgentKindWorker, false, llm, opts)}
}

// Execute implements core.Agent.
func (w *Worker) Execute(runCtx *core.RunContext, description string, tools []core.Tool) (string, error) {
	runCtx.LogDebug("agent.execute.start", "agent", w.Name(), "task", runCtx.TaskID, "tools", len(tools))

	out, err := runToolLoop(runCtx, &w.BaseAgent, description, tools)
	if err != nil {
		runCtx.LogError("agent.execute.error", "agent", w.Name(), "task", runCtx.TaskID, "error", err.Error())
		return "", err
	}

	runCtx.LogDebug("agent.execute.complete", "agent", w.Name(), "task", runCtx.TaskID, "output_len", len(out))
	return out, nil
}
