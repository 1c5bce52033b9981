package agent

import "github.com/hupe1980/taskmesh/core"

// Decision tells the Coordinator who executes a task.
type Decision int

const (
	// Delegate hands the task to the agent it is bound to.
	Delegate Decision = iota
	// ExecuteDirectly lets the Coordinator execute the task itself.
	ExecuteDirectly
)

func (d Decision) String() string {
	if d == ExecuteDirectly {
		return "direct"
	}
	return "delegate"
}

// DelegationStrategy decides, per task, whether the Coordinator delegates.
type DelegationStrategy interface {
	Decide(task *core.Task, coordinator core.AgentInfo) Decision
}

// DelegationFunc adapts a plain function to DelegationStrategy.
type DelegationFunc func(task *core.Task, coordinator core.AgentInfo) Decision

// Decide implements DelegationStrategy.
func (f DelegationFunc) Decide(task *core.Task, coordinator core.AgentInfo) Decision {
	return f(task, coordinator)
}

// DelegateToBound delegates every worker-bound task and executes tasks bound
// to a coordinator directly.
var DelegateToBound DelegationStrategy = DelegationFunc(func(task *core.Task, _ core.AgentInfo) Decision {
	if task.Agent() != nil && task.Agent().Info().Kind == core.AgentKindCoordinator {
		return ExecuteDirectly
	}
	return Delegate
})

// ExecuteAll makes the Coordinator execute every task itself.
var ExecuteAll DelegationStrategy = DelegationFunc(func(*core.Task, core.AgentInfo) Decision {
	return ExecuteDirectly
})
