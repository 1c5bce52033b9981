package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
)

// DefaultMaxEdits bounds the QA pass.
const DefaultMaxEdits = 3

// ErrNoTasks is returned when a pipeline is started without tasks.
var ErrNoTasks = errors.New("pipeline has no tasks")

// ErrUnsupportedAgent is returned for agents outside the Worker/Coordinator set.
var ErrUnsupportedAgent = errors.New("unsupported agent type")

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	Options
	// AllowDelegation lets the coordinator hand tasks to their bound workers.
	AllowDelegation bool
	// Strategy decides per task whether to delegate.
	Strategy DelegationStrategy
	// MaxEdits bounds the number of full-document rewrites during QA.
	MaxEdits int
	// Checklist is what the QA pass reviews the final draft against.
	Checklist []string
}

// DefaultChecklist is the QA checklist used when none is configured.
var DefaultChecklist = []string{
	"The report matches the user's intent.",
	"Compliance and risk findings are covered.",
	"The proposed KPIs are reasonable and measurable.",
	"The tone is professional and concise.",
}

// Coordinator sequences the tasks of a pipeline, delegates to workers and
// finalizes the last output with a bounded QA pass.
type Coordinator struct {
	BaseAgent
	strategy  DelegationStrategy
	maxEdits  int
	checklist []string
}

var _ core.Coordinator = (*Coordinator)(nil)

// NewCoordinator creates the manager persona backed by llm.
func NewCoordinator(name string, llm model.Model, optFns ...func(o *CoordinatorOptions)) *Coordinator {
	opts := CoordinatorOptions{
		Options:         defaultOptions(),
		AllowDelegation: true,
		Strategy:        DelegateToBound,
		MaxEdits:        DefaultMaxEdits,
		Checklist:       DefaultChecklist,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Strategy == nil {
		opts.Strategy = DelegateToBound
	}
	if opts.MaxEdits < 0 {
		opts.MaxEdits = 0
	}

	return &Coordinator{
		BaseAgent: newBaseAgent(name, core.AgentKindCoordinator, opts.AllowDelegation, llm, opts.Options),
		strategy:  opts.Strategy,
		maxEdits:  opts.MaxEdits,
		checklist: append([]string(nil), opts.Checklist...),
	}
}

// MaxEdits returns the QA rewrite bound.
func (c *Coordinator) MaxEdits() int { return c.maxEdits }

// Execute implements core.Agent: the coordinator works on a task itself.
func (c *Coordinator) Execute(runCtx *core.RunContext, description string, tools []core.Tool) (string, error) {
	runCtx.LogDebug("agent.execute.start", "agent", c.Name(), "task", runCtx.TaskID, "tools", len(tools))
	return runToolLoop(runCtx, &c.BaseAgent, description, tools)
}

// RunPipeline executes tasks strictly in order. Each task's completion
// handler runs right after the task succeeded. The first failure aborts the
// run with a *core.TaskError. When the last task is bound to this
// coordinator it becomes the QA pass over the previous output; otherwise a
// QA pass with the default checklist follows the last task.
func (c *Coordinator) RunPipeline(runCtx *core.RunContext, tasks []*core.Task) (string, error) {
	if len(tasks) == 0 {
		return "", ErrNoTasks
	}

	work, qaTask := tasks, (*core.Task)(nil)
	if n := len(tasks); n > 1 && tasks[n-1].Agent() == core.Agent(c) {
		work, qaTask = tasks[:n-1], tasks[n-1]
	}

	runCtx.LogInfo("pipeline.start", "coordinator", c.Name(), "tasks", len(tasks), "qa_task", qaTask != nil)

	var draft string
	for _, task := range work {
		out, err := c.runTask(runCtx, task)
		if err != nil {
			return "", err
		}
		draft = out
	}

	if qaTask != nil {
		return c.runQATask(runCtx, qaTask, draft)
	}

	review, err := c.Review(runCtx, "", draft)
	if err != nil {
		return "", err
	}
	return review.Final, nil
}

// runTask moves one task through Pending -> Running -> Completed | Failed.
func (c *Coordinator) runTask(runCtx *core.RunContext, task *core.Task) (string, error) {
	state, err := core.Transition(task.ID(), core.TaskPending, core.TaskRunning)
	if err != nil {
		return "", err
	}

	executor, decision, err := c.executorFor(task)
	if err != nil {
		return "", &core.TaskError{TaskID: task.ID(), Agent: agentName(task.Agent()), Err: err}
	}

	info := executor.Info()
	taskCtx := runCtx.ForTask(task.ID(), info, maxModelCalls(executor)).NotifyTaskStart(task, info)
	taskCtx.LogInfo("task.start", "task", task.ID(), "agent", info.Name, "decision", decision.String())

	start := time.Now()
	out, err := c.execute(taskCtx, task, executor)
	if err == nil {
		err = task.Complete(out, runCtx.Memory)
	}

	if err != nil {
		state, _ = core.Transition(task.ID(), state, core.TaskFailed)
		taskCtx.NotifyTaskEnd(task, state, out, err)
		taskCtx.LogError("task.failed", "task", task.ID(), "agent", info.Name, "error", err.Error())
		return "", &core.TaskError{TaskID: task.ID(), Agent: info.Name, Err: err}
	}

	state, _ = core.Transition(task.ID(), state, core.TaskCompleted)
	taskCtx.NotifyTaskEnd(task, state, out, nil)
	taskCtx.LogInfo("task.completed", "task", task.ID(), "agent", info.Name,
		"duration_ms", time.Since(start).Milliseconds(), "output_len", len(out))

	return out, nil
}

func (c *Coordinator) execute(taskCtx *core.RunContext, task *core.Task, executor core.Agent) (string, error) {
	prompt, err := task.Prompt(taskCtx.Inputs, taskCtx.Memory)
	if err != nil {
		return "", err
	}
	return dispatch(taskCtx, executor, prompt)
}

// executorFor resolves who runs task under the delegation strategy.
func (c *Coordinator) executorFor(task *core.Task) (core.Agent, Decision, error) {
	bound := task.Agent()
	if bound == nil {
		return nil, Delegate, errors.New("task has no agent")
	}

	decision := c.strategy.Decide(task, c.Info())
	if decision == Delegate && !c.info.CanDelegate {
		decision = ExecuteDirectly
	}
	if decision == ExecuteDirectly {
		return c, decision, nil
	}
	return bound, decision, nil
}

// dispatch runs the agent variant with its own tools.
func dispatch(runCtx *core.RunContext, a core.Agent, prompt string) (string, error) {
	switch ag := a.(type) {
	case *Worker:
		return ag.Execute(runCtx, prompt, ag.Tools())
	case *Coordinator:
		return ag.Execute(runCtx, prompt, ag.Tools())
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedAgent, a)
	}
}

func maxModelCalls(a core.Agent) int {
	switch ag := a.(type) {
	case *Worker:
		return ag.MaxModelCalls()
	case *Coordinator:
		return ag.MaxModelCalls()
	default:
		return DefaultMaxModelCalls
	}
}

func agentName(a core.Agent) string {
	if a == nil {
		return ""
	}
	return a.Info().Name
}
