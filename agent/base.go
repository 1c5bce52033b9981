package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
)

// DefaultMaxModelCalls bounds the tool loop of one agent execution.
const DefaultMaxModelCalls = 10

// Options configures the persona shared by both agent variants.
type Options struct {
	Role      string
	Goal      string
	Backstory string
	// Tools are offered to the model when the agent executes a task.
	Tools []core.Tool
	// Instruction overrides the persona-derived system prompt.
	Instruction Instruction
	// MaxModelCalls bounds the tool loop per execution (0 = unlimited).
	MaxModelCalls int
}

func defaultOptions() Options {
	return Options{MaxModelCalls: DefaultMaxModelCalls}
}

// BaseAgent bundles identity, persona, tools and the backing model. Embed it
// in the concrete variants.
type BaseAgent struct {
	info          core.AgentInfo
	tools         []core.Tool
	llm           model.Model
	instruction   Instruction
	maxModelCalls int
}

func newBaseAgent(name string, kind core.AgentKind, canDelegate bool, llm model.Model, opts Options) BaseAgent {
	info := core.AgentInfo{
		Name:        name,
		Role:        opts.Role,
		Goal:        opts.Goal,
		Backstory:   opts.Backstory,
		Kind:        kind,
		CanDelegate: canDelegate,
	}
	if llm != nil {
		info.Model = llm.Info().Name
	}

	instruction := opts.Instruction
	if instruction.IsZero() {
		instruction = NewInstructionFromText(PersonaInstruction(info))
	}

	return BaseAgent{
		info:          info,
		tools:         slices.Clone(opts.Tools),
		llm:           llm,
		instruction:   instruction,
		maxModelCalls: opts.MaxModelCalls,
	}
}

// Name returns the agent name.
func (b *BaseAgent) Name() string { return b.info.Name }

// Info returns the agent persona.
func (b *BaseAgent) Info() core.AgentInfo { return b.info }

// Tools returns a copy of the tools bound to the agent.
func (b *BaseAgent) Tools() []core.Tool { return slices.Clone(b.tools) }

// Model returns the backing model.
func (b *BaseAgent) Model() model.Model { return b.llm }

// MaxModelCalls returns the per-execution model call budget.
func (b *BaseAgent) MaxModelCalls() int { return b.maxModelCalls }

// ResolveInstructions produces the system prompt for an execution.
func (b *BaseAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return b.instruction.Resolve(runCtx)
}

// PersonaInstruction renders the default system prompt for a persona.
func PersonaInstruction(info core.AgentInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s", info.Name)
	if info.Role != "" {
		fmt.Fprintf(&sb, ", %s", info.Role)
	}
	sb.WriteString(".\n")
	if info.Goal != "" {
		fmt.Fprintf(&sb, "Goal: %s\n", info.Goal)
	}
	if info.Backstory != "" {
		fmt.Fprintf(&sb, "Backstory: %s\n", info.Backstory)
	}
	sb.WriteString("Use the available tools when they help and cite the sources they return. ")
	sb.WriteString("Reply with the finished result only.")
	return sb.String()
}
