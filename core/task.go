package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/taskmesh/internal/util"
)

// InputUserPrompt is the run input key carrying the free-form user prompt.
const InputUserPrompt = "user_prompt"

// CompletionHandler receives a task's output right after the task succeeded
// and before the next task starts. The run's MemoryStore is passed
// explicitly so data flow stays traceable.
type CompletionHandler interface {
	OnComplete(taskID, output string, store MemoryStore) error
}

// CompletionFunc adapts a plain function to CompletionHandler.
type CompletionFunc func(taskID, output string, store MemoryStore) error

// OnComplete implements CompletionHandler.
func (f CompletionFunc) OnComplete(taskID, output string, store MemoryStore) error {
	return f(taskID, output, store)
}

// StoreOutput returns a handler that writes the task output under key.
func StoreOutput(key string) CompletionHandler {
	return CompletionFunc(func(_ string, output string, store MemoryStore) error {
		store.Set(key, output)
		return nil
	})
}

// TaskOptions configures a Task.
type TaskOptions struct {
	// Description is a text/template rendered against run inputs and memory.
	Description string
	// ExpectedOutput is free-form guidance appended to the prompt.
	ExpectedOutput string
	// Reads lists the memory keys the description depends on.
	Reads []string
	// Writes lists the memory keys the completion handler produces.
	Writes []string
	// OutputKey declares a single write key and installs StoreOutput(OutputKey)
	// unless Handler is set.
	OutputKey string
	// Handler is invoked with the task output after success. Optional.
	Handler CompletionHandler
}

// Task is an immutable unit of work bound to one agent.
type Task struct {
	id             string
	description    string
	expectedOutput string
	agent          Agent
	reads          []string
	writes         []string
	handler        CompletionHandler
}

// NewTask creates a task bound to agent.
//
// Example:
//
//	t := core.NewTask("compliance", officer, func(o *core.TaskOptions) {
//	  o.Description = "Review this idea: {{.idea}}"
//	  o.Reads = []string{"idea"}
//	  o.OutputKey = "compliance_summary"
//	})
func NewTask(id string, agent Agent, optFns ...func(o *TaskOptions)) *Task {
	opts := TaskOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	writes := slices.Clone(opts.Writes)
	handler := opts.Handler
	if opts.OutputKey != "" {
		if !slices.Contains(writes, opts.OutputKey) {
			writes = append(writes, opts.OutputKey)
		}
		if handler == nil {
			handler = StoreOutput(opts.OutputKey)
		}
	}

	return &Task{
		id:             id,
		description:    opts.Description,
		expectedOutput: opts.ExpectedOutput,
		agent:          agent,
		reads:          slices.Clone(opts.Reads),
		writes:         writes,
		handler:        handler,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Description returns the unrendered description template.
func (t *Task) Description() string { return t.description }

// ExpectedOutput returns the output contract.
func (t *Task) ExpectedOutput() string { return t.expectedOutput }

// Agent returns the bound agent.
func (t *Task) Agent() Agent { return t.agent }

// Reads returns a copy of the declared read keys.
func (t *Task) Reads() []string { return slices.Clone(t.reads) }

// Writes returns a copy of the declared write keys.
func (t *Task) Writes() []string { return slices.Clone(t.writes) }

// Handler returns the completion handler, or nil.
func (t *Task) Handler() CompletionHandler { return t.handler }

// Validate checks the task is well formed: it has an id, an agent and a
// parseable description, and declares writes only if it has a handler.
func (t *Task) Validate() error {
	if t.id == "" {
		return errors.New("task id is required")
	}
	if t.agent == nil {
		return fmt.Errorf("task %q: agent is required", t.id)
	}
	if strings.TrimSpace(t.description) == "" {
		return fmt.Errorf("task %q: description is required", t.id)
	}
	if _, err := util.ParseTemplate(t.id, t.description); err != nil {
		return fmt.Errorf("task %q: invalid description template: %w", t.id, err)
	}
	if len(t.writes) > 0 && t.handler == nil {
		return fmt.Errorf("task %q: declares writes %v without a completion handler", t.id, t.writes)
	}
	return nil
}

// Render resolves the description template. Template data holds the run
// inputs overlaid with the memory snapshot. Declared reads that are absent
// from memory resolve to the empty string.
func (t *Task) Render(inputs map[string]string, store MemoryStore) (string, error) {
	data := make(map[string]any, len(inputs)+len(t.reads))
	for k, v := range inputs {
		data[k] = v
	}
	for _, k := range t.reads {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}
	if store != nil {
		for k, v := range store.Snapshot() {
			data[k] = v
		}
	}

	out, err := util.RenderTemplate(t.description, data)
	if err != nil {
		return "", fmt.Errorf("task %q: render description: %w", t.id, err)
	}
	return out, nil
}

// Prompt renders the description and appends the expected output contract.
func (t *Task) Prompt(inputs map[string]string, store MemoryStore) (string, error) {
	desc, err := t.Render(inputs, store)
	if err != nil {
		return "", err
	}
	if t.expectedOutput == "" {
		return desc, nil
	}
	return desc + "\n\nExpected output:\n" + t.expectedOutput, nil
}

// Complete invokes the completion handler, if any.
func (t *Task) Complete(output string, store MemoryStore) error {
	if t.handler == nil {
		return nil
	}
	if err := t.handler.OnComplete(t.id, output, store); err != nil {
		return fmt.Errorf("task %q: completion handler: %w", t.id, err)
	}
	return nil
}
