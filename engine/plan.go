package engine

import (
	"errors"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
)

// DependencyError reports a task that reads a memory key no earlier task
// writes. When a later task writes the key the pipeline order is wrong and
// LaterWriter names that task.
type DependencyError struct {
	TaskID      string
	Key         string
	LaterWriter string
}

func (e *DependencyError) Error() string {
	if e.LaterWriter != "" {
		return fmt.Sprintf("task %q reads %q before it is written by later task %q", e.TaskID, e.Key, e.LaterWriter)
	}
	return fmt.Sprintf("task %q reads %q which no earlier task writes", e.TaskID, e.Key)
}

// Edge is one data dependency: To reads Key written by From. From is empty
// when the key is a run input.
type Edge struct {
	From string
	To   string
	Key  string
}

// Plan is the validated dependency graph of an ordered task list.
type Plan struct {
	Order []string
	Edges []Edge
	// Producers maps each written key to the last task writing it.
	Producers map[string]string
}

// BuildPlan validates the tasks and their declared reads and writes against
// the list order. A read is satisfied by a run input or by a write of an
// earlier task.
func BuildPlan(tasks []*core.Task, inputs map[string]string) (*Plan, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no tasks to plan")
	}

	plan := &Plan{Producers: map[string]string{}}
	seen := make(map[string]struct{}, len(tasks))

	for i, t := range tasks {
		if t == nil {
			return nil, fmt.Errorf("task at position %d is nil", i)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[t.ID()]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID())
		}
		seen[t.ID()] = struct{}{}

		for _, k := range t.Reads() {
			if from, ok := plan.Producers[k]; ok {
				plan.Edges = append(plan.Edges, Edge{From: from, To: t.ID(), Key: k})
				continue
			}
			if _, ok := inputs[k]; ok {
				plan.Edges = append(plan.Edges, Edge{To: t.ID(), Key: k})
				continue
			}
			return nil, &DependencyError{TaskID: t.ID(), Key: k, LaterWriter: laterWriter(tasks[i:], k)}
		}

		for _, k := range t.Writes() {
			plan.Producers[k] = t.ID()
		}
		plan.Order = append(plan.Order, t.ID())
	}

	return plan, nil
}

// ValidateDependencies reports the first structural or dependency error.
func ValidateDependencies(tasks []*core.Task, inputs map[string]string) error {
	_, err := BuildPlan(tasks, inputs)
	return err
}

// laterWriter returns the first task in rest writing key, including the
// reading task itself.
func laterWriter(rest []*core.Task, key string) string {
	for _, t := range rest {
		if t == nil {
			continue
		}
		for _, k := range t.Writes() {
			if k == key {
				return t.ID()
			}
		}
	}
	return ""
}
