package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
)

func task(id string, reads []string, writeKey string) *core.Task {
	w := agent.NewWorker("W", model.NewMockModel("m", "mock"))
	return core.NewTask(id, w, func(o *core.TaskOptions) {
		o.Description = "do " + id
		o.Reads = reads
		o.OutputKey = writeKey
	})
}

func TestBuildPlan(t *testing.T) {
	tasks := []*core.Task{
		task("idea", []string{"user_prompt"}, "idea"),
		task("compliance", []string{"idea"}, "compliance_summary"),
		task("risk", []string{"idea", "compliance_summary"}, "risk_summary"),
	}

	plan, err := BuildPlan(tasks, map[string]string{"user_prompt": "p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"idea", "compliance", "risk"}, plan.Order)
	assert.Equal(t, "compliance", plan.Producers["compliance_summary"])
	assert.Contains(t, plan.Edges, Edge{From: "", To: "idea", Key: "user_prompt"})
	assert.Contains(t, plan.Edges, Edge{From: "idea", To: "risk", Key: "idea"})
	assert.Len(t, plan.Edges, 4)
}

func TestValidateDependencies_Errors(t *testing.T) {
	tests := []struct {
		name        string
		tasks       []*core.Task
		wantDep     bool
		laterWriter string
		errContains string
	}{
		{
			name: "reorder hazard names later writer",
			tasks: []*core.Task{
				task("risk", []string{"idea"}, "risk_summary"),
				task("idea", nil, "idea"),
			},
			wantDep:     true,
			laterWriter: "idea",
		},
		{
			name:    "no writer at all",
			tasks:   []*core.Task{task("risk", []string{"ghost"}, "")},
			wantDep: true,
		},
		{
			name:        "self read",
			tasks:       []*core.Task{task("loop", []string{"x"}, "x")},
			wantDep:     true,
			laterWriter: "loop",
		},
		{
			name:        "duplicate id",
			tasks:       []*core.Task{task("a", nil, ""), task("a", nil, "")},
			errContains: "duplicate task id",
		},
		{
			name:        "invalid task",
			tasks:       []*core.Task{core.NewTask("x", nil)},
			errContains: "agent is required",
		},
		{
			name:        "empty",
			errContains: "no tasks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDependencies(tt.tasks, nil)
			require.Error(t, err)

			var depErr *DependencyError
			if tt.wantDep {
				require.ErrorAs(t, err, &depErr)
				assert.Equal(t, tt.laterWriter, depErr.LaterWriter)
				return
			}
			assert.False(t, errors.As(err, &depErr))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestDependencyError_Message(t *testing.T) {
	err := &DependencyError{TaskID: "risk", Key: "idea", LaterWriter: "strategy"}
	assert.Equal(t, `task "risk" reads "idea" before it is written by later task "strategy"`, err.Error())

	err = &DependencyError{TaskID: "risk", Key: "ghost"}
	assert.Equal(t, `task "risk" reads "ghost" which no earlier task writes`, err.Error())
}
