package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask_OutputKeyInstallsHandler(t *testing.T) {
	task := NewTask("idea", stubAgent{"strategist"}, func(o *TaskOptions) {
		o.Description = "Propose a partnership for {{.user_prompt}}"
		o.OutputKey = "idea"
	})

	assert.Equal(t, []string{"idea"}, task.Writes())
	require.NotNil(t, task.Handler())

	store := mapStore{}
	require.NoError(t, task.Complete("the idea", store))
	assert.Equal(t, "the idea", store.Get("idea", ""))
}

func TestTask_AccessorsReturnCopies(t *testing.T) {
	task := NewTask("risk", stubAgent{"risk"}, func(o *TaskOptions) {
		o.Description = "x"
		o.Reads = []string{"idea", "compliance_summary"}
	})

	reads := task.Reads()
	reads[0] = "mutated"
	assert.Equal(t, []string{"idea", "compliance_summary"}, task.Reads())
}

func TestTask_Render(t *testing.T) {
	task := NewTask("risk", stubAgent{"risk"}, func(o *TaskOptions) {
		o.Description = "Prompt={{.user_prompt}} Idea={{.idea}} Compliance={{.compliance_summary}}"
		o.Reads = []string{"idea", "compliance_summary"}
		o.ExpectedOutput = "A risk register"
	})

	store := mapStore{"idea": "card"}
	out, err := task.Render(map[string]string{InputUserPrompt: "acme"}, store)
	require.NoError(t, err)
	assert.Equal(t, "Prompt=acme Idea=card Compliance=", out)

	prompt, err := task.Prompt(map[string]string{InputUserPrompt: "acme"}, store)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Expected output:\nA risk register")
}

func TestTask_RenderUndeclaredKeyFails(t *testing.T) {
	task := NewTask("writer", stubAgent{"writer"}, func(o *TaskOptions) {
		o.Description = "{{.risk_summary}}"
	})
	_, err := task.Render(nil, mapStore{})
	assert.Error(t, err)
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name string
		task *Task
	}{
		{"missing id", NewTask("", stubAgent{"a"}, func(o *TaskOptions) { o.Description = "x" })},
		{"missing agent", NewTask("t", nil, func(o *TaskOptions) { o.Description = "x" })},
		{"missing description", NewTask("t", stubAgent{"a"})},
		{"bad template", NewTask("t", stubAgent{"a"}, func(o *TaskOptions) { o.Description = "{{.idea" })},
		{"writes without handler", NewTask("t", stubAgent{"a"}, func(o *TaskOptions) {
			o.Description = "x"
			o.Writes = []string{"idea"}
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.task.Validate())
		})
	}

	ok := NewTask("t", stubAgent{"a"}, func(o *TaskOptions) {
		o.Description = "{{.idea}}"
		o.OutputKey = "out"
	})
	assert.NoError(t, ok.Validate())
}

func TestTask_CompleteWrapsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	task := NewTask("t", stubAgent{"a"}, func(o *TaskOptions) {
		o.Description = "x"
		o.Handler = CompletionFunc(func(string, string, MemoryStore) error { return boom })
	})
	err := task.Complete("out", mapStore{})
	assert.ErrorIs(t, err, boom)
}
