package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/testutil"
	"github.com/hupe1980/taskmesh/model"
)

type fixture struct {
	coordinator *agent.Coordinator
	riskLLM     *model.MockModel
	llm         *model.MockModel
	tasks       []*core.Task
}

func newFixture() *fixture {
	f := &fixture{
		llm:     model.NewMockModel("m", "mock"),
		riskLLM: model.NewMockModel("risk", "mock"),
	}
	f.llm.SetHandler(testutil.EchoHandler())
	f.riskLLM.SetHandler(testutil.EchoHandler())

	f.coordinator = agent.NewCoordinator("Coordinator", f.llm)
	strategist := agent.NewWorker("Strategist", f.llm)
	officer := agent.NewWorker("ComplianceOfficer", f.llm)
	analyst := agent.NewWorker("RiskAnalyst", f.riskLLM)
	writer := agent.NewWorker("Writer", f.llm)

	f.tasks = []*core.Task{
		core.NewTask("idea", strategist, func(o *core.TaskOptions) {
			o.Description = "Idea for {{.user_prompt}}"
			o.Reads = []string{core.InputUserPrompt}
			o.OutputKey = "idea"
		}),
		core.NewTask("compliance", officer, func(o *core.TaskOptions) {
			o.Description = "Compliance of {{.idea}}"
			o.Reads = []string{"idea"}
			o.OutputKey = "compliance_summary"
		}),
		core.NewTask("risk", analyst, func(o *core.TaskOptions) {
			o.Description = "Risk of {{.idea}}"
			o.Reads = []string{"idea", "compliance_summary"}
			o.OutputKey = "risk_summary"
		}),
		core.NewTask("report", writer, func(o *core.TaskOptions) {
			o.Description = "Report on {{.risk_summary}}"
			o.Reads = []string{"idea", "compliance_summary", "risk_summary"}
		}),
		core.NewTask("qa", f.coordinator, func(o *core.TaskOptions) {
			o.Description = "Finalize"
		}),
	}
	return f
}

func inputs() map[string]string {
	return map[string]string{core.InputUserPrompt: "partner with a fintech"}
}

func TestEngine_ExecuteEndToEnd(t *testing.T) {
	f := newFixture()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(_ context.Context, cc *CallbackContext) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, string(cc.CallbackType)+":"+cc.TaskID)
		return nil
	}
	callbacks := NewCallbackManager()
	for _, ct := range []CallbackType{CallbackBeforeRun, CallbackBeforeTask, CallbackAfterTask, CallbackOnReview, CallbackAfterRun} {
		callbacks.RegisterCallback(NewFunctionCallback(ct, record))
	}

	eng := New(func(o *Options) {
		o.Tracer = tp.Tracer("test")
		o.Callbacks = callbacks
	})

	res, err := eng.Execute(context.Background(), f.tasks, f.coordinator, inputs())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.NotEmpty(t, res.Output)
	assert.Len(t, res.Memory, 3)
	assert.Equal(t, "Idea for partner with a fintech", res.Memory["idea"])
	require.Len(t, res.Tasks, 5)
	for _, rec := range res.Tasks {
		assert.Equal(t, core.TaskCompleted, rec.State, rec.TaskID)
	}
	assert.Equal(t, "Coordinator", res.Tasks[4].Agent)
	require.NotNil(t, res.Review)
	assert.LessOrEqual(t, res.Review.Edits(), 3)
	assert.Equal(t, res.Output, res.Review.Final)
	assert.Equal(t, []string{"idea", "compliance", "risk", "report", "qa"}, res.Plan.Order)

	names := map[string]bool{}
	for _, s := range sr.Ended() {
		names[s.Name()] = true
	}
	for _, n := range []string{"pipeline.run", "task.idea", "task.risk", "task.qa", "review"} {
		assert.True(t, names[n], n)
	}

	assert.Equal(t, "before_run:", events[0])
	assert.Equal(t, "before_task:idea", events[1])
	assert.Equal(t, "after_task:idea", events[2])
	assert.Equal(t, "after_run:", events[len(events)-1])
	assert.Contains(t, events, "on_review:")
}

func TestEngine_TaskFailureReturnsPartialResult(t *testing.T) {
	f := newFixture()
	f.riskLLM.SetHandler(func(context.Context, model.Request) (*model.Response, error) {
		return nil, errors.New("provider down")
	})

	var errorHooks int
	callbacks := NewCallbackManager()
	callbacks.RegisterCallback(NewFunctionCallback(CallbackOnError, func(context.Context, *CallbackContext) error {
		errorHooks++
		return nil
	}))

	res, err := New(func(o *Options) { o.Callbacks = callbacks }).Execute(context.Background(), f.tasks, f.coordinator, inputs())
	require.Error(t, err)

	var taskErr *core.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "risk", taskErr.TaskID)

	require.NotNil(t, res)
	assert.Empty(t, res.Output)
	assert.NotContains(t, res.Memory, "risk_summary")
	assert.Contains(t, res.Memory, "compliance_summary")
	require.Len(t, res.Tasks, 3)
	assert.Equal(t, core.TaskFailed, res.Tasks[2].State)
	assert.Contains(t, res.Tasks[2].Error, "provider down")
	assert.Nil(t, res.Review)
	assert.Equal(t, 2, errorHooks)
}

func TestEngine_DependencyErrorRunsNothing(t *testing.T) {
	f := newFixture()
	tasks := []*core.Task{f.tasks[1], f.tasks[0], f.tasks[4]}

	res, err := New().Execute(context.Background(), tasks, f.coordinator, inputs())
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "compliance", depErr.TaskID)
	assert.Equal(t, "idea", depErr.LaterWriter)
	assert.Empty(t, res.Tasks)
	assert.Equal(t, 0, f.llm.Calls())
}

func TestEngine_BeforeRunCallbackAborts(t *testing.T) {
	f := newFixture()
	callbacks := NewCallbackManager()
	callbacks.RegisterCallback(NewFunctionCallback(CallbackBeforeRun, func(context.Context, *CallbackContext) error {
		return errors.New("quota exceeded")
	}))

	_, err := New(func(o *Options) { o.Callbacks = callbacks }).Execute(context.Background(), f.tasks, f.coordinator, inputs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 0, f.llm.Calls())
}

func TestEngine_NoCoordinator(t *testing.T) {
	f := newFixture()
	_, err := New().Execute(context.Background(), f.tasks, nil, inputs())
	assert.ErrorIs(t, err, ErrNoCoordinator)
}

func TestEngine_RunsAreIsolated(t *testing.T) {
	f := newFixture()
	eng := New()

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := map[string]string{core.InputUserPrompt: string(rune('a' + i))}
			res, err := eng.Execute(context.Background(), f.tasks, f.coordinator, in)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, "Idea for "+string(rune('a'+i)), res.Memory["idea"])
	}
}

func TestLoggingCallback(t *testing.T) {
	var got string
	cb := NewLoggingCallback(CallbackOnError, func(msg string) { got = msg })
	require.NoError(t, cb.Execute(context.Background(), &CallbackContext{RunID: "r", TaskID: "t", Agent: "a", Err: errors.New("x")}))
	assert.Equal(t, "[on_error] run=r task=t agent=a error=x", got)
}
