// Package taskmesh is the application façade over the pipeline engine. It
// wires the partnership crew, the engine and the durable MemoryLog so that
// most callers only need:
//  1. Creating a TaskMesh via New (or NewFromConfig for the CLI stack)
//  2. Calling Run with a free-form prompt
//  3. Calling Recall to list earlier run summaries
package taskmesh

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/config"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/crew"
	"github.com/hupe1980/taskmesh/engine"
	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/memory"
	"github.com/hupe1980/taskmesh/memory/sqlite"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/model/anthropic"
	"github.com/hupe1980/taskmesh/model/openai"
	"github.com/hupe1980/taskmesh/tool/retrieval"
	"github.com/hupe1980/taskmesh/tool/websearch"
)

const (
	// DefaultTopic is used when Run is called without a topic.
	DefaultTopic = "general"
	// DefaultRecallLimit is used when Recall is called with a non-positive limit.
	DefaultRecallLimit = 5
	// SummaryChars bounds the report excerpt saved to the MemoryLog.
	SummaryChars = 450
)

// ErrEmptyPrompt is returned when Run is called without a prompt.
var ErrEmptyPrompt = errors.New("prompt is required")

// Options configures the TaskMesh instance.
type Options struct {
	// Knowledge is the knowledge base search tool. Optional.
	Knowledge core.Tool
	// WebSearch is the web search tool. Optional.
	WebSearch core.Tool

	MaxEdits      int
	MaxModelCalls int

	// DefaultTopic replaces an empty Run topic.
	DefaultTopic string

	Callbacks *engine.CallbackManager
	Tracer    trace.Tracer

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// TaskMesh runs the partnership pipeline and records run summaries.
type TaskMesh struct {
	llm    model.Model
	log    core.MemoryLog
	opts   Options
	engine *engine.Engine
}

// New creates a TaskMesh backed by llm. A nil log falls back to a
// process-local in-memory log.
func New(llm model.Model, log core.MemoryLog, optFns ...func(o *Options)) *TaskMesh {
	opts := Options{
		MaxEdits:      agent.DefaultMaxEdits,
		MaxModelCalls: agent.DefaultMaxModelCalls,
		DefaultTopic:  DefaultTopic,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if log == nil {
		log = memory.NewInMemoryLog()
	}

	eng := engine.New(func(o *engine.Options) {
		o.Logger = opts.Logger
		o.Callbacks = opts.Callbacks
		o.Tracer = opts.Tracer
	})

	return &TaskMesh{llm: llm, log: log, opts: opts, engine: eng}
}

// NewFromConfig builds the model, tools and durable log described by cfg.
// The returned close function releases the log.
func NewFromConfig(cfg config.Config, logger logging.Logger, optFns ...func(o *Options)) (*TaskMesh, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	llm, err := NewModel(cfg)
	if err != nil {
		return nil, nil, err
	}

	log, err := sqlite.Open(cfg.DBPath, func(o *sqlite.Options) {
		o.Logger = logger
	})
	if err != nil {
		return nil, nil, err
	}

	knowledge := retrieval.NewTool(cfg.KnowledgeDir, func(o *retrieval.Options) {
		o.Logger = logger
	})

	var web core.Tool
	if cfg.WebSearchEnabled() {
		w, err := websearch.NewTool(cfg.SerperAPIKey, func(o *websearch.Options) {
			o.Logger = logger
		})
		if err != nil {
			_ = log.Close()
			return nil, nil, err
		}
		web = w
	}

	tm := New(llm, log, append([]func(o *Options){func(o *Options) {
		o.Knowledge = knowledge
		o.WebSearch = web
		o.MaxEdits = cfg.MaxEdits
		o.MaxModelCalls = cfg.MaxCalls
		o.DefaultTopic = cfg.DefaultTopic
		o.Logger = logger
	}}, optFns...)...)

	return tm, log.Close, nil
}

// NewModel returns the model of the configured provider.
func NewModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAI.APIKey
			o.BaseURL = cfg.OpenAI.BaseURL
			if cfg.OpenAI.Model != "" {
				o.Model = cfg.OpenAI.Model
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.Anthropic.APIKey
			if cfg.Anthropic.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Anthropic.Model)
			}
		}), nil
	case config.ProviderMock:
		m := model.NewMockModel("dry-run", config.ProviderMock)
		m.SetHandler(dryRunHandler)
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

// dryRunHandler approves every review and answers other prompts with their
// first line, so the mock provider exercises the whole pipeline offline.
func dryRunHandler(_ context.Context, req model.Request) (*model.Response, error) {
	text := req.LastUserText()
	if strings.Contains(text, agent.ApprovalMarker) {
		return model.TextResponse(agent.ApprovalMarker), nil
	}
	first, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	return model.TextResponse("Mock response to: " + first), nil
}

// Log returns the MemoryLog run summaries are saved to.
func (tm *TaskMesh) Log() core.MemoryLog { return tm.log }

// Run executes the crew for prompt and saves a summary of the final report
// under topic. The summary is only saved for successful runs.
func (tm *TaskMesh) Run(ctx context.Context, prompt, topic string) (*engine.Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if topic == "" {
		topic = tm.opts.DefaultTopic
	}

	c := crew.New(tm.llm, func(o *crew.Options) {
		o.Knowledge = tm.opts.Knowledge
		o.WebSearch = tm.opts.WebSearch
		o.MaxEdits = tm.opts.MaxEdits
		o.MaxModelCalls = tm.opts.MaxModelCalls
	})

	res, err := tm.engine.Execute(ctx, c.Tasks, c.Coordinator, map[string]string{
		core.InputUserPrompt: prompt,
	})
	if err != nil {
		return res, err
	}

	if err := tm.log.Save(ctx, topic, Summary(prompt, res.Output)); err != nil {
		return res, fmt.Errorf("save run summary: %w", err)
	}
	tm.opts.Logger.Info("run.saved", "run_id", res.RunID, "topic", topic)

	return res, nil
}

// Recall lists up to limit summaries, newest first. An empty topic lists all.
func (tm *TaskMesh) Recall(ctx context.Context, topic string, limit int) ([]core.Record, error) {
	if limit <= 0 {
		limit = DefaultRecallLimit
	}
	return tm.log.Recall(ctx, topic, limit)
}

// Summary builds the MemoryLog entry of a run.
func Summary(prompt, report string) string {
	return fmt.Sprintf("Prompt: %s\nResult (first %d chars): %s", prompt, SummaryChars, util.Truncate(report, SummaryChars))
}
