package agent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/tool"
)

// runToolLoop drives one execution: the model is called with the prompt and
// tool definitions, requested tools are executed and their results appended,
// until the model answers with plain text.
func runToolLoop(runCtx *core.RunContext, b *BaseAgent, prompt string, tools []core.Tool) (string, error) {
	if b.llm == nil {
		return "", fmt.Errorf("agent %s: no model configured", b.info.Name)
	}

	instructions, err := b.ResolveInstructions(runCtx)
	if err != nil {
		return "", fmt.Errorf("resolve instructions: %w", err)
	}

	req := model.Request{
		Instructions: instructions,
		Messages:     []model.Message{model.UserMessage(prompt)},
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, model.ToolDefinitionFor(t))
	}

	limiter := runCtx.Limiter
	if limiter == nil {
		limiter = core.NewModelLimiter(b.maxModelCalls)
	}

	for {
		if err := runCtx.Err(); err != nil {
			return "", err
		}
		if err := limiter.Increment(); err != nil {
			return "", err
		}

		start := time.Now()
		resp, err := b.llm.Generate(runCtx.Context, req)
		logModelCall(runCtx, b.info, resp, time.Since(start), err)
		if err != nil {
			return "", fmt.Errorf("model generate: %w", err)
		}
		if resp == nil {
			return "", errors.New("model returned no response")
		}

		if !resp.HasToolCalls() {
			return strings.TrimSpace(resp.Message.Content), nil
		}

		msg := resp.Message
		msg.ToolCalls = append([]model.ToolCall(nil), msg.ToolCalls...)
		for i := range msg.ToolCalls {
			if msg.ToolCalls[i].ID == "" {
				msg.ToolCalls[i].ID = uuid.NewString()
			}
		}
		req.Messages = append(req.Messages, msg)

		for _, call := range msg.ToolCalls {
			result, err := callTool(runCtx, b.info, tools, call)
			if err != nil {
				if !tool.IsRecoverable(err) {
					return "", err
				}
				req.Messages = append(req.Messages, model.ToolResultMessage(call.ID, err.Error(), true))
				continue
			}
			req.Messages = append(req.Messages, model.ToolResultMessage(call.ID, tool.FormatResult(result), false))
		}
	}
}

func callTool(runCtx *core.RunContext, info core.AgentInfo, tools []core.Tool, call model.ToolCall) (any, error) {
	toolCtx := core.NewToolContext(runCtx, call.ID)

	start := time.Now()
	result, err := tool.Execute(toolCtx, tools, call.Function.Name, call.Function.Arguments)
	dur := time.Since(start)

	if sl, ok := runCtx.Logger().(*logging.StructuredLogger); ok {
		sl.LogToolCall(call.Function.Name, dur, err)
	}
	runCtx.LogInfo("agent.tool.executed",
		"agent", info.Name,
		"task", runCtx.TaskID,
		"tool", call.Function.Name,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)

	return result, err
}

func logModelCall(runCtx *core.RunContext, info core.AgentInfo, resp *model.Response, dur time.Duration, err error) {
	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if sl, ok := runCtx.Logger().(*logging.StructuredLogger); ok {
		sl.LogLLMCall(info.Model, tokens, dur, err)
		return
	}
	runCtx.LogDebug("agent.model.call",
		"agent", info.Name,
		"model", info.Model,
		"tokens", tokens,
		"duration_ms", dur.Milliseconds(),
		"error", err != nil,
	)
}
