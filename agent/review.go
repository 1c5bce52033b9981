package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/taskmesh/core"
)

// ApprovalMarker starts a reviewer reply that accepts the draft unchanged.
const ApprovalMarker = "APPROVED"

// runQATask executes the final coordinator-bound task as the QA pass: its
// rendered description is the review instruction and draft its input.
func (c *Coordinator) runQATask(runCtx *core.RunContext, task *core.Task, draft string) (string, error) {
	state, err := core.Transition(task.ID(), core.TaskPending, core.TaskRunning)
	if err != nil {
		return "", err
	}

	info := c.Info()
	taskCtx := runCtx.ForTask(task.ID(), info, c.maxModelCalls).NotifyTaskStart(task, info)
	taskCtx.LogInfo("task.start", "task", task.ID(), "agent", info.Name, "decision", "review")

	fail := func(err error) (string, error) {
		state, _ = core.Transition(task.ID(), state, core.TaskFailed)
		taskCtx.NotifyTaskEnd(task, state, "", err)
		taskCtx.LogError("task.failed", "task", task.ID(), "agent", info.Name, "error", err.Error())
		return "", &core.TaskError{TaskID: task.ID(), Agent: info.Name, Err: err}
	}

	instructions, err := task.Prompt(taskCtx.Inputs, taskCtx.Memory)
	if err != nil {
		return fail(err)
	}

	review, err := c.Review(taskCtx, instructions, draft)
	if err != nil {
		return fail(err)
	}
	if err := task.Complete(review.Final, runCtx.Memory); err != nil {
		return fail(err)
	}

	state, _ = core.Transition(task.ID(), state, core.TaskCompleted)
	taskCtx.NotifyTaskEnd(task, state, review.Final, nil)
	taskCtx.LogInfo("task.completed", "task", task.ID(), "agent", info.Name, "edits", review.Edits())

	return review.Final, nil
}

// Review runs the bounded QA pass over draft. Each round the reviewer either
// approves (a reply starting with APPROVED, or an empty reply) or returns a
// full rewrite. After MaxEdits rewrites the last draft is returned with
// Exhausted set. Edits are never rolled back.
func (c *Coordinator) Review(runCtx *core.RunContext, instructions, draft string) (*core.Review, error) {
	review := &core.Review{Initial: draft, Final: draft, MaxEdits: c.maxEdits}
	reviewCtx := runCtx.NotifyReviewStart(draft)

	start := time.Now()
	current := draft
	for attempt := 1; attempt <= c.maxEdits; attempt++ {
		prompt := c.reviewPrompt(reviewCtx.UserPrompt(), instructions, current, c.maxEdits-attempt+1)

		attemptCtx := reviewCtx.ForTask(reviewTaskID(runCtx), c.Info(), c.maxModelCalls)
		reply, err := runToolLoop(attemptCtx, &c.BaseAgent, prompt, c.Tools())
		if err != nil {
			err = fmt.Errorf("review attempt %d: %w", attempt, err)
			reviewCtx.NotifyReviewEnd(review, err)
			return nil, err
		}

		if isApproval(reply) {
			review.Approved = true
			reviewCtx.LogInfo("review.approved", "attempt", attempt, "edits", review.Edits())
			break
		}

		rev := core.Revision{Attempt: attempt, Draft: reply, Diff: unifiedDiff(current, reply, attempt)}
		review.Revisions = append(review.Revisions, rev)
		reviewCtx.LogInfo("review.edit", "attempt", attempt, "diff_lines", strings.Count(rev.Diff, "\n"))
		current = reply
	}

	review.Final = current
	if !review.Approved && c.maxEdits > 0 {
		review.Exhausted = true
		reviewCtx.LogWarn("review.exhausted", "max_edits", c.maxEdits, "returning", "last_draft")
	}

	reviewCtx.LogInfo("review.complete",
		"edits", review.Edits(),
		"approved", review.Approved,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	reviewCtx.NotifyReviewEnd(review, nil)

	return review, nil
}

func reviewTaskID(runCtx *core.RunContext) string {
	if runCtx.TaskID != "" {
		return runCtx.TaskID
	}
	return "review"
}

func (c *Coordinator) reviewPrompt(userPrompt, instructions, draft string, remaining int) string {
	var sb strings.Builder
	if instructions != "" {
		sb.WriteString(instructions)
		sb.WriteString("\n\n")
	}
	if userPrompt != "" {
		fmt.Fprintf(&sb, "User request: %s\n\n", userPrompt)
	}
	sb.WriteString("Review the draft below against this checklist:\n")
	for _, item := range c.checklist {
		fmt.Fprintf(&sb, "- %s\n", item)
	}
	fmt.Fprintf(&sb, "\nIf the draft satisfies every item, reply with %s and nothing else. ", ApprovalMarker)
	fmt.Fprintf(&sb, "Otherwise reply with the complete corrected document (full rewrite, %d edit(s) left).\n\n", remaining)
	sb.WriteString("Draft:\n")
	sb.WriteString(draft)
	return sb.String()
}

// isApproval accepts an empty reply, the bare marker (optionally followed by
// '.' or '!') as the first line, or a one-line reply where the marker is
// followed by a separator and a short remark. Multi-line replies whose first
// line merely begins with the word are rewrites.
func isApproval(reply string) bool {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return true
	}
	first, rest, multiline := strings.Cut(reply, "\n")
	first = strings.TrimSpace(first)
	if strings.EqualFold(strings.TrimRight(first, ".!"), ApprovalMarker) {
		return true
	}
	if multiline && strings.TrimSpace(rest) != "" {
		return false
	}
	if len(first) <= len(ApprovalMarker) || !strings.EqualFold(first[:len(ApprovalMarker)], ApprovalMarker) {
		return false
	}
	return strings.ContainsRune(":,;-.!", rune(strings.TrimLeft(first[len(ApprovalMarker):], " ")[0]))
}

func unifiedDiff(prev, next string, attempt int) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(prev),
		B:        difflib.SplitLines(next),
		FromFile: fmt.Sprintf("draft-%d", attempt-1),
		ToFile:   fmt.Sprintf("draft-%d", attempt),
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return diff
}
