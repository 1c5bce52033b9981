package crew

import "github.com/hupe1980/taskmesh/core"

const ideationPrompt = `User request: {{.user_prompt}}

Propose the strongest partnership concept for this request.
1. Infer the primary sector (telco, retail, gig platforms, travel, education or healthcare). If it is unclear, shortlist two and pick the one with the better business impact and compliance feasibility.
2. Ground the idea in the knowledge base (partnership archetypes, revenue models, customer journeys, sector play hints) and two to four short web snippets.
3. Describe the value proposition, the incentive mechanics (loyalty, cashback, tiers), week-by-week go-to-market steps for the first six weeks and basic KPIs (activation, transaction frequency, average order value, retention).`

const compliancePrompt = `User request: {{.user_prompt}}

Partnership idea:
{{.idea}}

Retrieve three to six relevant policy or compliance snippets from the knowledge base and the web.
Summarize pass / gap / unknown for: KYC/AML, PCI-DSS scope (tokenization, avoiding PAN handling), privacy and consent (explicit consent, purpose limitation, retention, portability), data residency, vendor SLAs and right to audit, logging and monitoring.
Cite the file names or links you used.`

const riskPrompt = `User request: {{.user_prompt}}

Partnership idea:
{{.idea}}

Compliance summary:
{{.compliance_summary}}

Structure the risks by category: operational, fraud, security, scalability and costs, regulatory and licensing, vendor and partner, market and adoption.
For each category list the top one or two concrete risks with one or two actionable mitigations (rate limits, device fingerprinting, key rotation, SLAs, audits, staged rollouts).`

const reportPrompt = `User request: {{.user_prompt}}

Idea:
{{.idea}}

Compliance summary:
{{.compliance_summary}}

Risk summary:
{{.risk_summary}}

Compose a concise Markdown report with these sections:
1. Proposed Partnership Idea: one clear paragraph.
2. Rationale & Value: sector dynamics and a one-line revenue model.
3. Compliance Snapshot: the pass / gap / unknown checklist with cited sources.
4. Risks & Mitigations: grouped and prioritized bullets.
5. Next Steps: week 1 to 6 milestones and an initial KPI target table (activation %, transaction frequency, AOV, CAC payback).
Stay under about 450 words. End with a short "What we used" footer and a reference list of the web results you relied on.`

const qaPrompt = `QA the writer's draft for the request "{{.user_prompt}}" for clarity, grounding and consistency with the knowledge base.`

func buildTasks(c *Crew) []*core.Task {
	return []*core.Task{
		core.NewTask(TaskIdeation, c.Strategist, func(o *core.TaskOptions) {
			o.Description = ideationPrompt
			o.ExpectedOutput = "A concise 120-160 word partnership concept."
			o.Reads = []string{core.InputUserPrompt}
			o.OutputKey = KeyIdea
		}),
		core.NewTask(TaskCompliance, c.Compliance, func(o *core.TaskOptions) {
			o.Description = compliancePrompt
			o.ExpectedOutput = "A short bullet list of at most 120 words citing the sources used."
			o.Reads = []string{core.InputUserPrompt, KeyIdea}
			o.OutputKey = KeyCompliance
		}),
		core.NewTask(TaskRisk, c.Risk, func(o *core.TaskOptions) {
			o.Description = riskPrompt
			o.ExpectedOutput = "Bullet points grouped by category, at most 150 words."
			o.Reads = []string{core.InputUserPrompt, KeyIdea, KeyCompliance}
			o.OutputKey = KeyRisk
		}),
		core.NewTask(TaskReport, c.Writer, func(o *core.TaskOptions) {
			o.Description = reportPrompt
			o.ExpectedOutput = "A single Markdown document."
			o.Reads = []string{core.InputUserPrompt, KeyIdea, KeyCompliance, KeyRisk}
		}),
		core.NewTask(TaskQA, c.Coordinator, func(o *core.TaskOptions) {
			o.Description = qaPrompt
			o.ExpectedOutput = "The final Markdown document."
			o.Reads = []string{core.InputUserPrompt}
		}),
	}
}
