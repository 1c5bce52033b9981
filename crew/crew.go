// Package crew assembles the partnership pipeline: a Coordinator, four
// worker personas and the five tasks that turn a user prompt into a vetted
// Markdown report.
package crew

import (
	"github.com/hupe1980/taskmesh/agent"
	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/model"
	"github.com/hupe1980/taskmesh/tool"
)

// Memory keys written by the pipeline.
const (
	KeyIdea       = "idea"
	KeyCompliance = "compliance_summary"
	KeyRisk       = "risk_summary"
)

// Task identifiers in pipeline order.
const (
	TaskIdeation   = "ideation"
	TaskCompliance = "compliance_scan"
	TaskRisk       = "risk_analysis"
	TaskReport     = "report"
	TaskQA         = "qa"
)

// Options configures the crew.
type Options struct {
	// Knowledge is the knowledge corpus search tool. Optional.
	Knowledge core.Tool
	// WebSearch is the web search tool. Optional; omitted when nil.
	WebSearch core.Tool
	// MaxEdits bounds the Coordinator's QA pass.
	MaxEdits int
	// MaxModelCalls bounds each agent execution.
	MaxModelCalls int
}

// Crew is the assembled pipeline.
type Crew struct {
	Coordinator *agent.Coordinator
	Strategist  *agent.Worker
	Compliance  *agent.Worker
	Risk        *agent.Worker
	Writer      *agent.Worker
	Tasks       []*core.Task
}

// New builds the crew with every agent backed by llm.
func New(llm model.Model, optFns ...func(o *Options)) *Crew {
	opts := Options{
		MaxEdits:      agent.DefaultMaxEdits,
		MaxModelCalls: agent.DefaultMaxModelCalls,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	research := researchTools(opts)
	memoryReader := tool.NewMemoryTool()

	c := &Crew{}
	c.Coordinator = agent.NewCoordinator("Coordinator", llm, func(o *agent.CoordinatorOptions) {
		o.Role = "Coordinator"
		o.Goal = "Plan a minimal flow and finalize a clear, auditable outcome."
		o.Backstory = "Fintech product lead known for crisp, risk-aware decisions."
		o.MaxEdits = opts.MaxEdits
		o.MaxModelCalls = opts.MaxModelCalls
		o.Checklist = []string{
			"The idea matches the user's intent.",
			"The compliance snapshot is consistent with the knowledge base.",
			"The risks cover the breadth of the risk pointers.",
			"The KPIs are reasonable for an early-stage pilot.",
			"The tone is concise and partner-ready.",
		}
	})

	c.Strategist = agent.NewWorker("PartnershipStrategist", llm, func(o *agent.Options) {
		o.Role = "Partnership Strategist"
		o.Goal = "Design a concrete sector partnership that maximizes user growth and revenue, " +
			"with a crisp value proposition and activation plan."
		o.Backstory = "Practical B2B2C strategist. Prefers measurable KPIs, simple incentives and " +
			"go-to-market steps that launch in under six weeks. " + queryHint
		o.Tools = research
		o.MaxModelCalls = opts.MaxModelCalls
	})

	c.Compliance = agent.NewWorker("ComplianceOfficer", llm, func(o *agent.Options) {
		o.Role = "Compliance Officer"
		o.Goal = "Check the idea against KYC/AML, PCI and privacy basics and summarize the status."
		o.Backstory = "Experienced compliance specialist who cites policy fragments succinctly. " + queryHint
		o.Tools = append(append([]core.Tool{}, research...), memoryReader)
		o.MaxModelCalls = opts.MaxModelCalls
	})

	c.Risk = agent.NewWorker("RiskAnalyst", llm, func(o *agent.Options) {
		o.Role = "Risk Analyst"
		o.Goal = "Outline operational, fraud, security, scalability and regulatory risks with one or two mitigations each."
		o.Backstory = "Risk professional who prioritizes concise mitigation plans. " + queryHint
		o.Tools = append(append([]core.Tool{}, research...), memoryReader)
		o.MaxModelCalls = opts.MaxModelCalls
	})

	c.Writer = agent.NewWorker("Writer", llm, func(o *agent.Options) {
		o.Role = "Writer"
		o.Goal = "Produce an executive-ready Markdown report with sections and checklists."
		o.Backstory = "Clear, structured technical writer."
		o.Tools = []core.Tool{memoryReader}
		o.MaxModelCalls = opts.MaxModelCalls
	})

	c.Tasks = buildTasks(c)
	return c
}

// Workers returns the worker personas in pipeline order.
func (c *Crew) Workers() []*agent.Worker {
	return []*agent.Worker{c.Strategist, c.Compliance, c.Risk, c.Writer}
}

const queryHint = `Call search tools with a single "search_query" argument holding a few keywords, ` +
	`e.g. {"search_query": "telco co-branded wallet cashback loyalty"}.`

func researchTools(opts Options) []core.Tool {
	var tools []core.Tool
	if opts.Knowledge != nil {
		tools = append(tools, opts.Knowledge)
	}
	if opts.WebSearch != nil {
		tools = append(tools, opts.WebSearch)
	}
	return tools
}
