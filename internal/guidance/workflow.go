package guidance

import (
	"fmt"

	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
)

// WorkflowStep is a single checklist item in a manual trade execution
// workflow. Grounded on guidance/workflow.py's WorkflowStep dataclass.
type WorkflowStep struct {
	StepNumber     int    `json:"step_number"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ActionRequired string `json:"action_required"`
}

// ExecutionWorkflow builds the seven-step manual execution checklist for a
// single signal and its decision recommendation, mirroring
// ManualWorkflow.create_execution_workflow step-for-step. Stop-loss
// placement (step 6) is called out as mandatory the same way the original
// does.
func ExecutionWorkflow(sig signals.TradingSignal, rec DecisionRecommendation) []WorkflowStep {
	return []WorkflowStep{
		{
			StepNumber:     1,
			Title:          "Review Recommendation",
			Description:    fmt.Sprintf("Review %s recommendation", rec.Decision),
			ActionRequired: "Read rationale and check bias warnings",
		},
		{
			StepNumber:     2,
			Title:          "Check Portfolio Allocation",
			Description:    "Verify current portfolio allocation and BTC percentage",
			ActionRequired: "Check if new position fits portfolio constraints",
		},
		{
			StepNumber:     3,
			Title:          "Calculate Position Size",
			Description:    fmt.Sprintf("Position size: %.2f%% of portfolio", sig.PositionSizePct*100),
			ActionRequired: fmt.Sprintf("Calculate exact position size based on %.2f%% risk", sig.PositionSizePct*100),
		},
		{
			StepNumber:     4,
			Title:          "Set Entry Order",
			Description:    fmt.Sprintf("Entry: $%.2f", sig.EntryPrice),
			ActionRequired: fmt.Sprintf("Place %s order at $%.2f", sig.Type, sig.EntryPrice),
		},
		{
			StepNumber:     5,
			Title:          "Set Take Profit",
			Description:    fmt.Sprintf("Take profit: $%.2f (+%.2f%%)", sig.TakeProfit, sig.TakeProfitPct),
			ActionRequired: fmt.Sprintf("Set TP order at $%.2f", sig.TakeProfit),
		},
		{
			StepNumber:     6,
			Title:          "Set Stop Loss",
			Description:    fmt.Sprintf("Stop loss: $%.2f (-%.2f%%)", sig.StopLoss, sig.StopLossPct),
			ActionRequired: fmt.Sprintf("Set SL order at $%.2f (MANDATORY)", sig.StopLoss),
		},
		{
			StepNumber:     7,
			Title:          "Confirm Execution",
			Description:    "Review all orders before confirming",
			ActionRequired: "Confirm all orders are set correctly",
		},
	}
}

// WorkflowSummary is the progress rollup over a set of workflow steps.
// Every step returned by ExecutionWorkflow starts uncompleted, so a freshly
// built workflow always summarizes as 0/len(steps) in_progress - mirroring
// get_workflow_summary's shape without the stateful completion tracking the
// original's interactive CLI needs.
type WorkflowSummary struct {
	TotalSteps     int    `json:"total_steps"`
	CompletedSteps int    `json:"completed_steps"`
	Progress       float64 `json:"progress"`
	Status         string `json:"status"`
}

// SummarizeWorkflow mirrors get_workflow_summary for a freshly generated,
// all-pending workflow.
func SummarizeWorkflow(steps []WorkflowStep) WorkflowSummary {
	total := len(steps)
	status := "in_progress"
	if total == 0 {
		status = "completed"
	}
	return WorkflowSummary{TotalSteps: total, CompletedSteps: 0, Progress: 0.0, Status: status}
}
