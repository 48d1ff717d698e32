package marketdata

import "sort"

// RebalanceAction is a single buy/sell adjustment surfaced by
// RebalanceToBTCTarget.
type RebalanceAction struct {
	Symbol        string  `json:"symbol"`
	Action        string  `json:"action"` // "buy" or "sell"
	Amount        float64 `json:"amount"`
	CurrentAmount float64 `json:"current_amount"`
}

// RebalancePlan is the full output of RebalanceToBTCTarget: where the
// portfolio's BTC allocation sits today, where it should sit, and the
// concrete actions to close the gap.
type RebalancePlan struct {
	TargetBTCAllocation  float64           `json:"target_btc_allocation"`
	CurrentBTCAllocation float64           `json:"current_btc_allocation"`
	Actions              []RebalanceAction `json:"actions"`
}

// RebalanceToBTCTarget computes the actions needed to move a portfolio's
// BTC share of allocations to targetBTCPct (0.0-1.0): BTC itself is
// bought or sold to close the gap directly, and every other holding is
// scaled proportionally so the remaining allocations still sum to the
// portfolio's original total. Grounded on
// portfolio/rebalancing.py's PortfolioRebalancer.rebalance_to_btc_target,
// as exercised via api/routes.py's /api/rebalancing/plan; the original's
// internal scaling mechanics were not available to port directly, so this
// proportional-scale-to-make-room rule is this platform's own
// implementation of the same target-allocation contract.
func RebalanceToBTCTarget(allocations map[string]float64, targetBTCPct float64) RebalancePlan {
	var total float64
	for _, v := range allocations {
		total += v
	}

	currentBTC := allocations["BTC"]
	var currentAllocation float64
	if total != 0 {
		currentAllocation = currentBTC / total
	}

	plan := RebalancePlan{TargetBTCAllocation: targetBTCPct, CurrentBTCAllocation: currentAllocation}
	if total == 0 {
		return plan
	}

	targetBTCValue := targetBTCPct * total
	nonBTCCurrentTotal := total - currentBTC
	nonBTCTargetTotal := total - targetBTCValue

	scale := 1.0
	if nonBTCCurrentTotal > 0 {
		scale = nonBTCTargetTotal / nonBTCCurrentTotal
	}

	symbols := make([]string, 0, len(allocations))
	for sym := range allocations {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		current := allocations[sym]
		var diff float64
		if sym == "BTC" {
			diff = targetBTCValue - current
		} else {
			diff = current*scale - current
		}
		if diff == 0 {
			continue
		}
		action := "buy"
		if diff < 0 {
			action = "sell"
		}
		plan.Actions = append(plan.Actions, RebalanceAction{
			Symbol:        sym,
			Action:        action,
			Amount:        abs(diff),
			CurrentAmount: current,
		})
	}
	return plan
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
