package ich

import (
	"fmt"
)

// ExtrapolationInput describes the evidence available for extending a shelf-life
// beyond the longest observed long-term timepoint.
type ExtrapolationInput struct {
	BaseMonths                    float64 `json:"base_months" validate:"gte=0"` // X, longest available long-term timepoint
	SignificantChangeAccelerated  bool    `json:"significant_change_accelerated"`
	SignificantChangeIntermediate bool    `json:"significant_change_intermediate"`
	Refrigerated                  bool    `json:"refrigerated"`
	StatisticsSupported           bool    `json:"statistics_supported"` // Regression meets the fit-quality threshold
	SupportingDataAvailable       bool    `json:"supporting_data_available"`
}

// ExtrapolationDecision is the proposed shelf-life Y for base X
type ExtrapolationDecision struct {
	BaseMonths     float64 `json:"base_months"`
	ProposedMonths float64 `json:"proposed_months"`
	Decision       string  `json:"decision"`
	Notes          string  `json:"notes"`
}

const (
	DecisionNone         = "No extrapolation"
	DecisionRefrigerated = "Limited extrapolation for refrigerated product"
	DecisionSupported    = "Extrapolation allowed with support"
	DecisionFull         = "Max extrapolation with full support"
	DecisionPartial      = "Partial extrapolation with support"
)

// ProposeExtrapolation applies the ICH Q1E decision tree for room-temperature and
// refrigerated products. The proposal never exceeds twice the base period.
func ProposeExtrapolation(in ExtrapolationInput) ExtrapolationDecision {
	x := in.BaseMonths
	d := ExtrapolationDecision{BaseMonths: x, ProposedMonths: x, Decision: DecisionNone}

	switch {
	case in.SignificantChangeAccelerated && in.Refrigerated:
		d.ProposedMonths = x + 3
		d.Decision = DecisionRefrigerated
		d.Notes = "Significant change at accelerated; refrigerated storage allows +3M"
	case in.SignificantChangeIntermediate:
		d.Notes = "Significant change at intermediate prevents extrapolation"
	case in.SignificantChangeAccelerated:
		if in.StatisticsSupported || in.SupportingDataAvailable {
			d.ProposedMonths = x + 3
			d.Decision = DecisionSupported
			d.Notes = "Support data or R2 allows +3M"
		} else {
			d.Notes = "Insufficient statistical support"
		}
	case in.StatisticsSupported && in.SupportingDataAvailable:
		d.ProposedMonths = x + 6
		d.Decision = DecisionFull
		d.Notes = "R2 and extra data allow +6M"
	case in.StatisticsSupported || in.SupportingDataAvailable:
		d.ProposedMonths = x + 3
		d.Decision = DecisionPartial
		d.Notes = "Partial support allows +3M"
	default:
		d.Notes = "No statistical or supporting data available"
	}

	if x > 0 && d.ProposedMonths > 2*x {
		d.ProposedMonths = 2 * x
		d.Notes = fmt.Sprintf("%s (capped at 2X = %gM)", d.Notes, 2*x)
	}
	return d
}
