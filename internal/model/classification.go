package model

// ExclusionReason explains why a message was judged non-financial.
type ExclusionReason string

// Exclusion reasons reported by the financial filter.
const (
	ReasonOTP            ExclusionReason = "otp"
	ReasonPaymentRequest ExclusionReason = "payment_request"
	ReasonPromotional    ExclusionReason = "promotional"
	ReasonDataUsage      ExclusionReason = "data_usage"
	ReasonShopping       ExclusionReason = "shopping"
	ReasonSocial         ExclusionReason = "social"
	ReasonSystem         ExclusionReason = "system"
	ReasonGovernment     ExclusionReason = "government_info"
	// ReasonNone is used when no exclusion fired but the score stayed below threshold.
	ReasonNone ExclusionReason = "none"
)

// ExclusionReasons lists every reason in reporting order.
func ExclusionReasons() []ExclusionReason {
	return []ExclusionReason{
		ReasonOTP,
		ReasonPaymentRequest,
		ReasonPromotional,
		ReasonDataUsage,
		ReasonShopping,
		ReasonSocial,
		ReasonSystem,
		ReasonGovernment,
		ReasonNone,
	}
}

// IsValid checks whether the reason is one of the known values.
func (r ExclusionReason) IsValid() bool {
	for _, known := range ExclusionReasons() {
		if r == known {
			return true
		}
	}
	return false
}

// ClassificationResult is the financial filter's verdict for one message.
type ClassificationResult struct {
	ExclusionReason ExclusionReason `json:"exclusion_reason,omitempty"`
	ExcludedBy      string          `json:"excluded_by,omitempty"`
	MatchedGroups   []string        `json:"matched_groups,omitempty"`
	Score           int             `json:"score"`
	IsFinancial     bool            `json:"is_financial"`
}
