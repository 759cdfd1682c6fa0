package model

// Record is the pipeline's output for a single input message.
type Record struct {
	Transaction    *ExtractedTransaction `json:"transaction,omitempty"`
	Message        RawMessage            `json:"message"`
	Hash           string                `json:"hash"`
	SkipReason     string                `json:"skip_reason,omitempty"`
	Classification ClassificationResult  `json:"classification"`
	NeedsReview    bool                  `json:"needs_review"`
}

// Skip reasons for messages that never reach the filter.
const (
	SkipOutbound  = "outbound"
	SkipDuplicate = "duplicate"
)

// Skipped reports whether the pipeline bypassed classification for this record.
func (r *Record) Skipped() bool {
	return r.SkipReason != ""
}
