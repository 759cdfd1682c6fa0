package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRawMessage_Hash(t *testing.T) {
	ts := time.Date(2024, 12, 1, 10, 30, 0, 0, time.UTC)
	base := RawMessage{Sender: "VM-HDFCBK", Body: "Rs 500 debited", Timestamp: ts}

	tests := []struct {
		name  string
		other RawMessage
		same  bool
	}{
		{"identical", base, true},
		{"sender case and spacing ignored", RawMessage{Sender: " vm-hdfcbk ", Body: "Rs 500 debited", Timestamp: ts}, true},
		{"same instant in another zone", RawMessage{Sender: "VM-HDFCBK", Body: "Rs 500 debited", Timestamp: ts.In(time.FixedZone("IST", 19800))}, true},
		{"different body", RawMessage{Sender: "VM-HDFCBK", Body: "Rs 600 debited", Timestamp: ts}, false},
		{"different time", RawMessage{Sender: "VM-HDFCBK", Body: "Rs 500 debited", Timestamp: ts.Add(time.Minute)}, false},
		{"missing time", RawMessage{Sender: "VM-HDFCBK", Body: "Rs 500 debited"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, base.Hash(), 64)
			assert.Equal(t, tt.same, base.Hash() == tt.other.Hash())
		})
	}
}

func TestRawMessage_IsInbound(t *testing.T) {
	assert.True(t, RawMessage{}.IsInbound())
	assert.True(t, RawMessage{Direction: DirectionInbound}.IsInbound())
	assert.False(t, RawMessage{Direction: DirectionOutbound}.IsInbound())
}

func TestRawMessage_IsBlank(t *testing.T) {
	assert.True(t, RawMessage{Body: ""}.IsBlank())
	assert.True(t, RawMessage{Body: " \n\t "}.IsBlank())
	assert.False(t, RawMessage{Body: "hi"}.IsBlank())
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "sms_000001", MessageID(1))
	assert.Equal(t, "sms_123456", MessageID(123456))
}

func TestExclusionReason_IsValid(t *testing.T) {
	for _, r := range ExclusionReasons() {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, ExclusionReason("spam").IsValid())
}
