// Package model defines the core domain types for SMS ingestion, classification and extraction.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Direction indicates whether a message was received or sent by the handset owner.
type Direction string

const (
	// DirectionInbound marks a message received by the device.
	DirectionInbound Direction = "inbound"
	// DirectionOutbound marks a message sent from the device.
	DirectionOutbound Direction = "outbound"
)

// RawMessage is a single SMS as read from an export.
type RawMessage struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"unique_id,omitempty"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Direction Direction `json:"direction,omitempty"`
}

// IsInbound reports whether the message was received. Messages without a
// direction are treated as received.
func (m RawMessage) IsInbound() bool {
	return m.Direction == "" || m.Direction == DirectionInbound
}

// IsBlank reports whether the body has no visible content.
func (m RawMessage) IsBlank() bool {
	return strings.TrimSpace(m.Body) == ""
}

// Hash creates a unique hash for duplicate detection.
func (m RawMessage) Hash() string {
	ts := ""
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UTC().Format(time.RFC3339)
	}
	data := fmt.Sprintf("%s:%s:%s",
		strings.ToUpper(strings.TrimSpace(m.Sender)),
		strings.TrimSpace(m.Body),
		ts)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// MessageID formats the sequential identifier assigned to the n-th message of a batch (1-based).
func MessageID(n int) string {
	return fmt.Sprintf("sms_%06d", n)
}
