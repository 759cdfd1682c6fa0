// Package ingest reads SMS exports into raw messages and writes JSON results.
package ingest

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
)

// Field aliases seen across export tools, in preference order.
var (
	bodyKeys      = []string{"body", "message_body", "message", "text"}
	senderKeys    = []string{"sender", "sender_name", "address", "from"}
	timestampKeys = []string{"date", "timestamp", "received_at", "time"}
	directionKeys = []string{"direction", "type"}
	idKeys        = []string{"unique_id", "id"}
)

// xmlBackup mirrors the "SMS Backup & Restore" Android export.
type xmlBackup struct {
	XMLName xml.Name `xml:"smses"`
	SMS     []xmlSMS `xml:"sms"`
}

type xmlSMS struct {
	Address string `xml:"address,attr"`
	Body    string `xml:"body,attr"`
	Date    string `xml:"date,attr"`
	Type    string `xml:"type,attr"`
}

// LoadFile reads a JSON or XML export. The format is chosen by extension and
// falls back to sniffing the first byte.
func LoadFile(path string) ([]model.RawMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied input file
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var msgs []model.RawMessage
	switch format := detectFormat(path, data); format {
	case "xml":
		msgs, err = ParseXML(data)
	case "json":
		msgs, err = ParseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrNoMessages, path)
	}
	return msgs, nil
}

func detectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return "xml"
	case ".json":
		return "json"
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '<':
		return "xml"
	case '[', '{':
		return "json"
	}
	return ""
}

// ParseJSON accepts a list of message objects or an object holding that list
// under "sms" or "messages".
func ParseJSON(data []byte) ([]model.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var entries []any
	switch v := doc.(type) {
	case []any:
		entries = v
	case map[string]any:
		for _, key := range []string{"sms", "messages", "financial_sms"} {
			if list, ok := v[key].([]any); ok {
				entries = list
				break
			}
		}
		if entries == nil {
			return nil, fmt.Errorf("%w: object has no sms list", common.ErrUnsupportedFormat)
		}
	default:
		return nil, fmt.Errorf("%w: expected array or object", common.ErrUnsupportedFormat)
	}

	msgs := make([]model.RawMessage, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected object", i)
		}

		ts, err := ParseTimestamp(pick(obj, timestampKeys))
		if err != nil {
			common.LogDebug("Ignoring unreadable timestamp", common.Fields{"index": i, "error": err.Error()})
		}

		msgs = append(msgs, model.RawMessage{
			ID:        pick(obj, idKeys),
			Sender:    pick(obj, senderKeys),
			Body:      pick(obj, bodyKeys),
			Timestamp: ts,
			Direction: parseDirection(pick(obj, directionKeys)),
		})
	}
	return msgs, nil
}

// ParseXML reads an Android SMS backup. Dates are epoch milliseconds; type 1
// is inbox and 2 is sent.
func ParseXML(data []byte) ([]model.RawMessage, error) {
	var backup xmlBackup
	if err := xml.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}

	msgs := make([]model.RawMessage, 0, len(backup.SMS))
	for i, sms := range backup.SMS {
		ts, err := ParseTimestamp(sms.Date)
		if err != nil {
			common.LogDebug("Ignoring unreadable timestamp", common.Fields{"index": i, "error": err.Error()})
		}
		msgs = append(msgs, model.RawMessage{
			Sender:    sms.Address,
			Body:      sms.Body,
			Timestamp: ts,
			Direction: parseDirection(sms.Type),
		})
	}
	return msgs, nil
}

func pick(obj map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case json.Number:
			return val.String()
		case bool:
			continue
		default:
			return fmt.Sprint(val)
		}
	}
	return ""
}

func parseDirection(value string) model.Direction {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "inbound", "received", "inbox", "incoming", "1":
		return model.DirectionInbound
	case "outbound", "sent", "outbox", "outgoing", "2":
		return model.DirectionOutbound
	}
	return ""
}
