// Package bank resolves SMS sender codes and body text to canonical institution names.
package bank

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Institution describes a bank or payment app and the tokens that identify it.
type Institution struct {
	Name        string   `yaml:"name"`
	SenderCodes []string `yaml:"sender_codes"`
	Keywords    []string `yaml:"keywords"`
}

type senderKey struct {
	code string
	name string
}

type bodyKey struct {
	regex   *regexp.Regexp
	keyword string
	name    string
}

// Directory is an immutable lookup table of institutions.
// Longer keys are always tried before shorter ones so that specific
// codes such as "sbicrd" win over generic ones such as "sbi".
type Directory struct {
	senderKeys []senderKey
	bodyKeys   []bodyKey
	names      []string
}

// NewDirectory compiles the institution table.
func NewDirectory(institutions []Institution) (*Directory, error) {
	d := &Directory{}
	seen := make(map[string]bool)

	for _, inst := range institutions {
		name := strings.TrimSpace(inst.Name)
		if name == "" {
			return nil, fmt.Errorf("institution with codes %v has no name", inst.SenderCodes)
		}
		if !seen[name] {
			seen[name] = true
			d.names = append(d.names, name)
		}

		for _, code := range inst.SenderCodes {
			code = strings.ToLower(strings.TrimSpace(code))
			if code == "" {
				continue
			}
			d.senderKeys = append(d.senderKeys, senderKey{code: code, name: name})
		}

		for _, kw := range inst.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			pattern := `(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s+`) + `\b`
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to compile keyword %q for %s: %w", kw, name, err)
			}
			d.bodyKeys = append(d.bodyKeys, bodyKey{regex: re, keyword: kw, name: name})
		}
	}

	sort.SliceStable(d.senderKeys, func(i, j int) bool {
		return len(d.senderKeys[i].code) > len(d.senderKeys[j].code)
	})
	sort.SliceStable(d.bodyKeys, func(i, j int) bool {
		return len(d.bodyKeys[i].keyword) > len(d.bodyKeys[j].keyword)
	})

	return d, nil
}

// Resolve returns the institution named by the sender code, falling back to the body text.
func (d *Directory) Resolve(sender, body string) (string, bool) {
	if name, ok := d.FromSender(sender); ok {
		return name, true
	}
	return d.FromBody(body)
}

// FromSender matches the routing code of an SMS header such as "VM-HDFCBK-S".
func (d *Directory) FromSender(sender string) (string, bool) {
	code := SenderCode(sender)
	if code == "" {
		return "", false
	}
	for _, k := range d.senderKeys {
		if strings.Contains(code, k.code) {
			return k.name, true
		}
	}
	return "", false
}

// FromBody matches institution keywords on word boundaries.
func (d *Directory) FromBody(body string) (string, bool) {
	if strings.TrimSpace(body) == "" {
		return "", false
	}
	for _, k := range d.bodyKeys {
		if k.regex.MatchString(body) {
			return k.name, true
		}
	}
	return "", false
}

// Names returns the canonical institution names in table order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of institutions.
func (d *Directory) Len() int {
	return len(d.names)
}

// SenderCode strips the operator route prefix ("VM-", "AD-") and the
// message-class suffix ("-S", "-T") from a sender header and lower-cases
// the rest. Numeric senders (phone numbers) yield an empty code.
func SenderCode(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" || !strings.ContainsFunc(sender, unicode.IsLetter) {
		return ""
	}

	parts := strings.FieldsFunc(sender, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
	if len(parts) > 1 && len(parts[0]) == 2 {
		parts = parts[1:]
	}
	if len(parts) > 1 && len(parts[len(parts)-1]) == 1 {
		parts = parts[:len(parts)-1]
	}

	return strings.ToLower(strings.Join(parts, ""))
}
