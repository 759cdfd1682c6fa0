package testutil

import (
	"time"

	"github.com/Veraticus/smsfin/internal/model"
)

// FixtureTime is the receipt time of the first fixture message.
var FixtureTime = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

// Fixture is a sample SMS with the filter verdict it should receive.
type Fixture struct {
	Name      string
	Reason    model.ExclusionReason
	Message   model.RawMessage
	Financial bool
}

// Fixtures returns a small corpus covering every exclusion reason and the
// common kinds of bank alert. Messages are a minute apart.
func Fixtures() []Fixture {
	fixtures := []Fixture{
		{
			Name:      "upi debit",
			Financial: true,
			Message: model.RawMessage{
				Sender: "VM-HDFCBK-S",
				Body:   "A/c *1234 debited for Rs:500.00 on 01-Dec-2024 via UPI Ref 111222333",
			},
		},
		{
			Name:      "credit with balance",
			Financial: true,
			Message: model.RawMessage{
				Sender: "AX-SBIINB",
				Body:   "Rs.15000.00 credited to A/c *1234 on 22/09/25. Avl Bal: Rs:75000.00",
			},
		},
		{
			Name:      "card debit with otp warning",
			Financial: true,
			Message: model.RawMessage{
				Sender: "JD-ICICIB",
				Body:   "ICICI Bank Acct XX123 debited for Rs 240.00 on 03-Jul-25; Amazon credited. Never share your OTP with anyone.",
			},
		},
		{
			Name:      "sip investment",
			Financial: true,
			Message: model.RawMessage{
				Sender: "VK-SBIMF",
				Body:   "Your SIP of Rs 5,000 in SBI Bluechip Fund has been processed. Units allotted: 12.345",
			},
		},
		{
			Name:   "otp",
			Reason: model.ReasonOTP,
			Message: model.RawMessage{
				Sender: "VM-HDFCBK",
				Body:   "123456 is your OTP. Do not share.",
			},
		},
		{
			Name:   "payment request",
			Reason: model.ReasonPaymentRequest,
			Message: model.RawMessage{
				Sender: "VM-PAYTM",
				Body:   "Rahul has requested money from you on Paytm. Rs 300 will be debited on approving the request.",
			},
		},
		{
			Name:   "promotion",
			Reason: model.ReasonPromotional,
			Message: model.RawMessage{
				Sender: "BZ-MYNTRA",
				Body:   "Flat 50% off on all brands! Use code SALE50. Limited time offer.",
			},
		},
		{
			Name:   "data usage",
			Reason: model.ReasonDataUsage,
			Message: model.RawMessage{
				Sender: "VM-JIONET",
				Body:   "90% of your daily data quota has been used. Data balance: 150 MB.",
			},
		},
		{
			Name:   "shopping",
			Reason: model.ReasonShopping,
			Message: model.RawMessage{
				Sender: "AD-AMAZON",
				Body:   "Your order #402-123 has been shipped and will arrive tomorrow.",
			},
		},
		{
			Name:   "social",
			Reason: model.ReasonSocial,
			Message: model.RawMessage{
				Sender: "VM-FBOOK",
				Body:   "You have a new friend request on Facebook.",
			},
		},
		{
			Name:   "chatter",
			Reason: model.ReasonNone,
			Message: model.RawMessage{
				Sender: "+919800000000",
				Body:   "Hello there",
			},
		},
		{
			Name:   "otp for card txn",
			Reason: model.ReasonOTP,
			Message: model.RawMessage{
				Sender: "VM-HDFCBK",
				Body:   "OTP for txn of Rs.500.00 at AMAZON on HDFC Bank card XX1234 is 482913. Valid for 5 mins.",
			},
		},
		{
			Name:   "code first otp",
			Reason: model.ReasonOTP,
			Message: model.RawMessage{
				Sender: "JD-ICICIB",
				Body:   "482913 is OTP for txn of INR 2,000.00 on ICICI Bank card XX1234. Do not share.",
			},
		},
		{
			Name:   "otp for account transaction",
			Reason: model.ReasonOTP,
			Message: model.RawMessage{
				Sender: "AX-SBIINB",
				Body:   "Dear customer, OTP for transaction of Rs 750 on your SBI account is 93821. Never share it.",
			},
		},
		{
			Name:   "use code as otp",
			Reason: model.ReasonOTP,
			Message: model.RawMessage{
				Sender: "VM-KOTAKB",
				Body:   "Use 839201 as OTP to complete payment of Rs.1200 to Swiggy. Kotak Bank",
			},
		},
		{
			Name:   "maintenance notice",
			Reason: model.ReasonSystem,
			Message: model.RawMessage{
				Sender: "VM-HDFCBK",
				Body:   "Scheduled maintenance: NetBanking will be unavailable from 01:00 to 04:00 on 15-Dec.",
			},
		},
		{
			Name:   "government notice",
			Reason: model.ReasonGovernment,
			Message: model.RawMessage{
				Sender: "VM-DOTGOI",
				Body:   "Report suspected fraud calls on Sanchar Saathi. Department of Telecommunications, Government of India.",
			},
		},
	}

	for i := range fixtures {
		fixtures[i].Message.Timestamp = FixtureTime.Add(time.Duration(i) * time.Minute)
		fixtures[i].Message.Direction = model.DirectionInbound
	}
	return fixtures
}

// Messages returns the fixture messages in order.
func Messages() []model.RawMessage {
	fixtures := Fixtures()
	msgs := make([]model.RawMessage, len(fixtures))
	for i, f := range fixtures {
		msgs[i] = f.Message
	}
	return msgs
}

// ExclusionCounts returns how many fixtures should be excluded per reason.
func ExclusionCounts() map[model.ExclusionReason]int {
	counts := make(map[model.ExclusionReason]int)
	for _, f := range Fixtures() {
		if !f.Financial {
			counts[f.Reason]++
		}
	}
	return counts
}

// FinancialCount returns how many fixtures should pass the filter.
func FinancialCount() int {
	n := 0
	for _, f := range Fixtures() {
		if f.Financial {
			n++
		}
	}
	return n
}
