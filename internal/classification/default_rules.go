package classification

import (
	"github.com/Veraticus/smsfin/internal/bank"
	"github.com/Veraticus/smsfin/internal/model"
)

// DefaultRules returns the tuned filter configuration.
func DefaultRules() Rules {
	return Rules{
		Banks:            bank.MustDefaultDirectory(),
		Exclusions:       DefaultExclusions(),
		Signals:          DefaultSignals(),
		Threshold:        DefaultThreshold,
		BankBodyPoints:   2,
		BankSenderPoints: 1,
	}
}

// DefaultExclusions returns the hard exclusion groups in evaluation order.
// Every pattern here must be specific enough that it does not fire on
// ordinary debit or credit alerts, which routinely say "never share your OTP".
// OTP patterns therefore require a 4-8 digit code tied to the keyword.
func DefaultExclusions() []ExclusionGroup {
	return []ExclusionGroup{
		{
			Name:   "otp",
			Reason: model.ReasonOTP,
			Patterns: []string{
				`\b(otp|one[\s-]*time[\s-]*password|verification\s+code|security\s+code|login\s+code|auth(entication)?\s+code)\s*(is|:|-)?\s*:?\s*\d{4,8}\b`,
				`\b\d{4,8}\s+is\s+(your|the)\s+(otp|one[\s-]*time[\s-]*password|verification\s+code|security\s+code|login\s+code|code)\b`,
				`\b(otp|one[\s-]*time[\s-]*password)\b.{0,40}\b(valid\s+(for|till|upto)|expires?)\b`,
				`\buse\s+(otp|code)\s+\d{4,8}\b`,
				`\b(otp|one[\s-]*time[\s-]*password)\b.{0,100}?\bis\s*:?\s*\d{4,8}\b`,
				`\b\d{4,8}\s+is\s+(the\s+)?otp\b`,
				`\buse\s+\d{4,8}\s+as\s+(your\s+)?otp\b`,
				`\botp\b.{0,20}\b(for|to)\s+(txn|transaction|payment|complete)`,
				`\bverification\s+code\b`,
			},
		},
		{
			Name:   "payment_request",
			Reason: model.ReasonPaymentRequest,
			Patterns: []string{
				`\b(has\s+)?requested\s+(money|payment|rs\.?|inr)`,
				`\bcollect\s+request\b`,
				`\bwill\s+be\s+debited\s+(on|after|upon)\s+(approv|accept|your\s+approval)`,
				`\bpayment\s+request\s+(from|of)\b`,
			},
		},
		{
			Name:   "promotional",
			Reason: model.ReasonPromotional,
			Patterns: []string{
				`\b\d{1,2}\s*%\s*(off|discount|instant\s+discount)\b`,
				`\bflat\s+\d{1,2}\s*%`,
				`\bup\s*to\s+\d{1,2}\s*%`,
				`\b(coupon|promo)\s*code\b`,
				`\buse\s+code\s+[a-z0-9]{4,}\b`,
				`\b(limited\s+(time|period)\s+offer|offer\s+valid\s+till|last\s+chance|grab\s+(it\s+)?now|hurry)\b`,
				`\b(lucky\s+draw|you\s+have\s+won|you've\s+won|win\s+(a|an|exciting|free)\b)`,
				`\bpre-?approved\s+(personal\s+)?(loan|credit\s+card|offer)\b`,
				`\b(apply\s+now|click\s+here\s+to\s+apply)\b`,
			},
		},
		{
			Name:   "data_usage",
			Reason: model.ReasonDataUsage,
			Patterns: []string{
				`\bdata\s+(usage|balance|pack|quota|limit|benefit)s?\b`,
				`\b\d{1,3}\s*%\s+(of\s+)?(your\s+)?(daily\s+)?(high[\s-]*speed\s+)?data\b`,
				`\b\d+(\.\d+)?\s*(gb|mb)\b.{0,30}\b(used|consumed|left|remaining|exhausted)\b`,
				`\binternet\s+speed\s+(will\s+be\s+)?reduced\b`,
			},
		},
		{
			Name:   "shopping",
			Reason: model.ReasonShopping,
			Patterns: []string{
				`\border\b.{0,40}\b(has\s+been\s+)?(shipped|dispatched|packed|out\s+for\s+delivery)\b`,
				`\border\b.{0,40}\bhas\s+been\s+delivered\b`,
				`\b(out\s+for\s+delivery|track\s+your\s+(order|package|shipment)|delivery\s+(partner|agent|executive))\b`,
				`\b(package|shipment|parcel)\s+(has\s+been\s+|was\s+|is\s+)?(shipped|dispatched|delivered)\b`,
			},
		},
		{
			Name:   "social",
			Reason: model.ReasonSocial,
			Patterns: []string{
				`\b(whatsapp|telegram|facebook|instagram|twitter|snapchat|linkedin)\b`,
				`\b(friend\s+request|new\s+follower|tagged\s+you|mentioned\s+you|commented\s+on|liked\s+your)\b`,
			},
		},
		{
			Name:   "system",
			Reason: model.ReasonSystem,
			Patterns: []string{
				`\b(system|scheduled|planned)\s+maintenance\b`,
				`\b(app|server|software)\s+update\b`,
				`\bpassword\s+(reset|has\s+been\s+(reset|changed)|was\s+changed|changed\s+successfully)\b`,
				`\b(session\s+(has\s+)?(timed\s*out|expired)|logged\s+out)\b`,
				`\blog\s*-?in\s+(detected|alert|attempt)\b`,
				`\bdownload\s+(the\s+)?(latest\s+|new\s+)?(version\s+of\s+(the\s+)?)?app\b`,
			},
		},
		{
			Name:   "government_info",
			Reason: model.ReasonGovernment,
			Patterns: []string{
				`\b(dot-?goi|sanchar\s*saathi|department\s+of\s+telecom(munications)?)\b`,
				`\bgovernment\s+of\s+india\b`,
			},
		},
	}
}

// DefaultSignals returns the financial signal groups.
func DefaultSignals() []SignalGroup {
	return []SignalGroup{
		{
			Name:   "transaction_verb",
			Points: 2,
			Patterns: []string{
				`\b(credited|debited|deposited|withdrawn|withdrawal|transferred|trf|spent|paid|purchased?|refund(ed)?|reversed|deducted|charged)\b`,
			},
		},
		{
			Name:   "currency_amount",
			Points: 2,
			Patterns: []string{
				`(\brs\.?|\binr|₹)\s*[:.]?\s*\d`,
				`\b\d[\d,]*(\.\d+)?\s*(rs|rupees|inr)\b`,
			},
		},
		{
			Name:     "sent_received",
			Points:   1,
			Patterns: []string{`\b(sent|received)\b`},
		},
		{
			Name:   "account",
			Points: 1,
			Patterns: []string{
				`\ba/c`,
				`\b(acct|account)\b`,
				`(^|[^a-z0-9])(x{2,}|\*+)\d{3,6}\b`,
			},
		},
		{
			Name:   "instrument",
			Points: 1,
			Patterns: []string{
				`\b(upi|imps|neft|rtgs|atm|pos|cheque|chq|vpa)\b`,
				`\b(net\s*banking|debit\s+card|credit\s+card)\b`,
			},
		},
		{
			Name:   "reference",
			Points: 1,
			Patterns: []string{
				`\b(ref(erence)?|utr|txn|rrn)\b`,
				`\btransaction\s+(id|no|number)\b`,
			},
		},
		{
			Name:   "balance",
			Points: 1,
			Patterns: []string{
				`\b(avl\.?\s*bal|available\s+bal(ance)?|bal(ance)?)\b`,
			},
		},
		{
			Name:   "investment",
			Points: 1,
			Patterns: []string{
				`\b(mutual\s+fund|sip|nav|folio|dividend|redemption|demat)\b`,
				`\b(units?\s+allotted|fixed\s+deposit|recurring\s+deposit)\b`,
			},
		},
		{
			Name:   "loan",
			Points: 1,
			Patterns: []string{
				`\b(emi|loan|installment|instalment|premium)\b`,
			},
		},
		{
			Name:   "credit_card",
			Points: 1,
			Patterns: []string{
				`\b(card\s+ending|total\s+(amount\s+)?due|min(imum)?\s+(amount\s+)?due|payment\s+due|statement)\b`,
			},
		},
	}
}
