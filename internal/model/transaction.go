package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money flow from the account holder's view.
type TransactionType string

const (
	// TypeDebit means money left the account.
	TypeDebit TransactionType = "debit"
	// TypeCredit means money entered the account.
	TypeCredit TransactionType = "credit"
	// TypeUnknown is used when debit and credit evidence ties.
	TypeUnknown TransactionType = "unknown"
)

// Method is the payment rail named in the message.
type Method string

// Payment methods.
const (
	MethodUPI        Method = "UPI"
	MethodIMPS       Method = "IMPS"
	MethodNEFT       Method = "NEFT"
	MethodRTGS       Method = "RTGS"
	MethodATM        Method = "ATM"
	MethodCard       Method = "card"
	MethodCheque     Method = "cheque"
	MethodNetBanking Method = "net_banking"
	MethodUnknown    Method = "unknown"
)

// Category is a coarse spending bucket.
type Category string

// Categories, in the order they are evaluated.
const (
	CategoryInvestment    Category = "investment"
	CategoryLoan          Category = "loan"
	CategoryATMWithdrawal Category = "atm_withdrawal"
	CategoryBill          Category = "bill"
	CategoryFoodDining    Category = "food_dining"
	CategoryTransfer      Category = "transfer"
	CategoryOther         Category = "other"
)

// Intent describes what the message is trying to tell the reader.
type Intent string

// Message intents.
const (
	IntentTransaction    Intent = "transaction"
	IntentOTP            Intent = "otp"
	IntentPaymentRequest Intent = "payment_request"
	IntentPromo          Intent = "promo"
	IntentAlert          Intent = "alert"
	IntentOther          Intent = "other"
)

// DateSource records where TransactionDate came from.
type DateSource string

// Date sources.
const (
	DateFromBody     DateSource = "body"
	DateFromReceived DateSource = "received"
	DateNone         DateSource = "none"
)

// ExtractedTransaction holds the structured fields pulled out of one message.
// Optional values are nil or empty when the text did not contain them.
type ExtractedTransaction struct {
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Balance         *decimal.Decimal `json:"balance,omitempty"`
	TransactionDate *time.Time       `json:"transaction_date,omitempty"`
	Type            TransactionType  `json:"transaction_type"`
	Currency        string           `json:"currency,omitempty"`
	DateSource      DateSource       `json:"date_source"`
	Bank            string           `json:"bank,omitempty"`
	AccountNumber   string           `json:"account_number,omitempty"`
	Method          Method           `json:"method"`
	ReferenceID     string           `json:"reference_id,omitempty"`
	Counterparty    string           `json:"counterparty,omitempty"`
	Category        Category         `json:"category"`
	Intent          Intent           `json:"intent"`
	Summary         string           `json:"summary,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Confidence      float64          `json:"confidence"`
}

// HasAmount reports whether an amount was found.
func (t *ExtractedTransaction) HasAmount() bool {
	return t.Amount != nil
}

// Reliable reports whether confidence meets the caller's acceptance threshold.
func (t *ExtractedTransaction) Reliable(threshold float64) bool {
	return t.Confidence >= threshold
}
