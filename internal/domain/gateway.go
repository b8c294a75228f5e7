package domain

import "time"

// Field is a single value extracted from a gateway response. Found reports
// whether the element was present at all; an absent field is data, not an
// error, because the gateway omits elements that do not apply to the
// operation performed.
type Field struct {
	Value string
	Found bool
}

// NewField returns a present field holding value
func NewField(value string) Field {
	return Field{Value: value, Found: true}
}

// OrEmpty returns the value when present and "" when absent
func (f Field) OrEmpty() string {
	if !f.Found {
		return ""
	}
	return f.Value
}

// GatewayResponse is the typed field set extracted from a gateway reply.
// Every field is independently optional; callers consult Found before
// trusting a value.
type GatewayResponse struct {
	StatusCode     Field // digits only when present
	Message        Field
	Detail         Field
	CrossReference Field // attribute of TransactionOutputData
	ACSURL         Field
	PaReq          Field

	// Embedded previous-transaction result, present on duplicate responses
	PreviousStatusCode Field
	PreviousMessage    Field

	// Server Date header, kept for clock-skew diagnostics only
	ServerDate time.Time
}

// BillingAddress carries the customer billing address lines sent with a
// card details transaction
type BillingAddress struct {
	Address1    string
	Address2    string
	Address3    string
	Address4    string
	City        string
	State       string
	PostCode    string
	CountryCode string // ISO 3166-1 numeric
}

// CardDetails carries raw card data for a direct card transaction
type CardDetails struct {
	CardName    string
	CardNumber  string
	ExpiryMonth string
	ExpiryYear  string
	CV2         string
	IssueNumber string
}

// CardDetailsRequest is a direct card authorization (PREAUTH or SALE)
type CardDetailsRequest struct {
	Operation        OperationKind // OperationPreAuth or OperationSale
	AmountMinor      int64
	CurrencyCode     string // ISO 4217 numeric
	OrderID          string
	OrderDescription string
	Card             CardDetails
	Billing          BillingAddress
	EmailAddress     string
	PhoneNumber      string
	CustomerIP       string
}

// ThreeDSecureRequest finalises a pending 3-D Secure challenge
type ThreeDSecureRequest struct {
	CrossReference string
	PaRes          string
}

// CrossReferenceRequest is a follow-up operation (COLLECTION, REFUND, VOID)
// against a prior transaction. Amount and currency are optional; VOID sends
// neither.
type CrossReferenceRequest struct {
	Operation        OperationKind
	CrossReference   string
	AmountMinor      int64
	CurrencyCode     string
	HasAmount        bool
	OrderID          string
	OrderDescription string
}
