package hpp

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// HostedFormURL is the public hosted payment form the customer is
// redirected to
const HostedFormURL = "https://mms.paymentsensegateway.com/Pages/PublicPages/PaymentForm.aspx"

// transactionDateTimeLayout matches the gateway's expected timestamp form,
// e.g. "2026-01-02 15:04:05 +00:00"
const transactionDateTimeLayout = "2006-01-02 15:04:05 -07:00"

// FormOptions carries the merchant-configured behaviour of the hosted form
type FormOptions struct {
	TransactionType      domain.OperationKind // PREAUTH or SALE
	CallbackURL          string
	ServerResultURL      string
	ResultDeliveryMethod string // POST, GET or SERVER
	EmailAddressEditable bool
	PhoneNumberEditable  bool
	Address1Mandatory    bool
	CityMandatory        bool
	PostCodeMandatory    bool
	StateMandatory       bool
	CountryMandatory     bool
}

// OrderInfo describes the order being paid through the hosted form.
// Amount is in major currency units; Currency and Country are alphabetic
// ISO codes resolved to numeric on build.
type OrderInfo struct {
	OrderID      string
	Description  string
	Amount       decimal.Decimal
	Currency     string
	CustomerName string
	Address1     string
	Address2     string
	Address3     string
	Address4     string
	City         string
	State        string
	PostCode     string
	Country      string
	EmailAddress string
	PhoneNumber  string
}

// FormField is a single hidden input of the redirect form. Order is
// significant: the digest covers the fields in this order.
type FormField struct {
	Name  string
	Value string
}

// Redirect is a ready-to-render hosted form submission
type Redirect struct {
	URL    string
	Fields []FormField
}

// FormBuilder assembles signed hosted payment form redirects
type FormBuilder struct {
	authenticator *Authenticator
	merchantID    string
	options       FormOptions
	now           func() time.Time
}

// NewFormBuilder creates a builder using the merchant's digest
// authenticator
func NewFormBuilder(authenticator *Authenticator, merchantID string, options FormOptions) *FormBuilder {
	if options.ResultDeliveryMethod == "" {
		options.ResultDeliveryMethod = "POST"
	}
	return &FormBuilder{
		authenticator: authenticator,
		merchantID:    merchantID,
		options:       options,
		now:           time.Now,
	}
}

// WithClock replaces the timestamp source (used by tests)
func (fb *FormBuilder) WithClock(now func() time.Time) *FormBuilder {
	fb.now = now
	return fb
}

// Build produces the redirect URL and signed field set for an order. The
// HashDigest and MerchantID fields lead so the form carries its own
// verification material.
func (fb *FormBuilder) Build(order *OrderInfo) (*Redirect, error) {
	amountMinor, err := AmountToMinorUnits(order.Amount)
	if err != nil {
		return nil, err
	}

	currency, err := domain.CurrencyNumericCode(order.Currency)
	if err != nil {
		return nil, err
	}

	country := ""
	if order.Country != "" {
		country, err = domain.CountryNumericCode(order.Country)
		if err != nil {
			return nil, err
		}
	}

	values := map[string]string{
		"Amount":                    amountMinor,
		"CurrencyCode":              currency,
		"OrderID":                   order.OrderID,
		"TransactionType":           string(fb.options.TransactionType),
		"TransactionDateTime":       fb.now().Format(transactionDateTimeLayout),
		"CallbackURL":               fb.options.CallbackURL,
		"OrderDescription":          order.Description,
		"CustomerName":              order.CustomerName,
		"Address1":                  order.Address1,
		"Address2":                  order.Address2,
		"Address3":                  order.Address3,
		"Address4":                  order.Address4,
		"City":                      order.City,
		"State":                     order.State,
		"PostCode":                  order.PostCode,
		"CountryCode":               country,
		"EmailAddress":              order.EmailAddress,
		"PhoneNumber":               order.PhoneNumber,
		"EmailAddressEditable":      boolString(fb.options.EmailAddressEditable),
		"PhoneNumberEditable":       boolString(fb.options.PhoneNumberEditable),
		"CV2Mandatory":              "true",
		"Address1Mandatory":         boolString(fb.options.Address1Mandatory),
		"CityMandatory":             boolString(fb.options.CityMandatory),
		"PostCodeMandatory":         boolString(fb.options.PostCodeMandatory),
		"StateMandatory":            boolString(fb.options.StateMandatory),
		"CountryMandatory":          boolString(fb.options.CountryMandatory),
		"ResultDeliveryMethod":      fb.options.ResultDeliveryMethod,
		"ServerResultURL":           fb.options.ServerResultURL,
		"PaymentFormDisplaysResult": "false",
	}

	digest, err := fb.authenticator.Sign(PurposeHostedForm, values)
	if err != nil {
		return nil, err
	}

	fields := []FormField{
		{Name: "HashDigest", Value: digest},
		{Name: "MerchantID", Value: fb.merchantID},
	}
	for _, name := range ProfileFields(PurposeHostedForm) {
		fields = append(fields, FormField{Name: name, Value: values[name]})
	}

	return &Redirect{URL: HostedFormURL, Fields: fields}, nil
}

// AmountToMinorUnits converts a major-unit decimal amount to its
// minor-unit wire form
func AmountToMinorUnits(amount decimal.Decimal) (string, error) {
	minor, err := domain.MinorUnits(amount)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(minor, 10), nil
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
