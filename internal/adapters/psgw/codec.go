package psgw

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// Codec builds request envelopes and parses gateway replies. The wire
// format is SOAP-shaped XML; element order and names must match what the
// gateway expects exactly, so envelopes are assembled from fixed templates
// rather than marshalled structs.
type Codec struct {
	creds domain.MerchantCredentials
}

// NewCodec creates a codec bound to a merchant credential pair
func NewCodec(creds domain.MerchantCredentials) *Codec {
	return &Codec{creds: creds}
}

const envelopeHeader = `<?xml version="1.0" encoding="utf-8"?>` +
	`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>`

const envelopeFooter = `</soap:Body></soap:Envelope>`

// xmlEscape escapes a value for inclusion in element content or a
// double-quoted attribute
func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// CardDetailsEnvelope builds a CardDetailsTransaction request (PREAUTH or
// SALE). Amounts are in minor units, currency in ISO 4217 numeric form.
func (c *Codec) CardDetailsEnvelope(req *domain.CardDetailsRequest) []byte {
	var b strings.Builder
	b.WriteString(envelopeHeader)
	b.WriteString(`<CardDetailsTransaction xmlns="https://www.thepaymentgateway.net/"><PaymentMessage>`)
	fmt.Fprintf(&b, `<MerchantAuthentication MerchantID=%q Password=%q />`,
		xmlEscape(c.creds.MerchantID), xmlEscape(c.creds.Password))
	fmt.Fprintf(&b, `<TransactionDetails Amount=%q CurrencyCode=%q>`,
		strconv.FormatInt(req.AmountMinor, 10), xmlEscape(req.CurrencyCode))
	fmt.Fprintf(&b, `<MessageDetails TransactionType=%q />`, xmlEscape(string(req.Operation)))
	fmt.Fprintf(&b, `<OrderID>%s</OrderID>`, xmlEscape(req.OrderID))
	fmt.Fprintf(&b, `<OrderDescription>%s</OrderDescription>`, xmlEscape(req.OrderDescription))
	b.WriteString(`<TransactionControl>` +
		`<EchoCardType>TRUE</EchoCardType>` +
		`<EchoAVSCheckResult>TRUE</EchoAVSCheckResult>` +
		`<EchoCV2CheckResult>TRUE</EchoCV2CheckResult>` +
		`<EchoAmountReceived>TRUE</EchoAmountReceived>` +
		`<DuplicateDelay>20</DuplicateDelay>` +
		`</TransactionControl>`)
	b.WriteString(`</TransactionDetails>`)
	b.WriteString(`<CardDetails>`)
	fmt.Fprintf(&b, `<CardName>%s</CardName>`, xmlEscape(req.Card.CardName))
	fmt.Fprintf(&b, `<CardNumber>%s</CardNumber>`, xmlEscape(req.Card.CardNumber))
	fmt.Fprintf(&b, `<ExpiryDate Month=%q Year=%q />`,
		xmlEscape(req.Card.ExpiryMonth), xmlEscape(req.Card.ExpiryYear))
	fmt.Fprintf(&b, `<CV2>%s</CV2>`, xmlEscape(req.Card.CV2))
	fmt.Fprintf(&b, `<IssueNumber>%s</IssueNumber>`, xmlEscape(req.Card.IssueNumber))
	b.WriteString(`</CardDetails>`)
	b.WriteString(`<CustomerDetails><BillingAddress>`)
	fmt.Fprintf(&b, `<Address1>%s</Address1>`, xmlEscape(req.Billing.Address1))
	fmt.Fprintf(&b, `<Address2>%s</Address2>`, xmlEscape(req.Billing.Address2))
	fmt.Fprintf(&b, `<Address3>%s</Address3>`, xmlEscape(req.Billing.Address3))
	fmt.Fprintf(&b, `<Address4>%s</Address4>`, xmlEscape(req.Billing.Address4))
	fmt.Fprintf(&b, `<City>%s</City>`, xmlEscape(req.Billing.City))
	fmt.Fprintf(&b, `<State>%s</State>`, xmlEscape(req.Billing.State))
	fmt.Fprintf(&b, `<PostCode>%s</PostCode>`, xmlEscape(req.Billing.PostCode))
	fmt.Fprintf(&b, `<CountryCode>%s</CountryCode>`, xmlEscape(req.Billing.CountryCode))
	b.WriteString(`</BillingAddress>`)
	fmt.Fprintf(&b, `<EmailAddress>%s</EmailAddress>`, xmlEscape(req.EmailAddress))
	fmt.Fprintf(&b, `<PhoneNumber>%s</PhoneNumber>`, xmlEscape(req.PhoneNumber))
	fmt.Fprintf(&b, `<CustomerIPAddress>%s</CustomerIPAddress>`, xmlEscape(req.CustomerIP))
	b.WriteString(`</CustomerDetails>`)
	b.WriteString(`</PaymentMessage></CardDetailsTransaction>`)
	b.WriteString(envelopeFooter)
	return []byte(b.String())
}

// ThreeDSecureEnvelope builds a ThreeDSecureAuthentication request carrying
// the authentication response back to the gateway
func (c *Codec) ThreeDSecureEnvelope(req *domain.ThreeDSecureRequest) []byte {
	var b strings.Builder
	b.WriteString(envelopeHeader)
	b.WriteString(`<ThreeDSecureAuthentication xmlns="https://www.thepaymentgateway.net/"><ThreeDSecureMessage>`)
	fmt.Fprintf(&b, `<MerchantAuthentication MerchantID=%q Password=%q />`,
		xmlEscape(c.creds.MerchantID), xmlEscape(c.creds.Password))
	fmt.Fprintf(&b, `<ThreeDSecureInputData CrossReference=%q>`, xmlEscape(req.CrossReference))
	fmt.Fprintf(&b, `<PaRES>%s</PaRES>`, xmlEscape(req.PaRes))
	b.WriteString(`</ThreeDSecureInputData>`)
	b.WriteString(`</ThreeDSecureMessage></ThreeDSecureAuthentication>`)
	b.WriteString(envelopeFooter)
	return []byte(b.String())
}

// CrossReferenceEnvelope builds a CrossReferenceTransaction request
// (COLLECTION, REFUND, VOID). Amount and currency attributes are omitted
// entirely when the operation carries no amount.
func (c *Codec) CrossReferenceEnvelope(req *domain.CrossReferenceRequest) []byte {
	var details strings.Builder
	if req.HasAmount {
		fmt.Fprintf(&details, ` Amount=%q`, strconv.FormatInt(req.AmountMinor, 10))
		if req.CurrencyCode != "" {
			fmt.Fprintf(&details, ` CurrencyCode=%q`, xmlEscape(req.CurrencyCode))
		}
	}

	var b strings.Builder
	b.WriteString(envelopeHeader)
	b.WriteString(`<CrossReferenceTransaction xmlns="https://www.thepaymentgateway.net/"><PaymentMessage>`)
	fmt.Fprintf(&b, `<MerchantAuthentication MerchantID=%q Password=%q />`,
		xmlEscape(c.creds.MerchantID), xmlEscape(c.creds.Password))
	fmt.Fprintf(&b, `<TransactionDetails%s>`, details.String())
	fmt.Fprintf(&b, `<MessageDetails TransactionType=%q NewTransaction="FALSE" CrossReference=%q />`,
		xmlEscape(string(req.Operation)), xmlEscape(req.CrossReference))
	fmt.Fprintf(&b, `<OrderID>%s</OrderID>`, xmlEscape(req.OrderID))
	fmt.Fprintf(&b, `<OrderDescription>%s</OrderDescription>`, xmlEscape(req.OrderDescription))
	b.WriteString(`<TransactionControl>` +
		`<EchoCardType>FALSE</EchoCardType>` +
		`<EchoAVSCheckResult>FALSE</EchoAVSCheckResult>` +
		`<EchoCV2CheckResult>FALSE</EchoCV2CheckResult>` +
		`<EchoAmountReceived>FALSE</EchoAmountReceived>` +
		`<DuplicateDelay>10</DuplicateDelay>` +
		`<AVSOverridePolicy>BPPF</AVSOverridePolicy>` +
		`<ThreeDSecureOverridePolicy>FALSE</ThreeDSecureOverridePolicy>` +
		`</TransactionControl>`)
	b.WriteString(`</TransactionDetails>`)
	b.WriteString(`</PaymentMessage></CrossReferenceTransaction>`)
	b.WriteString(envelopeFooter)
	return []byte(b.String())
}

// EntryPointsEnvelope builds a credential-only GetGatewayEntryPoints probe
func (c *Codec) EntryPointsEnvelope() []byte {
	var b strings.Builder
	b.WriteString(envelopeHeader)
	b.WriteString(`<GetGatewayEntryPoints xmlns="https://www.thepaymentgateway.net/"><GetGatewayEntryPointsMessage>`)
	fmt.Fprintf(&b, `<MerchantAuthentication MerchantID=%q Password=%q />`,
		xmlEscape(c.creds.MerchantID), xmlEscape(c.creds.Password))
	b.WriteString(`</GetGatewayEntryPointsMessage></GetGatewayEntryPoints>`)
	b.WriteString(envelopeFooter)
	return []byte(b.String())
}

// Parse extracts the typed field set from a gateway reply. Each field is
// looked up independently; a field the gateway did not send is reported as
// absent, never as an error. Malformed trailing XML does not invalidate
// fields already extracted.
func (c *Codec) Parse(body []byte, headers http.Header) *domain.GatewayResponse {
	resp := &domain.GatewayResponse{}

	if headers != nil {
		if date := headers.Get("Date"); date != "" {
			if t, err := http.ParseTime(date); err == nil {
				resp.ServerDate = t
			}
		}
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))
	decoder.Strict = false

	// Depth of nesting inside PreviousTransactionResult elements; the
	// embedded previous result carries its own StatusCode and Message
	inPrevious := 0
	var element string

	for {
		tok, err := decoder.Token()
		if err == io.EOF || err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// Element names are matched case-insensitively; the gateway is
			// not consistent about casing across response kinds
			element = strings.ToLower(t.Name.Local)
			switch element {
			case "previoustransactionresult":
				inPrevious++
			case "transactionoutputdata":
				for _, attr := range t.Attr {
					if strings.EqualFold(attr.Name.Local, "CrossReference") && !resp.CrossReference.Found {
						resp.CrossReference = domain.NewField(attr.Value)
					}
				}
			}
		case xml.EndElement:
			element = ""
			if strings.EqualFold(t.Name.Local, "PreviousTransactionResult") && inPrevious > 0 {
				inPrevious--
			}
		case xml.CharData:
			value := strings.TrimSpace(string(t))
			if value == "" {
				continue
			}
			c.assignField(resp, element, value, inPrevious > 0)
		}
	}

	return resp
}

// assignField stores a character-data value into the response field the
// element name maps to. First occurrence wins so a stray repeated element
// cannot overwrite an already extracted value. Element names arrive
// lowercased.
func (c *Codec) assignField(resp *domain.GatewayResponse, element, value string, previous bool) {
	switch element {
	case "statuscode":
		if previous {
			if !resp.PreviousStatusCode.Found && isDigits(value) {
				resp.PreviousStatusCode = domain.NewField(value)
			}
		} else if !resp.StatusCode.Found && isDigits(value) {
			resp.StatusCode = domain.NewField(value)
		}
	case "message":
		if previous {
			if !resp.PreviousMessage.Found {
				resp.PreviousMessage = domain.NewField(value)
			}
		} else if !resp.Message.Found {
			resp.Message = domain.NewField(value)
		}
	case "detail":
		if !previous && !resp.Detail.Found {
			resp.Detail = domain.NewField(value)
		}
	case "acsurl":
		if !previous && !resp.ACSURL.Found {
			resp.ACSURL = domain.NewField(value)
		}
	case "pareq":
		if !previous && !resp.PaReq.Found {
			resp.PaReq = domain.NewField(value)
		}
	}
}

// isDigits reports whether s is a non-empty run of ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ServerClockSkew returns the absolute difference between the gateway's
// Date header and local time, for diagnostics
func ServerClockSkew(resp *domain.GatewayResponse, now time.Time) time.Duration {
	if resp.ServerDate.IsZero() {
		return 0
	}
	skew := now.Sub(resp.ServerDate)
	if skew < 0 {
		skew = -skew
	}
	return skew
}
