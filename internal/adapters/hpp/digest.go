package hpp

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// Algorithm selects the hash digest scheme. It is fixed by merchant
// configuration and never negotiated per message.
type Algorithm string

const (
	// Legacy algorithms hash the pre-shared key into the canonical string
	AlgorithmMD5  Algorithm = "MD5"
	AlgorithmSHA1 Algorithm = "SHA1"

	// Keyed algorithms use the pre-shared key as the HMAC key
	AlgorithmHMACMD5    Algorithm = "HMACMD5"
	AlgorithmHMACSHA1   Algorithm = "HMACSHA1"
	AlgorithmHMACSHA256 Algorithm = "HMACSHA256"
)

// ParseAlgorithm validates a configured hash method name
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToUpper(name)) {
	case AlgorithmMD5:
		return AlgorithmMD5, nil
	case AlgorithmSHA1:
		return AlgorithmSHA1, nil
	case AlgorithmHMACMD5:
		return AlgorithmHMACMD5, nil
	case AlgorithmHMACSHA1:
		return AlgorithmHMACSHA1, nil
	case AlgorithmHMACSHA256:
		return AlgorithmHMACSHA256, nil
	}
	return "", domain.NewDomainError(domain.ErrorCodeDigestUnknownAlgorithm, "unknown hash method").
		WithDetail("hash_method", name)
}

// Purpose selects the ordered field profile a digest covers
type Purpose string

const (
	// PurposeHostedForm signs the redirect to the hosted payment form
	PurposeHostedForm Purpose = "hosted-form"
	// PurposeNotification verifies the gateway's server-to-server result
	PurposeNotification Purpose = "notification"
	// PurposeCustomerRedirect verifies the lightweight browser return
	PurposeCustomerRedirect Purpose = "customer-redirect"
)

type profileField struct {
	Name     string
	Optional bool
}

// Field order within a profile is part of the protocol; both ends must
// concatenate in exactly this order.
var profiles = map[Purpose][]profileField{
	PurposeHostedForm: {
		{Name: "Amount"},
		{Name: "CurrencyCode"},
		{Name: "OrderID"},
		{Name: "TransactionType"},
		{Name: "TransactionDateTime"},
		{Name: "CallbackURL"},
		{Name: "OrderDescription"},
		{Name: "CustomerName"},
		{Name: "Address1"},
		{Name: "Address2"},
		{Name: "Address3"},
		{Name: "Address4"},
		{Name: "City"},
		{Name: "State"},
		{Name: "PostCode"},
		{Name: "CountryCode"},
		{Name: "EmailAddress"},
		{Name: "PhoneNumber"},
		{Name: "EmailAddressEditable"},
		{Name: "PhoneNumberEditable"},
		{Name: "CV2Mandatory"},
		{Name: "Address1Mandatory"},
		{Name: "CityMandatory"},
		{Name: "PostCodeMandatory"},
		{Name: "StateMandatory"},
		{Name: "CountryMandatory"},
		{Name: "ResultDeliveryMethod"},
		{Name: "ServerResultURL"},
		{Name: "PaymentFormDisplaysResult"},
	},
	PurposeNotification: {
		{Name: "StatusCode"},
		{Name: "Message"},
		{Name: "PreviousStatusCode", Optional: true},
		{Name: "PreviousMessage", Optional: true},
		{Name: "CrossReference"},
		{Name: "Amount"},
		{Name: "CurrencyCode"},
		{Name: "OrderID"},
		{Name: "TransactionType"},
		{Name: "TransactionDateTime"},
		{Name: "OrderDescription"},
		{Name: "CustomerName"},
		{Name: "Address1"},
		{Name: "Address2"},
		{Name: "Address3"},
		{Name: "Address4"},
		{Name: "City"},
		{Name: "State"},
		{Name: "PostCode"},
		{Name: "CountryCode"},
		{Name: "EmailAddress"},
		{Name: "PhoneNumber"},
	},
	PurposeCustomerRedirect: {
		{Name: "CrossReference"},
		{Name: "OrderID"},
	},
}

// ProfileFields returns the ordered field names of a purpose, for callers
// that assemble outgoing field sets
func ProfileFields(purpose Purpose) []string {
	fields := profiles[purpose]
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Authenticator computes and verifies hash digests over purpose-keyed field
// profiles
type Authenticator struct {
	creds        domain.MerchantCredentials
	preSharedKey string
	algorithm    Algorithm
}

// NewAuthenticator creates an authenticator for a merchant's configured
// hash method and pre-shared key
func NewAuthenticator(creds domain.MerchantCredentials, algorithm Algorithm, preSharedKey string) *Authenticator {
	return &Authenticator{
		creds:        creds,
		preSharedKey: preSharedKey,
		algorithm:    algorithm,
	}
}

// Sign computes the hex digest over the purpose's field profile. A required
// field absent from the map fails closed; optional fields render empty.
func (a *Authenticator) Sign(purpose Purpose, fields map[string]string) (string, error) {
	canonical, err := a.canonical(purpose, fields)
	if err != nil {
		return "", err
	}
	return a.compute(canonical)
}

// Verify checks a received digest against the one computed from the fields.
// Hex digests are compared case-insensitively.
func (a *Authenticator) Verify(purpose Purpose, fields map[string]string, received string) error {
	expected, err := a.Sign(purpose, fields)
	if err != nil {
		return err
	}
	if !strings.EqualFold(expected, received) {
		return domain.ErrDigestMismatch
	}
	return nil
}

// canonical builds the &-joined Name=Value string, prefixed with the
// merchant credentials. Values are concatenated raw, not URL-encoded.
func (a *Authenticator) canonical(purpose Purpose, fields map[string]string) (string, error) {
	profile, ok := profiles[purpose]
	if !ok {
		return "", domain.NewDomainError(domain.ErrorCodeValidationFailed, "unknown digest purpose").
			WithDetail("purpose", string(purpose))
	}

	var b strings.Builder
	b.WriteString("MerchantID=")
	b.WriteString(a.creds.MerchantID)
	b.WriteString("&Password=")
	b.WriteString(a.creds.Password)

	for _, field := range profile {
		value, present := fields[field.Name]
		if !present && !field.Optional {
			return "", domain.NewDomainError(domain.ErrorCodeDigestMissingField, "required digest field missing").
				WithDetail("field", field.Name).
				WithDetail("purpose", string(purpose))
		}
		fmt.Fprintf(&b, "&%s=%s", field.Name, value)
	}

	return b.String(), nil
}

// compute hashes the canonical string with the configured algorithm
func (a *Authenticator) compute(data string) (string, error) {
	var h hash.Hash

	switch a.algorithm {
	case AlgorithmMD5:
		h = md5.New()
		data = a.prependKey(data)
	case AlgorithmSHA1:
		h = sha1.New()
		data = a.prependKey(data)
	case AlgorithmHMACMD5:
		h = hmac.New(md5.New, []byte(a.preSharedKey))
	case AlgorithmHMACSHA1:
		h = hmac.New(sha1.New, []byte(a.preSharedKey))
	case AlgorithmHMACSHA256:
		h = hmac.New(sha256.New, []byte(a.preSharedKey))
	default:
		return "", domain.NewDomainError(domain.ErrorCodeDigestUnknownAlgorithm, "unknown hash method").
			WithDetail("hash_method", string(a.algorithm))
	}

	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// prependKey mixes the pre-shared key into the canonical string for the
// legacy unkeyed algorithms
func (a *Authenticator) prependKey(data string) string {
	return "PreSharedKey=" + a.preSharedKey + "&" + data
}
