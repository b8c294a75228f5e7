package psgw

import (
	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// Gateway status codes. The vocabulary is closed; anything else is treated
// as an invalid response.
const (
	StatusSuccess    = "0"
	StatusIncomplete = "3"
	StatusReferred   = "4"
	StatusDeclined   = "5"
	StatusDuplicate  = "20"
	StatusFailed     = "30"
)

// retryableFailureMessage marks the one failure a cross-reference
// transaction may retry: the standby host has not yet replicated the
// original transaction.
const retryableFailureMessage = "Couldn't find previous transaction"

// ResultInfo describes a gateway status code
type ResultInfo struct {
	Code        string
	Display     string
	Description string
	Outcome     domain.Outcome
}

var resultCodes = map[string]ResultInfo{
	StatusSuccess: {
		Code:        StatusSuccess,
		Display:     "SUCCESS",
		Description: "Transaction completed successfully",
		Outcome:     domain.OutcomeSuccess,
	},
	StatusIncomplete: {
		Code:        StatusIncomplete,
		Display:     "INCOMPLETE",
		Description: "Transaction requires 3-D Secure authentication",
		Outcome:     domain.OutcomeIncomplete,
	},
	StatusReferred: {
		Code:        StatusReferred,
		Display:     "REFERRED",
		Description: "Issuer requires a manual referral",
		Outcome:     domain.OutcomeReferred,
	},
	StatusDeclined: {
		Code:        StatusDeclined,
		Display:     "DECLINED",
		Description: "Transaction declined by the issuer",
		Outcome:     domain.OutcomeDeclined,
	},
	StatusDuplicate: {
		Code:        StatusDuplicate,
		Display:     "DUPLICATE",
		Description: "Transaction is a duplicate of a recent one",
		Outcome:     domain.OutcomeFailed, // resolved against the embedded previous result
	},
	StatusFailed: {
		Code:        StatusFailed,
		Display:     "FAILED",
		Description: "Transaction failed",
		Outcome:     domain.OutcomeFailed,
	},
}

// LookupResultCode returns the info for a status code, and false for codes
// outside the closed vocabulary
func LookupResultCode(code string) (ResultInfo, bool) {
	info, ok := resultCodes[code]
	return info, ok
}

// ClassifiedResult is the outcome of classifying a gateway response,
// with the duplicate resolution already applied
type ClassifiedResult struct {
	Outcome domain.Outcome
	Message string
}

// Classify maps a parsed gateway response to an outcome. A missing or
// unknown status code yields OutcomeInvalid. A duplicate is resolved
// against the embedded previous transaction result: only a successful
// previous result makes the duplicate a success, and its message is
// preferred so the caller reports what actually happened the first time.
func Classify(resp *domain.GatewayResponse) ClassifiedResult {
	if !resp.StatusCode.Found {
		return ClassifiedResult{Outcome: domain.OutcomeInvalid, Message: resp.Message.OrEmpty()}
	}

	info, ok := resultCodes[resp.StatusCode.Value]
	if !ok {
		return ClassifiedResult{Outcome: domain.OutcomeInvalid, Message: resp.Message.OrEmpty()}
	}

	if info.Code == StatusDuplicate {
		return resolveDuplicate(resp)
	}

	return ClassifiedResult{Outcome: info.Outcome, Message: resp.Message.OrEmpty()}
}

// resolveDuplicate applies the duplicate resolution rule. The gateway has
// already processed an identical transaction recently; whether this one
// "succeeded" is decided entirely by the embedded previous result.
func resolveDuplicate(resp *domain.GatewayResponse) ClassifiedResult {
	if resp.PreviousStatusCode.Found && resp.PreviousStatusCode.Value == StatusSuccess {
		message := resp.Message.OrEmpty()
		if resp.PreviousMessage.Found {
			message = resp.PreviousMessage.Value
		}
		return ClassifiedResult{Outcome: domain.OutcomeSuccess, Message: message}
	}
	return ClassifiedResult{Outcome: domain.OutcomeFailed, Message: resp.Message.OrEmpty()}
}

// IsRetryable reports whether a well-formed response should consume a retry
// attempt instead of completing the send. Only the replication race on
// cross-reference transactions qualifies; every other decline or failure is
// a final answer.
func IsRetryable(statusCode, message string) bool {
	return statusCode == StatusFailed && message == retryableFailureMessage
}
