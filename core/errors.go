package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	BridgeErrorBadInput         = "BRIDGE_BAD_INPUT"
	BridgeErrorSignatureDenied  = "BRIDGE_SIGNATURE_DENIED"
	BridgeErrorMalformedPayload = "BRIDGE_MALFORMED_PAYLOAD"
	BridgeErrorDownstreamFailed = "BRIDGE_DOWNSTREAM_FAILED"
	BridgeErrorLedgerFailed     = "BRIDGE_LEDGER_FAILED"
	BridgeErrorRateLimited      = "BRIDGE_RATE_LIMITED"
	BridgeErrorInternal         = "BRIDGE_INTERNAL_ERROR"
)

// BridgeErrorMapper normalizes any error into a goerrors envelope carrying a
// category, an HTTP status code, and a BRIDGE_* text code. The dispatch
// boundary consumes the envelope once; nothing propagates uncaught.
func BridgeErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureBridgeErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"), strings.Contains(msg, "verification token"):
		return newBridgeError(err.Error(), goerrors.CategoryAuth, BridgeErrorSignatureDenied)
	case strings.Contains(msg, "unmarshal"), strings.Contains(msg, "parse"), strings.Contains(msg, "malformed"):
		return newBridgeError(err.Error(), goerrors.CategoryBadInput, BridgeErrorMalformedPayload)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newBridgeError(err.Error(), goerrors.CategoryBadInput, BridgeErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureBridgeErrorEnvelope(mapped)
}

func newBridgeError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureBridgeErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureBridgeErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = bridgeHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultBridgeTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultBridgeTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return BridgeErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return BridgeErrorSignatureDenied
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return BridgeErrorDownstreamFailed
	case goerrors.CategoryRateLimit:
		return BridgeErrorRateLimited
	default:
		return BridgeErrorInternal
	}
}

func bridgeHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
