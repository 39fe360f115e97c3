package notify

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-chatbridge/core"
)

func notifyError(message string, category goerrors.Category, code int) error {
	return goerrors.New(message, category).
		WithCode(code).
		WithTextCode(notifyTextCode(category))
}

func notifyWrapError(source error, category goerrors.Category, message string, code int) error {
	if source == nil {
		return notifyError(message, category, code)
	}
	return goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(notifyTextCode(category))
}

func notifyBadInput(message string) error {
	return notifyError(message, goerrors.CategoryBadInput, http.StatusBadRequest)
}

func notifyInternal(message string) error {
	return notifyError(message, goerrors.CategoryInternal, http.StatusInternalServerError)
}

func notifyTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return core.BridgeErrorBadInput
	case goerrors.CategoryExternal:
		return core.BridgeErrorDownstreamFailed
	default:
		return core.BridgeErrorInternal
	}
}
