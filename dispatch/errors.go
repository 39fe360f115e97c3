package dispatch

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-chatbridge/core"
)

func dispatchError(
	message string,
	category goerrors.Category,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func dispatchWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return dispatchError(message, category, code, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func dispatchBadInput(message string, metadata map[string]any) error {
	return dispatchError(
		message,
		goerrors.CategoryBadInput,
		http.StatusBadRequest,
		core.BridgeErrorBadInput,
		metadata,
	)
}

func dispatchInternal(message string, metadata map[string]any) error {
	return dispatchError(
		message,
		goerrors.CategoryInternal,
		http.StatusInternalServerError,
		core.BridgeErrorInternal,
		metadata,
	)
}
