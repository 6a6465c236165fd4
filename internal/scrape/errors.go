package scrape

import (
	"errors"
	"fmt"
)

var (
	// ErrClientStatus is wrapped by a StatusError for 4xx responses.
	ErrClientStatus = errors.New("client error response, cannot proceed with parse")

	// ErrUnclassifiedStatus is wrapped by a StatusError for responses that are
	// neither 2xx nor 4xx.
	ErrUnclassifiedStatus = errors.New("unclassified response, further assessment required")

	// ErrSelectorNotFound is returned when a selector matches nothing.
	ErrSelectorNotFound = errors.New("selector matched no element")

	// ErrAttributeNotFound is returned when the matched element lacks the attribute.
	ErrAttributeNotFound = errors.New("attribute not found on matched element")

	// ErrNoPrice is returned when text contains no number.
	ErrNoPrice = errors.New("no price found in text")

	// ErrUnknownParser is returned by ParseParser for unsupported names.
	ErrUnknownParser = errors.New("unknown parser: expected html or fragment")

	// ErrEmptyURL is returned when RequestAndParse is called without a URL.
	ErrEmptyURL = errors.New("url is empty")
)

// StatusError reports a response whose status code does not allow parsing.
type StatusError struct {
	URL   string
	Code  int
	Class StatusClass
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %v", e.URL, e.Code, e.Unwrap())
}

// Unwrap returns ErrClientStatus or ErrUnclassifiedStatus.
func (e *StatusError) Unwrap() error {
	if e.Class == ClassClientError {
		return ErrClientStatus
	}
	return ErrUnclassifiedStatus
}
