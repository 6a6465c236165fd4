package scrape

import "net/http"

// StatusClass is the outcome of the status-code check.
type StatusClass int

const (
	// ClassOK is exactly 200.
	ClassOK StatusClass = iota
	// ClassSuccess is any other 2xx code.
	ClassSuccess
	// ClassClientError is any 4xx code.
	ClassClientError
	// ClassUnclassified is everything else (1xx, 3xx, 5xx, nonsense).
	ClassUnclassified
)

// ClassifyStatus maps an HTTP status code to its class.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code == http.StatusOK:
		return ClassOK
	case code >= 200 && code < 300:
		return ClassSuccess
	case code >= 400 && code < 500:
		return ClassClientError
	default:
		return ClassUnclassified
	}
}

// Parseable reports whether a response of this class is handed to the parser.
func (c StatusClass) Parseable() bool {
	return c == ClassOK || c == ClassSuccess
}

func (c StatusClass) String() string {
	switch c {
	case ClassOK:
		return "ok"
	case ClassSuccess:
		return "success"
	case ClassClientError:
		return "client error"
	default:
		return "unclassified"
	}
}
