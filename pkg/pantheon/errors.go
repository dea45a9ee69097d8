package pantheon

import "errors"

// Sentinel errors for the client's failure taxonomy. Callers discriminate
// with errors.Is.
var (
	// ErrNoCredential means no machine token is configured.
	ErrNoCredential = errors.New("no machine token configured")

	// ErrConnectionFailed is a transport-level failure (no HTTP response).
	ErrConnectionFailed = errors.New("connection to Pantheon API failed")

	// ErrServiceUnavailable is a 502/503 from the API. Transient; callers
	// may retry later.
	ErrServiceUnavailable = errors.New("pantheon API temporarily unavailable")

	// ErrBadRequest is a 400 during token exchange, usually a client bug.
	ErrBadRequest = errors.New("bad request")

	// ErrInvalidCredential is a 401/403 during the machine-token exchange:
	// the configured credential itself was rejected.
	ErrInvalidCredential = errors.New("machine token rejected")

	// ErrAuthenticationFailed is a 401/403 on a regular request. The cached
	// session is invalidated so the next call re-authenticates.
	ErrAuthenticationFailed = errors.New("session authentication failed")

	// ErrMalformedResponse is a 2xx response whose body is unusable.
	ErrMalformedResponse = errors.New("malformed response from Pantheon API")

	// ErrUpstream is any other non-2xx response.
	ErrUpstream = errors.New("pantheon API error")

	// ErrEnvironmentNotFound means the environment is absent from the site's
	// environment map. Expected for local-only environments; callers should
	// not treat it as an outage.
	ErrEnvironmentNotFound = errors.New("environment not found")

	// Validation failures raised before any network call.
	ErrInvalidElement     = errors.New("invalid backup element")
	ErrSameEnvironment    = errors.New("source and target environments are the same")
	ErrMissingDomain      = errors.New("domain is required")
	ErrInvalidMode        = errors.New("invalid connection mode")
	ErrInvalidEnvironment = errors.New("invalid environment")
)

// Error wraps a sentinel with the operation that failed, an optional
// human-readable message extracted from the response body, and the HTTP
// status code when one was received.
type Error struct {
	// Op is the client operation that failed, e.g. "DeployCode".
	Op string

	// Err is one of the sentinel errors above, or a transport error.
	Err error

	// Msg is detail extracted from the response body, if any.
	Msg string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": " + e.Msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying later rather than a
// configuration or client problem.
func IsTransient(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrConnectionFailed)
}
