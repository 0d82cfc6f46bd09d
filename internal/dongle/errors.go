package dongle

import "errors"

var (
	// ErrIdentificationTimeout indicates every probe attempt failed to get
	// an answer out of the endpoint.
	ErrIdentificationTimeout = errors.New("dongle: identification timed out")

	// ErrUnrecognizedResponse indicates the endpoint answered with
	// something that is not a known dongle signature.
	ErrUnrecognizedResponse = errors.New("dongle: unrecognized identification response")

	// ErrEndpointLost indicates a dongle's endpoint stopped accepting
	// connections entirely. The dongle has been unplugged or its shim
	// torn down.
	ErrEndpointLost = errors.New("dongle: endpoint lost")
)
