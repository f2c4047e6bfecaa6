package inference

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// OutcomeKind classifies a single candidate attempt.
type OutcomeKind int

const (
	Answered OutcomeKind = iota
	Unavailable
	NotFound
	EmptyBody
	MalformedBody
	TransportError
)

var outcomeNames = [...]string{
	Answered:       "answered",
	Unavailable:    "unavailable",
	NotFound:       "not_found",
	EmptyBody:      "empty_body",
	MalformedBody:  "malformed_body",
	TransportError: "transport_error",
}

func (k OutcomeKind) String() string {
	if k < 0 || int(k) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(k))
	}
	return outcomeNames[k]
}

// Outcome is the normalized result of one provider call. Payload is only set
// for Answered; Text is filled in once extraction succeeds.
type Outcome struct {
	Kind    OutcomeKind
	Status  int
	Payload gjson.Result
	Text    string
	Detail  string
}

func transportError(status int, format string, args ...any) Outcome {
	return Outcome{Kind: TransportError, Status: status, Detail: fmt.Sprintf(format, args...)}
}
