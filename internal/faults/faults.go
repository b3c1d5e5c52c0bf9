package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where in the cycle it happened.
type Kind int

const (
	KindUnknown Kind = iota
	KindQuoteFetch
	KindEvaluation
	KindGasEstimation
	KindExecution
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindQuoteFetch:
		return "quote_fetch"
	case KindEvaluation:
		return "evaluation"
	case KindGasEstimation:
		return "gas_estimation"
	case KindExecution:
		return "execution"
	case KindConfiguration:
		return "configuration"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
