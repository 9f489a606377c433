package convert

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. Every translation failure unwraps to exactly one of them.
var (
	ErrUnsupportedGate       = errors.New("unsupported gate")
	ErrUnsupportedCondition  = errors.New("unsupported condition")
	ErrUnsupportedAddressing = errors.New("unsupported addressing")
	ErrUnsupportedBarrier    = errors.New("unsupported barrier")
	ErrNonHermitianOperator  = errors.New("non-hermitian operator")
	ErrNotImplementedVariant = errors.New("not implemented variant")
	ErrRecursionLimit        = errors.New("recursion limit exceeded")
)

// kindLabels names the kinds for metrics.
var kindLabels = map[error]string{
	ErrUnsupportedGate:       "unsupported_gate",
	ErrUnsupportedCondition:  "unsupported_condition",
	ErrUnsupportedAddressing: "unsupported_addressing",
	ErrUnsupportedBarrier:    "unsupported_barrier",
	ErrNonHermitianOperator:  "non_hermitian_operator",
	ErrNotImplementedVariant: "not_implemented_variant",
	ErrRecursionLimit:        "recursion_limit",
}

// TranslationError names the offending instruction and, where one
// exists, a remedy.
type TranslationError struct {
	Kind   error
	Op     string
	Detail string
	Remedy string
}

func (e *TranslationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Remedy != "" {
		msg += " (" + e.Remedy + ")"
	}
	return msg
}

func (e *TranslationError) Unwrap() error {
	return e.Kind
}

func newError(kind error, op string, format string, args ...any) *TranslationError {
	return &TranslationError{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

const flattenRemedy = "flatten compound instructions before converting"

// kindOf returns the metrics label of err's kind.
func kindOf(err error) string {
	for kind, label := range kindLabels {
		if errors.Is(err, kind) {
			return label
		}
	}
	return "other"
}
