package fetch

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies the outcome of a fetch.
type Kind int

const (
	// KindPrice means the page loaded and a price was extracted.
	KindPrice Kind = iota
	// KindNotFound means the page loaded but carried no recognizable price
	// (layout change, out of stock). Recorded as a failed observation.
	KindNotFound
	// KindTransient covers timeouts, connection errors, 5xx and rate
	// limiting. Retried within a check, recorded as failed if exhausted.
	KindTransient
	// KindPermanent covers malformed URLs and other 4xx responses.
	// Never retried.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindPrice:
		return "price"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient_error"
	case KindPermanent:
		return "permanent_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of fetching one product page. Price is only
// meaningful for KindPrice; Err is only set for the error kinds.
type Result struct {
	Kind  Kind
	Price decimal.Decimal
	Err   error
}

// OK reports whether the result carries a price.
func (r Result) OK() bool {
	return r.Kind == KindPrice
}

func priced(p decimal.Decimal) Result {
	return Result{Kind: KindPrice, Price: p}
}

func notFound() Result {
	return Result{Kind: KindNotFound}
}

func transient(err error) Result {
	return Result{Kind: KindTransient, Err: &Error{Transient: true, Err: err}}
}

func permanent(err error) Result {
	return Result{Kind: KindPermanent, Err: &Error{Transient: false, Err: err}}
}

// Error wraps a failed fetch with its retry classification.
type Error struct {
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	if e.Transient {
		return fmt.Sprintf("fetch: transient: %v", e.Err)
	}
	return fmt.Sprintf("fetch: permanent: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
