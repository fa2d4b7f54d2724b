package models

// CartState is a step of the add-to-cart state machine.
type CartState int

const (
	CartIdle CartState = iota
	CartLocated
	CartScrolled
	CartEnabledCheck
	CartClicked
	CartConfirmed
	CartFailed
)

func (s CartState) String() string {
	switch s {
	case CartIdle:
		return "idle"
	case CartLocated:
		return "located"
	case CartScrolled:
		return "scrolled"
	case CartEnabledCheck:
		return "enabled_check"
	case CartClicked:
		return "clicked"
	case CartConfirmed:
		return "confirmed"
	case CartFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CartResult is the outcome of one add-to-cart attempt.
type CartResult struct {
	// State is the final state: CartConfirmed on success, CartFailed otherwise.
	State CartState

	// LastGood is the last state reached before a failure.
	LastGood CartState

	// Forced is true when the purchase control never became enabled and
	// its disabled state was removed by script before clicking. A forced
	// confirmation may hide a legitimately unavailable product.
	Forced bool

	// Err is the failure reason when State is CartFailed.
	Err error
}

// Confirmed reports whether the confirmation element appeared.
func (r CartResult) Confirmed() bool { return r.State == CartConfirmed }
