package domain

import "errors"

// Market failure taxonomy. Every operation reports exactly one of these
// (wrapped in an *OpError) and leaves state untouched when it does.
var (
	// ErrInvalidPrice is returned when a negative price is passed to sell or update.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrWrongAssetType is returned when an asset, badge or payment is not of
	// the resource the market expects.
	ErrWrongAssetType = errors.New("wrong asset type")

	// ErrUnknownBadge is returned for badges never issued by the market or already burned.
	ErrUnknownBadge = errors.New("unknown badge")

	// ErrNoActiveOffer is returned when the badge or asset has no current offer
	// (already sold or cancelled).
	ErrNoActiveOffer = errors.New("no active offer")

	// ErrAlreadyCollected is returned when a badge has no pending proceeds.
	ErrAlreadyCollected = errors.New("already collected")

	// ErrInsufficientPayment is returned when a buy payment is below the listing price.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrUnauthorized is returned when collect_fees is called without the fee authority.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDuplicateAsset is returned when custody already holds an asset with the same id.
	ErrDuplicateAsset = errors.New("duplicate asset")

	// ErrAssetNotFound is returned when custody does not hold the requested asset.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrMintDenied is returned when a mint or burn is attempted without the issuer authority.
	ErrMintDenied = errors.New("mint authority denied")

	// ErrInvalidFeeRate is returned when a market is created with a fee rate outside [0, 1].
	ErrInvalidFeeRate = errors.New("invalid fee rate")

	// ErrInvariantViolated is returned by the invariant verifier.
	ErrInvariantViolated = errors.New("invariant violated")
)

// OpError attaches the failing market operation to a taxonomy error.
type OpError struct {
	Op  string // Operation that failed (e.g., "sell", "buy", "collect")
	Err error  // Underlying error
}

func (e *OpError) Error() string {
	return "market " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError wraps err with the operation name. A nil err yields nil.
func NewOpError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// OpOf returns the operation recorded on err, or "" when err is not an *OpError.
func OpOf(err error) string {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Op
	}
	return ""
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
