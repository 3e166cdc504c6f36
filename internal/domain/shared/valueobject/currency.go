package valueobject

// Currency is an ISO 4217 currency code. Every payment carries exactly one
// currency; amounts never mix currencies inside an aggregate.
type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
	CNY Currency = "CNY"
)

// DefaultCurrency is applied when a payment is created without an explicit
// currency.
const DefaultCurrency = RUB

// IsSupported reports whether the code is one the system accepts.
func (c Currency) IsSupported() bool {
	switch c {
	case RUB, USD, EUR, CNY:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}
