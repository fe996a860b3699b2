package validators

import (
	"regexp"
)

var commerceOrderPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// ValidateCommerceOrder checks an order identifier sent to the payment provider:
// 1 to 64 characters of letters, digits and dashes.
func ValidateCommerceOrder(orderID string) bool {
	return commerceOrderPattern.MatchString(orderID)
}
