package services

import "github.com/google/uuid"

// newBasketCode returns the short public code for a new basket: the first
// 8 characters of a v4 UUID. Collision-resistant enough at expected
// basket volumes that no retry loop is needed; the unique constraint on
// baskets.basket_code is the backstop.
func newBasketCode() string {
	return uuid.NewString()[:8]
}
