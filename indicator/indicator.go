// Package indicator maps a billing's delivery and payment status to the
// traffic-light class shown next to it on every screen.
package indicator

import "strings"

// Class is a traffic-light severity class.
type Class string

const (
	Green  Class = "green"
	Yellow Class = "yellow"
	Red    Class = "red"
)

// For classifies a (deliveryStatus, paymentStatus) pair. Delivered and Paid
// together are green, exactly one of them is yellow, neither is red.
func For(deliveryStatus, paymentStatus string) Class {
	delivered := isStatus(deliveryStatus, "Delivered")
	paid := isStatus(paymentStatus, "Paid")
	switch {
	case delivered && paid:
		return Green
	case delivered || paid:
		return Yellow
	default:
		return Red
	}
}

func isStatus(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), want)
}
