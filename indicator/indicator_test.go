package indicator

import "testing"

func TestFor(t *testing.T) {
	tests := []struct {
		delivery, payment string
		want              Class
	}{
		{"Delivered", "Paid", Green},
		{"delivered ", "PAID", Green},
		{"Delivered", "Partial", Yellow},
		{"Pending", "Paid", Yellow},
		{"Partially Delivered", "Pending", Red},
		{"Failed", "Failed", Red},
		{"", "", Red},
		{"Delivered", "", Yellow},
	}
	for _, tt := range tests {
		if got := For(tt.delivery, tt.payment); got != tt.want {
			t.Errorf("For(%q, %q) = %q, want %q", tt.delivery, tt.payment, got, tt.want)
		}
	}
}
