package domain

const (
	urgencyAbsoluteThreshold = 10
	urgencyRelativeThreshold = 0.15
	urgencyVelocityThreshold = 5
)

// ShouldShowUrgency decides whether a departure gets a scarcity indicator.
// A nil or zero remaining capacity never shows urgency: a sold out listing is
// not "low stock". The relative rule applies on its own, so 11 seats left out
// of 100 still shows urgency.
func ShouldShowUrgency(remaining *int, capacity int, recentBookings int) bool {
	if remaining == nil || *remaining == 0 {
		return false
	}
	if *remaining <= urgencyAbsoluteThreshold {
		return true
	}
	if capacity > 0 && float64(*remaining)/float64(capacity) < urgencyRelativeThreshold {
		return true
	}
	return recentBookings >= urgencyVelocityThreshold
}
