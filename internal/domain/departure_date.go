package domain

import "time"

// DepartureDate is one scheduled instance of a trip with its own capacity and
// price. RemainingCapacity is nil when the backend did not report it.
type DepartureDate struct {
	ID                int
	TripID            int
	StartDate         time.Time
	EndDate           time.Time
	TotalCapacity     int
	RemainingCapacity *int
	PricePerPerson    float64
	RecentBookings    int
}

func (d DepartureDate) SoldOut() bool {
	return d.RemainingCapacity != nil && *d.RemainingCapacity == 0
}

func (d DepartureDate) ShowUrgency() bool {
	return ShouldShowUrgency(d.RemainingCapacity, d.TotalCapacity, d.RecentBookings)
}

// Normalize clamps RemainingCapacity into [0, TotalCapacity].
func (d DepartureDate) Normalize() DepartureDate {
	if d.RemainingCapacity == nil {
		return d
	}
	remaining := *d.RemainingCapacity
	if remaining < 0 {
		remaining = 0
	}
	if d.TotalCapacity > 0 && remaining > d.TotalCapacity {
		remaining = d.TotalCapacity
	}
	d.RemainingCapacity = &remaining
	return d
}
