package domain

type CartItem struct {
	ID              int
	DepartureDateID int
	Trip            TripRef
	Quantity        int
	UnitPrice       float64
}

func (i CartItem) Valid() bool {
	return i.Quantity >= 1 && i.UnitPrice >= 0
}

func (i CartItem) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}
