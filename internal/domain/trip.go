package domain

import "time"

type Difficulty string

const (
	DifficultyEasy     Difficulty = "facil"
	DifficultyModerate Difficulty = "moderado"
	DifficultyHard     Difficulty = "dificil"
	DifficultyExpert   Difficulty = "experto"
)

type Trip struct {
	ID             int
	Title          string
	Description    string
	Destination    string
	Difficulty     Difficulty
	DurationDays   int
	BasePrice      float64
	CategoryID     int
	Featured       bool
	Active         bool
	ImageURL       string
	DepartureDates []DepartureDate
	CreatedAt      time.Time
}

// TripRef is the trip data the backend embeds in a cart line.
type TripRef struct {
	ID           int
	Title        string
	Destination  string
	ImageURL     string
	DurationDays int
}

// DepartsIn reports whether any departure of the trip starts in the given month.
func (t Trip) DepartsIn(month time.Month, year int) bool {
	for _, d := range t.DepartureDates {
		if d.StartDate.Month() == month && (year == 0 || d.StartDate.Year() == year) {
			return true
		}
	}
	return false
}

// LowestPrice returns the cheapest per-person price among departures with seats
// left, falling back to the trip base price.
func (t Trip) LowestPrice() float64 {
	lowest := t.BasePrice
	found := false
	for _, d := range t.DepartureDates {
		if d.SoldOut() {
			continue
		}
		if !found || d.PricePerPerson < lowest {
			lowest = d.PricePerPerson
			found = true
		}
	}
	return lowest
}
