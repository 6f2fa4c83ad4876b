// model/carModel.go
package model

import "time"

type Car struct {
	ID           int64   `json:"id"`
	OwnerID      int64   `json:"owner_id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Location     string  `json:"location"`
	Seats        int     `json:"seats"`
	FuelType     string  `json:"fuel_type"`
	Transmission string  `json:"transmission"`
	PricePerDay  float64 `json:"price_per_day"`
	Image        string  `json:"image,omitempty"`
	Retired      bool    `json:"retired"`
}

// CarBlock is an owner-imposed unavailability window, half-open [Start, End).
// Blocks never overlap each other or a live booking on the same car.
type CarBlock struct {
	ID        int64     `json:"id"`
	CarID     int64     `json:"car_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
