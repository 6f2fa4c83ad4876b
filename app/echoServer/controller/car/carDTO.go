package car

type CreateCarReq struct {
	OwnerID      int64   `json:"owner_id" validate:"required,gt=0"`
	Name         string  `json:"name" validate:"required"`
	Brand        string  `json:"brand"`
	Location     string  `json:"location" validate:"required"`
	Seats        int     `json:"seats" validate:"gte=0"`
	FuelType     string  `json:"fuel_type"`
	Transmission string  `json:"transmission"`
	PricePerDay  float64 `json:"price_per_day" validate:"required,gt=0"`
	Image        string  `json:"image"`
}

// UpdateCarReq edits listing details; ownership never changes on edit.
type UpdateCarReq struct {
	Name         string  `json:"name" validate:"required"`
	Brand        string  `json:"brand"`
	Location     string  `json:"location" validate:"required"`
	Seats        int     `json:"seats" validate:"gte=0"`
	FuelType     string  `json:"fuel_type"`
	Transmission string  `json:"transmission"`
	PricePerDay  float64 `json:"price_per_day" validate:"required,gt=0"`
	Image        string  `json:"image"`
}
