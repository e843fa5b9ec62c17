package dto

// SetSequenceRequest seeds the counter of a unit and year.
type SetSequenceRequest struct {
	LastNumber *int64 `json:"lastNumber" binding:"required"`
}
