package booking

import (
	"errors"
	"time"
)

type RangeReq struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// parseTime accepts RFC3339 and the bare datetime-local format browsers send.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("unrecognized time format")
}

func (r RangeReq) Range() (start, end time.Time, err error) {
	if start, err = parseTime(r.StartTime); err != nil {
		return
	}
	end, err = parseTime(r.EndTime)
	return
}
