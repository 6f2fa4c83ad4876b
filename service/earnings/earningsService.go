package earningssvc

import (
	"context"

	earningsrepo "carrental/repository/earnings"
)

// Report is a derived view over approved bookings. It is recomputed on
// every request and never cached; there is no earnings state to invalidate.
type Report struct {
	Bookings      []earningsrepo.Row `json:"bookings"`
	GrossTotal    float64            `json:"gross_total"`
	PlatformShare float64            `json:"platform_share"`
	OwnerShare    float64            `json:"owner_share"`
	Year          int                `json:"year,omitempty"`
	Month         int                `json:"month,omitempty"`
}

type Service interface {
	Owner(ctx context.Context, ownerID int64, year, month int) (*Report, error)
	Platform(ctx context.Context, year, month int) (*Report, error)
}

type service struct {
	r          earningsrepo.Repo
	commission float64
}

func New(r earningsrepo.Repo, commission float64) Service {
	return &service{r: r, commission: commission}
}

func (s *service) Owner(ctx context.Context, ownerID int64, year, month int) (*Report, error) {
	rows, err := s.r.ApprovedByOwner(ctx, ownerID, year, month)
	if err != nil {
		return nil, err
	}
	return s.report(rows, year, month), nil
}

func (s *service) Platform(ctx context.Context, year, month int) (*Report, error) {
	rows, err := s.r.ApprovedAll(ctx, year, month)
	if err != nil {
		return nil, err
	}
	return s.report(rows, year, month), nil
}

func (s *service) report(rows []earningsrepo.Row, year, month int) *Report {
	rep := &Report{Bookings: rows, Year: year, Month: month}
	for _, r := range rows {
		rep.GrossTotal += r.TotalAmount
	}
	rep.PlatformShare = rep.GrossTotal * s.commission
	rep.OwnerShare = rep.GrossTotal - rep.PlatformShare
	return rep
}
