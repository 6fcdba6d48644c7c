// Package types contains the dashboard payload shared by the HTTP API and the report.
package types

import (
	"errors"
	"time"

	"github.com/okian/huddle/internal/domain/checkin"
)

// Dashboard states that carry no views.
var (
	ErrNotStarted  = errors.New("service not started")
	ErrLoading     = errors.New("dashboard is loading")
	ErrFetchFailed = errors.New("failed to fetch data")
)

// Counts holds the size of each view.
type Counts struct {
	Today   int `json:"today" yaml:"today"`
	Alerts  int `json:"alerts" yaml:"alerts"`
	Missing int `json:"missing" yaml:"missing"`
}

// Dashboard is the three derived views of one snapshot, computed against a
// single reference date.
type Dashboard struct {
	Date         string         `json:"date" yaml:"date"`
	Policy       string         `json:"missing_policy" yaml:"missing_policy"`
	SnapshotID   string         `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	FetchedAt    time.Time      `json:"fetched_at" yaml:"fetched_at"`
	Records      int            `json:"records" yaml:"records"`
	Counts       Counts         `json:"counts" yaml:"counts"`
	Today        []checkin.Card `json:"today" yaml:"today"`
	Alerts       []checkin.Card `json:"alerts" yaml:"alerts"`
	Missing      []checkin.Card `json:"missing" yaml:"missing"`
	RefreshError string         `json:"refresh_error,omitempty" yaml:"refresh_error,omitempty"`
}

// NewDashboard projects derived views into a Dashboard.
func NewDashboard(v checkin.Views, records int) Dashboard {
	return Dashboard{
		Date:    v.Date,
		Policy:  string(v.Policy),
		Records: records,
		Counts: Counts{
			Today:   len(v.Today),
			Alerts:  len(v.Alerts),
			Missing: len(v.Missing),
		},
		Today:   checkin.Cards(v.Today),
		Alerts:  checkin.Cards(v.Alerts),
		Missing: checkin.Cards(v.Missing),
	}
}
