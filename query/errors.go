package query

import (
	"fmt"
	"time"
)

// ErrInvalidIdentifier is returned when the collection identifier is empty
type ErrInvalidIdentifier struct {
	ID string
}

func (e ErrInvalidIdentifier) Error() string {
	return fmt.Sprintf("invalid collection identifier: %q", e.ID)
}

// ErrInvalidRange is returned when the start date is after the end date
type ErrInvalidRange struct {
	Start, End time.Time
}

func (e ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s", e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// ErrInvalidCoordinate is returned when a longitude or a latitude is out of bounds
type ErrInvalidCoordinate struct {
	Lon, Lat float64
}

func (e ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: lon=%g lat=%g", e.Lon, e.Lat)
}

// ErrEmptySelection is returned when a band selection has no element
type ErrEmptySelection struct{}

func (e ErrEmptySelection) Error() string {
	return "empty band selection"
}

// ErrServiceUnavailable is returned by Resolve when the catalog service cannot be reached
type ErrServiceUnavailable struct {
	Provider string
	Err      error
}

func (e ErrServiceUnavailable) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: service unavailable", e.Provider)
	}
	return fmt.Sprintf("%s: service unavailable: %v", e.Provider, e.Err)
}

func (e ErrServiceUnavailable) Unwrap() error { return e.Err }

// ErrAuthenticationRequired is returned by Resolve when no valid session exists
type ErrAuthenticationRequired struct {
	Reason string
}

func (e ErrAuthenticationRequired) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Reason
}
