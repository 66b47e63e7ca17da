package models

import (
	"encoding/json"
	"time"
)

// NullDuration is an optional time of day.
type NullDuration struct {
	Duration time.Duration
	Valid    bool
}

func NewNullDuration(d time.Duration) NullDuration {
	return NullDuration{Duration: d, Valid: true}
}

func (n NullDuration) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(int64(n.Duration / time.Second))
}

func (n *NullDuration) UnmarshalJSON(b []byte) error {
	var seconds *int64
	if err := json.Unmarshal(b, &seconds); err != nil {
		return err
	}
	if seconds == nil {
		*n = NullDuration{}
		return nil
	}
	*n = NewNullDuration(time.Duration(*seconds) * time.Second)
	return nil
}

// TimingStatus classifies how precisely a stop is timed.
type TimingStatus string

const (
	TimingPrincipal     TimingStatus = "PTP"
	TimingPrincipalStop TimingStatus = "PPT"
	TimingInfoPoint     TimingStatus = "TIP"
	TimingOther         TimingStatus = "OTH"
)

// IsMinor reports whether the status is an estimated rather than a timed point.
func (s TimingStatus) IsMinor() bool {
	return s == TimingOther || s == TimingInfoPoint
}

// StopTime is one scheduled visit. StopCode is always set; StopID only when
// the code resolved to a known stop.
type StopTime struct {
	ID           string       `json:"id,omitempty"`
	TripID       string       `json:"tripId"`
	Sequence     int          `json:"sequence"`
	StopCode     string       `json:"stopCode"`
	StopID       string       `json:"stopId,omitempty"`
	Arrival      NullDuration `json:"arrival"`
	Departure    NullDuration `json:"departure"`
	PickUp       bool         `json:"pickUp"`
	SetDown      bool         `json:"setDown"`
	TimingStatus TimingStatus `json:"timingStatus"`
}

// ArrivalOrDeparture prefers the arrival time.
func (st *StopTime) ArrivalOrDeparture() time.Duration {
	if st.Arrival.Valid {
		return st.Arrival.Duration
	}
	return st.Departure.Duration
}

// DepartureOrArrival prefers the departure time.
func (st *StopTime) DepartureOrArrival() time.Duration {
	if st.Departure.Valid {
		return st.Departure.Duration
	}
	return st.Arrival.Duration
}

// HasWaitTime reports whether the vehicle waits at the stop.
func (st *StopTime) HasWaitTime() bool {
	return st.Arrival.Valid && st.Departure.Valid && st.Arrival.Duration != st.Departure.Duration
}

// IsSetDownOnly reports a stop where passengers may alight but not board.
func (st *StopTime) IsSetDownOnly() bool {
	return st.SetDown && !st.PickUp
}

// IsPickUpOnly reports a stop where passengers may board but not alight.
func (st *StopTime) IsPickUpOnly() bool {
	return st.PickUp && !st.SetDown
}
