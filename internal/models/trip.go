package models

import "time"

// Trip is one scheduled vehicle run. Start and End are offsets from midnight and
// may exceed 24h for journeys running past midnight.
type Trip struct {
	ID                 string        `json:"id"`
	RouteID            string        `json:"routeId"`
	CalendarID         string        `json:"calendarId"`
	Inbound            bool          `json:"inbound"`
	Start              time.Duration `json:"start"`
	End                time.Duration `json:"end"`
	JourneyPattern     string        `json:"journeyPattern,omitempty"`
	Destination        string        `json:"destination,omitempty"`
	Block              string        `json:"block,omitempty"`
	Garage             string        `json:"garage,omitempty"`
	VehicleType        string        `json:"vehicleType,omitempty"`
	TicketMachineCode  string        `json:"ticketMachineCode,omitempty"`
	VehicleJourneyCode string        `json:"vehicleJourneyCode,omitempty"`
	StopTimes          []StopTime    `json:"stopTimes"`
	Notes              []Note        `json:"notes,omitempty"`
}

// Duration is the scheduled running time from first to last stop.
func (t *Trip) Duration() time.Duration {
	return t.End - t.Start
}

// ExternalRef is the identifier a live feed uses for the trip.
func (t *Trip) ExternalRef() string {
	if t.TicketMachineCode != "" {
		return t.TicketMachineCode
	}
	return t.ID
}

// HasOperationalDetails reports whether any of the optional operating fields are set.
func (t *Trip) HasOperationalDetails() bool {
	return t.Block != "" || t.Garage != "" || t.VehicleType != "" || t.TicketMachineCode != ""
}

// NoteIDs returns the set of note IDs attached to the trip.
func (t *Trip) NoteIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(t.Notes))
	for _, n := range t.Notes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// FillTimes sets Start and End from the first and last stop times.
func (t *Trip) FillTimes() {
	if len(t.StopTimes) == 0 {
		return
	}
	t.Start = t.StopTimes[0].DepartureOrArrival()
	t.End = t.StopTimes[len(t.StopTimes)-1].ArrivalOrDeparture()
}

// Note is a free text annotation such as "schooldays only".
type Note struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Text string `json:"text"`
}
