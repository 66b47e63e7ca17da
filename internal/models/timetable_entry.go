package models

// TimetableEntry is the JSON view of a built timetable.
type TimetableEntry struct {
	// Date is set when the timetable was built for a date (YYYY-MM-DD).
	Date         *string            `json:"date,omitempty"`
	// Calendar is set instead of Date when one weekly calendar applies throughout.
	Calendar     *CalendarEntry     `json:"calendar,omitempty"`
	Routes       []TimetableRoute   `json:"routes"`
	Descriptions []DescriptionEntry `json:"descriptions,omitempty"`
	// Journeys are origin, via and destination place lists.
	Journeys     [][]string         `json:"journeys,omitempty"`
	Groupings    []GroupingEntry    `json:"groupings"`
	DateOptions  []string           `json:"dateOptions"`
	Expired      bool               `json:"expired"`

	HasExtraColumns bool `json:"hasExtraColumns"`
	HasSetDownOnly  bool `json:"hasSetDownOnly"`
}

type CalendarEntry struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type TimetableRoute struct {
	ID             string  `json:"id"`
	ServiceID      string  `json:"serviceId"`
	LineName       string  `json:"lineName"`
	RevisionNumber int     `json:"revisionNumber,omitempty"`
	StartDate      *string `json:"startDate,omitempty"`
	EndDate        *string `json:"endDate,omitempty"`
}

type DescriptionEntry struct {
	Outbound string `json:"outbound"`
	Inbound  string `json:"inbound"`
}

// GroupingEntry is one direction. Columns, and the cells of every row, run
// left to right.
type GroupingEntry struct {
	Inbound       bool          `json:"inbound"`
	HasMinorStops bool          `json:"hasMinorStops"`
	Columns       []ColumnEntry `json:"columns"`
	Heads         []HeadEntry   `json:"heads"`
	Rows          []RowEntry    `json:"rows"`
	Feet          []FootEntry   `json:"feet,omitempty"`
}

type ColumnEntry struct {
	TripID            string `json:"tripId"`
	RouteID           string `json:"routeId"`
	Block             string `json:"block,omitempty"`
	Garage            string `json:"garage,omitempty"`
	VehicleType       string `json:"vehicleType,omitempty"`
	TicketMachineCode string `json:"ticketMachineCode,omitempty"`
}

type HeadEntry struct {
	RouteID  string `json:"routeId"`
	LineName string `json:"lineName"`
	Span     int    `json:"span"`
}

type RowEntry struct {
	StopCode     string       `json:"stopCode"`
	Name         string       `json:"name"`
	TimingStatus TimingStatus `json:"timingStatus"`
	Minor        bool         `json:"minor"`
	HasWaitTimes bool         `json:"hasWaitTimes"`
	Cells        []CellEntry  `json:"cells"`
}

// Cell kinds in RowEntry.Cells.
const (
	CellKindEmpty      = "empty"
	CellKindVisit      = "visit"
	CellKindRepetition = "repetition"
)

// CellEntry is a tagged cell: visits carry times, repetitions carry spans and
// text, empty cells carry nothing.
type CellEntry struct {
	Kind string `json:"kind"`

	Arrival           string `json:"arrival,omitempty"`
	Departure         string `json:"departure,omitempty"`
	ExpectedArrival   string `json:"expectedArrival,omitempty"`
	ExpectedDeparture string `json:"expectedDeparture,omitempty"`
	Cancelled         bool   `json:"cancelled,omitempty"`
	PickUp            *bool  `json:"pickUp,omitempty"`
	SetDown           *bool  `json:"setDown,omitempty"`

	Text     string `json:"text,omitempty"`
	Colspan  int    `json:"colspan,omitempty"`
	Rowspan  int    `json:"rowspan,omitempty"`
	Interval int    `json:"intervalMinutes,omitempty"`
	// FirstTimes are the run's first departures, one per row ("" where it does not call).
	FirstTimes []string `json:"firstTimes,omitempty"`
}

type FootEntry struct {
	NoteID string     `json:"noteId"`
	Code   string     `json:"code"`
	Text   string     `json:"text"`
	Spans  []FootSpan `json:"spans"`
}

// FootSpan covers Span columns. Applies is false for columns without the note.
type FootSpan struct {
	Applies bool `json:"applies"`
	Span    int  `json:"span"`
}

// DateOptionsEntry is the JSON view of the dates a timetable can be shown for.
type DateOptionsEntry struct {
	Dates   []string `json:"dates"`
	Expired bool     `json:"expired"`
}
