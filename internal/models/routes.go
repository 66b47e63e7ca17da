package models

import "time"

// Route is one scheduled variant of a service. Several routes with different
// RevisionNumber values may describe successive revisions of the same service.
type Route struct {
	ID                  string     `json:"id"`
	ServiceID           string     `json:"serviceId"`
	LineName            string     `json:"lineName"`
	Code                string     `json:"code"`
	RevisionNumber      int        `json:"revisionNumber"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	Origin              string     `json:"origin,omitempty"`
	Destination         string     `json:"destination,omitempty"`
	Via                 string     `json:"via,omitempty"`
	InboundDescription  string     `json:"inboundDescription,omitempty"`
	OutboundDescription string     `json:"outboundDescription,omitempty"`
}

func NewRoute(id, serviceID, lineName string, startDate, endDate *time.Time) Route {
	return Route{
		ID:        id,
		ServiceID: serviceID,
		LineName:  lineName,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

// Contains reports whether date is inside the route's validity period.
// Missing bounds are open.
func (r *Route) Contains(date time.Time) bool {
	if r.StartDate != nil && date.Before(*r.StartDate) {
		return false
	}
	return r.EndDate == nil || !date.After(*r.EndDate)
}

// IsOverride reports whether the route is valid for exactly one day, date.
func (r *Route) IsOverride(date time.Time) bool {
	return r.StartDate != nil && r.EndDate != nil &&
		r.StartDate.Equal(date) && r.EndDate.Equal(date)
}

// ServiceKey groups the revisions of one service.
func (r *Route) ServiceKey() string {
	if r.ServiceID != "" {
		return r.ServiceID
	}
	return r.Code
}
