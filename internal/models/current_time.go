package models

import "time"

// CurrentTimeModel Current time specific model
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
	// Date is the timetable date for today in the server's timezone.
	Date string `json:"date"`
}

// NewCurrentTime describes t, which should already be in the timetable timezone.
func NewCurrentTime(t time.Time) CurrentTimeModel {
	return CurrentTimeModel{
		ReadableTime: t.Format(time.RFC3339),
		Time:         t.UnixMilli(),
		Date:         t.Format("2006-01-02"),
	}
}
