package dto

// TimelineQuery binds the timeline and export query string.
type TimelineQuery struct {
	Anchor      string `form:"anchor"`
	Granularity string `form:"granularity"`
	Nav         string `form:"nav"`
}

// CalendarEventsQuery binds the month projection query string.
type CalendarEventsQuery struct {
	Year  int `form:"year" binding:"required,min=1970,max=9999"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}
