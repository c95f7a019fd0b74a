package models

// PlacedEvent is a timed event positioned on the hour axis of a day or week view.
type PlacedEvent struct {
	Event  ScheduledEvent `json:"event"`
	Offset float64        `json:"offset"`
	Stack  int            `json:"stack"`
}

// Bucket is one day cell of a composed timeline. Placeholder cells pad the
// first week of a month view and never carry events.
type Bucket struct {
	Date        LocalDate        `json:"date"`
	Placeholder bool             `json:"placeholder,omitempty"`
	Today       bool             `json:"today,omitempty"`
	Events      []ScheduledEvent `json:"events"`
	AllDay      []ScheduledEvent `json:"allDay,omitempty"`
	Placed      []PlacedEvent    `json:"placed,omitempty"`
	Hidden      int              `json:"hidden,omitempty"`
	Visible     []ScheduledEvent `json:"visible,omitempty"`
	Overflow    int              `json:"overflow,omitempty"`
	NowOffset   *float64         `json:"nowOffset,omitempty"`
}

// TimelineView is the renderable result of composing events over a viewport.
type TimelineView struct {
	Viewport Viewport `json:"viewport"`
	Padding  int      `json:"padding"`
	Buckets  []Bucket `json:"buckets"`
}

// Days returns the non-placeholder buckets.
func (t TimelineView) Days() []Bucket {
	out := make([]Bucket, 0, len(t.Buckets))
	for _, b := range t.Buckets {
		if !b.Placeholder {
			out = append(out, b)
		}
	}
	return out
}
