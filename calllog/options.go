package calllog

import "time"

// MissedCountPolicy selects how Summary.Missed is derived.
type MissedCountPolicy string

const (
	// MissedTotalMinusAnswered counts every unanswered call, outgoing ones
	// included: Missed = Total - Answered. This is the default.
	MissedTotalMinusAnswered MissedCountPolicy = "total-minus-answered"
	// MissedIncomingUnanswered counts only inbound calls that were not answered.
	MissedIncomingUnanswered MissedCountPolicy = "incoming-unanswered"
)

// DefaultDateLayouts are tried in order against "Date Time" once Time has
// been padded to HH:MM:SS.
var DefaultDateLayouts = []string{
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	"1/2/2006 15:04:05",
	"2.1.2006 15:04:05",
}

// Options configures one pipeline run.
type Options struct {
	// TimeOffset is added to every parsed timestamp; only the shifted value
	// is used downstream.
	TimeOffset time.Duration
	// DelayThreshold is passed through to the writer for highlighting.
	DelayThreshold time.Duration
	// NumberLength is how many trailing digits identify a number.
	NumberLength int
	MissedCount  MissedCountPolicy
	DateLayouts  []string
	Location     *time.Location
}

// DefaultOptions returns the settings for a +1h export.
func DefaultOptions() Options {
	return Options{
		TimeOffset:     time.Hour,
		DelayThreshold: 40 * time.Minute,
		NumberLength:   9,
		MissedCount:    MissedTotalMinusAnswered,
		DateLayouts:    DefaultDateLayouts,
		Location:       time.UTC,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NumberLength <= 0 {
		o.NumberLength = d.NumberLength
	}
	if o.MissedCount == "" {
		o.MissedCount = d.MissedCount
	}
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = d.DateLayouts
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	return o
}
