// Package calllog turns a tab-delimited call-log export into the Calls,
// Summary and Callbacks result sets.
//
// The stages are pure functions over slices and run in this order:
//
//	ReadTSV → ValidateSchema → Exclude → AdjustTimes → Project → {Summarize, MatchCallbacks}
//
// Run wires them together for one closed dataset.
package calllog

import (
	"strconv"
	"strings"
	"time"
)

/* ───────── raw export layout ───────── */

// RequiredFields are the export columns every dataset must carry.
var RequiredFields = []string{
	"UserName", "UserEmail", "UserPhone", "Source", "SourceDetail",
	"Date", "Time", "Duration", "Answered", "Inbound", "Number", "PhonebookName",
}

// RawRecord is one export row, untouched apart from trimming.
type RawRecord struct {
	Line          int
	UserName      string
	UserEmail     string
	UserPhone     string
	Source        string
	SourceDetail  string
	Date          string
	Time          string
	Duration      string
	Answered      string
	Inbound       string
	Number        string
	PhonebookName string
}

// Dataset is a parsed export: its header row and data rows.
type Dataset struct {
	Header []string
	Rows   []RawRecord
}

// TimedRecord is a RawRecord with its shifted instant attached.
type TimedRecord struct {
	RawRecord
	Shifted time.Time
}

/* ───────── classification enums ───────── */

// Direction of a call. Outbound is always the negation of the inbound flag.
type Direction int

const (
	Outbound Direction = iota
	Inbound
)

// Answer is the two-valued answered flag.
type Answer int

const (
	NotAnswered Answer = iota
	Answered
)

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (a Answer) String() string { return yesNo(a == Answered) }

/* ───────── public Calls schema ───────── */

// ProjectedRecord is one row of the Calls table.
type ProjectedRecord struct {
	UserName      string
	UserEmail     string
	UserPhone     string
	Source        string
	SourceDetail  string
	Date          string
	Time          string
	Shifted       time.Time
	Duration      string
	Answered      Answer
	Direction     Direction
	Number        string
	PhonebookName string
}

// IncomingCalls is "Yes" for inbound calls.
func (p ProjectedRecord) IncomingCalls() string { return yesNo(p.Direction == Inbound) }

// OutgoingCalls is the complement of IncomingCalls.
func (p ProjectedRecord) OutgoingCalls() string { return yesNo(p.Direction != Inbound) }

// MissedIncoming reports an inbound call nobody answered.
func (p ProjectedRecord) MissedIncoming() bool {
	return p.Direction == Inbound && p.Answered == NotAnswered
}

// CallsHeader returns the Calls column names; the shifted column is labelled
// with the configured offset.
func CallsHeader(offset time.Duration) []string {
	return []string{
		"User Name", "User Email", "User Phone", "Source", "Source Detail",
		"Date", "Time", ShiftLabel(offset), "Duration (s)", "Answered",
		"Incoming Calls", "Outgoing Calls", "Number", "Phonebook Name",
	}
}

// ShiftLabel renders the offset as used in column titles: "Time + 1h", "Time + 90m".
func ShiftLabel(offset time.Duration) string {
	var b strings.Builder
	b.WriteString("Time + ")
	switch {
	case offset%time.Hour == 0:
		b.WriteString(unitCount(offset/time.Hour, "h"))
	case offset%time.Minute == 0:
		b.WriteString(unitCount(offset/time.Minute, "m"))
	default:
		b.WriteString(offset.String())
	}
	return b.String()
}

func unitCount(n time.Duration, unit string) string {
	return strconv.FormatInt(int64(n), 10) + unit
}

/* ───────── derived tables ───────── */

// Summary holds the five run totals.
type Summary struct {
	Total    int `json:"total"`
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
	Answered int `json:"answered"`
	Missed   int `json:"missed"`
}

// DailySummary is Summary restricted to one shifted calendar date.
type DailySummary struct {
	Date time.Time
	Summary
}

// SummaryHeader is the header of the Summary table.
var SummaryHeader = []string{"Metric", "Count"}

// Rows returns the Summary table body in sheet order.
func (s Summary) Rows() [][]any {
	return [][]any{
		{"Total Calls", s.Total},
		{"Incoming Calls", s.Incoming},
		{"Outgoing Calls", s.Outgoing},
		{"Answered Calls", s.Answered},
		{"Missed Calls", s.Missed},
	}
}

// CallbackEntry pairs a missed incoming call with the first later outgoing
// call to the same number.
type CallbackEntry struct {
	Date          time.Time
	MissedAt      time.Time
	CallbackAt    time.Time
	DelayMinutes  int
	Number        string
	UserName      string
	PhonebookName string
}

// CallbacksHeader lists the Callbacks columns.
var CallbacksHeader = []string{
	"Date", "Missed Call Time", "Callback Time", "Delay (min)",
	"Number", "User Name", "Phonebook Name",
}

// Exceeds reports whether the callback came later than threshold.
func (c CallbackEntry) Exceeds(threshold time.Duration) bool {
	return time.Duration(c.DelayMinutes)*time.Minute > threshold
}
