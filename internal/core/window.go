package core

import (
	"time"

	"hr.backoffice/internal/core/model"
)

// Punch is the direction of an attendance event.
type Punch int

const (
	PunchIn Punch = iota
	PunchOut
)

// Verdict is the outcome of classifying a punch against a session window.
type Verdict string

const (
	VerdictRejected Verdict = "rejected"
	VerdictInTime   Verdict = "in-time"
	VerdictLate     Verdict = "late"
	VerdictEarly    Verdict = "early"
	VerdictOvertime Verdict = "overtime"
)

// Classify compares now against the window. Boundary instants resolve to the
// non-exceeding branch: a check-in exactly at cutoff is in-time, a check-out
// exactly at cutoff or close is in-time.
func Classify(p Punch, now time.Time, w model.Window) Verdict {
	switch p {
	case PunchIn:
		if now.Before(w.Open) {
			return VerdictRejected
		}
		if now.After(w.Cutoff) {
			return VerdictLate
		}
		return VerdictInTime
	case PunchOut:
		if now.Before(w.Cutoff) {
			return VerdictEarly
		}
		if now.After(w.Close) {
			return VerdictOvertime
		}
		return VerdictInTime
	}
	return VerdictRejected
}

func checkInStatus(v Verdict) model.CheckInStatus {
	if v == VerdictLate {
		return model.CheckInLate
	}
	return model.CheckInInTime
}

func checkOutStatus(v Verdict) model.CheckOutStatus {
	switch v {
	case VerdictEarly:
		return model.CheckOutEarly
	case VerdictOvertime:
		return model.CheckOutOvertime
	}
	return model.CheckOutInTime
}
