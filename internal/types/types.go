// Package types defines shared types used across the application.
package types

import "time"

// Answer is the recorded outcome of a single question. The Response and
// Seconds fields end up in the output spreadsheet, the remaining flags
// feed the run summary.
type Answer struct {
	Response      string  `json:"response"`
	Seconds       float64 `json:"timeTakenSeconds"`
	Failed        bool    `json:"failed,omitempty"`
	Skipped       bool    `json:"skipped,omitempty"`
	LowConfidence bool    `json:"lowConfidence,omitempty"`
}

// Progress is a transient status message published by a run while it works
// through the list of questions. It is not persisted anywhere.
type Progress struct {
	Completed int
	Total     int
	Message   string
}

// RunStatus represents the status of a finished run.
type RunStatus struct {
	ServiceName string    `json:"serviceName"`
	NrQuestions int       `json:"nrQuestions"`
	NrFailed    int       `json:"nrFailed"`
	NrSkipped   int       `json:"nrSkipped"`
	RunStart    time.Time `json:"runStart"`
	RunEnd      time.Time `json:"runEnd"`
}

// NewRunStatus derives a RunStatus from a finished answer list.
func NewRunStatus(service string, answers []Answer, start, end time.Time) RunStatus {
	st := RunStatus{
		ServiceName: service,
		NrQuestions: len(answers),
		RunStart:    start,
		RunEnd:      end,
	}
	for _, a := range answers {
		if a.Failed {
			st.NrFailed++
		}
		if a.Skipped {
			st.NrSkipped++
		}
	}
	return st
}
