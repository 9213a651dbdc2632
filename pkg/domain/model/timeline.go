package model

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/neuro86/neuro86/pkg/domain/types"
)

// EventKind classifies a timeline event by which optional detail fields are
// meaningful for it
type EventKind string

const (
	EventKindSymptom    EventKind = "symptom"
	EventKindMedication EventKind = "medication"
	EventKindTest       EventKind = "test"
	EventKindSurgery    EventKind = "surgery"
	EventKindOutcome    EventKind = "outcome"
	EventKindGeneric    EventKind = "generic"
)

// StringList accepts both a JSON string and a JSON array of strings. The
// extraction model emits both forms for event descriptions.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// PatientDetails holds the patient-level attributes the extraction model
// infers from a narrative
type PatientDetails struct {
	ID  string `json:"id,omitempty" firestore:"ID,omitempty"`
	Age *int   `json:"age" firestore:"Age,omitempty"`
	Sex string `json:"sex,omitempty" firestore:"Sex,omitempty"`
}

// TimelineEvent is one event in a derived timeline. Phase, Type, Date and
// Description are common to all kinds; the remaining fields are populated
// only for the kinds they belong to.
type TimelineEvent struct {
	Phase       types.Phase `json:"phase" firestore:"Phase"`
	Type        string      `json:"type" firestore:"Type"`
	Date        string      `json:"date,omitempty" firestore:"Date,omitempty"`
	Description StringList  `json:"desc,omitempty" firestore:"Description,omitempty"`

	// symptom events
	Symptoms []string `json:"symptoms,omitempty" firestore:"Symptoms,omitempty"`

	// medication events
	DrugName string `json:"drug_name,omitempty" firestore:"DrugName,omitempty"`

	// test events
	TestType string `json:"test_type,omitempty" firestore:"TestType,omitempty"`

	// surgery events
	SurgeryType string `json:"surgery_type,omitempty" firestore:"SurgeryType,omitempty"`
	SurgerySite string `json:"surgery_site,omitempty" firestore:"SurgerySite,omitempty"`

	// follow-up / result events
	Outcome string `json:"outcome,omitempty" firestore:"Outcome,omitempty"`
}

// Kind derives the event variant from its populated fields and type tag
func (e *TimelineEvent) Kind() EventKind {
	switch {
	case e.DrugName != "":
		return EventKindMedication
	case e.TestType != "":
		return EventKindTest
	case e.SurgeryType != "" || e.SurgerySite != "":
		return EventKindSurgery
	case len(e.Symptoms) > 0:
		return EventKindSymptom
	case e.Outcome != "":
		return EventKindOutcome
	default:
		return EventKindGeneric
	}
}

// When parses the event date. Events without a date sort as the Unix epoch so
// that undated events come first in a sorted timeline.
func (e *TimelineEvent) When() time.Time {
	if e.Date == "" {
		return time.Unix(0, 0).UTC()
	}
	t, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// TimelineDocument is the structured timeline derived from one or more
// narratives. Events are stored in extraction order; consumers sort at read
// time.
type TimelineDocument struct {
	PatientDetails PatientDetails  `json:"patient_details" firestore:"PatientDetails"`
	Events         []TimelineEvent `json:"events" firestore:"Events"`
}

// EmptyTimeline returns a document with no events. Used as the fallback when
// the extraction response contains no JSON object.
func EmptyTimeline() *TimelineDocument {
	return &TimelineDocument{Events: []TimelineEvent{}}
}

// SortedEvents returns the events ordered by date, undated events first
// (epoch sentinel). The stored order is preserved for equal dates.
func (d *TimelineDocument) SortedEvents() []TimelineEvent {
	events := make([]TimelineEvent, len(d.Events))
	copy(events, d.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].When().Before(events[j].When())
	})
	return events
}
