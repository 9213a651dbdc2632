package model_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
)

func TestStringListUnmarshal(t *testing.T) {
	t.Run("single string", func(t *testing.T) {
		var s model.StringList
		gt.NoError(t, json.Unmarshal([]byte(`"severe headache"`), &s)).Required()
		gt.Array(t, s).Length(1)
		gt.Value(t, s[0]).Equal("severe headache")
	})

	t.Run("array of strings", func(t *testing.T) {
		var s model.StringList
		gt.NoError(t, json.Unmarshal([]byte(`["headache", "nausea"]`), &s)).Required()
		gt.Array(t, s).Length(2)
		gt.Value(t, s[1]).Equal("nausea")
	})

	t.Run("within an event", func(t *testing.T) {
		var ev model.TimelineEvent
		gt.NoError(t, json.Unmarshal([]byte(`{"phase":"diagnosis","type":"test","desc":"MRI showed a mass"}`), &ev)).Required()
		gt.Array(t, ev.Description).Length(1)
	})
}

func TestTimelineEventKind(t *testing.T) {
	cases := []struct {
		name  string
		event model.TimelineEvent
		kind  model.EventKind
	}{
		{"medication", model.TimelineEvent{DrugName: "keppra"}, model.EventKindMedication},
		{"test", model.TimelineEvent{TestType: "MRI"}, model.EventKindTest},
		{"surgery", model.TimelineEvent{SurgeryType: "craniotomy"}, model.EventKindSurgery},
		{"surgery by site", model.TimelineEvent{SurgerySite: "frontal lobe"}, model.EventKindSurgery},
		{"symptom", model.TimelineEvent{Symptoms: []string{"headache"}}, model.EventKindSymptom},
		{"outcome", model.TimelineEvent{Outcome: "no regrowth"}, model.EventKindOutcome},
		{"generic", model.TimelineEvent{Type: "note"}, model.EventKindGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, tc.event.Kind()).Equal(tc.kind)
		})
	}
}

func TestSortedEvents(t *testing.T) {
	doc := &model.TimelineDocument{
		Events: []model.TimelineEvent{
			{Phase: types.PhaseSurgery, Type: "surgery", Date: "2021-03-10"},
			{Phase: types.PhasePreDiagnosis, Type: "symptom"},
			{Phase: types.PhaseDiagnosis, Type: "test", Date: "2020-11-02"},
			{Phase: types.PhaseFollowUp, Type: "checkup", Date: "not-a-date"},
		},
	}

	sorted := doc.SortedEvents()
	gt.Array(t, sorted).Length(4)

	// Undated and unparseable dates sort first, keeping their stored order
	gt.Value(t, sorted[0].Type).Equal("symptom")
	gt.Value(t, sorted[1].Type).Equal("checkup")
	gt.Value(t, sorted[2].Date).Equal("2020-11-02")
	gt.Value(t, sorted[3].Date).Equal("2021-03-10")

	// The original document is untouched
	gt.Value(t, doc.Events[0].Date).Equal("2021-03-10")
}
