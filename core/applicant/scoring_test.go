package applicant

import (
	"reflect"
	"testing"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name      string
		in        ScoreInput
		wantTotal int
	}{
		{
			name:      "zero value input scores baseline ethnicity and residency",
			in:        ScoreInput{},
			wantTotal: marksEthnicity + marksResidencyOther, // 15
		},
		{
			name: "full bonus example",
			in: ScoreInput{
				DisabilityStatus:      true,
				DisabilityClass:       "B",
				StreetVendor:          true,
				Ethnicity:             "Newar",
				PermanentMunicipality: "Kathmandu",
				RegisteredPrev:        true,
				AlreadyTakenTraining:  false,
			},
			wantTotal: 98,
		},
		{
			name:      "disability class ignored when flag unset",
			in:        ScoreInput{DisabilityClass: "A", Ethnicity: "brahmin"},
			wantTotal: marksResidencyOther,
		},
		{
			name:      "disability class A",
			in:        ScoreInput{DisabilityStatus: true, DisabilityClass: "A", Ethnicity: "chhetri"},
			wantTotal: marksDisabilityA + marksResidencyOther,
		},
		{
			name:      "disability flag set without class scores zero for disability",
			in:        ScoreInput{DisabilityStatus: true, Ethnicity: "other"},
			wantTotal: marksResidencyOther,
		},
		{
			name:      "ethnicity match is case-insensitive",
			in:        ScoreInput{Ethnicity: "Brahmin"},
			wantTotal: marksResidencyOther,
		},
		{
			name:      "kathmandu municipality beats special location",
			in:        ScoreInput{PermanentMunicipality: "KATHMANDU", SpecialLocation: true, Ethnicity: "other"},
			wantTotal: marksResidencyKathmandu,
		},
		{
			name:      "special location beats district",
			in:        ScoreInput{SpecialLocation: true, PermanentDistrict: "kathmandu district", Ethnicity: "other"},
			wantTotal: marksResidencyLandfill,
		},
		{
			name:      "kathmandu district beats tax payer",
			in:        ScoreInput{PermanentDistrict: "Kathmandu District", TaxPayerStatus: true, Ethnicity: "other"},
			wantTotal: marksResidencyDistrict,
		},
		{
			name:      "tax payer beats bagmati",
			in:        ScoreInput{TaxPayerStatus: true, PermanentProvince: "bagmati province", Ethnicity: "other"},
			wantTotal: marksResidencyTaxPayer,
		},
		{
			name:      "bagmati province",
			in:        ScoreInput{PermanentProvince: "Bagmati Province", Ethnicity: "other"},
			wantTotal: marksResidencyBagmati,
		},
		{
			name:      "no prior bonus when training already taken",
			in:        ScoreInput{RegisteredPrev: true, AlreadyTakenTraining: true, Ethnicity: "other"},
			wantTotal: marksResidencyOther,
		},
		{
			name:      "prior bonus",
			in:        ScoreInput{RegisteredPrev: true, Ethnicity: "other"},
			wantTotal: marksResidencyOther + marksPriorYear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.in)
			if got.TotalMarks != tt.wantTotal {
				t.Errorf("ComputeScore().TotalMarks = %d, want %d (breakdown: %+v)", got.TotalMarks, tt.wantTotal, got.Breakdown)
			}

			// breakdown marks must sum to the total
			var sum int
			for _, entry := range got.Breakdown {
				sum += entry.Marks
			}
			if sum != got.TotalMarks {
				t.Errorf("breakdown sums to %d, total is %d", sum, got.TotalMarks)
			}
		})
	}
}

func TestComputeScore_breakdown(t *testing.T) {
	got := ComputeScore(ScoreInput{
		DisabilityStatus:      true,
		DisabilityClass:       "B",
		StreetVendor:          true,
		Ethnicity:             "Newar",
		PermanentMunicipality: "Kathmandu",
		RegisteredPrev:        true,
	})

	want := Breakdown{
		CriterionDisability: {Value: "B Class", Marks: 8},
		CriterionVendor:     {Value: true, Marks: 10},
		CriterionEthnicity:  {Value: "Newar", Marks: 10},
		CriterionResidency:  {Value: "kathmandu", Marks: 30},
		CriterionPriorYear: {
			Value: map[string]bool{"registeredPrev": true, "alreadyTakenTraining": false},
			Marks: 40,
		},
	}
	if !reflect.DeepEqual(got.Breakdown, want) {
		t.Errorf("ComputeScore().Breakdown = %+v, want %+v", got.Breakdown, want)
	}
}

func TestComputeScore_deterministic(t *testing.T) {
	in := ScoreInput{DisabilityStatus: true, DisabilityClass: "C", TaxPayerStatus: true, Ethnicity: "tamang"}
	first := ComputeScore(in)
	for i := 0; i < 5; i++ {
		if got := ComputeScore(in); got.TotalMarks != first.TotalMarks {
			t.Fatalf("ComputeScore() not deterministic: %d != %d", got.TotalMarks, first.TotalMarks)
		}
	}
}
