package applicant

import "strings"

// Criterion marks
const (
	marksDisabilityA  = 10
	marksDisabilityB  = 8
	marksDisabilityC  = 5
	marksDisabilityD  = 3
	marksStreetVendor = 10
	marksEthnicity    = 10
	marksPriorYear    = 40

	marksResidencyKathmandu = 30
	marksResidencyLandfill  = 25
	marksResidencyDistrict  = 15
	marksResidencyTaxPayer  = 15
	marksResidencyBagmati   = 10
	marksResidencyOther     = 5
)

// Breakdown criterion keys
const (
	CriterionDisability  = "disabilityStatus"
	CriterionVendor      = "streetVendor"
	CriterionEthnicity   = "ethnicity"
	CriterionResidency   = "residency"
	CriterionPriorYear   = "lastYearApplicant"
)

// unprioritized ethnic groups score no bonus
var zeroBonusEthnicities = []string{"brahmin", "chhetri", "other"}

type (
	// ScoreInput is the set of self-declared attributes the eligibility
	// rubric reads. Stringly booleans are coerced before this point.
	ScoreInput struct {
		DisabilityStatus      bool
		DisabilityClass       string // A-D
		StreetVendor          bool
		Ethnicity             string
		PermanentProvince     string
		PermanentDistrict     string
		PermanentMunicipality string
		SpecialLocation       bool
		TaxPayerStatus        bool
		RegisteredPrev        bool
		AlreadyTakenTraining  bool
	}

	// BreakdownEntry records a criterion's matched value and awarded marks.
	BreakdownEntry struct {
		Value interface{} `json:"value"`
		Marks int         `json:"marks"`
	}

	// Breakdown itemizes which criteria contributed how many marks.
	Breakdown map[string]BreakdownEntry

	Score struct {
		TotalMarks int
		Breakdown  Breakdown
	}
)

// ComputeScore maps an applicant's declared attributes to an eligibility
// score with an itemized breakdown. It is deterministic, side-effect-free and
// never fails: unset attributes contribute nothing.
func ComputeScore(in ScoreInput) Score {
	var total int
	breakdown := make(Breakdown)

	// disability: only scored when the flag is set
	if in.DisabilityStatus {
		var marks int
		switch in.DisabilityClass {
		case "A":
			marks = marksDisabilityA
		case "B":
			marks = marksDisabilityB
		case "C":
			marks = marksDisabilityC
		case "D":
			marks = marksDisabilityD
		}
		total += marks
		breakdown[CriterionDisability] = BreakdownEntry{
			Value: in.DisabilityClass + " Class",
			Marks: marks,
		}
	}

	// street vendor
	var vendorMarks int
	if in.StreetVendor {
		vendorMarks = marksStreetVendor
	}
	total += vendorMarks
	breakdown[CriterionVendor] = BreakdownEntry{Value: in.StreetVendor, Marks: vendorMarks}

	// caste/ethnicity
	ethnicityMarks := marksEthnicity
	eth := strings.ToLower(in.Ethnicity)
	for _, e := range zeroBonusEthnicities {
		if eth == e {
			ethnicityMarks = 0
			break
		}
	}
	total += ethnicityMarks
	breakdown[CriterionEthnicity] = BreakdownEntry{Value: in.Ethnicity, Marks: ethnicityMarks}

	// residency: first match wins, fixed priority order
	var residency BreakdownEntry
	switch {
	case strings.ToLower(in.PermanentMunicipality) == "kathmandu":
		residency = BreakdownEntry{Value: "kathmandu", Marks: marksResidencyKathmandu}
	case in.SpecialLocation:
		residency = BreakdownEntry{Value: "landfill site", Marks: marksResidencyLandfill}
	case strings.ToLower(in.PermanentDistrict) == "kathmandu district":
		residency = BreakdownEntry{Value: "p.d. kathmandu", Marks: marksResidencyDistrict}
	case in.TaxPayerStatus:
		residency = BreakdownEntry{Value: "Tax Payer", Marks: marksResidencyTaxPayer}
	case strings.ToLower(in.PermanentProvince) == "bagmati province":
		residency = BreakdownEntry{Value: "bagmati", Marks: marksResidencyBagmati}
	default:
		residency = BreakdownEntry{Value: "other", Marks: marksResidencyOther}
	}
	total += residency.Marks
	breakdown[CriterionResidency] = residency

	// prior-year applicant who has not yet taken a training
	var priorMarks int
	if in.RegisteredPrev && !in.AlreadyTakenTraining {
		priorMarks = marksPriorYear
	}
	total += priorMarks
	breakdown[CriterionPriorYear] = BreakdownEntry{
		Value: map[string]bool{
			"registeredPrev":       in.RegisteredPrev,
			"alreadyTakenTraining": in.AlreadyTakenTraining,
		},
		Marks: priorMarks,
	}

	return Score{TotalMarks: total, Breakdown: breakdown}
}
