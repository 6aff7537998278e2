// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package ranges

func ptr(f float64) *float64 {
	return &f
}

func str(s string) *string {
	return &s
}

func creatinine() ReferenceRange {
	return ReferenceRange{
		Biomarker:          "Creatinine",
		Unit:               "mg/dL",
		Sex:                SexMale,
		AgeGroup:           AgeGroupMiddleAge,
		OptimalLow:         ptr(0.75),
		OptimalHigh:        ptr(1.0),
		OutOfRangeLowRule:  str("< 0.75"),
		OutOfRangeHighRule: str("> 1.0"),
	}
}

func fastingGlucose() ReferenceRange {
	return ReferenceRange{
		Biomarker:          "Fasting Glucose",
		Unit:               "mg/dL",
		Sex:                SexFemale,
		AgeGroup:           AgeGroupYoungAdult,
		OptimalLow:         ptr(70),
		OptimalHigh:        ptr(85),
		InRangeLow:         ptr(65),
		InRangeHigh:        ptr(99),
		OutOfRangeLowRule:  str("<65"),
		OutOfRangeHighRule: str(">99"),
	}
}
