/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import "time"

// MinAge is the youngest age with defined reference ranges.
const MinAge = 18

// GroupForAge maps an age in whole years to its reference range bucket.
// Ages below MinAge are rejected, not clamped.
func GroupForAge(age int) (AgeGroup, error) {
	switch {
	case age < MinAge:
		return "", &InvalidAgeError{Age: age}
	case age <= 39:
		return AgeGroupYoungAdult, nil
	case age <= 59:
		return AgeGroupMiddleAge, nil
	default:
		return AgeGroupSenior, nil
	}
}

// AgeAt returns the age in whole years on the given date.
func AgeAt(dob, at time.Time) int {
	years := at.Year() - dob.Year()
	// Birthday hasn't occurred yet this year
	if at.Month() < dob.Month() ||
		(at.Month() == dob.Month() && at.Day() < dob.Day()) {
		years--
	}

	return years
}
