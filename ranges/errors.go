/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAge       = errors.New("invalid age")
	ErrInvalidSex       = errors.New("invalid sex")
	ErrInvalidAgeGroup  = errors.New("invalid age group")
	ErrMissingBiomarker = errors.New("biomarker name is required")
	ErrIncompletePair   = errors.New("range bounds must be both present or both absent")
	ErrInvertedPair     = errors.New("range low bound exceeds high bound")
	ErrNoBandGroups     = errors.New("reference range has no band groups")
)

// InvalidAgeError is returned when an age falls below the youngest bucket.
type InvalidAgeError struct {
	Age int
}

func (e *InvalidAgeError) Error() string {
	return fmt.Sprintf("invalid age %d: reference ranges start at %d", e.Age, MinAge)
}

// Is lets errors.Is match ErrInvalidAge.
func (e *InvalidAgeError) Is(target error) bool {
	return target == ErrInvalidAge
}
