/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ranges

import (
	"regexp"
	"strconv"
	"strings"
)

const number = `[+-]?(?:\d+(?:\.\d*)?|\.\d+)`

// unitSuffix allows trailing text such as " mg/dL" or "%" after a rule's
// threshold. It must not continue the number ("1,000", "1e3", "1.2.3") or
// carry a second comparison.
const unitSuffix = `(?:\s+[^\s\d+\-.,<>≤≥=][^<>≤≥=]*|[^\s\d+\-.,eE<>≤≥=][^<>≤≥=]*)?`

var (
	ruleRe   = regexp.MustCompile(`^(<=|>=|<|>|≤|≥)\s*(` + number + `)` + unitSuffix + `$`)
	spanRe   = regexp.MustCompile(`^(` + number + `)\s*[-–]\s*(` + number + `)$`)
	pointRe  = regexp.MustCompile(`^` + number + `$`)
	emptyset = map[string]bool{"": true, "-": true, "–": true}
)

// ParseRule extracts the threshold from a comparison rule such as "< 0.6" or
// "≥75". Text without a leading operator, placeholders ("", "-"), and
// anything unparseable report false.
func ParseRule(text string) (float64, bool) {
	_, v, ok := parseRule(text)
	return v, ok
}

func parseRule(text string) (op string, v float64, ok bool) {
	text = strings.TrimSpace(text)
	if emptyset[text] {
		return "", 0, false
	}

	m := ruleRe.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}

	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return "", 0, false
	}

	return m[1], v, true
}

// ParseRange parses "75-100", "<60", ">100" or a bare "85". A hyphen only
// separates bounds when the text does not start with an operator. A bare
// number is an exact point: Min and Max are both set to it.
func ParseRange(text string) (Bound, bool) {
	text = strings.TrimSpace(text)
	if emptyset[text] {
		return Bound{}, false
	}

	if op, v, ok := parseRule(text); ok {
		switch op {
		case "<", "<=", "≤":
			return Bound{Max: &v}, true
		default:
			return Bound{Min: &v}, true
		}
	}

	if m := spanRe.FindStringSubmatch(text); m != nil {
		lo, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Bound{}, false
		}

		hi, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Bound{}, false
		}

		return Bound{Min: &lo, Max: &hi}, true
	}

	if pointRe.MatchString(text) {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Bound{}, false
		}

		w := v

		return Bound{Min: &v, Max: &w}, true
	}

	return Bound{}, false
}
