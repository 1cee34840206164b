// Package cost recomputes the assimilation misfit from raw model output
// and parses the cost-function logs the model writes each optimization
// cycle, so the hand-computed value can be checked against the model's own.
package cost

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Term is one line of a costfunction log: the summed contribution of a
// cost component and the number of observations behind it.
type Term struct {
	Value float64
	Num   float64
}

// TotalTerm is the name of the total cost line. Every costfunction file
// the model writes contains it.
const TotalTerm = "fc"

// ParseCostFunction parses a MITgcm costfunction text file. Lines have the
// shape
//
//	fc               =  0.243687877318E+05  0.000000000000E+00
//	f_temp           =  0.229124890112E+05  0.540000000000E+03
//
// with Fortran exponent letters (E or D). Malformed lines are skipped; a
// file yielding no terms at all is an error.
func ParseCostFunction(r io.Reader) (map[string]Term, error) {
	terms := make(map[string]Term)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		name, term, ok := parseCostLine(sc.Text())
		if !ok {
			continue
		}
		terms[name] = term
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan costfunction: %w", err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("no cost terms found")
	}
	return terms, nil
}

func parseCostLine(line string) (string, Term, bool) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", Term{}, false
	}
	name := strings.TrimSpace(line[:eq])
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", Term{}, false
	}

	fields := strings.Fields(line[eq+1:])
	if len(fields) == 0 {
		return "", Term{}, false
	}
	value, err := ParseFortranFloat(fields[0])
	if err != nil {
		return "", Term{}, false
	}
	t := Term{Value: value}
	if len(fields) > 1 {
		if num, err := ParseFortranFloat(fields[1]); err == nil {
			t.Num = num
		}
	}
	return name, t, true
}

// ParseFortranFloat parses a float that may use Fortran's D exponent
// marker ("0.24D+05") or omit the letter entirely ("1.2-105").
func ParseFortranFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "D", "E")
	s = strings.ReplaceAll(s, "d", "e")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad float %q", s)
	}
	return v, nil
}

// CheckResult is the outcome of comparing a hand-recomputed cost with the
// value the model logged.
type CheckResult struct {
	Recomputed float64
	Logged     float64
	RelErr     float64
	Passed     bool
}

// CrossCheck compares recomputed and logged costs under a relative
// tolerance. A zero logged cost is compared absolutely against the same
// tolerance, since the relative error is undefined there.
func CrossCheck(recomputed, logged, relTol float64) CheckResult {
	res := CheckResult{Recomputed: recomputed, Logged: logged}
	if logged == 0 {
		res.RelErr = abs(recomputed)
	} else {
		res.RelErr = abs(recomputed-logged) / abs(logged)
	}
	res.Passed = res.RelErr <= relTol
	return res
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
