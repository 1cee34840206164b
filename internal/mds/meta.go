// Package mds reads and writes MITgcm MDS files: the .data/.meta pairs the
// model and its adjoint write for every diagnostic, pickup, control and
// sensitivity field.
//
// MDS FILE LAYOUT:
// ├── NAME.<10-digit-iteration>.meta — quasi-Fortran text describing the blob
// │   └── nDims, dimList (global size + 1-based first/last index per dim),
// │       dataprec ('float32' or 'float64'), nrecords, timeStepNumber and,
// │       for multi-field diagnostics, nFlds + fldList
// └── NAME.<10-digit-iteration>.data — raw big-endian IEEE values, x fastest
//     (Fortran ordering), nrecords consecutive arrays of prod(dims) values
//
// Grid files shipped with an experiment (Depth.data, XC.data, hFacC.data...)
// often have no .meta companion; ReadRaw covers those with caller-supplied
// shape and precision.
package mds

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Precision is the on-disk element encoding of a .data file.
type Precision int

const (
	Float32 Precision = iota
	Float64
)

// Size returns the element size in bytes.
func (p Precision) Size() int {
	if p == Float64 {
		return 8
	}
	return 4
}

func (p Precision) String() string {
	if p == Float64 {
		return "float64"
	}
	return "float32"
}

// ParsePrecision maps the dataprec token from a .meta file.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float32", "real*4":
		return Float32, nil
	case "float64", "real*8":
		return Float64, nil
	}
	return 0, fmt.Errorf("unknown dataprec %q", s)
}

// Dim is one entry of a dimList: the global extent of the dimension and the
// 1-based first/last index held by this tile. Single-tile output has
// First=1, Last=Global.
type Dim struct {
	Global int
	First  int
	Last   int
}

// N returns the number of points of this dimension present in the file.
func (d Dim) N() int { return d.Last - d.First + 1 }

// Meta is the parsed content of a .meta file. Dims are listed x first, so
// for a 3-D field Dims[0] is longitude, Dims[1] latitude, Dims[2] depth.
type Meta struct {
	NDims          int
	Dims           []Dim
	DataPrec       Precision
	NRecords       int
	TimeStepNumber int
	NFlds          int
	FldList        []string
}

// ElemsPerRecord returns the number of values in one record.
func (m *Meta) ElemsPerRecord() int {
	n := 1
	for _, d := range m.Dims {
		n *= d.N()
	}
	return n
}

// Shape returns the per-dimension extents, x first.
func (m *Meta) Shape() []int {
	s := make([]int, len(m.Dims))
	for i, d := range m.Dims {
		s[i] = d.N()
	}
	return s
}

// metaStmt matches one "name = [ ... ];" assignment. The bracket body may
// span lines (dimList usually does).
var metaStmt = regexp.MustCompile(`(?s)(\w+)\s*=\s*[\[{](.*?)[\]}]\s*;`)

// quoted matches one 'token' inside a fldList or dataprec body.
var quoted = regexp.MustCompile(`'([^']*)'`)

// ParseMeta parses the text of a .meta file. Unknown assignments are
// ignored so files written by newer MITgcm versions still load.
func ParseMeta(r io.Reader) (*Meta, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}

	m := &Meta{NRecords: 1}
	seen := map[string]bool{}

	for _, match := range metaStmt.FindAllStringSubmatch(string(raw), -1) {
		name, body := match[1], match[2]
		seen[name] = true

		switch name {
		case "nDims":
			if m.NDims, err = parseSingleInt(body); err != nil {
				return nil, fmt.Errorf("nDims: %w", err)
			}
		case "dimList":
			ints, err := parseIntList(body)
			if err != nil {
				return nil, fmt.Errorf("dimList: %w", err)
			}
			if len(ints) == 0 || len(ints)%3 != 0 {
				return nil, fmt.Errorf("dimList has %d entries, want a positive multiple of 3", len(ints))
			}
			for i := 0; i < len(ints); i += 3 {
				m.Dims = append(m.Dims, Dim{Global: ints[i], First: ints[i+1], Last: ints[i+2]})
			}
		case "dataprec", "format":
			q := quoted.FindStringSubmatch(body)
			if q == nil {
				return nil, fmt.Errorf("dataprec: no quoted value in %q", body)
			}
			if m.DataPrec, err = ParsePrecision(q[1]); err != nil {
				return nil, err
			}
		case "nrecords":
			if m.NRecords, err = parseSingleInt(body); err != nil {
				return nil, fmt.Errorf("nrecords: %w", err)
			}
		case "timeStepNumber":
			if m.TimeStepNumber, err = parseSingleInt(body); err != nil {
				return nil, fmt.Errorf("timeStepNumber: %w", err)
			}
		case "nFlds":
			if m.NFlds, err = parseSingleInt(body); err != nil {
				return nil, fmt.Errorf("nFlds: %w", err)
			}
		case "fldList":
			for _, q := range quoted.FindAllStringSubmatch(body, -1) {
				m.FldList = append(m.FldList, strings.TrimSpace(q[1]))
			}
		}
	}

	if !seen["nDims"] || !seen["dimList"] {
		return nil, fmt.Errorf("meta file missing nDims or dimList")
	}
	if m.NDims != len(m.Dims) {
		return nil, fmt.Errorf("nDims = %d but dimList has %d dimensions", m.NDims, len(m.Dims))
	}
	if !seen["dataprec"] && !seen["format"] {
		return nil, fmt.Errorf("meta file missing dataprec")
	}
	if m.NRecords < 1 {
		return nil, fmt.Errorf("nrecords = %d, want >= 1", m.NRecords)
	}
	for i, d := range m.Dims {
		if d.Global < 1 || d.First < 1 || d.Last < d.First || d.Last > d.Global {
			return nil, fmt.Errorf("dimension %d out of range: %+v", i, d)
		}
	}
	return m, nil
}

func parseSingleInt(body string) (int, error) {
	ints, err := parseIntList(body)
	if err != nil {
		return 0, err
	}
	if len(ints) != 1 {
		return 0, fmt.Errorf("want a single value, got %d", len(ints))
	}
	return ints[0], nil
}

func parseIntList(body string) ([]int, error) {
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\r' || r == '\t'
	})
	ints := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", f)
		}
		ints = append(ints, v)
	}
	return ints, nil
}
