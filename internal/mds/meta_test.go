package mds

import (
	"strings"
	"testing"
)

const sampleMeta2D = `
 nDims = [   2 ];
 dimList = [
    90,    1,   90,
    40,    1,   40
 ];
 dataprec = [ 'float32' ];
 nrecords = [     1 ];
 timeStepNumber = [ 10 ];
`

const sampleMeta3D = `
 nDims = [   3 ];
 dimList = [
    90,    1,   90,
    40,    1,   40,
    15,    1,   15
 ];
 dataprec = [ 'float64' ];
 nrecords = [     2 ];
 timeStepNumber = [ 0 ];
 nFlds = [    2 ];
 fldList = {
 'THETA   ' 'SALT    '
 };
`

func TestParseMeta2D(t *testing.T) {
	m, err := ParseMeta(strings.NewReader(sampleMeta2D))
	if err != nil {
		t.Fatalf("ParseMeta failed: %v", err)
	}
	if m.NDims != 2 {
		t.Errorf("NDims = %d, want 2", m.NDims)
	}
	if len(m.Dims) != 2 || m.Dims[0].N() != 90 || m.Dims[1].N() != 40 {
		t.Errorf("Dims = %+v, want 90x40", m.Dims)
	}
	if m.DataPrec != Float32 {
		t.Errorf("DataPrec = %v, want float32", m.DataPrec)
	}
	if m.NRecords != 1 {
		t.Errorf("NRecords = %d, want 1", m.NRecords)
	}
	if m.TimeStepNumber != 10 {
		t.Errorf("TimeStepNumber = %d, want 10", m.TimeStepNumber)
	}
	if m.ElemsPerRecord() != 90*40 {
		t.Errorf("ElemsPerRecord = %d, want %d", m.ElemsPerRecord(), 90*40)
	}
}

func TestParseMeta3DWithFldList(t *testing.T) {
	m, err := ParseMeta(strings.NewReader(sampleMeta3D))
	if err != nil {
		t.Fatalf("ParseMeta failed: %v", err)
	}
	if m.NDims != 3 || m.ElemsPerRecord() != 90*40*15 {
		t.Errorf("unexpected shape: NDims=%d elems=%d", m.NDims, m.ElemsPerRecord())
	}
	if m.DataPrec != Float64 {
		t.Errorf("DataPrec = %v, want float64", m.DataPrec)
	}
	if m.NRecords != 2 {
		t.Errorf("NRecords = %d, want 2", m.NRecords)
	}
	if len(m.FldList) != 2 || m.FldList[0] != "THETA" || m.FldList[1] != "SALT" {
		t.Errorf("FldList = %q, want [THETA SALT]", m.FldList)
	}
}

func TestParseMetaTileIndices(t *testing.T) {
	// A tiled file holds a sub-range of the global domain.
	const tiled = `
 nDims = [ 2 ];
 dimList = [ 90, 46, 90, 40, 1, 40 ];
 dataprec = [ 'float32' ];
 nrecords = [ 1 ];
`
	m, err := ParseMeta(strings.NewReader(tiled))
	if err != nil {
		t.Fatalf("ParseMeta failed: %v", err)
	}
	if m.Dims[0].N() != 45 {
		t.Errorf("tile x extent = %d, want 45", m.Dims[0].N())
	}
	if m.ElemsPerRecord() != 45*40 {
		t.Errorf("ElemsPerRecord = %d, want %d", m.ElemsPerRecord(), 45*40)
	}
}

func TestParseMetaErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"missing dimList", " nDims = [ 2 ];\n dataprec = [ 'float32' ];\n"},
		{"ndims mismatch", " nDims = [ 3 ];\n dimList = [ 90, 1, 90 ];\n dataprec = [ 'float32' ];\n nrecords = [ 1 ];\n"},
		{"bad prec", " nDims = [ 1 ];\n dimList = [ 90, 1, 90 ];\n dataprec = [ 'int16' ];\n nrecords = [ 1 ];\n"},
		{"zero records", " nDims = [ 1 ];\n dimList = [ 90, 1, 90 ];\n dataprec = [ 'float32' ];\n nrecords = [ 0 ];\n"},
		{"dim out of range", " nDims = [ 1 ];\n dimList = [ 90, 50, 40 ];\n dataprec = [ 'float32' ];\n nrecords = [ 1 ];\n"},
		{"ragged dimList", " nDims = [ 1 ];\n dimList = [ 90, 1 ];\n dataprec = [ 'float32' ];\n nrecords = [ 1 ];\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseMeta(strings.NewReader(tc.text)); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestParsePrecision(t *testing.T) {
	if p, err := ParsePrecision("real*8"); err != nil || p != Float64 {
		t.Errorf("real*8 => %v, %v", p, err)
	}
	if p, err := ParsePrecision(" Float32 "); err != nil || p != Float32 {
		t.Errorf("Float32 => %v, %v", p, err)
	}
	if _, err := ParsePrecision("complex64"); err == nil {
		t.Error("expected error for complex64")
	}
}
