package ctrl

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestVectorRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ecco_ctrl_MIT_CE_000.opt0002")

	want := &Vector{
		NVarType:   3,
		ExpID:      "MIT_CE_000",
		OptimCycle: 2,
		FC:         0.243687877318e5,
		Values:     []float64{0.5, -1.25, 3, 0, 7.5},
	}
	// Chunked write exercises multi-record reads.
	if err := WriteVector(path, want, 2); err != nil {
		t.Fatalf("WriteVector failed: %v", err)
	}

	got, err := ReadVector(path)
	if err != nil {
		t.Fatalf("ReadVector failed: %v", err)
	}
	if got.NVarType != want.NVarType {
		t.Errorf("NVarType = %d, want %d", got.NVarType, want.NVarType)
	}
	if got.NVarLength != int32(len(want.Values)) {
		t.Errorf("NVarLength = %d, want %d", got.NVarLength, len(want.Values))
	}
	if got.ExpID != want.ExpID {
		t.Errorf("ExpID = %q, want %q", got.ExpID, want.ExpID)
	}
	if got.OptimCycle != 2 {
		t.Errorf("OptimCycle = %d, want 2", got.OptimCycle)
	}
	if got.FC != want.FC {
		t.Errorf("FC = %g, want %g", got.FC, want.FC)
	}
	for i, v := range got.Values {
		if v != want.Values[i] {
			t.Errorf("Values[%d] = %g, want %g", i, v, want.Values[i])
		}
	}
}

func TestReadVectorCorruptMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctrl.bad")

	v := &Vector{ExpID: "test", Values: []float64{1, 2, 3}}
	if err := WriteVector(path, v, 0); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Flip the trailing marker of the header record.
	binary.BigEndian.PutUint32(raw[4+30:], 999)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadVector(path); err == nil {
		t.Error("expected record marker mismatch error")
	}
}

func TestReadVectorTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ctrl.trunc")

	v := &Vector{ExpID: "test", Values: []float64{1, 2, 3, 4}}
	if err := WriteVector(path, v, 0); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw[:len(raw)-6], 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadVector(path); err == nil {
		t.Error("expected error for truncated file")
	}
}

func TestReadVectorMissing(t *testing.T) {
	if _, err := ReadVector(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSummarise(t *testing.T) {
	s := Summarise([]float64{1, -1, 3, math.NaN()})
	if s.N != 3 {
		t.Errorf("N = %d, want 3", s.N)
	}
	if s.Min != -1 || s.Max != 3 {
		t.Errorf("min/max = %g/%g, want -1/3", s.Min, s.Max)
	}
	if s.Mean != 1 {
		t.Errorf("Mean = %g, want 1", s.Mean)
	}
	wantRMS := math.Sqrt((1.0 + 1.0 + 9.0) / 3.0)
	if math.Abs(s.RMS-wantRMS) > 1e-12 {
		t.Errorf("RMS = %g, want %g", s.RMS, wantRMS)
	}

	empty := Summarise([]float64{math.NaN()})
	if empty.N != 0 || !math.IsNaN(empty.Mean) {
		t.Errorf("empty stats = %+v, want NaN summary", empty)
	}

	one := Summarise([]float64{2})
	if one.Std != 0 {
		t.Errorf("single-value Std = %g, want 0", one.Std)
	}
}
