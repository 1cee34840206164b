package mds

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "sst.0000000010")

	nx, ny := 6, 4
	data := make([]float64, nx*ny)
	for i := range data {
		data[i] = float64(i) * 0.25
	}

	if err := WriteField(base, []int{nx, ny}, Float32, 1, 10, data); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}

	f, err := ReadField(base)
	if err != nil {
		t.Fatalf("ReadField failed: %v", err)
	}
	if f.Nx() != nx || f.Ny() != ny || f.Nz() != 1 {
		t.Errorf("shape = %dx%dx%d, want %dx%dx1", f.Nx(), f.Ny(), f.Nz(), nx, ny)
	}
	if f.Meta.TimeStepNumber != 10 {
		t.Errorf("TimeStepNumber = %d, want 10", f.Meta.TimeStepNumber)
	}
	for i, v := range f.Data {
		if v != data[i] {
			t.Fatalf("Data[%d] = %g, want %g", i, v, data[i])
		}
	}
	// Index helpers agree with flat layout: x fastest.
	if got := f.At(0, 0, 1, 2); got != data[1*nx+2] {
		t.Errorf("At(0,0,1,2) = %g, want %g", got, data[1*nx+2])
	}
}

func TestReadFieldAcceptsDataSuffix(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "theta.0000000000")
	if err := WriteField(base, []int{3, 2}, Float64, 1, 0, []float64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}
	f, err := ReadField(base + ".data")
	if err != nil {
		t.Fatalf("ReadField with .data suffix failed: %v", err)
	}
	if f.Data[5] != 6 {
		t.Errorf("Data[5] = %g, want 6", f.Data[5])
	}
}

func TestReadFieldFloat64Records(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "multi.0000000005")

	nx, ny, nrec := 4, 3, 2
	data := make([]float64, nx*ny*nrec)
	for i := range data {
		data[i] = math.Sqrt(float64(i))
	}
	if err := WriteField(base, []int{nx, ny}, Float64, nrec, 5, data); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}

	f, err := ReadField(base)
	if err != nil {
		t.Fatalf("ReadField failed: %v", err)
	}
	rec1 := f.Rec(1)
	if len(rec1) != nx*ny {
		t.Fatalf("Rec(1) has %d values, want %d", len(rec1), nx*ny)
	}
	// float64 must round-trip exactly
	if rec1[0] != data[nx*ny] {
		t.Errorf("Rec(1)[0] = %g, want %g", rec1[0], data[nx*ny])
	}
}

func TestReadFieldSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "short.0000000000")
	if err := WriteField(base, []int{4, 4}, Float32, 1, 0, make([]float64, 16)); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}
	// Truncate the data file behind the meta's back.
	if err := os.WriteFile(base+".data", make([]byte, 17), 0644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, err := ReadField(base); err == nil {
		t.Error("expected size mismatch error, got nil")
	}
}

func TestReadRaw(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Depth.data")

	vals := []float64{0, 100.5, 0, 5000}
	if err := WriteRaw(path, Float32, vals); err != nil {
		t.Fatalf("WriteRaw failed: %v", err)
	}
	f, err := ReadRaw(path, []int{2, 2}, Float32)
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	for i, want := range vals {
		if f.Data[i] != want {
			t.Errorf("Data[%d] = %g, want %g", i, f.Data[i], want)
		}
	}
}

func TestReadRawBigEndian(t *testing.T) {
	// Hand-build a 2-value big-endian float32 blob to pin byte order.
	dir := t.TempDir()
	path := filepath.Join(dir, "be.data")

	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:], math.Float32bits(1.5))
	binary.BigEndian.PutUint32(buf[4:], math.Float32bits(-8.25))
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := ReadRaw(path, []int{2}, Float32)
	if err != nil {
		t.Fatalf("ReadRaw failed: %v", err)
	}
	if f.Data[0] != 1.5 || f.Data[1] != -8.25 {
		t.Errorf("Data = %v, want [1.5 -8.25]", f.Data)
	}
}

func TestNaNPassthrough(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "gaps.0000000000")
	if err := WriteField(base, []int{2}, Float64, 1, 0, []float64{math.NaN(), 1}); err != nil {
		t.Fatal(err)
	}
	f, err := ReadField(base)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(f.Data[0]) {
		t.Errorf("Data[0] = %g, want NaN", f.Data[0])
	}
}
