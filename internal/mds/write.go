package mds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
)

// WriteField writes a .data/.meta pair. It exists for fixture generation
// (tests, synthetic observation files) and mirrors the layout MITgcm's
// mdsio package produces for single-tile runs. basePath is taken without
// extension; shape is x first; data holds nrecords*prod(shape) values.
func WriteField(basePath string, shape []int, prec Precision, nrecords, timeStep int, data []float64) error {
	if len(shape) == 0 {
		return fmt.Errorf("empty shape")
	}
	elems := 1
	for _, n := range shape {
		if n < 1 {
			return fmt.Errorf("bad extent %d", n)
		}
		elems *= n
	}
	if nrecords < 1 {
		return fmt.Errorf("nrecords = %d, want >= 1", nrecords)
	}
	if len(data) != elems*nrecords {
		return fmt.Errorf("have %d values, shape and nrecords imply %d", len(data), elems*nrecords)
	}

	base := strings.TrimSuffix(strings.TrimSuffix(basePath, ".data"), ".meta")
	if err := WriteRaw(base+".data", prec, data); err != nil {
		return err
	}

	var meta bytes.Buffer
	fmt.Fprintf(&meta, " nDims = [ %3d ];\n", len(shape))
	fmt.Fprintf(&meta, " dimList = [\n")
	for i, n := range shape {
		sep := ","
		if i == len(shape)-1 {
			sep = ""
		}
		fmt.Fprintf(&meta, " %5d, %5d, %5d%s\n", n, 1, n, sep)
	}
	fmt.Fprintf(&meta, " ];\n")
	fmt.Fprintf(&meta, " dataprec = [ '%s' ];\n", prec)
	fmt.Fprintf(&meta, " nrecords = [ %5d ];\n", nrecords)
	fmt.Fprintf(&meta, " timeStepNumber = [ %10d ];\n", timeStep)
	return os.WriteFile(base+".meta", meta.Bytes(), 0644)
}

// WriteRaw writes a bare big-endian .data blob.
func WriteRaw(path string, prec Precision, data []float64) error {
	buf := make([]byte, len(data)*prec.Size())
	switch prec {
	case Float32:
		for i, v := range data {
			binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
		}
	case Float64:
		for i, v := range data {
			binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
	default:
		return fmt.Errorf("unknown precision %d", prec)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return nil
}
