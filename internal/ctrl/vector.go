// Package ctrl reads the control-variable files exchanged between the
// model and the external line-search optimizer: the packed control vector
// (Fortran unformatted sequential, big-endian) and the per-variable
// xx_* perturbation fields written back onto the model grid.
package ctrl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Vector is a packed control vector as written by the optimizer side.
//
// PACKED VECTOR LAYOUT (Fortran unformatted sequential, all big-endian;
// every record is framed by a 4-byte length before and after):
// ├── header record (30 bytes)
// │   ├── nvartype    int32   — number of control variable types
// │   ├── nvarlength  int32   — total packed values across all records
// │   ├── expID       char*10 — experiment identifier
// │   ├── optimCycle  int32   — optimization cycle this vector belongs to
// │   └── fc          real*8  — objective value at this cycle
// └── data records — float32 control values, concatenated across records
//     until nvarlength values have been read
type Vector struct {
	NVarType   int32
	NVarLength int32
	ExpID      string
	OptimCycle int32
	FC         float64
	Values     []float64
}

const headerBytes = 4 + 4 + 10 + 4 + 8

// ReadVector reads a packed control vector file.
func ReadVector(path string) (*Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open control vector: %w", err)
	}
	defer f.Close()
	v, err := readVector(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

func readVector(r io.Reader) (*Vector, error) {
	header, err := readRecord(r)
	if err != nil {
		return nil, fmt.Errorf("header record: %w", err)
	}
	if len(header) != headerBytes {
		return nil, fmt.Errorf("header record is %d bytes, want %d", len(header), headerBytes)
	}

	v := &Vector{
		NVarType:   int32(binary.BigEndian.Uint32(header[0:])),
		NVarLength: int32(binary.BigEndian.Uint32(header[4:])),
		ExpID:      strings.TrimSpace(string(header[8:18])),
		OptimCycle: int32(binary.BigEndian.Uint32(header[18:])),
		FC:         math.Float64frombits(binary.BigEndian.Uint64(header[22:])),
	}
	if v.NVarLength < 0 {
		return nil, fmt.Errorf("negative nvarlength %d", v.NVarLength)
	}

	v.Values = make([]float64, 0, v.NVarLength)
	for int32(len(v.Values)) < v.NVarLength {
		rec, err := readRecord(r)
		if err != nil {
			return nil, fmt.Errorf("data record after %d of %d values: %w", len(v.Values), v.NVarLength, err)
		}
		if len(rec)%4 != 0 {
			return nil, fmt.Errorf("data record of %d bytes is not a float32 multiple", len(rec))
		}
		for off := 0; off < len(rec); off += 4 {
			v.Values = append(v.Values, float64(math.Float32frombits(binary.BigEndian.Uint32(rec[off:]))))
		}
	}
	if int32(len(v.Values)) != v.NVarLength {
		return nil, fmt.Errorf("read %d values, header promised %d", len(v.Values), v.NVarLength)
	}
	return v, nil
}

// readRecord reads one Fortran sequential record and validates that the
// trailing length marker matches the leading one.
func readRecord(r io.Reader) ([]byte, error) {
	var head uint32
	if err := binary.Read(r, binary.BigEndian, &head); err != nil {
		return nil, fmt.Errorf("leading record marker: %w", err)
	}
	const maxRecord = 1 << 30
	if head > maxRecord {
		return nil, fmt.Errorf("record marker %d exceeds sanity limit", head)
	}
	payload := make([]byte, head)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("record payload: %w", err)
	}
	var tail uint32
	if err := binary.Read(r, binary.BigEndian, &tail); err != nil {
		return nil, fmt.Errorf("trailing record marker: %w", err)
	}
	if head != tail {
		return nil, fmt.Errorf("record markers disagree: %d leading, %d trailing", head, tail)
	}
	return payload, nil
}

// WriteVector writes v in the packed on-disk format. Used by tooling to
// build fixtures and by tests; chunk bounds the values per data record.
func WriteVector(path string, v *Vector, chunk int) error {
	if chunk < 1 {
		chunk = len(v.Values)
		if chunk < 1 {
			chunk = 1
		}
	}
	var buf bytes.Buffer

	header := make([]byte, headerBytes)
	binary.BigEndian.PutUint32(header[0:], uint32(v.NVarType))
	binary.BigEndian.PutUint32(header[4:], uint32(len(v.Values)))
	id := v.ExpID
	if len(id) > 10 {
		id = id[:10]
	}
	copy(header[8:18], []byte(fmt.Sprintf("%-10s", id)))
	binary.BigEndian.PutUint32(header[18:], uint32(v.OptimCycle))
	binary.BigEndian.PutUint64(header[22:], math.Float64bits(v.FC))
	writeRecord(&buf, header)

	for off := 0; off < len(v.Values); off += chunk {
		end := off + chunk
		if end > len(v.Values) {
			end = len(v.Values)
		}
		rec := make([]byte, (end-off)*4)
		for i, val := range v.Values[off:end] {
			binary.BigEndian.PutUint32(rec[i*4:], math.Float32bits(float32(val)))
		}
		writeRecord(&buf, rec)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func writeRecord(buf *bytes.Buffer, payload []byte) {
	var marker [4]byte
	binary.BigEndian.PutUint32(marker[:], uint32(len(payload)))
	buf.Write(marker[:])
	buf.Write(payload)
	buf.Write(marker[:])
}
