package mds

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
)

// Field is one MDS variable held in memory: the parsed metadata plus all
// records decoded to float64 regardless of on-disk precision. Values keep
// the file's Fortran ordering (x fastest).
type Field struct {
	Meta *Meta
	Data []float64
}

// ReadField loads a .data/.meta pair. basePath may be given with or without
// the .data extension ("run/adxx_theta.0000000012" and
// "run/adxx_theta.0000000012.data" are equivalent).
func ReadField(basePath string) (*Field, error) {
	base := strings.TrimSuffix(strings.TrimSuffix(basePath, ".data"), ".meta")

	mf, err := os.Open(base + ".meta")
	if err != nil {
		return nil, fmt.Errorf("open meta: %w", err)
	}
	defer mf.Close()

	meta, err := ParseMeta(mf)
	if err != nil {
		return nil, fmt.Errorf("%s.meta: %w", base, err)
	}
	return readData(base+".data", meta)
}

// ReadRaw loads a bare .data blob with caller-supplied shape and precision.
// Used for grid files that ship without .meta companions.
func ReadRaw(path string, shape []int, prec Precision) (*Field, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty shape for %s", path)
	}
	meta := &Meta{NDims: len(shape), DataPrec: prec, NRecords: 1}
	for _, n := range shape {
		if n < 1 {
			return nil, fmt.Errorf("bad extent %d in shape for %s", n, path)
		}
		meta.Dims = append(meta.Dims, Dim{Global: n, First: 1, Last: n})
	}
	return readData(path, meta)
}

func readData(path string, meta *Meta) (*Field, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open data: %w", err)
	}

	elems := meta.ElemsPerRecord() * meta.NRecords
	want := elems * meta.DataPrec.Size()
	if len(raw) != want {
		return nil, fmt.Errorf("%s: %d bytes on disk, meta implies %d (%d %s values)",
			path, len(raw), want, elems, meta.DataPrec)
	}

	data := make([]float64, elems)
	switch meta.DataPrec {
	case Float32:
		for i := range data {
			data[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case Float64:
		for i := range data {
			data[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
		}
	}
	return &Field{Meta: meta, Data: data}, nil
}

// Nx returns the x extent (first dimension).
func (f *Field) Nx() int { return f.Meta.Dims[0].N() }

// Ny returns the y extent, or 1 for 1-D fields.
func (f *Field) Ny() int {
	if len(f.Meta.Dims) < 2 {
		return 1
	}
	return f.Meta.Dims[1].N()
}

// Nz returns the z extent, or 1 for 2-D fields.
func (f *Field) Nz() int {
	if len(f.Meta.Dims) < 3 {
		return 1
	}
	return f.Meta.Dims[2].N()
}

// Rec returns the values of record i as a view into the field's data.
func (f *Field) Rec(i int) []float64 {
	n := f.Meta.ElemsPerRecord()
	return f.Data[i*n : (i+1)*n]
}

// At indexes record rec at depth level k, row j, column i.
func (f *Field) At(rec, k, j, i int) float64 {
	return f.Rec(rec)[(k*f.Ny()+j)*f.Nx()+i]
}

// Level returns the (ny*nx) slab of depth level k from record rec.
func (f *Field) Level(rec, k int) []float64 {
	n := f.Ny() * f.Nx()
	return f.Rec(rec)[k*n : (k+1)*n]
}
