// Command mds-dump prints the metadata and per-record summary statistics
// of an MDS file pair, or of a packed optimizer control vector with -ctrl.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/margaretmurakami/ecco-2024/internal/ctrl"
	"github.com/margaretmurakami/ecco-2024/internal/mds"
)

func main() {
	var ctrlVector bool

	flag.BoolVar(&ctrlVector, "ctrl", false, "treat the file as a packed m1qn3 control vector instead of an MDS pair")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: mds-dump [-ctrl] <file>")
	}
	path := flag.Arg(0)

	if ctrlVector {
		dumpVector(path)
		return
	}

	f, err := mds.ReadField(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	fmt.Printf("file:       %s\n", path)
	fmt.Printf("dims:       %s\n", dimString(f))
	fmt.Printf("precision:  %s\n", f.Meta.DataPrec)
	fmt.Printf("records:    %d\n", f.Meta.NRecords)
	fmt.Printf("time step:  %d\n", f.Meta.TimeStepNumber)
	if len(f.Meta.FldList) > 0 {
		fmt.Printf("fields:     %v\n", f.Meta.FldList)
	}

	for rec := 0; rec < f.Meta.NRecords; rec++ {
		s := ctrl.Summarise(f.Rec(rec))
		fmt.Printf("record %d: n=%d min=%.6e max=%.6e mean=%.6e std=%.6e rms=%.6e\n",
			rec, s.N, s.Min, s.Max, s.Mean, s.Std, s.RMS)
	}
}

func dumpVector(path string) {
	v, err := ctrl.ReadVector(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	fmt.Printf("file:        %s\n", path)
	fmt.Printf("experiment:  %s\n", v.ExpID)
	fmt.Printf("cycle:       %d\n", v.OptimCycle)
	fmt.Printf("fc:          %.12e\n", v.FC)
	fmt.Printf("nvartype:    %d\n", v.NVarType)
	fmt.Printf("nvarlength:  %d\n", v.NVarLength)

	s := ctrl.Summarise(v.Values)
	fmt.Printf("values: n=%d min=%.6e max=%.6e mean=%.6e std=%.6e rms=%.6e\n",
		s.N, s.Min, s.Max, s.Mean, s.Std, s.RMS)
}

func dimString(f *mds.Field) string {
	out := ""
	for i, d := range f.Meta.Dims {
		if i > 0 {
			out += " x "
		}
		out += fmt.Sprintf("%d", d.N())
	}
	return out
}
