// Command spicesim runs DC, transient, or AC analysis over a netlist
// file and prints the results.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/mnasim/spicesim/pkg/circuit"
	"github.com/mnasim/spicesim/pkg/linsys"
	"github.com/mnasim/spicesim/pkg/netlist"
)

func main() {
	netlistPath := flag.String("netlist", "", "path to the netlist file")
	analysisName := flag.String("analysis", "dc", "analysis to run: dc, transient, ac")
	backendName := flag.String("backend", "dense", "linear system backend: dense, sparse")
	vars := flag.String("vars", "", "comma-separated list of variables to report")
	maxIter := flag.Int("max-iter", 50, "Newton iteration cap")
	debug := flag.Bool("debug", false, "print the variable table after each linear solve")

	tStartRecord := flag.Float64("t-rec", 0, "transient: time to start recording samples")
	tEnd := flag.Float64("t-end", 1e-3, "transient: end time in seconds")
	dt := flag.Float64("dt", 0, "transient: time step in seconds (0 = auto)")

	fStart := flag.Float64("f-start", 1, "ac: sweep start frequency in Hz")
	fEnd := flag.Float64("f-end", 1e6, "ac: sweep end frequency in Hz")
	points := flag.Int("points", 50, "ac: number of sweep points")
	logScale := flag.Bool("log", true, "ac: use a logarithmic frequency grid")

	flag.Parse()

	if *netlistPath == "" {
		log.Fatal("usage: spicesim -netlist <file> [-analysis dc|transient|ac] ...")
	}

	content, err := os.ReadFile(*netlistPath)
	if err != nil {
		log.Fatalf("reading netlist file: %v", err)
	}

	ckt, err := netlist.BuildCircuitFromNetlist(string(content))
	if err != nil {
		log.Fatalf("building circuit: %v", err)
	}

	backend, err := linsys.ParseBacking(*backendName)
	if err != nil {
		log.Fatalf("parsing backend: %v", err)
	}

	varNames := splitNonEmpty(*vars)

	switch strings.ToLower(*analysisName) {
	case "dc":
		runDC(ckt, backend, varNames, *maxIter, *debug)
	case "transient", "tran":
		runTransient(ckt, backend, varNames, *tStartRecord, *tEnd, *dt, *maxIter, *debug)
	case "ac":
		runAC(ckt, backend, varNames, *fStart, *fEnd, *points, *logScale, *maxIter, *debug)
	default:
		log.Fatalf("unknown analysis %q", *analysisName)
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runDC(ckt *circuit.Circuit, backend linsys.Backing, varNames []string, maxIter int, debug bool) {
	if err := ckt.DCAnalysis(backend, maxIter, debug); err != nil {
		log.Fatalf("DC analysis failed: %v", err)
	}
	fmt.Println("DC operating point:")
	for _, name := range varNames {
		v, err := ckt.GetVariable(name)
		if err != nil {
			log.Fatalf("reading %q: %v", name, err)
		}
		fmt.Printf("  %s = %g\n", name, v)
	}
}

func runTransient(ckt *circuit.Circuit, backend linsys.Backing, varNames []string, tStartRecord, tEnd, dt float64, maxIter int, debug bool) {
	ts, series, err := ckt.TransientSimulation(tStartRecord, tEnd, varNames, dt, backend, maxIter, debug)
	if err != nil {
		log.Fatalf("transient simulation failed: %v", err)
	}
	fmt.Printf("Transient analysis: %d samples\n", len(ts))
	fmt.Println("time        " + strings.Join(sortedKeys(series), "  "))
	for i, t := range ts {
		fmt.Printf("%10.6g", t)
		for _, name := range sortedKeys(series) {
			fmt.Printf("  %-12.6g", series[name][i])
		}
		fmt.Println()
	}
}

func runAC(ckt *circuit.Circuit, backend linsys.Backing, varNames []string, fStart, fEnd float64, points int, logScale bool, maxIter int, debug bool) {
	freqs, series, err := ckt.ACSweep(varNames, fStart, fEnd, points, logScale, backend, maxIter, debug)
	if err != nil {
		log.Fatalf("AC sweep failed: %v", err)
	}
	fmt.Printf("AC sweep: %d frequency points\n", len(freqs))
	for i, f := range freqs {
		fmt.Printf("f=%-12g", f)
		for _, name := range sortedKeys(series) {
			v := series[name][i]
			fmt.Printf("  %s=%g%+gi", name, real(v), imag(v))
		}
		fmt.Println()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
