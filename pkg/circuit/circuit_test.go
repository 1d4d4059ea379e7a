package circuit

import (
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/mnasim/spicesim/pkg/component"
	"github.com/mnasim/spicesim/pkg/linsys"
)

func almostEqual(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestResistorDividerDC(t *testing.T) {
	r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
	r2 := component.NewResistor(component.Node("v_out"), component.Node("gnd"), 1000)
	ckt, err := New([]*component.Component{r1, r2}, map[string]float64{"vcc": 2.5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ckt.DCAnalysis(linsys.Dense, 50, false); err != nil {
		t.Fatalf("DCAnalysis: %v", err)
	}
	vOut, err := ckt.GetVariable("v_out")
	if err != nil {
		t.Fatalf("GetVariable: %v", err)
	}
	if !almostEqual(vOut, 1.25, 0.0125) {
		t.Errorf("v_out = %v, want ~1.25", vOut)
	}
}

func TestResistorDividerSparseMatchesDense(t *testing.T) {
	build := func(backend linsys.Backing) float64 {
		r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
		r2 := component.NewResistor(component.Node("v_out"), component.Node("gnd"), 1000)
		ckt, err := New([]*component.Component{r1, r2}, map[string]float64{"vcc": 2.5})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := ckt.DCAnalysis(backend, 50, false); err != nil {
			t.Fatalf("DCAnalysis: %v", err)
		}
		v, _ := ckt.GetVariable("v_out")
		return v
	}
	dense := build(linsys.Dense)
	sparse := build(linsys.Sparse)
	if !almostEqual(dense, sparse, 0.01*dense) {
		t.Errorf("dense=%v sparse=%v disagree beyond 1%%", dense, sparse)
	}
}

func TestResistiveLadderSatisfiesKCL(t *testing.T) {
	r1 := component.NewResistor(component.Node("vcc"), component.Node("a"), 1000)
	r2 := component.NewResistor(component.Node("a"), component.Node("b"), 2000)
	r3 := component.NewResistor(component.Node("b"), component.Node("gnd"), 1500)
	ckt, err := New([]*component.Component{r1, r2, r3}, map[string]float64{"vcc": 9})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ckt.DCAnalysis(linsys.Dense, 50, false); err != nil {
		t.Fatalf("DCAnalysis: %v", err)
	}

	va, _ := ckt.GetVariable("a")
	vb, _ := ckt.GetVariable("b")
	iInto := (9 - va) / 1000
	iThrough := (va - vb) / 2000
	iOut := (vb - 0) / 1500
	if !almostEqual(iInto, iThrough, 1e-9) {
		t.Errorf("KCL violated at node a: in=%v out=%v", iInto, iThrough)
	}
	if !almostEqual(iThrough, iOut, 1e-9) {
		t.Errorf("KCL violated at node b: in=%v out=%v", iThrough, iOut)
	}
}

func TestNonlinearDiodeDC(t *testing.T) {
	r := component.NewResistor(component.Node("vcc"), component.Node("v1"), 0.1)
	d := component.NewDiode(component.Node("v1"), component.Node("gnd"), 1e-5, 3, 0.5)
	d.Name = "d"
	ckt, err := New([]*component.Component{r, d}, map[string]float64{"vcc": 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ckt.DCAnalysis(linsys.Dense, 100, false); err != nil {
		t.Fatalf("DCAnalysis: %v", err)
	}
	v1, _ := ckt.GetVariable("v1")
	if !almostEqual(v1, 4.702, 0.05) {
		t.Errorf("v1 = %v, want ~4.702", v1)
	}
	iD, _ := ckt.GetVariable("d.current")
	if !almostEqual(iD, 2.982, 0.05) {
		t.Errorf("d.current = %v, want ~2.982", iD)
	}
}

func TestRCTransientApproachesDivider(t *testing.T) {
	r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
	r2 := component.NewResistor(component.Node("v_out"), component.Node("gnd"), 1000)
	c := component.NewCapacitor(component.Node("v_out"), component.Node("gnd"), 30e-6, 0, 0)
	ckt, err := New([]*component.Component{r1, r2, c}, map[string]float64{"vcc": 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ts, series, err := ckt.TransientSimulation(0, 0.2, []string{"v_out"}, 0, linsys.Dense, 50, false)
	if err != nil {
		t.Fatalf("TransientSimulation: %v", err)
	}
	vOut := series["v_out"]
	if len(vOut) == 0 {
		t.Fatalf("no samples recorded")
	}

	for i := 1; i < len(vOut); i++ {
		if vOut[i] < vOut[i-1]-1e-9 {
			t.Errorf("v_out not monotonically increasing at sample %d: %v -> %v", i, vOut[i-1], vOut[i])
		}
	}

	final := vOut[len(vOut)-1]
	if !almostEqual(final, 0.5, 0.005) {
		t.Errorf("steady-state v_out = %v, want ~0.5 at t=%v", final, ts[len(ts)-1])
	}
}

func TestRCAcSweepMagnitudeAndPhase(t *testing.T) {
	build := func() *Circuit {
		r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
		r2 := component.NewResistor(component.Node("v_out"), component.Node("gnd"), 1000)
		c := component.NewCapacitor(component.Node("v_out"), component.Node("gnd"), 1e-6, 0, 0)
		ckt, err := New([]*component.Component{r1, r2, c}, map[string]float64{"vcc": 1})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return ckt
	}

	cases := []struct {
		freq     float64
		wantMagD float64
		wantPhD  float64
	}{
		{10, -6.02, -1.8},
		{318, -9.03, -44.97},
		{10000, -35.97, -88.18},
	}
	for _, c := range cases {
		ckt := build()
		_, out, err := ckt.ACSweep([]string{"v_out"}, c.freq, c.freq, 1, false, linsys.Dense, 50, false)
		if err != nil {
			t.Fatalf("ACSweep at %vHz: %v", c.freq, err)
		}
		v := out["v_out"][0]
		mag := 20 * math.Log10(cmplx.Abs(v))
		phase := cmplx.Phase(v) * 180 / math.Pi
		if !almostEqual(mag, c.wantMagD, 0.1) {
			t.Errorf("at %vHz mag = %v dB, want %v", c.freq, mag, c.wantMagD)
		}
		if !almostEqual(phase, c.wantPhD, 0.5) {
			t.Errorf("at %vHz phase = %v deg, want %v", c.freq, phase, c.wantPhD)
		}
	}
}

func TestLCResonatorMagnitude(t *testing.T) {
	build := func() *Circuit {
		l := component.NewInductor(component.Node("vcc"), component.Node("v_out"), 1e-3, 0, 0)
		c := component.NewCapacitor(component.Node("v_out"), component.Node("gnd"), 100e-6, 0, 0)
		ckt, err := New([]*component.Component{l, c}, map[string]float64{"vcc": 1})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return ckt
	}

	ckt := build()
	_, out, err := ckt.ACSweep([]string{"v_out"}, 323, 323, 1, false, linsys.Dense, 50, false)
	if err != nil {
		t.Fatalf("ACSweep: %v", err)
	}
	mag := 20 * math.Log10(cmplx.Abs(out["v_out"][0]))
	if !almostEqual(mag, 4.61, 0.2) {
		t.Errorf("at 323Hz mag = %v dB, want ~4.61", mag)
	}

	ckt = build()
	_, out, err = ckt.ACSweep([]string{"v_out"}, 14350, 14350, 1, false, linsys.Dense, 50, false)
	if err != nil {
		t.Fatalf("ACSweep: %v", err)
	}
	v := out["v_out"][0]
	mag = 20 * math.Log10(cmplx.Abs(v))
	phase := cmplx.Phase(v) * 180 / math.Pi
	if !almostEqual(mag, -58.19, 1) {
		t.Errorf("at 14.35kHz mag = %v dB, want ~-58.19", mag)
	}
	if !almostEqual(math.Abs(phase), 180, 1) {
		t.Errorf("at 14.35kHz phase = %v deg, want ~180", phase)
	}
}

func TestVariableTableIsInversePermutation(t *testing.T) {
	r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
	d := component.NewDiode(component.Node("v_out"), component.Node("gnd"), 1e-5, 3, 0.5)
	d.Name = "d1"
	ckt, err := New([]*component.Component{r1, d}, map[string]float64{"vcc": 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 1; i <= ckt.vars.Size(); i++ {
		name := ckt.vars.NameAt(i)
		idx, ok := ckt.vars.Lookup(name)
		if !ok || idx != i {
			t.Errorf("index %d -> name %q -> index %d, not an inverse permutation", i, name, idx)
		}
	}
}

func TestModifyResistanceBetweenCycles(t *testing.T) {
	r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
	r1.Name = "r1"
	r2 := component.NewResistor(component.Node("v_out"), component.Node("gnd"), 1000)
	ckt, err := New([]*component.Component{r1, r2}, map[string]float64{"vcc": 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := ckt.TransientSimulation(0, 0.01, []string{"v_out"}, 0.001, linsys.Dense, 50, false); err != nil {
		t.Fatalf("TransientSimulation: %v", err)
	}

	h := ckt.GetComponentForModification("r1")
	if h == nil {
		t.Fatalf("r1 not found")
	}
	h.SetResistance(3000)

	if err := ckt.ContinueTransientSimulation(0.01, 0.001, 50, false); err != nil {
		t.Fatalf("ContinueTransientSimulation: %v", err)
	}
	vOut, _ := ckt.GetVariable("v_out")
	if !almostEqual(vOut, 0.5, 0.05) {
		t.Errorf("v_out after resistance change = %v, want ~0.5", vOut)
	}
}

func TestContinueTransientSimulationAutoStep(t *testing.T) {
	r1 := component.NewResistor(component.Node("vcc"), component.Node("v_out"), 1000)
	r2 := component.NewResistor(component.Node("v_out"), component.Node("gnd"), 1000)
	c := component.NewCapacitor(component.Node("v_out"), component.Node("gnd"), 30e-6, 0, 0)
	ckt, err := New([]*component.Component{r1, r2, c}, map[string]float64{"vcc": 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, _, err := ckt.TransientSimulation(0, 0.05, []string{"v_out"}, 0.001, linsys.Dense, 50, false); err != nil {
		t.Fatalf("TransientSimulation: %v", err)
	}
	if got, want := ckt.GetTransientSimulationTime(), 0.05; !almostEqual(got, want, 1e-9) {
		t.Fatalf("time after first run = %v, want %v", got, want)
	}

	done := make(chan error, 1)
	go func() { done <- ckt.ContinueTransientSimulation(0.05, 0, 50, false) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ContinueTransientSimulation: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ContinueTransientSimulation(dt=0) did not terminate: auto time step was not computed")
	}

	if got, want := ckt.GetTransientSimulationTime(), 0.1; !almostEqual(got, want, 1e-9) {
		t.Errorf("time after continuation = %v, want %v", got, want)
	}
}
