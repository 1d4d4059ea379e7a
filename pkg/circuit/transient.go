package circuit

import (
	"github.com/mnasim/spicesim/internal/errs"
	"github.com/mnasim/spicesim/pkg/component"
	"github.com/mnasim/spicesim/pkg/linsys"
)

// TransientSimulation starts a time-domain run from t=0, sampling the
// named variables from t_start_record onward up to, but not including,
// t_end; the sample at t_end is taken by the next
// ContinueTransientSimulation call. dt of 0
// means "unset": the step defaults to (t_end-t_start_record)/1024.
func (ckt *Circuit) TransientSimulation(tStartRecord, tEnd float64, varNames []string, dt float64, backend linsys.Backing, maxIter int, debug bool) ([]float64, map[string][]float64, error) {
	ckt.t = 0
	ckt.startRecordTime = tStartRecord
	ckt.timestamps = nil
	ckt.series = nil
	ckt.recordNames = nil
	ckt.recordIdx = nil

	if dt == 0 {
		dt = (tEnd - tStartRecord) / 1024
	}

	ckt.recordNames = make([]string, len(varNames))
	ckt.recordIdx = make([]int, len(varNames))
	ckt.series = make([][]float64, len(varNames))
	for i, name := range varNames {
		idx, ok := ckt.vars.Lookup(name)
		if !ok {
			return nil, nil, errs.New(errs.UnknownVariable, "unknown variable %q", name)
		}
		ckt.recordNames[i] = name
		ckt.recordIdx[i] = idx
	}

	ls, err := linsys.New(ckt.vars.Size(), false, backend)
	if err != nil {
		return nil, nil, err
	}
	ckt.ls = ls
	ckt.desc = component.Description{Mode: component.Transient, TimeStep: dt}

	for _, c := range ckt.components {
		if err := c.InitLinearSystem(ckt.ls, ckt.vars, &ckt.desc); err != nil {
			return nil, nil, err
		}
	}

	if err := ckt.ContinueTransientSimulation(tEnd, dt, maxIter, debug); err != nil {
		return nil, nil, err
	}

	return ckt.timestamps, ckt.seriesMap(), nil
}

// ContinueTransientSimulation advances the simulation by runTime more
// seconds at step dt, preserving whatever state the previous run left
// in place. dt of 0 means "unset": the step defaults to
// (end_time-max(t, start_record_time))/1024, which at t=0 is the same
// as TransientSimulation's own default. Restamps any component flagged via
// GetComponentForModification before taking its first step.
func (ckt *Circuit) ContinueTransientSimulation(runTime, dt float64, maxIter int, debug bool) error {
	endTime := ckt.t + runTime

	if dt == 0 {
		recordFrom := ckt.t
		if ckt.startRecordTime > recordFrom {
			recordFrom = ckt.startRecordTime
		}
		dt = (endTime - recordFrom) / 1024
	}
	ckt.desc.TimeStep = dt

	if len(ckt.modified) > 0 {
		for c := range ckt.modified {
			if err := c.UpdateLinearSystem(ckt.ls, ckt.vars, &ckt.desc); err != nil {
				return err
			}
		}
		ckt.modified = make(map[*component.Component]bool)
	}

	for ckt.t < endTime {
		if err := ckt.solveNonlinear(ckt.desc, maxIter, debug); err != nil {
			return err
		}

		if ckt.t >= ckt.startRecordTime {
			ckt.timestamps = append(ckt.timestamps, ckt.t)
			for i, idx := range ckt.recordIdx {
				ckt.series[i] = append(ckt.series[i], ckt.ls.Real(idx))
			}
		}

		for _, c := range ckt.lc {
			c.UpdateState(ckt.ls, ckt.vars)
			if err := c.UpdateLinearSystem(ckt.ls, ckt.vars, &ckt.desc); err != nil {
				return err
			}
		}

		step := ckt.desc.TimeStep
		switch {
		case ckt.t+2*step < endTime:
			ckt.t += step
		case ckt.t+step >= endTime:
			ckt.desc.TimeStep = endTime - ckt.t
			ckt.t = endTime
		default:
			half := (endTime - ckt.t) / 2
			ckt.desc.TimeStep = half
			ckt.t += half
		}
	}

	return nil
}

// ClearTransientSimulationData discards recorded samples without
// touching component state, so a host can resume recording mid-run.
func (ckt *Circuit) ClearTransientSimulationData() {
	ckt.timestamps = nil
	for i := range ckt.series {
		ckt.series[i] = nil
	}
}

// GetTransientSimulationTime returns the simulation clock's current
// value.
func (ckt *Circuit) GetTransientSimulationTime() float64 {
	return ckt.t
}

func (ckt *Circuit) seriesMap() map[string][]float64 {
	out := make(map[string][]float64, len(ckt.recordNames))
	for i, name := range ckt.recordNames {
		out[name] = ckt.series[i]
	}
	return out
}
