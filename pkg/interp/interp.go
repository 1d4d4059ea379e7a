// Package interp provides linear interpolation (and linear
// extrapolation past either end) over a sorted value/data table, used
// to look up recorded transient or AC samples at an arbitrary point.
package interp

import (
	"sort"

	"github.com/mnasim/spicesim/internal/errs"
)

// Interpolate searches for value in valueList (assumed sorted ascending)
// and linearly interpolates the corresponding entry in dataList. A
// value outside the table's range is linearly extrapolated using the
// nearest segment.
func Interpolate(value float64, valueList, dataList []float64) (float64, error) {
	if len(valueList) != len(dataList) {
		return 0, errs.New(errs.NetlistSyntaxError, "interpolate: value list length %d differs from data list length %d", len(valueList), len(dataList))
	}
	if len(valueList) < 2 {
		return 0, errs.New(errs.NetlistSyntaxError, "interpolate: need at least two points")
	}

	indexRight := sort.Search(len(valueList), func(i int) bool { return valueList[i] >= value })

	switch {
	case indexRight > 0 && indexRight < len(valueList):
		indexLeft := indexRight - 1
		percent := (value - valueList[indexLeft]) / (valueList[indexRight] - valueList[indexLeft])
		return dataList[indexLeft] + percent*(dataList[indexRight]-dataList[indexLeft]), nil

	case indexRight == 0:
		percent := (valueList[0] - value) / (valueList[1] - valueList[0])
		return dataList[0] - percent*(dataList[1]-dataList[0]), nil

	default: // indexRight == len(valueList)
		last := len(valueList) - 1
		percent := (value - valueList[last]) / (valueList[last] - valueList[last-1])
		return dataList[last] + percent*(dataList[last]-dataList[last-1]), nil
	}
}
