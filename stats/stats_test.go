package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var salaries = []float64{1000000, 60000, 75000, 56000, 88000}

func TestQuantileLinearInterpolation(t *testing.T) {
	assert.Equal(t, 60000.0, Quantile(0.25, salaries))
	assert.Equal(t, 88000.0, Quantile(0.75, salaries))
	assert.Equal(t, 75000.0, Median(salaries))

	// h = 3 * 0.25 = 0.75 between 1 and 2
	assert.InDelta(t, 1.75, Quantile(0.25, []float64{4, 1, 3, 2}), 1e-12)
	assert.Equal(t, 2.5, Median([]float64{1, 2, 3, 4}))
	assert.Equal(t, 7.0, Quantile(1, []float64{7}))
}

func TestMeanAndSampleStdDev(t *testing.T) {
	assert.InDelta(t, 26.6667, Mean([]float64{24, 20, 36}), 1e-4)
	// sample std of 2,4,4,4,5,5,7,9 is sqrt(32/7)
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestEmptyInputs(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{1})))
	assert.True(t, math.IsNaN(Min(nil)))
	assert.True(t, math.IsNaN(Max(nil)))
	assert.True(t, math.IsNaN(Quantile(0.5, nil)))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4, 5})
	assert.Equal(t, Summary{Min: 1, Q1: 2, Median: 3, Q3: 4, Max: 5}, s)
}
