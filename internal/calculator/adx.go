package calculator

import (
	"errors"
	"math"

	"github.com/guregu/null/v5"

	"StockScreener/internal/model"
)

// DirectionalSeries holds +DI, -DI and ADX aligned with the input bars.
type DirectionalSeries struct {
	PlusDI  []null.Float
	MinusDI []null.Float
	ADX     []null.Float
}

// DirectionalMovement computes Wilder's directional indicators.
// +DI/-DI are first valid at index period, ADX at index 2*period-1.
func DirectionalMovement(bars []model.OHLCV, period int) (DirectionalSeries, error) {
	if period <= 0 {
		return DirectionalSeries{}, errors.New("period must be positive")
	}
	n := len(bars)
	ds := DirectionalSeries{
		PlusDI:  make([]null.Float, n),
		MinusDI: make([]null.Float, n),
		ADX:     make([]null.Float, n),
	}
	if n <= period {
		return ds, nil
	}

	p := float64(period)
	var smPlus, smMinus, smTR float64
	for i := 1; i < period; i++ {
		plus, minus := directionalMove(bars[i-1], bars[i])
		smPlus += plus
		smMinus += minus
		smTR += trueRange(bars[i-1], bars[i])
	}

	var sumDX, adx float64
	for i := period; i < n; i++ {
		plus, minus := directionalMove(bars[i-1], bars[i])
		smPlus = smPlus - smPlus/p + plus
		smMinus = smMinus - smMinus/p + minus
		smTR = smTR - smTR/p + trueRange(bars[i-1], bars[i])

		plusDI, minusDI := 0.0, 0.0
		if smTR > 0 {
			plusDI = 100 * smPlus / smTR
			minusDI = 100 * smMinus / smTR
		}
		ds.PlusDI[i] = null.FloatFrom(plusDI)
		ds.MinusDI[i] = null.FloatFrom(minusDI)

		// A bar with no directional movement leaves ADX unchanged.
		sum := plusDI + minusDI
		dx := 0.0
		if sum > 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / sum
		}

		switch {
		case i < 2*period-1:
			sumDX += dx
		case i == 2*period-1:
			sumDX += dx
			adx = sumDX / p
			ds.ADX[i] = null.FloatFrom(adx)
		default:
			if sum > 0 {
				adx = (adx*(p-1) + dx) / p
			}
			ds.ADX[i] = null.FloatFrom(adx)
		}
	}
	return ds, nil
}

// directionalMove returns (+DM, -DM) between two consecutive bars.
func directionalMove(prev, cur model.OHLCV) (plus, minus float64) {
	up := cur.High - prev.High
	down := prev.Low - cur.Low
	if up > 0 && up > down {
		plus = up
	}
	if down > 0 && down > up {
		minus = down
	}
	return plus, minus
}

func trueRange(prev, cur model.OHLCV) float64 {
	return math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
}
