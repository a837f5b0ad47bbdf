package services

import (
	"math"
	"sort"
	"time"

	"github.com/irfndi/leadlag-ai-go/internal/models"
)

// BuildReturnMatrix aligns close series on the union of their timestamps and converts them to
// simple returns. Timestamps where every asset is missing are dropped, gaps are forward
// filled, and any step where some asset still has no return is removed so that every column
// shares one index. Symbols without a single finite close get no column.
func BuildReturnMatrix(prices map[string][]models.PricePoint) *models.ReturnMatrix {
	symbols := make([]string, 0, len(prices))
	for symbol, points := range prices {
		for _, p := range points {
			if isFinite(p.Close) {
				symbols = append(symbols, symbol)
				break
			}
		}
	}
	sort.Strings(symbols)

	index := unionIndex(prices, symbols)
	if len(symbols) == 0 || len(index) < 2 {
		return models.NewReturnMatrix(nil)
	}

	position := make(map[int64]int, len(index))
	for i, ts := range index {
		position[ts.UnixNano()] = i
	}

	closes := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		col := make([]float64, len(index))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, p := range prices[symbol] {
			if isFinite(p.Close) {
				col[position[p.Timestamp.UnixNano()]] = p.Close
			}
		}
		closes[symbol] = col
	}

	keep := make([]int, 0, len(index))
	for i := range index {
		for _, symbol := range symbols {
			if !math.IsNaN(closes[symbol][i]) {
				keep = append(keep, i)
				break
			}
		}
	}

	returns := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		col := make([]float64, len(keep))
		last := math.NaN()
		for j, i := range keep {
			if v := closes[symbol][i]; !math.IsNaN(v) {
				last = v
			}
			col[j] = last
		}
		returns[symbol] = simpleReturns(col)
	}

	rows := make([]int, 0, len(keep))
	for r := 0; r+1 < len(keep); r++ {
		complete := true
		for _, symbol := range symbols {
			if !isFinite(returns[symbol][r]) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, r)
		}
	}

	matrixIndex := make([]time.Time, len(rows))
	for j, r := range rows {
		matrixIndex[j] = index[keep[r+1]]
	}
	matrix := models.NewReturnMatrix(matrixIndex)
	if len(rows) == 0 {
		return matrix
	}
	for _, symbol := range symbols {
		col := make([]float64, len(rows))
		for j, r := range rows {
			col[j] = returns[symbol][r]
		}
		matrix.Columns[symbol] = col
	}
	return matrix
}

func unionIndex(prices map[string][]models.PricePoint, symbols []string) []time.Time {
	seen := make(map[int64]time.Time)
	for _, symbol := range symbols {
		for _, p := range prices[symbol] {
			seen[p.Timestamp.UnixNano()] = p.Timestamp
		}
	}
	index := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	return index
}
