package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/sopdash/internal/survey"
)

// minPairs is the smallest number of pairwise-complete rows a coefficient is reported for.
const minPairs = 3

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric fields.
// Each cell uses the rows where both fields are present; N holds that count.
type CorrMatrix struct {
	Columns []survey.Field `json:"columns"`
	Values  [][]survey.Num `json:"values"` // row-major, Values[i][j]
	N       [][]int        `json:"n"`
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A survey.Field `json:"a"`
	B survey.Field `json:"b"`
	R float64      `json:"r"`
	N int          `json:"n"`
}

// Correlations computes the matrix for fields over rows. Cells with fewer than three
// complete pairs or zero variance are missing.
func Correlations(rows []survey.Row, fields []survey.Field) *CorrMatrix {
	n := len(fields)
	m := &CorrMatrix{
		Columns: append([]survey.Field(nil), fields...),
		Values:  make([][]survey.Num, n),
		N:       make([][]int, n),
	}
	for i := range fields {
		m.Values[i] = make([]survey.Num, n)
		m.N[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r, cnt := pearson(rows, fields[i], fields[j])
			m.Values[i][j], m.Values[j][i] = r, r
			m.N[i][j], m.N[j][i] = cnt, cnt
		}
	}
	return m
}

func pearson(rows []survey.Row, a, b survey.Field) (survey.Num, int) {
	var xs, ys []float64
	for _, r := range rows {
		x, _ := r.Numeric(a)
		y, _ := r.Numeric(b)
		if x.Valid && y.Valid {
			xs = append(xs, x.V)
			ys = append(ys, y.V)
		}
	}
	if len(xs) < minPairs {
		return survey.Missing(), len(xs)
	}
	// Some drops the NaN produced by a zero-variance column.
	return survey.Some(stat.Correlation(xs, ys, nil)), len(xs)
}

// TopPairs lists off-diagonal pairs by descending |r|, skipping missing cells.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			v := m.Values[i][j]
			if !v.Valid {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: v.V, N: m.N[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
