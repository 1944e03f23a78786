package survey

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Summary describes one standardization run. Unparsed counts, per raw question key, the
// non-empty cells that could not be mapped and were standardized to missing or Unknown.
type Summary struct {
	RunID         string         `json:"run_id"`
	CreatedAt     time.Time      `json:"created_at"`
	Rows          int            `json:"rows"`
	RepairedCells int            `json:"repaired_cells"`
	Unparsed      map[string]int `json:"unparsed"`
}

// UnparsedTotal sums Unparsed across questions.
func (s Summary) UnparsedTotal() int {
	total := 0
	for _, n := range s.Unparsed {
		total += n
	}
	return total
}

// Dataset is the standardized table plus the summary of the run that produced it.
type Dataset struct {
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// Standardize repairs, maps and derives every row of raw. It fails with a *SchemaError if
// any questionnaire column is absent; otherwise it is total over the cell contents and
// produces exactly one Row per raw record.
func Standardize(raw *RawTable) (*Dataset, error) {
	if raw == nil {
		return nil, errors.New("standardize: nil table")
	}
	table, repaired := RepairTable(raw)
	idx, err := resolveColumns(table.Header)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		Rows: make([]Row, 0, len(table.Rows)),
		Summary: Summary{
			RunID:         uuid.NewString(),
			CreatedAt:     time.Now().UTC(),
			Rows:          len(table.Rows),
			RepairedCells: repaired,
			Unparsed:      map[string]int{},
		},
	}
	unparsed := ds.Summary.Unparsed
	for i := range table.Rows {
		cell := func(q string) string { return strings.TrimSpace(table.Cell(i, idx[q])) }
		bins := func(q string, t *BinTable) Num {
			v := cell(q)
			n := MidFromBins(v, t)
			if !n.Valid && v != "" {
				unparsed[q]++
			}
			return n
		}
		pct := func(q string) Num {
			v := cell(q)
			n := ParsePercent(v)
			if !n.Valid && v != "" {
				unparsed[q]++
			}
			return n
		}

		company := cell(QCompany)
		regionText := cell(QRegion)
		region := ClassifyRegion(regionText)
		if region == regionText && region != "" && !IsRegionCode(region) {
			unparsed[QRegion]++
		}
		maturityText := cell(QMaturity)
		maturity := ClassifyMaturity(maturityText)
		if maturity == MaturityUnknown && maturityText != "" {
			unparsed[QMaturity]++
		}

		row := Row{
			Company:                   company,
			CompanyKey:                NormalizeCategory(company),
			Region:                    region,
			Industry:                  cell(QIndustry),
			RevenueBand:               cell(QRevenueBand),
			Employees:                 bins(QEmployees, EmployeeCountBins),
			TeamSize:                  bins(QTeamSize, TeamSizeBins),
			TotalPartners:             bins(QTotalPartners, TotalPartnersBins),
			ActivePartners:            bins(QActivePartners, ActivePartnersBins),
			TimeToRevenueMonths:       bins(QTimeToRevenue, TimeToRevenueBins),
			PartnerRevenuePct:         pct(QPartnerRevenue),
			ExpectedPartnerRevenuePct: pct(QExpectedRevenue),
			ProgramMaturity:           maturity,
			TopChallenge:              cell(QChallenge),
		}
		ds.Rows = append(ds.Rows, withDerived(row))
	}
	return ds, nil
}
