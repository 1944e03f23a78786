package survey

// Row is one standardized survey response. Rows are built once by Standardize and are
// read-only afterwards.
type Row struct {
	Company     string `json:"company" db:"company"`
	CompanyKey  string `json:"company_key" db:"company_key"`
	Region      string `json:"region" db:"region"`
	Industry    string `json:"industry" db:"industry"`
	RevenueBand string `json:"revenue_band" db:"revenue_band"`

	Employees                 Num `json:"employees_est" db:"employees_est"`
	TeamSize                  Num `json:"partner_team_size_est" db:"partner_team_size_est"`
	TotalPartners             Num `json:"total_partners_est" db:"total_partners_est"`
	ActivePartners            Num `json:"active_partners_est" db:"active_partners_est"`
	TimeToRevenueMonths       Num `json:"time_to_revenue_months_est" db:"time_to_revenue_months_est"`
	PartnerRevenuePct         Num `json:"partner_revenue_pct" db:"partner_revenue_pct"`
	ExpectedPartnerRevenuePct Num `json:"expected_partner_revenue_pct" db:"expected_partner_revenue_pct"`

	ActivePartnerRatio      Num `json:"active_partner_ratio" db:"active_partner_ratio"`
	RevenuePctPerTeamMember Num `json:"revenue_pct_per_team_member" db:"revenue_pct_per_team_member"`
	PartnersPerTeamMember   Num `json:"partners_per_team_member" db:"partners_per_team_member"`

	ProgramMaturity string `json:"program_maturity" db:"program_maturity"`
	TopChallenge    string `json:"top_challenge" db:"top_challenge"`
}

// Numeric returns the value of a numeric column. ok is false for non-numeric fields.
func (r Row) Numeric(f Field) (Num, bool) {
	switch f {
	case FieldEmployees:
		return r.Employees, true
	case FieldTeamSize:
		return r.TeamSize, true
	case FieldTotalPartners:
		return r.TotalPartners, true
	case FieldActivePartners:
		return r.ActivePartners, true
	case FieldTimeToRevenue:
		return r.TimeToRevenueMonths, true
	case FieldPartnerRevenuePct:
		return r.PartnerRevenuePct, true
	case FieldExpectedPartnerRevPct:
		return r.ExpectedPartnerRevenuePct, true
	case FieldActivePartnerRatio:
		return r.ActivePartnerRatio, true
	case FieldRevenuePctPerTeamMember:
		return r.RevenuePctPerTeamMember, true
	case FieldPartnersPerTeamMember:
		return r.PartnersPerTeamMember, true
	}
	return Missing(), false
}

// Text returns the value of a string column. ok is false for numeric fields.
func (r Row) Text(f Field) (string, bool) {
	switch f {
	case FieldCompany:
		return r.Company, true
	case FieldCompanyKey:
		return r.CompanyKey, true
	case FieldRegion:
		return r.Region, true
	case FieldIndustry:
		return r.Industry, true
	case FieldRevenueBand:
		return r.RevenueBand, true
	case FieldProgramMaturity:
		return r.ProgramMaturity, true
	case FieldTopChallenge:
		return r.TopChallenge, true
	}
	return "", false
}

// Record renders the row in Columns order; missing numbers are empty cells.
func (r Row) Record() []string {
	out := make([]string, len(Columns))
	for i, f := range Columns {
		if n, ok := r.Numeric(f); ok {
			out[i] = n.String()
			continue
		}
		out[i], _ = r.Text(f)
	}
	return out
}

// BinTableFor returns the bin table a bucketed numeric field was mapped with.
func BinTableFor(f Field) *BinTable {
	switch f {
	case FieldEmployees:
		return EmployeeCountBins
	case FieldTeamSize:
		return TeamSizeBins
	case FieldTotalPartners:
		return TotalPartnersBins
	case FieldActivePartners:
		return ActivePartnersBins
	case FieldTimeToRevenue:
		return TimeToRevenueBins
	}
	return nil
}
