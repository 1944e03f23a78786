package survey

import (
	"errors"
	"fmt"
	"strings"
)

// Field names a column of the standardized table.
type Field string

const (
	FieldCompany                 Field = "company"
	FieldCompanyKey              Field = "company_key"
	FieldRegion                  Field = "region"
	FieldIndustry                Field = "industry"
	FieldRevenueBand             Field = "revenue_band"
	FieldEmployees               Field = "employees_est"
	FieldTeamSize                Field = "partner_team_size_est"
	FieldTotalPartners           Field = "total_partners_est"
	FieldActivePartners          Field = "active_partners_est"
	FieldTimeToRevenue           Field = "time_to_revenue_months_est"
	FieldPartnerRevenuePct       Field = "partner_revenue_pct"
	FieldExpectedPartnerRevPct   Field = "expected_partner_revenue_pct"
	FieldActivePartnerRatio      Field = "active_partner_ratio"
	FieldRevenuePctPerTeamMember Field = "revenue_pct_per_team_member"
	FieldPartnersPerTeamMember   Field = "partners_per_team_member"
	FieldProgramMaturity         Field = "program_maturity"
	FieldTopChallenge            Field = "top_challenge"
)

// Columns is the standardized table layout, in export order.
var Columns = []Field{
	FieldCompany,
	FieldCompanyKey,
	FieldRegion,
	FieldIndustry,
	FieldRevenueBand,
	FieldEmployees,
	FieldTeamSize,
	FieldTotalPartners,
	FieldActivePartners,
	FieldTimeToRevenue,
	FieldPartnerRevenuePct,
	FieldExpectedPartnerRevPct,
	FieldActivePartnerRatio,
	FieldRevenuePctPerTeamMember,
	FieldPartnersPerTeamMember,
	FieldProgramMaturity,
	FieldTopChallenge,
}

// NumericFields are the Num-typed columns.
var NumericFields = []Field{
	FieldEmployees,
	FieldTeamSize,
	FieldTotalPartners,
	FieldActivePartners,
	FieldTimeToRevenue,
	FieldPartnerRevenuePct,
	FieldExpectedPartnerRevPct,
	FieldActivePartnerRatio,
	FieldRevenuePctPerTeamMember,
	FieldPartnersPerTeamMember,
}

// DimensionFields are the categorical columns usable as filters and group keys.
var DimensionFields = []Field{
	FieldRegion,
	FieldIndustry,
	FieldRevenueBand,
	FieldProgramMaturity,
}

// IsNumeric reports whether f is a Num-typed column.
func IsNumeric(f Field) bool {
	for _, n := range NumericFields {
		if n == f {
			return true
		}
	}
	return false
}

// ParseField resolves a column name, case-insensitively.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Columns {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Question is the raw survey column a standardized field is read from.
type Question struct {
	Key  string
	Text string
}

// Raw question keys.
const (
	QCompany         = "company"
	QRegion          = "region"
	QIndustry        = "industry"
	QRevenueBand     = "revenue_band"
	QEmployees       = "employees"
	QTeamSize        = "team_size"
	QTotalPartners   = "total_partners"
	QActivePartners  = "active_partners"
	QTimeToRevenue   = "time_to_revenue"
	QPartnerRevenue  = "partner_revenue"
	QExpectedRevenue = "expected_revenue"
	QMaturity        = "maturity"
	QChallenge       = "challenge"
)

// Questionnaire lists the raw columns the standardizer requires, matched exactly against
// the trimmed header.
var Questionnaire = []Question{
	{QCompany, "Company Name"},
	{QRegion, "Where is your company headquartered?"},
	{QIndustry, "What industry is your company in?"},
	{QRevenueBand, "What is your company's annual revenue?"},
	{QEmployees, "How many employees does your company have?"},
	{QTeamSize, "How many people are on your partnerships team?"},
	{QTotalPartners, "How many partners do you have in total?"},
	{QActivePartners, "How many of your partners are actively generating revenue?"},
	{QTimeToRevenue, "How long does it take a new partner to generate their first revenue?"},
	{QPartnerRevenue, "What percentage of your revenue comes from partners today?"},
	{QExpectedRevenue, "What percentage of your revenue do you expect to come from partners in 2 years?"},
	{QMaturity, "How long has your partnership program existed?"},
	{QChallenge, "What is your biggest partnership challenge?"},
}

// ErrSchema is wrapped by every SchemaError.
var ErrSchema = errors.New("survey schema mismatch")

// SchemaError reports required questionnaire columns absent from the input header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing %d required column(s): %s", ErrSchema, len(e.Missing), strings.Join(e.Missing, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// resolveColumns locates every questionnaire column in header.
func resolveColumns(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for j, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := pos[h]; !seen {
			pos[h] = j
		}
	}
	idx := make(map[string]int, len(Questionnaire))
	var missing []string
	for _, q := range Questionnaire {
		j, ok := pos[q.Text]
		if !ok {
			missing = append(missing, q.Text)
			continue
		}
		idx[q.Key] = j
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}
