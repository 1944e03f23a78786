package survey

// Ratio divides num by den. The result is missing when either operand is missing or the
// denominator is zero; it is never infinite.
func Ratio(num, den Num) Num {
	if !num.Valid || !den.Valid || den.V == 0 {
		return Missing()
	}
	return Some(num.V / den.V)
}

// withDerived returns r with its ratio fields computed from the numeric estimates.
func withDerived(r Row) Row {
	r.ActivePartnerRatio = Ratio(r.ActivePartners, r.TotalPartners)
	r.RevenuePctPerTeamMember = Ratio(r.ExpectedPartnerRevenuePct, r.TeamSize)
	r.PartnersPerTeamMember = Ratio(r.TotalPartners, r.TeamSize)
	return r
}
