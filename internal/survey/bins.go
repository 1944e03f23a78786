package survey

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Bin is one bucketed answer and the midpoint that stands in for it.
type Bin struct {
	Label string
	Mid   float64
}

// BinTable maps the labels of one bucketed question to midpoint estimates. Lookups match
// the normalized label exactly; there is no nearest-bucket fallback.
type BinTable struct {
	name  string
	bins  []Bin
	index map[string]int
}

// NewBinTable builds a table from bins in answer order. It panics on labels that collide
// after normalization, since tables are fixed configuration built at init.
func NewBinTable(name string, bins ...Bin) *BinTable {
	t := &BinTable{name: name, bins: make([]Bin, len(bins)), index: make(map[string]int, len(bins))}
	copy(t.bins, bins)
	for i, b := range bins {
		key := NormalizeBinLabel(b.Label)
		if _, dup := t.index[key]; dup {
			panic(fmt.Sprintf("bin table %s: duplicate label %q", name, b.Label))
		}
		t.index[key] = i
	}
	return t
}

// Name identifies the question the table belongs to.
func (t *BinTable) Name() string { return t.name }

// Bins returns the bins in answer order.
func (t *BinTable) Bins() []Bin {
	out := make([]Bin, len(t.bins))
	copy(out, t.bins)
	return out
}

// Lookup returns the canonical label for a raw answer, if it belongs to the table.
func (t *BinTable) Lookup(label string) (Bin, bool) {
	if t == nil {
		return Bin{}, false
	}
	i, ok := t.index[NormalizeBinLabel(label)]
	if !ok {
		return Bin{}, false
	}
	return t.bins[i], true
}

// MidFromBins returns the midpoint for label, or missing when the label is empty or not in
// the table. Hyphen, en-dash, em-dash and their mis-decoded renderings are equivalent.
func MidFromBins(label string, table *BinTable) Num {
	b, ok := table.Lookup(label)
	if !ok {
		return Missing()
	}
	return Some(b.Mid)
}

var dashReplacer = strings.NewReplacer(
	// UTF-8 dashes decoded as Windows-1252 or Latin-1
	"\u00e2\u20ac\u201c", "-",
	"\u00e2\u20ac\u201d", "-",
	"\u00e2\u0080\u0093", "-",
	"\u00e2\u0080\u0094", "-",
	"\u2010", "-",
	"\u2011", "-",
	"\u2012", "-",
	"\u2013", "-",
	"\u2014", "-",
	"\u2212", "-",
	// Windows-1252 0x96/0x97 decoded as Latin-1
	"\u0096", "-",
	"\u0097", "-",
	"\ufffd", "-",
)

var dashSpacing = regexp.MustCompile(`\s*-\s*`)

// NormalizeBinLabel canonicalizes a range label: mojibake repaired, every dash variant
// turned into "-" with single spaces around it, whitespace collapsed and trimmed.
func NormalizeBinLabel(s string) string {
	s = repairMojibake(s)
	s = dashReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if strings.Contains(s, "-") {
		s = dashSpacing.ReplaceAllString(s, " - ")
	}
	return strings.TrimSpace(s)
}

// repairMojibake undoes the two common Windows-1252 accidents: raw 1252 bytes in a UTF-8
// stream, and UTF-8 text that was decoded as 1252 ("\u00e2\u20ac\u201c" for an en-dash).
func repairMojibake(s string) string {
	if !utf8.ValidString(s) {
		if out, err := charmap.Windows1252.NewDecoder().String(s); err == nil {
			return out
		}
		return s
	}
	if !strings.Contains(s, "\u00e2\u20ac") {
		return s
	}
	b, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(b) {
		return s
	}
	return b
}

// Per-question bin tables. Closed ranges use the rounded midpoint of their bounds,
// "less than" buckets half the bound, open-ended top buckets 1.5x the lower bound.
var (
	TotalPartnersBins = NewBinTable("total_partners",
		Bin{"Less than 50", 25},
		Bin{"50 - 499", 275},
		Bin{"500 - 999", 750},
		Bin{"1,000 - 4,999", 3000},
		Bin{"5,000 or more", 7500},
	)
	ActivePartnersBins = NewBinTable("active_partners",
		Bin{"Less than 10", 5},
		Bin{"10 - 49", 30},
		Bin{"50 - 99", 75},
		Bin{"100 - 499", 300},
		Bin{"500 or more", 750},
	)
	EmployeeCountBins = NewBinTable("employees",
		Bin{"1 - 49", 25},
		Bin{"50 - 199", 125},
		Bin{"200 - 999", 600},
		Bin{"1,000 - 4,999", 3000},
		Bin{"5,000 or more", 7500},
	)
	TeamSizeBins = NewBinTable("team_size",
		Bin{"Just me", 1},
		Bin{"2 - 5", 3.5},
		Bin{"6 - 10", 8},
		Bin{"11 - 25", 18},
		Bin{"More than 25", 37.5},
	)
	TimeToRevenueBins = NewBinTable("time_to_revenue",
		Bin{"Less than 3 months", 1.5},
		Bin{"3 - 6 months", 4.5},
		Bin{"6 - 12 months", 9},
		Bin{"1 - 2 years", 18},
		Bin{"More than 2 years", 36},
	)
)
