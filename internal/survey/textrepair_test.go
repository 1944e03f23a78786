package survey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairTextLeavesCleanStringsAlone(t *testing.T) {
	for _, s := range []string{"", "A – B", "“quoted” — text", "plain ascii", "Zürich"} {
		assert.Equal(t, s, RepairText(s))
	}
}

func TestRepairTextStripsReplacementCharacters(t *testing.T) {
	got := RepairText("Hello\ufffdWorld")
	assert.Contains(t, got, "HelloWorld")
	assert.NotContains(t, got, "\ufffd")

	got = RepairText("\ufffdWe\ufffdre growing\ufffd\ufffd")
	assert.Equal(t, "Were growing", got)
}

func TestRepairTextDecodesWindows1252Bytes(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"accented letter", "caf\xe9", "café"},
		{"city", "Z\xfcrich", "Zürich"},
		{"en dash", "50 \x96 499", "50 – 499"},
		{"smart quotes", "\x93ok\x94", "“ok”"},
		{"mixed with valid utf8", "Soci\xe9t\xe9 – Paris\ufffd", "Société – Paris"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RepairText(tt.in))
		})
	}
}

func TestRepairTextIsIdempotent(t *testing.T) {
	inputs := []string{"Hello\ufffdWorld", "A – B", "x\x96y\ufffdz", "\ufffd\ufffd", ""}
	for _, s := range inputs {
		once := RepairText(s)
		assert.Equal(t, once, RepairText(once), "input %q", s)
	}
}

func TestRepairTableReturnsCopy(t *testing.T) {
	in := &RawTable{
		Header: []string{"Company Name", "Note\ufffd"},
		Rows: [][]string{
			{"Acme\ufffd", "ok"},
			{"Globex", "fine – really"},
		},
	}
	out, n := RepairTable(in)
	// header cells are repaired but not counted
	require.Equal(t, 1, n)
	assert.Equal(t, "Note", out.Header[1])
	assert.Equal(t, "Acme", out.Rows[0][0])
	assert.Equal(t, "fine – really", out.Rows[1][1])

	// input untouched
	assert.True(t, strings.HasSuffix(in.Header[1], "\ufffd"))
	assert.Equal(t, "Acme\ufffd", in.Rows[0][0])
}

func TestRepairTableNil(t *testing.T) {
	out, n := RepairTable(nil)
	assert.NotNil(t, out)
	assert.Zero(t, n)
}
