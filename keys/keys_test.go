package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "", NormalizeName(""))
	assert.Equal(t, "김영희", NormalizeName("  김 영희 "))
	assert.Equal(t, "김영희", NormalizeName("김\t영\n희"))

	// decomposed jamo (NFD) must compare equal to the composed form
	decomposed := "\u1100\u1175\u11B7\u110B\u1167\u11BC\u1112\u1174"
	assert.Equal(t, "김영희", NormalizeName(decomposed))
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-12-01", "20251201"},
		{"20251201", "20251201"},
		{"2025.12.01", "20251201"},
		{"2025/12/01", "20251201"},
		{"2025-6-1", "20250601"},
		{"2025.6.1.", "20250601"},
		{" 2025-06-01 ", "20250601"},
		{"", ""},
		{"abc", ""},
		{"25-6-1", "2561"}, // best effort: digits only
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestNormalizeDate_IdempotentOnCanonicalOutput(t *testing.T) {
	inputs := []string{"2025-12-01", "2025.1.9", "20240229", "1999/12/31", "2025-6-1 09:00"}
	for _, in := range inputs {
		once := NormalizeDate(in)
		if !IsDateKey(once) {
			continue
		}
		assert.Equal(t, once, NormalizeDate(once), "input %q", in)
	}
}

func TestNormalizeDate_WellFormedVariantsAgree(t *testing.T) {
	want := "20251201"
	assert.Equal(t, want, NormalizeDate("2025-12-01"))
	assert.Equal(t, want, NormalizeDate("20251201"))
	assert.Equal(t, want, NormalizeDate("2025.12.01"))
}

func TestNormalizeBirthFragment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"19601225", "601225"},
		{"60-12-25", "601225"},
		{"601225", "601225"},
		{"1955-03-02", "550302"},
		{"1955.3.2", "550302"},
		{"1955/3/2", "550302"},
		{"2001-1-9", "010109"},
		{"", ""},
		{"12", "12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBirthFragment(tt.in))
		})
	}
}

func TestShapeValidators(t *testing.T) {
	assert.True(t, IsDateKey("20250601"))
	assert.False(t, IsDateKey("2025061"))
	assert.False(t, IsDateKey("2025-6-1"))

	assert.True(t, IsBirthFragment("550302"))
	assert.False(t, IsBirthFragment("55030"))
	assert.False(t, IsBirthFragment(""))
}

func TestFormatDateForDisplay(t *testing.T) {
	assert.Equal(t, "2025-06-01", FormatDateForDisplay("20250601"))
	assert.Equal(t, "202506", FormatDateForDisplay("202506"))
}
