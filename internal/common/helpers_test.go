package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitsToStable(t *testing.T) {
	cases := []struct {
		units uint64
		want  string
	}{
		{0, "0.000000"},
		{1, "0.000001"},
		{1000000, "1.000000"},
		{24981836, "24.981836"},
		{500000, "0.500000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, UnitsToStable(c.units))
	}
}

func TestStableToUnits(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"1", 1000000},
		{"24.981836", 24981836},
		{"0.5", 500000},
		{" 2.25 ", 2250000},
		{"1.0000009", 1000000}, // extra precision truncated
	}
	for _, c := range cases {
		got, err := StableToUnits(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}

	for _, bad := range []string{"", "1.2.3", "abc", "-1"} {
		_, err := StableToUnits(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestCompareStableAmounts(t *testing.T) {
	cmp, err := CompareStableAmounts("1.5", "1.50")
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	cmp, err = CompareStableAmounts("0.999999", "1")
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = CompareStableAmounts("2", "1.999999")
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	_, err = CompareStableAmounts("x", "1")
	assert.Error(t, err)
}

func TestSignedUnitsToStable(t *testing.T) {
	assert.Equal(t, "1.000000", SignedUnitsToStable(1000000))
	assert.Equal(t, "-1.000000", SignedUnitsToStable(-1000000))
	assert.Equal(t, "0.000000", SignedUnitsToStable(0))
}
