package common

import (
	"fmt"
	"strconv"
	"strings"
)

// StableDecimals is the display precision of the confidential stablecoin.
// On-chain amounts are encrypted integers in these base units.
const StableDecimals = 6

// UnitsToStable converts base units to a decimal string without float precision loss
func UnitsToStable(units uint64) string {
	return formatWithDecimals(units, StableDecimals)
}

// StableToUnits converts a decimal string to base units without float precision loss
func StableToUnits(amount string) (uint64, error) {
	return parseWithDecimals(amount, StableDecimals)
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 6) = "24.981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := fmt.Sprintf("%d", value)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("24.981836", 6) = 24981836
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")

	if len(parts) == 1 {
		// No decimal point - multiply by 10^decimals
		n, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return 0, err
		}
		for i := 0; i < decimals; i++ {
			n *= 10
		}
		return n, nil
	}

	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	frac := parts[1]

	// Pad or truncate fractional part to exact decimals
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	// Combine and parse
	combined := whole + frac
	return strconv.ParseUint(combined, 10, 64)
}

// CompareStableAmounts compares two decimal string amounts without float precision loss.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b, and error if parsing fails
func CompareStableAmounts(a, b string) (int, error) {
	aVal, err := parseWithDecimals(a, StableDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", a, err)
	}

	bVal, err := parseWithDecimals(b, StableDecimals)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", b, err)
	}

	if aVal < bVal {
		return -1, nil
	}
	if aVal > bVal {
		return 1, nil
	}
	return 0, nil
}

// SignedUnitsToStable formats a decrypted amount that may be negative after
// two's-complement reinterpretation (e.g. a risk threshold delta).
func SignedUnitsToStable(units int64) string {
	if units < 0 {
		return "-" + formatWithDecimals(uint64(-units), StableDecimals)
	}
	return formatWithDecimals(uint64(units), StableDecimals)
}
