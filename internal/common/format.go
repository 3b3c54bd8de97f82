package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayTimeLayout mirrors the en-IN locale string: dd/mm/yyyy, hh:mm:ss
const DisplayTimeLayout = "02/01/2006, 15:04:05"

// FormatDisplayTime formats t in loc using DisplayTimeLayout.
func FormatDisplayTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayTimeLayout)
}

// GroupIndian groups an unsigned digit string the en-IN way: the last three
// digits, then pairs. "123456789" -> "12,34,56,789".
func GroupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

// currencySymbol returns the display prefix for a currency code.
func currencySymbol(currency string) string {
	switch strings.ToUpper(currency) {
	case "INR", "":
		return "₹"
	case "USD":
		return "US$"
	case "AUD":
		return "A$"
	default:
		return strings.ToUpper(currency) + " "
	}
}

// FormatMoneyWithCurrency formats an amount with two decimals and en-IN digit grouping.
// INR -> "₹1,23,456.78". Amounts of any magnitude keep every digit.
func FormatMoneyWithCurrency(v float64, currency string) string {
	sym := currencySymbol(currency)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%s%v", sym, v)
	}

	negative := v < 0
	whole, frac, _ := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', 2, 64), ".")
	s := GroupIndian(whole)
	if negative && (whole != "0" || frac != "00") {
		return fmt.Sprintf("-%s%s.%s", sym, s, frac)
	}
	return fmt.Sprintf("%s%s.%s", sym, s, frac)
}

// FormatSignedPct formats a percentage with a leading + for gains.
func FormatSignedPct(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// FormatVolume formats a traded-unit count with en-IN grouping.
func FormatVolume(v int64) string {
	if v < 0 {
		return "-" + GroupIndian(fmt.Sprintf("%d", -v))
	}
	return GroupIndian(fmt.Sprintf("%d", v))
}

// Indian market-cap units
const (
	Crore     = 1e7
	LakhCrore = 1e12
)

// FormatMarketCap formats a rupee market cap in crore units.
// >= 1 lakh crore -> "1.96 L Cr" (for 1.956e12), >= 1 crore -> "1350.00 Cr", otherwise the plain amount.
func FormatMarketCap(v float64) string {
	switch {
	case v >= LakhCrore:
		return fmt.Sprintf("%.2f L Cr", v/LakhCrore)
	case v >= Crore:
		return fmt.Sprintf("%.2f Cr", v/Crore)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// MarketCapCrore returns the market cap in crore rounded to two decimals.
func MarketCapCrore(v float64) float64 {
	return math.Round(v/Crore*100) / 100
}
