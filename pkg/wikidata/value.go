package wikidata

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Wikidata time precisions. Coarser precisions exist (decade, century, ...)
// but everything below year is rendered as the year alone.
const (
	PrecisionYear  = 9
	PrecisionMonth = 10
	PrecisionDay   = 11
)

var monthNames = [13]string{"",
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var numberPrinter = message.NewPrinter(language.English)

// FormatTime renders a Wikidata time string ("+1969-07-20T00:00:00Z") at
// the given precision. Negative years are rendered as BCE. Unparseable
// input is returned verbatim so the raw value is never lost.
func FormatTime(value string, precision int) string {
	sign := 1
	s := value
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	}

	datePart, _, ok := strings.Cut(s, "T")
	if !ok {
		datePart = s
	}
	parts := strings.SplitN(datePart, "-", 3)
	if len(parts) != 3 {
		return value
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	day, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return value
	}

	era := ""
	if sign < 0 {
		era = " BCE"
	}

	if precision >= PrecisionDay && month >= 1 && month <= 12 {
		return fmt.Sprintf("%d %s %d%s", day, monthNames[month], year, era)
	}
	if precision == PrecisionMonth && month >= 1 && month <= 12 {
		return fmt.Sprintf("%s %d%s", monthNames[month], year, era)
	}
	return fmt.Sprintf("%d%s", year, era)
}

// FormatQuantity renders a Wikidata amount ("+123456.5") as a grouped
// decimal number. The unit is intentionally discarded. Unparseable input
// is returned verbatim.
func FormatQuantity(amount string) string {
	v, err := strconv.ParseFloat(strings.TrimPrefix(amount, "+"), 64)
	if err != nil {
		return amount
	}
	return numberPrinter.Sprintf("%v", number.Decimal(v))
}

// FormatCoordinate renders a globe coordinate as
// "48.8566N, 2.3522E" with four decimal places and hemisphere letters.
func FormatCoordinate(lat, lon float64) string {
	ns := byte('N')
	if lat < 0 {
		ns = 'S'
	}
	ew := byte('E')
	if lon < 0 {
		ew = 'W'
	}
	return fmt.Sprintf("%.4f%c, %.4f%c", math.Abs(lat), ns, math.Abs(lon), ew)
}
