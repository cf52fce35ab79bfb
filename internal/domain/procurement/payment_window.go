package procurement

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// PaymentWindow is a monthly payment slot: a calendar day of month, or the
// symbolic LastBusinessDay.
type PaymentWindow int

// LastBusinessDay is the window resolved to the month's last Monday-Friday
const LastBusinessDay PaymentWindow = -1

const lastBusinessDayLabel = "last_business_day"

var (
	domesticWindows      = []PaymentWindow{5, 15, 25}
	internationalWindows = []PaymentWindow{10, 20, LastBusinessDay}
)

// PaymentWindowsFor returns the ordered windows for a payment scope
func PaymentWindowsFor(isDomestic bool) []PaymentWindow {
	if isDomestic {
		return append([]PaymentWindow(nil), domesticWindows...)
	}
	return append([]PaymentWindow(nil), internationalWindows...)
}

// ParsePaymentWindow parses "5", "15" ... or "last_business_day"
func ParsePaymentWindow(s string) (PaymentWindow, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, lastBusinessDayLabel) {
		return LastBusinessDay, nil
	}
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, shared.NewDomainError("INVALID_PAYMENT_WINDOW", fmt.Sprintf("Invalid payment window %q", s))
	}
	return PaymentWindow(day), nil
}

// ValidatePaymentWindow checks that w is one of the windows of the scope
func ValidatePaymentWindow(w PaymentWindow, isDomestic bool) error {
	if w.indexIn(PaymentWindowsFor(isDomestic)) < 0 {
		scope := "international"
		if isDomestic {
			scope = "domestic"
		}
		return shared.NewDomainError("INVALID_PAYMENT_WINDOW", fmt.Sprintf("Payment window %s is not available for %s payments", w, scope))
	}
	return nil
}

// IsLastBusinessDay reports whether w is the symbolic last-business-day window
func (w PaymentWindow) IsLastBusinessDay() bool {
	return w == LastBusinessDay
}

// String returns the day number or "last_business_day"
func (w PaymentWindow) String() string {
	if w.IsLastBusinessDay() {
		return lastBusinessDayLabel
	}
	return strconv.Itoa(int(w))
}

// MarshalJSON encodes day windows as numbers and LastBusinessDay as a string
func (w PaymentWindow) MarshalJSON() ([]byte, error) {
	if w.IsLastBusinessDay() {
		return json.Marshal(lastBusinessDayLabel)
	}
	return json.Marshal(int(w))
}

// UnmarshalJSON accepts a number, a numeric string or "last_business_day"
func (w *PaymentWindow) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var text string
	switch v := raw.(type) {
	case float64:
		text = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		text = v
	default:
		return fmt.Errorf("invalid payment window %s", string(data))
	}
	parsed, err := ParsePaymentWindow(text)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// DateIn resolves the window to a date (midnight) in the given month.
// Day numbers past the month's end clamp to its last day.
func (w PaymentWindow) DateIn(year int, month time.Month, loc *time.Location) time.Time {
	if w.IsLastBusinessDay() {
		return LastBusinessDayOfMonth(year, month, loc)
	}
	day := int(w)
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func (w PaymentWindow) indexIn(windows []PaymentWindow) int {
	for i, candidate := range windows {
		if candidate == w {
			return i
		}
	}
	return -1
}

// LastBusinessDayOfMonth returns the month's final Monday-Friday.
// Holidays are not considered.
func LastBusinessDayOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// PaymentWindowResult is the resolved window and its date
type PaymentWindowResult struct {
	Day  PaymentWindow `json:"day"`
	Date time.Time     `json:"date"`
}

// NextValidPaymentDate returns the first window, starting at selected and
// moving forward through the scope's windows in openDate's month and then the
// first window of the following month, that lies at least minDaysAdvance whole
// days after openDate. When none qualifies the next-month candidate is
// returned anyway. With isOutsidePaymentWindow the selected window is resolved
// in openDate's month without snapping.
//
// A selected window outside the scope starts the search at the scope's first window.
func NextValidPaymentDate(openDate time.Time, selected PaymentWindow, minDaysAdvance int, isOutsidePaymentWindow, isDomestic bool) PaymentWindowResult {
	year, month, _ := openDate.Date()
	loc := openDate.Location()

	if isOutsidePaymentWindow {
		return PaymentWindowResult{Day: selected, Date: selected.DateIn(year, month, loc)}
	}

	windows := PaymentWindowsFor(isDomestic)
	start := selected.indexIn(windows)
	if start < 0 {
		start = 0
	}

	candidates := make([]PaymentWindowResult, 0, len(windows)-start+1)
	for _, w := range windows[start:] {
		candidates = append(candidates, PaymentWindowResult{Day: w, Date: w.DateIn(year, month, loc)})
	}
	nextYear, nextMonth, _ := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).Date()
	candidates = append(candidates, PaymentWindowResult{Day: windows[0], Date: windows[0].DateIn(nextYear, nextMonth, loc)})

	for _, c := range candidates {
		if DaysBetween(openDate, c.Date) >= minDaysAdvance {
			return c
		}
	}
	return candidates[len(candidates)-1]
}

// DaysBetween returns the whole calendar days from a to b, floored.
// Both instants are compared by wall clock so DST shifts do not lose a day.
func DaysBetween(a, b time.Time) int {
	diff := wallClockUTC(b).Sub(wallClockUTC(a))
	return int(math.Floor(float64(diff) / float64(24*time.Hour)))
}

func wallClockUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	h, min, s := t.Clock()
	return time.Date(y, m, d, h, min, s, t.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
