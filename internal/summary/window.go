package summary

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
)

// Window is one calendar month in the UTC-5 zone. On the wire the month is
// the same 0-based index ParseWindow accepts.
type Window struct {
	Year  int
	Month time.Month
}

type windowJSON struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var monthsByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 36)
	for i := 0; i < 12; i++ {
		month := time.Month(i + 1)
		english := strings.ToLower(month.String())
		m[english] = month
		m[english[:3]] = month
		m[spanishMonths[i]] = month
	}
	m["setiembre"] = time.September
	return m
}()

var ErrInvalidWindow = errors.NewValidationError("month must be 0-11 or a month name, year must be positive", errors.ErrCodeInvalidWindow)

// ParseWindow reads a month given as a 0-based index ("2") or an English or
// Spanish name ("march", "marzo"). An empty month means the current one; an
// empty year means the current year. now is converted to UTC-5 first.
func ParseWindow(monthSpec, yearSpec string, now time.Time) (Window, error) {
	now = clock.In(now)
	w := Window{Year: now.Year(), Month: now.Month()}

	monthSpec = strings.ToLower(strings.TrimSpace(monthSpec))
	if monthSpec != "" {
		if n, err := strconv.Atoi(monthSpec); err == nil {
			if n < 0 || n > 11 {
				return Window{}, ErrInvalidWindow
			}
			w.Month = time.Month(n + 1)
		} else if m, ok := monthsByName[monthSpec]; ok {
			w.Month = m
		} else {
			return Window{}, ErrInvalidWindow
		}
	}

	yearSpec = strings.TrimSpace(yearSpec)
	if yearSpec != "" {
		y, err := strconv.Atoi(yearSpec)
		if err != nil || y <= 0 {
			return Window{}, ErrInvalidWindow
		}
		w.Year = y
	}
	return w, nil
}

func (w Window) Start() time.Time {
	return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, clock.Zone)
}

// End is exclusive.
func (w Window) End() time.Time {
	return w.Start().AddDate(0, 1, 0)
}

func (w Window) Contains(t time.Time) bool {
	t = clock.In(t)
	return !t.Before(w.Start()) && t.Before(w.End())
}

// MonthName is the Spanish month name, capitalised.
func (w Window) MonthName() string {
	name := spanishMonths[w.Month-1]
	return strings.ToUpper(name[:1]) + name[1:]
}

func (w Window) String() string {
	return w.MonthName() + " " + strconv.Itoa(w.Year)
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{Year: w.Year, Month: int(w.Month) - 1, MonthName: w.MonthName()})
}

func (w *Window) UnmarshalJSON(data []byte) error {
	var raw windowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Month < 0 || raw.Month > 11 {
		return ErrInvalidWindow
	}
	w.Year, w.Month = raw.Year, time.Month(raw.Month+1)
	return nil
}
