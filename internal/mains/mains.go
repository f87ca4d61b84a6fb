// Package mains works out the local electrical mains frequency, used to
// place hum notches when recordings pick up power line interference.
package mains

import (
	"strings"
	"sync"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultFrequency is used when the country cannot be determined.
// 50 Hz grids serve most of the world's population.
const DefaultFrequency = 50

// Region is the result of a mains lookup.
type Region struct {
	Timezone  string
	Country   string // empty when the timezone has no country
	Frequency int    // Hz, 50 or 60
	// Mixed marks countries that run both 50 and 60 Hz grids
	Mixed bool
}

type countryLookup interface {
	GetCountry(timezone string) (string, error)
}

var (
	lookupOnce sync.Once
	lookup     countryLookup
)

func countries() countryLookup {
	lookupOnce.Do(func() {
		if m, err := tz.NewTimezoneCountryMap(); err == nil {
			lookup = m
		}
	})
	return lookup
}

// Detect looks up the mains region for the system timezone.
func Detect() Region {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Region{Frequency: DefaultFrequency}
	}
	return ForTimezone(timezone)
}

// ForTimezone looks up the mains region for an IANA timezone name.
func ForTimezone(timezone string) Region {
	region := Region{Timezone: timezone, Frequency: DefaultFrequency}

	if timezone == "" || timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return region
	}

	m := countries()
	if m == nil {
		return region
	}
	country, err := m.GetCountry(timezone)
	if err != nil {
		return region
	}

	region.Country = country
	if hz, ok := mixedGrids[country]; ok {
		region.Frequency = hz
		region.Mixed = true
	} else if grid60Hz[country] {
		region.Frequency = 60
	}
	return region
}

// Frequency returns the mains frequency in Hz for the system timezone.
func Frequency() int {
	return Detect().Frequency
}

// FrequencyForTimezone returns the mains frequency in Hz for a timezone.
func FrequencyForTimezone(timezone string) int {
	return ForTimezone(timezone).Frequency
}

// Harmonics returns the fundamental and up to count-1 integer multiples that
// lie strictly below nyquist.
func Harmonics(fundamental float64, count int, nyquist float64) []float64 {
	if fundamental <= 0 || count < 1 {
		return nil
	}
	var out []float64
	for k := 1; k <= count; k++ {
		f := fundamental * float64(k)
		if f >= nyquist {
			break
		}
		out = append(out, f)
	}
	return out
}

// mixedGrids maps split-grid countries to the frequency used by the
// majority of the population.
var mixedGrids = map[string]int{
	"Japan":        50, // east (Tokyo) 50 Hz, west (Osaka) 60 Hz
	"Brazil":       60,
	"Saudi Arabia": 60,
}

// grid60Hz lists the countries and territories on 60 Hz mains.
// See https://en.wikipedia.org/wiki/Mains_electricity_by_country
var grid60Hz = map[string]bool{
	"American Samoa":      true,
	"Bahamas":             true,
	"Barbados":            true,
	"Belize":              true,
	"Canada":              true,
	"Cayman Islands":      true,
	"Colombia":            true,
	"Costa Rica":          true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Ecuador":             true,
	"El Salvador":         true,
	"Guam":                true,
	"Guatemala":           true,
	"Guyana":              true,
	"Haiti":               true,
	"Honduras":            true,
	"Jamaica":             true,
	"Marshall Islands":    true,
	"Mexico":              true,
	"Micronesia":          true,
	"Nicaragua":           true,
	"Palau":               true,
	"Panama":              true,
	"Peru":                true,
	"Philippines":         true,
	"Puerto Rico":         true,
	"South Korea":         true,
	"Suriname":            true,
	"Taiwan":              true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,
	"United States":       true,
	"Venezuela":           true,
}
