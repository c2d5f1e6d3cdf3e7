package ambient

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SamplesPerDay is the resolution of the weather files: one reading every
// 15 minutes.
const SamplesPerDay = 96

type Sample struct {
	Timestamp   int64   `json:"timestamp" yaml:"timestamp"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// file layout: date -> sample index (as a string) -> sample
type document map[string]map[string]Sample

// Series is an immutable set of samples ordered by timestamp. It is safe to
// share between environments.
type Series struct {
	samples []Sample
	days    map[string][]Sample
	skipped int
}

// Load reads a weather file. The format is chosen from the extension
// (.json, .yaml, .yml).
func Load(path string) (*Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ambient file: %w", err)
	}
	return Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

func Parse(data []byte, format string) (*Series, error) {
	var doc document
	switch format {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return newSeries(doc)
}

func newSeries(doc document) (*Series, error) {
	s := &Series{days: make(map[string][]Sample, len(doc))}
	for date, entries := range doc {
		type indexed struct {
			idx int
			Sample
		}
		day := make([]indexed, 0, len(entries))
		for key, sample := range entries {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 {
				s.skipped++
				continue
			}
			day = append(day, indexed{idx, sample})
		}
		if len(day) == 0 {
			continue
		}
		sort.Slice(day, func(i, j int) bool { return day[i].idx < day[j].idx })
		samples := make([]Sample, len(day))
		for i, d := range day {
			samples[i] = d.Sample
		}
		s.days[date] = samples
		s.samples = append(s.samples, samples...)
	}
	if len(s.samples) == 0 {
		return nil, ErrEmptySeries
	}
	sort.SliceStable(s.samples, func(i, j int) bool {
		return s.samples[i].Timestamp < s.samples[j].Timestamp
	})
	return s, nil
}

// Len is the number of usable samples.
func (s *Series) Len() int {
	return len(s.samples)
}

// Skipped counts entries dropped while loading because their index key was
// not a non-negative integer.
func (s *Series) Skipped() int {
	return s.skipped
}

// Start is the timestamp of the earliest sample.
func (s *Series) Start() int64 {
	return s.samples[0].Timestamp
}

// Dates lists the days present in the series in ascending order.
func (s *Series) Dates() []string {
	dates := make([]string, 0, len(s.days))
	for d := range s.days {
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return dates
}

// Day restricts the series to a single date.
func (s *Series) Day(date string) (*Series, error) {
	samples, ok := s.days[date]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDate, date)
	}
	sorted := slices.Clone(samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })
	return &Series{
		samples: sorted,
		days:    map[string][]Sample{date: samples},
	}, nil
}

// Temperature returns the sample at ts, or the nearest earlier one. There is
// no interpolation between samples. Timestamps before the first sample miss.
func (s *Series) Temperature(ts int64) (float64, bool) {
	i := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Timestamp >= ts
	})
	if i < len(s.samples) && s.samples[i].Timestamp == ts {
		return s.samples[i].Temperature, true
	}
	if i == 0 {
		return 0, false
	}
	return s.samples[i-1].Temperature, true
}
