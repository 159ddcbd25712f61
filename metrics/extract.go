package metrics

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Output formats the engine harnesses can emit.
const (
	FormatProse = "prose"
	FormatKV    = "kv"
)

// EnvFormat selects the harness output format; FormatProse when unset.
const EnvFormat = "VECTOOR_FORMAT"

// Parser extracts timings from the raw stdout of an engine run.
type Parser interface {
	Parse(output string) Metrics
}

// ParserFor returns the parser for the named output format. An empty
// format selects the default prose parser.
func ParserFor(format string) (Parser, error) {
	switch format {
	case "", FormatProse:
		return NewPatternParser(), nil
	case FormatKV:
		return KVParser{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

var (
	defaultInsertPattern = regexp.MustCompile(
		`Inserted \d+ vectors in ([\d.]+) seconds`,
	)
	defaultQueryPattern = regexp.MustCompile(`Query \d+: ([\d.]+)s`)
)

// PatternParser scrapes timings out of human-readable progress output.
// The insert pattern captures the reported duration in seconds and only
// its first match counts. Every query pattern match contributes one
// sample, in the order the engine printed them.
type PatternParser struct {
	InsertPattern *regexp.Regexp
	QueryPattern  *regexp.Regexp
}

// NewPatternParser returns a parser for the default progress lines:
//
//	Inserted 10000 vectors in 4.02 seconds
//	Query 3: 0.0051s, top IDs: [17 4 93]
func NewPatternParser() *PatternParser {
	return &PatternParser{
		InsertPattern: defaultInsertPattern,
		QueryPattern:  defaultQueryPattern,
	}
}

// Parse extracts timings from output. Output without matching lines
// yields a zero Metrics; it is not an error.
func (p *PatternParser) Parse(output string) Metrics {
	var m Metrics

	if match := p.InsertPattern.FindStringSubmatch(output); match != nil {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil {
			m.InsertSeconds = &v
		}
	}

	for _, match := range p.QueryPattern.FindAllStringSubmatch(output, -1) {
		v, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}

		m.QuerySeconds = append(m.QuerySeconds, v)
	}

	return m
}

// KVParser reads the machine-readable format the harnesses emit when
// VECTOOR_FORMAT=kv: one insert_seconds=<v> line and one
// query_seconds=<v> line per query. Lines that are not key=value pairs
// are ignored, so the format tolerates interleaved noise.
type KVParser struct{}

// Parse extracts timings from key-value output.
func (KVParser) Parse(output string) Metrics {
	var m Metrics

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}

		switch key {
		case "insert_seconds":
			if m.InsertSeconds != nil {
				continue
			}

			if v, err := strconv.ParseFloat(value, 64); err == nil {
				m.InsertSeconds = &v
			}

		case "query_seconds":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				m.QuerySeconds = append(m.QuerySeconds, v)
			}
		}
	}

	return m
}
