// Package endpoint matches requested URL paths against granted URL templates.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var ErrNotGranted = errors.New("endpoint not granted")

// Pattern is a parsed URL template. Path segments starting with ':' match any
// single segment; everything else matches literally after percent-decoding.
type Pattern struct {
	Raw      string
	host     string
	segments []string
}

// Parse accepts a full URL ("https://api.example.com/users/:id") or a bare
// path ("/public-report").
func Parse(raw string) (Pattern, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Pattern{}, fmt.Errorf("empty endpoint pattern")
	}

	host := ""
	path := trimmed
	if !strings.HasPrefix(trimmed, "/") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return Pattern{}, fmt.Errorf("parse endpoint pattern %q: %w", raw, err)
		}
		if parsed.Host == "" {
			return Pattern{}, fmt.Errorf("endpoint pattern %q has no host", raw)
		}
		host = parsed.Hostname()
		path = parsed.Path
	}

	segments, err := splitSegments(path)
	if err != nil {
		return Pattern{}, fmt.Errorf("parse endpoint pattern %q: %w", raw, err)
	}
	return Pattern{Raw: trimmed, host: host, segments: segments}, nil
}

// Host returns the upstream hostname the pattern was granted for, empty for
// bare-path patterns.
func (p Pattern) Host() string { return p.host }

// MatchPath reports whether the requested path matches the template,
// positionally and segment by segment.
func (p Pattern) MatchPath(requested string) bool {
	reqSegments, err := splitSegments(requested)
	if err != nil {
		return false
	}
	if len(reqSegments) != len(p.segments) {
		return false
	}
	for i, want := range p.segments {
		if strings.HasPrefix(want, ":") && len(want) > 1 {
			continue
		}
		if want != reqSegments[i] {
			return false
		}
	}
	return true
}

// Match returns the first pattern matching the requested path. Patterns that
// fail to parse are skipped with a warning so one bad grant does not void the
// rest.
func Match(patterns []string, requestedPath string, log *zap.Logger) (Pattern, bool) {
	for _, raw := range patterns {
		pattern, err := Parse(raw)
		if err != nil {
			if log != nil {
				log.Warn("skipping unparseable endpoint pattern", zap.String("pattern", raw), zap.Error(err))
			}
			continue
		}
		if pattern.MatchPath(requestedPath) {
			return pattern, true
		}
	}
	return Pattern{}, false
}

func splitSegments(path string) ([]string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		segments = append(segments, decoded)
	}
	return segments, nil
}
