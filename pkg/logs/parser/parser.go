// Package parser detects a raw log line's format and reduces it to a
// message.NormalizedLog (spec.md §4.3), grounded on the original Rust
// `detect_format`/`LogFormat` chain in
// original_source/services/log-collector/src/parser/parser.rs, reimplemented
// as an ordered chain of small detector values — the same
// chain-of-responsibility shape the teacher uses for multi-line detection
// dispatch in pkg/logs/decoder.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/flowbase/logcollector/pkg/logs/message"
)

var (
	containerRuntimeRE = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z) (stdout|stderr) ([FP]) (.*)$`)
	syslog5424RE       = regexp.MustCompile(`^<(\d+)>\d (\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z) (.*)$`)
	syslog3164RE       = regexp.MustCompile(`^<(\d+)>([A-Z][a-z]{2}\s+\d{1,2}\s\d{2}:\d{2}:\d{2}) (.*)$`)
)

// ErrUnknownFormat is returned when a line matches none of the recognized
// formats (spec.md §4.3 step 6: "Unknown -> error").
var ErrUnknownFormat = fmt.Errorf("parser: unrecognized log format")

// Parse detects raw's format and converts it to a NormalizedLog. raw must
// already have its trailing newline stripped; RawLine is always set to the
// untouched input (spec.md §4.3 "Output").
func Parse(raw []byte) (message.NormalizedLog, error) {
	line := string(raw)

	if rec, ok := parseContainerRuntime(line); ok {
		rec.RawLine = line
		return rec, nil
	}
	if rec, ok := parseJSON(line); ok {
		rec.RawLine = line
		return rec, nil
	}
	if rec, ok := parseSyslog5424(line); ok {
		rec.RawLine = line
		return rec, nil
	}
	if rec, ok := parseSyslog3164(line); ok {
		rec.RawLine = line
		return rec, nil
	}
	return message.NormalizedLog{}, ErrUnknownFormat
}

// parseContainerRuntime handles format 1: the CRI log line shape.
func parseContainerRuntime(line string) (message.NormalizedLog, bool) {
	m := containerRuntimeRE.FindStringSubmatch(line)
	if m == nil {
		return message.NormalizedLog{}, false
	}
	ts := parseTimestampOrNow(m[1], time.RFC3339Nano)
	return message.NormalizedLog{
		Timestamp: ts,
		Message:   m[4],
		Metadata:  &message.Metadata{Stream: m[2], Flag: m[3]},
	}, true
}

// parseJSON handles formats 2 and 3: Container-JSON (has "log"+"stream"+
// "time") and Application-JSON (has at least "time"); anything else
// falls through to the next detector.
func parseJSON(line string) (message.NormalizedLog, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return message.NormalizedLog{}, false
	}

	timeVal, hasTime := raw["time"]
	if !hasTime {
		return message.NormalizedLog{}, false
	}
	ts := parseTimestampValue(timeVal)

	logVal, hasLog := raw["log"]
	streamVal, hasStream := raw["stream"]
	if hasLog && hasStream {
		return message.NormalizedLog{
			Timestamp: ts,
			Message:   strings.TrimRight(asString(logVal), " \t\r\n"),
			Metadata:  &message.Metadata{Stream: asString(streamVal)},
		}, true
	}

	msg := ""
	if v, ok := raw["msg"]; ok {
		msg = asString(v)
	} else if v, ok := raw["message"]; ok {
		msg = asString(v)
	}
	level := ""
	if v, ok := raw["level"]; ok {
		level = asString(v)
	}
	return message.NormalizedLog{
		Timestamp: ts,
		Level:     level,
		Message:   msg,
	}, true
}

// parseSyslog5424 handles format 4: RFC5424.
func parseSyslog5424(line string) (message.NormalizedLog, bool) {
	m := syslog5424RE.FindStringSubmatch(line)
	if m == nil {
		return message.NormalizedLog{}, false
	}
	ts := parseTimestampOrNow(m[2], time.RFC3339Nano)
	return message.NormalizedLog{
		Timestamp: ts,
		Message:   m[3],
	}, true
}

// parseSyslog3164 handles format 5: RFC3164.
func parseSyslog3164(line string) (message.NormalizedLog, bool) {
	m := syslog3164RE.FindStringSubmatch(line)
	if m == nil {
		return message.NormalizedLog{}, false
	}
	// RFC3164 timestamps carry no year; assume the current one, matching
	// the "best effort" latitude spec.md grants the timestamp fallback.
	ts := parseTimestampOrNow(fmt.Sprintf("%d %s", time.Now().Year(), m[2]), "2006 Jan _2 15:04:05")
	return message.NormalizedLog{
		Timestamp: ts,
		Message:   m[3],
	}, true
}

// parseTimestampOrNow parses value with layout, substituting the current
// wall-clock time on failure (spec.md §4.3 "Timestamp fallback").
func parseTimestampOrNow(value, layout string) time.Time {
	ts, err := time.Parse(layout, value)
	if err != nil {
		return time.Now().UTC()
	}
	return ts.UTC()
}

func parseTimestampValue(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Now().UTC()
	}
	return parseTimestampOrNow(s, time.RFC3339Nano)
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
