// Package journal reads back the tail of the dashboard's own JSON log file
// for the in-app activity pane.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded log line. Lines that are not JSON come back with
// only Message set.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Summary renders "key=value" pairs in key order.
func (e Entry) Summary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return strings.Join(parts, " ")
}

// Read returns at most maxLines decoded entries from the end of the file at
// path, oldest first. A missing file yields no entries.
func Read(path string, maxLines int) ([]Entry, error) {
	lines, err := tail(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

// reserved keys are lifted out of Fields.
var reserved = map[string]bool{
	"timestamp": true,
	"level":     true,
	"msg":       true,
	"caller":    true,
	"logger":    true,
}

// Parse decodes one zap JSON line.
func Parse(line string) Entry {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{Message: strings.TrimSpace(line)}
	}
	e := Entry{
		Level:   stringValue(raw["level"]),
		Message: stringValue(raw["msg"]),
	}
	if ts := stringValue(raw["timestamp"]); ts != "" {
		for _, layout := range []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano} {
			if t, err := time.Parse(layout, ts); err == nil {
				e.Time = t
				break
			}
		}
	}
	for k, v := range raw {
		if reserved[k] {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]string)
		}
		e.Fields[k] = stringValue(v)
	}
	return e
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}

func tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 || strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if count < maxLines {
		return ring[:count], nil
	}
	lines := make([]string, count)
	for i := 0; i < count; i++ {
		lines[i] = ring[(idx+i)%maxLines]
	}
	return lines, nil
}
