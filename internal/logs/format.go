package logs

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Format renders one JSON log record as a single human-readable line:
// time, level, message, then the remaining fields sorted by key. Lines that are
// not JSON objects are returned unchanged.
func Format(line string) string {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return line
	}
	stamp := stringField(record, "time")
	if parsed, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
		stamp = parsed.Local().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(stringField(record, "level"))
	msg := stringField(record, "msg")
	for _, key := range []string{"time", "level", "msg", "source"} {
		delete(record, key)
	}

	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(stamp)
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", level))
	b.WriteString(" ")
	b.WriteString(msg)
	for _, key := range keys {
		value := fmt.Sprint(record[key])
		if strings.ContainsAny(value, " \t\"") {
			value = fmt.Sprintf("%q", value)
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(value)
	}
	return b.String()
}

func stringField(record map[string]any, key string) string {
	value, _ := record[key].(string)
	return value
}
