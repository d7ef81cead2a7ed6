package helpers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{time.DateOnly, time.RFC3339}

// Date is a request field that accepts a calendar date (2006-01-02) or a full RFC3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string")
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("date %q must be YYYY-MM-DD or RFC3339", s)
}

// TimePtr returns the parsed time, or nil when the field was absent.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
