package executor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/thisisjab/herdcomp/entity"
)

const eventsLimit = 100

var eventLabels = map[string]string{
	"breeding":     "BRED",
	"calving":      "CALVED",
	"dry_off":      "DRY",
	"preg_check":   "PREG CHK",
	"heat":         "HEAT",
	"treatment":    "TREAT",
	"health_check": "HEALTH",
	"movement":     "MOVED",
	"sale":         "SOLD",
	"death":        "DIED",
}

// events handles EVENTS, the latest events newest first. \SI shows the
// requested items read from each event's details instead of the summary.
func (e *Executor) events(ctx context.Context, c *call) (Result, error) {
	c.ignoreConditions()

	records, err := e.backend.ListEvents(ctx, entity.EventQuery{
		TenantID: c.session.TenantID,
		Limit:    eventsLimit,
	})
	if err != nil {
		return Result{}, err
	}

	specific := c.cmd.HasSwitch("SI")
	columns := []string{"Date", "ID", "Event", "Details", "Name"}
	if specific {
		columns = append([]string{"Date", "ID", "Event"}, c.cmd.Items...)
	}

	data := make([]Row, 0, len(records))
	for _, r := range records {
		row := Row{
			"Date":  r.Date,
			"ID":    orNA(r.EarTag),
			"Event": eventLabel(r.Type),
		}

		if specific {
			for _, item := range c.cmd.Items {
				row[item] = detail(r.Details, strings.ToLower(item), "")
			}
		} else {
			row["Details"] = eventDetails(r.Type, r.Details)
			row["Name"] = r.Name
		}

		data = append(data, row)
	}

	return Result{
		Success: true,
		Type:    TypeList,
		Data:    data,
		Columns: columns,
		Count:   int64Ptr(int64(len(data))),
	}, nil
}

func eventLabel(eventType string) string {
	if label, ok := eventLabels[eventType]; ok {
		return label
	}
	return strings.ToUpper(eventType)
}

// eventDetails summarizes the details of an event for its type.
func eventDetails(eventType string, details map[string]any) string {
	if len(details) == 0 {
		return ""
	}

	d := func(key string) string { return detail(details, key, "N/A") }

	switch eventType {
	case "breeding":
		bull := detail(details, "bull_name", "")
		if bull == "" {
			bull = d("bull_id")
		}
		return fmt.Sprintf("Bull: %s, Tech: %s", bull, d("technician_name"))
	case "calving":
		return fmt.Sprintf("Calf: %s, Sex: %s", d("calf_id"), d("calf_sex"))
	case "preg_check":
		return fmt.Sprintf("Result: %s, DCC: %s", d("result"), d("dcc"))
	case "treatment":
		return fmt.Sprintf("%s: %s", detail(details, "treatment_type", "Treatment"), d("drug"))
	case "movement":
		return fmt.Sprintf("From: %s To: %s", d("from_pen"), d("to_pen"))
	case "health_check":
		return fmt.Sprintf("BCS: %s, Notes: %s", d("bcs"), detail(details, "notes", ""))
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, 2)
	for _, k := range keys[:min(2, len(keys))] {
		parts = append(parts, fmt.Sprintf("%s: %v", k, details[k]))
	}

	return strings.Join(parts, ", ")
}

// detail renders a details value, falling back for missing or empty values.
func detail(details map[string]any, key, fallback string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return fallback
	}

	s := fmt.Sprint(v)
	if s == "" {
		return fallback
	}

	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
