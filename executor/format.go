package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/thisisjab/herdcomp/fieldmap"
)

const emptyGroup = "(empty)"

var (
	wholeNumberCodes = []string{"DIM", "DCC", "DOPN", "AGE", "LACT", "TBRD"}
	oneDecimalCodes  = []string{"MILK", "SCC", "PCTF", "PCTP"}
)

// formatRow projects a backend row onto display codes.
func formatRow(row map[string]any, codes []string) Row {
	out := make(Row, len(codes))
	for _, code := range codes {
		col, _ := fieldmap.CodeToColumn(code)
		out[code] = formatValue(row[col], code)
	}
	return out
}

// formatValue renders a column value for display under its item code.
func formatValue(v any, code string) any {
	if v == nil {
		return ""
	}

	switch {
	case fieldmap.IsRC(code):
		if s, ok := v.(string); ok {
			return fieldmap.RCCode(s)
		}
		return v

	case slices.Contains(wholeNumberCodes, code):
		if f, ok := toFloat(v); ok {
			return int64(math.Round(f))
		}
		return v

	case slices.Contains(oneDecimalCodes, code):
		if f, ok := toFloat(v); ok {
			return round(f, 1)
		}
		return v
	}

	if info, ok := fieldmap.Info(code); ok && info.Type == fieldmap.TypeDate {
		return formatDate(v)
	}

	return v
}

// groupLabel renders a group key of a grouped COUNT or SUM.
func groupLabel(v any, code string) any {
	if v == nil {
		return emptyGroup
	}
	if s, ok := v.(string); ok && (s == "NULL" || s == "") {
		return emptyGroup
	}

	switch {
	case fieldmap.IsRC(code):
		if s, ok := v.(string); ok {
			if n, err := strconv.Atoi(s); err == nil {
				return fieldmap.RCGroupLabel(n)
			}
			return fieldmap.RCGroupLabel(fieldmap.RCCode(s))
		}
		if f, ok := toFloat(v); ok {
			return fieldmap.RCGroupLabel(int(f))
		}

	case code == "LACT":
		if f, ok := toFloat(v); ok {
			return int64(f)
		}
	}

	return v
}

func formatDate(v any) any {
	switch d := v.(type) {
	case time.Time:
		return d.Format(time.DateOnly)
	case string:
		if t, err := time.Parse(time.RFC3339, d); err == nil {
			return t.Format(time.DateOnly)
		}
		if len(d) > len(time.DateOnly) {
			if _, err := time.Parse(time.DateOnly, d[:len(time.DateOnly)]); err == nil {
				return d[:len(time.DateOnly)]
			}
		}
		return d
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func round(f float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(f*scale) / scale
}

// formatMoney renders dollars with thousands separators, e.g. $1,234.56.
func formatMoney(v float64, decimals int) string {
	scale := int64(math.Pow10(decimals))
	units := int64(math.Round(math.Abs(v) * float64(scale)))

	sign := ""
	if v < 0 && units != 0 {
		sign = "-"
	}

	s := sign + "$" + humanize.Comma(units/scale)
	if decimals > 0 {
		s += fmt.Sprintf(".%0*d", decimals, units%scale)
	}

	return s
}

// money is formatMoney for a nullable value, rendering null as "-".
func money(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return formatMoney(*v, decimals)
}

// decimal renders a nullable value with fixed decimals, null as "-".
func decimal(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
