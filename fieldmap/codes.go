package fieldmap

import (
	"fmt"
	"strings"
)

// CodeValue is one entry of an enumerated code dictionary.
type CodeValue struct {
	Code        int    `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var rcValues = []CodeValue{
	{0, "Blank", "Young calves/heifers not bred"},
	{1, "DNB", "Do Not Breed"},
	{2, "FRESH", "Recently calved"},
	{3, "OPEN", "Ready to breed / checked and open"},
	{4, "BRED", "Inseminated, not diagnosed"},
	{5, "PREG", "Pregnant"},
	{6, "DRY", "Dry period (not milking)"},
	{7, "SLD/DIE", "Sold or died"},
	{8, "BULLCAF", "Bull calf"},
}

var vcValues = []CodeValue{
	{1, "CHCK", "Check - needs examination"},
	{2, "FRSH", "Fresh - exam before breeding"},
	{3, "PREG", "Pregnancy check due"},
	{4, "REPG", "Recheck pregnancy"},
	{5, "ODUE", "Overdue - pregnant >=300 DCC"},
	{6, "ABT?", "Abort? - heat while pregnant"},
	{7, "CYST", "Cystic - rebred within 10 days"},
	{8, "NOHT", "No heat - bred but not rebred (30d)"},
	{9, "NOHT", "No heat - too many DIM without breeding (90d)"},
	{10, "PROB", "Problem breeder"},
	{11, "XBRD", "Extra bred - 3+ times before pregnant"},
}

// Status strings stored in reproductive_status, indexed by RC code.
var rcStatuses = [...]string{"blank", "dnb", "fresh", "open", "bred", "preg", "dry", "sold", "bullcalf"}

var rcLabels = [...]string{"Blank", "DNB", "FRESH", "OPEN", "BRED", "PREG", "DRY", "SOLD", "BULLCALF"}

var rcGroupLabels = [...]string{"Blank", "DNB", "Fresh", "Open", "Bred", "Preg", "Dry", "Sold/Die", "Bull Calf"}

var statusCodes = map[string]int{
	"pregnant": 5,
	"died":     7,
}

func init() {
	for code, status := range rcStatuses {
		statusCodes[status] = code
	}
}

// RCStatus converts an RC code to its status string. Unknown codes are "blank".
func RCStatus(code int) string {
	if code < 0 || code >= len(rcStatuses) {
		return rcStatuses[0]
	}
	return rcStatuses[code]
}

// RCCode converts a status string to its RC code. Unknown statuses are 0.
func RCCode(status string) int {
	if code, ok := statusCodes[strings.ToLower(strings.TrimSpace(status))]; ok {
		return code
	}
	return 0
}

func RCLabel(code int) string {
	if code < 0 || code >= len(rcLabels) {
		return rcLabels[0]
	}
	return rcLabels[code]
}

// RCGroupLabel renders an RC code the way grouped reports show it, e.g. "5 - Preg".
func RCGroupLabel(code int) string {
	label := "Unknown"
	if code >= 0 && code < len(rcGroupLabels) {
		label = rcGroupLabels[code]
	}
	return fmt.Sprintf("%d - %s", code, label)
}

func RCValues() []CodeValue {
	return append([]CodeValue(nil), rcValues...)
}

func VCValues() []CodeValue {
	return append([]CodeValue(nil), vcValues...)
}

func VCLabel(code int) (string, bool) {
	for _, v := range vcValues {
		if v.Code == code {
			return v.Label, true
		}
	}
	return "", false
}

// SuggestedValues returns the enumerated values for a coded item, or nil.
func SuggestedValues(code string) []CodeValue {
	switch strings.ToUpper(code) {
	case "RC", "RPRO":
		return RCValues()
	case "VC":
		return VCValues()
	default:
		return nil
	}
}
