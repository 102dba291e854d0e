// Package fieldmap maps DairyComp item codes (DIM, RC, MILK, ...) to the
// columns of the animals view, and holds the RC and VC code dictionaries.
//
// All tables are built once at package initialization and are never mutated,
// so every lookup is safe for concurrent use.
package fieldmap

import (
	"slices"
	"strings"

	"github.com/thisisjab/herdcomp/querier/ast"
)

type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeDate    Type = "date"
	TypeBoolean Type = "boolean"
)

type Category string

const (
	CategoryIdentification Category = "identification"
	CategoryDates          Category = "dates"
	CategoryReproduction   Category = "reproduction"
	CategoryProduction     Category = "production"
	CategoryCalculated     Category = "calculated"
	CategoryHealth         Category = "health"
	CategoryManagement     Category = "management"
)

// Entry describes one DairyComp item.
type Entry struct {
	Code        string   `json:"code"`
	Column      string   `json:"column"`
	Description string   `json:"description"`
	Type        Type     `json:"type"`
	Category    Category `json:"category"`
}

var entries = []Entry{
	// Identification
	{"ID", "ear_tag", "Animal identifier", TypeString, CategoryIdentification},
	{"PEN", "pen_id", "Pen number", TypeString, CategoryIdentification},
	{"REG", "registration_number", "Registration number", TypeString, CategoryIdentification},
	{"EID", "electronic_id", "Electronic ID (RFID)", TypeString, CategoryIdentification},
	{"NAME", "name", "Animal name", TypeString, CategoryIdentification},

	// Dates
	{"BDAT", "birth_date", "Birth date", TypeDate, CategoryDates},
	{"EDAT", "enrollment_date", "Enrollment date", TypeDate, CategoryDates},
	{"FDAT", "last_calving_date", "Fresh date (calving)", TypeDate, CategoryDates},
	{"CDAT", "conception_date", "Conception date", TypeDate, CategoryDates},
	{"DDAT", "dry_date", "Dry off date", TypeDate, CategoryDates},
	{"HDAT", "last_heat_date", "Last heat date", TypeDate, CategoryDates},

	// Reproduction
	{"LACT", "lactation_number", "Lactation number", TypeNumber, CategoryReproduction},
	{"RC", "reproductive_status", "Reproductive code (0-8)", TypeNumber, CategoryReproduction},
	{"RPRO", "reproductive_status", "Reproductive code (alias)", TypeNumber, CategoryReproduction},
	{"TBRD", "times_bred", "Times bred this lactation", TypeNumber, CategoryReproduction},
	{"SIRC", "sire_of_conception", "Sire of conception", TypeString, CategoryReproduction},
	{"LSIR", "last_breeding_bull_id", "Last service sire", TypeString, CategoryReproduction},

	// Production
	{"TOTM", "total_milk_current_lactation", "Total milk this lactation", TypeNumber, CategoryProduction},
	{"MILK", "last_milk_kg", "Last test day milk", TypeNumber, CategoryProduction},
	{"SCC", "last_scc", "Somatic cell count", TypeNumber, CategoryProduction},
	{"PCTF", "last_fat_percent", "Fat percentage", TypeNumber, CategoryProduction},
	{"PCTP", "last_protein_percent", "Protein percentage", TypeNumber, CategoryProduction},
	{"PDIM", "previous_dim", "Previous lactation DIM", TypeNumber, CategoryProduction},
	{"PTOTM", "previous_total_milk", "Previous total milk", TypeNumber, CategoryProduction},

	// Calculated
	{"DIM", "dim", "Days in milk", TypeNumber, CategoryCalculated},
	{"DOPN", "days_open", "Days open", TypeNumber, CategoryCalculated},
	{"DDRY", "days_dry", "Days dry", TypeNumber, CategoryCalculated},
	{"DCC", "days_carrying_calf", "Days pregnant", TypeNumber, CategoryCalculated},
	{"DUE", "days_to_calving", "Days until calving", TypeNumber, CategoryCalculated},
	{"DSLH", "days_since_last_heat", "Days since last heat", TypeNumber, CategoryCalculated},
	{"AGE", "age_months", "Age in months", TypeNumber, CategoryCalculated},
	{"AGEFR", "age_at_first_calving_months", "Age at first calving", TypeNumber, CategoryCalculated},

	// Health
	{"VC", "vet_code", "Veterinary code", TypeNumber, CategoryHealth},
	{"BCS", "last_body_condition_score", "Body condition score", TypeNumber, CategoryHealth},

	// Management
	{"NOTE", "permanent_note", "Permanent note", TypeString, CategoryManagement},
}

var (
	byCode   = make(map[string]Entry, len(entries))
	byColumn = make(map[string]string, len(entries))
	codes    = make([]string, 0, len(entries))
	columns  = make([]string, 0, len(entries))
)

func init() {
	for _, e := range entries {
		byCode[e.Code] = e
		codes = append(codes, e.Code)

		// First code in table order is canonical for a shared column (RC over RPRO).
		if _, ok := byColumn[e.Column]; !ok {
			byColumn[e.Column] = e.Code
			columns = append(columns, e.Column)
		}
	}
}

// CodeToColumn returns the column for a DairyComp code. Codes are matched case-insensitively.
func CodeToColumn(code string) (string, bool) {
	e, ok := byCode[strings.ToUpper(code)]
	if !ok {
		return "", false
	}
	return e.Column, true
}

// ColumnToCode returns the canonical code for a column.
func ColumnToCode(column string) (string, bool) {
	code, ok := byColumn[column]
	return code, ok
}

func Info(code string) (Entry, bool) {
	e, ok := byCode[strings.ToUpper(code)]
	return e, ok
}

// Codes returns all codes in table order.
func Codes() []string {
	return slices.Clone(codes)
}

// Columns returns every distinct column in table order.
func Columns() []string {
	return slices.Clone(columns)
}

// Entries returns the whole table in order.
func Entries() []Entry {
	return slices.Clone(entries)
}

func ByCategory(category Category) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// IsValidOperator reports whether op may be applied to the item. String items
// only support equality checks. Unknown codes accept nothing.
func IsValidOperator(code string, op ast.Operator) bool {
	e, ok := Info(code)
	if !ok || !op.Valid() {
		return false
	}

	if e.Type == TypeString {
		return op == ast.OpEqual || op == ast.OpNotEqual
	}

	return true
}

// IsRC reports whether the code is one of the reproductive code aliases.
func IsRC(code string) bool {
	c := strings.ToUpper(code)
	return c == "RC" || c == "RPRO"
}
