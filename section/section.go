// Package section maps commands to the sidebar section they correspond to,
// and sections back to their canonical command and route.
package section

import (
	"slices"

	"github.com/thisisjab/herdcomp/querier/ast"
)

type Section string

const (
	FreshCows      Section = "fresh-cows"
	ToBreed        Section = "to-breed"
	PregnancyCheck Section = "pregnancy-check"
	DryOff         Section = "dry-off"
	VetList        Section = "vet-list"
	Alerts         Section = "alerts"
)

var all = []Section{FreshCows, ToBreed, PregnancyCheck, DryOff, VetList, Alerts}

var templates = map[Section]string{
	FreshCows:      "LIST ID PEN LACT DIM FOR DIM<21",
	ToBreed:        "LIST ID PEN LACT DIM FOR RC=3 DIM>60",
	PregnancyCheck: "LIST ID PEN LACT DIM FOR RC=4",
	DryOff:         "LIST ID PEN RC DCC FOR RC=5 DCC>220",
	VetList:        "LIST ID PEN LACT DIM VC FOR VC>0",
	Alerts:         "LIST ID PEN MILK SCC FOR SCC>200",
}

var routes = map[Section]string{
	FreshCows:      "/animals?filter=fresh",
	ToBreed:        "/animals?filter=to-breed",
	PregnancyCheck: "/animals?filter=preg-check",
	DryOff:         "/animals?filter=dry-off",
	VetList:        "/vet",
	Alerts:         "/animals?filter=alerts",
}

var quickAccess = map[string]Section{
	"Fresh Cows":      FreshCows,
	"To Breed":        ToBreed,
	"Pregnancy Check": PregnancyCheck,
	"Dry Off":         DryOff,
	"Vet List":        VetList,
	"Alerts":          Alerts,
}

// DefaultRoute is where commands without a section lead.
const DefaultRoute = "/animals"

// All returns every section in sidebar order.
func All() []Section {
	return slices.Clone(all)
}

func (s Section) Valid() bool {
	_, ok := templates[s]
	return ok
}

// Template returns the LIST command that reproduces the section's list.
func (s Section) Template() string {
	return templates[s]
}

func (s Section) Route() string {
	if r, ok := routes[s]; ok {
		return r
	}
	return DefaultRoute
}

// FromQuickAccessName maps a sidebar quick access label to its section.
func FromQuickAccessName(name string) (Section, bool) {
	s, ok := quickAccess[name]
	return s, ok
}

type rule struct {
	section Section
	match   func(conds []ast.Condition) bool
}

// Rules are checked in order; the first that matches wins. No rule selects
// the vet list, which is only reached from the sidebar.
var rules = []rule{
	{FreshCows, func(conds []ast.Condition) bool {
		return anyCondition(conds, func(c ast.Condition) bool {
			return is(c, "DIM", ast.OpLess) && number(c, func(v float64) bool { return v <= 21 }) || rcEquals(c, 2)
		})
	}},
	{ToBreed, func(conds []ast.Condition) bool {
		return anyCondition(conds, func(c ast.Condition) bool { return rcEquals(c, 3) })
	}},
	{PregnancyCheck, func(conds []ast.Condition) bool {
		return anyCondition(conds, func(c ast.Condition) bool { return rcEquals(c, 4) })
	}},
	{DryOff, func(conds []ast.Condition) bool {
		dry := anyCondition(conds, func(c ast.Condition) bool {
			return rcEquals(c, 6) || is(c, "DCC", ast.OpGreater) && number(c, func(v float64) bool { return v >= 220 })
		})
		if dry {
			return true
		}

		pregnant := anyCondition(conds, func(c ast.Condition) bool { return rcEquals(c, 5) })
		hasDCC := anyCondition(conds, func(c ast.Condition) bool { return c.Field == "DCC" })
		return pregnant && hasDCC
	}},
	{Alerts, func(conds []ast.Condition) bool {
		return anyCondition(conds, func(c ast.Condition) bool {
			return (is(c, "SCC", ast.OpGreater) || is(c, "SCC", ast.OpGreaterEqual)) &&
				number(c, func(v float64) bool { return v >= 200 })
		})
	}},
}

// For classifies a command by its conditions. It reports false when the
// command has no conditions or none of them identify a section.
func For(cmd *ast.Command) (Section, bool) {
	if cmd == nil || len(cmd.Conditions) == 0 {
		return "", false
	}

	for _, r := range rules {
		if r.match(cmd.Conditions) {
			return r.section, true
		}
	}

	return "", false
}

func anyCondition(conds []ast.Condition, f func(ast.Condition) bool) bool {
	return slices.ContainsFunc(conds, f)
}

func is(c ast.Condition, field string, op ast.Operator) bool {
	return c.Field == field && c.Operator == op
}

func number(c ast.Condition, f func(float64) bool) bool {
	return c.Value.IsNumber() && f(c.Value.Number())
}

func rcEquals(c ast.Condition, code float64) bool {
	return is(c, "RC", ast.OpEqual) && c.Value.IsNumber() && c.Value.Number() == code
}
