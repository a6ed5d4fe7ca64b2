package database

import (
	"strconv"
	"strings"
)

// Filter accumulates optional WHERE conditions with positional arguments.
// Each expression uses a single "?" that is replaced by the next $n.
type Filter struct {
	conds []string
	args  []interface{}
}

func NewFilter(args ...interface{}) *Filter {
	return &Filter{args: args}
}

// Add appends expr when arg is set.
func (f *Filter) Add(expr string, arg interface{}) *Filter {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.Replace(expr, "?", "$"+strconv.Itoa(len(f.args)), 1))
	return f
}

// AddIf is Add guarded by ok.
func (f *Filter) AddIf(ok bool, expr string, arg interface{}) *Filter {
	if ok {
		f.Add(expr, arg)
	}
	return f
}

// Cond appends an expression that takes no argument.
func (f *Filter) Cond(ok bool, expr string) *Filter {
	if ok {
		f.conds = append(f.conds, expr)
	}
	return f
}

// Where renders " WHERE a AND b", or "" when nothing was added.
func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func (f *Filter) Args() []interface{} {
	return f.args
}
