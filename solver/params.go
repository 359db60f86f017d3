// SPDX-License-Identifier: MIT

package solver

import (
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Parameter names understood by the built-in backends.
const (
	ParamPrintTiming    = "PrintTiming"
	ParamPrintStatus    = "PrintStatus"
	ParamAddToDiag      = "AddToDiag"
	ParamRefactorize    = "Refactorize"
	ParamPivotThreshold = "PivotThreshold"
	ParamReorder        = "Reorder"
	ParamSingularTol    = "SingularTol"
)

// DefaultPivotThreshold keeps classic partial pivoting in dense-lu.
const DefaultPivotThreshold = 1.0

// Params is the loosely typed parameter list accepted by Create and
// SetParameters. Values are bool, a Go number type, or string.
type Params map[string]any

// Settings is the validated form of Params.
type Settings struct {
	PrintTiming    bool
	PrintStatus    bool
	AddToDiag      float64
	Refactorize    bool
	PivotThreshold float64
	Reorder        bool
	SingularTol    float64 // |pivot| at or below this is a zero pivot
}

// DefaultSettings returns the settings of an empty parameter list.
func DefaultSettings() Settings {
	return Settings{PivotThreshold: DefaultPivotThreshold, Reorder: true}
}

// Apply returns base updated from p. Unknown keys are returned sorted and
// otherwise ignored.
// Errors: ErrInvalidParameter for a value of the wrong type or range.
func (p Params) Apply(base Settings) (Settings, []string, error) {
	s := base
	var unknown []string
	keys := maps.Keys(p)
	slices.Sort(keys)

	var err error
	for _, k := range keys {
		v := p[k]
		switch k {
		case ParamPrintTiming:
			s.PrintTiming, err = asBool(k, v)
		case ParamPrintStatus:
			s.PrintStatus, err = asBool(k, v)
		case ParamRefactorize:
			s.Refactorize, err = asBool(k, v)
		case ParamReorder:
			s.Reorder, err = asBool(k, v)
		case ParamAddToDiag:
			s.AddToDiag, err = asFloat(k, v)
		case ParamPivotThreshold:
			s.PivotThreshold, err = asFloat(k, v)
			if err == nil && (s.PivotThreshold < 0 || s.PivotThreshold > 1) {
				err = fmt.Errorf("%s = %g outside [0,1]: %w", k, s.PivotThreshold, ErrInvalidParameter)
			}
		case ParamSingularTol:
			s.SingularTol, err = asFloat(k, v)
			if err == nil && s.SingularTol < 0 {
				err = fmt.Errorf("%s = %g is negative: %w", k, s.SingularTol, ErrInvalidParameter)
			}
		default:
			unknown = append(unknown, k)
		}
		if err != nil {
			return base, nil, err
		}
	}

	return s, unknown, nil
}

func asBool(key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: want bool, got %T: %w", key, v, ErrInvalidParameter)
	}

	return b, nil
}

func asFloat(key string, v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, fmt.Errorf("%s: want number, got %T: %w", key, v, ErrInvalidParameter)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: non-finite value: %w", key, ErrInvalidParameter)
	}

	return f, nil
}
