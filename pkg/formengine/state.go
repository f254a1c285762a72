package formengine

import (
	"reflect"

	"github.com/mohae/deepcopy"
)

// Values maps field names to their current value.
type Values map[string]any

// Errors maps field names to an error message. A missing key or an empty
// message both mean the field has no error.
type Errors map[string]string

// Touched maps field names to whether the field has been blurred or force
// touched by a submit attempt.
type Touched map[string]bool

// State is a point-in-time copy of an engine's observable state, suitable for
// rendering or serialising.
type State struct {
	Values       Values  `json:"values" yaml:"values"`
	Errors       Errors  `json:"errors" yaml:"errors"`
	Touched      Touched `json:"touched" yaml:"touched"`
	IsSubmitting bool    `json:"isSubmitting" yaml:"isSubmitting"`
	IsValid      bool    `json:"isValid" yaml:"isValid"`
	IsDirty      bool    `json:"isDirty" yaml:"isDirty"`
}

// HasErrors reports whether any entry carries a non-empty message.
func (e Errors) HasErrors() bool {
	for _, msg := range e {
		if msg != "" {
			return true
		}
	}
	return false
}

func (v Values) clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = deepCopy(val)
	}
	return out
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for k, msg := range e {
		out[k] = msg
	}
	return out
}

func (t Touched) clone() Touched {
	out := make(Touched, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func deepCopy(value any) any {
	if value == nil {
		return nil
	}
	return deepcopy.Copy(value)
}

// sameValue treats a nil slice or map as equal to an empty one, so clearing a
// list back to nothing does not mark the field dirty.
func sameValue(a, b any) bool {
	if isEmptyContainer(a) && isEmptyContainer(b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isEmptyContainer(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}
