// Package patch applies RFC 6902 JSON patches to a form engine's values. Each
// top-level field the patch changes goes through HandleChange, so patched
// fields get the same optimistic error clearing as typed input.
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/goliatone/go-formstate/pkg/formengine"
)

// ErrUnknownField is returned when a patch would add a field the engine does
// not manage. Nothing is applied in that case.
var ErrUnknownField = errors.New("patch: unknown field")

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
	OperationMove    = "move"
	OperationCopy    = "copy"
	OperationTest    = "test"
)

// Operation is one RFC 6902 operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value"`
}

// MarshalJSON keeps value, even when zero, only for operations that take one.
func (o Operation) MarshalJSON() ([]byte, error) {
	out := map[string]any{"op": o.Op, "path": o.Path}
	if o.From != "" {
		out["from"] = o.From
	}
	switch o.Op {
	case OperationAdd, OperationReplace, OperationTest:
		out["value"] = o.Value
	}
	return json.Marshal(out)
}

// Target is the engine surface a patch is applied through.
type Target interface {
	Values() formengine.Values
	HandleChange(name string, value any)
}

// Decode parses a JSON array of operations.
func Decode(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("patch: decode: %w", err)
	}
	return ops, nil
}

// Apply patches the target's current values and returns the names of the
// fields that changed, sorted. A replace on a missing path is treated as add
// and a remove on a missing path is dropped. Removing a field sets it to nil.
// Numbers come back as float64, as with any JSON decode.
func Apply(target Target, ops []Operation) ([]string, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	current := target.Values()
	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("patch: encode values: %w", err)
	}

	patchJSON, err := json.Marshal(normalize(currentJSON, ops))
	if err != nil {
		return nil, fmt.Errorf("patch: encode operations: %w", err)
	}
	decoded, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("patch: decode operations: %w", err)
	}
	patchedJSON, err := decoded.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("patch: apply: %w", err)
	}

	var next map[string]any
	if err := json.Unmarshal(patchedJSON, &next); err != nil {
		return nil, fmt.Errorf("patch: result is not an object: %w", err)
	}
	for name := range next {
		if _, ok := current[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
	}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	var changed []string
	for _, name := range names {
		value := next[name]
		if sameJSON(current[name], value) {
			continue
		}
		target.HandleChange(name, value)
		changed = append(changed, name)
	}
	return changed, nil
}

func normalize(currentJSON []byte, ops []Operation) []Operation {
	var doc any
	if err := json.Unmarshal(currentJSON, &doc); err != nil {
		return ops
	}

	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !pathExists(doc, op.Path) {
				op.Op = OperationAdd
			}
		case OperationRemove:
			if !pathExists(doc, op.Path) {
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

func pathExists(doc any, path string) bool {
	if path == "" {
		return true
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}

	node := doc
	for _, token := range strings.Split(path[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch typed := node.(type) {
		case map[string]any:
			value, ok := typed[token]
			if !ok {
				return false
			}
			node = value
		case []any:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(typed) {
				return false
			}
			node = typed[idx]
		default:
			return false
		}
	}
	return true
}

func sameJSON(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(left, right)
}
