package model

import (
	"errors"
	"fmt"
)

// ErrSchemaViolation is wrapped by every construction-time validation failure.
var ErrSchemaViolation = errors.New("schema violation")

// FieldError identifies the field and value that failed validation.
type FieldError struct {
	Record string // grid_style_options, game_map, map_category, map_marker, map_dataset
	Path   string // dotted path, e.g. "grid_options.line_opacity" or "markers[3].position_x"
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s: %s", e.Record, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s (got %v)", e.Record, e.Path, e.Reason, e.Value)
}

// Unwrap lets errors.Is match ErrSchemaViolation.
func (e *FieldError) Unwrap() error {
	return ErrSchemaViolation
}

func fieldErr(record, path string, value any, format string, args ...any) error {
	return &FieldError{
		Record: record,
		Path:   path,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
	}
}

// withPrefix nests a FieldError under parent. The outermost record name wins.
func withPrefix(err error, record, parent string) error {
	var fe *FieldError
	if !errors.As(err, &fe) {
		return err
	}
	path := parent
	if fe.Path != "" {
		path = parent + "." + fe.Path
	}
	return &FieldError{
		Record: record,
		Path:   path,
		Value:  fe.Value,
		Reason: fe.Reason,
	}
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
