package entities

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports field-level rule failures, indexed by field name so
// a presenter can attach each message to the originating input.
type ValidationError struct {
	Entity string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return fmt.Sprintf("%s validation failed", e.entityName())
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s validation failed: %s", e.entityName(), strings.Join(parts, "; "))
}

func (e *ValidationError) entityName() string {
	if e == nil || e.Entity == "" {
		return "entity"
	}
	return e.Entity
}

// Blocker identifies an entity holding a reference that prevents a delete.
type Blocker struct {
	Kind string `json:"kind"` // "model" or "print"
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// ReferentialIntegrityError refuses a delete while inbound references exist.
// The blocker list tells the presenter what still points at the entity; for
// filaments, soft-retire remains available to the caller.
type ReferentialIntegrityError struct {
	Subject  string // e.g. `filament "Galaxy Black"`, `material type "PLA"`
	Blockers []Blocker
}

func (e *ReferentialIntegrityError) Error() string {
	names := make([]string, 0, len(e.Blockers))
	for _, b := range e.Blockers {
		names = append(names, fmt.Sprintf("%s %q", b.Kind, b.Name))
	}
	return fmt.Sprintf("%s is still referenced by %s", e.Subject, strings.Join(names, ", "))
}

// StockDeficit describes one filament that cannot cover a requested debit.
type StockDeficit struct {
	FilamentID ID     `json:"filamentId"`
	ColorName  string `json:"colorName"`
	Requested  Grams  `json:"requested"`
	Available  Grams  `json:"available"`
	Deficit    Grams  `json:"deficit"`
}

// InsufficientStockError rejects a print whose usages would drive any spool
// negative. The caller may retry with the allow-negative flag.
type InsufficientStockError struct {
	Deficits []StockDeficit
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Deficits))
	for _, d := range e.Deficits {
		parts = append(parts, fmt.Sprintf("%s short %.2fg", d.ColorName, float64(d.Deficit)))
	}
	return fmt.Sprintf("insufficient stock: %s", strings.Join(parts, ", "))
}

// SchemaError marks a blob that cannot be recognized as any supported
// snapshot shape. Migration warnings are never fatal; this is.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unrecognized snapshot: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// PersistenceError surfaces a store failure after the fallback was also
// tried. In-memory state is never affected by one.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RejectedEntity records one imported entity that failed validation and was
// skipped without aborting the import.
type RejectedEntity struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportError reports a total import failure (parse or unrecognized shape).
// Per-entity failures travel in the rejection list of the import result, not
// here.
type ImportError struct {
	Stage string
	Err   error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed at %s: %v", e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
