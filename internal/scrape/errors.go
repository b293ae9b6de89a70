package scrape

import "fmt"

// StructureChangedError means a page no longer looks the way the extractor expects.
// Nothing partial is ever returned alongside it.
type StructureChangedError struct {
	What string
	Err  error
}

func (e *StructureChangedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("panel markup changed: %s: %v", e.What, e.Err)
	}
	return "panel markup changed: " + e.What
}

func (e *StructureChangedError) Unwrap() error { return e.Err }

func changed(format string, args ...any) error {
	return &StructureChangedError{What: fmt.Sprintf(format, args...)}
}
