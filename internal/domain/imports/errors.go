package imports

import "fmt"

// RowError is a validation failure pinned to one input row. Row is 1-based
// over data rows, header excluded.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}
