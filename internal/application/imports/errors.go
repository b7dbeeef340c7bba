package imports

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidFile       = errors.New("invalid import file")
	ErrNoHeader          = errors.New("input file has no header row")
	ErrNoRecords         = errors.New("no importable rows found")
	ErrNotReady          = errors.New("import session is not ready to upload")
	ErrExecutorBusy      = errors.New("import executor queue is full")
)
