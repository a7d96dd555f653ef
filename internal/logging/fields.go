package logging

import (
	"log/slog"
	"time"
)

// Common field names so every stage logs the same keys.
const (
	FieldRunID    = "run_id"
	FieldStage    = "stage"
	FieldPath     = "path"
	FieldCount    = "count"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldURL      = "url"
)

// RunID returns a slog attribute for the run identifier.
func RunID(id string) slog.Attr {
	return slog.String(FieldRunID, id)
}

// Stage returns a slog attribute for the pipeline stage name.
func Stage(name string) slog.Attr {
	return slog.String(FieldStage, name)
}

// Path returns a slog attribute for a file path.
func Path(p string) slog.Attr {
	return slog.String(FieldPath, p)
}

// Count returns a slog attribute for a record count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// Duration returns a slog attribute for an elapsed time in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// URL returns a slog attribute for a remote endpoint.
func URL(u string) slog.Attr {
	return slog.String(FieldURL, u)
}

// Err returns a slog attribute for an error. A nil error logs as "".
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
