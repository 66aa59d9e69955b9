package batch

// ItemStatus is the processing outcome of a single uploaded file.
type ItemStatus string

// Upload item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one file in a multi-file upload.
type Result struct {
	file   string
	id     string
	tags   string
	status ItemStatus
	err    error
}

// NewOK creates a successful result for a stored item.
func NewOK(file, id, tags string) Result {
	return Result{file: file, id: id, tags: tags, status: StatusOK}
}

// NewError creates a failed result. tags may carry the model answer when only storage failed.
func NewError(file, tags string, err error) Result {
	return Result{file: file, tags: tags, status: StatusError, err: err}
}

// File returns the uploaded filename.
func (r Result) File() string { return r.file }

// ID returns the stored item identifier (empty on error).
func (r Result) ID() string { return r.id }

// Tags returns the normalised tag string, if tagging got that far.
func (r Result) Tags() string { return r.tags }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Count returns the number of successful and failed results.
func Count(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.status == StatusOK {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
