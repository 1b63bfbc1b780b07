// Package views holds the screen state of the auditdesk client: one generic
// list, detail and form view parameterised per resource, plus the route map
// that decides which screen a path shows.
//
// Views are driven from a single goroutine and are not safe for concurrent use.
package views

import (
	"context"

	"github.com/persistorai/auditdesk/client"
)

// GenericError is shown when a failure carries no server message.
const GenericError = "Something went wrong"

// Status is the load state of a view.
type Status int

// View states. Empty and Loaded are both successful loads.
const (
	StatusLoading Status = iota
	StatusEmpty
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusEmpty:
		return "loaded-empty"
	case StatusLoaded:
		return "loaded-nonempty"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func message(err error) string {
	return client.ErrorMessage(err, GenericError)
}

// ListView fetches every row of a resource.
type ListView[T any] struct {
	Resource *Resource[T]

	status Status
	rows   []T
	err    string
}

// NewListView returns a list view in the loading state.
func NewListView[T any](r *Resource[T]) *ListView[T] {
	return &ListView[T]{Resource: r}
}

// Load fetches the rows. Failures are kept as the view's error message and
// also returned.
func (v *ListView[T]) Load(ctx context.Context) error {
	v.status = StatusLoading
	v.err = ""

	rows, err := v.Resource.List(ctx)
	if err != nil {
		v.status = StatusError
		v.rows = nil
		v.err = message(err)

		return err
	}

	v.rows = rows
	if len(rows) == 0 {
		v.status = StatusEmpty
	} else {
		v.status = StatusLoaded
	}

	return nil
}

// Status returns the load state.
func (v *ListView[T]) Status() Status { return v.status }

// Rows returns the loaded rows.
func (v *ListView[T]) Rows() []T { return v.rows }

// Error returns the message to display in the error state.
func (v *ListView[T]) Error() string { return v.err }

// Table renders the rows as header and cell strings using the resource columns.
func (v *ListView[T]) Table() (header []string, cells [][]string) {
	header = make([]string, len(v.Resource.Columns))
	for i, col := range v.Resource.Columns {
		header[i] = col.Header
	}

	cells = make([][]string, 0, len(v.rows))

	for i := range v.rows {
		row := make([]string, len(v.Resource.Columns))
		for j, col := range v.Resource.Columns {
			row[j] = col.Value(&v.rows[i])
		}

		cells = append(cells, row)
	}

	return header, cells
}

// RowRoute returns where selecting the i-th row navigates to.
func (v *ListView[T]) RowRoute(i int) string {
	return v.Resource.DetailRoute(v.Resource.ID(&v.rows[i]))
}

// DetailView fetches one row of a resource.
type DetailView[T any] struct {
	Resource *Resource[T]
	ID       string

	status Status
	row    *T
	err    string
}

// NewDetailView returns a detail view for id in the loading state.
func NewDetailView[T any](r *Resource[T], id string) *DetailView[T] {
	return &DetailView[T]{Resource: r, ID: id}
}

// Load fetches the row. A missing row is an error state carrying the server's
// not-found message.
func (v *DetailView[T]) Load(ctx context.Context) error {
	v.status = StatusLoading
	v.err = ""

	row, err := v.Resource.Get(ctx, v.ID)
	if err != nil {
		v.status = StatusError
		v.row = nil
		v.err = message(err)

		return err
	}

	v.row = row
	v.status = StatusLoaded

	return nil
}

// Status returns the load state.
func (v *DetailView[T]) Status() Status { return v.status }

// Row returns the loaded row.
func (v *DetailView[T]) Row() *T { return v.row }

// Error returns the message to display in the error state.
func (v *DetailView[T]) Error() string { return v.err }

// Delete removes the row and returns the list route to navigate to.
func (v *DetailView[T]) Delete(ctx context.Context) (string, error) {
	if v.Resource.Delete == nil {
		return "", errReadOnly
	}

	if err := v.Resource.Delete(ctx, v.ID); err != nil {
		v.err = message(err)
		return "", err
	}

	return v.Resource.Route, nil
}

// Option is one choice of a reference dropdown.
type Option struct {
	Value string
	Label string
}

// OptionLoader fetches the choices for one form field.
type OptionLoader func(ctx context.Context) ([]Option, error)

// FormView creates or edits one row. In is the payload type submitted.
type FormView[T, In any] struct {
	// ID is empty in create mode.
	ID string

	load    func(ctx context.Context, id string) (*T, error)
	create  func(ctx context.Context, in *In) (*T, error)
	update  func(ctx context.Context, id string, in *In) (*T, error)
	refs    map[string]OptionLoader
	backFor func(saved *T) string

	status   Status
	existing *T
	options  map[string][]Option
	err      string
}

// Editing reports whether the form edits an existing row.
func (f *FormView[T, In]) Editing() bool { return f.ID != "" }

// Load fetches the reference options and, in edit mode, the existing row.
// Any failure puts the form in the error state.
func (f *FormView[T, In]) Load(ctx context.Context) error {
	f.status = StatusLoading
	f.err = ""
	f.options = make(map[string][]Option, len(f.refs))

	for field, loader := range f.refs {
		opts, err := loader(ctx)
		if err != nil {
			return f.fail(err)
		}

		f.options[field] = opts
	}

	if f.Editing() {
		row, err := f.load(ctx, f.ID)
		if err != nil {
			return f.fail(err)
		}

		f.existing = row
	}

	f.status = StatusLoaded

	return nil
}

// Submit creates or updates the row. On success it returns the saved row and
// the route to navigate back to; on failure the server message is kept for
// display and the error is returned.
func (f *FormView[T, In]) Submit(ctx context.Context, in *In) (*T, string, error) {
	f.err = ""

	var (
		saved *T
		err   error
	)

	if f.Editing() {
		saved, err = f.update(ctx, f.ID, in)
	} else {
		saved, err = f.create(ctx, in)
	}

	if err != nil {
		f.err = message(err)
		return nil, "", err
	}

	return saved, f.backFor(saved), nil
}

// Status returns the load state.
func (f *FormView[T, In]) Status() Status { return f.status }

// Existing returns the row being edited, or nil in create mode.
func (f *FormView[T, In]) Existing() *T { return f.existing }

// Options returns the loaded choices for a reference field.
func (f *FormView[T, In]) Options(field string) []Option { return f.options[field] }

// Error returns the last load or submit failure message.
func (f *FormView[T, In]) Error() string { return f.err }

func (f *FormView[T, In]) fail(err error) error {
	f.status = StatusError
	f.err = message(err)

	return err
}
