package backup

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/owned"
	"github.com/go-playground/validator/v10"
)

var rowValidate = newRowValidator()

func newRowValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// describeInvalid turns validator output into a short reason such as
// "kind must be one of credit debit".
func describeInvalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return errors.New(strings.Join(parts, ", "))
}

// run holds the state of one import. Nothing in it outlives the call.
type run struct {
	ownerID int64
	maps    map[Collection]*IDMap
}

func newRun(ownerID int64, plan *Plan) *run {
	r := &run{ownerID: ownerID, maps: make(map[Collection]*IDMap, len(plan.Referenced))}
	for c := range plan.Referenced {
		r.maps[c] = NewIDMap()
	}
	return r
}

// fold is the outcome of importing one collection.
type fold struct {
	count  int
	errors []*RowError
}

// handler is the engine's view of a collection.
type handler interface {
	export(ctx context.Context, ownerID int64, doc *Document) error
	load(ctx context.Context, r *run, doc *Document) fold
	purge(ctx context.Context, ownerID int64) (int64, error)
	count(ctx context.Context, ownerID int64) (int64, error)
}

// collection binds a typed repository to its place in the document.
type collection[T any] struct {
	name   Collection
	entity string
	repo   owned.Repository[T]
	rows   func(*Document) *[]*T
	id     func(*T) int64
	label  func(*T) string

	// remap rewrites the row's references into the destination id space.
	// It may reject the row by returning an error. Nil means no references.
	remap func(r *run, row *T) (*T, error)
}

func (c *collection[T]) export(ctx context.Context, ownerID int64, doc *Document) error {
	rows, err := c.repo.FetchAll(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("export %s: %w", c.name, err)
	}
	*c.rows(doc) = rows
	return nil
}

// load inserts the document's rows one by one. A rejected row is recorded
// and the fold continues with the next one.
func (c *collection[T]) load(ctx context.Context, r *run, doc *Document) fold {
	var out fold
	idmap := r.maps[c.name]

	for i, row := range *c.rows(doc) {
		if row == nil {
			out.errors = append(out.errors, c.reject(fmt.Sprintf("#%d", i+1), errors.New("row is empty")))
			continue
		}

		newID, err := c.insert(ctx, r, row)
		if err != nil {
			out.errors = append(out.errors, c.reject(c.describe(row), err))
			continue
		}

		if idmap != nil {
			idmap.Put(c.id(row), newID)
		}
		out.count++
	}
	return out
}

func (c *collection[T]) insert(ctx context.Context, r *run, row *T) (int64, error) {
	if err := rowValidate.Struct(row); err != nil {
		return 0, describeInvalid(err)
	}

	target := row
	if c.remap != nil {
		var err error
		if target, err = c.remap(r, row); err != nil {
			return 0, err
		}
	}

	return c.repo.Insert(ctx, r.ownerID, target)
}

func (c *collection[T]) describe(row *T) string {
	if l := c.label(row); l != "" {
		return l
	}
	return fmt.Sprintf("#%d", c.id(row))
}

func (c *collection[T]) reject(label string, err error) *RowError {
	return &RowError{Collection: c.name, Entity: c.entity, Label: label, Err: err}
}

func (c *collection[T]) purge(ctx context.Context, ownerID int64) (int64, error) {
	return c.repo.DeleteAll(ctx, ownerID)
}

func (c *collection[T]) count(ctx context.Context, ownerID int64) (int64, error) {
	return c.repo.Count(ctx, ownerID)
}

// missing builds the rejection reason for an unresolved mandatory reference.
func missing(ref string) error {
	return fmt.Errorf("%s %w", ref, ErrReferenceNotFound)
}
