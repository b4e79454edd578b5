package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaVal  cue.Value
	schemaErr  error
)

func schema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaVal = schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		schemaErr = schemaVal.Err()
	})
	return schemaCtx, schemaVal, schemaErr
}

// checkSchema validates a decoded YAML document against the named
// definition of schema.cue. It returns every violation, in CUE's order.
func checkSchema(definition string, doc any) []ValidationError {
	ctx, s, err := schema()
	if err != nil {
		return []ValidationError{{Code: ErrCodeSchema, Field: "schema", Message: err.Error()}}
	}
	def := s.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return []ValidationError{{Code: ErrCodeSchema, Field: "schema", Message: fmt.Sprintf("definition %s not found", definition)}}
	}

	v := ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return toValidationErrors(err)
	}
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, ValidationError{
			Code:    ErrCodeSchema,
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Code: ErrCodeSchema, Message: err.Error()})
	}
	return out
}
