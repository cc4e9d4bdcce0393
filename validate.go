package toon

import "fmt"

// ValidationError describes one validation failure. Validation failures
// are data, not exceptions: they accumulate in a ValidationResult.
type ValidationError struct {
	Path     string // dotted path to the offending field, with [i] indexes
	Field    string
	Expected string // expected type or "non-null"
	Actual   any    // offending value or observed type name
	Message  string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult contains all validation errors and warnings.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidateOptions configures record validation.
type ValidateOptions struct {
	// FailFast stops at the first error per record, bounding cost on huge
	// inputs. Errors from other records are still collected.
	FailFast bool

	// AllowExtraFields controls whether record keys absent from the schema
	// produce warnings (true, the default via DefaultValidateOptions) or
	// errors.
	AllowExtraFields bool
}

// DefaultValidateOptions returns the default validation behavior.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{AllowExtraFields: true}
}

// ValidateRecords checks every record against every schema field and
// reports the outcome as data. It never returns an error: a malformed
// record is a validation entry, not an exception.
func ValidateRecords(records []Record, schema *Schema, opts *ValidateOptions) *ValidationResult {
	o := DefaultValidateOptions()
	if opts != nil {
		o = *opts
	}

	v := &validator{opts: o, schema: schema}
	for i, rec := range records {
		v.validateRecord(rec, schema, fmt.Sprintf("[%d]", i))
	}

	return &ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

type validator struct {
	opts     ValidateOptions
	schema   *Schema
	errors   []ValidationError
	warnings []ValidationError
}

// validateRecord checks one record at the given path. Returns false when
// failFast tripped for this record.
func (v *validator) validateRecord(rec Record, schema *Schema, path string) bool {
	for _, f := range schema.Fields {
		fieldPath := joinPath(path, f.Name)
		val, present := rec[f.Name]

		if !present || isNull(val) {
			if !f.Nullable {
				v.addError(ValidationError{
					Path:     fieldPath,
					Field:    f.Name,
					Expected: "non-null " + f.Type.String(),
					Actual:   nil,
					Message:  "null value on non-nullable field",
				})
				if v.opts.FailFast {
					return false
				}
			}
			continue
		}

		if !v.validateValue(val, f, fieldPath) && v.opts.FailFast {
			return false
		}
	}

	// Keys outside the schema.
	for key := range rec {
		if schema.GetField(key) == nil {
			entry := ValidationError{
				Path:    joinPath(path, key),
				Field:   key,
				Message: "field not in schema",
			}
			if v.opts.AllowExtraFields {
				v.warnings = append(v.warnings, entry)
			} else {
				v.addError(entry)
				if v.opts.FailFast {
					return false
				}
			}
		}
	}

	return true
}

// validateValue checks one non-null value against its field schema.
// Returns false if an error was recorded.
func (v *validator) validateValue(val any, f *FieldSchema, path string) bool {
	typ, err := classifyValue(val)
	if err != nil {
		v.addError(ValidationError{
			Path:     path,
			Field:    f.Name,
			Expected: f.Type.String(),
			Actual:   val,
			Message:  fmt.Sprintf("unsupported value of type %T", val),
		})
		return false
	}

	// A null-typed field (all-null sample) accepts anything null-ish only;
	// non-null values against it are mismatches.
	if typ != f.Type {
		v.addError(ValidationError{
			Path:     path,
			Field:    f.Name,
			Expected: f.Type.String(),
			Actual:   val,
			Message:  fmt.Sprintf("expected %s, got %s", f.Type, typ),
		})
		return false
	}

	switch typ {
	case TypeArray:
		if f.Items == nil {
			return true // array of scalars, nothing nested to check
		}
		elems, _ := asArray(val)
		ok := true
		for i, e := range elems {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			r, isRec := asRecord(e)
			if !isRec {
				v.addError(ValidationError{
					Path:     elemPath,
					Field:    f.Name,
					Expected: "object",
					Actual:   e,
					Message:  "array element is not a record",
				})
				ok = false
				if v.opts.FailFast {
					return false
				}
				continue
			}
			if !v.validateRecord(r, f.Items, elemPath) {
				ok = false
			}
		}
		return ok

	case TypeObject:
		if f.Properties == nil {
			return true
		}
		r, _ := asRecord(val)
		return v.validateRecord(r, f.Properties, path)
	}

	return true
}

func (v *validator) addError(e ValidationError) {
	v.errors = append(v.errors, e)
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
