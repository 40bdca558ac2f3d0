package validator

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	playground "github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/anamnese-api/pkg/errors"
)

const (
	requiredTag = "schema"
	defaultTag  = "default"
	rulesTag    = "validate"
)

var timeType = reflect.TypeOf(time.Time{})

// Validator checks decoded structs against their `validate` rules.
type Validator interface {
	Validate(interface{}) error
}

type validator struct {
	engine *playground.Validate
}

func New() Validator {
	engine := playground.New()
	engine.SetTagName(rulesTag)
	engine.RegisterTagNameFunc(jsonName)
	return &validator{engine: engine}
}

// Validate returns the first rule violation as a validation AppError with the
// JSON path of the offending field.
func (v *validator) Validate(obj interface{}) error {
	err := v.engine.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewInternal(err)
	}

	fe := fieldErrs[0]
	constraint := fe.Tag()
	if fe.Param() != "" {
		constraint += "=" + fe.Param()
	}
	return apperrors.NewValidation(stripRoot(fe.Namespace()), constraint)
}

// CheckRequired walks the type of v alongside the raw JSON document and reports
// the first field tagged schema:"required" that is absent or null. It returns
// the document rebuilt with only the declared JSON names, so keys that differ
// from a field name only in case never reach the decoder.
func CheckRequired(data []byte, v interface{}) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, apperrors.NewValidation("body", "json")
	}
	if raw == nil {
		return nil, apperrors.NewValidation("body", "required")
	}

	pruned, err := checkRequired(reflect.TypeOf(v), raw, "")
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(pruned)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return out, nil
}

func checkRequired(t reflect.Type, raw interface{}, path string) (interface{}, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		if t == timeType {
			return raw, nil
		}
		obj, ok := raw.(map[string]interface{})
		if !ok {
			// type mismatches are reported by the decoder
			return raw, nil
		}
		kept := make(map[string]interface{}, len(obj))
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name := jsonName(field)
			if name == "-" || !field.IsExported() {
				continue
			}
			fieldPath := join(path, name)
			val, present := obj[name]
			if !present || val == nil {
				if field.Tag.Get(requiredTag) == "required" {
					return nil, apperrors.NewValidation(fieldPath, "required")
				}
				if present {
					kept[name] = nil
				}
				continue
			}
			child, err := checkRequired(field.Type, val, fieldPath)
			if err != nil {
				return nil, err
			}
			kept[name] = child
		}
		return kept, nil
	case reflect.Slice:
		items, ok := raw.([]interface{})
		if !ok {
			return raw, nil
		}
		kept := make([]interface{}, len(items))
		for i, item := range items {
			child, err := checkRequired(t.Elem(), item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			kept[i] = child
		}
		return kept, nil
	}
	return raw, nil
}

// ApplyDefaults fills `default` tags on empty fields and replaces nil slices
// with empty ones. default:"now" on a time.Time field sets it to now.
// v must be a non-nil pointer.
func ApplyDefaults(v interface{}, now time.Time) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("apply defaults: expected non-nil pointer, got %T", v)
	}
	return applyDefaults(rv.Elem(), now)
}

func applyDefaults(v reflect.Value, now time.Time) error {
	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			return applyDefaults(v.Elem(), now)
		}
	case reflect.Slice:
		if v.IsNil() {
			v.Set(reflect.MakeSlice(v.Type(), 0, 0))
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := applyDefaults(v.Index(i), now); err != nil {
				return err
			}
		}
	case reflect.Struct:
		if v.Type() == timeType {
			return nil
		}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fv := v.Field(i)
			if def, ok := field.Tag.Lookup(defaultTag); ok && fv.IsZero() {
				if err := setDefault(fv, def, now); err != nil {
					return fmt.Errorf("field %s: %w", field.Name, err)
				}
			}
			if err := applyDefaults(fv, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func setDefault(fv reflect.Value, def string, now time.Time) error {
	if fv.Type() == timeType {
		if def != "now" {
			return fmt.Errorf("unsupported time default %q", def)
		}
		fv.Set(reflect.ValueOf(now))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(def)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(def, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(def, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(def)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported default for kind %s", fv.Kind())
	}
	return nil
}

// TypeError converts a decoder type mismatch into a validation AppError.
func TypeError(err *json.UnmarshalTypeError) *apperrors.AppError {
	field := err.Field
	if field == "" {
		field = "body"
	}
	return apperrors.NewValidation(field, "type="+kindName(err.Type))
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	if t == timeType {
		return "datetime"
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Ptr:
		return kindName(t.Elem())
	}
	return t.Kind().String()
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		return field.Name
	}
	return name
}

func stripRoot(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
