package prompt

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldOptions controls how struct fields map to Field.
type FieldOptions struct {
	NameTag         string
	DescTag         string
	TypeTag         string
	PromptTag       string
	RequiredDefault bool
}

// DefaultFieldOptions returns the standard tag mapping.
func DefaultFieldOptions() FieldOptions {
	return FieldOptions{
		NameTag:         "json",
		DescTag:         "prompt_desc",
		TypeTag:         "prompt_type",
		PromptTag:       "prompt",
		RequiredDefault: true,
	}
}

// FieldsFromStruct builds prompt fields from a Go struct using tags,
// so extraction targets and prompt schemas cannot drift apart.
func FieldsFromStruct(v any, opts ...FieldOptions) ([]Field, error) {
	if v == nil {
		return nil, fmt.Errorf("prompt: struct is nil")
	}
	cfg := DefaultFieldOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("prompt: expected struct, got %s", t.Kind())
	}
	return structFields(t, cfg), nil
}

func structFields(t reflect.Type, cfg FieldOptions) []Field {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if shouldSkipField(f, cfg.PromptTag) {
			continue
		}
		// Untagged embedded structs promote their fields, as in
		// encoding/json.
		if f.Anonymous && f.Tag.Get(cfg.NameTag) == "" {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				fields = append(fields, structFields(ft, cfg)...)
				continue
			}
		}
		name := fieldName(f, cfg.NameTag)
		if name == "" {
			continue
		}
		required := cfg.RequiredDefault
		if r, ok := requiredOverride(f, cfg.PromptTag); ok {
			required = r
		}
		fields = append(fields, Field{
			Name:        name,
			Type:        fieldType(f, cfg.TypeTag),
			Required:    required,
			Description: strings.TrimSpace(f.Tag.Get(cfg.DescTag)),
		})
	}
	return fields
}

// MustFieldsFromStruct panics on error; useful for prompt spec literals.
func MustFieldsFromStruct(v any, opts ...FieldOptions) []Field {
	fields, err := FieldsFromStruct(v, opts...)
	if err != nil {
		panic(err)
	}
	return fields
}

func shouldSkipField(f reflect.StructField, promptTag string) bool {
	tag := strings.TrimSpace(f.Tag.Get(promptTag))
	if tag == "" {
		return false
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "-" || part == "omit" {
			return true
		}
	}
	return false
}

func requiredOverride(f reflect.StructField, promptTag string) (bool, bool) {
	tag := strings.TrimSpace(f.Tag.Get(promptTag))
	if tag == "" {
		return false, false
	}
	for _, part := range strings.Split(tag, ",") {
		switch strings.TrimSpace(part) {
		case "required":
			return true, true
		case "optional":
			return false, true
		}
	}
	return false, false
}

func fieldName(f reflect.StructField, nameTag string) string {
	tag := strings.TrimSpace(f.Tag.Get(nameTag))
	if tag != "" {
		name := strings.Split(tag, ",")[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func fieldType(f reflect.StructField, typeTag string) string {
	tag := strings.TrimSpace(f.Tag.Get(typeTag))
	if tag != "" {
		return tag
	}
	return typeString(f.Type)
}

func typeString(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float64"
	case reflect.Slice:
		return "[]" + typeString(t.Elem())
	case reflect.Map:
		return fmt.Sprintf("map[%s]%s", typeString(t.Key()), typeString(t.Elem()))
	case reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return "object"
	case reflect.Interface:
		return "any"
	default:
		return t.Kind().String()
	}
}
