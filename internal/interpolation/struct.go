package interpolation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// InterpolateStruct applies environment variable expansion to fields tagged
// with `env_interpolation:"yes"`. The struct is modified in place. String
// fields, string maps, string slices, nested structs and struct pointers are
// handled; interface-typed values must call this on their concrete type.
func InterpolateStruct(v any) error {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)

	if val.Kind() == reflect.Interface {
		return errors.New("InterpolateStruct cannot handle interface types, call from concrete type instead")
	}

	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct or pointer to struct, got %T", v)
	}

	typ := val.Type()
	var errs []error

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		// Only string-valued fields are gated by the tag. Nested structs
		// are always descended into so their own tagged fields expand.
		tagged := strings.ToLower(fieldType.Tag.Get("env_interpolation")) == "yes"

		switch field.Kind() {
		case reflect.String:
			if !tagged {
				continue
			}
			original := field.String()
			if original == "" {
				continue
			}
			expanded, err := ExpandEnvVars(original)
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
				continue
			}
			field.SetString(expanded)

		case reflect.Map:
			if !tagged {
				continue
			}
			if field.Type().Key().Kind() != reflect.String ||
				field.Type().Elem().Kind() != reflect.String ||
				field.IsNil() {
				continue
			}
			for _, key := range field.MapKeys() {
				expanded, err := ExpandEnvVars(field.MapIndex(key).String())
				if err != nil {
					errs = append(errs, fmt.Errorf("field %s[%s]: %w", fieldType.Name, key.String(), err))
					continue
				}
				field.SetMapIndex(key, reflect.ValueOf(expanded))
			}

		case reflect.Slice:
			elemType := field.Type().Elem()
			switch elemType.Kind() {
			case reflect.String:
				if !tagged {
					continue
				}
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					if elem.String() == "" {
						continue
					}
					expanded, err := ExpandEnvVars(elem.String())
					if err != nil {
						errs = append(errs, fmt.Errorf("field %s[%d]: %w", fieldType.Name, j, err))
						continue
					}
					elem.SetString(expanded)
				}
			case reflect.Struct:
				for j := 0; j < field.Len(); j++ {
					if err := InterpolateStruct(field.Index(j).Addr().Interface()); err != nil {
						errs = append(errs, fmt.Errorf("field %s[%d]: %w", fieldType.Name, j, err))
					}
				}
			case reflect.Ptr:
				if elemType.Elem().Kind() != reflect.Struct {
					continue
				}
				for j := 0; j < field.Len(); j++ {
					elem := field.Index(j)
					if elem.IsNil() {
						continue
					}
					if err := InterpolateStruct(elem.Interface()); err != nil {
						errs = append(errs, fmt.Errorf("field %s[%d]: %w", fieldType.Name, j, err))
					}
				}
			}

		case reflect.Struct:
			if err := InterpolateStruct(field.Addr().Interface()); err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
			}

		case reflect.Ptr:
			if field.Type().Elem().Kind() == reflect.Struct && !field.IsNil() {
				if err := InterpolateStruct(field.Interface()); err != nil {
					errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}
