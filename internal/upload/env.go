package upload

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ApplyEnvironmentVariables overrides configuration values with the
// environment variables named by the `env` struct tags. Unset or empty
// variables leave the current value untouched.
func (c *Config) ApplyEnvironmentVariables() error {
	return applyEnv(reflect.ValueOf(c).Elem())
}

func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)

		if sf.Type.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		envVar := sf.Tag.Get("env")
		if envVar == "" {
			continue
		}
		if err := setFieldFromEnv(field, envVar); err != nil {
			return err
		}
	}
	return nil
}

// setFieldFromEnv sets field from the environment variable envVar.
func setFieldFromEnv(field reflect.Value, envVar string) error {
	value, ok := os.LookupEnv(envVar)
	if !ok || value == "" {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "invalid integer in %s", envVar)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return errors.Wrapf(err, "invalid boolean in %s", envVar)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return errors.Newf("unsupported slice type for %s", envVar)
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return errors.Newf("unsupported field type %s for %s", field.Kind(), envVar)
	}
	return nil
}
