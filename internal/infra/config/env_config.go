// Package config fills configuration structs from environment variables.
//
// Fields are bound with `env:"NAME"` tags and may carry a `default:"..."`.
// Nested structs extend the variable name with their `envPrefix` tag. The
// namespace passed to Parse is tried from most to least specific, so with
// namespace CHAT_APP the field `env:"LEVEL"` under `envPrefix:"LOG_"` is read
// from CHAT_APP_LOG_LEVEL, then CHAT_LOG_LEVEL.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrInvalidConfig is returned when cfg is not a pointer to a struct embedding EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a variable without default is missing.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned for field types Parse cannot fill.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

// EnvConfig marks a struct as a top-level configuration.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the configuration was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

// LoadDotEnv adds the variables of the given dotenv files to the process
// environment. Missing files are skipped and variables that are already set
// keep their value.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}

// Parse fills cfg from the environment.
func Parse(_ context.Context, cfg any, namespace string) error {
	root := reflect.ValueOf(cfg)
	if root.Kind() != reflect.Pointer || root.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("get env config: %w", ErrInvalidConfig)
	}

	envConfig, ok := findEnvConfig(root.Elem())
	if !ok {
		return fmt.Errorf("get env config: %w", ErrInvalidConfig)
	}

	envConfig.namespace = namespace

	return fill(candidates(namespace), "", root.Elem())
}

//nolint:gochecknoglobals
var (
	envConfigType = reflect.TypeFor[EnvConfig]()
	durationType  = reflect.TypeFor[time.Duration]()
)

func findEnvConfig(v reflect.Value) (*EnvConfig, bool) {
	for i := range v.NumField() {
		if f := v.Type().Field(i); f.Anonymous && f.Type == envConfigType {
			return v.Field(i).Addr().Interface().(*EnvConfig), true //nolint:forcetypeassert
		}
	}

	return nil, false
}

// candidates lists the namespace prefixes to try, most specific first.
// An empty namespace yields a single empty prefix.
func candidates(namespace string) []string {
	if namespace == "" {
		return []string{""}
	}

	parts := strings.Split(namespace, "_")
	out := make([]string, 0, len(parts))

	for i := len(parts); i > 0; i-- {
		out = append(out, strings.Join(parts[:i], "_")+"_")
	}

	return out
}

func fill(namespaces []string, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field, value := t.Field(i), v.Field(i)

		if field.Type == envConfigType || !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := fill(namespaces, prefix+field.Tag.Get("envPrefix"), value); err != nil {
				return err
			}

			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		raw, ok := lookup(namespaces, prefix+name)
		if !ok {
			raw, ok = field.Tag.Lookup("default")
		}

		if !ok {
			return fmt.Errorf("parse field: %w: %s", ErrVarNotSet, prefix+name)
		}

		if err := set(value, raw); err != nil {
			return fmt.Errorf("parse field: %s: %w", prefix+name, err)
		}
	}

	return nil
}

func lookup(namespaces []string, name string) (string, bool) {
	for _, ns := range namespaces {
		if value, ok := os.LookupEnv(ns + name); ok {
			return value, true
		}
	}

	return "", false
}

//nolint:cyclop,exhaustive
func set(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err //nolint:wrapcheck
		}

		field.SetInt(int64(d))

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return err //nolint:wrapcheck
		}

		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, field.Type().Bits())
		if err != nil {
			return err //nolint:wrapcheck
		}

		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err //nolint:wrapcheck
		}

		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: %v", ErrUnsupportedVarType, field.Type())
		}

		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedVarType, field.Kind())
	}

	return nil
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(raw string) []string {
	out := []string{}

	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}
