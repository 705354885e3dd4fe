// Package config resolves daemon options from three layers: command line
// flags win over PROCNODE_* environment variables, which win over the TOML
// config file. It also provides a watcher for files reloaded at runtime,
// such as the probe definitions.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix namespaces all environment variable overrides.
const envPrefix = "PROCNODE_"

// LoadConfig fills opts in place. Field mapping comes from struct tags:
// `toml:"section.key"` locates the value in the config file and `env:"NAME"`
// names the environment override. The field called Config holds the file
// path. When cmd is given, flags the user set explicitly are left untouched.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	fileValues, err := readConfigFile(configPath(v, t))
	if err != nil {
		return err
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tags := t.Field(i)

		if flagChanged(cmd, flagName(tags.Name)) {
			continue
		}

		if key := tags.Tag.Get("env"); key != "" {
			if val := os.Getenv(envPrefix + key); val != "" {
				assignString(field, val)
				continue
			}
		}

		if key := tags.Tag.Get("toml"); key != "" {
			if val, ok := lookupTOML(fileValues, key); ok {
				assign(field, val)
			}
		}
	}
	return nil
}

// configPath returns the value of the Config field, or "" when absent.
func configPath(v reflect.Value, t reflect.Type) string {
	if f, ok := t.FieldByName("Config"); ok && f.Type.Kind() == reflect.String {
		return v.FieldByIndex(f.Index).String()
	}
	return ""
}

// readConfigFile parses the TOML file into a generic map. A missing file is
// not an error: the daemon runs fine on defaults, flags and environment.
func readConfigFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return values, nil
}

// flagChanged reports whether the user set the named flag on the command
// line.
func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	var changed bool
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == name && f.Changed {
			changed = true
		}
	})
	return changed
}

// flagName converts a field name to its CLI flag: "LoggingLevel" becomes
// "logging-level".
func flagName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// lookupTOML walks a dotted key ("server.port") through nested tables.
func lookupTOML(values map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	current := values
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	val, ok := current[parts[len(parts)-1]]
	return val, ok
}

// assign sets a field from a decoded TOML value.
func assign(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		arr, ok := value.([]any)
		if !ok {
			return
		}
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		field.Set(reflect.ValueOf(out))
	}
}

// assignString sets a field from an environment variable's raw text. Slices
// split on commas.
func assignString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(n)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		parts := strings.Split(value, ",")
		out := make([]string, len(parts))
		for i, part := range parts {
			out[i] = strings.TrimSpace(part)
		}
		field.Set(reflect.ValueOf(out))
	}
}
