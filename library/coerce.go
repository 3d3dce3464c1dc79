package library

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// coerce converts a keyword argument to the Go parameter type t. Strings are
// parsed into numbers, booleans and durations; numbers are converted between
// numeric kinds and lists are converted element wise.
func coerce(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		if rv.Type() == t {
			return rv, nil
		}
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}

	if s, ok := value.(string); ok {
		return parseString(s, t)
	}

	switch {
	case t.Kind() == reflect.String:
		return reflect.ValueOf(variables.Stringify(value)).Convert(t), nil
	case t == durationType && isNumeric(rv.Kind()):
		return reflect.ValueOf(time.Duration(rv.Convert(reflect.TypeOf(float64(0))).Float() * float64(time.Second))), nil
	case isNumeric(t.Kind()) && isNumeric(rv.Kind()):
		return rv.Convert(t), nil
	case t.Kind() == reflect.Slice && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array):
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := coerce(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(item)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %T value '%v' to %s", value, value, t)
}

func parseString(s string, t reflect.Type) (reflect.Value, error) {
	if t == durationType {
		d, err := parseDuration(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("'%s' cannot be converted to a boolean", s)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 0, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("'%s' cannot be converted to an integer", s)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(strings.TrimSpace(s), 0, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("'%s' cannot be converted to an unsigned integer", s)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("'%s' cannot be converted to a floating point number", s)
		}
		out.SetFloat(f)
	case reflect.Interface:
		if !reflect.TypeOf(s).Implements(t) {
			return reflect.Value{}, fmt.Errorf("string '%s' does not implement %s", s, t)
		}
		out.Set(reflect.ValueOf(s))
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert string '%s' to %s", s, t)
	}
	return out, nil
}

// parseDuration accepts Go durations ("1m30s") and plain numbers of seconds ("1.5")
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a valid time string", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// ParseDuration parses a keyword time argument
func ParseDuration(s string) (time.Duration, error) {
	return parseDuration(s)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
