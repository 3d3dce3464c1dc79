package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// binaryKey marks an object that carries binary data as a hex string
const binaryKey = "$binary"

// ToRemote converts a value to a form the remote protocol can carry: strings,
// booleans, integers, floats, lists and maps with string keys. Binary data is
// sent as {"$binary": "0x..."}, nil as an empty string and any other value as
// its display string.
func ToRemote(value any) any {
	switch v := value.(type) {
	case nil:
		return ""
	case string, bool, int64, float64:
		return v
	case []byte:
		return map[string]any{binaryKey: hexutil.Bytes(v)}
	case hexutil.Bytes:
		return map[string]any{binaryKey: v}
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u)
		}
		return fmt.Sprint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = ToRemote(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[variables.Stringify(iter.Key().Interface())] = ToRemote(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return ToRemote(rv.Elem().Interface())
	}
	return variables.Stringify(value)
}

// FromRemote decodes a value received from a remote peer. Numbers become
// int64 when they are integral and float64 otherwise; binary objects become
// []byte. An empty message decodes to nil.
func FromRemote(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("invalid remote value: %w", err)
	}
	return fromJSON(value)
}

func fromJSON(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if i, err := v.Int64(); err == nil {
				return i, nil
			}
		}
		return v.Float64()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			decoded, err := fromJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	case map[string]any:
		if hex, ok := v[binaryKey].(string); ok && len(v) == 1 {
			data, err := hexutil.Decode(hex)
			if err != nil {
				return nil, fmt.Errorf("invalid binary value: %w", err)
			}
			return data, nil
		}
		out := make(map[string]any, len(v))
		for k, item := range v {
			decoded, err := fromJSON(item)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	}
	return value, nil
}

// decodeAll decodes a list of raw values
func decodeAll(raw []json.RawMessage) ([]any, error) {
	out := make([]any, len(raw))
	for i, item := range raw {
		value, err := FromRemote(item)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = value
	}
	return out, nil
}
