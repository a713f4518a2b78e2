package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/boynton/lumos/errors"
	"github.com/ghodss/yaml"
	json "github.com/goccy/go-json"
)

// Data is a loosely typed configuration bag. Keys may be addressed by path, e.g.
// data.GetString("rust", "anchor").
type Data struct {
	value interface{}
}

func NewData() *Data {
	return &Data{}
}

// DataFromMap wraps an existing map without copying it.
func DataFromMap(m map[string]interface{}) *Data {
	return &Data{value: m}
}

func (data *Data) String() string {
	return Pretty(data.value)
}

// DataFromFile loads a config file. The format is chosen by extension: .yaml/.yml, .toml,
// anything else is read as JSON.
func DataFromFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var value map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &value)
	case ".toml":
		_, err = toml.Decode(string(raw), &value)
	default:
		err = json.Unmarshal(raw, &value)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %s", path)
	}
	return &Data{value: value}, nil
}

func (data *Data) Put(key string, value interface{}) {
	if data.value == nil {
		data.value = make(map[string]interface{})
	}
	if m := data.AsMap(); m != nil {
		m[key] = value
	}
}

func (data *Data) AsMap() map[string]interface{} {
	if data == nil {
		return nil
	}
	return AsMap(data.value)
}

func (data *Data) Get(keys ...string) interface{} {
	return data.get(keys)
}

func (data *Data) get(keys []string) interface{} {
	m := data.AsMap()
	for i, key := range keys {
		if m == nil {
			return nil
		}
		v, ok := m[key]
		if !ok {
			return nil
		}
		if i == len(keys)-1 {
			return v
		}
		m = AsMap(v)
	}
	return nil
}

func (data *Data) Has(keys ...string) bool {
	return data.get(keys) != nil
}

func (data *Data) GetString(keys ...string) string {
	return AsString(data.get(keys))
}

func (data *Data) GetBool(keys ...string) bool {
	return AsBool(data.get(keys))
}

func (data *Data) GetInt(keys ...string) int {
	return AsInt(data.get(keys))
}

func (data *Data) GetMap(keys ...string) map[string]interface{} {
	return AsMap(data.get(keys))
}

// GetStringOr and friends return the default when the key is absent.
func (data *Data) GetStringOr(def string, keys ...string) string {
	if !data.Has(keys...) {
		return def
	}
	return data.GetString(keys...)
}

func (data *Data) GetBoolOr(def bool, keys ...string) bool {
	if !data.Has(keys...) {
		return def
	}
	return data.GetBool(keys...)
}

func AsString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}

func AsBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case *bool:
		return b != nil && *b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}

func AsInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

func AsMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return nil
}
