package transform

import (
	"fmt"
	"strconv"
)

// Recognized option keys. Every other key is forwarded to the transform untouched.
const (
	OptionDry          = "dry"
	OptionPrint        = "print"
	OptionParser       = "parser"
	OptionParserConfig = "parserConfig"
)

// ⚙️ Options is the configuration map shared by every file of a batch
type Options map[string]any

// Dry reports whether writes are suppressed.
func (o Options) Dry() bool { return o.Bool(OptionDry) }

// Print reports whether transformed source is echoed to the worker's stdout.
func (o Options) Print() bool { return o.Bool(OptionPrint) }

// Parser returns the parser name requested by the batch.
func (o Options) Parser() string { return o.String(OptionParser) }

// ParserConfig returns the parser settings requested by the batch.
func (o Options) ParserConfig() map[string]any {
	switch v := o[OptionParserConfig].(type) {
	case map[string]any:
		return v
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	default:
		return nil
	}
}

// Bool reads a flag. Strings such as "true" or "1" count, so values coming
// from env or flag layers behave like JSON booleans.
func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

// String reads a string option, formatting non-string values.
func (o Options) String(key string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}
