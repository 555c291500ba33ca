package ocsfschema

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// JSON Schema instance types.
const (
	typeBoolean = "boolean"
	typeInteger = "integer"
	typeNumber  = "number"
	typeString  = "string"
)

// jsonTypeAny is the type list emitted for json_t, which admits any value.
var jsonTypeAny = []string{"object", "string", "integer", "number", "boolean", "array", "null"}

// baseTypes maps the OCSF built-in scalar types to JSON Schema types.
// object_t and json_t are handled separately.
var baseTypes = map[string]string{
	"boolean_t":   typeBoolean,
	"float_t":     typeNumber,
	"integer_t":   typeInteger,
	"long_t":      typeInteger,
	"string_t":    typeString,
	"datetime_t":  typeString,
	"ip_t":        typeString,
	"mac_t":       typeString,
	"port_t":      typeInteger,
	"timestamp_t": typeInteger,
	"url_t":       typeString,
	"email_t":     typeString,
	"fqdn_t":      typeString,
}

const macPattern = "^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$"

// resolveScalar maps an OCSF type name to its JSON Schema type. Types
// outside the built-in set resolve through the export's types dictionary
// to the base type they are declared with.
func (g *Generator) resolveScalar(name string) (jsonType string, def *ScalarType, err error) {
	def = g.schema.Types[name]

	if jsonType, ok := baseTypes[name]; ok {
		return jsonType, def, nil
	}

	if def == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	base, ok := baseTypes[def.Type]
	if !ok {
		return "", nil, fmt.Errorf("unknown scalar type: %s (declared base %q)", name, def.Type)
	}
	return base, def, nil
}

// applyTypeRefinements adds the per-type formats and bounds that the OCSF
// scalar implies, then layers on constraints from the types dictionary.
func (g *Generator) applyTypeRefinements(p *Property, typeName string, def *ScalarType) error {
	switch typeName {
	case "datetime_t":
		p.Format = "date-time"
	case "url_t":
		p.Format = "uri"
	case "email_t":
		p.Format = "email"
	case "fqdn_t":
		p.Format = "hostname"
	case "mac_t":
		p.Pattern = macPattern
	case "port_t":
		p.Minimum = floatPtr(0)
		p.Maximum = floatPtr(65535)
	case "timestamp_t":
		p.Minimum = floatPtr(0)
	case "ip_t":
		// Early exports ship a broken ip_t regex; substitute the
		// known-good IPv4/IPv6 pattern for those versions.
		if ipPatternNeedsOverride(g.schema.Version) {
			p.Pattern = ipPattern
			return nil
		}
		if def == nil || def.Regex == "" {
			p.Format = "ipv4"
		}
	}

	if def == nil {
		return nil
	}

	if def.MaxLen > 0 && len(def.Range) > 0 {
		return fmt.Errorf("type %s: max_len or range should be set, not both", typeName)
	}
	if def.MaxLen > 0 {
		p.MaxLength = intPtr(def.MaxLen)
	}
	if len(def.Range) == 2 {
		p.Minimum = floatPtr(def.Range[0])
		p.Maximum = floatPtr(def.Range[1])
	}
	// Some exports carry regexes that are not valid RE2 (the 1.0.0-rc.2
	// path_t, for one); drop those rather than emit a broken pattern.
	if p.Pattern == "" && def.Regex != "" {
		if _, err := regexp.Compile(def.Regex); err == nil {
			p.Pattern = def.Regex
		}
	}

	return nil
}

// enumValues converts the keys of an attribute's enum map into JSON Schema
// enum values, parsed to the attribute's instance type and sorted.
func enumValues(enum map[string]EnumMember, jsonType string) ([]any, error) {
	keys := make([]string, 0, len(enum))
	for k := range enum {
		keys = append(keys, k)
	}

	switch jsonType {
	case typeInteger:
		ints := make([]int64, 0, len(keys))
		for _, k := range keys {
			n, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("enum value %q is not an integer: %w", k, err)
			}
			ints = append(ints, n)
		}
		sort.Slice(ints, func(i, j int) bool { return ints[i] < ints[j] })
		values := make([]any, len(ints))
		for i, n := range ints {
			values[i] = n
		}
		return values, nil

	case typeNumber:
		floats := make([]float64, 0, len(keys))
		for _, k := range keys {
			f, err := strconv.ParseFloat(k, 64)
			if err != nil {
				return nil, fmt.Errorf("enum value %q is not a number: %w", k, err)
			}
			floats = append(floats, f)
		}
		sort.Float64s(floats)
		values := make([]any, len(floats))
		for i, f := range floats {
			values[i] = f
		}
		return values, nil

	case typeBoolean:
		return nil, fmt.Errorf("enum support on a boolean type is not currently supported")

	default:
		sort.Strings(keys)
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = k
		}
		return values, nil
	}
}
