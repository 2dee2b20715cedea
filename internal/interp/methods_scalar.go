package interp

import (
	"strconv"
	"strings"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

func callStringMethod(site diag.Site, s string, name string, a evaluatedArgs) (value.Value, error) {
	switch name {
	case "strip":
		cutset := " \t\n\r"
		if len(a.positional) > 0 {
			if c, ok := a.positional[0].Str(); ok {
				cutset = c
			}
		}
		return value.NewStr(strings.Trim(s, cutset)), nil
	case "split":
		sep := ""
		if len(a.positional) > 0 {
			if sp, ok := a.positional[0].Str(); ok {
				sep = sp
			}
		}
		var parts []string
		if sep == "" {
			parts = strings.Fields(s)
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.NewStr(p)
		}
		return value.NewList(out), nil
	case "format":
		return value.NewStr(formatString(s, a.positional)), nil
	case "to_upper":
		return value.NewStr(strings.ToUpper(s)), nil
	case "to_lower":
		return value.NewStr(strings.ToLower(s)), nil
	case "contains":
		if len(a.positional) != 1 {
			return value.Value{}, diag.InvalidArguments(site, "contains() requires one argument")
		}
		sub, ok := a.positional[0].Str()
		if !ok {
			return value.Value{}, diag.InvalidArguments(site, "contains() requires a string argument")
		}
		return value.NewBool(strings.Contains(s, sub)), nil
	case "startswith", "startsWith":
		sub, _ := a.positional[0].Str()
		return value.NewBool(strings.HasPrefix(s, sub)), nil
	case "endswith", "endsWith":
		sub, _ := a.positional[0].Str()
		return value.NewBool(strings.HasSuffix(s, sub)), nil
	case "to_int":
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Value{}, diag.InvalidArguments(site, "to_int(): %q is not a valid integer", s)
		}
		return value.NewInt(n), nil
	case "replace":
		if len(a.positional) != 2 {
			return value.Value{}, diag.InvalidArguments(site, "replace() requires two arguments")
		}
		from, _ := a.positional[0].Str()
		to, _ := a.positional[1].Str()
		return value.NewStr(strings.ReplaceAll(s, from, to)), nil
	case "underscorify":
		var sb strings.Builder
		for _, r := range s {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				sb.WriteRune(r)
			} else {
				sb.WriteByte('_')
			}
		}
		return value.NewStr(sb.String()), nil
	case "version_compare":
		return value.Value{}, diag.Internal("version_compare() not implemented")
	default:
		return value.Value{}, diag.InvalidCode(site, "string has no method %q", name)
	}
}

// formatString substitutes @N@ with the Nth positional after to-native
// conversion (spec §4.5).
func formatString(s string, args []value.Value) string {
	var sb strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '@' {
			end := strings.IndexByte(s[i+1:], '@')
			if end >= 0 {
				numStr := s[i+1 : i+1+end]
				if n, err := strconv.Atoi(numStr); err == nil && n >= 0 && n < len(args) {
					sb.WriteString(args[n].ToNative())
					i = i + 1 + end + 1
					continue
				}
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

func callListMethod(site diag.Site, items []value.Value, name string, a evaluatedArgs) (value.Value, error) {
	switch name {
	case "contains":
		if len(a.positional) != 1 {
			return value.Value{}, diag.InvalidArguments(site, "contains() requires one argument")
		}
		for _, it := range items {
			if value.Equal(it, a.positional[0]) {
				return value.NewBool(true), nil
			}
		}
		return value.NewBool(false), nil
	case "length":
		return value.NewInt(int64(len(items))), nil
	case "get":
		if len(a.positional) < 1 {
			return value.Value{}, diag.InvalidArguments(site, "get() requires an index")
		}
		idx, ok := a.positional[0].Int()
		if !ok {
			return value.Value{}, diag.InvalidArguments(site, "get() index must be an integer")
		}
		l := int64(len(items))
		if idx < 0 {
			idx += l
		}
		if idx < 0 || idx >= l {
			if len(a.positional) > 1 {
				return a.positional[1], nil
			}
			return value.Value{}, diag.InvalidArguments(site, "list index %d out of range (length %d)", idx, l)
		}
		return items[idx], nil
	default:
		return value.Value{}, diag.InvalidCode(site, "list has no method %q", name)
	}
}
