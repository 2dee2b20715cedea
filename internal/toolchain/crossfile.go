// Package toolchain parses cross/native machine-property files and probes
// for compilers and static linkers (spec §4.4).
package toolchain

import (
	"os"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/mesongo/internal/diag"
)

// PropertyValue is a scalar or list of scalars (string/int/bool), the
// value shape spec §6.3 allows for cross/native file properties.
type PropertyValue struct {
	Strs  []string
	Ints  []int64
	Bools []bool
	Kind  string // "string", "int", "bool", or "" if empty
}

// MachineInfo is one of host_machine / target_machine (spec §4.4, §6.3).
type MachineInfo struct {
	System       string
	CPUFamily    string
	CPU          string
	Endian       string
	Present      bool
}

// CrossFile is the typed record a parsed cross/native file produces
// (spec §4.4). Binaries maps a language/tool name ("c", "cpp", "ar",
// "strip", "pkgconfig", …) to its exelist.
type CrossFile struct {
	Binaries      map[string][]string
	Properties    map[string]PropertyValue
	HostMachine   MachineInfo
	TargetMachine MachineInfo
}

// ParseCrossFile parses the KDL-syntax cross/native file content (spec
// §6.3; mesongo expresses the INI-like sections as KDL nodes, see
// SPEC_FULL.md DOMAIN STACK). Validates that either host_machine or
// target_machine is present and that properties/binaries sections exist.
func ParseCrossFile(filename, content string) (*CrossFile, error) {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, diag.Environment("failed to parse cross/native file %s: %v", filename, err)
	}

	cf := &CrossFile{
		Binaries:   make(map[string][]string),
		Properties: make(map[string]PropertyValue),
	}

	var haveBinaries, haveProperties, haveHost, haveTarget bool

	for _, n := range doc.Nodes {
		name := nodeName(n)
		switch name {
		case "binaries":
			haveBinaries = true
			for _, cn := range n.Children {
				toolName := nodeName(cn)
				if err := validateIdent(filename, toolName); err != nil {
					return nil, err
				}
				cf.Binaries[toolName] = collectStringArgs(cn)
			}
		case "properties":
			haveProperties = true
			for _, cn := range n.Children {
				propName := nodeName(cn)
				if err := validateIdent(filename, propName); err != nil {
					return nil, err
				}
				cf.Properties[propName] = propertyValueOf(cn)
			}
		case "host_machine":
			haveHost = true
			cf.HostMachine = parseMachine(n)
		case "target_machine":
			haveTarget = true
			cf.TargetMachine = parseMachine(n)
		}
	}

	if !haveHost && !haveTarget {
		return nil, diag.Environment("cross/native file %s must declare host_machine or target_machine", filename)
	}
	if !haveProperties {
		return nil, diag.Environment("cross/native file %s must declare a properties section", filename)
	}
	if !haveBinaries {
		return nil, diag.Environment("cross/native file %s must declare a binaries section", filename)
	}

	return cf, nil
}

// LoadCrossFile reads and parses a cross/native file from disk.
func LoadCrossFile(path string) (*CrossFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Environment("cannot read cross/native file %s: %v", path, err)
	}
	return ParseCrossFile(path, string(content))
}

func validateIdent(filename, name string) error {
	if name == "" || strings.ContainsAny(name, " \t\"'") {
		return diag.Environment("cross/native file %s: invalid identifier %q (embedded whitespace/quotes)", filename, name)
	}
	return nil
}

func parseMachine(n *document.Node) MachineInfo {
	m := MachineInfo{Present: true}
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "system":
			if s, ok := firstStringArg(cn); ok {
				m.System = s
			}
		case "cpu_family":
			if s, ok := firstStringArg(cn); ok {
				m.CPUFamily = s
			}
		case "cpu":
			if s, ok := firstStringArg(cn); ok {
				m.CPU = s
			}
		case "endian":
			if s, ok := firstStringArg(cn); ok {
				m.Endian = s
			}
		}
	}
	return m
}

func propertyValueOf(n *document.Node) PropertyValue {
	var pv PropertyValue
	for _, a := range n.Arguments {
		switch v := a.Value.(type) {
		case string:
			pv.Strs = append(pv.Strs, v)
			pv.Kind = "string"
		case int64:
			pv.Ints = append(pv.Ints, v)
			if pv.Kind == "" {
				pv.Kind = "int"
			}
		case float64:
			pv.Ints = append(pv.Ints, int64(v))
			if pv.Kind == "" {
				pv.Kind = "int"
			}
		case bool:
			pv.Bools = append(pv.Bools, v)
			if pv.Kind == "" {
				pv.Kind = "bool"
			}
		}
	}
	return pv
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		switch v := a.Value.(type) {
		case string:
			out = append(out, v)
		case int64:
			out = append(out, strconv.FormatInt(v, 10))
		case bool:
			out = append(out, strconv.FormatBool(v))
		}
	}
	return out
}
