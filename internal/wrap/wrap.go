// Package wrap implements the PackageDefinition descriptor and the
// subproject fetch/verify/extract pipeline (spec §3.6, §4.7).
package wrap

import (
	"bufio"
	"strings"

	"github.com/standardbeagle/mesongo/internal/diag"
)

// Kind is the wrap descriptor's declared type.
type Kind int

const (
	KindFile Kind = iota
	KindGit
)

// PackageDefinition is the typed wrap descriptor (spec §3.6).
type PackageDefinition struct {
	Kind Kind
	Keys map[string]string
}

var fileRequiredKeys = []string{"directory", "source_url", "source_filename", "source_hash"}
var gitRequiredKeys = []string{"directory", "url", "revision"}

// expandWrapDBVersion recognizes the wrapdb_version convenience key
// (SPEC_FULL.md "SUPPLEMENTED FEATURES"): when source_url is absent it is
// derived from directory and the version; source_filename and source_hash
// stay required.
func expandWrapDBVersion(keys map[string]string) {
	wv, ok := keys["wrapdb_version"]
	if !ok {
		return
	}
	if _, has := keys["source_url"]; !has {
		base := strings.TrimSuffix(keys["directory"], "/")
		keys["source_url"] = "https://wrapdb.mesonbuild.com/v2/" + base + "_" + wv + "/get_zip"
	}
}

// Parse parses a .wrap file's content. The first line must be
// "[wrap-file]" or "[wrap-git]"; subsequent lines are "key = value";
// unknown keys are ignored (spec §6.4).
func Parse(content string) (*PackageDefinition, error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	if !scanner.Scan() {
		return nil, diag.Wrap("empty wrap file")
	}
	header := strings.TrimSpace(scanner.Text())

	var kind Kind
	switch header {
	case "[wrap-file]":
		kind = KindFile
	case "[wrap-git]":
		kind = KindGit
	default:
		return nil, diag.Wrap("wrap file must begin with [wrap-file] or [wrap-git], got %q", header)
	}

	keys := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		k := strings.TrimSpace(line[:idx])
		v := strings.TrimSpace(line[idx+1:])
		keys[k] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, diag.Wrap("failed to scan wrap file: %v", err)
	}

	expandWrapDBVersion(keys)

	pd := &PackageDefinition{Kind: kind, Keys: keys}
	required := fileRequiredKeys
	if kind == KindGit {
		required = gitRequiredKeys
	}
	for _, req := range required {
		if _, ok := keys[req]; !ok {
			return nil, diag.Wrap("wrap descriptor missing required key %q", req)
		}
	}
	return pd, nil
}

func (pd *PackageDefinition) Directory() string { return pd.Keys["directory"] }
func (pd *PackageDefinition) Get(key string) (string, bool) {
	v, ok := pd.Keys[key]
	return v, ok
}
func (pd *PackageDefinition) LeadDirectoryMissing() bool {
	return pd.Keys["lead_directory_missing"] == "true"
}
