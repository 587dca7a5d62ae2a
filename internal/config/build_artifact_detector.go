package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector reads language build files under a project root and
// reports their declared output directories as exclusion globs
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a detector for projectRoot
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
	Build   struct {
		OutDir string `json:"outDir"`
	} `json:"build"`
}

type tsconfigJSON struct {
	CompilerOptions struct {
		OutDir string `json:"outDir"`
	} `json:"compilerOptions"`
}

type cargoTOML struct {
	Build struct {
		TargetDir string `toml:"target-dir"`
	} `toml:"build"`
	Profile struct {
		Release struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"release"`
	} `toml:"profile"`
}

type pyprojectTOML struct {
	Tool struct {
		Poetry struct {
			Build struct {
				TargetDir string `toml:"target-dir"`
			} `toml:"build"`
		} `toml:"poetry"`
		Hatch struct {
			Build struct {
				Directory string `toml:"directory"`
			} `toml:"build"`
		} `toml:"hatch"`
	} `toml:"tool"`
}

// DetectOutputDirectories returns patterns like "**/out/**". Files that are
// missing or fail to parse contribute nothing.
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, bad.detectJavaScriptOutputs()...)
	dirs = append(dirs, bad.detectRustOutputs()...)
	dirs = append(dirs, bad.detectPythonOutputs()...)

	patterns := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if p := outputPattern(d); p != "" {
			patterns = append(patterns, p)
		}
	}
	return DeduplicatePatterns(patterns)
}

func (bad *BuildArtifactDetector) read(name string) ([]byte, bool) {
	data, err := os.ReadFile(filepath.Join(bad.projectRoot, name))
	return data, err == nil
}

func (bad *BuildArtifactDetector) detectJavaScriptOutputs() []string {
	var dirs []string

	if data, ok := bad.read("package.json"); ok {
		var pkg packageJSON
		if json.Unmarshal(data, &pkg) == nil {
			for _, script := range pkg.Scripts {
				dirs = append(dirs, flagValues(script, "--outDir", "-outDir", "--out-dir")...)
			}
			dirs = append(dirs, pkg.Build.OutDir)
		}
	}

	if data, ok := bad.read("tsconfig.json"); ok {
		var ts tsconfigJSON
		if json.Unmarshal(data, &ts) == nil {
			dirs = append(dirs, ts.CompilerOptions.OutDir)
		}
	}

	for _, name := range []string{"vite.config.js", "vite.config.ts"} {
		if data, ok := bad.read(name); ok {
			dirs = append(dirs, quotedValueAfter(string(data), "outDir"))
		}
	}

	return dirs
}

func (bad *BuildArtifactDetector) detectRustOutputs() []string {
	data, ok := bad.read("Cargo.toml")
	if !ok {
		return nil
	}
	var cargo cargoTOML
	if toml.Unmarshal(data, &cargo) != nil {
		return nil
	}
	return []string{cargo.Build.TargetDir, cargo.Profile.Release.TargetDir}
}

func (bad *BuildArtifactDetector) detectPythonOutputs() []string {
	data, ok := bad.read("pyproject.toml")
	if !ok {
		return nil
	}
	var py pyprojectTOML
	if toml.Unmarshal(data, &py) != nil {
		return nil
	}
	return []string{py.Tool.Poetry.Build.TargetDir, py.Tool.Hatch.Build.Directory}
}

// flagValues extracts the argument following any of flags in a shell command
func flagValues(cmd string, flags ...string) []string {
	var out []string
	parts := strings.Fields(cmd)
	for i, part := range parts {
		for _, f := range flags {
			if part == f && i+1 < len(parts) {
				out = append(out, strings.Trim(parts[i+1], "\"'"))
			} else if v, ok := strings.CutPrefix(part, f+"="); ok {
				out = append(out, strings.Trim(v, "\"'"))
			}
		}
	}
	return out
}

// quotedValueAfter finds `key: 'value'` or `key: "value"` in source text
func quotedValueAfter(content, key string) string {
	idx := strings.Index(content, key)
	if idx == -1 {
		return ""
	}
	rest := content[idx+len(key):]
	colon := strings.Index(rest, ":")
	if colon == -1 {
		return ""
	}
	rest = strings.TrimSpace(rest[colon+1:])
	if rest == "" || (rest[0] != '\'' && rest[0] != '"') {
		return ""
	}
	end := strings.IndexByte(rest[1:], rest[0])
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[1 : end+1])
}

// outputPattern turns a declared directory into an exclusion glob
func outputPattern(dir string) string {
	dir = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "/")
	dir = strings.TrimPrefix(dir, "./")
	if dir == "" || dir == "." || strings.HasPrefix(dir, "..") {
		return ""
	}
	return "**/" + dir + "/**"
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrences
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
