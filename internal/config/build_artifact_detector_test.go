package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDetectOutputDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{
  "scripts": {"build": "tsc --outDir compiled", "bundle": "esbuild --out-dir=bundle"},
  "build": {"outDir": "release/"}
}`)
	writeFile(t, dir, "tsconfig.json", `{"compilerOptions": {"outDir": "./compiled"}}`)
	writeFile(t, dir, "vite.config.ts", `export default { build: { outDir: 'site' } }`)
	writeFile(t, dir, "Cargo.toml", "[package]\nname = \"x\"\n\n[build]\ntarget-dir = \"rust-out\"\n")
	writeFile(t, dir, "pyproject.toml", "[tool.hatch.build]\ndirectory = \"wheelhouse\"\n")

	got := NewBuildArtifactDetector(dir).DetectOutputDirectories()
	assert.ElementsMatch(t, []string{
		"**/compiled/**",
		"**/bundle/**",
		"**/release/**",
		"**/site/**",
		"**/rust-out/**",
		"**/wheelhouse/**",
	}, got)
}

func TestDetectOutputDirectories_MalformedAndMissing(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, NewBuildArtifactDetector(dir).DetectOutputDirectories())

	writeFile(t, dir, "package.json", `{not json`)
	writeFile(t, dir, "Cargo.toml", `[[[`)
	writeFile(t, dir, "tsconfig.json", `{"compilerOptions": {"outDir": "../outside"}}`)
	assert.Empty(t, NewBuildArtifactDetector(dir).DetectOutputDirectories())
}

func TestQuotedValueAfter(t *testing.T) {
	assert.Equal(t, "dist", quotedValueAfter(`outDir: "dist"`, "outDir"))
	assert.Equal(t, "out", quotedValueAfter(`build:{outDir :  'out',}`, "outDir"))
	assert.Equal(t, "", quotedValueAfter(`outDir: dir`, "outDir"))
	assert.Equal(t, "", quotedValueAfter(`nothing here`, "outDir"))
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, DeduplicatePatterns(nil))
}
