// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lang maps file names to syntax-highlighting language ids.
//
// The table is static. Ids are the lowercase names understood by both the
// browser renderer and chroma's lexer registry.
package lang

import (
	"path/filepath"
	"sort"
	"strings"
)

// byExtension maps a lowercase extension, including the dot, to a language.
var byExtension = map[string]string{
	".go":      "go",
	".mod":     "go",
	".swift":   "swift",
	".m":       "objective-c",
	".mm":      "objective-c",
	".c":       "c",
	".h":       "c",
	".cc":      "cpp",
	".cpp":     "cpp",
	".cxx":     "cpp",
	".hpp":     "cpp",
	".cs":      "csharp",
	".java":    "java",
	".kt":      "kotlin",
	".kts":     "kotlin",
	".scala":   "scala",
	".rs":      "rust",
	".py":      "python",
	".rb":      "ruby",
	".php":     "php",
	".pl":      "perl",
	".lua":     "lua",
	".r":       "r",
	".dart":    "dart",
	".ex":      "elixir",
	".exs":     "elixir",
	".erl":     "erlang",
	".hs":      "haskell",
	".clj":     "clojure",
	".zig":     "zig",
	".js":      "javascript",
	".mjs":     "javascript",
	".cjs":     "javascript",
	".jsx":     "jsx",
	".ts":      "typescript",
	".tsx":     "tsx",
	".vue":     "vue",
	".svelte":  "svelte",
	".html":    "html",
	".htm":     "html",
	".css":     "css",
	".scss":    "scss",
	".less":    "less",
	".json":    "json",
	".jsonc":   "jsonc",
	".yaml":    "yaml",
	".yml":     "yaml",
	".toml":    "toml",
	".xml":     "xml",
	".md":      "markdown",
	".mdx":     "mdx",
	".sql":     "sql",
	".sh":      "bash",
	".bash":    "bash",
	".zsh":     "zsh",
	".fish":    "fish",
	".ps1":     "powershell",
	".proto":   "protobuf",
	".graphql": "graphql",
	".tf":      "hcl",
	".ini":     "ini",
	".diff":    "diff",
	".patch":   "diff",
}

// byName maps well-known extensionless file names.
var byName = map[string]string{
	"dockerfile":     "docker",
	"makefile":       "make",
	"gnumakefile":    "make",
	"gemfile":        "ruby",
	"rakefile":       "ruby",
	"podfile":        "ruby",
	"go.sum":         "text",
	"cmakelists.txt": "cmake",
	".gitignore":     "ignore",
	".bashrc":        "bash",
	".zshrc":         "zsh",
}

// Detect returns the language id for name, or "" when unknown. Only the
// base name is inspected.
func Detect(name string) string {
	base := strings.ToLower(filepath.Base(name))
	if id, ok := byName[base]; ok {
		return id
	}
	if strings.HasPrefix(base, "dockerfile.") {
		return "docker"
	}
	return byExtension[filepath.Ext(base)]
}

// Extensions returns every extension in the table, sorted.
func Extensions() []string {
	out := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
