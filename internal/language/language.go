// Package language holds the registry of supported languages. Each entry is
// an immutable recipe: which image to run, what the source file is called,
// and the exact command tokens for the compile and run steps. Adding a
// language is a data change here, nothing else.
package language

import "time"

// Recipe describes how to build and run one language inside its container.
// Commands are token sequences relative to the bind-mounted working
// directory; CompileCmd is nil for interpreted languages.
type Recipe struct {
	ID         string
	Image      string
	SourceFile string
	CompileCmd []string
	RunCmd     []string

	RunTimeout     time.Duration
	CompileTimeout time.Duration
	MemoryMiB      int64
	CPUQuota       float64
}

// Compiled reports whether the recipe has a compile step.
func (r Recipe) Compiled() bool { return len(r.CompileCmd) > 0 }

var recipes = []Recipe{
	{
		ID:         "python3",
		Image:      "python:3.11-slim",
		SourceFile: "solution.py",
		RunCmd:     []string{"python3", "solution.py"},
		RunTimeout: 5 * time.Second,
		MemoryMiB:  128,
		CPUQuota:   1,
	},
	{
		ID:         "javascript",
		Image:      "node:20-slim",
		SourceFile: "solution.js",
		RunCmd:     []string{"node", "solution.js"},
		RunTimeout: 5 * time.Second,
		MemoryMiB:  128,
		CPUQuota:   1,
	},
	{
		ID:             "java",
		Image:          "eclipse-temurin:17",
		SourceFile:     "Main.java",
		CompileCmd:     []string{"javac", "Main.java"},
		RunCmd:         []string{"java", "-cp", ".", "Main"},
		RunTimeout:     10 * time.Second,
		CompileTimeout: 30 * time.Second,
		MemoryMiB:      256,
		CPUQuota:       1,
	},
	{
		ID:             "cpp",
		Image:          "gcc:13",
		SourceFile:     "solution.cpp",
		CompileCmd:     []string{"g++", "-O2", "-std=c++17", "-o", "solution", "solution.cpp"},
		RunCmd:         []string{"./solution"},
		RunTimeout:     5 * time.Second,
		CompileTimeout: 30 * time.Second,
		MemoryMiB:      128,
		CPUQuota:       1,
	},
	{
		ID:             "c",
		Image:          "gcc:13",
		SourceFile:     "solution.c",
		CompileCmd:     []string{"gcc", "-O2", "-o", "solution", "solution.c"},
		RunCmd:         []string{"./solution"},
		RunTimeout:     5 * time.Second,
		CompileTimeout: 30 * time.Second,
		MemoryMiB:      128,
		CPUQuota:       1,
	},
	{
		ID:             "go",
		Image:          "golang:1.22",
		SourceFile:     "solution.go",
		CompileCmd:     []string{"go", "build", "-o", "solution", "solution.go"},
		RunCmd:         []string{"./solution"},
		RunTimeout:     5 * time.Second,
		CompileTimeout: 60 * time.Second,
		MemoryMiB:      256,
		CPUQuota:       1,
	},
	{
		ID:         "ruby",
		Image:      "ruby:3.3-slim",
		SourceFile: "solution.rb",
		RunCmd:     []string{"ruby", "solution.rb"},
		RunTimeout: 5 * time.Second,
		MemoryMiB:  128,
		CPUQuota:   1,
	},
}

var byID = func() map[string]Recipe {
	m := make(map[string]Recipe, len(recipes))
	for _, r := range recipes {
		m[r.ID] = r
	}
	return m
}()

// Lookup returns the recipe for the given language identifier.
func Lookup(id string) (Recipe, bool) {
	r, ok := byID[id]
	return r, ok
}

// All returns every registered recipe in declaration order.
func All() []Recipe {
	out := make([]Recipe, len(recipes))
	copy(out, recipes)
	return out
}
