package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"jitcore/internal/compiler"
)

// tunables is the on-disk shape of a dump-run config file, mapping onto
// compiler.Options. Fields absent from the file are left at
// compiler.DefaultOptions()'s value; a field set in the file, even to
// zero, replaces it. A config
// file is meant to override a handful of knobs, not restate all of them.
type tunables struct {
	StackAllocMaxSize       *int     `yaml:"stackAllocMaxSize"`
	TrackStructFields       *bool    `yaml:"trackStructFields"`
	EnableConditionalEscape *bool    `yaml:"enableConditionalEscape"`
	MaxLoopCloneConds       *int     `yaml:"maxLoopCloneConds"`
	CloneSizeLimit          *int     `yaml:"cloneSizeLimit"`
	FastPathWeight          *float64 `yaml:"fastPathWeight"`
	StressHash              *uint64  `yaml:"stressHash"`
	DebugChecks             *bool    `yaml:"debugChecks"`
}

// loadOptions reads path as YAML and applies any set field on top of
// compiler.DefaultOptions(). An empty path returns the defaults
// untouched.
func loadOptions(path string) (compiler.Options, error) {
	opts := compiler.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}

	var t tunables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return opts, err
	}

	if t.StackAllocMaxSize != nil {
		opts.StackAllocMaxSize = *t.StackAllocMaxSize
	}
	if t.TrackStructFields != nil {
		opts.TrackStructFields = *t.TrackStructFields
	}
	if t.EnableConditionalEscape != nil {
		opts.EnableConditionalEscape = *t.EnableConditionalEscape
	}
	if t.MaxLoopCloneConds != nil {
		opts.MaxLoopCloneConds = *t.MaxLoopCloneConds
	}
	if t.CloneSizeLimit != nil {
		opts.CloneSizeLimit = *t.CloneSizeLimit
	}
	if t.FastPathWeight != nil {
		opts.FastPathWeight = *t.FastPathWeight
	}
	if t.StressHash != nil {
		opts.StressHash = *t.StressHash
	}
	if t.DebugChecks != nil {
		opts.DebugChecks = *t.DebugChecks
	}
	return opts, nil
}
