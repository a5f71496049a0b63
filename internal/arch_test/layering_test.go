package arch_test

import "testing"

// layers assigns each internal package to a numeric layer. Lower layers are
// more foundational; higher layers may depend on lower ones but not vice versa.
// A package at layer N may only import packages at layer N or below.
var layers = map[string]int{
	"config":    0,
	"dag":       0,
	"document":  0,
	"resource":  0,
	"schema":    0,
	"telemetry": 0,
	"watcher":   0,

	"scene": 1,

	"component": 2,

	"loader": 3,

	"saver": 4,

	"manager": 5,

	"ui": 6,

	"tui": 7,

	"cmd": 8,
}

// TestDependencyLayering verifies that no package imports one from a higher
// layer.
func TestDependencyLayering(t *testing.T) {
	t.Parallel()
	for pkg, dir := range packageDirs(t) {
		layer, ok := layers[pkg]
		if !ok {
			continue
		}
		for _, imp := range importsOf(t, dir) {
			if l, ok := layers[imp]; ok && l > layer {
				t.Errorf("layer violation: %s (layer %d) imports %s (layer %d)", pkg, layer, imp, l)
			}
		}
	}
}

// TestNoUnknownPackages forces every new package into the layers map.
func TestNoUnknownPackages(t *testing.T) {
	t.Parallel()
	for pkg := range packageDirs(t) {
		if _, ok := layers[pkg]; !ok {
			t.Errorf("package %s has no layer assignment; add it to the layers map", pkg)
		}
	}
}
