package chart

import (
	"testing"

	"lifeexp/internal/testutil"
)

func TestChartHasNoPresentationImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.TransportImport, testutil.RenderingImport, testutil.StorageImport),
		"composition must stay pure; rendering and transport live in render and adapters")
}
