package style

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pcornish/rig/pkg/types"
)

func TestWarningLine(t *testing.T) {
	w := types.Warning{
		Code:    "PACKAGE_INSTALL",
		Item:    "fd",
		Message: "install failed",
		Err:     errors.New("exit status 1"),
	}

	line := WarningLine(w)
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "PACKAGE_INSTALL")
	assert.Contains(t, line, "fd")
	assert.Contains(t, line, "exit status 1")
}

func TestRenderSummaryCounts(t *testing.T) {
	rep := types.NewReport()
	rep.Installed = 2
	rep.Linked = 3
	rep.Skipped = 1

	out := RenderSummary(rep)
	assert.Contains(t, out, "packages installed")
	assert.Contains(t, out, "symlinks created")
	assert.Contains(t, out, "actions skipped")
	assert.NotContains(t, out, "files copied", "zero counters are omitted")
}

func TestRenderSummaryConverged(t *testing.T) {
	rep := types.NewReport()
	rep.Present = 10

	out := RenderSummary(rep)
	assert.Contains(t, out, "already converged")
}

func TestRenderSummaryWarningsAndFatal(t *testing.T) {
	rep := types.NewReport()
	rep.Warn("DEPLOYMENT", "~/.zshrc", "permission denied", nil)
	rep.Fail(errors.New("no package manager found"))

	out := RenderSummary(rep)
	assert.Contains(t, out, "1 warning(s):")
	assert.Contains(t, out, "FATAL")
	assert.Contains(t, out, "no package manager found")
}
