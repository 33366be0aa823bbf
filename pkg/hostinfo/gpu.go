// Package hostinfo classifies host hardware from free-text vendor
// strings. Classification is best-effort by contract: an ordered table
// of patterns is evaluated in priority order with an explicit unknown
// fallback, and callers must tolerate the unknown answer.
package hostinfo

import (
	"context"
	"regexp"
	"strings"

	"github.com/pcornish/rig/pkg/logging"
	"github.com/pcornish/rig/pkg/pkgmgr"
)

// GPUClass is the coarse driver-selection bucket for a GPU.
type GPUClass string

const (
	GPUNvidiaCurrent GPUClass = "nvidia-current"
	GPUNvidiaLegacy  GPUClass = "nvidia-legacy"
	GPUAMD           GPUClass = "amd"
	GPUIntel         GPUClass = "intel"
	GPUUnknown       GPUClass = "unknown"
)

type gpuRule struct {
	pattern *regexp.Regexp
	class   GPUClass
}

// gpuRules is evaluated in order; first match wins. Legacy NVIDIA
// generations (pre-Turing chips still common in older machines) must be
// listed before the general NVIDIA match.
var gpuRules = []gpuRule{
	{regexp.MustCompile(`(?i)nvidia.*\b(gtx [6789]\d\d|gtx 10\d\d|quadro [kmp])`), GPUNvidiaLegacy},
	{regexp.MustCompile(`(?i)\b(nvidia|geforce|quadro|tesla)\b`), GPUNvidiaCurrent},
	{regexp.MustCompile(`(?i)\b(amd|ati|radeon)\b`), GPUAMD},
	{regexp.MustCompile(`(?i)\bintel\b.*\b(graphics|iris|uhd|hd)\b`), GPUIntel},
}

// driverPackages maps a class to the pacman driver set it needs.
// Unknown classes get nothing.
var driverPackages = map[GPUClass][]string{
	GPUNvidiaCurrent: {"nvidia", "nvidia-utils", "nvidia-settings"},
	GPUNvidiaLegacy:  {"nvidia-470xx-dkms", "nvidia-470xx-utils"},
	GPUAMD:           {"mesa", "vulkan-radeon", "libva-mesa-driver"},
	GPUIntel:         {"mesa", "vulkan-intel", "intel-media-driver"},
}

// Classify matches a vendor string against the rule table.
func Classify(vendor string) GPUClass {
	for _, rule := range gpuRules {
		if rule.pattern.MatchString(vendor) {
			return rule.class
		}
	}
	return GPUUnknown
}

// DetectGPU probes the host with lspci and classifies the first VGA or
// 3D controller line. Any failure yields GPUUnknown, never an error.
func DetectGPU(ctx context.Context, c pkgmgr.Commander) GPUClass {
	logger := logging.GetLogger("hostinfo")

	output, err := c.Output(ctx, "lspci", "-mm")
	if err != nil {
		logger.Debug().Err(err).Msg("lspci unavailable, GPU class unknown")
		return GPUUnknown
	}

	for _, line := range strings.Split(string(output), "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "vga") && !strings.Contains(lower, "3d controller") {
			continue
		}
		class := Classify(line)
		logger.Debug().Str("class", string(class)).Str("line", strings.TrimSpace(line)).Msg("GPU classified")
		return class
	}

	return GPUUnknown
}

// DriverPackages returns the driver package names for a class, or nil
// for unknown.
func DriverPackages(class GPUClass) []string {
	return driverPackages[class]
}
