package environ

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/host"
)

// deviceTreeModelPath exposes the board model on ARM Linux systems.
const deviceTreeModelPath = "/proc/device-tree/model"

var (
	probeOnce    sync.Once
	probedResult Profile
)

// hostFacts captures everything the classifier looks at, so classification
// itself stays pure and testable.
type hostFacts struct {
	GOOS            string
	KernelArch      string
	Platform        string
	DeviceTreeModel string
}

// Probe classifies the host once and returns its tuned profile. It is
// best-effort and never fails: unrecognized hosts get the generic profile.
// Repeated calls return the same profile.
func Probe() Profile {
	probeOnce.Do(func() {
		probedResult = ProfileFor(classify(gatherHostFacts()))
	})
	return probedResult
}

func gatherHostFacts() hostFacts {
	facts := hostFacts{GOOS: runtime.GOOS}

	if info, err := host.Info(); err == nil {
		facts.KernelArch = info.KernelArch
		facts.Platform = info.Platform
	}

	if data, err := os.ReadFile(deviceTreeModelPath); err == nil {
		facts.DeviceTreeModel = strings.TrimRight(string(data), "\x00")
	}

	return facts
}

func classify(facts hostFacts) Category {
	if facts.GOOS == "darwin" {
		return CategoryMacDesktop
	}

	if facts.GOOS == "linux" {
		model := strings.ToLower(facts.DeviceTreeModel)
		if strings.Contains(model, "raspberry pi") {
			return CategoryPiBoard
		}
		if isARM(facts.KernelArch) {
			return CategoryGenericBoard
		}
		return CategoryLinuxDesktop
	}

	return CategoryGeneric
}

func isARM(kernelArch string) bool {
	arch := strings.ToLower(kernelArch)
	return strings.HasPrefix(arch, "arm") || strings.HasPrefix(arch, "aarch")
}
