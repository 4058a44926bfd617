package system

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/archstrap/internal/ports"
	"github.com/felixgeelhaar/archstrap/internal/provider/commandutil"
)

// PCIProbe inspects PCI devices with lspci.
type PCIProbe struct {
	runner ports.CommandRunner
}

// NewPCIProbe creates a PCIProbe.
func NewPCIProbe(runner ports.CommandRunner) *PCIProbe {
	return &PCIProbe{runner: runner}
}

// HasNVIDIA reports whether a display controller from NVIDIA is present.
// A host without lspci reports no GPU.
func (p *PCIProbe) HasNVIDIA(ctx context.Context) (bool, error) {
	inv := ports.NewInvocation("lspci")
	result, err := p.runner.Exec(ctx, inv)
	if err != nil {
		if commandutil.IsCommandNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", inv.String(), err)
	}
	if !result.Success() {
		return false, commandutil.NewExitError(inv, result)
	}

	scanner := bufio.NewScanner(strings.NewReader(result.Stdout))
	for scanner.Scan() {
		line := scanner.Text()
		if !isDisplayController(line) {
			continue
		}
		if strings.Contains(strings.ToLower(line), "nvidia") {
			return true, nil
		}
	}
	return false, nil
}

func isDisplayController(line string) bool {
	return strings.Contains(line, "VGA compatible controller") ||
		strings.Contains(line, "3D controller") ||
		strings.Contains(line, "Display controller")
}

var _ ports.HardwareProbe = (*PCIProbe)(nil)
