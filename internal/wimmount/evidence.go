// Package wimmount diagnoses the WIMMount filter driver, the OS minifilter
// that backs offline image mounting. Several independent, individually
// inconclusive OS signals are fused into one verdict: the live filter list,
// the backing service, the driver file on disk, the configured altitude and
// known security-software interference. When the filter is missing the
// subsystem can attempt a single ordered remediation pass.
package wimmount

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wimforge/wimforge/internal/hostprobe"
	forgeerrors "github.com/wimforge/wimforge/pkg/errors"
)

// FilterEntry is one row of the loaded minifilter list.
type FilterEntry struct {
	Name     string
	Altitude string
}

// ServiceInfo is the observed state of the filter's backing service.
type ServiceInfo struct {
	Exists bool
	State  string
	// Source records which query answered: "powershell" or "sc". The
	// structured query can itself be disabled by host security tooling,
	// which is why the command-line fallback exists.
	Source string
}

// DriverFileInfo is the observed state of wimmount.sys on disk.
type DriverFileInfo struct {
	Path   string
	Exists bool
	Size   int64
	SHA256 string
}

// FilterListProvider lists currently loaded minifilter drivers.
type FilterListProvider interface {
	ListFilters(ctx context.Context) ([]FilterEntry, error)
}

// ServiceStateProvider queries the registration and state of a service.
type ServiceStateProvider interface {
	QueryService(ctx context.Context, name string) (ServiceInfo, error)
}

// FileIntegrityProvider inspects the driver binary on disk.
type FileIntegrityProvider interface {
	DriverFile(ctx context.Context) (DriverFileInfo, error)
}

// RegistryProvider reads the altitude configured for the filter.
type RegistryProvider interface {
	ConfiguredAltitude(ctx context.Context) (string, error)
}

// HostInfoProvider supplies the OS build and the installed service names
// used by the security-software heuristic.
type HostInfoProvider interface {
	OSBuild(ctx context.Context) (string, error)
	ServiceNames(ctx context.Context) ([]string, error)
}

// Evidence is everything the collector observed in one pass. Individual
// probe failures are folded into ProbeErrors; gathering never fails as a
// whole.
type Evidence struct {
	FilterLoaded   bool
	FilterAltitude string
	Filters        []FilterEntry

	RegistryAltitude   string
	RegistryAltitudeOK bool
	AltitudeConflicts  []FilterEntry

	Service ServiceInfo

	DriverFile         DriverFileInfo
	DriverSizeSuspect  bool
	DriverHashVerified bool
	DriverHashKnown    bool

	OSBuild        string
	SecurityAgents []string

	ProbeErrors []string
}

// Collector gathers evidence from the injected providers.
type Collector struct {
	Filters  FilterListProvider
	Service  ServiceStateProvider
	File     FileIntegrityProvider
	Registry RegistryProvider
	Host     HostInfoProvider
}

// NewCollector wires the production providers over the given runner.
func NewCollector(runner hostprobe.Runner) *Collector {
	return &Collector{
		Filters:  fltmcProvider{runner: runner},
		Service:  serviceProvider{runner: runner},
		File:     driverFileProvider{},
		Registry: registryProvider{runner: runner},
		Host:     hostInfoProvider{runner: runner},
	}
}

// Gather runs every probe and fuses the raw observations. Probe errors are
// recorded, never propagated.
func (c *Collector) Gather(ctx context.Context) Evidence {
	ev := Evidence{}

	filters, err := c.Filters.ListFilters(ctx)
	if err != nil {
		ev.recordProbeError("filter-list", err)
	} else {
		ev.Filters = filters
		for _, filter := range filters {
			if strings.EqualFold(filter.Name, FilterName) {
				ev.FilterLoaded = true
				ev.FilterAltitude = filter.Altitude
				continue
			}
			if filter.Altitude == ExpectedAltitude {
				ev.AltitudeConflicts = append(ev.AltitudeConflicts, filter)
			}
		}
	}

	service, err := c.Service.QueryService(ctx, ServiceName)
	if err != nil {
		ev.recordProbeError("service-state", err)
	} else {
		ev.Service = service
	}

	file, err := c.File.DriverFile(ctx)
	if err != nil {
		ev.recordProbeError("driver-file", err)
	} else {
		ev.DriverFile = file
		ev.DriverSizeSuspect = file.Exists && file.Size < minDriverFileSize
	}

	altitude, err := c.Registry.ConfiguredAltitude(ctx)
	if err != nil {
		ev.recordProbeError("registry-altitude", err)
	} else {
		ev.RegistryAltitude = altitude
		ev.RegistryAltitudeOK = altitude == ExpectedAltitude
	}

	build, err := c.Host.OSBuild(ctx)
	if err != nil {
		ev.recordProbeError("os-build", err)
	} else {
		ev.OSBuild = build
		if expected, known := KnownGoodHash(build); known {
			ev.DriverHashKnown = true
			ev.DriverHashVerified = ev.DriverFile.Exists &&
				strings.EqualFold(ev.DriverFile.SHA256, expected)
		}
	}

	names, err := c.Host.ServiceNames(ctx)
	if err != nil {
		ev.recordProbeError("service-names", err)
	} else {
		agentNames := names
		for _, filter := range ev.Filters {
			agentNames = append(agentNames, filter.Name)
		}
		ev.SecurityAgents = MatchSecurityAgents(agentNames)
	}

	return ev
}

// RecheckFilterLoaded re-reads the primary signal only. Used after a
// remediation pass: OS state may have changed between observations, so the
// verdict trusts a fresh read, not the remediation's own success.
func (c *Collector) RecheckFilterLoaded(ctx context.Context) (bool, error) {
	filters, err := c.Filters.ListFilters(ctx)
	if err != nil {
		return false, forgeerrors.NewProbeError("filter-list", err)
	}
	for _, filter := range filters {
		if strings.EqualFold(filter.Name, FilterName) {
			return true, nil
		}
	}
	return false, nil
}

func (ev *Evidence) recordProbeError(source string, err error) {
	ev.ProbeErrors = append(ev.ProbeErrors, fmt.Sprintf("%s: %v", source, err))
}

// fltmcProvider parses `fltmc filters` output, the primary signal.
type fltmcProvider struct {
	runner hostprobe.Runner
}

func (p fltmcProvider) ListFilters(ctx context.Context) ([]FilterEntry, error) {
	output, err := p.runner.Run(ctx, "fltmc.exe", "filters")
	if err != nil {
		return nil, err
	}
	return parseFilterList(output), nil
}

// parseFilterList extracts name and altitude rows from fltmc output:
//
//	Filter Name                     Num Instances    Altitude    Frame
//	------------------------------  -------------  ------------  -----
//	WdFilter                                5         328010         0
func parseFilterList(output string) []FilterEntry {
	var entries []FilterEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Filter Name") || strings.HasPrefix(line, "---") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		entry := FilterEntry{Name: fields[0]}
		// Legacy filters omit the instance count; the altitude is the
		// first purely numeric field after the name.
		for _, field := range fields[1:] {
			if len(field) >= 6 && isDigits(field) {
				entry.Altitude = field
				break
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// serviceProvider answers from PowerShell first and falls back to sc.exe
// when the structured query is unavailable.
type serviceProvider struct {
	runner hostprobe.Runner
}

func (p serviceProvider) QueryService(ctx context.Context, name string) (ServiceInfo, error) {
	script := fmt.Sprintf("(Get-Service -Name '%s' -ErrorAction Stop).Status.ToString()", name)
	output, err := hostprobe.PowerShell(ctx, p.runner, script)
	if err == nil {
		return ServiceInfo{Exists: true, State: strings.ToUpper(strings.TrimSpace(output)), Source: "powershell"}, nil
	}
	if strings.Contains(output, "Cannot find any service") {
		return ServiceInfo{Exists: false, Source: "powershell"}, nil
	}

	return p.queryWithSC(ctx, name)
}

func (p serviceProvider) queryWithSC(ctx context.Context, name string) (ServiceInfo, error) {
	output, err := p.runner.Run(ctx, "sc.exe", "query", name)
	if err != nil {
		// 1060: the specified service does not exist.
		if strings.Contains(output, "1060") {
			return ServiceInfo{Exists: false, Source: "sc"}, nil
		}
		return ServiceInfo{}, err
	}

	info := ServiceInfo{Exists: true, Source: "sc"}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "STATE") {
			continue
		}
		// STATE              : 4  RUNNING
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			info.State = fields[len(fields)-1]
		}
	}
	return info, nil
}

// driverFileProvider stats and hashes wimmount.sys on disk.
type driverFileProvider struct{}

func (driverFileProvider) DriverFile(ctx context.Context) (DriverFileInfo, error) {
	systemRoot := os.Getenv("SystemRoot")
	if systemRoot == "" {
		systemRoot = `C:\Windows`
	}
	path := filepath.Join(systemRoot, "System32", "drivers", DriverFileName)

	info := DriverFileInfo{Path: path}
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	info.Exists = true
	info.Size = stat.Size()

	file, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return info, err
	}
	info.SHA256 = hex.EncodeToString(hash.Sum(nil))
	return info, nil
}

// registryProvider reads the configured filter altitude with reg.exe.
type registryProvider struct {
	runner hostprobe.Runner
}

const altitudeKey = `HKLM\SYSTEM\CurrentControlSet\Services\WimMount\Instances\WIMMount`

func (p registryProvider) ConfiguredAltitude(ctx context.Context) (string, error) {
	output, err := p.runner.Run(ctx, "reg.exe", "query", altitudeKey, "/v", "Altitude")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		// Altitude    REG_SZ    180700
		if len(fields) == 3 && strings.EqualFold(fields[0], "Altitude") {
			return fields[2], nil
		}
	}
	return "", fmt.Errorf("altitude value not present under %s", altitudeKey)
}

// hostInfoProvider supplies OS build and service names for the heuristics.
type hostInfoProvider struct {
	runner hostprobe.Runner
}

func (p hostInfoProvider) OSBuild(ctx context.Context) (string, error) {
	output, err := hostprobe.PowerShell(ctx, p.runner, "(Get-CimInstance Win32_OperatingSystem).Version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (p hostInfoProvider) ServiceNames(ctx context.Context) ([]string, error) {
	output, err := hostprobe.PowerShell(ctx, p.runner, "(Get-Service).Name -join ';'")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range strings.Split(output, ";") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
