// Package requirements derives what a requested build needs from the host:
// how much free disk the staging volume must have and which OS features
// have to be installed. The calculation is purely additive so enabling a
// feature can never lower a requirement.
package requirements

import (
	"github.com/wimforge/wimforge/internal/buildconfig"
)

// Fixed cost bands in GB. The scratch overhead covers the mounted image,
// DISM scratch space and log output that every build produces.
const (
	scratchOverheadGB   = 10.0
	captureMediaGB      = 8.0
	deploymentMediaGB   = 8.0
	applicationStageGB  = 5.0
	driverStoreGB       = 2.0
	updatePackagesGB    = 4.0
	hyperVFeatureName   = "Microsoft-Hyper-V"
	adkDeploymentTools  = "Windows ADK Deployment Tools"
	adkWinPEAddon       = "Windows PE add-on"
	defaultImageTooling = "DISM (inbox)"
)

// BuildRequirements is the derived requirement set for one build request.
type BuildRequirements struct {
	RequiredDiskSpaceGB float64
	RequiredFeatures    []string
}

// Calculate derives requirements from the requested features and VHD size.
// It is a pure function: same inputs, same output, no host interaction.
func Calculate(features buildconfig.Features, vhdSizeGB float64) BuildRequirements {
	if vhdSizeGB < 0 {
		vhdSizeGB = 0
	}

	req := BuildRequirements{
		RequiredDiskSpaceGB: vhdSizeGB + scratchOverheadGB,
		RequiredFeatures:    []string{defaultImageTooling},
	}

	if features.CaptureMedia {
		req.RequiredDiskSpaceGB += captureMediaGB
		req.RequiredFeatures = append(req.RequiredFeatures, adkDeploymentTools, adkWinPEAddon)
	}
	if features.DeploymentMedia {
		req.RequiredDiskSpaceGB += deploymentMediaGB
		if !features.CaptureMedia {
			req.RequiredFeatures = append(req.RequiredFeatures, adkDeploymentTools, adkWinPEAddon)
		}
	}
	if features.VMCreation {
		// The VHD itself is already counted in the base requirement.
		req.RequiredFeatures = append(req.RequiredFeatures, hyperVFeatureName)
	}
	if features.InstallApplications {
		req.RequiredDiskSpaceGB += applicationStageGB
	}
	if features.InjectDrivers {
		req.RequiredDiskSpaceGB += driverStoreGB
	}
	if features.InjectUpdates {
		req.RequiredDiskSpaceGB += updatePackagesGB
	}

	return req
}
