package buildconfig

// NeedsNetwork reports whether any requested feature downloads content
// during the build.
func (f Features) NeedsNetwork() bool {
	return f.InjectDrivers || f.InjectUpdates || f.InstallApplications
}

// NeedsImageMount reports whether any requested feature mounts an offline
// image, and therefore depends on the WIMMount filter driver (or its
// native DISM fallback).
func (f Features) NeedsImageMount() bool {
	return f.CaptureMedia || f.InjectDrivers || f.InjectUpdates
}

// NeedsHypervisor reports whether the build provisions a VM.
func (f Features) NeedsHypervisor() bool {
	return f.VMCreation
}

// Enabled returns the names of the requested features in a fixed order.
func (f Features) Enabled() []string {
	var names []string
	if f.CaptureMedia {
		names = append(names, "capture_media")
	}
	if f.DeploymentMedia {
		names = append(names, "deployment_media")
	}
	if f.VMCreation {
		names = append(names, "vm_creation")
	}
	if f.InstallApplications {
		names = append(names, "install_applications")
	}
	if f.InjectDrivers {
		names = append(names, "inject_drivers")
	}
	if f.InjectUpdates {
		names = append(names, "inject_updates")
	}
	return names
}
