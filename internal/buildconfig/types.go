// Package buildconfig loads and validates the declarative build document
// that drives an image build: target architecture, VHD sizing, and the
// feature toggles the preflight engine gates its checks on.
package buildconfig

// BuildConfig represents the full wimforge build document.
type BuildConfig struct {
	Version      string        `yaml:"version" validate:"required,semver"`
	Name         string        `yaml:"name" validate:"required,min=1,max=100"`
	Description  string        `yaml:"description,omitempty"`
	Arch         string        `yaml:"arch" validate:"required,oneof=x64 arm64"`
	VHDSizeGB    float64       `yaml:"vhd_size_gb" validate:"required,min=20,max=2048"`
	BuildPath    string        `yaml:"build_path" validate:"required"`
	UnattendPath string        `yaml:"unattend_path,omitempty"`
	Features     Features      `yaml:"features,omitempty"`
	Applications []Application `yaml:"applications,omitempty" validate:"omitempty,dive"`
}

// Features holds the optional build capabilities requested by the operator.
// Each toggle gates one or more Tier 2 preflight checks.
type Features struct {
	CaptureMedia        bool `yaml:"capture_media,omitempty"`
	DeploymentMedia     bool `yaml:"deployment_media,omitempty"`
	VMCreation          bool `yaml:"vm_creation,omitempty"`
	InstallApplications bool `yaml:"install_applications,omitempty"`
	InjectDrivers       bool `yaml:"inject_drivers,omitempty"`
	InjectUpdates       bool `yaml:"inject_updates,omitempty"`
}

// Application describes one payload staged into the image.
type Application struct {
	Name      string `yaml:"name" validate:"required"`
	Source    string `yaml:"source" validate:"required"`
	Arguments string `yaml:"arguments,omitempty"`
}
