package checks

import (
	"errors"
	"fmt"

	"github.com/wimforge/wimforge/internal/buildconfig"
	"github.com/wimforge/wimforge/internal/model"
	forgeerrors "github.com/wimforge/wimforge/pkg/errors"
)

const configRemediation = `1. Open the build document and fix the reported field.
2. Validate it again with: wimforge check config-file --config <path>`

// ConfigFile verifies the build document parses and passes schema validation.
func ConfigFile(path string) model.CheckResult {
	builder := model.NewResult(NameConfigFile)
	builder.Detail("Path", path)

	if path == "" {
		return builder.Fail("no build document was provided", configRemediation)
	}

	cfg, err := buildconfig.Parse(path)
	if err != nil {
		var parseErr *forgeerrors.ParseError
		if errors.As(err, &parseErr) {
			if parseErr.Line > 0 {
				builder.Detail("Line", parseErr.Line)
			}
			return builder.Fail(fmt.Sprintf("build document does not parse: %v", err), configRemediation)
		}

		var validationErr *forgeerrors.ValidationError
		if errors.As(err, &validationErr) {
			builder.Detail("Field", validationErr.Field)
			return builder.Fail(fmt.Sprintf("build document is invalid: %v", err), configRemediation)
		}

		return builder.Fail(fmt.Sprintf("build document could not be read: %v", err), configRemediation)
	}

	builder.Detail("Name", cfg.Name)
	builder.Detail("Arch", cfg.Arch)
	builder.Detail("Features", cfg.Features.Enabled())
	return builder.Pass(fmt.Sprintf("build document %q is valid", cfg.Name))
}
