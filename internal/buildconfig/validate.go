package buildconfig

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	forgeerrors "github.com/wimforge/wimforge/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-field validation on the build document.
func Validate(cfg *BuildConfig) error {
	if cfg == nil {
		return forgeerrors.NewValidationError("config", "build configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if cfg.Features.InstallApplications && len(cfg.Applications) == 0 {
		return forgeerrors.NewValidationError("applications",
			"install_applications is enabled but no applications are listed", nil)
	}

	seen := make(map[string]struct{}, len(cfg.Applications))
	for i, app := range cfg.Applications {
		if _, dup := seen[app.Name]; dup {
			return forgeerrors.NewValidationError(
				fmt.Sprintf("applications[%d].name", i),
				fmt.Sprintf("duplicate application %q", app.Name), nil)
		}
		seen[app.Name] = struct{}{}
	}

	return nil
}

// convertValidationError normalizes validator errors into wimforge validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return forgeerrors.NewValidationError(field, msg, err)
	}

	return forgeerrors.NewValidationError("config", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, strings.ToLower(part))
	}
	return strings.Join(lowered, ".")
}
