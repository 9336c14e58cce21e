package strategyconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// ValidationError stops the program
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a questionable but usable setting
type Warning struct {
	Code    string
	Message string
}

var validate = newValidator()

// newValidator reports fields by their YAML names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Struct tags ===
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toValidationError(fieldErrs[0])
		}
		return ValidationError{"config", err.Error()}
	}

	// === Cohorts ===
	// disjointness, roles and names
	if _, err := cfg.CohortSet(); err != nil {
		return ValidationError{"cohorts", err.Error()}
	}

	// === Brokers ===
	seen := make(map[string]bool, len(cfg.Brokers))
	for i, b := range cfg.Brokers {
		code := strings.ToUpper(b.Code)
		if seen[code] {
			return ValidationError{fmt.Sprintf("brokers[%d].code", i), fmt.Sprintf("duplicate code %s", code)}
		}
		seen[code] = true
	}

	// === Scoring ===
	if cfg.Scoring.DistributionMax >= cfg.Scoring.AccumulationMin {
		return ValidationError{"scoring.distribution_max", "must be < accumulation_min"}
	}

	// === Universe ===
	if hasSource(cfg.Universe.Sources, contracts.SourceStatic) && len(cfg.Universe.Static) == 0 {
		return ValidationError{"universe.static", "required when static is a source"}
	}
	for i, ticker := range cfg.Universe.Static {
		if contracts.NormalizeTicker(ticker) == "" {
			return ValidationError{fmt.Sprintf("universe.static[%d]", i), "empty ticker"}
		}
	}

	return nil
}

// Warn returns recommendation violations (does not stop the program)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	set, err := cfg.CohortSet()
	if err == nil {
		if !hasRole(set, contracts.RoleInstitutional) {
			warnings = append(warnings, Warning{"NO_INSTITUTIONAL_COHORT", "no institutional cohort, accumulation rules never fire"})
		}
		if !hasRole(set, contracts.RoleRetail) {
			warnings = append(warnings, Warning{"NO_RETAIL_COHORT", "no retail cohort, retail rules never fire"})
		}

		dir := cfg.BrokerDirectory()
		for _, code := range set.Codes() {
			if _, ok := dir[code]; !ok {
				warnings = append(warnings, Warning{"UNNAMED_BROKER", fmt.Sprintf("cohort code %s missing from broker directory", code)})
			}
		}
	}

	if hasSource(cfg.Universe.Sources, contracts.SourceScreen) && len(cfg.Universe.Static) == 0 {
		warnings = append(warnings, Warning{"NO_SCREEN_FALLBACK", "screen source without a static fallback list"})
	}

	if cfg.Scoring.InstitutionalHigh == cfg.Scoring.InstitutionalLow {
		warnings = append(warnings, Warning{"INSTITUTIONAL_TIERS_EQUAL", "moderate institutional tier can never fire"})
	}

	return warnings
}

func toValidationError(fe validator.FieldError) ValidationError {
	// drop the root type name
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	msg := fe.Tag()
	if fe.Param() != "" {
		msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return ValidationError{field, "must satisfy " + msg}
}

func hasSource(sources []string, want string) bool {
	for _, s := range sources {
		if s == want {
			return true
		}
	}
	return false
}

func hasRole(set *contracts.CohortSet, role contracts.CohortRole) bool {
	for _, c := range set.Cohorts() {
		if c.Role == role {
			return true
		}
	}
	return false
}
