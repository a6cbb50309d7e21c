package domain

// Environment is the tenant-level isolation axis applied on top of organization
// scoping. The zero value marks legacy rows created before environments existed;
// those rows keep their own uniqueness scope and are never folded into sandbox
// or production.
type Environment string

const (
	EnvironmentLegacy     Environment = ""
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// Valid reports whether the environment is one of the known values.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentLegacy, EnvironmentSandbox, EnvironmentProduction:
		return true
	}
	return false
}

// IsLegacy reports whether the value denotes a legacy (null-environment) row.
func (e Environment) IsLegacy() bool {
	return e == EnvironmentLegacy
}
