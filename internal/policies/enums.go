package policies

// Type classifies how strict a policy's refund terms are.
type Type string

const (
	TypeStandard Type = "STANDARD"
	TypeFlexible Type = "FLEXIBLE"
	TypeStrict   Type = "STRICT"
	TypeCustom   Type = "CUSTOM"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeStandard, TypeFlexible, TypeStrict, TypeCustom:
		return true
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// Status is the lifecycle state of a policy. Policies are never deleted;
// they are deprecated so historical cancellations keep their audit trail.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusDeprecated Status = "DEPRECATED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeprecated:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ExceptionType identifies an emergency circumstance that may override the
// time-based refund tiers.
type ExceptionType string

const (
	ExceptionMedical      ExceptionType = "MEDICAL"
	ExceptionWeather      ExceptionType = "WEATHER"
	ExceptionForceMajeure ExceptionType = "FORCE_MAJEURE"
)

func (e ExceptionType) IsValid() bool {
	switch e {
	case ExceptionMedical, ExceptionWeather, ExceptionForceMajeure:
		return true
	}
	return false
}

func (e ExceptionType) String() string {
	return string(e)
}
