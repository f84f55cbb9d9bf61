// Package selection implements Context Selections: per-use-case
// refinements of a shape that declare which attributes a given use case
// requires, permits, or forbids. Satisfaction is computed on demand against
// an instance; it is never stored.
package selection

// Name enumerates the contexts the system defines.
type Name string

const (
	ContextDisplay      Name = "display"
	ContextAudit        Name = "audit"
	ContextReporting    Name = "reporting"
	ContextImportTime   Name = "import-time"
	ContextVerification Name = "verification"
	ContextTrainingData Name = "training-data"
	ContextQualityCheck Name = "quality-check"
)

// Requirement classifies how a context treats one attribute.
type Requirement string

const (
	Required  Requirement = "required"
	Optional  Requirement = "optional"
	Forbidden Requirement = "forbidden"
)

// Selection maps attribute identifiers to their requirement under one
// context.
type Selection struct {
	Context      Name
	Requirements map[string]Requirement
}

// Violation describes one attribute that fails a Selection's requirement.
type Violation struct {
	AttributeID string
	Requirement Requirement
	Reason      string
}

// Satisfies reports whether instance (attribute id -> present value, nil if
// absent) satisfies s, returning every violation found.
func (s Selection) Satisfies(instance map[string]any) []Violation {
	var violations []Violation
	for attrID, req := range s.Requirements {
		val, present := instance[attrID]
		switch req {
		case Required:
			if !present || isZero(val) {
				violations = append(violations, Violation{
					AttributeID: attrID,
					Requirement: req,
					Reason:      "required attribute missing",
				})
			}
		case Forbidden:
			if present && !isZero(val) {
				violations = append(violations, Violation{
					AttributeID: attrID,
					Requirement: req,
					Reason:      "forbidden attribute present",
				})
			}
		case Optional:
			// always satisfied
		}
	}
	return violations
}

// IsSatisfied is Satisfies with a boolean result for callers that don't
// need the detail.
func (s Selection) IsSatisfied(instance map[string]any) bool {
	return len(s.Satisfies(instance)) == 0
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}
