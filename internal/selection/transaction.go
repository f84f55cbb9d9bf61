package selection

import "github.com/mindburn-labs/ledgerly/internal/attrs"

// TransactionSelections are the standard per-context requirement sets for
// the Transaction shape. Display and reporting need human-legible fields;
// audit and verification need provenance; training-data deliberately
// forbids merchant (a potential PII leak for a model-training export) to
// illustrate that a context may exclude what a shape allows.
var TransactionSelections = map[Name]Selection{
	ContextDisplay: {
		Context: ContextDisplay,
		Requirements: map[string]Requirement{
			attrs.AttrDate:        Required,
			attrs.AttrAmount:      Required,
			attrs.AttrDescription: Required,
			attrs.AttrMerchant:    Optional,
			attrs.AttrCategory:    Optional,
		},
	},
	ContextAudit: {
		Context: ContextAudit,
		Requirements: map[string]Requirement{
			attrs.AttrIdentity:   Required,
			attrs.AttrProvenance: Required,
			attrs.AttrMetadata:   Optional,
		},
	},
	ContextReporting: {
		Context: ContextReporting,
		Requirements: map[string]Requirement{
			attrs.AttrDate:     Required,
			attrs.AttrAmount:   Required,
			attrs.AttrCategory: Required,
			attrs.AttrKind:     Required,
		},
	},
	ContextImportTime: {
		Context: ContextImportTime,
		Requirements: map[string]Requirement{
			attrs.AttrIdentity:   Required,
			attrs.AttrProvenance: Required,
		},
	},
	ContextVerification: {
		Context: ContextVerification,
		Requirements: map[string]Requirement{
			attrs.AttrIdentity:   Required,
			attrs.AttrProvenance: Required,
			attrs.AttrMetadata:   Required,
		},
	},
	ContextTrainingData: {
		Context: ContextTrainingData,
		Requirements: map[string]Requirement{
			attrs.AttrDate:     Required,
			attrs.AttrAmount:   Required,
			attrs.AttrCategory: Optional,
			attrs.AttrMerchant: Forbidden,
		},
	},
	ContextQualityCheck: {
		Context: ContextQualityCheck,
		Requirements: map[string]Requirement{
			attrs.AttrMetadata: Required,
		},
	},
}
