package attrs

// Well-known attribute identifiers shared by the Transaction shape and the
// context selections in internal/selection.
const (
	AttrIdentity    = "txn.identity"
	AttrDate        = "txn.date"
	AttrAmount      = "txn.amount"
	AttrDescription = "txn.description"
	AttrMerchant    = "txn.merchant"
	AttrKind        = "txn.kind"
	AttrCategory    = "txn.category"
	AttrBank        = "txn.bank"
	AttrProvenance  = "txn.provenance"
	AttrMetadata    = "txn.metadata"
)

// RegisterDefaults seeds r with the attribute definitions the Transaction
// shape (internal/shapes) is built from. It is safe to call more than once.
func RegisterDefaults(r *Registry) error {
	defs := []Definition{
		{
			ID:          AttrIdentity,
			Name:        "Identity",
			Type:        TypeText,
			Description: "Content-derived identity hash; primary key.",
			Validation:  Validation{Required: true, MinLength: 16},
			Provenance:  "computed by internal/canon from normalized date, amount, merchant, bank",
		},
		{
			ID:          AttrDate,
			Name:        "Date",
			Type:        TypeText,
			Description: "Normalized calendar date, YYYY-MM-DD.",
			Validation:  Validation{Required: true, Pattern: `^\d{4}-\d{2}-\d{2}$`},
		},
		{
			ID:          AttrAmount,
			Name:        "Amount",
			Type:        TypeDecimal,
			Description: "Signed canonical amount in the reference currency; positive = inflow.",
			Validation:  Validation{Required: true},
		},
		{
			ID:          AttrDescription,
			Name:        "Description",
			Type:        TypeText,
			Description: "Free-text transaction description.",
			Validation:  Validation{Required: true, MinLength: 1},
		},
		{
			ID:          AttrMerchant,
			Name:        "Merchant",
			Type:        TypeText,
			Description: "Normalized merchant name, when known.",
			Validation:  Validation{Required: false},
		},
		{
			ID:          AttrKind,
			Name:        "Kind",
			Type:        TypeEnum,
			Description: "Transaction class.",
			Validation:  Validation{Required: false, Enum: []string{"expense", "income", "card-payment", "transfer", ""}},
		},
		{
			ID:          AttrCategory,
			Name:        "Category",
			Type:        TypeText,
			Description: "Spending/income category, when classified.",
			Validation:  Validation{Required: false},
		},
		{
			ID:          AttrBank,
			Name:        "Bank",
			Type:        TypeText,
			Description: "Bank or account label the transaction belongs to.",
			Validation:  Validation{Required: false},
		},
		{
			ID:          AttrProvenance,
			Name:        "Provenance",
			Type:        TypeJSON,
			Description: "Source file, record index, extraction timestamp, parser version, transform log.",
			Validation:  Validation{Required: true},
		},
		{
			ID:          AttrMetadata,
			Name:        "Metadata",
			Type:        TypeJSON,
			Description: "Open key/value extension map: confidence scores, verification marks, rule ids, duplicate annotations.",
			Validation:  Validation{Required: false},
		},
	}

	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
