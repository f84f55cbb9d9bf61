package shapes

import "github.com/mindburn-labs/ledgerly/internal/attrs"

// TransactionShape is the canonical ledger entry's shape: the attributes
// every Transaction must carry, plus the optional ones it may.
var TransactionShape = Shape{
	Name: "transaction",
	Required: []string{
		attrs.AttrIdentity,
		attrs.AttrDate,
		attrs.AttrAmount,
		attrs.AttrDescription,
		attrs.AttrProvenance,
	},
	Optional: []string{
		attrs.AttrMerchant,
		attrs.AttrKind,
		attrs.AttrCategory,
		attrs.AttrBank,
		attrs.AttrMetadata,
	},
}
