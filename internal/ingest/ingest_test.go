package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindburn-labs/ledgerly/internal/dedupe"
	"github.com/mindburn-labs/ledgerly/internal/eventstore"
	"github.com/mindburn-labs/ledgerly/internal/model"
	"github.com/mindburn-labs/ledgerly/internal/parser"
	"github.com/mindburn-labs/ledgerly/internal/projection"
	"github.com/mindburn-labs/ledgerly/internal/rules"
)

const noRules = `[]`

func newTestEngine(t *testing.T, rulesJSON string) (*Engine, eventstore.EventStore) {
	t.Helper()
	store := eventstore.NewMemEventStore()
	engine, err := rules.Load([]byte(rulesJSON))
	require.NoError(t, err)
	return New(parser.NewRegistry(), engine, store, dedupe.DefaultTolerances, nil), store
}

const threeRecordChecking = `Date,Description,Amount
01/15/2024,STARBUCKS,"$45.99"
01/15/2024,AMAZON,"$120.50"
01/15/2024,PAYROLL,"-$2000.00"
`

func TestIngestIdempotentImport(t *testing.T) {
	engine, store := newTestEngine(t, noRules)
	ctx := context.Background()

	first, err := engine.Ingest(ctx, []File{{Name: "checking-jan.csv", Reader: strings.NewReader(threeRecordChecking)}})
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesProcessed)
	assert.Equal(t, 3, first.TransactionsImported)
	assert.Equal(t, 0, first.DuplicatesSuppressed)

	second, err := engine.Ingest(ctx, []File{{Name: "checking-jan.csv", Reader: strings.NewReader(threeRecordChecking)}})
	require.NoError(t, err)
	assert.Equal(t, 0, second.TransactionsImported)
	assert.Equal(t, 3, second.DuplicatesSuppressed)

	events, err := store.All(ctx)
	require.NoError(t, err)
	imported := 0
	for _, e := range events {
		if e.Kind == model.EventTransactionImported {
			imported++
		}
	}
	assert.Equal(t, 3, imported)
}

const amazonRules = `[
	{"id":"amzn-mkt","pattern":"AMAZON.COM MARKETPLACE*","category":"Online Shopping","confidence":0.98,"priority":100},
	{"id":"amzn","pattern":"AMAZON*","category":"Shopping","confidence":0.90,"priority":10}
]`

func TestIngestAppliesRuleClassification(t *testing.T) {
	engine, _ := newTestEngine(t, amazonRules)
	ctx := context.Background()

	csvData := "Date,Description,Amount\n01/15/2024,AMAZON.COM MARKETPLACE US,\"$20.00\"\n"
	report, err := engine.Ingest(ctx, []File{{Name: "checking.csv", Reader: strings.NewReader(csvData)}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TransactionsImported)
	assert.Empty(t, report.Errors)
}

func TestIngestSourceStructureFailureContinuesBatch(t *testing.T) {
	engine, _ := newTestEngine(t, noRules)
	ctx := context.Background()

	good := File{Name: "checking-good.csv", Reader: strings.NewReader(threeRecordChecking)}
	bad := File{Name: "checking-bad.csv", Reader: strings.NewReader("Wrong,Header,Shape\n1,2,3\n")}

	report, err := engine.Ingest(ctx, []File{good, bad})
	require.NoError(t, err)
	assert.Equal(t, 3, report.TransactionsImported)
	assert.NotEmpty(t, report.Errors)
}

func TestIngestRegistersBankOnce(t *testing.T) {
	engine, store := newTestEngine(t, noRules)
	ctx := context.Background()

	_, err := engine.Ingest(ctx, []File{{Name: "checking-jan.csv", Reader: strings.NewReader(threeRecordChecking)}})
	require.NoError(t, err)
	_, err = engine.Ingest(ctx, []File{{Name: "checking-jan.csv", Reader: strings.NewReader(threeRecordChecking)}})
	require.NoError(t, err)

	events, err := store.All(ctx)
	require.NoError(t, err)
	registered := 0
	for _, e := range events {
		if e.Kind == model.EventBankRegistered {
			registered++
			assert.Equal(t, "checking", e.EntityID)
		}
	}
	assert.Equal(t, 1, registered)
}

func TestMarkDuplicateAndRecordVerification(t *testing.T) {
	engine, store := newTestEngine(t, noRules)
	ctx := context.Background()

	report, err := engine.Ingest(ctx, []File{{Name: "checking-jan.csv", Reader: strings.NewReader(threeRecordChecking)}})
	require.NoError(t, err)
	require.Equal(t, 3, report.TransactionsImported)

	events, err := store.All(ctx)
	require.NoError(t, err)
	var identity string
	for _, e := range events {
		if e.Kind == model.EventTransactionImported {
			identity = e.EntityID
			break
		}
	}
	require.NotEmpty(t, identity)

	alice := model.Actor{Kind: model.ActorHuman, ID: "alice"}
	require.NoError(t, engine.MarkDuplicate(ctx, model.DuplicateAnnotation{
		IdentityA:  identity,
		IdentityB:  "other",
		Strategy:   model.StrategyFuzzy,
		Confidence: 0.85,
		Reason:     "confirmed by review",
		DecidedBy:  "alice",
	}, alice))
	require.NoError(t, engine.RecordVerification(ctx, identity, true, "statement cross-checked", alice))

	events, err = store.All(ctx)
	require.NoError(t, err)

	graph := projection.FoldDuplicates(events)
	require.Len(t, graph.For(identity), 1)
	assert.Equal(t, "alice", graph.For(identity)[0].DecidedBy)

	ledger := projection.FoldLedger(events)
	txn, ok := ledger.Get(identity)
	require.True(t, ok)
	assert.Equal(t, true, txn.Metadata["verified"])
	assert.Equal(t, "alice", txn.Metadata["verified_by"])
}

const transferRules = `[
	{"id":"transfer","pattern":"Transfer*","transaction_type":"transfer","confidence":0.99,"priority":10}
]`

func TestIngestDetectsTransferPair(t *testing.T) {
	engine, store := newTestEngine(t, transferRules)
	ctx := context.Background()

	csvData := "Date,Description,Amount\n" +
		"12/25/2024,Transfer to Second,\"-$1000.00\"\n" +
		"12/25/2024,Transfer from First,\"$1000.00\"\n"

	_, err := engine.Ingest(ctx, []File{{Name: "checking-transfers.csv", Reader: strings.NewReader(csvData)}})
	require.NoError(t, err)

	events, err := store.All(ctx)
	require.NoError(t, err)
	found := false
	for _, e := range events {
		if e.Kind == model.EventDuplicateDetected {
			found = true
		}
	}
	assert.True(t, found, "expected a duplicate-detected event for the transfer pair")
}

func TestIngestAutoApprovesHighConfidenceDuplicates(t *testing.T) {
	store := eventstore.NewMemEventStore()
	rulesEngine, err := rules.Load([]byte(transferRules))
	require.NoError(t, err)

	tol := dedupe.DefaultTolerances
	tol.AutoApprove = 0.85 // the transfer-pair strategy's 0.90 clears this

	engine := New(parser.NewRegistry(), rulesEngine, store, tol, nil)
	ctx := context.Background()

	csvData := "Date,Description,Amount\n" +
		"12/25/2024,Transfer to Second,\"-$1000.00\"\n" +
		"12/25/2024,Transfer from First,\"$1000.00\"\n"

	_, err = engine.Ingest(ctx, []File{{Name: "checking-transfers.csv", Reader: strings.NewReader(csvData)}})
	require.NoError(t, err)

	events, err := store.All(ctx)
	require.NoError(t, err)
	marked := 0
	for _, e := range events {
		if e.Kind == model.EventDuplicateMarked {
			marked++
			assert.Equal(t, model.ActorSystem, e.Actor.Kind)
		}
	}
	assert.Equal(t, 1, marked)
}
