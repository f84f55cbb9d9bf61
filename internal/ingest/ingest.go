// Package ingest implements the batch ingestion engine: the orchestration
// that turns source files into ledger events. Files are parsed and
// canonicalized concurrently; a single serial stage then idempotency-gates,
// classifies, and duplicate-scans each record and appends the resulting
// events, so the store's total order falls out of wall-clock append time.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mindburn-labs/ledgerly/internal/canon"
	"github.com/mindburn-labs/ledgerly/internal/dedupe"
	"github.com/mindburn-labs/ledgerly/internal/eventstore"
	"github.com/mindburn-labs/ledgerly/internal/model"
	"github.com/mindburn-labs/ledgerly/internal/obs"
	"github.com/mindburn-labs/ledgerly/internal/parser"
	"github.com/mindburn-labs/ledgerly/internal/projection"
	"github.com/mindburn-labs/ledgerly/internal/rules"
)

// sniffSize is how many leading bytes of a source file DetectSource
// inspects when a filename gives no hint of its source kind.
const sniffSize = 512

// File is one source to ingest: a name (used for provenance and source
// detection) and a reader over its full contents.
type File struct {
	Name   string
	Reader io.Reader
}

// Engine is the ingestion entry point. It holds no per-batch state, so one
// Engine may run any number of Ingest calls, concurrently or in sequence.
type Engine struct {
	registry   *parser.Registry
	rules      *rules.Engine
	store      eventstore.EventStore
	tolerances dedupe.Tolerances
	obs        *obs.Provider

	maxWorkers int
}

// New creates an Engine. obsProvider may be nil, in which case a disabled
// (no-op) Provider is created.
func New(registry *parser.Registry, rulesEngine *rules.Engine, store eventstore.EventStore, tolerances dedupe.Tolerances, obsProvider *obs.Provider) *Engine {
	if obsProvider == nil {
		obsProvider, _ = obs.New(context.Background(), obs.DefaultConfig())
	}
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		registry:   registry,
		rules:      rulesEngine,
		store:      store,
		tolerances: tolerances,
		obs:        obsProvider,
		maxWorkers: workers,
	}
}

// fileResult is the output of the parallel parse+canonicalize stage for
// one file: ready-to-append transactions in source order, plus any
// recoverable errors encountered along the way. It carries no mutable
// shared state, so producing it requires no synchronization.
type fileResult struct {
	name         string
	processed    bool
	transactions []model.Transaction
	errs         []string
}

// Ingest parses, canonicalizes, classifies, and appends every record in
// files to the event store, returning the batch report. A non-nil error
// means a fatal failure
// (rule engine unusable, event-store I/O failure); recoverable per-file
// and per-record anomalies are reported in Report.Errors instead.
func (e *Engine) Ingest(ctx context.Context, files []File) (Report, error) {
	ctx, done := e.obs.TrackBatch(ctx, attribute.String("batch.id", NewCorrelationID()))

	existing, err := e.store.All(ctx)
	if err != nil {
		err = fmt.Errorf("ingest: reading event log: %w", err)
		done(err)
		return Report{}, err
	}
	ledger := projection.FoldLedger(existing)
	banks := knownBanks(existing)

	results := e.parseAndCanonicalizeAll(ctx, files)

	report := Report{RulesFileVersion: e.rules.Version()}
	for _, r := range results {
		if r.processed {
			report.FilesProcessed++
		}
		report.Errors = append(report.Errors, r.errs...)
	}

	for _, r := range results {
		for _, txn := range r.transactions {
			imported, err := e.appendImport(ctx, txn)
			if err != nil {
				err = fmt.Errorf("ingest: appending transaction-imported event: %w", err)
				done(err)
				return Report{}, err
			}
			if !imported {
				report.DuplicatesSuppressed++
				continue
			}
			report.TransactionsImported++

			if err := e.registerBank(ctx, txn.Bank, banks); err != nil {
				err = fmt.Errorf("ingest: appending bank-registered event: %w", err)
				done(err)
				return Report{}, err
			}

			classified, err := e.classify(ctx, txn)
			if err != nil {
				err = fmt.Errorf("ingest: appending classification event: %w", err)
				done(err)
				return Report{}, err
			}
			ledger.Put(classified)

			if err := e.scanDuplicates(ctx, classified, ledger); err != nil {
				err = fmt.Errorf("ingest: appending duplicate-detected event: %w", err)
				done(err)
				return Report{}, err
			}
		}
	}

	e.obs.RecordTransactionsImported(ctx, int64(report.TransactionsImported))
	e.obs.RecordDuplicatesSuppressed(ctx, int64(report.DuplicatesSuppressed))
	done(nil)
	return report, nil
}

// parseAndCanonicalizeAll runs the parse+canonicalize stage for every file
// concurrently, bounded by maxWorkers. Results preserve input order —
// each worker writes only to its own slot — so the later serial append
// stage sees each file's records in source order.
func (e *Engine) parseAndCanonicalizeAll(ctx context.Context, files []File) []fileResult {
	results := make([]fileResult, len(files))
	sem := make(chan struct{}, e.maxWorkers)
	var wg sync.WaitGroup

	for i, f := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f File) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.parseAndCanonicalizeOne(ctx, f)
		}(i, f)
	}
	wg.Wait()
	return results
}

func (e *Engine) parseAndCanonicalizeOne(ctx context.Context, f File) fileResult {
	result := fileResult{name: f.Name}

	data, err := io.ReadAll(f.Reader)
	if err != nil {
		result.errs = append(result.errs, fmt.Sprintf("%s: reading source: %v", f.Name, err))
		return result
	}
	result.processed = true

	sniff := data
	if len(sniff) > sniffSize {
		sniff = sniff[:sniffSize]
	}
	kind, err := parser.DetectSource(f.Name, sniff)
	if err != nil {
		result.errs = append(result.errs, fmt.Sprintf("%s: %v", f.Name, err))
		return result
	}

	p, ok := e.registry.Get(kind)
	if !ok {
		result.errs = append(result.errs, fmt.Sprintf("%s: no parser registered for source kind %q", f.Name, kind))
		return result
	}

	raws, err := p.Parse(ctx, parser.SourceHandle{Name: f.Name, Reader: bytes.NewReader(data)})
	if err != nil {
		result.errs = append(result.errs, fmt.Sprintf("%s: %v", f.Name, err))
		return result
	}

	now := time.Now().UTC()
	for _, raw := range raws {
		txn, err := canon.Canonicalize(raw, p, now)
		if err != nil {
			result.errs = append(result.errs, fmt.Sprintf("%s: record %d: %v", f.Name, raw.RecordIndex, err))
			continue
		}
		result.transactions = append(result.transactions, txn)
	}
	return result
}

// appendImport appends a transaction-imported event keyed on the
// transaction's content identity, so a re-ingestion of the same bytes
// collides on the same event ID and is reported back as imported=false
// rather than appended twice.
func (e *Engine) appendImport(ctx context.Context, txn model.Transaction) (imported bool, err error) {
	event := model.Event{
		ID:         "transaction-imported:" + txn.Identity,
		Timestamp:  time.Now().UTC(),
		Kind:       model.EventTransactionImported,
		EntityKind: "transaction",
		EntityID:   txn.Identity,
		Actor:      model.Actor{Kind: model.ActorSystem, ID: "ingest"},
		Payload:    transactionPayload(txn),
	}

	err = e.store.Append(ctx, event)
	if errors.Is(err, eventstore.ErrDuplicateEvent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// classify evaluates the rule set against txn and, on a match, applies the
// rule's target attributes to the returned copy and appends a
// system-authored classification-applied event. The applied attributes
// matter downstream within the same batch: the transfer-pair strategy only
// fires on transactions whose kind a rule has already set.
func (e *Engine) classify(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	result, err := e.rules.Classify(txn.Description, txn.Merchant, txn.Amount, txn.Category, txn.Kind)
	if err != nil {
		return txn, fmt.Errorf("classifying: %w", err)
	}
	if !result.Matched {
		return txn, nil
	}

	// Empty target attributes are omitted from the payload so the ledger
	// fold never erases a parser-derived value with a blank one.
	payload := map[string]any{
		"rule_id":    result.RuleID,
		"confidence": result.Confidence,
	}
	if result.Merchant != "" {
		txn.Merchant = result.Merchant
		payload["merchant"] = result.Merchant
	}
	if result.Category != "" {
		txn.Category = result.Category
		payload["category"] = result.Category
	}
	if result.Kind != model.KindUnclassified {
		txn.Kind = result.Kind
		payload["kind"] = string(result.Kind)
	}
	if txn.Metadata == nil {
		txn.Metadata = map[string]any{}
	}
	txn.Metadata["classification_rule_id"] = result.RuleID
	txn.Metadata["classification_confidence"] = result.Confidence

	event := model.Event{
		ID:         "classification-applied:" + txn.Identity + ":" + e.rules.Version() + ":" + result.RuleID,
		Timestamp:  time.Now().UTC(),
		Kind:       model.EventClassificationApplied,
		EntityKind: "transaction",
		EntityID:   txn.Identity,
		Actor:      model.Actor{Kind: model.ActorSystem, ID: "rules-engine"},
		Payload:    payload,
	}

	if err := e.store.Append(ctx, event); err != nil && !errors.Is(err, eventstore.ErrDuplicateEvent) {
		return txn, err
	}
	return txn, nil
}

// knownBanks collects every bank label already announced by a
// bank-registered event.
func knownBanks(events []model.Event) map[string]bool {
	banks := make(map[string]bool)
	for _, e := range events {
		if e.Kind == model.EventBankRegistered {
			banks[e.EntityID] = true
		}
	}
	return banks
}

// registerBank appends a bank-registered event the first time a bank label
// is seen, so the ledger records where its transactions come from. The
// deterministic event ID makes re-registration across batches an
// idempotent no-op at the store.
func (e *Engine) registerBank(ctx context.Context, bank string, banks map[string]bool) error {
	if bank == "" || banks[bank] {
		return nil
	}
	banks[bank] = true

	event := model.Event{
		ID:         "bank-registered:" + bank,
		Timestamp:  time.Now().UTC(),
		Kind:       model.EventBankRegistered,
		EntityKind: "bank",
		EntityID:   bank,
		Actor:      model.Actor{Kind: model.ActorSystem, ID: "ingest"},
		Payload:    map[string]any{"bank": bank},
	}

	if err := e.store.Append(ctx, event); err != nil && !errors.Is(err, eventstore.ErrDuplicateEvent) {
		return err
	}
	return nil
}

// scanDuplicates compares txn against every other transaction currently in
// ledger (already including txn itself) and records the first strategy
// that fires per pair as a duplicate-detected event. Detection never
// mutates or removes a transaction; annotations clearing the configured
// auto-approve confidence additionally get a system-authored
// duplicate-marked decision.
func (e *Engine) scanDuplicates(ctx context.Context, txn model.Transaction, ledger projection.Ledger) error {
	for _, other := range ledger.All() {
		if other.Identity == txn.Identity {
			continue
		}

		annotation, ok := dedupe.Detect(txn, other, e.tolerances)
		if !ok {
			continue
		}

		if err := e.appendDuplicateDetected(ctx, annotation); err != nil {
			return err
		}

		if e.tolerances.AutoApprove > 0 && annotation.Confidence >= e.tolerances.AutoApprove {
			if err := e.MarkDuplicate(ctx, annotation, model.Actor{Kind: model.ActorSystem, ID: "dedupe-auto-approve"}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) appendDuplicateDetected(ctx context.Context, a model.DuplicateAnnotation) error {
	first, second := a.IdentityA, a.IdentityB
	if second < first {
		first, second = second, first
	}

	event := model.Event{
		ID:         "duplicate-detected:" + string(a.Strategy) + ":" + first + ":" + second,
		Timestamp:  time.Now().UTC(),
		Kind:       model.EventDuplicateDetected,
		EntityKind: "duplicate-annotation",
		EntityID:   first + ":" + second,
		Actor:      model.Actor{Kind: model.ActorSystem, ID: "dedupe-engine"},
		Payload: map[string]any{
			"identity_a": a.IdentityA,
			"identity_b": a.IdentityB,
			"strategy":   string(a.Strategy),
			"confidence": a.Confidence,
			"reason":     a.Reason,
			"decided_by": a.DecidedBy,
		},
	}

	if err := e.store.Append(ctx, event); err != nil && !errors.Is(err, eventstore.ErrDuplicateEvent) {
		return err
	}
	return nil
}

// MarkDuplicate records a decision about a detected duplicate pair — a
// human confirming or dismissing what the dedupe engine found. The
// annotation's DecidedBy names the actor; both transactions stay in the
// ledger regardless of the decision.
func (e *Engine) MarkDuplicate(ctx context.Context, a model.DuplicateAnnotation, actor model.Actor) error {
	first, second := a.IdentityA, a.IdentityB
	if second < first {
		first, second = second, first
	}

	event := model.Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Kind:       model.EventDuplicateMarked,
		EntityKind: "duplicate-annotation",
		EntityID:   first + ":" + second,
		Actor:      actor,
		Payload: map[string]any{
			"identity_a": a.IdentityA,
			"identity_b": a.IdentityB,
			"strategy":   string(a.Strategy),
			"confidence": a.Confidence,
			"reason":     a.Reason,
			"decided_by": a.DecidedBy,
		},
	}

	if err := e.store.Append(ctx, event); err != nil {
		return fmt.Errorf("ingest: appending duplicate-marked event: %w", err)
	}
	return nil
}

// RecordVerification appends a verification-recorded event for a
// transaction: an actor vouching (or un-vouching) for its facts. The
// transaction itself is never touched; projections read the mark from the
// event log.
func (e *Engine) RecordVerification(ctx context.Context, identity string, verified bool, note string, actor model.Actor) error {
	event := model.Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Kind:       model.EventVerificationRecorded,
		EntityKind: "transaction",
		EntityID:   identity,
		Actor:      actor,
		Payload: map[string]any{
			"verified": verified,
			"note":     note,
		},
	}

	if err := e.store.Append(ctx, event); err != nil {
		return fmt.Errorf("ingest: appending verification-recorded event: %w", err)
	}
	return nil
}

// NewCorrelationID generates a random identifier suitable for tagging a
// batch's events/spans when no natural key (e.g. a file path) applies.
func NewCorrelationID() string {
	return uuid.NewString()
}

func transactionPayload(t model.Transaction) map[string]any {
	return map[string]any{
		"identity":             t.Identity,
		"date":                 t.Date,
		"amount":               t.Amount,
		"original_amount_text": t.OriginalAmountText,
		"original_currency":    t.OriginalCurrency,
		"description":          t.Description,
		"merchant":             t.Merchant,
		"kind":                 string(t.Kind),
		"category":             t.Category,
		"bank":                 t.Bank,
		// The full provenance block rides in the event so the ledger
		// projection (and any audit reader) can be rebuilt from the log
		// alone, with nothing held back in process state.
		"provenance": map[string]any{
			"source_file":    t.Provenance.SourceFile,
			"record_index":   t.Provenance.RecordIndex,
			"extracted_at":   t.Provenance.ExtractedAt,
			"parser_version": t.Provenance.ParserVersion,
			"transforms":     t.Provenance.Transforms,
		},
	}
}
