// Package projection implements pure folds over the event log: the
// transaction ledger, by-attribute indexes, and the duplicate graph. A
// projection is fully rebuildable from the event log alone and may be
// dropped and recomputed at any time.
package projection

import (
	"encoding/json"

	"github.com/mindburn-labs/ledgerly/internal/model"
)

// Ledger is the transaction-ledger projection: one Transaction per
// content identity, keyed by that identity.
type Ledger struct {
	byIdentity map[string]model.Transaction
}

// FoldLedger applies transaction-imported events in order, then
// classification-applied events in two passes: system-authored events
// first (in order), then human-authored events (in order) — so a human
// classification always wins over a system one for the same identity,
// regardless of timestamp (see DESIGN.md's Open Question resolution (a)).
func FoldLedger(events []model.Event) Ledger {
	l := Ledger{byIdentity: make(map[string]model.Transaction)}

	for _, e := range events {
		if e.Kind != model.EventTransactionImported {
			continue
		}
		txn, ok := decodeTransaction(e.Payload)
		if !ok {
			continue
		}
		l.byIdentity[e.EntityID] = txn
	}

	applyClassifications(&l, events, model.ActorSystem)
	applyClassifications(&l, events, model.ActorHuman)
	applyVerifications(&l, events)

	return l
}

// applyVerifications folds verification-recorded events into each
// transaction's metadata; later events overwrite earlier marks for the
// same identity.
func applyVerifications(l *Ledger, events []model.Event) {
	for _, e := range events {
		if e.Kind != model.EventVerificationRecorded {
			continue
		}
		txn, ok := l.byIdentity[e.EntityID]
		if !ok {
			continue
		}
		if txn.Metadata == nil {
			txn.Metadata = map[string]any{}
		}
		if verified, ok := e.Payload["verified"].(bool); ok {
			txn.Metadata["verified"] = verified
		}
		if note, ok := e.Payload["note"].(string); ok && note != "" {
			txn.Metadata["verification_note"] = note
		}
		txn.Metadata["verified_by"] = e.Actor.ID
		l.byIdentity[e.EntityID] = txn
	}
}

func applyClassifications(l *Ledger, events []model.Event, actorKind model.ActorKind) {
	for _, e := range events {
		if e.Kind != model.EventClassificationApplied || e.Actor.Kind != actorKind {
			continue
		}
		txn, ok := l.byIdentity[e.EntityID]
		if !ok {
			continue
		}
		if category, ok := e.Payload["category"].(string); ok {
			txn.Category = category
		}
		if kind, ok := e.Payload["kind"].(string); ok {
			txn.Kind = model.TransactionKind(kind)
		}
		if merchant, ok := e.Payload["merchant"].(string); ok && merchant != "" {
			txn.Merchant = merchant
		}
		if ruleID, ok := e.Payload["rule_id"].(string); ok {
			if txn.Metadata == nil {
				txn.Metadata = map[string]any{}
			}
			txn.Metadata["classification_rule_id"] = ruleID
			txn.Metadata["classification_actor"] = string(actorKind)
			if conf, ok := e.Payload["confidence"].(float64); ok {
				txn.Metadata["classification_confidence"] = conf
			}
		}
		l.byIdentity[e.EntityID] = txn
	}
}

// Put inserts or overwrites t by its identity. It lets a caller (the
// ingestion engine) keep a Ledger snapshot consistent with transactions it
// is appending within the same batch, without re-folding the whole event
// log after every append.
func (l Ledger) Put(t model.Transaction) {
	l.byIdentity[t.Identity] = t
}

// Get returns the Transaction for identity, if present.
func (l Ledger) Get(identity string) (model.Transaction, bool) {
	t, ok := l.byIdentity[identity]
	return t, ok
}

// All returns every Transaction currently in the ledger, in no particular
// order.
func (l Ledger) All() []model.Transaction {
	out := make([]model.Transaction, 0, len(l.byIdentity))
	for _, t := range l.byIdentity {
		out = append(out, t)
	}
	return out
}

// Len reports the number of distinct identities in the ledger.
func (l Ledger) Len() int { return len(l.byIdentity) }

// decodeTransaction round-trips an event payload (a generic map, as read
// back from any EventStore) into a Transaction.
func decodeTransaction(payload map[string]any) (model.Transaction, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.Transaction{}, false
	}
	var txn model.Transaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		return model.Transaction{}, false
	}
	return txn, true
}
