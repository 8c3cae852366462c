package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mquispe/accessdir/internal/directory/audit"
	"github.com/mquispe/accessdir/internal/directory/index"
	"github.com/mquispe/accessdir/internal/directory/store"
	"github.com/mquispe/accessdir/internal/directory/types"
)

var (
	ErrIdentifierRequired = errors.New("identifier is required")
	ErrRecordNotFound     = errors.New("record not found")
	ErrUnknownDimension   = errors.New("unknown count dimension")
)

// Audit actions emitted by the directory service.
const (
	ActionRecordCreate      = "RECORD_CREATE"
	ActionRecordUpdate      = "RECORD_UPDATE"
	ActionRecordActivate    = "RECORD_ACTIVATE"
	ActionRecordDeactivate  = "RECORD_DEACTIVATE"
	ActionPermissionsRevoke = "PERMISSIONS_REVOKE"
	ActionExport            = "EXPORT"
)

// snapshot is the immutable in-memory view of the record set as of the last
// successful reload: the ordered index plus the insertion-ordered list.
// Read-only operations work against a snapshot without locking; mutations
// build and swap in a fresh one.
type snapshot struct {
	tree *index.Tree
	list []types.AccessRecord
}

// Dependencies holds the collaborators a Service is constructed with.
type Dependencies struct {
	Records  store.RecordStore
	Backups  store.BackupStore // optional: snapshot before destructive writes
	Exporter store.Exporter    // optional: file export of filtered record sets
	Trail    audit.Recorder
	Now      func() time.Time // optional: defaults to time.Now
}

// Service owns the ordered index and the insertion-ordered list, and drives
// the record store on mutation. Mutations are serialized by writeMu around
// the read-modify-write-reload sequence; reads operate on the snapshot
// current at call time.
type Service struct {
	records  store.RecordStore
	backups  store.BackupStore
	exporter store.Exporter
	trail    audit.Recorder
	now      func() time.Time

	writeMu sync.Mutex // serializes mutating operations end to end

	mu   sync.RWMutex // guards snap
	snap *snapshot
}

// New builds a Service and performs the initial load from the record store.
func New(ctx context.Context, d Dependencies) (*Service, error) {
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &Service{
		records:  d.Records,
		backups:  d.Backups,
		exporter: d.Exporter,
		trail:    d.Trail,
		now:      d.Now,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rebuilds the index and list from the record store and swaps them in
// as the current snapshot. The store is authoritative: whatever it returns
// replaces the previous in-memory state wholesale.
func (s *Service) Reload(ctx context.Context) error {
	rows, err := s.records.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("reload records: %w", err)
	}

	snap := &snapshot{tree: index.New()}
	for _, row := range rows {
		rec := types.FromFields(row)
		if rec.Identifier == "" {
			continue
		}
		snap.tree.Insert(rec.Identifier, rec)
		snap.list = append(snap.list, rec)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func (s *Service) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Register upserts a record by identifier. When the identifier already
// exists the supplied fields are merged into the existing row — omitted
// fields keep their prior values. Otherwise a new ACTIVE record is created.
// Returns the resulting record and whether it was newly created.
func (s *Service) Register(ctx context.Context, fields map[string]string, actor string) (types.AccessRecord, bool, error) {
	id := types.NormalizeIdentifier(fields["identifier"])
	if id == "" {
		return types.AccessRecord{}, false, ErrIdentifierRequired
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, err := s.records.ReadAll(ctx)
	if err != nil {
		return types.AccessRecord{}, false, fmt.Errorf("read records: %w", err)
	}

	created := true
	var merged map[string]string
	for i, row := range rows {
		if types.NormalizeIdentifier(row["identifier"]) != id {
			continue
		}
		merged = mergeRow(row, fields, id)
		rows[i] = merged
		created = false
		break
	}
	if created {
		merged = mergeRow(emptyRow(), fields, id)
		if merged["status"] == "" {
			merged["status"] = types.StatusActive
		}
		rows = append(rows, merged)
	}

	if err := s.persistAndReload(ctx, rows); err != nil {
		return types.AccessRecord{}, false, err
	}

	action := ActionRecordUpdate
	if created {
		action = ActionRecordCreate
	}
	s.recordEvent(actor, action, id)

	return types.FromFields(merged), created, nil
}

// Activate flips the record to ACTIVE.
func (s *Service) Activate(ctx context.Context, identifier, actor string) error {
	return s.setStatus(ctx, identifier, actor, types.StatusActive, ActionRecordActivate)
}

// Deactivate flips the record to INACTIVE. Records are never physically
// deleted; this is the deletion analog.
func (s *Service) Deactivate(ctx context.Context, identifier, actor string) error {
	return s.setStatus(ctx, identifier, actor, types.StatusInactive, ActionRecordDeactivate)
}

func (s *Service) setStatus(ctx context.Context, identifier, actor, status, action string) error {
	return s.mutate(ctx, identifier, actor, action, func(row map[string]string) {
		row["status"] = status
	})
}

// RevokeSpecial turns off the special-permission bundle — special
// permissions, VPN, and social-media access — without touching contract or
// placement fields.
func (s *Service) RevokeSpecial(ctx context.Context, identifier, actor string) error {
	return s.mutate(ctx, identifier, actor, ActionPermissionsRevoke, func(row map[string]string) {
		row["special_permissions_active"] = types.FlagNo
		row["vpn_active"] = types.FlagNo
		row["social_media_access"] = types.FlagNo
	})
}

// mutate applies fn to the row matching identifier, persists the table, and
// reloads. Fails with ErrRecordNotFound if no row matches.
func (s *Service) mutate(ctx context.Context, identifier, actor, action string, fn func(row map[string]string)) error {
	id := types.NormalizeIdentifier(identifier)
	if id == "" {
		return ErrIdentifierRequired
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rows, err := s.records.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}

	found := false
	for _, row := range rows {
		if types.NormalizeIdentifier(row["identifier"]) == id {
			fn(row)
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%s: %w", id, ErrRecordNotFound)
	}

	if err := s.persistAndReload(ctx, rows); err != nil {
		return err
	}

	s.recordEvent(actor, action, id)
	return nil
}

// persistAndReload backs up (when configured), writes the whole table, and
// reloads the snapshot. On write failure the snapshot is left untouched, so
// the in-memory state stays consistent with the last persisted table.
func (s *Service) persistAndReload(ctx context.Context, rows []map[string]string) error {
	if s.backups != nil {
		if _, err := s.backups.Backup(ctx); err != nil {
			return fmt.Errorf("backup before write: %w", err)
		}
	}
	if err := s.records.WriteAll(ctx, rows); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return s.Reload(ctx)
}

// recordEvent appends to the audit trail. Errors are intentionally not
// returned to the caller — the mutation has already been durably persisted,
// and failing the operation now would report a false negative.
func (s *Service) recordEvent(actor, action, detail string) {
	_ = s.trail.Record(audit.Event{
		Timestamp: s.now().UTC(),
		Actor:     actor,
		Action:    action,
		Detail:    detail,
	})
}

// Lookup returns the record stored under the identifier.
func (s *Service) Lookup(identifier string) (types.AccessRecord, error) {
	id := types.NormalizeIdentifier(identifier)
	if id == "" {
		return types.AccessRecord{}, ErrIdentifierRequired
	}
	rec, ok := s.snapshot().tree.Search(id)
	if !ok {
		return types.AccessRecord{}, fmt.Errorf("%s: %w", id, ErrRecordNotFound)
	}
	return rec, nil
}

// ListOrdered returns all records ordered by identifier (in-order traversal
// of the index).
func (s *Service) ListOrdered() []types.AccessRecord {
	return s.snapshot().tree.InOrder()
}

func emptyRow() map[string]string {
	row := make(map[string]string, len(types.FieldNames))
	for _, f := range types.FieldNames {
		row[f] = ""
	}
	return row
}

// mergeRow overlays the supplied canonical fields onto base, forcing the
// normalized identifier. Keys absent from fields keep their base values;
// non-canonical keys are dropped.
func mergeRow(base, fields map[string]string, id string) map[string]string {
	out := make(map[string]string, len(types.FieldNames))
	for _, f := range types.FieldNames {
		out[f] = base[f]
		if v, ok := fields[f]; ok {
			out[f] = v
		}
	}
	out["identifier"] = id
	return out
}
