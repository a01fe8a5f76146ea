package host

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	"github.com/payme/contracts/internal/platform/db"
	"github.com/payme/contracts/pkg/address"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"go.opencensus.io/trace"
)

const (
	sequenceKey     = "ledger/sequence"
	sequenceVersion = uint8(0)

	// GenesisSequence is the sequence of a ledger that has never been advanced.
	GenesisSequence = uint32(1)
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// KeyValues is how invocation values are stored/retrieved.
const KeyValues ctxKey = 1

// Values represent state for each invocation.
type Values struct {
	TraceID   string
	Operation string
	Now       time.Time
	Sequence  uint32
}

// Ledger reports the sequence of the current ledger.
type Ledger interface {
	Sequence(ctx context.Context) (uint32, error)
}

// Handler is one invocation of a contract operation.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Host runs contract invocations one at a time against a shared store and keeps the ledger
// sequence.
type Host struct {
	invokeLock deadlock.Mutex

	seqLock  deadlock.RWMutex
	sequence uint32
	loaded   bool

	db  *db.DB
	mw  []Middleware
	now func() time.Time
}

// New creates a Host over dbConn. Middleware is applied to every invocation, first one outermost.
func New(dbConn *db.DB, mw ...Middleware) *Host {
	return &Host{
		db:  dbConn,
		mw:  mw,
		now: time.Now,
	}
}

// SetClock replaces the wall clock used for invocation timestamps.
func (h *Host) SetClock(now func() time.Time) {
	h.now = now
}

// Now returns the host wall clock time.
func (h *Host) Now() time.Time {
	return h.now()
}

// Invoke runs handler with invocations serialized. The Context passed to handler carries the
// invocation Values.
func (h *Host) Invoke(ctx context.Context, operation string, handler Handler) error {
	ctx, span := trace.StartSpan(ctx, "internal.platform.host.Invoke")
	defer span.End()

	h.invokeLock.Lock()
	defer h.invokeLock.Unlock()

	seq, err := h.Sequence(ctx)
	if err != nil {
		return err
	}

	v := Values{
		TraceID:   span.SpanContext().TraceID.String(),
		Operation: operation,
		Now:       h.now(),
		Sequence:  seq,
	}
	ctx = context.WithValue(ctx, KeyValues, &v)

	return wrapMiddleware(handler, h.mw)(ctx)
}

// Sequence returns the current ledger sequence, loading it from storage on first use.
func (h *Host) Sequence(ctx context.Context) (uint32, error) {
	h.seqLock.RLock()
	if h.loaded {
		defer h.seqLock.RUnlock()
		return h.sequence, nil
	}
	h.seqLock.RUnlock()

	h.seqLock.Lock()
	defer h.seqLock.Unlock()

	if err := h.load(ctx); err != nil {
		return 0, err
	}
	return h.sequence, nil
}

// Advance closes the current ledger and returns the new sequence. It waits for any running
// invocation to finish.
func (h *Host) Advance(ctx context.Context) (uint32, error) {
	ctx, span := trace.StartSpan(ctx, "internal.platform.host.Advance")
	defer span.End()

	h.invokeLock.Lock()
	defer h.invokeLock.Unlock()

	h.seqLock.Lock()
	defer h.seqLock.Unlock()

	if err := h.load(ctx); err != nil {
		return 0, err
	}

	next := h.sequence + 1
	if err := h.db.Put(ctx, sequenceKey, serializeSequence(next)); err != nil {
		return 0, errors.Wrap(err, "save sequence")
	}

	h.sequence = next
	return next, nil
}

// Authorize verifies that signature was made over payload by the key pubKey and returns the
// address of that key.
func (h *Host) Authorize(pubKey, signature, payload []byte) (address.Address, error) {
	actor, err := address.Verify(pubKey, signature, payload)
	if err != nil {
		return address.Address{}, protocol.ErrUnauthorized
	}

	return actor, nil
}

// load reads the persisted sequence. seqLock must be held for writing.
func (h *Host) load(ctx context.Context) error {
	if h.loaded {
		return nil
	}

	b, err := h.db.Fetch(ctx, sequenceKey)
	switch {
	case err == db.ErrNotFound:
		h.sequence = GenesisSequence
	case err != nil:
		return errors.Wrap(err, "fetch sequence")
	default:
		seq, err := deserializeSequence(b)
		if err != nil {
			return errors.Wrap(err, "deserialize sequence")
		}
		h.sequence = seq
	}

	h.loaded = true
	return nil
}

// FromContext returns the invocation Values, or nil outside of an invocation.
func FromContext(ctx context.Context) *Values {
	v, ok := ctx.Value(KeyValues).(*Values)
	if !ok {
		return nil
	}
	return v
}

// Now returns the invocation time, or the wall clock outside of an invocation.
func Now(ctx context.Context) time.Time {
	if v := FromContext(ctx); v != nil {
		return v.Now
	}
	return time.Now()
}

// FixedLedger is a Ledger that never advances.
type FixedLedger uint32

// Sequence implements Ledger.
func (l FixedLedger) Sequence(ctx context.Context) (uint32, error) {
	return uint32(l), nil
}

func wrapMiddleware(handler Handler, mw []Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}

func serializeSequence(seq uint32) []byte {
	var buf bytes.Buffer

	// Version
	binary.Write(&buf, binary.LittleEndian, sequenceVersion)
	binary.Write(&buf, binary.LittleEndian, seq)

	return buf.Bytes()
}

func deserializeSequence(b []byte) (uint32, error) {
	buf := bytes.NewReader(b)

	var version uint8
	if err := binary.Read(buf, binary.LittleEndian, &version); err != nil {
		return 0, errors.Wrap(err, "version")
	}
	if version != sequenceVersion {
		return 0, errors.Errorf("Unknown version : %d", version)
	}

	var seq uint32
	if err := binary.Read(buf, binary.LittleEndian, &seq); err != nil {
		return 0, errors.Wrap(err, "sequence")
	}

	return seq, nil
}
