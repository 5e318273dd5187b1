package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStateTTL     = 24 * time.Hour
	defaultHistoryDepth = 5

	fieldPhase      = "phase"
	fieldDNI        = "dni"
	fieldAction     = "action"
	fieldName       = "name"
	fieldUpdateSlot = "field"
	fieldLastTurnAt = "last_turn_at"
)

// slotFields are the hash fields cleared on cancel or workflow completion.
// The phase itself is reset, not deleted, so stale slot values can never
// leak into the next conversation.
var slotFields = []string{fieldDNI, fieldAction, fieldName, fieldUpdateSlot}

// State is the per-user dialogue record. It is exclusively owned and
// mutated by the Engine; the store is a dumb persistence backend.
type State struct {
	Phase      Phase
	DNI        string
	Action     Action
	Name       string
	Field      UpdatableField
	LastTurnAt time.Time
}

// StateStore persists per-user dialogue state and the advisory message log
// in Redis. Two namespaces per user: a field-addressable hash and a bounded
// list of recent "speaker: text" lines fed to the classifier as context.
type StateStore struct {
	redis        *redis.Client
	tracer       trace.Tracer
	ttl          time.Duration
	historyDepth int64
}

func NewStateStore(redisClient *redis.Client) *StateStore {
	if redisClient == nil {
		panic("dialog: redis client cannot be nil")
	}
	return &StateStore{
		redis:        redisClient,
		tracer:       otel.Tracer("decsa.internal.dialog.state"),
		ttl:          defaultStateTTL,
		historyDepth: defaultHistoryDepth,
	}
}

// WithTTL overrides the conversation expiry (a resource-saving measure, not
// a correctness mechanism).
func (s *StateStore) WithTTL(ttl time.Duration) *StateStore {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// WithHistoryDepth overrides how many log lines are retained.
func (s *StateStore) WithHistoryDepth(depth int) *StateStore {
	if depth > 0 {
		s.historyDepth = int64(depth)
	}
	return s
}

func stateKey(userID string) string {
	return fmt.Sprintf("user:%s:state", userID)
}

func logKey(userID string) string {
	return fmt.Sprintf("user:%s:log", userID)
}

// Get loads the full state record. A user with no record gets a fresh
// PhaseStart state; the record is created implicitly on the first write.
func (s *StateStore) Get(ctx context.Context, userID string) (State, error) {
	ctx, span := s.tracer.Start(ctx, "dialog.state.get")
	defer span.End()

	fields, err := s.redis.HGetAll(ctx, stateKey(userID)).Result()
	if err != nil {
		span.RecordError(err)
		return State{}, fmt.Errorf("dialog: failed to load state: %w", err)
	}

	st := State{
		Phase:  ParsePhase(fields[fieldPhase]),
		DNI:    fields[fieldDNI],
		Action: Action(fields[fieldAction]),
		Name:   fields[fieldName],
		Field:  UpdatableField(fields[fieldUpdateSlot]),
	}
	if raw := fields[fieldLastTurnAt]; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			st.LastTurnAt = ts
		}
	}
	return st, nil
}

// SetFields writes the given hash fields and refreshes the record TTL.
func (s *StateStore) SetFields(ctx context.Context, userID string, fields map[string]string) error {
	ctx, span := s.tracer.Start(ctx, "dialog.state.set")
	defer span.End()

	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}

	key := stateKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, args...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialog: failed to persist state: %w", err)
	}
	return nil
}

// SetPhase updates only the phase field.
func (s *StateStore) SetPhase(ctx context.Context, userID string, phase Phase) error {
	return s.SetFields(ctx, userID, map[string]string{fieldPhase: string(phase)})
}

// Touch records the wall-clock time of the current turn, used to enforce
// the idle-timeout policy without any in-memory bookkeeping.
func (s *StateStore) Touch(ctx context.Context, userID string, at time.Time) error {
	return s.SetFields(ctx, userID, map[string]string{fieldLastTurnAt: at.UTC().Format(time.RFC3339)})
}

// ClearSlots deletes every accumulated slot and resets the phase to start.
func (s *StateStore) ClearSlots(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "dialog.state.clear")
	defer span.End()

	key := stateKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.HDel(ctx, key, slotFields...)
	pipe.HSet(ctx, key, fieldPhase, string(PhaseStart))
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialog: failed to clear slots: %w", err)
	}
	return nil
}

// DeleteField removes a single slot field.
func (s *StateStore) DeleteField(ctx context.Context, userID, field string) error {
	if err := s.redis.HDel(ctx, stateKey(userID), field).Err(); err != nil {
		return fmt.Errorf("dialog: failed to delete field %s: %w", field, err)
	}
	return nil
}

// Delete removes the whole conversation (state and log) for a user.
func (s *StateStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, stateKey(userID), logKey(userID)).Err(); err != nil {
		return fmt.Errorf("dialog: failed to delete conversation: %w", err)
	}
	return nil
}

// AppendLog pushes one "speaker: text" line and trims the list to the most
// recent entries, refreshing its TTL (push-then-trim in one pipeline).
func (s *StateStore) AppendLog(ctx context.Context, userID, speaker, text string) error {
	ctx, span := s.tracer.Start(ctx, "dialog.log.append")
	defer span.End()

	key := logKey(userID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, fmt.Sprintf("%s: %s", speaker, text))
	pipe.LTrim(ctx, key, -s.historyDepth, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialog: failed to append log: %w", err)
	}
	return nil
}

// History returns the retained log lines joined with " | ", the shape the
// classifier prompt expects. Purely advisory memory, never authoritative.
func (s *StateStore) History(ctx context.Context, userID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "dialog.log.history")
	defer span.End()

	lines, err := s.redis.LRange(ctx, logKey(userID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("dialog: failed to load history: %w", err)
	}
	return strings.Join(lines, " | "), nil
}

// Lines returns the raw retained log lines, oldest first.
func (s *StateStore) Lines(ctx context.Context, userID string) ([]string, error) {
	lines, err := s.redis.LRange(ctx, logKey(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("dialog: failed to load log lines: %w", err)
	}
	return lines, nil
}
