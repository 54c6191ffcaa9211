package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TaskRolled     = "task.rolled"
	TaskBacklogged = "task.backlogged"
	TaskCompleted  = "task.completed"
	ListReplaced   = "list.replaced"
	StateImported  = "state.imported"
	StateReset     = "state.reset"
)

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Append records one transition inside tx so it commits with the state write.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, opID, task string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,op_id,task,payload_json) VALUES (?,?,?,?,?)`,
		ts, evtType, opID, nullable(task), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
