package pubsub

import (
	"encoding/json"

	"philbox/internal/domain/entity"

	"github.com/pkg/errors"
)

// encodeRecord serializes an audit record and derives the attributes used for
// subscription filtering and tracing.
func encodeRecord(record *entity.AuditRecord) ([]byte, map[string]string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	attributes := map[string]string{
		"audit_id":   record.ID.String(),
		"action":     record.Action,
		"actor_kind": string(record.ActorKind),
		"actor_id":   record.ActorID.String(),
	}
	if record.RequestID != "" {
		attributes["request_id"] = record.RequestID
	}

	return data, attributes, nil
}
