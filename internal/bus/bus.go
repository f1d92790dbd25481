// Package bus publishes job status transitions to interested subscribers.
// Every job gets its own channel so a client can follow exactly one job.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message is one job status transition.
type Message struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Channel returns the pub/sub channel name for a job.
func Channel(jobID string) string {
	return "job:" + jobID
}

// encodeMessage and decodeMessage fix the JSON wire format shared by every
// cross-process bus implementation.
func encodeMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode status message: %w", err)
	}
	return data, nil
}

func decodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode status message: %w", err)
	}
	return msg, nil
}

// Bus delivers job status messages. Subscribe returns a receive channel and
// a cancel function that releases the subscription; the channel is closed
// once the subscription ends.
type Bus interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context, jobID string) (<-chan Message, func(), error)
}
