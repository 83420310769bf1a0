// Package worker bridges the orchestrator to optional external training
// accelerators over NATS. The system is fully functional without one; an
// accelerator only speeds heavy retraining up.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ashgrovelabs/tutord/internal/sample"
)

// NATS subjects for accelerator coordination.
const (
	SubjectCapability = "tutord.accel.capability"
	SubjectTrain      = "tutord.accel.train"
)

const defaultProbeTimeout = 2 * time.Second

// Capability describes what an accelerator can do, as reported by its
// capability probe.
type Capability struct {
	Available bool   `json:"available"`
	Device    string `json:"device,omitempty"`
}

// Job is a training request handed to an accelerator.
type Job struct {
	Categories  []sample.TaskCategory `json:"task_categories"`
	RequestedAt time.Time             `json:"requested_at"`
}

// Accelerator is the orchestrator's view of an external training helper.
type Accelerator interface {
	// Probe asks whether an accelerator is reachable. An absent
	// accelerator is a normal condition, not an error.
	Probe(ctx context.Context) (Capability, error)

	// Submit hands a training job off, fire and forget. The local
	// training path stays authoritative either way.
	Submit(ctx context.Context, job Job) error
}

// NATSAccelerator talks to accelerator workers over a NATS connection.
type NATSAccelerator struct {
	conn         *nats.Conn
	probeTimeout time.Duration
	logger       *zap.Logger
}

// NewNATSAccelerator wires an accelerator client on an existing connection.
func NewNATSAccelerator(conn *nats.Conn, logger *zap.Logger) *NATSAccelerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSAccelerator{
		conn:         conn,
		probeTimeout: defaultProbeTimeout,
		logger:       logger,
	}
}

// Probe sends a capability request and waits briefly for a worker to
// answer. No responders or a timeout both mean no accelerator is present.
func (a *NATSAccelerator) Probe(ctx context.Context) (Capability, error) {
	ctx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	msg, err := a.conn.RequestWithContext(ctx, SubjectCapability, nil)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, context.DeadlineExceeded) {
			return Capability{}, nil
		}
		return Capability{}, fmt.Errorf("probing accelerator: %w", err)
	}

	var capability Capability
	if err := json.Unmarshal(msg.Data, &capability); err != nil {
		a.logger.Warn("malformed capability response", zap.Error(err))
		return Capability{}, nil
	}
	return capability, nil
}

// Submit publishes a training job. Delivery is best effort; nobody waits
// for the accelerator.
func (a *NATSAccelerator) Submit(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	if err := a.conn.Publish(SubjectTrain, data); err != nil {
		return fmt.Errorf("publishing job: %w", err)
	}
	// FlushWithContext rejects contexts without a deadline, and callers
	// typically pass the long-lived cycle context, so bound it here.
	flushCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()
	if err := a.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flushing job: %w", err)
	}
	a.logger.Debug("training job submitted",
		zap.Int("categories", len(job.Categories)))
	return nil
}
