// Package worker runs the background reset jobs queued after report downloads.
package worker

import (
	"context"
	"log"

	"classattend/internal/attendance"
	"classattend/internal/queue"
)

// Run consumes reset jobs until ctx is canceled. Job failures are logged and
// dropped; the report that queued them was already delivered, so there is
// nothing to surface and nothing to retry.
func Run(ctx context.Context, q queue.Queue, svc *attendance.Service) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		switch msg.Type {
		case queue.TypeRosterReset:
			if err := svc.ResetRoster(ctx); err != nil {
				log.Printf("roster reset failed: %v", err)
			}
		case queue.TypeStudentReset:
			if err := svc.ResetStudent(ctx, string(msg.Body)); err != nil {
				log.Printf("student reset failed for %s: %v", msg.Body, err)
			}
		default:
			log.Printf("unknown job type %q dropped", msg.Type)
		}
	}
	return nil
}
