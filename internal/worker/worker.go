package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/openreel/reelrender/internal/db"
	"github.com/openreel/reelrender/internal/models"
	"github.com/openreel/reelrender/internal/queue"
	"github.com/openreel/reelrender/internal/render"
)

type Worker struct {
	db       *db.DB
	queue    *queue.Queue
	renderer *render.Renderer
}

func New(database *db.DB, q *queue.Queue, renderer *render.Renderer) *Worker {
	return &Worker{
		db:       database,
		queue:    q,
		renderer: renderer,
	}
}

// Start begins processing render jobs. Blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context, concurrency int) {
	log.Printf("Worker started with concurrency: %d", concurrency)

	for i := 0; i < concurrency; i++ {
		go w.processQueue(ctx)
	}

	<-ctx.Done()
	log.Println("Worker shutting down...")
}

func (w *Worker) processQueue(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := w.queue.Dequeue(ctx, queue.QueueRender, 5*time.Second)
			if err != nil {
				log.Printf("Error dequeuing render job: %v", err)
				continue
			}

			if job == nil {
				continue // No job available, retry
			}

			log.Printf("Processing render %s", job.RenderID)

			if err := w.handleRender(ctx, job.RenderID); err != nil {
				log.Printf("Render %s failed: %v", job.RenderID, err)
				w.db.UpdateRenderError(ctx, job.RenderID, err.Error())
			} else {
				log.Printf("Render %s completed successfully", job.RenderID)
			}
		}
	}
}

// handleRender loads the stored request and runs the full pipeline for it.
func (w *Worker) handleRender(ctx context.Context, renderID string) error {
	record, err := w.db.GetRender(ctx, renderID)
	if err != nil {
		return fmt.Errorf("failed to load render: %w", err)
	}

	if err := w.db.UpdateRenderStatus(ctx, renderID, models.RenderStatusRunning); err != nil {
		log.Printf("Failed to update render status: %v", err)
	}

	req, err := requestFromRecord(record)
	if err != nil {
		return err
	}

	result, err := w.renderer.Render(ctx, renderID, req)
	if err != nil {
		return err
	}

	return w.db.SetRenderResult(ctx, renderID, result.VideoURL)
}

// requestFromRecord recovers the typed request from the stored JSONB column.
func requestFromRecord(record *models.Render) (models.RenderRequest, error) {
	var req models.RenderRequest

	data, err := json.Marshal(record.Request)
	if err != nil {
		return req, fmt.Errorf("failed to marshal stored request: %w", err)
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("failed to decode stored request: %w", err)
	}
	return req, nil
}
