package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openreel/reelrender/internal/models"
)

func (db *DB) CreateRender(ctx context.Context, render *models.Render) error {
	query := `
		INSERT INTO renders (
			id, status, request
		) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	return db.QueryRowContext(
		ctx, query,
		render.ID, render.Status, render.Request,
	).Scan(&render.CreatedAt, &render.UpdatedAt)
}

func (db *DB) GetRender(ctx context.Context, id string) (*models.Render, error) {
	query := `
		SELECT
			id, status, request, video_url, error_message, created_at, updated_at
		FROM renders
		WHERE id = $1
	`

	render := &models.Render{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&render.ID, &render.Status, &render.Request, &render.VideoURL,
		&render.ErrorMessage, &render.CreatedAt, &render.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("render not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get render: %w", err)
	}

	return render, nil
}

func (db *DB) ListRecentRenders(ctx context.Context, limit int) ([]models.Render, error) {
	query := `
		SELECT
			id, status, request, video_url, error_message, created_at, updated_at
		FROM renders
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var renders []models.Render
	for rows.Next() {
		var render models.Render
		err := rows.Scan(
			&render.ID, &render.Status, &render.Request, &render.VideoURL,
			&render.ErrorMessage, &render.CreatedAt, &render.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render: %w", err)
		}
		renders = append(renders, render)
	}

	return renders, nil
}

func (db *DB) UpdateRenderStatus(ctx context.Context, id string, status models.RenderStatus) error {
	query := `UPDATE renders SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

func (db *DB) SetRenderResult(ctx context.Context, id string, videoURL string) error {
	query := `
		UPDATE renders
		SET status = $1, video_url = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.RenderStatusSucceeded, videoURL, time.Now(), id)
	return err
}

func (db *DB) UpdateRenderError(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE renders
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := db.ExecContext(ctx, query, models.RenderStatusFailed, errorMessage, time.Now(), id)
	return err
}
