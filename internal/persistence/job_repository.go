package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bkolar18/wedding-scraper/internal/model"
	jsoniter "github.com/json-iterator/go"
)

var ErrJobNotFound = errors.New("job not found")

// JobStorage persists scrape jobs across restarts. The in-memory store in
// the job package fronts it; the repository is the durable copy.
type JobStorage interface {
	Save(job *model.ScrapeJob) error
	Get(id string) (*model.ScrapeJob, error)
}

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (jr *JobRepository) Save(job *model.ScrapeJob) error {
	scraped, err := nullableJSON(job.ScrapedData == nil, job.ScrapedData)
	if err != nil {
		return fmt.Errorf("encode scraped data: %w", err)
	}
	preview, err := nullableJSON(job.PreviewData == nil, job.PreviewData)
	if err != nil {
		return fmt.Errorf("encode preview data: %w", err)
	}

	_, err = jr.db.Exec(`INSERT INTO wedding_scraper.scrape_jobs
    (id, url, status, progress, message, platform, scraped_data, preview_data, error, created_at, started_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE
	SET status = EXCLUDED.status,
	    progress = EXCLUDED.progress,
	    message = EXCLUDED.message,
		platform = EXCLUDED.platform,
		scraped_data = EXCLUDED.scraped_data,
		preview_data = EXCLUDED.preview_data,
		error = EXCLUDED.error,
		started_at = EXCLUDED.started_at,
		completed_at = EXCLUDED.completed_at;`,
		job.ID,
		job.URL,
		string(job.Status),
		job.Progress,
		job.Message,
		string(job.Platform),
		scraped,
		preview,
		job.Error,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt)
	if err != nil {
		slog.Error("failed to save scrape job to database.", slog.String("job_id", job.ID),
			slog.String("err", err.Error()))
		return err
	}
	slog.Debug("scrape job saved to db.", slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)))
	return nil
}

func (jr *JobRepository) Get(id string) (*model.ScrapeJob, error) {
	job := &model.ScrapeJob{}
	var status, platform string
	var scraped, preview sql.NullString

	err := jr.db.QueryRow(`SELECT id, url, status, progress, message, platform,
	scraped_data, preview_data, error, created_at, started_at, completed_at
	FROM wedding_scraper.scrape_jobs WHERE id = $1;`, id).Scan(
		&job.ID, &job.URL, &status, &job.Progress, &job.Message, &platform,
		&scraped, &preview, &job.Error, &job.CreatedAt, &job.StartedAt, &job.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	job.Status = model.JobStatus(status)
	job.Platform = model.Platform(platform)

	if scraped.Valid && scraped.String != "" {
		record := &model.WeddingRecord{}
		if err = jsoniter.UnmarshalFromString(scraped.String, record); err != nil {
			return nil, fmt.Errorf("decode scraped data: %w", err)
		}
		job.ScrapedData = record
	}
	if preview.Valid && preview.String != "" {
		p := &model.Preview{}
		if err = jsoniter.UnmarshalFromString(preview.String, p); err != nil {
			return nil, fmt.Errorf("decode preview data: %w", err)
		}
		job.PreviewData = p
	}
	return job, nil
}

func nullableJSON(isNil bool, v any) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	encoded, err := jsoniter.MarshalToString(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: encoded, Valid: true}, nil
}
