package job

import (
	"errors"
	"log/slog"

	"github.com/bkolar18/wedding-scraper/internal/model"
)

// LayeredStore keeps the hot copy in memory and mirrors writes to a durable
// backend. Polling hits memory; the durable layer answers only after a
// restart. A durable write failure is logged, not fatal, so a database blip
// cannot kill a running scrape.
type LayeredStore struct {
	fast    Storage
	durable Storage
}

func NewLayeredStore(fast, durable Storage) *LayeredStore {
	return &LayeredStore{fast: fast, durable: durable}
}

func (l *LayeredStore) Save(j *model.ScrapeJob) error {
	if err := l.fast.Save(j); err != nil {
		return err
	}
	if err := l.durable.Save(j); err != nil {
		slog.Warn("durable job save failed.", slog.String("job_id", j.ID),
			slog.String("err", err.Error()))
	}
	return nil
}

func (l *LayeredStore) Get(id string) (*model.ScrapeJob, error) {
	j, err := l.fast.Get(id)
	if err == nil {
		return j, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	j, err = l.durable.Get(id)
	if err != nil {
		return nil, err
	}
	if saveErr := l.fast.Save(j); saveErr != nil {
		slog.Warn("failed to backfill job to memory.", slog.String("job_id", id),
			slog.String("err", saveErr.Error()))
	}
	return j, nil
}
