package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bkolar18/wedding-scraper/internal/broker"
	"github.com/bkolar18/wedding-scraper/internal/job"
	"github.com/bkolar18/wedding-scraper/internal/model"
	jsoniter "github.com/json-iterator/go"
)

// ScrapeWorker bridges the intake topic and the job service. It decodes
// submissions and hands them to the async executor; malformed payloads go
// straight to the dead letter topic.
type ScrapeWorker struct {
	RequestChan <-chan []byte
	Jobs        *job.Service
	KafkaDLQ    *broker.KafkaDLQClient
	Wg          *sync.WaitGroup
}

func (w *ScrapeWorker) Run(ctx context.Context) {
	defer w.Wg.Done()
	slog.Debug("starting scrape worker.")

	for value := range w.RequestChan {
		var request model.ScrapeRequest
		if err := jsoniter.Unmarshal(value, &request); err != nil {
			slog.Error("failed to unmarshal message.", slog.String("err", err.Error()))
			w.KafkaDLQ.SendToDLQ(string(value), err)
			continue
		}
		if request.URL == "" {
			slog.Error("submission without url.")
			w.KafkaDLQ.SendToDLQ(string(value), errors.New("empty url"))
			continue
		}

		jobID, err := w.Jobs.Submit(ctx, request.URL, request.Force)
		if err != nil {
			slog.Error("failed to submit job.", slog.String("url", request.URL),
				slog.String("err", err.Error()))
			w.KafkaDLQ.SendToDLQ(string(value), err)
			continue
		}
		slog.Info("job submitted.", slog.String("job_id", jobID),
			slog.String("url", request.URL), slog.Bool("force", request.Force))
	}
	slog.Debug("scrape worker stopped.")
}
