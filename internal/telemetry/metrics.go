package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/detectors/aws/ecs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/google/uuid"
)

var meter metric.Meter

type MetricsProvider struct {
	KafkaConsumerMetrics *KafkaConsumerMetrics
	KafkaProducerMetrics *KafkaProducerMetrics
	ScrapeMetrics        *ScrapeMetrics
	JobMetrics           *JobMetrics
	Close                func()
}

type KafkaConsumerMetrics struct {
	SuccessfullyReadMsgCnt func(count int64)
	FailedReadMsgCnt       func(count int64)
}

type KafkaProducerMetrics struct {
	SuccessfullySendMsgCnt func(count int64)
	FailedSendMsgCnt       func(count int64)
}

type ScrapeMetrics struct {
	BlockedResponseCnt func(count int64)
	TierEscalationCnt  func(count int64)
	PageFetchFailCnt   func(count int64)
	LlmFailureCnt      func(count int64)
	CacheHitCnt        func(count int64)
	UrlRejectedCnt     func(count int64)
}

type JobMetrics struct {
	CompletedCnt func(count int64)
	FailedCnt    func(count int64)
}

func SetupMetrics(ctx context.Context, cfg *config.Config) *MetricsProvider {
	metricsProvider := new(MetricsProvider)
	var meterProvider *sdkmetric.MeterProvider

	if cfg.TelemetrySettings.Enabled {
		r, err := newResource(cfg)
		if err != nil {
			slog.Error("failed to get resource.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		exporter, err := newMetricExporter(ctx, cfg.TelemetrySettings)
		if err != nil {
			slog.Error("failed to get metric exporter.", slog.String("err", err.Error()))
			os.Exit(1)
		}
		meterProvider = newMeterProvider(exporter, *r)
		otel.SetMeterProvider(meterProvider)
	}

	meter = otel.Meter(cfg.ServiceName)
	metricsProvider.Close = func() {
		if meterProvider != nil {
			err := meterProvider.Shutdown(ctx)
			if err != nil {
				slog.Error("failed to shutdown metrics provider.", slog.String("err", err.Error()))
			}
		}
	}

	// Set up kafka consumer metrics
	kafkaConsumerSuccessCounter, err := meter.Int64Counter("scrape-worker.kafka.read.success",
		metric.WithDescription("The number of messages that the kafka consumer successfully processed"),
		metric.WithUnit("{messages}"))
	kafkaConsumerFailCounter, err := meter.Int64Counter("scrape-worker.kafka.read.fail",
		metric.WithDescription("The number of messages that the kafka consumer could not process"),
		metric.WithUnit("{messages}"))
	if err != nil {
		slog.Error("failed to create telemetry counters for kafka consumer.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	metricsProvider.KafkaConsumerMetrics = &KafkaConsumerMetrics{
		SuccessfullyReadMsgCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				kafkaConsumerSuccessCounter.Add(ctx, count)
			}
		},
		FailedReadMsgCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				kafkaConsumerFailCounter.Add(ctx, count)
			}
		},
	}

	// Set up kafka producer metrics
	kafkaProducerSuccessCounter, err := meter.Int64Counter("scrape-worker.kafka.send.success",
		metric.WithDescription("The number of messages that the kafka producer successfully processed"),
		metric.WithUnit("{messages}"))
	kafkaProducerFailCounter, err := meter.Int64Counter("scrape-worker.kafka.send.fail",
		metric.WithDescription("The number of messages that the kafka producer could not process"),
		metric.WithUnit("{messages}"))
	if err != nil {
		slog.Error("failed to create telemetry counters for kafka producer.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	metricsProvider.KafkaProducerMetrics = &KafkaProducerMetrics{
		SuccessfullySendMsgCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				kafkaProducerSuccessCounter.Add(ctx, count)
			}
		},
		FailedSendMsgCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				kafkaProducerFailCounter.Add(ctx, count)
			}
		},
	}

	// Set up scrape metrics
	blockedCounter, err := meter.Int64Counter("scrape-worker.fetch.blocked",
		metric.WithDescription("The number of responses that looked like bot-protection pages"),
		metric.WithUnit("{responses}"))
	escalationCounter, err := meter.Int64Counter("scrape-worker.fetch.escalation",
		metric.WithDescription("The number of fetches escalated from the lightweight tier to the browser"),
		metric.WithUnit("{fetches}"))
	fetchFailCounter, err := meter.Int64Counter("scrape-worker.fetch.fail",
		metric.WithDescription("The number of page fetches that failed on both tiers"),
		metric.WithUnit("{fetches}"))
	llmFailCounter, err := meter.Int64Counter("scrape-worker.extraction.llm-fail",
		metric.WithDescription("The number of scrapes where the language model pass failed"),
		metric.WithUnit("{scrapes}"))
	cacheHitCounter, err := meter.Int64Counter("scrape-worker.cache.hit",
		metric.WithDescription("The number of scrapes served from the bundle cache"),
		metric.WithUnit("{scrapes}"))
	urlRejectedCounter, err := meter.Int64Counter("scrape-worker.url.rejected",
		metric.WithDescription("The number of submitted urls rejected by validation"),
		metric.WithUnit("{urls}"))
	if err != nil {
		slog.Error("failed to create telemetry counters for scraping.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	metricsProvider.ScrapeMetrics = &ScrapeMetrics{
		BlockedResponseCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				blockedCounter.Add(ctx, count)
			}
		},
		TierEscalationCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				escalationCounter.Add(ctx, count)
			}
		},
		PageFetchFailCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				fetchFailCounter.Add(ctx, count)
			}
		},
		LlmFailureCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				llmFailCounter.Add(ctx, count)
			}
		},
		CacheHitCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				cacheHitCounter.Add(ctx, count)
			}
		},
		UrlRejectedCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				urlRejectedCounter.Add(ctx, count)
			}
		},
	}

	// Set up job metrics
	jobCompletedCounter, err := meter.Int64Counter("scrape-worker.jobs.completed",
		metric.WithDescription("The number of scrape jobs that reached the completed state"),
		metric.WithUnit("{jobs}"))
	jobFailedCounter, err := meter.Int64Counter("scrape-worker.jobs.failed",
		metric.WithDescription("The number of scrape jobs that reached the failed state"),
		metric.WithUnit("{jobs}"))
	if err != nil {
		slog.Error("failed to create telemetry counters for jobs.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	metricsProvider.JobMetrics = &JobMetrics{
		CompletedCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				jobCompletedCounter.Add(ctx, count)
			}
		},
		FailedCnt: func(count int64) {
			if cfg.TelemetrySettings.Enabled {
				jobFailedCounter.Add(ctx, count)
			}
		},
	}

	// initialize metrics in DataDog for setup UI
	if cfg.TelemetrySettings.Enabled {
		metricsProvider.KafkaProducerMetrics.SuccessfullySendMsgCnt(1)
		metricsProvider.KafkaProducerMetrics.FailedSendMsgCnt(1)
		metricsProvider.KafkaConsumerMetrics.SuccessfullyReadMsgCnt(1)
		metricsProvider.KafkaConsumerMetrics.FailedReadMsgCnt(1)
		metricsProvider.ScrapeMetrics.BlockedResponseCnt(1)
		metricsProvider.ScrapeMetrics.TierEscalationCnt(1)
		metricsProvider.ScrapeMetrics.PageFetchFailCnt(1)
		metricsProvider.ScrapeMetrics.LlmFailureCnt(1)
		metricsProvider.ScrapeMetrics.CacheHitCnt(1)
		metricsProvider.ScrapeMetrics.UrlRejectedCnt(1)
		metricsProvider.JobMetrics.CompletedCnt(1)
		metricsProvider.JobMetrics.FailedCnt(1)
	}

	return metricsProvider
}

func newResource(cfg *config.Config) (*resource.Resource, error) {
	ecsResourceDetector := ecs.NewResourceDetector()
	ecsResource, err := ecsResourceDetector.Detect(context.Background())
	if err != nil {
		slog.Error("ecs detection failed", slog.String("err", err.Error()))
	}
	mergedResource, err := resource.Merge(ecsResource, resource.Default())
	if err != nil {
		slog.Error("failed to merge resources", slog.String("err", err.Error()))
	}
	keyValue, found := ecsResource.Set().Value("container.id")
	var serviceId string
	if found {
		serviceId = keyValue.AsString()
	} else {
		serviceId = uuid.New().String()
	}
	return resource.Merge(mergedResource,
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Env),
			semconv.ServiceInstanceID(serviceId),
		))
}

func newMetricExporter(ctx context.Context, cfg *config.TelemetryConfig) (sdkmetric.Exporter, error) {
	return otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.CollectorUrl),
		otlpmetrichttp.WithInsecure())
}

func newMeterProvider(meterExporter sdkmetric.Exporter, resource resource.Resource) *sdkmetric.MeterProvider {
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(meterExporter)),
		sdkmetric.WithResource(&resource),
	)
	return meterProvider
}
