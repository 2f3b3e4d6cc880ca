package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/bkolar18/wedding-scraper/config"
	"github.com/bkolar18/wedding-scraper/internal/archive"
	"github.com/bkolar18/wedding-scraper/internal/broker"
	cacheClient "github.com/bkolar18/wedding-scraper/internal/cache"
	"github.com/bkolar18/wedding-scraper/internal/extractor"
	"github.com/bkolar18/wedding-scraper/internal/job"
	"github.com/bkolar18/wedding-scraper/internal/mapper"
	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/bkolar18/wedding-scraper/internal/persistence"
	"github.com/bkolar18/wedding-scraper/internal/scraper"
	"github.com/bkolar18/wedding-scraper/internal/telemetry"
	"github.com/bkolar18/wedding-scraper/internal/urlcheck"
	"github.com/bkolar18/wedding-scraper/internal/worker"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"
	"github.com/lmittmann/tint"
)

var (
	cfg   *config.Config
	db    *sql.DB
	s3    archive.BucketClient
	cache cacheClient.BundleCache
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg = config.MustLoad()
	logger := setupLogger()
	metrics := telemetry.SetupMetrics(context.Background(), cfg)
	defer metrics.Close()
	db = setupDatabase()
	defer closeDatabase()
	s3 = archive.NewS3BucketClient(cfg)
	cache = cacheClient.NewMemcachedClient(cfg.CacheSettings)
	defer cache.Close()
	kafkaDLQ := broker.NewKafkaDLQ(metrics.KafkaProducerMetrics, cfg.KafkaSettings.Producer)
	defer kafkaDLQ.Close()
	httpTransport := getHttpTransport()
	slog.Info("starting application on port "+cfg.Port, slog.String("env", cfg.Env))

	validator := urlcheck.NewValidator(cfg.ValidatorSettings)
	llm := extractor.NewHTTPClient(cfg.ExtractorSettings,
		&http.Client{Transport: httpTransport}, logger)
	recordMapper := mapper.New(llm, metrics.ScrapeMetrics, logger)
	pipeline := scraper.NewService(cfg, validator, cache, s3, recordMapper,
		metrics.ScrapeMetrics, httpTransport, logger)

	threadNum := parallelWorkers()
	requestChan := make(chan []byte, threadNum*2)
	resultChan := make(chan *model.ResultTask, threadNum*2)

	jobStore := job.NewLayeredStore(job.NewMemoryStore(), persistence.NewJobRepository(db))
	jobService := job.NewService(ctx, jobStore, pipeline, resultChan,
		metrics.JobMetrics, logger)

	kafkaWg := &sync.WaitGroup{}
	kafkaWg.Add(1)
	kafkaConsumer := broker.NewKafkaConsumer(requestChan, metrics.KafkaConsumerMetrics,
		cfg.KafkaSettings.Consumer, kafkaWg)
	go kafkaConsumer.Run(ctx)

	workerWg := &sync.WaitGroup{}
	scrapeWorker := &worker.ScrapeWorker{
		RequestChan: requestChan,
		Jobs:        jobService,
		KafkaDLQ:    kafkaDLQ,
		Wg:          workerWg,
	}

	for i := 0; i < threadNum; i++ {
		workerWg.Add(1)
		go scrapeWorker.Run(ctx)
	}

	kafkaWg.Add(1)
	kafkaProducer := broker.NewKafkaProducer(resultChan, metrics.KafkaProducerMetrics,
		cfg.KafkaSettings.Producer, kafkaWg)
	go kafkaProducer.Run()

	go healthCheckHandler(jobService)

	// Graceful shutdown.
	// 1. Stop Kafka Consumer by system call. Close requestChan
	// 2. Wait till all Workers drained requestChan and all job executors finished
	// 3. Close resultChan; wait till Producer flushed it to Kafka
	// 4. Close database and memcached connections
	<-ctx.Done()
	slog.Info("stopping server...")
	workerWg.Wait()
	jobService.Wait()
	close(resultChan)
	slog.Info("close resultChan.")
	kafkaWg.Wait()
	slog.Info("server stopped.")
}

func setupLogger() *slog.Logger {
	envLogLevel := strings.ToLower(cfg.LogLevel)
	var slogLevel slog.Level
	err := slogLevel.UnmarshalText([]byte(envLogLevel))
	if err != nil {
		log.Printf("encountenred log level: '%s'. The package does not support custom log levels", envLogLevel)
		slogLevel = slog.LevelDebug
	}
	log.Printf("slog level overwritten to '%v'", slogLevel)
	slog.SetLogLoggerLevel(slogLevel)

	replaceAttrs := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.SourceKey {
			source := a.Value.Any().(*slog.Source)
			source.File = filepath.Base(source.File)
		}
		return a
	}

	var logger *slog.Logger
	if strings.ToLower(cfg.LogType) == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource:   true,
			Level:       slogLevel,
			ReplaceAttr: replaceAttrs}))
	} else {
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			AddSource:   true,
			Level:       slogLevel,
			ReplaceAttr: replaceAttrs,
			NoColor: func() bool {
				if cfg.Env == "local" {
					return false
				}
				return true
			}()}))
	}

	slog.SetDefault(logger)
	logger.Debug("debug messages are enabled.")

	return logger
}

func setupDatabase() *sql.DB {
	slog.Info("connecting to the database...")
	connStr := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		cfg.DbSettings.User,
		cfg.DbSettings.Password,
		cfg.DbSettings.Host,
		cfg.DbSettings.Port,
		cfg.DbSettings.Name,
	)
	database, err := sql.Open("postgres", connStr)
	if err != nil {
		slog.Error("failed to establish database connection.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	database.SetConnMaxLifetime(cfg.DbSettings.ConnMaxLifetime)
	database.SetMaxOpenConns(cfg.DbSettings.MaxOpenConns)
	database.SetMaxIdleConns(cfg.DbSettings.MaxIdleConns)

	maxRetry := 6
	for i := 1; i <= maxRetry; i++ {
		slog.Info("ping the database.", slog.String("attempt", fmt.Sprintf("%d/%d", i, maxRetry)))
		pingErr := database.Ping()
		if pingErr != nil {
			slog.Error("not responding.", slog.String("err", pingErr.Error()))
			if i == maxRetry {
				slog.Error("failed to establish database connection.")
				os.Exit(1)
			}
			slog.Info(fmt.Sprintf("wait %d seconds", 5*i))
			time.Sleep(time.Duration(5*i) * time.Second)
		} else {
			break
		}
	}
	slog.Info("connected to the database!")

	return database
}

func closeDatabase() {
	slog.Info("closing database connection.")
	err := db.Close()
	if err != nil {
		slog.Error("failed to close database connection.", slog.String("err", err.Error()))
	}
}

// Set -1 to use all available CPUs
func parallelWorkers() int {
	customNumCPU := cfg.WorkerSettings.WorkersNum
	if customNumCPU == -1 {
		return runtime.NumCPU()
	}
	if customNumCPU <= 0 {
		slog.Error("workers number is 0 or less than -1")
		os.Exit(1)
	}

	return customNumCPU
}

func healthCheckHandler(jobs *job.Service) {
	http.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	http.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/jobs/")
		j, err := jobs.Poll(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, j)
	})
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		slog.Error("http server error", slog.String("err", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := jsoniter.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(body)
}

func getHttpTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        cfg.HttpClientSettings.MaxIdleConnections,
		MaxIdleConnsPerHost: cfg.HttpClientSettings.MaxIdleConnectionsPerHost,
		MaxConnsPerHost:     cfg.HttpClientSettings.MaxConnectionsPerHost,
		IdleConnTimeout:     cfg.HttpClientSettings.IdleConnectionTimeout,
		TLSHandshakeTimeout: cfg.HttpClientSettings.TlsHandshakeTimeout,
		DialContext: (&net.Dialer{
			Timeout:   cfg.HttpClientSettings.DialTimeout,
			KeepAlive: cfg.HttpClientSettings.DialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.HttpClientSettings.TlsInsecureSkipVerify,
		},
	}
}
