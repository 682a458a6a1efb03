package lexique

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hazyhaar/lexq/idgen"
	"github.com/hazyhaar/lexq/lexique/internal/cache"
	"github.com/hazyhaar/lexq/lexique/internal/dict"
	"github.com/hazyhaar/lexq/lexique/internal/ingest"
	"github.com/hazyhaar/lexq/lexique/internal/store"
	"github.com/hazyhaar/lexq/observability"
	"github.com/hazyhaar/lexq/vtq"
)

// Definer resolves one word to its definition. Satisfied by dict.Client;
// tests substitute fakes.
type Definer interface {
	Lookup(ctx context.Context, word string) (*dict.WordDefinition, error)
}

// Service is the lexique orchestrator. It owns the corpus store, the search
// strategy choice, the dictionary aggregation pipeline, and the refresh
// queue worker. The database and cache handles are injected; their lifecycle
// belongs to the process entry point.
type Service struct {
	store     *store.Store
	cache     cache.Store
	dict      Definer
	fetcher   *ingest.Fetcher
	importer  *ingest.Importer
	queue     *vtq.Q
	events    *observability.EventLogger
	logger    *slog.Logger
	config    *Config
	newID     idgen.Generator
	searchSQL bool
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithDefiner overrides the definition lookup client. Used by tests.
func WithDefiner(d Definer) ServiceOption {
	return func(s *Service) { s.dict = d }
}

// WithEventLogger enables best-effort business event recording.
func WithEventLogger(l *observability.EventLogger) ServiceOption {
	return func(s *Service) { s.events = l }
}

// WithIDGenerator overrides the operation-id generator.
func WithIDGenerator(gen idgen.Generator) ServiceOption {
	return func(s *Service) { s.newID = gen }
}

// New creates a lexique Service on an opened database and cache store.
func New(db *sql.DB, cacheStore cache.Store, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	st := store.NewStore(db)
	svc := &Service{
		store:    st,
		cache:    cacheStore,
		dict:     dict.New(cfg.Dict),
		fetcher:  ingest.NewFetcher(cfg.Generator),
		importer: ingest.NewImporter(cfg.Import),
		queue: vtq.New(db, vtq.Options{
			Queue:        cfg.Refresh.Queue,
			Visibility:   time.Duration(cfg.Refresh.VisibilitySeconds) * time.Second,
			PollInterval: time.Duration(cfg.Refresh.PollIntervalMs) * time.Millisecond,
			MaxAttempts:  cfg.Refresh.MaxAttempts,
			Logger:       logger,
		}),
		logger: logger,
		config: cfg,
		newID:  idgen.Default,
	}

	for _, opt := range opts {
		opt(svc)
	}

	switch cfg.Search.Strategy {
	case "sql":
		svc.searchSQL = true
	case "scan":
		svc.searchSQL = false
	default: // auto
		svc.searchSQL = st.SupportsRegexp()
	}

	return svc, nil
}

// ApplySchema applies the corpus and observability schemas. The refresh
// queue table is created by Start.
func ApplySchema(db *sql.DB) error {
	if err := store.ApplySchema(db); err != nil {
		return fmt.Errorf("apply corpus schema: %w", err)
	}
	if err := observability.Init(db); err != nil {
		return fmt.Errorf("apply observability schema: %w", err)
	}
	return nil
}

// Start creates the refresh queue table and launches the queue worker.
// Non-blocking; the worker exits when ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	if err := s.queue.EnsureTable(ctx); err != nil {
		return fmt.Errorf("refresh queue: %w", err)
	}
	go s.queue.Run(ctx, s.handleRefreshJob)
	s.logger.Info("lexique: started",
		"search_strategy", map[bool]string{true: "sql", false: "scan"}[s.searchSQL],
		"refresh_queue", s.config.Refresh.Queue)
	return nil
}

// Close shuts the service down. The database and cache are owned by the
// caller and stay open.
func (s *Service) Close() error {
	s.logger.Info("lexique: closed")
	return nil
}

// FetchParagraph pulls one paragraph from the generator, stores it, and
// enqueues a dictionary refresh. Every attempt leaves a fetch log row.
func (s *Service) FetchParagraph(ctx context.Context) (*Paragraph, error) {
	res, err := s.fetcher.Fetch(ctx)

	logEntry := &store.FetchLogEntry{
		ID:        s.newID(),
		SourceURL: s.fetcher.URL(),
		Status:    "ok",
	}
	if res != nil {
		logEntry.StatusCode = res.StatusCode
		logEntry.Bytes = res.Bytes
		logEntry.DurationMs = res.Duration.Milliseconds()
	}

	if err != nil {
		logEntry.Status = "error"
		logEntry.ErrorMessage = err.Error()
		s.insertFetchLog(ctx, logEntry)
		s.logEvent(ctx, "paragraph.fetched", "paragraph", "", "fetch", false)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	p, err := s.store.Insert(ctx, res.Text)
	if err != nil {
		return nil, err
	}
	logEntry.ParagraphID = p.ID
	s.insertFetchLog(ctx, logEntry)

	s.logEvent(ctx, "paragraph.fetched", "paragraph", strconv.FormatInt(p.ID, 10), "fetch", true)
	s.enqueueRefresh(ctx, p.ID)
	return p, nil
}

// ImportDocument fetches a web page, splits its main content into
// paragraphs, and stores them all. One refresh is enqueued for the batch.
func (s *Service) ImportDocument(ctx context.Context, pageURL string) ([]int64, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("%w: import url is required", ErrInvalidInput)
	}

	start := time.Now()
	paragraphs, err := s.importer.Import(ctx, pageURL)
	if err != nil {
		s.insertFetchLog(ctx, &store.FetchLogEntry{
			ID:           s.newID(),
			SourceURL:    pageURL,
			Status:       "error",
			ErrorMessage: err.Error(),
			DurationMs:   time.Since(start).Milliseconds(),
		})
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return s.storeImported(ctx, pageURL, paragraphs, start)
}

// ImportHTML runs the import pipeline on caller-provided HTML.
func (s *Service) ImportHTML(ctx context.Context, rawHTML string) ([]int64, error) {
	if rawHTML == "" {
		return nil, fmt.Errorf("%w: html body is required", ErrInvalidInput)
	}

	start := time.Now()
	paragraphs, err := s.importer.FromHTML(rawHTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.storeImported(ctx, "inline:html", paragraphs, start)
}

func (s *Service) storeImported(ctx context.Context, source string, paragraphs []string, start time.Time) ([]int64, error) {
	ids, err := s.store.InsertBatch(ctx, paragraphs)
	if err != nil {
		return nil, err
	}

	var bytes int
	for _, p := range paragraphs {
		bytes += len(p)
	}
	s.insertFetchLog(ctx, &store.FetchLogEntry{
		ID:          s.newID(),
		SourceURL:   source,
		ParagraphID: ids[len(ids)-1],
		Status:      "imported",
		Bytes:       bytes,
		DurationMs:  time.Since(start).Milliseconds(),
	})

	s.logEvent(ctx, "paragraphs.imported", "paragraph", strconv.Itoa(len(ids)), "import", true)
	s.enqueueRefresh(ctx, ids[len(ids)-1])
	return ids, nil
}

// Paragraph returns one stored paragraph by id.
func (s *Service) Paragraph(ctx context.Context, id int64) (*Paragraph, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: paragraph %d", ErrNotFound, id)
	}
	return p, nil
}

// FetchHistory returns recent fetch log rows, newest first.
func (s *Service) FetchHistory(ctx context.Context, limit int) ([]*FetchLogEntry, error) {
	return s.store.FetchHistory(ctx, limit)
}

// Health reports the service snapshot. Cache unavailability degrades the
// snapshot, it does not fail it.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Health{
		Status:     "ok",
		CacheOK:    s.cache.Available(ctx),
		Paragraphs: count,
	}, nil
}

// --- refresh transport ---

// refreshJob is the queue payload handed from the write path to the worker.
type refreshJob struct {
	ParagraphID int64 `json:"paragraph_id"`
}

// enqueueRefresh publishes a refresh job. Fire-and-forget: the write path
// proceeds whether or not the enqueue worked.
func (s *Service) enqueueRefresh(ctx context.Context, paragraphID int64) {
	payload, _ := json.Marshal(refreshJob{ParagraphID: paragraphID})
	if err := s.queue.Publish(ctx, s.newID(), payload); err != nil {
		s.logger.Warn("lexique: refresh enqueue failed", "paragraph_id", paragraphID, "error", err)
	}
}

// handleRefreshJob is the queue worker body. Corpus errors are returned so
// the queue redelivers; a malformed payload is dropped.
func (s *Service) handleRefreshJob(ctx context.Context, job *vtq.Job) error {
	var msg refreshJob
	if err := json.Unmarshal(job.Payload, &msg); err != nil {
		s.logger.Warn("lexique: dropping malformed refresh job", "id", job.ID, "error", err)
		return nil
	}

	status, err := s.RefreshDictionaryCache(ctx, msg.ParagraphID)
	if err != nil {
		return err
	}
	s.logger.Info("lexique: dictionary cache refreshed",
		"status", status.Status, "words", status.WordsProcessed, "paragraph_id", msg.ParagraphID)
	return nil
}

// --- best-effort side channels ---

func (s *Service) insertFetchLog(ctx context.Context, e *store.FetchLogEntry) {
	if err := s.store.InsertFetchLog(ctx, e); err != nil {
		s.logger.Warn("lexique: fetch log write failed", "error", err)
	}
}

func (s *Service) logEvent(ctx context.Context, eventType, entityType, entityID, action string, success bool) {
	if s.events == nil {
		return
	}
	s.events.LogEvent(ctx, observability.BusinessEvent{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Success:    success,
	})
}
