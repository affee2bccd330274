package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/logger"
	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

const defaultIndexQueueSize = 100

// Embedder turns text into a vector.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CandidateIndexer keeps a searchable vector index of candidates' CVs. Index
// work runs on a background pool; failures are logged only.
type CandidateIndexer interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(candidateID uuid.UUID)
	Index(ctx context.Context, candidateID uuid.UUID) error
	Remove(ctx context.Context, candidateID uuid.UUID) error
	SearchSimilar(ctx context.Context, query string, limit int) ([]models.SimilarCandidate, error)
}

type IndexerDeps struct {
	Candidates repositories.CandidateRepository
	Uploads    repositories.CVUploadRepository
	Storage    StorageService
	Parser     PDFParserService
	Chunker    TextChunker
	Embedder   Embedder
	Store      VectorStore
}

type candidateIndexer struct {
	deps        IndexerDeps
	prompts     *PromptBuilder
	jobQueue    chan uuid.UUID
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
	log         *zap.Logger
}

func NewCandidateIndexer(deps IndexerDeps, concurrency, queueSize int, log *zap.Logger) CandidateIndexer {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = defaultIndexQueueSize
	}
	if deps.Parser == nil {
		deps.Parser = NewPDFParserService()
	}
	if deps.Chunker == nil {
		deps.Chunker = NewTextChunker()
	}

	return &candidateIndexer{
		deps:        deps,
		prompts:     NewPromptBuilder(),
		jobQueue:    make(chan uuid.UUID, queueSize),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
		log:         logger.OrNop(log).Named("indexer"),
	}
}

// Start implements CandidateIndexer.
func (w *candidateIndexer) Start(ctx context.Context) {
	w.log.Info("starting index workers", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop implements CandidateIndexer. Queued ids that were not picked up yet
// are dropped.
func (w *candidateIndexer) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("stopping index workers")
		close(w.stopChan)
	})
	w.wg.Wait()
}

// Enqueue implements CandidateIndexer. It never blocks the caller: when the
// queue is full the id is dropped and picked up by the next change.
func (w *candidateIndexer) Enqueue(candidateID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.log.Warn("indexer stopped, dropping candidate", zap.String(logger.FieldCandidateID, candidateID.String()))
		return
	default:
	}

	select {
	case w.jobQueue <- candidateID:
		w.log.Debug("candidate enqueued", zap.String(logger.FieldCandidateID, candidateID.String()))
	default:
		w.log.Warn("index queue full, dropping candidate", zap.String(logger.FieldCandidateID, candidateID.String()))
		CandidateIndexJobs.WithLabelValues("dropped").Inc()
	}
}

// Index implements CandidateIndexer. It indexes the candidate on the
// caller's goroutine.
func (w *candidateIndexer) Index(ctx context.Context, candidateID uuid.UUID) error {
	if err := w.indexCandidate(ctx, candidateID); err != nil {
		CandidateIndexJobs.WithLabelValues("failed").Inc()
		return err
	}
	CandidateIndexJobs.WithLabelValues("indexed").Inc()
	return nil
}

func (w *candidateIndexer) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.log.With(zap.Int("worker", workerID))

	for {
		select {
		case <-w.stopChan:
			log.Debug("worker stopped")
			return
		case <-ctx.Done():
			return
		case candidateID := <-w.jobQueue:
			if err := w.Index(ctx, candidateID); err != nil {
				log.Error("failed to index candidate",
					zap.String(logger.FieldCandidateID, candidateID.String()),
					zap.Error(err))
			}
		}
	}
}

// indexCandidate replaces every indexed chunk of the candidate with chunks of
// its profile and current CV text.
func (w *candidateIndexer) indexCandidate(ctx context.Context, candidateID uuid.UUID) error {
	candidate, err := w.deps.Candidates.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return w.Remove(ctx, candidateID)
		}
		return err
	}

	text := w.prompts.BuildProfileSummary(candidate.FullName, candidate.Email, candidate.Skills, candidate.Strengths)
	if cvText := w.currentCVText(ctx, candidateID); cvText != "" {
		text += "\n\n" + cvText
	}

	chunks := w.deps.Chunker.ChunkText(text, defaultChunkSize, defaultChunkOverlap)
	embeddings := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := w.deps.Embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		embeddings = append(embeddings, embedding)
	}

	if err := w.deps.Store.DeleteCandidate(ctx, candidateID); err != nil {
		return err
	}
	if err := w.deps.Store.UpsertChunks(ctx, candidateID, chunks, embeddings); err != nil {
		return err
	}

	w.log.Info("candidate indexed",
		zap.String(logger.FieldCandidateID, candidateID.String()),
		zap.Int("chunks", len(chunks)))
	return nil
}

// currentCVText returns "" when the candidate has no readable current CV.
func (w *candidateIndexer) currentCVText(ctx context.Context, candidateID uuid.UUID) string {
	upload, err := w.deps.Uploads.FindLatestProcessed(ctx, candidateID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			w.log.Warn("failed to load current cv", zap.String(logger.FieldCandidateID, candidateID.String()), zap.Error(err))
		}
		return ""
	}

	path := w.deps.Storage.GetFilePath(strings.TrimPrefix(upload.FileURL, UploadURLPrefix))
	text, err := w.deps.Parser.ExtractDocumentText(path)
	if err != nil {
		w.log.Debug("cv text unavailable, indexing profile only",
			zap.String(logger.FieldCVUploadID, upload.ID.String()),
			zap.Error(err))
		return ""
	}
	return CleanText(text)
}

// Remove implements CandidateIndexer.
func (w *candidateIndexer) Remove(ctx context.Context, candidateID uuid.UUID) error {
	if err := w.deps.Store.DeleteCandidate(ctx, candidateID); err != nil {
		return fmt.Errorf("failed to remove candidate from index: %w", err)
	}
	return nil
}

// SearchSimilar implements CandidateIndexer. Each candidate appears once,
// with its best matching chunk.
func (w *candidateIndexer) SearchSimilar(ctx context.Context, query string, limit int) ([]models.SimilarCandidate, error) {
	if limit < 1 {
		limit = 10
	}

	embedding, err := w.deps.Embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := w.deps.Store.SearchSimilar(ctx, embedding, limit*4)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, limit)
	results := make([]models.SimilarCandidate, 0, limit)
	for _, hit := range hits {
		id, err := uuid.Parse(hit.CandidateID)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		results = append(results, models.SimilarCandidate{
			CandidateID: id,
			Score:       hit.Score,
			Snippet:     FormatSearchSnippet(hit.Text, 240),
		})
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// ErrIndexDisabled is returned by searches when no vector store is configured.
var ErrIndexDisabled = errors.New("candidate index is disabled")

type noopIndexer struct{}

// NewNoopIndexer is used when no vector store is configured.
func NewNoopIndexer() CandidateIndexer {
	return noopIndexer{}
}

func (noopIndexer) Start(context.Context) {}

func (noopIndexer) Stop() {}

func (noopIndexer) Enqueue(uuid.UUID) {}

func (noopIndexer) Index(context.Context, uuid.UUID) error { return ErrIndexDisabled }

func (noopIndexer) Remove(context.Context, uuid.UUID) error { return nil }

func (noopIndexer) SearchSimilar(context.Context, string, int) ([]models.SimilarCandidate, error) {
	return nil, ErrIndexDisabled
}
