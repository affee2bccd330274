package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"alfredoptarigan/recruit-dashboard/internal/models"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
)

// memDB is an in-memory stand-in for the three repositories. Uploads are
// kept in creation order.
type memDB struct {
	mu         sync.Mutex
	jobs       map[uuid.UUID]models.Job
	candidates map[uuid.UUID]models.Candidate
	uploads    []models.CVUpload
	clock      time.Time

	createErr error
	saveErr   error
}

func newMemDB() *memDB {
	return &memDB{
		jobs:       map[uuid.UUID]models.Job{},
		candidates: map[uuid.UUID]models.Candidate{},
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func cloneCandidate(c models.Candidate) models.Candidate {
	c.Skills = append(pq.StringArray{}, c.Skills...)
	c.Strengths = append(pq.StringArray{}, c.Strengths...)
	c.Weaknesses = append(pq.StringArray{}, c.Weaknesses...)
	c.CVUploads = nil
	return c
}

func (m *memDB) addJob(requirements string) models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := models.Job{ID: uuid.New(), Title: "Backend Engineer", Requirements: requirements, CreatedAt: m.tick()}
	m.jobs[job.ID] = job
	return job
}

// seedCandidate stores a candidate with one processed upload.
func (m *memDB) seedCandidate(c models.Candidate, jobID uuid.UUID, hash, fileURL string) (models.Candidate, models.CVUpload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = m.tick()
	m.candidates[c.ID] = cloneCandidate(c)
	upload := models.CVUpload{
		ID: uuid.New(), CandidateID: c.ID, JobID: jobID, FileURL: fileURL,
		Hash: hash, Status: models.CVStatusProcessed, CreatedAt: m.tick(),
	}
	m.uploads = append(m.uploads, upload)
	return c, upload
}

func (m *memDB) candidate(id uuid.UUID) (models.Candidate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	return cloneCandidate(c), ok
}

func (m *memDB) upload(id uuid.UUID) (models.CVUpload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.uploads {
		if u.ID == id {
			return u, true
		}
	}
	return models.CVUpload{}, false
}

func (m *memDB) candidateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.candidates)
}

func (m *memDB) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

// withCandidate must be called with m.mu held.
func (m *memDB) withCandidate(u models.CVUpload) *models.CVUpload {
	if c, ok := m.candidates[u.CandidateID]; ok {
		cc := cloneCandidate(c)
		u.Candidate = &cc
	}
	return &u
}

type fakeJobRepo struct{ db *memDB }

func (r fakeJobRepo) Create(_ context.Context, job *models.Job) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	job.ID = uuid.New()
	job.CreatedAt = r.db.tick()
	r.db.jobs[job.ID] = *job
	return nil
}

func (r fakeJobRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Job, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	job, ok := r.db.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %w", repositories.ErrNotFound)
	}
	return &job, nil
}

func (r fakeJobRepo) FindAll(_ context.Context) ([]models.Job, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	jobs := make([]models.Job, 0, len(r.db.jobs))
	for _, j := range r.db.jobs {
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (r fakeJobRepo) Save(_ context.Context, job *models.Job) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.jobs[job.ID] = *job
	return nil
}

func (r fakeJobRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.jobs[id]; !ok {
		return fmt.Errorf("job not found: %w", repositories.ErrNotFound)
	}
	delete(r.db.jobs, id)
	return nil
}

type fakeCandidateRepo struct{ db *memDB }

func (r fakeCandidateRepo) Create(_ context.Context, c *models.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createErr != nil {
		return r.db.createErr
	}
	c.ID = uuid.New()
	c.CreatedAt = r.db.tick()
	r.db.candidates[c.ID] = cloneCandidate(*c)
	return nil
}

func (r fakeCandidateRepo) CreateWithUpload(_ context.Context, c *models.Candidate, u *models.CVUpload) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createErr != nil {
		return r.db.createErr
	}
	c.ID = uuid.New()
	c.CreatedAt = r.db.tick()
	u.ID = uuid.New()
	u.CandidateID = c.ID
	u.CreatedAt = r.db.tick()
	r.db.candidates[c.ID] = cloneCandidate(*c)
	r.db.uploads = append(r.db.uploads, *u)
	return nil
}

func (r fakeCandidateRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Candidate, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate not found: %w", repositories.ErrNotFound)
	}
	cc := cloneCandidate(c)
	return &cc, nil
}

func (r fakeCandidateRepo) List(_ context.Context, page, limit int) ([]models.CandidateListItem, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	items := make([]models.CandidateListItem, 0, len(r.db.candidates))
	for _, c := range r.db.candidates {
		items = append(items, models.CandidateListItem{Candidate: cloneCandidate(c)})
	}
	return items, int64(len(items)), nil
}

func (r fakeCandidateRepo) Save(_ context.Context, c *models.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.saveErr != nil {
		return r.db.saveErr
	}
	if _, ok := r.db.candidates[c.ID]; !ok {
		return errors.New("save of unknown candidate")
	}
	r.db.candidates[c.ID] = cloneCandidate(*c)
	return nil
}

func (r fakeCandidateRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.candidates[id]; !ok {
		return fmt.Errorf("candidate not found: %w", repositories.ErrNotFound)
	}
	delete(r.db.candidates, id)
	kept := r.db.uploads[:0]
	for _, u := range r.db.uploads {
		if u.CandidateID != id {
			kept = append(kept, u)
		}
	}
	r.db.uploads = kept
	return nil
}

type fakeUploadRepo struct{ db *memDB }

func (r fakeUploadRepo) ListFileURLs(_ context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := map[string]bool{}
	var urls []string
	for _, u := range r.db.uploads {
		if !seen[u.FileURL] {
			seen[u.FileURL] = true
			urls = append(urls, u.FileURL)
		}
	}
	return urls, nil
}

func (r fakeUploadRepo) FindByID(_ context.Context, id uuid.UUID) (*models.CVUpload, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.uploads {
		if u.ID == id {
			return r.db.withCandidate(u), nil
		}
	}
	return nil, fmt.Errorf("cv upload not found: %w", repositories.ErrNotFound)
}

func (r fakeUploadRepo) FindByHash(_ context.Context, hash string) (*models.CVUpload, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.uploads) - 1; i >= 0 && hash != ""; i-- {
		if r.db.uploads[i].Hash == hash {
			return r.db.withCandidate(r.db.uploads[i]), nil
		}
	}
	return nil, fmt.Errorf("cv upload not found: %w", repositories.ErrNotFound)
}

func (r fakeUploadRepo) FindByCandidateEmail(_ context.Context, email string) (*models.CVUpload, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.uploads) - 1; i >= 0 && email != ""; i-- {
		u := r.db.uploads[i]
		if c, ok := r.db.candidates[u.CandidateID]; ok && c.Email == email {
			return r.db.withCandidate(u), nil
		}
	}
	return nil, fmt.Errorf("cv upload not found: %w", repositories.ErrNotFound)
}

func (r fakeUploadRepo) FindLatestProcessed(_ context.Context, candidateID uuid.UUID) (*models.CVUpload, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := len(r.db.uploads) - 1; i >= 0; i-- {
		u := r.db.uploads[i]
		if u.CandidateID == candidateID && u.Status == models.CVStatusProcessed {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("cv upload not found: %w", repositories.ErrNotFound)
}

// fakeExtractor answers by original file name. Files without a script get
// an empty extraction.
type fakeExtractor struct {
	mu       sync.Mutex
	fields   map[string]*ExtractedFields
	fit      map[string]*FitAssessment
	failOn   map[string]error
	openFail map[string]error
	opened   []string
	released []string
	scoredBy []string
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{
		fields:   map[string]*ExtractedFields{},
		fit:      map[string]*FitAssessment{},
		failOn:   map[string]error{},
		openFail: map[string]error{},
	}
}

func (f *fakeExtractor) Open(_ context.Context, _ string, fileName string) (*RemoteDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, fileName)
	doc := &RemoteDocument{Name: "files/" + fileName, FileName: fileName}
	if err, ok := f.openFail[fileName]; ok {
		// uploaded, but never became usable
		return doc, &ExtractionTransportError{FileName: fileName, Op: "upload", Err: err}
	}
	return doc, nil
}

func (f *fakeExtractor) ExtractFields(_ context.Context, doc *RemoteDocument) (*ExtractedFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[doc.FileName]; ok {
		return nil, &ExtractionTransportError{FileName: doc.FileName, Op: "extract", Err: err}
	}
	if fields, ok := f.fields[doc.FileName]; ok {
		return fields, nil
	}
	return &ExtractedFields{Outcome: ExtractionEmpty}, nil
}

func (f *fakeExtractor) ScoreFit(_ context.Context, doc *RemoteDocument, requirements string) (*FitAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoredBy = append(f.scoredBy, requirements)
	if fit, ok := f.fit[doc.FileName]; ok {
		return fit, nil
	}
	return &FitAssessment{Outcome: ExtractionEmpty}, nil
}

func (f *fakeExtractor) Release(_ context.Context, doc *RemoteDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, doc.FileName)
	return errors.New("remote delete failed")
}

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *fakePublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeIndexer struct {
	noopIndexer
	mu       sync.Mutex
	enqueued []uuid.UUID
	removed  []uuid.UUID
}

func (f *fakeIndexer) Enqueue(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, id)
}

func (f *fakeIndexer) Remove(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func strPtr(s string) *string { return &s }
