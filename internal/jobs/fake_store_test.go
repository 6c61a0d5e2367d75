package jobs

import (
	"context"
	"sync"

	"docsindexer/internal/apperrors"
	"docsindexer/internal/domain/entity"
	"docsindexer/internal/store"
)

// fakeStore is an in-memory stand-in for *store.Store, implementing the
// narrow Store interface this package depends on, so Manager can be
// exercised without a real SQLite database.
type fakeStore struct {
	mu       sync.Mutex
	jobs     map[string]*entity.Job
	pages    map[string][]entity.Page // keyed by library/version
	versions map[string]versionState
	nextPage int64
}

type versionState struct {
	status            entity.VersionStatus
	lastErr           string
	pagesDone         int
	pagesMax          int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:     make(map[string]*entity.Job),
		pages:    make(map[string][]entity.Page),
		versions: make(map[string]versionState),
	}
}

func key(library, version string) string { return library + "@" + version }

func (f *fakeStore) ResolveVersionID(ctx context.Context, library, version string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(library, version)
	if _, ok := f.versions[k]; !ok {
		f.versions[k] = versionState{status: entity.VersionStatusNotIndexed}
	}
	return 1, nil
}

func (f *fakeStore) CreateJob(ctx context.Context, job *entity.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeStore) GetJob(ctx context.Context, id string) (entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return entity.Job{}, apperrors.NewJobError(apperrors.JobKindNotFound, id, nil)
	}
	return *j, nil
}

func (f *fakeStore) FindActiveJob(ctx context.Context, library, version, sourceURL string) (entity.Job, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.Library == library && j.Version == version && j.SourceURL == sourceURL && !j.Status.Terminal() {
			return *j, true, nil
		}
	}
	return entity.Job{}, false, nil
}

func (f *fakeStore) ListRecoverableJobs(ctx context.Context) ([]entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Job
	for _, j := range f.jobs {
		if j.Status == entity.VersionStatusQueued || j.Status == entity.VersionStatusRunning || j.Status == entity.VersionStatusUpdating {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) ListJobs(ctx context.Context, filter store.JobFilter) ([]entity.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Job
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeStore) UpdateJobStatus(ctx context.Context, id string, status entity.VersionStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return apperrors.NewJobError(apperrors.JobKindNotFound, id, nil)
	}
	j.Status = status
	j.Error = errMsg
	return nil
}

func (f *fakeStore) UpdateJobProgress(ctx context.Context, id string, pagesDone, pagesMax int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return apperrors.NewJobError(apperrors.JobKindNotFound, id, nil)
	}
	j.Progress = entity.Progress{PagesDone: pagesDone, PagesMax: pagesMax}
	return nil
}

func (f *fakeStore) ListPages(ctx context.Context, library, version string) ([]entity.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Page(nil), f.pages[key(library, version)]...), nil
}

func (f *fakeStore) FindPageByURL(ctx context.Context, library, version, url string) (entity.Page, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages[key(library, version)] {
		if p.URL == url {
			return p, true, nil
		}
	}
	return entity.Page{}, false, nil
}

func (f *fakeStore) AddDocuments(ctx context.Context, library, version string, depth int, input store.PageInput) (*entity.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(library, version)
	f.nextPage++
	p := entity.Page{
		ID:    f.nextPage,
		URL:   input.URL,
		Title: input.Title,
		Depth: depth,
	}
	f.pages[k] = append(f.pages[k], p)
	return &p, nil
}

func (f *fakeStore) DeletePage(ctx context.Context, pageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, pages := range f.pages {
		for i, p := range pages {
			if p.ID == pageID {
				f.pages[k] = append(pages[:i], pages[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeStore) RemoveVersion(ctx context.Context, library, version string, removeLibraryIfEmpty bool) (store.RemoveVersionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, key(library, version))
	delete(f.versions, key(library, version))
	return store.RemoveVersionResult{}, nil
}

func (f *fakeStore) UpdateVersionStatus(ctx context.Context, library, version string, status entity.VersionStatus, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.versions[key(library, version)]
	st.status = status
	st.lastErr = lastError
	f.versions[key(library, version)] = st
	return nil
}

func (f *fakeStore) UpdateVersionProgress(ctx context.Context, library, version string, pagesDone, pagesMax int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.versions[key(library, version)]
	st.pagesDone = pagesDone
	st.pagesMax = pagesMax
	f.versions[key(library, version)] = st
	return nil
}

func (f *fakeStore) versionStatus(library, version string) entity.VersionStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[key(library, version)].status
}
