package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/repositories"
	"filestorage/internal/domain/services"
	"filestorage/internal/filetype"
)

// memStore is an in-memory folder/file store. Transactions are serialized and
// restore a snapshot on failure; unique constraints mirror the SQL schema.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	paths   map[uuid.UUID]models.PathRow
	folders map[uuid.UUID]models.Folder
	files   map[uuid.UUID]models.File

	// failFolderCreate fails the n-th folder insert (1-based) when set.
	failFolderCreate int
	folderCreates    int
	failIncrease     error
	txCount          int
}

func newMemStore() *memStore {
	return &memStore{
		paths:   map[uuid.UUID]models.PathRow{},
		folders: map[uuid.UUID]models.Folder{},
		files:   map[uuid.UUID]models.File{},
	}
}

func (s *memStore) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	paths, folders, files := maps.Clone(s.paths), maps.Clone(s.folders), maps.Clone(s.files)
	s.mu.Unlock()

	err := fn(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.paths, s.folders, s.files = paths, folders, files
		s.mu.Unlock()
	}
	return err
}

func (s *memStore) pathRow(path string, userID uuid.UUID) (models.PathRow, bool) {
	for _, p := range s.paths {
		if p.Path == path && p.UserID == userID {
			return p, true
		}
	}
	return models.PathRow{}, false
}

func (s *memStore) FindPathID(_ context.Context, path string, userID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pathRow(path, userID)
	return p.ID, ok, nil
}

func (s *memStore) findInPath(name string, pathID, userID uuid.UUID) (uuid.UUID, bool) {
	for _, f := range s.folders {
		if f.Name == name && f.PathID == pathID && f.UserID == userID && !f.IsTrashed {
			return f.ID, true
		}
	}
	return uuid.Nil, false
}

func (s *memStore) FindID(_ context.Context, path, name string, userID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pathRow(path, userID)
	if !ok {
		return uuid.Nil, false, nil
	}
	id, ok := s.findInPath(name, p.ID, userID)
	return id, ok, nil
}

func (s *memStore) FindIDInPath(_ context.Context, name string, pathID, userID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.findInPath(name, pathID, userID)
	return id, ok, nil
}

func (s *memStore) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok || f.UserID != userID {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	f.Path = s.paths[f.PathID].Path
	return &f, nil
}

func (s *memStore) Create(_ context.Context, nf *models.NewFolder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.folderCreates++
	if s.failFolderCreate > 0 && s.folderCreates == s.failFolderCreate {
		return errors.New("connection reset")
	}

	if nf.NewPath {
		if _, ok := s.pathRow(nf.Path, nf.UserID); ok {
			return fmt.Errorf("path %q: %w", nf.Path, domain.ErrConflict)
		}
		s.paths[nf.PathID] = models.PathRow{ID: nf.PathID, Path: nf.Path, UserID: nf.UserID}
	}
	if _, ok := s.findInPath(nf.Name, nf.PathID, nf.UserID); ok {
		return fmt.Errorf("folder %q: %w", nf.Path+nf.Name, domain.ErrConflict)
	}
	parent, ok := s.folders[nf.ParentID]
	if !ok {
		return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
	}

	parentID := nf.ParentID
	s.folders[nf.ID] = models.Folder{
		ID:         nf.ID,
		Name:       nf.Name,
		PathID:     nf.PathID,
		CreatedAt:  nf.CreatedAt,
		ModifiedAt: nf.CreatedAt,
		ParentID:   &parentID,
		UserID:     nf.UserID,
	}
	parent.ModifiedAt = nf.CreatedAt
	s.folders[parent.ID] = parent
	return nil
}

func (s *memStore) CreateRoot(_ context.Context, id, userID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pathRow("", userID)
	if !ok {
		p = models.PathRow{ID: uuid.New(), Path: "", UserID: userID}
		s.paths[p.ID] = p
	}
	s.folders[id] = models.Folder{ID: id, Name: "/", PathID: p.ID, CreatedAt: at, ModifiedAt: at, UserID: userID}
	return nil
}

func (s *memStore) GetSize(_ context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return f.Size, nil
}

func (s *memStore) IncreaseSize(_ context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error {
	if s.failIncrease != nil {
		return s.failIncrease
	}
	return s.adjust(id, delta, upTo)
}

func (s *memStore) DecreaseSize(_ context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error {
	return s.adjust(id, -delta, upTo)
}

func (s *memStore) adjust(id uuid.UUID, delta int64, upTo *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := &id
	for cur != nil {
		if upTo != nil && *cur == *upTo {
			return nil
		}
		f, ok := s.folders[*cur]
		if !ok {
			return domain.ErrNotFound
		}
		f.Size += delta
		if f.Size < 0 {
			return errors.New("size check violated")
		}
		s.folders[f.ID] = f
		cur = f.ParentID
	}
	return nil
}

func (s *memStore) Touch(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.ModifiedAt = at
	s.folders[id] = f
	return nil
}

func (s *memStore) children(id uuid.UUID) []models.Item {
	var items []models.Item
	for _, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == id && !f.IsTrashed {
			items = append(items, models.Item{Kind: models.ItemKindFolder, Name: f.Name, Size: f.Size,
				CreatedAt: f.CreatedAt, ModifiedAt: f.ModifiedAt})
		}
	}
	for _, f := range s.files {
		if f.FolderID == id && !f.IsTrashed {
			items = append(items, models.Item{Kind: models.ItemKindFile, Name: f.Name + f.Extension, Type: f.Type,
				Size: f.Size, CreatedAt: f.CreatedAt, ModifiedAt: f.ModifiedAt})
		}
	}
	return items
}

func (s *memStore) CountItems(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children(id)), nil
}

// ListItems sorts by name only; ordering is covered by the SQL repository.
func (s *memStore) ListItems(_ context.Context, id uuid.UUID, opts models.ListOptions) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.children(id)
	sort.Slice(items, func(i, j int) bool {
		if opts.Desc {
			return items[i].Name > items[j].Name
		}
		return items[i].Name < items[j].Name
	})
	if opts.Offset >= len(items) {
		return []models.Item{}, nil
	}
	end := min(opts.Offset+opts.Limit, len(items))
	return items[opts.Offset:end], nil
}

func (s *memStore) fileByName(name, ext string, folderID, userID uuid.UUID) (models.File, bool) {
	for _, f := range s.files {
		if f.Name == name && f.Extension == ext && f.FolderID == folderID && f.UserID == userID && !f.IsTrashed {
			return f, true
		}
	}
	return models.File{}, false
}

// fileRepo exposes the file half of memStore; its method names overlap with
// the folder repository.
type fileRepo struct{ s *memStore }

func (r fileRepo) Exists(_ context.Context, name, ext string, folderID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.fileByName(name, ext, folderID, userID)
	return ok, nil
}

func (r fileRepo) Get(_ context.Context, name, ext string, folderID, userID uuid.UUID) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fileByName(name, ext, folderID, userID)
	if !ok {
		return nil, fmt.Errorf("file: %w", domain.ErrNotFound)
	}
	return &f, nil
}

func (r fileRepo) Create(_ context.Context, file *models.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.fileByName(file.Name, file.Extension, file.FolderID, file.UserID); ok {
		return fmt.Errorf("file: %w", domain.ErrConflict)
	}
	if _, ok := r.s.folders[file.FolderID]; !ok {
		return fmt.Errorf("folder: %w", domain.ErrNotFound)
	}
	r.s.files[file.ID] = *file
	return nil
}

func (r fileRepo) Rename(ctx context.Context, id uuid.UUID, name string, at time.Time) error {
	r.s.mu.Lock()
	f, ok := r.s.files[id]
	r.s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	return r.Move(ctx, id, f.FolderID, name, at)
}

func (r fileRepo) Move(_ context.Context, id, folderID uuid.UUID, name string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	if _, taken := r.s.fileByName(name, f.Extension, folderID, f.UserID); taken {
		return fmt.Errorf("file: %w", domain.ErrConflict)
	}
	f.FolderID, f.Name, f.ModifiedAt = folderID, name, at
	r.s.files[id] = f
	return nil
}

// memBlobs is an in-memory blob store.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if b.failPut != nil {
		return b.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *memBlobs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return domain.ErrNotFound
	}
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type staticIdentity struct{ ident services.Identity }

func (s staticIdentity) Identity(context.Context) (services.Identity, error) { return s.ident, nil }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordedEvent struct {
	subject string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{subject: subject, payload: payload})
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}

// fixture wires the drive services over in-memory collaborators for one user.
type fixture struct {
	store   *memStore
	blobs   *memBlobs
	events  *recordingPublisher
	ident   services.Identity
	now     time.Time
	folders services.FolderService
	files   services.FileService
}

func testLimits() config.Limits {
	return config.Limits{
		PathSegmentMaxLength:    255,
		FileNameMaxLength:       255,
		FullPathMaxLength:       2048,
		FileSizeLimit:           1 << 20,
		StorageSizeLimitPerUser: 1 << 22,
		MaxPageSize:             50,
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithLimits(t, testLimits())
}

func newFixtureWithLimits(t *testing.T, limits config.Limits) *fixture {
	t.Helper()

	classifier, err := filetype.NewClassifier()
	require.NoError(t, err)

	f := &fixture{
		store:  newMemStore(),
		blobs:  newMemBlobs(),
		events: &recordingPublisher{},
		ident:  services.Identity{UserID: uuid.New(), RootFolderID: uuid.New()},
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.store.CreateRoot(context.Background(), f.ident.RootFolderID, f.ident.UserID, f.now))

	deps := Deps{
		Folders:    f.store,
		Files:      fileRepo{f.store},
		TxManager:  f.store,
		Blobs:      f.blobs,
		Classifier: classifier,
		Identity:   staticIdentity{f.ident},
		Clock:      fixedClock{f.now},
		Events:     f.events,
		Limits:     limits,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	f.folders = NewFolderService(deps)
	f.files = NewFileService(deps)
	return f
}

// folder returns the stored folder at path+name, failing the test if absent.
func (f *fixture) folder(t *testing.T, path, name string) models.Folder {
	t.Helper()
	id, ok, err := f.store.FindID(context.Background(), path, name, f.ident.UserID)
	require.NoError(t, err)
	require.True(t, ok, "folder %s%s not found", path, name)
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.folders[id]
}

func (f *fixture) root() models.Folder {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.folders[f.ident.RootFolderID]
}

func (f *fixture) mkdir(t *testing.T, raw string) {
	t.Helper()
	_, err := f.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Folder: raw})
	require.NoError(t, err)
}

func (f *fixture) upload(t *testing.T, fileName string, size int) *models.CreatedFile {
	t.Helper()
	created, err := f.files.CreateFile(context.Background(), &services.CreateFileRequest{
		Content:  bytes.NewReader(make([]byte, size)),
		Size:     int64(size),
		FileName: fileName,
	})
	require.NoError(t, err)
	return created
}
