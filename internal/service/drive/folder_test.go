package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
)

func errorKey(err error) string {
	var keyed domain.KeyedError
	if errors.As(err, &keyed) {
		return keyed.ErrorKey()
	}
	return ""
}

func TestCreateFolder_ProvisionsMissingAncestors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.folders.CreateFolder(ctx, &services.CreateFolderRequest{Folder: "A/B/C"})
	require.NoError(t, err)
	assert.Equal(t, "/A/B/C", created.FullName)
	assert.Equal(t, "/A/B/", created.Path)
	assert.Equal(t, "C", created.Name)

	a := f.folder(t, "/", "A")
	b := f.folder(t, "/A/", "B")
	c := f.folder(t, "/A/B/", "C")

	require.NotNil(t, a.ParentID)
	require.NotNil(t, b.ParentID)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, f.ident.RootFolderID, *a.ParentID)
	assert.Equal(t, a.ID, *b.ParentID)
	assert.Equal(t, b.ID, *c.ParentID)
	assert.Equal(t, c.ID, created.ID)

	for _, folder := range []models.Folder{a, b, c} {
		assert.Zero(t, folder.Size)
		assert.Equal(t, f.now, folder.CreatedAt)
	}

	require.Len(t, f.events.events, 1)
	evt, ok := f.events.events[0].payload.(events.FolderCreated)
	require.True(t, ok)
	assert.Equal(t, events.SubjectFolderCreated, f.events.events[0].subject)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, evt.FolderIDs)
}

func TestCreateFolder_ReusesExistingAncestors(t *testing.T) {
	f := newFixture(t)
	f.mkdir(t, "/A")
	a := f.folder(t, "/", "A")

	f.mkdir(t, "/A/B/C")

	assert.Equal(t, a.ID, f.folder(t, "/", "A").ID)
	b := f.folder(t, "/A/", "B")
	require.NotNil(t, b.ParentID)
	assert.Equal(t, a.ID, *b.ParentID)

	// sibling under an existing path row takes the single-insert path
	f.mkdir(t, "/A/D")
	d := f.folder(t, "/A/", "D")
	assert.Equal(t, b.PathID, d.PathID)
	assert.Equal(t, a.ID, *d.ParentID)
}

func TestCreateFolder_NormalizesInput(t *testing.T) {
	f := newFixture(t)

	created, err := f.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Folder: ` \A\ /  B //`})
	require.NoError(t, err)
	assert.Equal(t, "/A/B", created.FullName)
}

func TestCreateFolder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   []string
		folder  string
		wantKey string
		wantErr error
	}{
		{name: "empty", folder: "", wantKey: domain.KeyEmptyFolderName, wantErr: domain.ErrValidation},
		{name: "whitespace", folder: "   ", wantKey: domain.KeyEmptyFolderName, wantErr: domain.ErrValidation},
		{name: "root", folder: "/", wantKey: domain.KeyDuplicateFolderName, wantErr: domain.ErrConflict},
		{name: "duplicate", setup: []string{"/A/B"}, folder: "A/B", wantKey: domain.KeyDuplicateFolderName, wantErr: domain.ErrConflict},
		{name: "control char", folder: "/A/\x01B", wantKey: domain.KeyInvalidPath, wantErr: domain.ErrValidation},
		{name: "segment too long", folder: "/" + strings.Repeat("x", 256), wantKey: domain.KeyFolderNameTooLong, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, s := range tt.setup {
				f.mkdir(t, s)
			}
			before := len(f.store.folders)

			_, err := f.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Folder: tt.folder})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKey, errorKey(err))
			assert.Len(t, f.store.folders, before)
		})
	}
}

func TestCreateFolder_PathTooLong(t *testing.T) {
	limits := testLimits()
	limits.FullPathMaxLength = 10
	f := newFixtureWithLimits(t, limits)

	_, err := f.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Folder: "/abcde/fghij"})
	assert.Equal(t, domain.KeyPathTooLong, errorKey(err))
}

func TestCreateFolder_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failFolderCreate = 3

	_, err := f.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Folder: "/A/B/C"})
	require.Error(t, err)

	assert.Len(t, f.store.folders, 1, "only the root may remain")
	assert.Len(t, f.store.paths, 1)
	assert.Empty(t, f.events.events)
}

func TestCreateFolder_ConcurrentCreatesSucceedOnce(t *testing.T) {
	f := newFixture(t)
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.folders.CreateFolder(context.Background(), &services.CreateFolderRequest{Folder: "/X/Y"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, f.store.folders, 3)
}

func TestGetFolder_Pagination(t *testing.T) {
	f := newFixture(t)
	for i := range 5 {
		f.mkdir(t, fmt.Sprintf("/docs/sub%d", i))
	}
	f.upload(t, "/docs/readme.txt", 10)

	page, err := f.folders.GetFolder(context.Background(), &services.GetFolderRequest{Folder: "/docs", Page: 2, PageSize: 4})
	require.NoError(t, err)

	assert.Equal(t, "/docs", page.FullName)
	assert.Equal(t, int64(10), page.Size)
	assert.Equal(t, 6, page.Items.TotalCount)
	assert.Equal(t, 2, page.Items.TotalPages)
	assert.True(t, page.Items.HasPrevious)
	assert.False(t, page.Items.HasNext)
	require.Len(t, page.Items.Items, 2)
	assert.Equal(t, "sub3", page.Items.Items[0].Name)
	assert.Equal(t, "sub4", page.Items.Items[1].Name)
}

func TestGetFolder_Defaults(t *testing.T) {
	f := newFixture(t)
	f.mkdir(t, "/A")

	root, err := f.folders.GetFolder(context.Background(), &services.GetFolderRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/", root.FullName)
	assert.Equal(t, 1, root.Items.PageNumber)
	assert.Equal(t, defaultPageSize, root.Items.PageSize)
	require.Len(t, root.Items.Items, 1)
	assert.Equal(t, models.ItemKindFolder, root.Items.Items[0].Kind)
}

func TestGetFolder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     services.GetFolderRequest
		wantKey string
	}{
		{name: "missing folder", req: services.GetFolderRequest{Folder: "/nope"}, wantKey: domain.KeyFolderNotFound},
		{name: "negative page", req: services.GetFolderRequest{Page: -1}, wantKey: "InvalidPage"},
		{name: "page size above limit", req: services.GetFolderRequest{PageSize: 51}, wantKey: "InvalidPageSize"},
		{name: "unknown order", req: services.GetFolderRequest{OrderBy: "owner"}, wantKey: "InvalidOrder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.folders.GetFolder(context.Background(), &tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantKey, errorKey(err))
		})
	}
}
