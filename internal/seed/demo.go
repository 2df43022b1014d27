// Package seed fills a development database with a demo account, a small
// folder tree and a few sample files.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filestorage/internal/domain"
	"filestorage/internal/domain/repositories"
	"filestorage/internal/domain/services"
	"filestorage/internal/httputil"
)

// Account is the demo user to create or reuse.
type Account struct {
	Email    string
	Username string
	Password string
}

// Result counts what a run created. FoldersCreated counts requested leaf
// folders; missing ancestors are created along with them. Items that already
// existed are skipped.
type Result struct {
	UserCreated    bool
	FoldersCreated int
	FilesCreated   int
	Skipped        int
}

type sampleFile struct {
	name    string
	mime    string
	content string
}

var demoFolders = []string{
	"/Documents/Reports/2024",
	"/Documents/Reports/2025",
	"/Documents/Notes",
	"/Pictures/Holidays",
	"/Music",
}

var demoFiles = []sampleFile{
	{name: "/readme.txt", mime: "text/plain", content: "Welcome to your drive.\n"},
	{name: "/Documents/Notes/todo.txt", mime: "text/plain", content: "- water plants\n- renew passport\n"},
	{name: "/Documents/Reports/2024/summary.json", mime: "application/json", content: `{"year":2024,"status":"final"}`},
	{name: "/Documents/Reports/2025/summary.json", mime: "application/json", content: `{"year":2025,"status":"draft"}`},
}

// Seeder drives the account and drive services the same way API clients do.
type Seeder struct {
	Accounts services.UserService
	Users    repositories.UserRepository
	Folders  services.FolderService
	Files    services.FileService
	Logger   *slog.Logger
}

// Run registers acct (or reuses it when taken) and provisions the demo tree
// on its behalf. Running it twice is harmless.
func (s *Seeder) Run(ctx context.Context, acct Account) (*Result, error) {
	res := &Result{}

	_, err := s.Accounts.Register(ctx, &services.RegisterRequest{
		Email:    acct.Email,
		Username: acct.Username,
		Password: acct.Password,
	})
	switch {
	case err == nil:
		res.UserCreated = true
	case errors.Is(err, domain.ErrConflict):
		s.Logger.Info("demo user exists", "username", acct.Username)
	default:
		return nil, fmt.Errorf("register demo user: %w", err)
	}

	user, err := s.Users.GetByLogin(ctx, acct.Username)
	if err != nil {
		return nil, fmt.Errorf("load demo user: %w", err)
	}
	ctx = httputil.ContextWithIdentity(ctx, services.Identity{UserID: user.ID, RootFolderID: user.FolderID})

	for _, folder := range demoFolders {
		_, err := s.Folders.CreateFolder(ctx, &services.CreateFolderRequest{Folder: folder})
		if isKey(err, domain.KeyDuplicateFolderName) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create folder %s: %w", folder, err)
		}
		res.FoldersCreated++
	}

	for _, f := range demoFiles {
		_, err := s.Files.CreateFile(ctx, &services.CreateFileRequest{
			Content:  bytes.NewReader([]byte(f.content)),
			Size:     int64(len(f.content)),
			FileName: f.name,
			MimeType: f.mime,
		})
		if isKey(err, domain.KeyDuplicateFileName) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create file %s: %w", f.name, err)
		}
		res.FilesCreated++
	}

	s.Logger.Info("demo data seeded",
		"user_id", user.ID,
		"user_created", res.UserCreated,
		"folders_created", res.FoldersCreated,
		"files_created", res.FilesCreated,
		"skipped", res.Skipped,
	)
	return res, nil
}

func isKey(err error, key string) bool {
	var keyed domain.KeyedError
	return errors.As(err, &keyed) && keyed.ErrorKey() == key
}
