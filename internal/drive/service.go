package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	folderMimeType      = "application/vnd.google-apps.folder"
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	xlsxMimeType        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrNotFound = errors.New("drive file not found")

type Service struct {
	srv *drive.Service
}

// NewService builds a read-only Drive client from service-account JSON.
func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON([]byte(credentialsJSON), drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// DecodeName returns the file name a downloaded Drive file should be decoded as.
// Native spreadsheets are exported as xlsx.
func (f *File) DecodeName() string {
	if f.MimeType == spreadsheetMimeType && !strings.HasSuffix(strings.ToLower(f.Name), ".xlsx") {
		return f.Name + ".xlsx"
	}
	return f.Name
}

// Stat fetches a file's metadata.
func (s *Service) Stat(ctx context.Context, fileID string) (*File, error) {
	f, err := s.srv.Files.Get(fileID).
		Fields("id, name, mimeType, modifiedTime, size").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to stat drive file %s: %w", fileID, err)
	}
	return toFile(f), nil
}

// Download copies the file content into w. Google Sheets are exported as xlsx.
func (s *Service) Download(ctx context.Context, f *File, w io.Writer) error {
	var (
		resp *http.Response
		err  error
	)
	if f.MimeType == spreadsheetMimeType {
		resp, err = s.srv.Files.Export(f.ID, xlsxMimeType).Context(ctx).Download()
	} else {
		resp, err = s.srv.Files.Get(f.ID).Context(ctx).Download()
	}
	if err != nil {
		return fmt.Errorf("unable to download %s: %w", f.Name, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// Resolve accepts either a file id or a slash separated path from the Drive
// root, e.g. "dashboards/dataset.json".
func (s *Service) Resolve(ctx context.Context, ref string) (*File, error) {
	ref = strings.TrimSpace(ref)
	if !strings.Contains(ref, "/") {
		return s.Stat(ctx, ref)
	}

	folderID, err := s.FindFolderByPath(ctx, path.Dir(ref))
	if err != nil {
		return nil, err
	}
	return s.FindFile(ctx, folderID, path.Base(ref))
}

// FindFile looks up a non-trashed file by exact name inside a folder.
func (s *Service) FindFile(ctx context.Context, folderID, name string) (*File, error) {
	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", folderID, escapeQuery(name))).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error finding file %s: %w", name, err)
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return toFile(result.Files[0]), nil
}

func (s *Service) FindFolderByPath(ctx context.Context, folderPath string) (string, error) {
	currentID := "root"

	for _, folder := range strings.Split(folderPath, "/") {
		if folder == "" || folder == "." {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				currentID, escapeQuery(folder), folderMimeType)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("%w: folder %s", ErrNotFound, folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}

func toFile(f *drive.File) *File {
	return &File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
	}
}

// escapeQuery escapes a literal for the Drive query language.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
