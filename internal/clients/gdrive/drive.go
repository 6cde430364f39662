package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
)

// DriveClient is the narrow surface the sync service needs from Google
// Drive. The OAuth consent flow lives outside this backend; the client is
// built from an already-obtained refresh token.
type DriveClient interface {
	UploadPdf(ctx context.Context, name string, content io.Reader) (string, error)
	Exists(ctx context.Context, driveFileID string) (bool, error)
	Delete(ctx context.Context, driveFileID string) error
}

type driveClient struct {
	log      *logger.Logger
	svc      *drive.Service
	folderID string
}

func NewDriveClient(ctx context.Context, log *logger.Logger) (DriveClient, error) {
	clientID := strings.TrimSpace(os.Getenv("DRIVE_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("DRIVE_CLIENT_SECRET"))
	refreshToken := strings.TrimSpace(os.Getenv("DRIVE_REFRESH_TOKEN"))
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("missing DRIVE_CLIENT_ID / DRIVE_CLIENT_SECRET / DRIVE_REFRESH_TOKEN")
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{drive.DriveFileScope},
	}
	ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &driveClient{
		log:      log.With("service", "DriveClient"),
		svc:      svc,
		folderID: strings.TrimSpace(os.Getenv("DRIVE_FOLDER_ID")),
	}, nil
}

func (c *driveClient) UploadPdf(ctx context.Context, name string, content io.Reader) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: "application/pdf",
	}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}
	created, err := c.svc.Files.Create(meta).
		Media(content).
		Context(ctx).
		Fields("id").
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload %q: %w", name, err)
	}
	return created.Id, nil
}

func (c *driveClient) Exists(ctx context.Context, driveFileID string) (bool, error) {
	_, err := c.svc.Files.Get(driveFileID).Context(ctx).Fields("id", "trashed").Do()
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *driveClient) Delete(ctx context.Context, driveFileID string) error {
	if err := c.svc.Files.Delete(driveFileID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
