package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/clients/gdrive"
	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/repos"
)

type DriveSyncSummary struct {
	Candidates int         `json:"candidates"`
	Uploaded   int         `json:"uploaded"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	FileIDs    []uuid.UUID `json:"file_ids,omitempty"`
}

// DriveSyncService mirrors a user's actively used PDFs to Google Drive.
// "Actively used" means the document has indexed content: the sync walks the
// content store's distinct document ids rather than every upload, so a pile
// of never-opened files does not get pushed to the user's drive.
type DriveSyncService interface {
	SyncUserPdfs(ctx context.Context, userID uuid.UUID) (*DriveSyncSummary, error)
}

type driveSyncService struct {
	db              *gorm.DB
	log             *logger.Logger
	pdfFileRepo     repos.PdfFileRepo
	contentUnitRepo repos.ContentUnitRepo
	bucketService   BucketService
	driveClient     gdrive.DriveClient
}

func NewDriveSyncService(
	db *gorm.DB,
	baseLog *logger.Logger,
	pdfFileRepo repos.PdfFileRepo,
	contentUnitRepo repos.ContentUnitRepo,
	bucketService BucketService,
	driveClient gdrive.DriveClient,
) DriveSyncService {
	serviceLog := baseLog.With("service", "DriveSyncService")
	return &driveSyncService{
		db:              db,
		log:             serviceLog,
		pdfFileRepo:     pdfFileRepo,
		contentUnitRepo: contentUnitRepo,
		bucketService:   bucketService,
		driveClient:     driveClient,
	}
}

func (dss *driveSyncService) SyncUserPdfs(ctx context.Context, userID uuid.UUID) (*DriveSyncSummary, error) {
	if dss.driveClient == nil {
		return nil, fmt.Errorf("drive sync is not configured")
	}

	activeIDs, err := dss.contentUnitRepo.DistinctDocumentIDs(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list active documents: %w", err)
	}
	summary := &DriveSyncSummary{Candidates: len(activeIDs)}

	for _, fileID := range activeIDs {
		pdfFile, err := dss.pdfFileRepo.GetByID(ctx, nil, userID, fileID)
		if err != nil {
			// Content units can outlive a row mid-delete; skip quietly.
			dss.log.Debug("Active document no longer present, skipping sync", "pdf_file_id", fileID)
			summary.Skipped++
			continue
		}
		if pdfFile.DriveFileID != "" {
			exists, err := dss.driveClient.Exists(ctx, pdfFile.DriveFileID)
			if err != nil {
				dss.log.Warn("Drive lookup failed", "pdf_file_id", fileID, "error", err)
				summary.Failed++
				continue
			}
			if exists {
				summary.Skipped++
				continue
			}
		}

		data, err := dss.bucketService.DownloadFile(ctx, pdfFile.StorageKey)
		if err != nil {
			dss.log.Warn("Could not read stored pdf for drive sync", "pdf_file_id", fileID, "error", err)
			summary.Failed++
			continue
		}
		driveID, err := dss.driveClient.UploadPdf(ctx, pdfFile.OriginalName, bytes.NewReader(data))
		if err != nil {
			dss.log.Warn("Drive upload failed", "pdf_file_id", fileID, "error", err)
			summary.Failed++
			continue
		}
		pdfFile.DriveFileID = driveID
		if err := dss.pdfFileRepo.Update(ctx, nil, pdfFile); err != nil {
			dss.log.Warn("Failed to record drive file id", "pdf_file_id", fileID, "error", err)
		}
		summary.Uploaded++
		summary.FileIDs = append(summary.FileIDs, fileID)
	}
	return summary, nil
}
