package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventPdfGenerated is recorded after every stored or inline document.
const EventPdfGenerated = "PdfGenerated"

// AuditLog records delivery events. Failures are never fatal to the caller.
type AuditLog interface {
	Record(ctx context.Context, ev AuditEvent) error
}

// VersionRecorder writes the storage path of a document back onto its
// quotation version.
type VersionRecorder interface {
	SetPDFPath(ctx context.Context, versionID, path string) error
}

// SQLAuditLog appends events to the audit_logs table.
type SQLAuditLog struct {
	db  *gorm.DB
	now func() time.Time
}

var _ AuditLog = (*SQLAuditLog)(nil)

// NewSQLAuditLog creates an audit log on db.
func NewSQLAuditLog(db *gorm.DB) *SQLAuditLog {
	return &SQLAuditLog{db: db, now: time.Now}
}

// Record inserts ev, assigning an id and timestamp when missing.
func (l *SQLAuditLog) Record(ctx context.Context, ev AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = l.now().UTC()
	}
	if err := l.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return fmt.Errorf("delivery: writing audit event: %w", err)
	}
	return nil
}

// SQLVersionRecorder updates quotation_versions.pdf_path.
type SQLVersionRecorder struct {
	db *gorm.DB
}

var _ VersionRecorder = (*SQLVersionRecorder)(nil)

func NewSQLVersionRecorder(db *gorm.DB) *SQLVersionRecorder {
	return &SQLVersionRecorder{db: db}
}

func (r *SQLVersionRecorder) SetPDFPath(ctx context.Context, versionID, path string) error {
	res := r.db.WithContext(ctx).Model(&QuotationVersion{}).Where("id = ?", versionID).Update("pdf_path", path)
	if res.Error != nil {
		return fmt.Errorf("delivery: updating version %q: %w", versionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrVersionNotFound, versionID)
	}
	return nil
}
