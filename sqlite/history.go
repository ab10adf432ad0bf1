package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/mangadl"
	"github.com/google/uuid"
)

var _ mangadl.HistoryService = (*HistoryService)(nil)

// HistoryService implements mangadl.HistoryService using SQLite.
type HistoryService struct {
	db *DB
}

func NewHistoryService(db *DB) *HistoryService {
	return &HistoryService{db: db}
}

// CreateRecord stores record. Records pointing at an archive on disk get the
// archive's xxhash digest.
func (s *HistoryService) CreateRecord(ctx context.Context, record *mangadl.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if record.ArchivePath != "" && record.ArchiveHash == "" {
		hash, err := hashFile(record.ArchivePath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		record.ArchiveHash = hash
	}

	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, website, series, chapter, status, reason, archive_path, archive_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Website, record.Series, record.Chapter, record.Status, record.Reason,
		record.ArchivePath, record.ArchiveHash, record.CreatedAt.Format(time.RFC3339))

	return err
}

// FindRecords retrieves records matching the filter, newest first.
func (s *HistoryService) FindRecords(ctx context.Context, filter mangadl.RecordFilter) ([]*mangadl.Record, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, website, series, chapter, status, reason, archive_path, archive_hash, created_at
		FROM records WHERE 1=1`)

	if filter.Website != nil {
		query.WriteString(" AND website = ?")
		args = append(args, *filter.Website)
	}
	if filter.Series != nil {
		query.WriteString(" AND series = ?")
		args = append(args, *filter.Series)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*mangadl.Record
	for rows.Next() {
		var r mangadl.Record
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Website, &r.Series, &r.Chapter, &r.Status, &r.Reason,
			&r.ArchivePath, &r.ArchiveHash, &createdAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// hashFile returns the hex xxhash digest of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
