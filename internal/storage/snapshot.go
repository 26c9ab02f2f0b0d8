package storage

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// Snapshot persists the database file to object storage across hosted
// function instance recycling: restore before the first connect, upload on
// shutdown.
type Snapshot struct {
	service Service
	bucket  string
	key     string
	path    string
	logger  *logrus.Logger
}

func NewSnapshot(service Service, bucket, key, path string, logger *logrus.Logger) *Snapshot {
	return &Snapshot{
		service: service,
		bucket:  bucket,
		key:     key,
		path:    path,
		logger:  logger,
	}
}

// Restore downloads the last snapshot when no local database file exists yet.
// A missing remote object is a fresh start, not an error.
func (s *Snapshot) Restore(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		s.logger.WithField("path", s.path).Debug("local database present, skipping snapshot restore")
		return nil
	}

	found, err := s.service.DownloadFile(ctx, s.bucket, s.key, s.path)
	if err != nil {
		return err
	}
	if !found {
		s.logger.WithField("key", s.key).Info("no remote snapshot, starting fresh")
		return nil
	}
	s.logger.WithField("key", s.key).Info("database restored from snapshot")
	return nil
}

// Persist uploads the current database file.
func (s *Snapshot) Persist(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		// nothing to persist
		return nil
	}
	if err := s.service.UploadFile(ctx, s.bucket, s.key, s.path); err != nil {
		return err
	}
	s.logger.WithField("key", s.key).Info("database snapshot uploaded")
	return nil
}
