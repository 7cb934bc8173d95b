package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eicrcore/internal/archive"
	"eicrcore/internal/builder"
	"eicrcore/internal/extract"
	"eicrcore/internal/session"
)

// ImportBoardScan archives a board scan payload, builds its circuits and
// fills blank slots before appending.
func (s *Service) ImportBoardScan(ctx context.Context, formID string, payload []byte) (builder.InsertReport, error) {
	var report builder.InsertReport
	err := s.run(ctx, "import_board_scan", func(ctx context.Context) error {
		scan, err := extract.ParseBoardScan(payload)
		if err != nil {
			return err
		}
		s.archiveScan(ctx, formID, builder.SourceBoardScan, payload)
		records := s.builder.BuildAll(scan.RawCircuits())
		s.recordBuilt(builder.SourceBoardScan, len(records))
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			report, err = sess.Insert(records, builder.ModeFillBlank)
			return err
		})
	})
	return report, err
}

// ImportTestScan archives a test result scan and merges it: rows matching
// an existing circuit number update that record, the rest are inserted.
func (s *Service) ImportTestScan(ctx context.Context, formID string, payload []byte) (extract.MergeReport, error) {
	var report extract.MergeReport
	err := s.run(ctx, "import_test_scan", func(ctx context.Context) error {
		scan, err := extract.ParseTestScan(payload)
		if err != nil {
			return err
		}
		s.archiveScan(ctx, formID, builder.SourceTestScan, payload)
		err = s.withSession(ctx, formID, func(sess *session.Session) error {
			return sess.Mutate(func(records []TestResult) ([]TestResult, error) {
				var out []TestResult
				out, report = extract.ApplyTestScan(s.builder, records, scan)
				return out, nil
			})
		})
		if err == nil {
			s.recordBuilt(builder.SourceTestScan, len(report.Merged)+len(report.Inserted.Filled)+len(report.Inserted.Appended))
		}
		return err
	})
	return report, err
}

// ImportScribble archives a scribble payload and appends its circuits.
func (s *Service) ImportScribble(ctx context.Context, formID string, payload []byte) (builder.InsertReport, error) {
	var report builder.InsertReport
	err := s.run(ctx, "import_scribble", func(ctx context.Context) error {
		raws, err := extract.ParseScribble(payload)
		if err != nil {
			return err
		}
		s.archiveScan(ctx, formID, builder.SourceScribble, payload)
		records := s.builder.BuildAll(raws)
		s.recordBuilt(builder.SourceScribble, len(records))
		return s.withSession(ctx, formID, func(sess *session.Session) error {
			var err error
			report, err = sess.Insert(records, builder.ModeAppend)
			return err
		})
	})
	return report, err
}

// archiveScan stores the raw payload. Failures are logged, never returned:
// the archive is a record of inputs, not part of the edit.
func (s *Service) archiveScan(ctx context.Context, formID string, source builder.Source, payload []byte) {
	if s.archiver == nil {
		return
	}
	if _, err := s.archiver.ArchiveScan(ctx, formID, string(source), payload); err != nil {
		s.logger.Warn("archive scan failed", zap.String("form", formID), zap.String("source", string(source)), zap.Error(err))
	}
}

// ListScans returns a form's archived payloads.
func (s *Service) ListScans(ctx context.Context, formID string) ([]archive.Info, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archiver.ListScans(ctx, formID)
}

// Export flushes the form and writes its schedule to the archive.
func (s *Service) Export(ctx context.Context, formID string) (archive.Export, error) {
	var out archive.Export
	err := s.run(ctx, "export", func(ctx context.Context) error {
		if s.archiver == nil {
			return ErrArchiveDisabled
		}
		sess, err := s.Session(ctx, formID)
		if err != nil {
			return err
		}
		if err := sess.Flush(ctx); err != nil {
			return fmt.Errorf("flush before export: %w", err)
		}
		out, err = s.archiver.ExportSchedule(ctx, formID, sess.Records())
		return err
	})
	return out, err
}
