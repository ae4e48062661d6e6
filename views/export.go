package views

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jithu2111/SenseKey/models"
	"github.com/jithu2111/SenseKey/utils"
)

// Verdict is the correctness tri-state baked into export filenames.
// VerdictUnknown marks sessions that ended before a full 4-digit entry.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictWrong
	VerdictCorrect
)

var verdictMarkers = map[Verdict]string{
	VerdictUnknown: "UNKNOWN",
	VerdictWrong:   "WRONG",
	VerdictCorrect: "CORRECT",
}

func (v Verdict) String() string {
	if m, ok := verdictMarkers[v]; ok {
		return m
	}
	return "UNKNOWN"
}

// VerdictFromMatch maps the controller's is_match flag to a filename marker.
func VerdictFromMatch(isMatch bool) Verdict {
	if isMatch {
		return VerdictCorrect
	}
	return VerdictWrong
}

// Exporter serializes finished session buffers to uniquely named CSV files
// under a dedicated export directory. Prior exports are never touched.
type Exporter struct {
	dir      string
	bufBytes int
	now      func() time.Time
}

// NewExporter creates the export directory tree under the configured base.
func NewExporter(cfg *utils.StorageConfig) (*Exporter, error) {
	sub := cfg.Storage.ExportSubdir
	if sub == "" {
		sub = "pin_entries"
	}
	dir := filepath.Join(cfg.Storage.BaseDir, sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Exporter{
		dir:      dir,
		bufBytes: cfg.Storage.CSV.BufferSizeKB * 1024,
		now:      time.Now,
	}, nil
}

// Dir returns the directory exports are written to.
func (e *Exporter) Dir() string {
	return e.dir
}

// Filename builds the export name for one trial attempt:
//
//	participant_<id>_trial_<NN>_pin_<target>_<CORRECT|WRONG|UNKNOWN>_<yyyyMMdd_HHmmss>.csv
//
// The second-resolution timestamp keeps repeated attempts on the same trial
// from colliding.
func (e *Exporter) Filename(participantID string, trial int, targetPIN string, verdict Verdict) string {
	return fmt.Sprintf("participant_%s_trial_%02d_pin_%s_%s_%s.csv",
		participantID, trial, targetPIN, verdict, utils.FileTimestamp(e.now()))
}

// Export writes one completed trial to disk. The write is all-or-nothing:
// rows go to a temporary sibling which is renamed into place only after a
// successful flush and close, so a failure leaves no observable file.
// An empty record set is a failure and writes nothing.
func (e *Exporter) Export(records []models.SensorRecord, participantID string, trial int, targetPIN string, verdict Verdict) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("export: no records collected for trial %d", trial)
	}

	final := filepath.Join(e.dir, e.Filename(participantID, trial, targetPIN, verdict))
	if _, err := os.Stat(final); err == nil {
		return "", fmt.Errorf("export: %s already exists", final)
	}

	tmp := final + ".tmp"
	w, err := NewCSVWriter(tmp, e.bufBytes, models.SensorRecord{}.CSVHeader())
	if err != nil {
		return "", err
	}

	for i := range records {
		w.WriteRow(records[i].CSVRow())
	}

	if err := w.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("export: finalize %s: %w", final, err)
	}

	utils.L().Info("exported %d records to %s", len(records), filepath.Base(final))
	return final, nil
}
