package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lakgs-api/internal/models"
)

// Snapshot file names inside CONTENT_DIR.
const (
	FileTextbooks = "textbooks.json"
	FileUnits     = "units.json"
	FileLessons   = "lessons.json"
	FileEvents    = "historical_events.json"
	FileFigures   = "historical_figures.json"
	FileConcepts  = "concepts.json"
)

// SnapshotFiles lists every file the loader looks for, in load order.
var SnapshotFiles = []string{FileTextbooks, FileUnits, FileLessons, FileEvents, FileFigures, FileConcepts}

// FileStatus reports how one snapshot file loaded.
type FileStatus struct {
	Name    string
	Present bool
	Records int
	Skipped int
	Err     error
}

type rawRecord map[string]any

// Load reads the snapshot in dir and builds the indices. Missing or malformed
// files are logged and leave their entity list empty.
func Load(dir string, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "content"), zap.String("dir", dir))

	snap := snapshot{}
	statuses := make([]FileStatus, 0, len(SnapshotFiles))
	for _, name := range SnapshotFiles {
		status := FileStatus{Name: name}
		records, err := readRecords(filepath.Join(dir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if name == FileConcepts {
				logger.Info("optional content file missing", zap.String("file", name))
			} else {
				logger.Warn("content file missing", zap.String("file", name))
			}
		case err != nil:
			status.Present = true
			status.Err = err
			logger.Error("content file malformed", zap.String("file", name), zap.Error(err))
		default:
			status.Present = true
			status.Records, status.Skipped = snap.ingest(name, records)
			if status.Skipped > 0 {
				logger.Warn("content records without id skipped", zap.String("file", name), zap.Int("skipped", status.Skipped))
			}
		}
		statuses = append(statuses, status)
	}

	repo := newRepository(snap)
	repo.files = statuses
	logger.Info("content loaded",
		zap.Int("textbooks", len(snap.textbooks)),
		zap.Int("units", len(snap.units)),
		zap.Int("lessons", len(snap.lessons)),
		zap.Int("events", len(snap.events)),
		zap.Int("figures", len(snap.figures)),
		zap.Int("concepts", len(snap.concepts)),
	)
	return repo
}

func readRecords(path string) ([]rawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []rawRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

type snapshot struct {
	textbooks []models.Textbook
	units     []models.Unit
	lessons   []models.Lesson
	events    []models.Event
	figures   []models.Figure
	concepts  []models.Concept
}

// ingest normalises raw records of one file. Records without an id are skipped.
func (s *snapshot) ingest(file string, records []rawRecord) (kept, skipped int) {
	for _, r := range records {
		id := r.str("id")
		if id == "" {
			skipped++
			continue
		}
		switch file {
		case FileTextbooks:
			s.textbooks = append(s.textbooks, models.Textbook{ID: id, Name: r.str("name", "title"), Type: r.str("type")})
		case FileUnits:
			s.units = append(s.units, models.Unit{ID: id, BookID: r.str("book_id"), Order: r.int("order"), Title: r.str("title", "name")})
		case FileLessons:
			s.lessons = append(s.lessons, models.Lesson{
				ID: id, UnitID: r.str("unit_id"), Order: r.int("order"),
				Title: r.str("title", "name"), Content: r.str("content"), BookName: r.str("book_name"),
			})
		case FileEvents:
			s.events = append(s.events, r.event(id))
		case FileFigures:
			s.figures = append(s.figures, models.Figure{ID: id, LessonID: r.str("lesson_id"), Name: r.str("name"), Description: r.str("description")})
		case FileConcepts:
			s.concepts = append(s.concepts, models.Concept{
				ID: id, LessonID: r.str("lesson_id"), Term: r.str("term", "name"),
				Category: r.str("category"), Description: r.str("description"),
			})
		}
		kept++
	}
	return kept, skipped
}

func (r rawRecord) event(id string) models.Event {
	ev := models.Event{ID: id, LessonID: r.str("lesson_id"), Description: r.str("description", "event")}
	switch v := r["year"].(type) {
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			ev.Year = &n
			ev.YearText = FormatYear(n)
		}
	case string:
		ev.YearText = strings.TrimSpace(v)
		if n, ok := ParseYear(v); ok {
			ev.Year = &n
		}
	}
	return ev
}

// str returns the first non-empty value among keys as a string.
func (r rawRecord) str(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

func (r rawRecord) int(key string) int {
	switch v := r[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}
