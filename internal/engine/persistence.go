// Package engine implements the JSON workbook and CPF count pipelines, the
// atomic output writer they share, and the daemon's job history.
package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/celerix-dev/celerix-extract/pkg/schema"
	"github.com/google/uuid"
)

const (
	jobsDir     = "jobs"
	jobMetaFile = "job.json"
)

// WriteAtomic writes path through a temporary file that is renamed into place
// only after write succeeds. On failure the temporary file is removed and
// path is left untouched.
func WriteAtomic(path string, write func(io.Writer) error) (err error) {
	tempPath := path + ".tmp"

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tempPath)
		}
	}()

	if err = write(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	// Readers see either the previous file or the complete new one.
	return os.Rename(tempPath, path)
}

// Persistence handles the disk layout of the daemon: one directory per job
// holding the uploaded input, the generated artifact, and job.json.
type Persistence struct {
	DataDir string
	mu      sync.Mutex // Serialises job.json writes
}

// NewPersistence initializes a persistence handler rooted at dir.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(filepath.Join(dir, jobsDir), 0755); err != nil {
		return nil, err
	}
	return &Persistence{DataDir: dir}, nil
}

// JobPath returns the directory of job id without creating it.
func (p *Persistence) JobPath(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid job id %q: %w", id, err)
	}
	return filepath.Join(p.DataDir, jobsDir, id), nil
}

// JobDir returns the directory of job id, creating it when needed.
func (p *Persistence) JobDir(id string) (string, error) {
	dir, err := p.JobPath(id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveJob writes the job's metadata atomically.
func (p *Persistence) SaveJob(job schema.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir, err := p.JobDir(job.ID)
	if err != nil {
		return err
	}

	bytes, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return err
	}

	return WriteAtomic(filepath.Join(dir, jobMetaFile), func(w io.Writer) error {
		_, err := w.Write(bytes)
		return err
	})
}

// LoadAll returns every job found in the data directory, oldest first.
func (p *Persistence) LoadAll() ([]schema.Job, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(p.DataDir, jobsDir))
	if err != nil {
		return nil, err
	}

	var jobs []schema.Job
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(p.DataDir, jobsDir, entry.Name(), jobMetaFile)
		content, err := os.ReadFile(metaPath)
		if err != nil {
			slog.Warn("could not read job file", "path", metaPath, "error", err)
			continue
		}

		var job schema.Job
		if err := json.Unmarshal(content, &job); err != nil {
			slog.Warn("could not unmarshal job file", "path", metaPath, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}
