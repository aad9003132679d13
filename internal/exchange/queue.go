package exchange

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	pendingDir   = "pending"
	claimedDir   = "claimed"
	processedDir = "processed"
	errorsDir    = "errors"
	filesDir     = "files"
	tmpDir       = "tmp"
)

// Queue is a directory-based job transport shared between the control plane
// and an execution-plane worker. The directories are the single source of
// truth for job existence; all mutation happens through atomic renames on the
// same filesystem, which is the only concurrency primitive in play.
type Queue struct {
	root string
	name string
}

// NewQueue opens (and creates if needed) the exchange layout under root.
func NewQueue(root string) (*Queue, error) {
	for _, dir := range []string{pendingDir, claimedDir, processedDir, errorsDir, filesDir, tmpDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating exchange directory %q: %w", dir, err)
		}
	}
	return &Queue{root: root, name: filepath.Base(root)}, nil
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) jobPath(dir, jobID string) string {
	return filepath.Join(q.root, dir, jobID+".json")
}

func (q *Queue) resultPath(jobID string) string {
	return filepath.Join(q.root, processedDir, jobID+".result.json")
}

// ArtifactPath resolves a job's file reference inside the shared files
// directory.
func (q *Queue) ArtifactPath(fileName string) string {
	return filepath.Join(q.root, filesDir, fileName)
}

// CopyArtifact places an input document into the shared files directory so
// the worker can read it. The caller gets the name to reference in the job.
func (q *Queue) CopyArtifact(srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening artifact %q: %w", srcPath, err)
	}
	defer src.Close()

	name := filepath.Base(srcPath)
	dst, err := os.Create(q.ArtifactPath(name))
	if err != nil {
		return "", fmt.Errorf("creating artifact copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copying artifact %q: %w", name, err)
	}
	return name, nil
}

// Enqueue persists the job into the pending directory. The job is written to
// a temporary location first and renamed into place so a concurrent poller
// never observes a partially-written descriptor.
func (q *Queue) Enqueue(job *Job) error {
	data, err := json.MarshalIndent(job, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding job %s: %w", job.ID, err)
	}

	tmp := q.jobPath(tmpDir, job.ID)
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing job %s: %w", job.ID, err)
	}
	if err := os.Rename(tmp, q.jobPath(pendingDir, job.ID)); err != nil {
		return fmt.Errorf("publishing job %s: %w", job.ID, err)
	}
	return nil
}

// PollPending lists the jobs currently waiting. Unparseable job files are
// quarantined into the errors directory rather than dropped. Order follows
// the filesystem listing and carries no guarantee.
func (q *Queue) PollPending() ([]*Job, error) {
	entries, err := os.ReadDir(filepath.Join(q.root, pendingDir))
	if err != nil {
		return nil, fmt.Errorf("listing pending jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(q.root, pendingDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			// Probably claimed by a concurrent consumer between listing and read.
			continue
		}
		job := &Job{}
		if err := json.Unmarshal(data, job); err != nil {
			zap.S().Named("exchange").Warnf("quarantining malformed job file %s: %v", entry.Name(), err)
			q.quarantine(path, entry.Name())
			continue
		}
		if job.ID == "" {
			job.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// PendingCount reports the queue depth without parsing the descriptors.
func (q *Queue) PendingCount() int {
	entries, err := os.ReadDir(filepath.Join(q.root, pendingDir))
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}
	return count
}

// Claim moves a pending job into the claimed directory. The rename succeeds
// for exactly one caller; everyone else loses the race and gets ErrNotClaimed.
func (q *Queue) Claim(jobID string) error {
	err := os.Rename(q.jobPath(pendingDir, jobID), q.jobPath(claimedDir, jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotClaimed
		}
		return fmt.Errorf("claiming job %s: %w", jobID, err)
	}
	return nil
}

// Complete deposits the result and archives the claimed job file: into the
// processed directory when the run completed, into errors otherwise. The
// result file always lands in processed so the submitter finds it either way.
func (q *Queue) Complete(jobID string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding result for job %s: %w", jobID, err)
	}

	tmp := filepath.Join(q.root, tmpDir, jobID+".result.json")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing result for job %s: %w", jobID, err)
	}
	if err := os.Rename(tmp, q.resultPath(jobID)); err != nil {
		return fmt.Errorf("publishing result for job %s: %w", jobID, err)
	}

	archive := processedDir
	if !result.Completed() {
		archive = errorsDir
	}
	if err := os.Rename(q.jobPath(claimedDir, jobID), q.jobPath(archive, jobID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("archiving job %s: %w", jobID, err)
	}
	return nil
}

// Fail is Complete with a failure result built from err.
func (q *Queue) Fail(jobID string, failure error) error {
	return q.Complete(jobID, NewFailedResult(jobID, failure))
}

// TakeResult consumes the result for jobID if it exists. The result file is
// deleted on consumption; ok is false while no result has been deposited.
func (q *Queue) TakeResult(jobID string) (result *Result, ok bool, err error) {
	path := q.resultPath(jobID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading result for job %s: %w", jobID, err)
	}

	result = &Result{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, false, fmt.Errorf("decoding result for job %s: %w", jobID, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("removing consumed result for job %s: %w", jobID, err)
	}
	return result, true, nil
}

func (q *Queue) quarantine(path, name string) {
	if err := os.Rename(path, filepath.Join(q.root, errorsDir, name)); err != nil {
		zap.S().Named("exchange").Errorf("failed to quarantine %s: %v", name, err)
	}
}
