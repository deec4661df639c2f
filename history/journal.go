// Package history journals finished workflow runs to a Lode dataset.
//
// Records are JSONL, Hive-partitioned by workflow and day. The dataset can
// live on the local filesystem, in memory (tests) or in an S3-compatible
// bucket.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/decomp/procedure"
)

// DatasetID is the Lode dataset runs are written to.
const DatasetID = "decomp_runs"

// Backends accepted by Config.Backend.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// DefaultLimit bounds Query when no limit is given.
const DefaultLimit = 20

// Journal writes and reads run records.
// It is safe for concurrent use.
type Journal struct {
	dataset lode.Dataset
	mu      sync.Mutex // serializes writes
}

// NewJournal creates a journal over the given store factory.
// Use lode.NewMemoryFactory() for testing.
func NewJournal(factory lode.StoreFactory) (*Journal, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(DatasetID),
		factory,
		lode.WithHiveLayout("workflow", "day"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, wrapError("init", DatasetID, err)
	}
	return &Journal{dataset: ds}, nil
}

// NewJournalFS creates a journal rooted at a local directory.
func NewJournalFS(root string) (*Journal, error) {
	return NewJournal(lode.NewFSFactory(root))
}

// Config selects and configures the journal backend.
type Config struct {
	// Backend is fs or s3. Empty disables the journal.
	Backend string
	// Path is the fs root directory, or bucket[/prefix] for s3.
	Path         string
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// Open creates the journal described by cfg. It returns nil, nil when
// cfg.Backend is empty.
func Open(ctx context.Context, cfg Config) (*Journal, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case BackendFS:
		if cfg.Path == "" {
			return nil, errors.New("history: fs backend requires a path")
		}
		return NewJournalFS(cfg.Path)
	case BackendS3:
		bucket, prefix := ParseS3Path(cfg.Path)
		return NewJournalS3(ctx, S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("history: unknown backend %q (must be fs or s3)", cfg.Backend)
	}
}

// Record writes one finished run.
func (j *Journal) Record(ctx context.Context, result *procedure.Result) error {
	if result == nil {
		return errors.New("history: nil result")
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.dataset.Write(ctx, []any{toRunRecordMap(result)}, lode.Metadata{})
	return wrapError("write", string(result.Workflow), err)
}

// Filter narrows a Query.
type Filter struct {
	// Workflow keeps only runs of this workflow. Empty keeps all.
	Workflow string
	// Limit is the maximum number of records returned (default DefaultLimit).
	Limit int
}

// Query returns journaled runs, newest first.
func (j *Journal) Query(ctx context.Context, filter Filter) ([]RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	snapshots, err := j.dataset.Snapshots(ctx)
	if err != nil {
		return nil, wrapError("read", "snapshots", err)
	}

	var out []RunRecord
	// Snapshots are ordered by creation time; walk them latest first.
	for i := len(snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		snap := snapshots[i]
		if !snapshotMatchesFilter(snap, "workflow", filter.Workflow) {
			continue
		}

		data, err := j.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, wrapError("read", fmt.Sprintf("snapshot/%s", snap.ID), err)
		}
		for _, item := range data {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rec, ok := fromRecordMap(m)
			if !ok {
				continue
			}
			if filter.Workflow != "" && rec.Workflow != filter.Workflow {
				continue
			}
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].startedAt().After(out[b].startedAt()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// snapshotMatchesFilter checks if a snapshot's file paths match
// the given partition key=value filter.
func snapshotMatchesFilter(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks for an exact key=value path segment, so
// that workflow=optimize never matches a longer value sharing the prefix.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}

var _ procedure.Recorder = (*Journal)(nil)
