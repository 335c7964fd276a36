// pkg/recompress/recompress.go
package recompress

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creativeyann17/go-cbzpack/internal/container"
	"github.com/creativeyann17/go-cbzpack/internal/ledger"
	"github.com/creativeyann17/go-cbzpack/internal/pagecache"
	"github.com/creativeyann17/go-cbzpack/internal/transcode"
)

// Pipeline drives extraction, transcoding, repacking and persistence of archives.
// The ledger and counters are owned by the caller; reusing a ledger across runs
// skips every entry it has already seen.
type Pipeline struct {
	opts       *Options
	ledger     *ledger.Ledger
	counters   *Counters
	cache      *pagecache.Cache // nil when disabled
	progressCb ProgressCallback
}

// New creates a pipeline. A nil ledger or counters gets a fresh instance.
func New(opts *Options, l *ledger.Ledger, counters *Counters, progressCb ProgressCallback) (*Pipeline, error) {
	if opts == nil {
		return nil, ErrInputRequired
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		l = ledger.New()
	}
	if counters == nil {
		counters = NewCounters()
	}
	p := &Pipeline{
		opts:       opts,
		ledger:     l,
		counters:   counters,
		progressCb: progressCb,
	}
	if opts.CacheSize > 0 {
		p.cache = pagecache.NewWithCapacity(uint64(opts.CacheSize))
	}
	return p, nil
}

// Ledger returns the dedup ledger used by the pipeline
func (p *Pipeline) Ledger() *ledger.Ledger {
	return p.ledger
}

// Counters returns the progress counters used by the pipeline
func (p *Pipeline) Counters() *Counters {
	return p.counters
}

// Recompress discovers archives from opts and runs them through a new pipeline
func Recompress(ctx context.Context, opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	archives, warnings, err := collectArchives(opts)
	if err != nil {
		return nil, err
	}

	p, err := New(opts, ledger.New(), NewCounters(), progressCb)
	if err != nil {
		return nil, err
	}

	result, err := p.Run(ctx, archives)
	if result != nil && len(warnings) > 0 {
		result.Warnings = append(warnings, result.Warnings...)
	}
	return result, err
}

// collectArchives returns the archives named by opts.Files or discovered under opts.InputPath
func collectArchives(opts *Options) ([]string, []error, error) {
	if len(opts.Files) > 0 {
		archives := make([]string, 0, len(opts.Files))
		for _, f := range opts.Files {
			if !container.HasExtension(f) {
				return nil, nil, newArchiveError(f, "", StageDiscover, ErrUnsupportedType)
			}
			archives = append(archives, filepath.Clean(f))
		}
		return archives, nil, nil
	}

	return discover(opts.InputPath, &DiscoverOptions{
		Exclude:        opts.StagingDir,
		UseIgnoreFiles: opts.UseIgnoreFiles,
	})
}

// job carries one archive through the pipeline
type job struct {
	path       string
	name       string
	state      ArchiveState
	size       uint64
	entries    []container.Entry
	extracted  int
	written    int
	afterSize  uint64
	output     string
	transcoded atomic.Int32
}

// task is one image entry handed to the transcoding pool
type task struct {
	job *job
	idx int
}

// run holds the state of a single Pipeline.Run call
type run struct {
	*Pipeline
	result *Result
	jobs   []*job

	mu        sync.Mutex // Guards result.Errors and result.Warnings
	fallbacks atomic.Int32
	kept      atomic.Int32
	cached    atomic.Int32
}

// Run processes archives and returns the run statistics. Archive failures are
// recorded in Result.Errors and skipped unless FailFast is set. On context
// cancellation no new archive is started and ctx.Err() is returned with the
// partial result.
func (p *Pipeline) Run(ctx context.Context, archives []string) (*Result, error) {
	start := time.Now()
	r := &run{
		Pipeline: p,
		result:   &Result{ArchivesTotal: len(archives)},
	}

	p.emit(ProgressEvent{Type: EventStart, Total: int64(len(archives))})

	err := r.execute(ctx, archives)
	if err != nil && ctx.Err() != nil {
		r.result.Cancelled = true
	}
	r.finish(start)

	return r.result, err
}

func (r *run) execute(ctx context.Context, archives []string) error {
	if err := r.extractAll(ctx, archives); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.filter()

	if err := r.transcodeAll(ctx); err != nil {
		return err
	}
	if err := r.persistAll(ctx); err != nil {
		return err
	}

	if r.opts.BundlePath != "" && !r.opts.DryRun {
		return r.bundle()
	}
	return nil
}

// extractAll reads every archive, at most IOThreads at a time
func (r *run) extractAll(ctx context.Context, archives []string) error {
	r.jobs = make([]*job, 0, len(archives))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.IOThreads)

	for _, path := range archives {
		if gctx.Err() != nil {
			break
		}

		j := &job{path: path, name: filepath.Base(path), state: StateDiscovered}
		r.jobs = append(r.jobs, j)
		n := r.counters.Discovered.Add(1)
		r.emit(ProgressEvent{Type: EventArchiveDiscovered, Archive: j.name, Current: n})

		g.Go(func() error {
			if gctx.Err() != nil {
				j.state = StateCancelled
				return nil
			}
			return r.extract(j)
		})
	}

	return g.Wait()
}

func (r *run) extract(j *job) error {
	archive, err := container.ReadArchive(j.path)
	if err != nil {
		return r.fail(j, StateExtractionFailed, StageExtract, err)
	}

	j.name = archive.Name
	j.size = archive.Size
	j.entries = archive.Entries
	j.extracted = len(archive.Entries)
	j.state = StateExtracted

	for _, skipped := range archive.Skipped {
		r.warn(newArchiveError(j.name, "", StageExtract, skipped))
	}

	images := 0
	for _, e := range archive.Entries {
		if transcode.IsImagePath(e.Path) {
			images++
		}
	}

	n := r.counters.Extracted.Add(1)
	r.emit(ProgressEvent{Type: EventArchiveExtracted, Archive: j.name, Current: n, Total: int64(images)})
	return nil
}

// filter drops entries the ledger has already seen. It runs in discovery
// order so the same archive wins on every run.
func (r *run) filter() {
	for _, j := range r.jobs {
		if j.state != StateExtracted {
			continue
		}

		kept := j.entries[:0]
		for _, e := range j.entries {
			if r.ledger.Observe(ledger.Key{Name: e.Archive, Path: e.Path}) {
				kept = append(kept, e)
			} else {
				r.result.DuplicateEntries++
			}
		}
		// Release dropped payloads
		for i := len(kept); i < len(j.entries); i++ {
			j.entries[i] = container.Entry{}
		}
		j.entries = kept

		if j.extracted > 0 && len(kept) == 0 {
			j.state = StateDuplicate
			aerr := newArchiveError(j.name, "", StageFilter, ErrDuplicateArchive)
			r.warn(aerr)
			r.emit(ProgressEvent{Type: EventError, Archive: j.name, Err: aerr})
			continue
		}
		j.state = StateFiltered
	}
}

// transcodeAll re-encodes every surviving image of the run on a pool of MaxThreads workers
func (r *run) transcodeAll(ctx context.Context) error {
	var tasks []task
	for _, j := range r.jobs {
		if j.state != StateFiltered {
			continue
		}
		for idx, e := range j.entries {
			if transcode.IsImagePath(e.Path) {
				tasks = append(tasks, task{job: j, idx: idx})
			} else {
				r.result.EntriesCopied++
			}
		}
	}

	taskCh := make(chan task, len(tasks))
	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.MaxThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				// Drain without working once cancelled
				if ctx.Err() != nil {
					continue
				}
				r.transcodeEntry(t)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, j := range r.jobs {
		if j.state == StateFiltered {
			j.state = StateTranscoded
		}
	}
	return nil
}

// transcodeEntry replaces the entry payload in place. Each entry belongs to
// exactly one task, so no lock is needed.
func (r *run) transcodeEntry(t task) {
	entry := &t.job.entries[t.idx]

	out, hit, err := r.transcode(entry.Data)
	if err != nil {
		// Keep the original bytes
		r.fallbacks.Add(1)
		aerr := newArchiveError(entry.Archive, entry.Path, StageTranscode, err)
		r.warn(aerr)
		r.emit(ProgressEvent{Type: EventImageFallback, Archive: entry.Archive, Entry: entry.Path, Err: aerr})
		return
	}

	if hit {
		r.cached.Add(1)
	}

	if r.opts.KeepLarger && len(out) > len(entry.Data) {
		r.kept.Add(1)
	} else {
		entry.Data = out
		t.job.transcoded.Add(1)
	}

	n := r.counters.Transcoded.Add(1)
	r.emit(ProgressEvent{Type: EventImageTranscoded, Archive: entry.Archive, Entry: entry.Path, Current: n})
}

// transcode re-encodes data, going through the page cache when enabled.
// Cached outputs are shared between entries and never modified.
func (p *Pipeline) transcode(data []byte) ([]byte, bool, error) {
	if p.cache == nil {
		out, err := transcode.Transcode(data)
		return out, false, err
	}
	return p.cache.GetOrAdd(pagecache.Sum(data), func() ([]byte, error) {
		return transcode.Transcode(data)
	})
}

// persistAll repacks and writes each archive, at most IOThreads at a time
func (r *run) persistAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.IOThreads)

	for _, j := range r.jobs {
		if j.state != StateTranscoded {
			continue
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return r.persist(j)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (r *run) persist(j *job) error {
	packed, err := container.Pack(j.entries, r.opts.Level)
	if err != nil {
		return r.fail(j, StateWriteFailed, StageRepack, err)
	}
	j.state = StateRepacked

	name := packed.Name
	if name == "" {
		// Archive without entries
		name = j.name
	}
	j.written = len(j.entries)
	j.afterSize = uint64(len(packed.Data))

	if !r.opts.DryRun {
		output, err := writeStaged(r.opts.StagingDir, name, packed.Data)
		if err != nil {
			return r.fail(j, StateWriteFailed, StagePersist, err)
		}
		j.output = output
	}

	j.entries = nil
	j.state = StatePersisted

	n := r.counters.Completed.Add(1)
	r.emit(ProgressEvent{
		Type:        EventArchivePersisted,
		Archive:     name,
		Current:     n,
		BeforeBytes: j.size,
		AfterBytes:  j.afterSize,
	})
	return nil
}

// bundle packs every persisted archive into the xz bundle
func (r *run) bundle() error {
	var staged []string
	for _, j := range r.jobs {
		if j.state == StatePersisted && j.output != "" {
			staged = append(staged, j.output)
		}
	}

	if err := writeBundle(r.opts.BundlePath, staged); err != nil {
		aerr := newArchiveError(filepath.Base(r.opts.BundlePath), "", StageBundle, err)
		r.mu.Lock()
		r.result.Errors = append(r.result.Errors, aerr)
		r.mu.Unlock()
		r.emit(ProgressEvent{Type: EventError, Err: aerr})
		if r.opts.FailFast {
			return aerr
		}
		return nil
	}

	r.result.BundlePath = r.opts.BundlePath
	return nil
}

// finish fills in the summary and emits the completion event
func (r *run) finish(start time.Time) {
	res := r.result
	for _, j := range r.jobs {
		if j.state != StatePersisted {
			continue
		}
		transcoded := int(j.transcoded.Load())
		res.Archives = append(res.Archives, ArchiveSummary{
			Name:       j.name,
			Source:     j.path,
			Output:     j.output,
			BeforeSize: j.size,
			AfterSize:  j.afterSize,
			Entries:    j.written,
			Transcoded: transcoded,
		})
		res.ArchivesProcessed++
		res.OriginalSize += j.size
		res.CompressedSize += j.afterSize
		res.ImagesTranscoded += transcoded
	}
	res.ImagesFallback = int(r.fallbacks.Load())
	res.ImagesKept = int(r.kept.Load())
	res.ImagesCached = int(r.cached.Load())
	res.Elapsed = time.Since(start)

	r.emit(ProgressEvent{
		Type:        EventComplete,
		Current:     int64(res.ArchivesProcessed),
		Total:       int64(res.ArchivesTotal),
		BeforeBytes: res.OriginalSize,
		AfterBytes:  res.CompressedSize,
		Elapsed:     res.Elapsed,
	})
}

// fail records an archive-level failure and returns it when the run must stop
func (r *run) fail(j *job, state ArchiveState, stage Stage, err error) error {
	j.state = state
	j.entries = nil

	aerr := newArchiveError(j.name, "", stage, err)
	r.mu.Lock()
	r.result.Errors = append(r.result.Errors, aerr)
	r.mu.Unlock()

	r.emit(ProgressEvent{Type: EventError, Archive: j.name, Err: aerr})

	if r.opts.FailFast {
		return fmt.Errorf("fail-fast: %w", aerr)
	}
	return nil
}

func (r *run) warn(err error) {
	r.mu.Lock()
	r.result.Warnings = append(r.result.Warnings, err)
	r.mu.Unlock()
}

func (p *Pipeline) emit(event ProgressEvent) {
	if p.progressCb != nil {
		p.progressCb(event)
	}
}
