package tracking

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/tag-tracker/internal/checkpoint"
	"github.com/ironsheep/tag-tracker/internal/config"
	"github.com/ironsheep/tag-tracker/internal/imaging"
	"github.com/ironsheep/tag-tracker/internal/logging"
	"github.com/ironsheep/tag-tracker/internal/metrics"
	"github.com/ironsheep/tag-tracker/internal/record"
	"github.com/ironsheep/tag-tracker/internal/report"
)

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Index  int                `json:"index"`
	Record record.FrameRecord `json:"record"`
	Head   Detection          `json:"head"`
	Tail   Detection          `json:"tail"`
	// Failed is set when either tag had no component in its search window.
	Failed bool `json:"failed"`
	// HeadMotion is the head displacement from the previous frame when both
	// are resolved.
	HeadMotion *imaging.DistanceResult `json:"head_motion,omitempty"`
}

// Unresolved reports whether either tag ended Unresolved.
func (r FrameResult) Unresolved() bool {
	return r.Record.Head.Kind == record.KindUnresolved || r.Record.Tail.Kind == record.KindUnresolved
}

// Detection returns the detection of tag.
func (r FrameResult) Detection(tag record.Tag) Detection {
	if tag == record.Head {
		return r.Head
	}
	return r.Tail
}

// Status is a snapshot of a session.
type Status struct {
	Dir        string             `json:"dir"`
	ID         string             `json:"session_id"`
	RunID      string             `json:"run_id"`
	FrameCount int                `json:"frame_count"`
	Current    int                `json:"current"`
	Arena      imaging.Rect       `json:"arena"`
	Running    bool               `json:"running"`
	Record     record.FrameRecord `json:"record"`
	ReportPath string             `json:"report_path"`
	Resumed    bool               `json:"resumed"`
	Width      int                `json:"width,omitempty"`
	Height     int                `json:"height,omitempty"`
}

// Option configures Open.
type Option func(*Session)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCache shares a frame cache.
func WithCache(c *imaging.FrameCache) Option {
	return func(s *Session) { s.cache = c }
}

// WithCheckpoint uses an already open checkpoint store. The session does not
// close it.
func WithCheckpoint(c *checkpoint.Store) Option {
	return func(s *Session) { s.ckpt = c }
}

// Session is one annotation pass over a directory of frames. Exactly one
// frame is current at a time and only it is mutated. A Session is not safe
// for concurrent use.
type Session struct {
	Dir        string
	ID         string
	RunID      string
	FrameCount int

	cfg      *config.Config
	arena    imaging.Rect
	current  int
	store    *record.Store
	cache    *imaging.FrameCache
	locator  *Locator
	ckpt     *checkpoint.Store
	ownsCkpt bool
	logger   *logrus.Logger
	log      *logrus.Entry
	running  bool
	resumed  bool
	last     FrameResult
}

// Open starts a session over dir and processes its first frame.
//
// Frames are the files matching cfg.FrameGlob; a directory without any is
// rejected with ErrNoFrames. When <dir>.csv exists its rows are loaded, and
// when checkpointing is enabled any checkpointed frames are laid over them.
func Open(dir string, cfg *config.Config, opts ...Option) (*Session, error) {
	dir = filepath.Clean(dir)

	frames, err := imaging.ListFrames(dir, cfg.FrameGlob)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, dir)
	}

	arena, err := cfg.ArenaRect()
	if err != nil {
		return nil, err
	}

	s := &Session{
		Dir:        dir,
		ID:         sessionID(dir, cfg.SessionIDLength),
		RunID:      uuid.NewString(),
		FrameCount: len(frames),
		cfg:        cfg,
		arena:      arena,
		current:    1,
		store:      record.NewStore(len(frames)),
		locator:    NewLocator(OptionsFromConfig(cfg), NewProfileTable(cfg)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.cache == nil {
		s.cache = imaging.NewFrameCache()
	}
	s.log = s.logger.WithFields(logrus.Fields{
		logging.RunIDKey:   s.RunID,
		logging.SessionKey: s.ID,
	})

	if err := s.loadReport(); err != nil {
		return nil, err
	}
	if err := s.openCheckpoint(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"dir":     dir,
		"frames":  s.FrameCount,
		"resumed": s.resumed,
	}).Info("session opened")

	if _, err := s.ProcessCurrent(); err != nil {
		s.closeCheckpoint()
		return nil, err
	}
	return s, nil
}

// sessionID is the trailing n characters of the directory path.
func sessionID(dir string, n int) string {
	if len(dir) <= n {
		return dir
	}
	return dir[len(dir)-n:]
}

// ReportPath is the sibling CSV the session loads from and saves to.
func (s *Session) ReportPath() string {
	return s.Dir + ".csv"
}

func (s *Session) checkpointPath() string {
	if s.cfg.Checkpoint.Path != "" {
		return s.cfg.Checkpoint.Path
	}
	return s.Dir + ".ckpt.db"
}

func (s *Session) loadReport() error {
	recs, err := report.ParseFile(s.ReportPath(), s.FrameCount)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for i, r := range recs {
		s.store.Set(i+1, s.normalize(r))
	}
	s.resumed = true
	return nil
}

func (s *Session) openCheckpoint() error {
	if s.ckpt == nil {
		if !s.cfg.Checkpoint.Enabled {
			return nil
		}
		store, err := checkpoint.Open(s.checkpointPath())
		if err != nil {
			return err
		}
		s.ckpt, s.ownsCkpt = store, true
	}

	rows, err := s.ckpt.Load(s.Dir)
	if err != nil {
		s.closeCheckpoint()
		return err
	}
	for idx, r := range rows {
		if s.store.Valid(idx) {
			s.store.Set(idx, s.normalize(r))
		}
	}
	if len(rows) > 0 {
		s.resumed = true
		s.log.WithField("frames", len(rows)).Info("checkpoint restored")
	}
	return nil
}

func (s *Session) closeCheckpoint() {
	if s.ckpt != nil && s.ownsCkpt {
		if err := s.ckpt.Close(); err != nil {
			s.log.WithError(err).Error("failed to close checkpoint")
		}
	}
	s.ckpt, s.ownsCkpt = nil, false
}

// normalize keeps HeadToCenter consistent with the head position.
func (s *Session) normalize(r record.FrameRecord) record.FrameRecord {
	if !r.Head.IsResolved() {
		r.HeadToCenter = nil
	} else if r.HeadToCenter == nil {
		r = r.WithCenterDistance(s.arena)
	}
	return r
}

// Current returns the current 1-based frame index.
func (s *Session) Current() int { return s.current }

// Arena returns the arena rectangle.
func (s *Session) Arena() imaging.Rect { return s.arena }

// Record returns the stored record of a frame.
func (s *Session) Record(index int) record.FrameRecord { return s.store.Get(index) }

// Records returns a copy of every record; element 0 is frame 1.
func (s *Session) Records() []record.FrameRecord { return s.store.Records() }

// Last returns the result of the most recent ProcessCurrent.
func (s *Session) Last() FrameResult { return s.last }

// Running reports whether continuous analysis is active.
func (s *Session) Running() bool { return s.running }

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		Dir:        s.Dir,
		ID:         s.ID,
		RunID:      s.RunID,
		FrameCount: s.FrameCount,
		Current:    s.current,
		Arena:      s.arena,
		Running:    s.running,
		Record:     s.store.Get(s.current),
		ReportPath: s.ReportPath(),
		Resumed:    s.resumed,
	}
	if d, err := imaging.GetDimensions(s.cache, s.framePath(s.current)); err == nil {
		st.Width, st.Height = d.Width, d.Height
	}
	return st
}

// framePath returns the path of a 1-based frame.
func (s *Session) framePath(index int) string {
	return imaging.FramePath(s.Dir, s.cfg.FrameNameFormat, index)
}

// Frame decodes the current frame.
func (s *Session) Frame() (image.Image, error) {
	return s.cache.Load(s.framePath(s.current))
}

// ProcessCurrent runs the locator for both tags on the current frame and
// commits the result.
func (s *Session) ProcessCurrent() (FrameResult, error) {
	img, err := s.Frame()
	if err != nil {
		s.log.WithError(err).WithField(logging.FrameKey, s.current).Error("failed to load frame")
		return FrameResult{}, err
	}
	prepared := s.locator.Prepare(img)

	prev := s.store.Get(s.current - 1)
	rec := s.store.Get(s.current)

	res := FrameResult{Index: s.current}
	for _, tag := range record.Tags {
		d := s.locator.Locate(prepared, tag, rec.Get(tag), prev.Get(tag), s.ID)
		rec = rec.With(tag, d.Position)
		if tag == record.Head {
			res.Head = d
		} else {
			res.Tail = d
		}
		if d.Failed {
			res.Failed = true
		}
		if d.Source != SourceDetected && d.Source != SourceOverride {
			s.log.WithFields(logrus.Fields{
				logging.FrameKey: s.current,
				logging.TagKey:   tag.String(),
				"source":         d.Source,
				"search":         d.Search.String(),
			}).Debug("tag not detected")
		}
	}
	rec = rec.WithCenterDistance(s.arena)
	res.Record = rec

	if prev.Head.IsResolved() && rec.Head.IsResolved() {
		m := imaging.MeasureDistance(prev.Head.Point(), rec.Head.Point())
		res.HeadMotion = &m
	}

	s.commit(rec)
	s.last = res
	return res, nil
}

// commit stores rec for the current frame and checkpoints it.
func (s *Session) commit(rec record.FrameRecord) {
	s.store.Set(s.current, rec)
	if s.ckpt == nil {
		return
	}
	if err := s.ckpt.Upsert(s.Dir, s.current, rec); err != nil {
		s.log.WithError(err).WithField(logging.FrameKey, s.current).Error("checkpoint failed")
	}
}

// moveTo changes the current frame without touching the running state.
func (s *Session) moveTo(index int) (FrameResult, error) {
	index = clampIndex(index, s.FrameCount)
	if index != s.current {
		s.cache.Evict(s.framePath(s.current))
		s.current = index
	}
	return s.ProcessCurrent()
}

func clampIndex(index, n int) int {
	if index < 1 {
		return 1
	}
	if index > n {
		return n
	}
	return index
}

// Goto makes index current, clamped to [1, FrameCount], and processes it.
// Manual navigation stops continuous analysis.
func (s *Session) Goto(index int) (FrameResult, error) {
	s.stopRunning("navigation")
	return s.moveTo(index)
}

// Step moves by delta frames, clamped.
func (s *Session) Step(delta int) (FrameResult, error) {
	return s.Goto(s.current + delta)
}

// override stores p for tag in the current frame and re-processes it.
func (s *Session) override(tag record.Tag, p record.Position) (FrameResult, error) {
	s.stopRunning("override")
	rec := s.store.Get(s.current).With(tag, p)
	s.commit(rec.WithCenterDistance(s.arena))
	s.log.WithFields(logrus.Fields{
		logging.FrameKey: s.current,
		logging.TagKey:   tag.String(),
		"position":       p.String(),
	}).Info("tag overridden")
	return s.ProcessCurrent()
}

// SetTag places tag at (x, y) in the current frame.
func (s *Session) SetTag(tag record.Tag, x, y int) (FrameResult, error) {
	if x < 0 || y < 0 {
		return FrameResult{}, fmt.Errorf("position (%d,%d) must not be negative", x, y)
	}
	return s.override(tag, record.Resolved(x, y))
}

// DeleteTag marks tag as deleted in the current frame.
func (s *Session) DeleteTag(tag record.Tag) (FrameResult, error) {
	return s.override(tag, record.Deleted())
}

// ClearTag resets tag to Unknown in the current frame so detection runs again.
func (s *Session) ClearTag(tag record.Tag) (FrameResult, error) {
	return s.override(tag, record.Unknown())
}

// Click toggles tag at (x, y): a click inside the tag-sized square around
// the stored resolved position deletes it, anywhere else sets it.
func (s *Session) Click(tag record.Tag, x, y int) (FrameResult, error) {
	p := s.store.Get(s.current).Get(tag)
	half := s.cfg.TagSize / 2
	if p.IsResolved() {
		box := imaging.Rect{X1: p.X - half, Y1: p.Y - half, X2: p.X + half, Y2: p.Y + half}
		if box.Contains(imaging.Point{X: x, Y: y}) {
			return s.DeleteTag(tag)
		}
	}
	return s.SetTag(tag, x, y)
}

// MoveArena shifts the arena rectangle and re-processes the current frame.
func (s *Session) MoveArena(dx, dy int) (FrameResult, error) {
	return s.AdjustArena(dx, dy, 0, 0)
}

// ResizeArena moves the arena's bottom-right corner and re-processes the
// current frame.
func (s *Session) ResizeArena(dw, dh int) (FrameResult, error) {
	return s.AdjustArena(0, 0, dw, dh)
}

// AdjustArena moves the arena by (dx, dy) and then grows it by (dw, dh).
func (s *Session) AdjustArena(dx, dy, dw, dh int) (FrameResult, error) {
	r := imaging.Rect{
		X1: s.arena.X1 + dx,
		Y1: s.arena.Y1 + dy,
		X2: s.arena.X2 + dx + dw,
		Y2: s.arena.Y2 + dy + dh,
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return FrameResult{}, fmt.Errorf("arena %s would be empty", r)
	}
	s.arena = r
	return s.ProcessCurrent()
}

// Params returns the metrics parameters for this session.
func (s *Session) Params() metrics.Params {
	return metrics.Params{
		FrameRate:  s.cfg.FrameRate,
		NoiseFloor: s.cfg.EffectiveNoiseFloor(),
		WalkAngle:  s.cfg.WalkAngle,
	}
}

// Metrics computes the report for the current records.
func (s *Session) Metrics() metrics.Report {
	return metrics.Compute(s.store.Records(), s.Params())
}

// Save writes the report to ReportPath and clears the session's checkpoint.
func (s *Session) Save() (metrics.Report, error) {
	rep := s.Metrics()
	if err := report.WriteFile(s.ReportPath(), rep); err != nil {
		s.log.WithError(err).Error("failed to save report")
		return rep, err
	}
	if s.ckpt != nil {
		if err := s.ckpt.Purge(s.Dir); err != nil {
			s.log.WithError(err).Error("failed to purge checkpoint")
		}
	}
	s.log.WithFields(logrus.Fields{
		"path":          s.ReportPath(),
		"walking":       int(rep.WalkingDistance),
		"head_movement": int(rep.HeadMovement),
	}).Info("report saved")
	return rep, nil
}

// Close ends the session, saving first when save is set. Records are
// discarded either way.
func (s *Session) Close(save bool) error {
	var err error
	if save {
		_, err = s.Save()
	}
	s.stopRunning("close")
	s.cache.Clear()
	s.closeCheckpoint()
	s.store.Reset()
	s.log.Info("session closed")
	return err
}

// Preview renders the current frame with tag markers and the arena.
func (s *Session) Preview(scale float64) (*imaging.PreviewResult, error) {
	img, err := s.Frame()
	if err != nil {
		return nil, err
	}
	rec := s.store.Get(s.current)
	a := imaging.Annotation{
		TagSize:      s.cfg.TagSize,
		Arena:        s.arena,
		Failed:       s.last.Index == s.current && s.last.Failed,
		HeadToCenter: rec.HeadToCenter,
		FrameIndex:   s.current,
	}
	if rec.Head.IsResolved() {
		p := rec.Head.Point()
		a.Head = &p
	}
	if rec.Tail.IsResolved() {
		p := rec.Tail.Point()
		a.Tail = &p
	}
	if scale <= 0 {
		scale = s.cfg.Preview.Scale
	}
	return imaging.Preview(img, a, scale)
}

// Crop returns a close-up around a resolved tag in the current frame.
func (s *Session) Crop(tag record.Tag, half int, scale float64) (*imaging.CropResult, error) {
	p := s.store.Get(s.current).Get(tag)
	if !p.IsResolved() {
		return nil, fmt.Errorf("%w: %s in frame %d is %s", ErrNotResolved, tag, s.current, p)
	}
	img, err := s.Frame()
	if err != nil {
		return nil, err
	}
	if half <= 0 {
		half = s.cfg.TagSize * 2
	}
	return imaging.CropAround(img, p.Point(), half, scale)
}
