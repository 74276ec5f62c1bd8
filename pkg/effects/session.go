package effects

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/menta2k/portrait-fx/internal/log"
	"github.com/menta2k/portrait-fx/pkg/client"
	"github.com/menta2k/portrait-fx/pkg/composite"
	"github.com/menta2k/portrait-fx/pkg/landmarks"
	"github.com/menta2k/portrait-fx/pkg/mask"
	"github.com/menta2k/portrait-fx/pkg/segmentation"
	"github.com/menta2k/portrait-fx/pkg/warp"
)

// Config holds the settings of every engine a session drives
type Config struct {
	Generator  warp.GeneratorConfig
	Evaluator  warp.EvaluatorConfig
	Mask       mask.Options
	Compositor composite.Config
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		Generator:  warp.DefaultGeneratorConfig(),
		Evaluator:  warp.DefaultEvaluatorConfig(),
		Mask:       mask.DefaultOptions(),
		Compositor: composite.DefaultConfig(),
	}
}

// Option customizes a Session
type Option func(*Session)

// WithConfig replaces the default configuration
func WithConfig(config Config) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithLogger sets the session logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRegistry sets the landmark index registry used to place warp points
func WithRegistry(registry *landmarks.Registry) Option {
	return func(s *Session) {
		s.registry = registry
	}
}

// Session is one editing session: a source image, its cached analysis and
// at most one running job. It is safe for concurrent use.
type Session struct {
	id       string
	config   Config
	registry *landmarks.Registry
	logger   *slog.Logger

	detector   client.LandmarkDetector
	masks      *segmentation.Cache
	generator  *warp.Generator
	evaluator  *warp.Evaluator
	compositor *composite.Compositor

	mu      sync.Mutex
	image   *image.NRGBA
	imageID string
	faces   faceCache
	cancel  context.CancelFunc
	seq     uint64
	latest  *Result
	closed  bool
	jobs    sync.WaitGroup
}

type faceCache struct {
	imageID   string
	landmarks []landmarks.Landmark
	ok        bool
}

// NewSession creates a session. detector may be nil, in which case faces are
// never found; segmenter may be nil, in which case mask effects fail with
// ErrSegmentation.
func NewSession(detector client.LandmarkDetector, segmenter client.Segmenter, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		config:   DefaultConfig(),
		detector: detector,
		masks:    segmentation.NewCache(segmenter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.L()
	}
	s.logger = s.logger.With("session", s.id)

	s.generator = warp.NewGeneratorWithConfig(s.config.Generator, s.registry)
	s.evaluator = warp.NewEvaluatorWithConfig(s.config.Evaluator)
	s.compositor = composite.NewWithConfig(s.config.Compositor)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Config returns the session configuration
func (s *Session) Config() Config {
	return s.config
}

// SetImage replaces the source image. It cancels any running job, drops the
// cached landmarks and confidence map and returns the new image identity.
func (s *Session) SetImage(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNoImage
	}
	b := img.Bounds()
	if b.Empty() {
		return "", fmt.Errorf("%w: empty bounds %v", ErrNoImage, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.image = imaging.Clone(img)
	s.imageID = uuid.NewString()
	s.faces = faceCache{}
	s.latest = nil
	s.masks.Invalidate()

	s.logger.Debug("image loaded", "image", s.imageID, "width", b.Dx(), "height", b.Dy())
	return s.imageID, nil
}

// Image returns the current source image and its identity
func (s *Session) Image() (*image.NRGBA, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.imageID
}

// InvalidateCache drops cached landmarks and the confidence map of the
// current image
func (s *Session) InvalidateCache() {
	s.mu.Lock()
	s.faces = faceCache{}
	s.mu.Unlock()
	s.masks.Invalidate()
}

// Latest returns the newest successful result
func (s *Session) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

// Submit starts a job for req and returns a channel that receives its result.
// Any job still running in the session is cancelled first.
func (s *Session) Submit(ctx context.Context, req Request) (<-chan Result, error) {
	if _, err := ParseEffect(string(req.Effect)); err != nil {
		return nil, err
	}
	if req.Effect == BackgroundReplace && req.Background == nil {
		return nil, ErrNoBackground
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.image == nil {
		s.mu.Unlock()
		return nil, ErrNoImage
	}
	if s.cancel != nil {
		s.cancel()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	j := job{
		id:      uuid.NewString(),
		seq:     s.seq,
		req:     req,
		img:     s.image,
		imageID: s.imageID,
	}
	s.jobs.Add(1)
	s.mu.Unlock()

	results := make(chan Result, 1)
	go func() {
		defer s.jobs.Done()
		defer cancel()
		defer close(results)

		res := s.run(jobCtx, j)
		s.finish(j, res)
		results <- res
	}()
	return results, nil
}

// Apply runs req and waits for its result
func (s *Session) Apply(ctx context.Context, req Request) (Result, error) {
	results, err := s.Submit(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return <-results, nil
}

// Cancel stops the running job, if any
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Close cancels the running job, waits for all jobs to return and releases
// the session's image and caches
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.jobs.Wait()

	s.mu.Lock()
	s.image = nil
	s.faces = faceCache{}
	s.latest = nil
	s.mu.Unlock()
	s.masks.Invalidate()

	s.logger.Debug("session closed")
	return nil
}

func (s *Session) finish(j job, res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.State != Success || j.imageID != s.imageID {
		return
	}
	if s.latest != nil && s.latestSeq() > j.seq {
		return
	}
	r := res
	s.latest = &r
}

func (s *Session) latestSeq() uint64 {
	if s.latest == nil {
		return 0
	}
	return s.latest.seq
}

// Landmarks returns the landmarks of the current image, detecting them on
// first use. Detector failures are reported; an empty slice means no face.
func (s *Session) Landmarks(ctx context.Context) ([]landmarks.Landmark, error) {
	s.mu.Lock()
	img, id := s.image, s.imageID
	s.mu.Unlock()
	if img == nil {
		return nil, ErrNoImage
	}
	return s.detect(ctx, id, img)
}

// WarpPoints returns the warp points generated for the current image
func (s *Session) WarpPoints(ctx context.Context) (warp.PointSet, error) {
	lms, err := s.Landmarks(ctx)
	if err != nil {
		return warp.PointSet{}, err
	}
	return s.generator.Generate(lms)
}

// Mask builds a mask of the given kind at the current image size
func (s *Session) Mask(ctx context.Context, kind mask.Kind) (*mask.Mask, error) {
	s.mu.Lock()
	img, id := s.image, s.imageID
	s.mu.Unlock()
	if img == nil {
		return nil, ErrNoImage
	}
	return s.buildMask(ctx, id, img, kind)
}

func (s *Session) detect(ctx context.Context, imageID string, img image.Image) ([]landmarks.Landmark, error) {
	s.mu.Lock()
	if s.faces.ok && s.faces.imageID == imageID {
		lms := s.faces.landmarks
		s.mu.Unlock()
		return lms, nil
	}
	s.mu.Unlock()

	if s.detector == nil {
		return nil, nil
	}
	lms, err := s.detector.DetectLandmarks(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect landmarks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.imageID == imageID {
		s.faces = faceCache{imageID: imageID, landmarks: lms, ok: true}
	}
	s.mu.Unlock()
	return lms, nil
}

func (s *Session) buildMask(ctx context.Context, imageID string, img *image.NRGBA, kind mask.Kind) (*mask.Mask, error) {
	cm, err := s.masks.Get(ctx, imageID, img)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSegmentation, err)
	}
	b := img.Bounds()
	return mask.BuildSized(cm, kind, s.config.Mask, b.Dx(), b.Dy())
}
