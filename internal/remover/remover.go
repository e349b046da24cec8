// Package remover runs the background-removal model: it segments the
// foreground of an image and returns the original with the background
// turned transparent.
package remover

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/bgcut/bgcut/internal/model"
)

// ProgressFunc is invoked with a phase key and the phase's fractional
// completion expressed as current/total units.
type ProgressFunc func(phase string, current, total int)

// Remover removes the background from an image according to the options.
type Remover interface {
	Remove(ctx context.Context, img image.Image, opts model.Options, onProgress ProgressFunc) (image.Image, error)
}

// tierSpec maps a quality tier to its model file and square input size.
type tierSpec struct {
	file string
	size int
}

var tiers = map[string]tierSpec{
	model.TierFast:    {file: "segmenter-fast.onnx", size: 320},
	model.TierQuality: {file: "segmenter-quality.onnx", size: 1024},
}

// Config locates the model assets and the onnxruntime shared library.
type Config struct {
	ModelsDir   string
	LibraryPath string
}

// session owns the per-tier ONNX session and its bound tensors.
type session struct {
	sess   *ort.AdvancedSession
	input  *ort.Tensor[float32]
	output *ort.Tensor[float32]
	size   int
}

// ONNXRemover drives a segmentation model through onnxruntime. The runtime
// environment is initialized lazily exactly once; per-tier sessions are
// created on first use and reused afterwards. Remove is called from a
// single goroutine (the job consumer), so sessions are never run
// concurrently.
type ONNXRemover struct {
	cfg Config

	envOnce  sync.Once
	envErr   error
	envReady bool

	mu       sync.Mutex
	sessions map[string]*session
}

func NewONNXRemover(cfg Config) *ONNXRemover {
	return &ONNXRemover{
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Ready forces the one-shot environment initialization. The pipeline calls
// it on the first job so model-load failures surface as a distinct phase.
func (r *ONNXRemover) Ready() error {
	r.envOnce.Do(func() {
		if r.cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(r.cfg.LibraryPath)
		}
		r.envErr = ort.InitializeEnvironment()
		r.envReady = r.envErr == nil
	})

	return r.envErr
}

// sessionFor returns the memoized session for a tier, creating it on first use.
func (r *ONNXRemover) sessionFor(tier string) (*session, error) {
	spec, ok := tiers[tier]
	if !ok {
		return nil, fmt.Errorf("unknown quality tier: %q", tier)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[tier]; ok {
		return s, nil
	}

	inputShape := ort.NewShape(1, 3, int64(spec.size), int64(spec.size))
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, 1, int64(spec.size), int64(spec.size))
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	sess, err := ort.NewAdvancedSession(
		filepath.Join(r.cfg.ModelsDir, spec.file),
		[]string{"input"},
		[]string{"output"},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}

	s := &session{sess: sess, input: input, output: output, size: spec.size}
	r.sessions[tier] = s

	return s, nil
}

// Remove segments the foreground and applies the mask as the image's alpha
// channel. Once inference starts it runs to completion or failure; there is
// no cancellation point inside the model call.
func (r *ONNXRemover) Remove(ctx context.Context, img image.Image, opts model.Options, onProgress ProgressFunc) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.Ready(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	s, err := r.sessionFor(opts.Tier)
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress("inference", 0, 2)
	}

	fillInputTensor(img, s.input.GetData(), s.size)

	if onProgress != nil {
		onProgress("inference", 1, 2)
	}

	if err := s.sess.Run(); err != nil {
		return nil, fmt.Errorf("run segmentation model: %w", err)
	}

	if onProgress != nil {
		onProgress("inference", 2, 2)
	}

	mask := maskImage(s.output.GetData(), s.size)
	cutout := applyMask(img, mask)

	if onProgress != nil {
		onProgress("compositing", 1, 1)
	}

	return cutout, nil
}

// Close releases sessions, tensors and the runtime environment.
func (r *ONNXRemover) Close() {
	r.mu.Lock()
	for tier, s := range r.sessions {
		s.input.Destroy()
		s.output.Destroy()
		s.sess.Destroy()
		delete(r.sessions, tier)
	}
	r.mu.Unlock()

	if r.envReady {
		ort.DestroyEnvironment()
	}
}
