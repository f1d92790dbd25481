// Package imagep implements the image_preprocessor processor: a configurable
// chain of raster operations (grayscale, binarize, denoise, morphology,
// deskew and friends) applied to a page image before recognition. Every
// operation in the chain is timed and hashed individually.
package imagep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	_ "image/jpeg"

	_ "golang.org/x/image/tiff"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

// Name is the registry name of this processor.
const Name = "image_preprocessor"

// KeySteps is the structured-output key carrying the sub-step trail.
const KeySteps = "steps"

type step struct {
	name   string
	params processor.Params
}

// Preprocessor applies a configured chain of image operations.
type Preprocessor struct {
	log   *logger.Logger
	steps []step
}

// New validates the configured step chain and constructs the preprocessor.
// Every entry needs a known operation name; unknown names are rejected at
// pipeline load time rather than mid-run.
func New(params processor.Params, log *logger.Logger) (*Preprocessor, error) {
	blocks, err := params.MapSlice(KeySteps)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("steps must list at least one operation")
	}

	steps := make([]step, 0, len(blocks))
	for i, block := range blocks {
		name := block.String("name", "")
		if name == "" {
			return nil, fmt.Errorf("steps[%d] is missing a name", i)
		}
		if _, ok := ops[name]; !ok {
			return nil, fmt.Errorf("unknown preprocessing step %q, available: %s", name, strings.Join(opNames(), ", "))
		}
		steps = append(steps, step{name: name, params: block.Map("params")})
	}

	return &Preprocessor{log: log, steps: steps}, nil
}

// Name implements processor.Processor.
func (p *Preprocessor) Name() string { return Name }

// Execute decodes the payload image, runs each configured operation in order
// and emits the final image as PNG along with the per-operation trail.
func (p *Preprocessor) Execute(ctx context.Context, pl payload.Payload) (payload.Result, error) {
	if len(pl.FileContent) == 0 {
		return payload.Result{}, fmt.Errorf("input payload must carry image content for preprocessing")
	}

	img, _, err := image.Decode(bytes.NewReader(pl.FileContent))
	if err != nil {
		return payload.Result{}, fmt.Errorf("decode image: %w", err)
	}

	trail := make([]SubStep, 0, len(p.steps))
	for _, st := range p.steps {
		if err := ctx.Err(); err != nil {
			return payload.Result{}, err
		}

		started := time.Now()
		inputHash := hashImage(img)
		next, err := ops[st.name](img, st.params)
		if err != nil {
			return payload.Result{}, fmt.Errorf("%s: %w", st.name, err)
		}
		elapsed := time.Since(started)
		outputHash := hashImage(next)

		trail = append(trail, SubStep{
			Name:       st.name,
			Params:     st.params,
			InputHash:  inputHash,
			OutputHash: outputHash,
			DurationMS: elapsed.Milliseconds(),
		})
		p.log.WithFields(map[string]any{
			"step":        st.name,
			"input_hash":  inputHash,
			"output_hash": outputHash,
		}).Timed("preprocess.step", elapsed)

		img = next
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return payload.Result{}, fmt.Errorf("encode preprocessed image: %w", err)
	}

	return payload.Success(Name, fmt.Sprintf("applied %d preprocessing steps", len(trail)), map[string]any{
		payload.KeyImageData: buf.Bytes(),
		KeySteps:             trail,
	}), nil
}
