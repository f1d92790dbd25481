package procset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

func TestRegisterPopulatesCatalog(t *testing.T) {
	reg := processor.NewRegistry(logger.Discard())
	require.NoError(t, Register(reg, Backends{}))

	require.Equal(t, []string{
		"classifier_processor",
		"enhanced_pdf_processor",
		"image_preprocessor",
		"ocr_processor",
		"pdf_extractor",
		"sentiment_processor",
		"vlm_processor",
	}, reg.Names())
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := processor.NewRegistry(logger.Discard())
	require.NoError(t, Register(reg, Backends{}))
	require.Error(t, Register(reg, Backends{}))
}

func TestCreateBackendlessProcessor(t *testing.T) {
	reg := processor.NewRegistry(logger.Discard())
	require.NoError(t, Register(reg, Backends{}))

	// Processors without external backends construct fine.
	proc, err := reg.Create("sentiment_processor", nil)
	require.NoError(t, err)
	require.Equal(t, "sentiment_processor", proc.Name())

	// Backend-bound processors fail fast when the backend is absent.
	_, err = reg.Create("ocr_processor", nil)
	require.Error(t, err)
}
