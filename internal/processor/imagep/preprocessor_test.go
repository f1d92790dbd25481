package imagep

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mysticBliss/doc-intelligence/internal/logger"
	"github.com/mysticBliss/doc-intelligence/internal/payload"
	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

func testImagePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.White)
		}
	}
	// A dark band so binarize and cropping have content to work with.
	for y := 10; y < 14; y++ {
		for x := 4; x < 28; x++ {
			img.Set(x, y, color.Black)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func stepsParam(names ...string) processor.Params {
	blocks := make([]any, 0, len(names))
	for _, name := range names {
		blocks = append(blocks, map[string]any{"name": name})
	}
	return processor.Params{"steps": blocks}
}

func TestNewRejectsBadConfigs(t *testing.T) {
	_, err := New(processor.Params{}, logger.Discard())
	require.Error(t, err)

	_, err = New(processor.Params{"steps": []any{map[string]any{}}}, logger.Discard())
	require.Error(t, err)

	_, err = New(stepsParam("sharpen_harder"), logger.Discard())
	require.Error(t, err)
	require.Contains(t, err.Error(), "available:")

	_, err = New(processor.Params{"steps": "to_grayscale"}, logger.Discard())
	require.Error(t, err)
}

func TestExecuteAppliesChainAndRecordsTrail(t *testing.T) {
	p, err := New(stepsParam("to_grayscale", "binarize"), logger.Discard())
	require.NoError(t, err)

	res, err := p.Execute(context.Background(), payload.Payload{
		FileName:    "page.png",
		FileContent: testImagePNG(t),
	})
	require.NoError(t, err)
	require.Equal(t, payload.StatusSuccess, res.Status)

	data, ok := res.ImageData()
	require.True(t, ok)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "output must be a decodable PNG")

	trail, ok := res.Structured[KeySteps].([]SubStep)
	require.True(t, ok)
	require.Len(t, trail, 2)
	require.Equal(t, "to_grayscale", trail[0].Name)
	require.Equal(t, "binarize", trail[1].Name)
	for _, st := range trail {
		require.NotEmpty(t, st.InputHash)
		require.NotEmpty(t, st.OutputHash)
	}
	// Grayscaling a colored band changes the pixels.
	require.NotEqual(t, trail[0].InputHash, trail[0].OutputHash)
	// The trail is chained: each step starts from the previous output.
	require.Equal(t, trail[0].OutputHash, trail[1].InputHash)
}

func TestExecuteEveryOperation(t *testing.T) {
	content := testImagePNG(t)
	for _, name := range opNames() {
		t.Run(name, func(t *testing.T) {
			p, err := New(stepsParam(name), logger.Discard())
			require.NoError(t, err)

			res, err := p.Execute(context.Background(), payload.Payload{FileContent: content})
			require.NoError(t, err)
			require.Equal(t, payload.StatusSuccess, res.Status)

			data, ok := res.ImageData()
			require.True(t, ok)
			require.NotEmpty(t, data)
		})
	}
}

func TestExecuteValidatesOperationParams(t *testing.T) {
	p, err := New(processor.Params{"steps": []any{
		map[string]any{"name": "binarize", "params": map[string]any{"threshold": float64(900)}},
	}}, logger.Discard())
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), payload.Payload{FileContent: testImagePNG(t)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "threshold")
}

func TestExecuteRejectsNonImageContent(t *testing.T) {
	p, err := New(stepsParam("to_grayscale"), logger.Discard())
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), payload.Payload{FileContent: []byte("not an image")})
	require.Error(t, err)

	_, err = p.Execute(context.Background(), payload.Payload{})
	require.Error(t, err)
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	p, err := New(stepsParam("to_grayscale"), logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Execute(ctx, payload.Payload{FileContent: testImagePNG(t)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestToGrayConvertsColorImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	gray := toGray(img)
	require.Equal(t, img.Bounds(), gray.Bounds())
	y := gray.GrayAt(1, 1).Y
	require.Greater(t, y, uint8(0))
	require.Less(t, y, uint8(255))

	// An image that already is grayscale passes through unchanged.
	require.Same(t, gray, toGray(gray))
}

func TestDeskewLeavesStraightPageAlone(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.White)
		}
	}
	for y := 30; y < 34; y++ {
		for x := 4; x < 60; x++ {
			img.Set(x, y, color.Black)
		}
	}

	out, err := deskew(img, nil)
	require.NoError(t, err)
	// A horizontal band already maximises the row profile at zero degrees.
	require.Equal(t, img.Bounds(), out.Bounds())
	require.Same(t, image.Image(img), out)
}

func TestCropToContentFindsDarkRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(20, 20, color.Black)

	out, err := cropToContent(img, processor.Params{"margin": float64(2)})
	require.NoError(t, err)
	require.Equal(t, 5, out.Bounds().Dx())
	require.Equal(t, 5, out.Bounds().Dy())
}

func TestCropToContentBlankPageUntouched(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.White)
		}
	}

	out, err := cropToContent(img, nil)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), out.Bounds())
}
