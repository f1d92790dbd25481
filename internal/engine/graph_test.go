package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mysticBliss/doc-intelligence/internal/config"
)

func TestBuildGraphLevels(t *testing.T) {
	nodes := []config.Node{
		{ID: "extract", Processor: "pdf_extractor"},
		{ID: "ocr", Processor: "ocr_processor", Dependencies: []string{"preprocess"}},
		{ID: "preprocess", Processor: "image_preprocessor", Dependencies: []string{"extract"}},
		{ID: "vlm", Processor: "vlm_processor", Dependencies: []string{"preprocess"}},
		{ID: "classify", Processor: "classifier_processor", Dependencies: []string{"ocr"}},
	}

	g, err := BuildGraph(nodes)
	require.NoError(t, err)

	require.Equal(t, [][]string{
		{"extract"},
		{"preprocess"},
		{"ocr", "vlm"},
		{"classify"},
	}, g.Levels())
}

func TestBuildGraphLevelsAreSorted(t *testing.T) {
	nodes := []config.Node{
		{ID: "zeta", Processor: "sentiment_processor"},
		{ID: "alpha", Processor: "sentiment_processor"},
		{ID: "mid", Processor: "sentiment_processor"},
	}

	g, err := BuildGraph(nodes)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"alpha", "mid", "zeta"}}, g.Levels())
}

func TestBuildGraphRejectsDuplicates(t *testing.T) {
	_, err := BuildGraph([]config.Node{
		{ID: "a", Processor: "p"},
		{ID: "a", Processor: "p"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate node id")
}

func TestBuildGraphRejectsUnknownDependency(t *testing.T) {
	_, err := BuildGraph([]config.Node{
		{ID: "a", Processor: "p", Dependencies: []string{"ghost"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown node")
}

func TestBuildGraphRejectsCycle(t *testing.T) {
	_, err := BuildGraph([]config.Node{
		{ID: "a", Processor: "p", Dependencies: []string{"b"}},
		{ID: "b", Processor: "p", Dependencies: []string{"a"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}
