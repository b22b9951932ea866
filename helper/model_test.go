package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel(t *testing.T) {
	original := ModelDir
	ModelDir = t.TempDir()
	defer func() { ModelDir = original }()

	t.Run("Return cached model path for NER model", func(t *testing.T) {
		expectedPath := filepath.Join(ModelDir, "KnightsAnalytics_distilbert-NER")
		require.NoError(t, os.MkdirAll(expectedPath, 0750), "Expected directory creation to succeed")

		path, err := PrepareModel("KnightsAnalytics/distilbert-NER", "model.onnx")
		assert.NoError(t, err, "Expected PrepareModel to not return an error for a cached model")
		assert.Equal(t, expectedPath, path, "Expected path to use the sanitized model name")
	})

	t.Run("Model name without slash is used directly", func(t *testing.T) {
		expectedPath := filepath.Join(ModelDir, "local-ner")
		require.NoError(t, os.MkdirAll(expectedPath, 0750))

		path, err := PrepareModel("local-ner", "")
		assert.NoError(t, err)
		assert.Equal(t, expectedPath, path)
	})

	t.Run("Download failure is reported", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping model download in short mode")
		}

		path, err := PrepareModel("newsgraph/this-model-does-not-exist", "model.onnx")
		if err != nil {
			assert.Contains(t, err.Error(), "failed to", "Expected error to be about download failure")
		} else {
			assert.NotEmpty(t, path)
		}
	})
}
