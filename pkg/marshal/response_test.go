package marshal

import (
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-inferform/pkg/model"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestParseResponse_ClassificationScores(t *testing.T) {
	schema := model.OutputSchema{
		{Name: "status", Kind: model.KindString},
		{Name: "labels", Kind: model.KindArray},
		{Name: "probabilities", Kind: model.KindArray},
	}
	m := buildMarshaller(t, nil, schema, "application/json")

	result, err := m.ParseResponse([]byte(`{"status":"ok","labels":["cat","dog"],"probabilities":[0.9,0.1]}`), http.StatusOK)
	require.NoError(t, err)
	require.Len(t, result.Values, 2)
	assert.Equal(t, "ok", result.Values[0])

	scores, ok := result.Values[1].(model.Confidences)
	require.True(t, ok, "expected confidences, got %T", result.Values[1])
	assert.Equal(t, map[string]float64{"cat": 0.9, "dog": 0.1}, scores.Map())
	assert.Equal(t, "cat", scores[0].Label)
	assert.Empty(t, result.Files)
}

func TestParseResponse_ClassificationLengthMismatch(t *testing.T) {
	schema := model.OutputSchema{{Name: "labels", Kind: model.KindArray}, {Name: "probabilities", Kind: model.KindArray}}
	m := buildMarshaller(t, nil, schema, "application/json")

	_, err := m.ParseResponse([]byte(`{"labels":["cat","dog"],"probabilities":[0.9]}`), http.StatusOK)
	require.Error(t, err)
}

func TestParseResponse_SchemaFields(t *testing.T) {
	schema := model.OutputSchema{
		{Name: "status", Kind: model.KindString},
		{Name: "flag", Kind: model.KindBoolean},
		{Name: "elapsed", Kind: model.KindNumber},
		{Name: "extra", Kind: model.KindObject},
		{Name: "missing", Kind: model.KindString},
		{Name: "preview", Kind: model.KindString, Description: "annotated image"},
	}
	m := buildMarshaller(t, nil, schema, "application/json")

	encoded := base64.StdEncoding.EncodeToString(pngHeader)
	body := `{"status":7,"flag":true,"elapsed":1.5,"extra":{"k":[1]},"preview":"` + encoded + `"}`
	result, err := m.ParseResponse([]byte(body), http.StatusOK)
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Release() })

	require.Len(t, result.Values, 6)
	assert.Equal(t, "7", result.Values[0])
	assert.Equal(t, "true", result.Values[1])
	assert.Equal(t, 1.5, result.Values[2])
	assert.Equal(t, map[string]any{"k": []any{float64(1)}}, result.Values[3])
	assert.Nil(t, result.Values[4])

	path, ok := result.Values[5].(string)
	require.True(t, ok)
	assert.Equal(t, ".png", filepath.Ext(path))
	require.Len(t, result.Files, 1)
	assert.Equal(t, path, result.Files[0].Path())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, result.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestParseResponse_ArrayOutputIsText(t *testing.T) {
	schema := model.OutputSchema{
		{Name: "boxes", Kind: model.KindArray},
		{Name: "labels", Kind: model.KindArray},
	}
	m := buildMarshaller(t, nil, schema, "application/json")

	result, err := m.ParseResponse([]byte(`{"boxes":[1,2],"labels":["cat"]}`), http.StatusOK)
	require.NoError(t, err)
	assert.Equal(t, []any{"[1,2]"}, result.Values)
}

func TestParseResponse_EmptyMediaKeepsOtherOutputs(t *testing.T) {
	schema := model.OutputSchema{
		{Name: "pic", Kind: model.KindString, Description: "result image"},
		{Name: "status", Kind: model.KindString},
	}
	m := buildMarshaller(t, nil, schema, "application/json")

	result, err := m.ParseResponse([]byte(`{"pic":"","status":"ok"}`), http.StatusOK)
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Release() })

	require.Len(t, result.Values, 2)
	assert.Equal(t, "ok", result.Values[1])
	require.Len(t, result.Files, 1)
	assert.Equal(t, int64(0), result.Files[0].Size())
	assert.Equal(t, result.Files[0].Path(), result.Values[0])
}

func TestParseResponse_SchemaAbsent(t *testing.T) {
	m := buildMarshaller(t, nil, nil, "application/json")
	assert.False(t, m.SchemaPresent())

	result, err := m.ParseResponse([]byte(`{"predictions":{"label":"cat"},"other":1}`), http.StatusOK)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"label": "cat"}}, result.Values)
}

func TestParseResponse_Errors(t *testing.T) {
	m := buildMarshaller(t, nil, model.OutputSchema{{Name: "status", Kind: model.KindString}}, "application/json")

	_, err := m.ParseResponse([]byte("boom"), http.StatusInternalServerError)
	var callErr *model.RemoteCallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, http.StatusInternalServerError, callErr.Status)
	assert.Equal(t, "boom", callErr.Body)

	_, err = m.ParseResponse([]byte(`{"status":"error","message":"model not loaded"}`), http.StatusOK)
	var logicErr *model.RemoteLogicError
	require.True(t, errors.As(err, &logicErr))
	assert.Equal(t, "model not loaded", logicErr.Message)

	_, err = m.ParseResponse([]byte(`[1,2]`), http.StatusOK)
	require.Error(t, err)

	_, err = m.ParseResponse([]byte(`null`), http.StatusOK)
	require.Error(t, err)
}

func TestParseResponse_BinaryBody(t *testing.T) {
	m := buildMarshaller(t, nil, nil, "image/png")

	body := append([]byte(nil), pngHeader...)
	result, err := m.ParseResponse(body, http.StatusOK)
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Release() })

	require.Len(t, result.Values, 1)
	path := result.Values[0].(string)
	assert.Equal(t, ".png", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestParseResponse_BinaryWildcardHasNoSuffix(t *testing.T) {
	m := buildMarshaller(t, nil, nil, "application/*")

	result, err := m.ParseResponse([]byte("opaque"), http.StatusOK)
	require.NoError(t, err)
	t.Cleanup(func() { _ = result.Release() })
	assert.Equal(t, "", filepath.Ext(result.Values[0].(string)))
}
