package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/xobjconv/config"
	"github.com/mogaika/xobjconv/utils"
	"github.com/mogaika/xobjconv/utils/gltfutils"
)

func modelGLB(t *testing.T) []byte {
	doc := gltfutils.NewDocument()
	positions := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	indices := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "wing",
		Primitives: []*gltf.Primitive{{
			Indices:    &indices,
			Attributes: map[string]uint32{"POSITION": positions},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "wing", Mesh: gltf.Index(0)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	var buf bytes.Buffer
	require.NoError(t, gltfutils.ExportBinary(&buf, doc))
	return buf.Bytes()
}

func upload(t *testing.T, h http.Handler, url, field, name string, data []byte, values map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testServer(t *testing.T) http.Handler {
	s, err := NewServer(&config.Settings{Options: []string{"mark_lod"}}, utils.DiscardLogger())
	require.NoError(t, err)
	return s.Handler()
}

func TestExportAndImport(t *testing.T) {
	h := testServer(t)

	rec := upload(t, h, "/export", "model", "plane.glb", modelGLB(t), map[string]string{"options": "mark_mesh"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "plane.obj")
	text := rec.Body.String()
	assert.True(t, strings.HasPrefix(text, "I\n800\nOBJ\n"))
	assert.Contains(t, text, "# mesh wing")
	assert.Contains(t, text, "TRIS 0 3")

	rec = upload(t, h, "/import", "obj", "plane.obj", []byte(text), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		File    string `json:"file"`
		Summary struct {
			LODs []struct {
				Name    string         `json:"name"`
				Objects map[string]int `json:"objects"`
			} `json:"lods"`
		} `json:"summary"`
		Stats struct {
			Meshes int
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "plane.obj", res.File)
	assert.Equal(t, 1, res.Stats.Meshes)
	require.Len(t, res.Summary.LODs, 1)
	assert.Equal(t, 1, res.Summary.LODs[0].Objects["mesh"])
}

func TestErrors(t *testing.T) {
	h := testServer(t)

	rec := upload(t, h, "/import", "obj", "bad.obj", []byte("I\n700\nOBJ\n"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")

	rec = upload(t, h, "/export", "model", "x.glb", []byte("not a model"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, "/export", "model", "x.glb", modelGLB(t), map[string]string{"options": "no_such_option"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, "/export", "wrong", "x.glb", modelGLB(t), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptions(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res["options"], "mark_mesh")
	assert.Equal(t, []string{"mark_lod"}, res["enabled"])
}

func TestBadSettings(t *testing.T) {
	_, err := NewServer(&config.Settings{Options: []string{"bogus"}}, utils.DiscardLogger())
	assert.Error(t, err)
}
