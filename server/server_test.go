package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/chartkit/chartvision/depth"
	"github.com/chartkit/chartvision/embedding"
	"github.com/chartkit/chartvision/onnx"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gen, err := depth.New(onnx.ModeFallback)
	require.NoError(t, err)
	t.Cleanup(gen.Close)

	emb, err := embedding.New(onnx.ModeFallback)
	require.NoError(t, err)
	t.Cleanup(emb.Close)

	return New(gen, emb).Router()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
			if x%6 == 0 {
				c = color.NRGBA{A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func upload(t *testing.T, router *gin.Engine, path string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "chart.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	router := testRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestDepthHandler(t *testing.T) {
	router := testRouter(t)
	w := upload(t, router, "/depth", testPNG(t, 40, 30))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))

	decoded, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 40, decoded.Bounds().Dx())
	require.Equal(t, 30, decoded.Bounds().Dy())
}

func TestDepthHandlerBadUpload(t *testing.T) {
	router := testRouter(t)
	w := upload(t, router, "/depth", []byte("not an image"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.NotEmpty(t, doc["error"])
}

func TestDepthHandlerNoFile(t *testing.T) {
	router := testRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/depth", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmbedHandler(t *testing.T) {
	router := testRouter(t)
	w := upload(t, router, "/embed", testPNG(t, 32, 32))
	require.Equal(t, http.StatusOK, w.Code)

	var res embedding.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, embedding.Dimensions, res.Dimensions)
	require.Len(t, res.Embedding, embedding.Dimensions)
}

func TestEmbedHandlerBadUpload(t *testing.T) {
	router := testRouter(t)
	w := upload(t, router, "/embed", []byte("still not an image"))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
