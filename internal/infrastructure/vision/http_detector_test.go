package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"house-inspect/internal/domain/entity"
)

func TestHTTPDetector_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "2.5", r.FormValue("timestamp"))
		require.Equal(t, "100", r.FormValue("width"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		require.Equal(t, "jpeg-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"detections":[
			{"category":"wall_damage","description":"crack","severity":3,"confidence":0.9,
			 "boundingBox":{"x":70,"y":10,"width":5,"height":5},"repairSuggestion":"fill","estimatedCost":500},
			{"category":"roof","description":"unknown","severity":9,"confidence":1.4,"estimatedCost":10},
			{"category":"mold","description":"spot","severity":4,"confidence":0.7,
			 "boundingBox":{"x":90,"y":90,"width":0,"height":12}}
		]}`))
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, time.Second)
	problems, err := d.Detect(context.Background(), entity.Frame{
		Image: []byte("jpeg-bytes"), Width: 100, Height: 100, Timestamp: 2.5,
	})
	require.NoError(t, err)
	require.Len(t, problems, 3)

	require.Equal(t, "2.5-0", problems[0].ID)
	require.Equal(t, entity.CategoryWallDamage, problems[0].Category)
	require.Equal(t, "вверху справа", problems[0].Location)
	require.Equal(t, int64(500), problems[0].EstimatedCost)

	require.Equal(t, entity.CategoryOther, problems[1].Category)
	require.Equal(t, entity.SeverityCritical, problems[1].Severity)
	require.Equal(t, 1.0, problems[1].Confidence)
	require.Equal(t, "в кадре", problems[1].Location)

	require.Nil(t, problems[2].BoundingBox)
	require.Equal(t, "в кадре", problems[2].Location)
}

func TestHTTPDetector_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPDetector(srv.URL, time.Second).Detect(context.Background(), entity.Frame{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "model not loaded")
}
