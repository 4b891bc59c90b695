package photo_test

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/ramops/bagdesk/internal/photo"
	"github.com/ramops/bagdesk/internal/sandbox"
)

func TestResolve(t *testing.T) {
	f, err := photo.NewFetcher("http://api.example.com/v2/", time.Second)
	require.NoError(t, err)

	got, err := f.Resolve("/photos/B1-1.png")
	require.NoError(t, err)
	require.Equal(t, "http://api.example.com/photos/B1-1.png", got)

	got, err = f.Resolve("https://cdn.example.com/x.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/x.jpg", got)

	_, err = f.Resolve("  ")
	require.Error(t, err)

	bare, err := photo.NewFetcher("", time.Second)
	require.NoError(t, err)
	_, err = bare.Resolve("/photos/a.png")
	require.Error(t, err)
}

func TestFetchFromSandbox(t *testing.T) {
	ts := httptest.NewServer(sandbox.New(sandbox.Options{}))
	t.Cleanup(ts.Close)

	f, err := photo.NewFetcher(ts.URL, time.Second)
	require.NoError(t, err)

	img, err := f.Fetch(context.Background(), "/photos/B1-1.png")
	require.NoError(t, err)
	require.Equal(t, 96, img.Bounds().Dx())
	require.Equal(t, 64, img.Bounds().Dy())
}

func TestFetchRejectsErrorsAndGarbage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("not an image"))
	}))
	t.Cleanup(ts.Close)

	f, err := photo.NewFetcher(ts.URL, time.Second)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "/missing")
	require.ErrorContains(t, err, "status 404")

	_, err = f.Fetch(context.Background(), "/garbage")
	require.ErrorContains(t, err, "decode photo")
}

func TestRenderFitsCells(t *testing.T) {
	img := imaging.New(40, 20, color.NRGBA{R: 200, A: 255})

	out := photo.Render(img, 20, 5)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	for _, line := range lines {
		require.Equal(t, 20, lipgloss.Width(line))
	}

	require.Empty(t, photo.Render(nil, 10, 10))
	require.Empty(t, photo.Render(img, 0, 10))
	require.Empty(t, photo.Render(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 10, 10))
}
