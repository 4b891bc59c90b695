// Package photo downloads baggage photos and renders them as terminal
// half-block art.
package photo

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

const maxPhotoBytes = 8 << 20

// Fetcher downloads photos.
type Fetcher struct {
	base *url.URL
	http *http.Client
}

// NewFetcher resolves relative photo references against base.
func NewFetcher(base string, timeout time.Duration) (*Fetcher, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return nil, fmt.Errorf("parse photo base %q: %w", base, err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// Resolve turns ref into an absolute URL.
func (f *Fetcher) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty photo reference")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse photo url %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.base == nil || f.base.Host == "" {
		return "", fmt.Errorf("relative photo url %q without base", ref)
	}
	return f.base.ResolveReference(u).String(), nil
}

// Fetch downloads and decodes the photo at ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (image.Image, error) {
	target, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("photo %s returned status %d", target, resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxPhotoBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	return img, nil
}

// Render scales img to fit cols x rows terminal cells. Each cell shows two
// vertical pixels: the upper one as foreground of "▀", the lower one as
// background.
func Render(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}
	// Terminal cells are roughly twice as tall as wide; half blocks make
	// them square.
	scaled := imaging.Fit(img, cols, rows*2, imaging.Lanczos)
	sb := scaled.Bounds()

	lines := make([]string, 0, (sb.Dy()+1)/2)
	for y := sb.Min.Y; y < sb.Max.Y; y += 2 {
		var line strings.Builder
		for x := sb.Min.X; x < sb.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hex(scaled.NRGBAAt(x, y)))
			if y+1 < sb.Max.Y {
				style = style.Background(hex(scaled.NRGBAAt(x, y+1)))
			}
			line.WriteString(style.Render("▀"))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func hex(c interface{ RGBA() (r, g, b, a uint32) }) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
