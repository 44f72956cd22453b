package core

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/hsuden/wellatlas/cnf"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"pump curve.pdf":        "pump_curve.pdf",
		"../../etc/passwd":      "passwd",
		"wéll lög.png":          "wll_lg.png",
		"CLEAN-name_01.jpg":     "CLEAN-name_01.jpg",
		"semi;colon|pipe.mp4":   "semicolonpipe.mp4",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtensionForMime(t *testing.T) {
	cases := map[string]string{
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/gif":       ".gif",
		"application/pdf": ".pdf",
		"video/mp4":       ".mp4",
		"video/quicktime": ".mov",
		"text/html":       "",
	}
	for in, want := range cases {
		if got := extensionForMime(in); got != want {
			t.Errorf("extensionForMime(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUploadPathLayout(t *testing.T) {
	a := &App{Cfg: cnf.AppConfig{DataDir: "/var/wellatlas"}}
	got := a.uploadPath(42, "abc.pdf")
	want := filepath.Join("/var/wellatlas", "uploads", "42", "abc.pdf")
	if got != want {
		t.Errorf("uploadPath = %q, want %q", got, want)
	}
	thumb := a.thumbPath(42, "abc.png")
	wantThumb := filepath.Join("/var/wellatlas", "uploads", "42", "thumbs", "abc.png.jpg")
	if thumb != wantThumb {
		t.Errorf("thumbPath = %q, want %q", thumb, wantThumb)
	}
}

func TestUploadConfigDefaults(t *testing.T) {
	a := &App{Cfg: cnf.AppConfig{DataDir: "./data", UploadMaxMB: 50}}
	cfg := a.uploadConfig()
	if cfg.MaxUploadBytes != 50*1024*1024 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if !cfg.AllowedMimes["application/pdf"] || !cfg.AllowedMimes["image/png"] {
		t.Error("default allowlist should include pdf and png")
	}
	if cfg.AllowedMimes["text/html"] {
		t.Error("html should not be allowed")
	}
}

func TestUploadConfigCustomAllowlist(t *testing.T) {
	a := &App{Cfg: cnf.AppConfig{DataDir: "./data", UploadAllowedMime: "image/png, image/jpeg"}}
	cfg := a.uploadConfig()
	if !cfg.AllowedMimes["image/png"] {
		t.Error("configured type missing")
	}
	if cfg.AllowedMimes["application/pdf"] {
		t.Error("pdf should be excluded by the custom allowlist")
	}
}

func TestResizeToMax(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	small := resizeToMax(img, 320)
	b := small.Bounds()
	if b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("resized to %dx%d, want 320x240", b.Dx(), b.Dy())
	}

	tall := image.NewRGBA(image.Rect(0, 0, 200, 800))
	smallTall := resizeToMax(tall, 400)
	b = smallTall.Bounds()
	if b.Dy() != 400 {
		t.Errorf("tall image height = %d, want 400", b.Dy())
	}

	tiny := image.NewRGBA(image.Rect(0, 0, 100, 80))
	if resizeToMax(tiny, 320) != tiny {
		t.Error("images under the limit should be returned unchanged")
	}
}
