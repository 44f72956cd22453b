package core

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/google/uuid"
	"github.com/hsuden/wellatlas/db"
)

const (
	uploadDefaultMaxMB = 200
	thumbMaxSize       = 320
)

var defaultUploadMimes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"application/pdf",
	"video/mp4",
	"video/quicktime",
}

type uploadConfig struct {
	Root           string
	MaxUploadMB    int
	MaxUploadBytes int64
	AllowedMimes   map[string]bool
}

func (a *App) uploadConfig() uploadConfig {
	cfg := uploadConfig{}
	cfg.Root = filepath.Join(a.Cfg.DataDir, "uploads")

	cfg.MaxUploadMB = a.Cfg.UploadMaxMB
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = uploadDefaultMaxMB
	}
	cfg.MaxUploadBytes = int64(cfg.MaxUploadMB) * 1024 * 1024

	list := defaultUploadMimes
	if csv := strings.TrimSpace(a.Cfg.UploadAllowedMime); csv != "" {
		parts := strings.Split(csv, ",")
		parsed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				parsed = append(parsed, p)
			}
		}
		if len(parsed) > 0 {
			list = parsed
		}
	}
	cfg.AllowedMimes = make(map[string]bool, len(list))
	for _, v := range list {
		cfg.AllowedMimes[strings.ToLower(v)] = true
	}
	return cfg
}

func (a *App) maxUploadBytes() int64 {
	return a.uploadConfig().MaxUploadBytes
}

// uploadPath is the on-disk location for a stored attachment.
func (a *App) uploadPath(entryID int, storedName string) string {
	return filepath.Join(a.Cfg.DataDir, "uploads", strconv.Itoa(entryID), storedName)
}

func (a *App) thumbPath(entryID int, storedName string) string {
	return filepath.Join(a.Cfg.DataDir, "uploads", strconv.Itoa(entryID), "thumbs", storedName+".jpg")
}

// removeAttachmentFiles deletes the stored file and its cached thumbnail.
// Missing files are fine; anything else is logged and swallowed so a delete
// never fails halfway.
func (a *App) removeAttachmentFiles(entryID int, storedName string) {
	if err := os.Remove(a.uploadPath(entryID, storedName)); err != nil && !os.IsNotExist(err) {
		Errorf("removing attachment file %s: %v", storedName, err)
	}
	if err := os.Remove(a.thumbPath(entryID, storedName)); err != nil && !os.IsNotExist(err) {
		Errorf("removing attachment thumbnail %s: %v", storedName, err)
	}
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

func extensionForMime(m string) string {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "application/pdf":
		return ".pdf"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	default:
		return ""
	}
}

// storeUpload sniffs the content type, checks it against the allowlist and
// writes the file under uploads/<entry_id>/<uuid><ext>, then records the
// attachment row. The stored name never comes from the client.
func (a *App) storeUpload(entryID int, header *multipart.FileHeader) error {
	cfg := a.uploadConfig()
	if header == nil || header.Size <= 0 {
		return errors.New("empty file")
	}
	if cfg.MaxUploadBytes > 0 && header.Size > cfg.MaxUploadBytes {
		return fmt.Errorf("file too large: %d", header.Size)
	}

	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	sniff = sniff[:n]
	detected := http.DetectContentType(sniff)
	if parsed, _, err := mime.ParseMediaType(detected); err == nil {
		detected = parsed
	}
	detected = strings.ToLower(strings.TrimSpace(detected))
	// PDFs and MOVs sniff as application/octet-stream in some cases, so
	// fall back to the declared extension before rejecting.
	if !cfg.AllowedMimes[detected] {
		byExt := strings.ToLower(mime.TypeByExtension(filepath.Ext(header.Filename)))
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			byExt = parsed
		}
		if !cfg.AllowedMimes[byExt] {
			return fmt.Errorf("type not allowed: %s", detected)
		}
		detected = byExt
	}

	ext := extensionForMime(detected)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(sanitizeFilename(header.Filename)))
	}
	storedName := uuid.NewString() + ext
	absPath := a.uploadPath(entryID, storedName)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return err
	}

	dest, err := os.Create(absPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	reader := io.MultiReader(bytes.NewReader(sniff), file)
	if _, err := io.Copy(dest, reader); err != nil {
		_ = os.Remove(absPath)
		return err
	}

	origName := sanitizeFilename(header.Filename)
	if origName == "" {
		origName = "upload" + ext
	}
	att := &db.Attachment{
		EntryID:    entryID,
		StoredName: storedName,
		OrigName:   origName,
		Mime:       detected,
	}
	if _, err := a.DB.InsertAttachment(att); err != nil {
		_ = os.Remove(absPath)
		return err
	}
	return nil
}

// ensureThumbnail builds the cached JPEG thumbnail on first request.
// Non-image attachments have no thumbnail.
func (a *App) ensureThumbnail(entryID int, att *db.Attachment) (string, error) {
	if !strings.HasPrefix(att.Mime, "image/") {
		return "", errors.New("not an image")
	}
	thumbAbs := a.thumbPath(entryID, att.StoredName)
	if _, err := os.Stat(thumbAbs); err == nil {
		return thumbAbs, nil
	}

	f, err := os.Open(a.uploadPath(entryID, att.StoredName))
	if err != nil {
		return "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(thumbAbs), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(thumbAbs)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, resizeToMax(img, thumbMaxSize), &jpeg.Options{Quality: 82}); err != nil {
		_ = os.Remove(thumbAbs)
		return "", err
	}
	return thumbAbs, nil
}

func resizeToMax(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(width)
	if height > width {
		scale = float64(maxDim) / float64(height)
	}
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth <= 0 {
		newWidth = 1
	}
	if newHeight <= 0 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		srcY := bounds.Min.Y + int(float64(y)*float64(height)/float64(newHeight))
		for x := 0; x < newWidth; x++ {
			srcX := bounds.Min.X + int(float64(x)*float64(width)/float64(newWidth))
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst
}

// serveAttachmentFile streams the original file, or its thumbnail when
// thumb=1 and the attachment is an image.
func (a *App) serveAttachmentFile(w http.ResponseWriter, r *http.Request, att *db.Attachment) {
	if r.URL.Query().Get("thumb") == "1" {
		if thumbAbs, err := a.ensureThumbnail(att.EntryID, att); err == nil {
			http.ServeFile(w, r, thumbAbs)
			return
		}
	}
	absPath := a.uploadPath(att.EntryID, att.StoredName)
	if _, err := os.Stat(absPath); err != nil {
		renderNotFound(w, "file")
		return
	}
	if att.Mime != "" {
		w.Header().Set("Content-Type", att.Mime)
	}
	w.Header().Set("Content-Disposition", "inline; filename=\""+att.OrigName+"\"")
	http.ServeFile(w, r, absPath)
}

// ServeUpload hands an attachment to its owner.
func (a *App) ServeUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "file")
		return
	}
	att, err := a.DB.GetAttachment(id)
	if err != nil {
		renderNotFound(w, "file")
		return
	}
	if _, err := a.DB.GetEntry(att.EntryID, user.ID); err != nil {
		renderNotFound(w, "file")
		return
	}
	a.serveAttachmentFile(w, r, att)
}
