package core

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// buildBackupZip packs the database file and the uploads tree into a zip.
// Paths inside the archive are relative to the data dir so a restore is a
// plain unzip.
func (a *App) buildBackupZip() (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	addFile := func(absPath, arcName string) error {
		f, err := os.Open(absPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w, err := zw.Create(arcName)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		return err
	}

	dbPath := a.Cfg.DBPath
	if _, err := os.Stat(dbPath); err == nil {
		if err := addFile(dbPath, filepath.Base(dbPath)); err != nil {
			zw.Close()
			return nil, fmt.Errorf("archiving database: %w", err)
		}
	}

	uploadsDir := filepath.Join(a.Cfg.DataDir, "uploads")
	err := filepath.Walk(uploadsDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(a.Cfg.DataDir, p)
		if err != nil {
			return err
		}
		return addFile(p, filepath.ToSlash(rel))
	})
	if err != nil {
		zw.Close()
		return nil, fmt.Errorf("archiving uploads: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func backupFilename() string {
	return "wellatlas-backup-" + time.Now().UTC().Format("20060102-150405") + ".zip"
}

// BackupDownload streams a fresh backup archive to the admin's browser.
func (a *App) BackupDownload(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	buf, err := a.buildBackupZip()
	if err != nil {
		Errorf("building backup: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	name := backupFilename()
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	if _, err := io.Copy(w, buf); err != nil {
		Debugf("streaming backup: %v", err)
	}
	Infof("backup downloaded: %s", name)
}

func (a *App) backupS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(a.Cfg.BackupRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.Cfg.BackupAccessKey,
			a.Cfg.BackupSecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(a.Cfg.BackupEndpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// UploadBackup builds the archive and puts it in the configured bucket.
// Works against AWS S3 or any S3-compatible endpoint such as MinIO.
func (a *App) UploadBackup(ctx context.Context) (string, error) {
	if !a.Cfg.BackupConfigured() {
		return "", fmt.Errorf("cloud backup not configured")
	}
	buf, err := a.buildBackupZip()
	if err != nil {
		return "", err
	}
	client, err := a.backupS3Client(ctx)
	if err != nil {
		return "", fmt.Errorf("building s3 client: %w", err)
	}

	key := backupFilename()
	if prefix := strings.Trim(a.Cfg.BackupPrefix, "/"); prefix != "" {
		key = path.Join(prefix, key)
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.Cfg.BackupBucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String("application/zip"),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		return "", fmt.Errorf("uploading backup: %w", err)
	}
	return key, nil
}

// BackupCloud is the admin action behind the "back up now" button.
func (a *App) BackupCloud(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if !a.Cfg.BackupConfigured() {
		setFlash(w, "Cloud backup not configured. Set the BACKUP_S3_* options.")
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()
	key, err := a.UploadBackup(ctx)
	if err != nil {
		Errorf("cloud backup: %v", err)
		setFlash(w, "Cloud backup failed: "+err.Error())
		http.Redirect(w, r, "/customers", http.StatusSeeOther)
		return
	}
	Infof("backup uploaded to s3://%s/%s", a.Cfg.BackupBucket, key)
	setFlash(w, "Backup uploaded")
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}

// StartupBackup runs one cloud backup at boot when BACKUP_ON_START is set.
// Failures are logged, never fatal.
func (a *App) StartupBackup(ctx context.Context) {
	if !a.Cfg.BackupOnStart || !a.Cfg.BackupConfigured() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	key, err := a.UploadBackup(ctx)
	if err != nil {
		Errorf("startup backup: %v", err)
		return
	}
	Infof("startup backup uploaded to s3://%s/%s", a.Cfg.BackupBucket, key)
}
