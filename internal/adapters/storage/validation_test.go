package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	svc := &MinIOService{maxFileSize: 1 << 20}

	allowed := []string{
		"image/jpeg",
		"IMAGE/PNG",
		"image/jpeg; charset=binary",
		"application/pdf",
		"video/mp4",
		"application/zip",
	}
	for _, contentType := range allowed {
		if err := svc.ValidateContentType(contentType); err != nil {
			t.Fatalf("expected %q to be allowed: %v", contentType, err)
		}
	}

	denied := []string{
		"application/x-msdownload",
		"text/html",
		"",
		"image/jpeg/../evil",
	}
	for _, contentType := range denied {
		if err := svc.ValidateContentType(contentType); err == nil {
			t.Fatalf("expected %q to be rejected", contentType)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	svc := &MinIOService{maxFileSize: 1024}

	if err := svc.ValidateFileSize(1024); err != nil {
		t.Fatalf("size at the limit must be allowed: %v", err)
	}
	if err := svc.ValidateFileSize(1025); err == nil {
		t.Fatalf("size over the limit must be rejected")
	}
	if err := svc.ValidateFileSize(0); err == nil {
		t.Fatalf("zero size must be rejected")
	}
	if err := svc.ValidateFileSize(-1); err == nil {
		t.Fatalf("negative size must be rejected")
	}
}

func TestContentTypeClassifiers(t *testing.T) {
	if !IsImageContentType("image/webp") || IsImageContentType("video/mp4") {
		t.Fatalf("image classifier is wrong")
	}
	if !IsVideoContentType("video/quicktime") || IsVideoContentType("audio/mpeg") {
		t.Fatalf("video classifier is wrong")
	}
	if !IsPDFContentType("application/pdf") || IsPDFContentType("application/zip") {
		t.Fatalf("pdf classifier is wrong")
	}
	if !IsArchiveContentType("application/x-tar") || IsArchiveContentType("application/pdf") {
		t.Fatalf("archive classifier is wrong")
	}
	if !IsArchiveContentType("application/zip; name=x.zip") {
		t.Fatalf("archive classifier must ignore content type parameters")
	}
}
