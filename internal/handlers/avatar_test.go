package handlers

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/davidkych/cursus-backend/internal/models"
)

func TestCheckAvatarUploadPlainUserForbidden(t *testing.T) {
	user := &models.User{}
	status, _ := checkAvatarUpload(user, 1024, "image/png")
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for plain user, got %d", status)
	}
}

func TestCheckAvatarUploadPremiumRules(t *testing.T) {
	user := &models.User{IsPremiumMember: true}

	if status, _ := checkAvatarUpload(user, 1024, "image/png"); status != 0 {
		t.Fatalf("expected small PNG to pass, got %d", status)
	}
	if status, _ := checkAvatarUpload(user, 1024, "image/jpeg"); status != 0 {
		t.Fatalf("expected small JPEG to pass, got %d", status)
	}

	if status, _ := checkAvatarUpload(user, maxAvatarBytes+1, "image/png"); status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for oversize upload, got %d", status)
	}
	if status, _ := checkAvatarUpload(user, 1024, "image/gif"); status != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 for GIF, got %d", status)
	}
}

func TestCheckAvatarUploadAdminUnrestricted(t *testing.T) {
	user := &models.User{IsAdmin: true}

	if status, _ := checkAvatarUpload(user, maxAvatarBytes*10, "image/gif"); status != 0 {
		t.Fatalf("expected admin upload to pass regardless of type and size, got %d", status)
	}
}

func TestReadAvatarUploadAdminKeepsFullBody(t *testing.T) {
	body := bytes.Repeat([]byte{0xAB}, maxAvatarBytes*3)

	data, err := readAvatarUpload(&models.User{IsAdmin: true}, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("readAvatarUpload returned error: %v", err)
	}
	if len(data) != len(body) {
		t.Fatalf("expected admin read of %d bytes, got %d", len(body), len(data))
	}
	if !bytes.Equal(data, body) {
		t.Fatal("admin upload bytes were altered")
	}
}

func TestReadAvatarUploadNonAdminOverageIsRejectable(t *testing.T) {
	body := bytes.Repeat([]byte{0xCD}, maxAvatarBytes+5000)

	user := &models.User{IsPremiumMember: true}
	data, err := readAvatarUpload(user, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("readAvatarUpload returned error: %v", err)
	}
	if len(data) != maxAvatarBytes+1 {
		t.Fatalf("expected read to stop at cap+1, got %d bytes", len(data))
	}

	// The byte count handed to the gate reflects the overage, so the upload
	// is refused rather than stored truncated.
	if status, _ := checkAvatarUpload(user, int64(len(data)), "image/png"); status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 after capped read, got %d", status)
	}
}
