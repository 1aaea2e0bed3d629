package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skip2/go-qrcode"

	"ms-registration/internal/utils"
)

// Payload is what gets encoded into a registration's QR image. UniqueHash
// salts the payload so two generate calls never produce identical codes.
type Payload struct {
	RegistrationID string `json:"registrationId"`
	UserID         string `json:"userId"`
	EventID        string `json:"eventId"`
	Timestamp      int64  `json:"timestamp"`
	UniqueHash     string `json:"uniqueHash"`
}

type Generator struct {
	dir string
}

func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Filename returns the deterministic artifact name for a registration.
func Filename(registrationID string) string {
	return fmt.Sprintf("qrcode-%s.png", registrationID)
}

// Generate encodes the registration payload as base64 JSON, renders it to a
// PNG under the upload directory and returns the bare filename. Callers
// compose the externally servable URL.
func (g *Generator) Generate(registrationID, userID, eventID string) (string, error) {
	payload := Payload{
		RegistrationID: registrationID,
		UserID:         userID,
		EventID:        eventID,
		Timestamp:      time.Now().Unix(),
		UniqueHash:     utils.GenerateUniqueHash(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal QR payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create QR directory: %w", err)
	}

	filename := Filename(registrationID)
	if err := qrcode.WriteFile(encoded, qrcode.Medium, 256, filepath.Join(g.dir, filename)); err != nil {
		return "", fmt.Errorf("failed to render QR image: %w", err)
	}

	return filename, nil
}

// Regenerate removes any existing artifact for the registration before
// generating a new one. Safe to call repeatedly.
func (g *Generator) Regenerate(registrationID, userID, eventID string) (string, error) {
	path := filepath.Join(g.dir, Filename(registrationID))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove old QR artifact: %w", err)
	}
	return g.Generate(registrationID, userID, eventID)
}

// Remove deletes the registration's artifact if present.
func (g *Generator) Remove(registrationID string) error {
	path := filepath.Join(g.dir, Filename(registrationID))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Validate reverses the encoding of a scanned QR string. It returns nil on
// any malformed input so callers can answer with a generic invalid-code
// message instead of leaking parse internals.
func Validate(raw string) *Payload {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}

	if payload.RegistrationID == "" || payload.UserID == "" || payload.EventID == "" {
		return nil
	}

	return &payload
}
