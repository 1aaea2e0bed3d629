package qr_test

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ms-registration/internal/qr"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	gen := qr.NewGenerator(dir)

	filename, err := gen.Generate("reg1", "user1", "event1")
	assert.NoError(t, err)
	assert.Equal(t, "qrcode-reg1.png", filename)

	// The artifact lands on disk under the deterministic name.
	info, err := os.Stat(filepath.Join(dir, filename))
	assert.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGenerate_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "qrcodes")
	gen := qr.NewGenerator(dir)

	filename, err := gen.Generate("reg1", "user1", "event1")
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, filename))
	assert.NoError(t, err)
}

func TestRegenerate(t *testing.T) {
	dir := t.TempDir()
	gen := qr.NewGenerator(dir)

	first, err := gen.Generate("reg1", "user1", "event1")
	assert.NoError(t, err)

	// Regenerating replaces the artifact under the same name. It also works
	// when no artifact exists yet.
	second, err := gen.Regenerate("reg1", "user1", "event1")
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	third, err := gen.Regenerate("reg2", "user1", "event1")
	assert.NoError(t, err)
	assert.Equal(t, "qrcode-reg2.png", third)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	gen := qr.NewGenerator(dir)

	filename, err := gen.Generate("reg1", "user1", "event1")
	assert.NoError(t, err)

	err = gen.Remove("reg1")
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, filename))
	assert.True(t, os.IsNotExist(err))

	// Removing a missing artifact is not an error.
	err = gen.Remove("reg1")
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	payload := qr.Payload{
		RegistrationID: "reg1",
		UserID:         "user1",
		EventID:        "event1",
		Timestamp:      time.Now().Unix(),
		UniqueHash:     "hash123",
	}
	data, err := json.Marshal(payload)
	assert.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(data)

	decoded := qr.Validate(encoded)
	assert.NotNil(t, decoded)
	assert.Equal(t, "reg1", decoded.RegistrationID)
	assert.Equal(t, "user1", decoded.UserID)
	assert.Equal(t, "event1", decoded.EventID)
}

func TestValidate_MalformedInput(t *testing.T) {
	// Not base64 at all.
	assert.Nil(t, qr.Validate("!!not-base64!!"))

	// Base64, but not JSON.
	assert.Nil(t, qr.Validate(base64.StdEncoding.EncodeToString([]byte("hello"))))

	// Valid JSON missing required fields.
	empty, _ := json.Marshal(qr.Payload{Timestamp: time.Now().Unix()})
	assert.Nil(t, qr.Validate(base64.StdEncoding.EncodeToString(empty)))
}
