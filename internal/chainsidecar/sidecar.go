package chainsidecar

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KingTimer12/saveme-config/internal/errs"
)

const nonceSize = 12

// encryptionKey derives the deterministic AES-256 key used to encrypt
// blob chain sidecars, the same SHA256("<app-secret-1>" || "<app-
// secret-2>") construction as original_source's get_encryption_key.
func encryptionKey() [32]byte {
	h := sha256.New()
	h.Write([]byte("saveme_config_blob_chain_master_key"))
	h.Write([]byte("application_specific_salt_2024"))
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

func newGCM() (cipher.AEAD, error) {
	key := encryptionKey()
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plaintext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, errs.Wrap(errs.IOError, "new gcm", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errs.Wrap(errs.IOError, "read nonce", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return append(nonce, ciphertext...), nil
}

func decrypt(encrypted []byte) ([]byte, error) {
	if len(encrypted) < nonceSize {
		return nil, errs.New(errs.IOError, "encrypted sidecar too short")
	}
	gcm, err := newGCM()
	if err != nil {
		return nil, errs.Wrap(errs.IOError, "new gcm", err)
	}

	nonce, ciphertext := encrypted[:nonceSize], encrypted[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, "gcm open", err)
	}
	return plaintext, nil
}

// Path returns the on-disk location of a snapshot's encrypted blob
// chain sidecar, per spec.md section 6.1.
func Path(storeRoot, snapshotName string) string {
	return filepath.Join(storeRoot, fmt.Sprintf("%s_blob_chain.encrypted", snapshotName))
}

// Load reads and decrypts the sidecar for snapshotName, returning a
// fresh Metadata if no sidecar file exists yet.
func Load(storeRoot, snapshotName string) (*Metadata, error) {
	path := Path(storeRoot, snapshotName)
	encrypted, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewMetadata(), nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.IOError, path, err)
	}

	plaintext, err := decrypt(encrypted)
	if err != nil {
		return nil, err
	}

	var m Metadata
	if err := json.Unmarshal(plaintext, &m); err != nil {
		return nil, errs.Wrap(errs.IOError, path, err)
	}
	return &m, nil
}

// Save serializes and encrypts m, writing it atomically (temp file +
// rename) to the sidecar path for snapshotName.
func Save(storeRoot, snapshotName string, m *Metadata) error {
	if err := os.MkdirAll(storeRoot, 0o755); err != nil {
		return errs.Wrap(errs.IOError, storeRoot, err)
	}

	plaintext, err := json.Marshal(m)
	if err != nil {
		return errs.Wrap(errs.IOError, "marshal sidecar", err)
	}
	encrypted, err := encrypt(plaintext)
	if err != nil {
		return err
	}

	path := Path(storeRoot, snapshotName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encrypted, 0o600); err != nil {
		return errs.Wrap(errs.IOError, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.IOError, path, err)
	}
	return nil
}
