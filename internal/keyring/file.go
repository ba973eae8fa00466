package keyring

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/parlachat/client-go/internal/crypto"
)

const (
	// keystoreFormatVersion is the current on-disk blob format version.
	keystoreFormatVersion = 1
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or
	// the stored blob has been modified or corrupted.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key store")
)

// Compile-time check that FileStore implements Store
var _ Store = (*FileStore)(nil)

// FileStore persists key pairs on disk, one file per user id, with the
// private key sealed at rest under a passphrase-derived key.
type FileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir. The passphrase seals
// every private key written through this store.
func NewFileStore(dir, passphrase string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create key store dir: %w", err)
	}
	return &FileStore{dir: dir, passphrase: passphrase}, nil
}

// EnsureKeyPair implements Store. An existing key file always wins over
// generating a fresh pair.
func (s *FileStore) EnsureKeyPair(ctx context.Context, userID string) (*crypto.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kp, err := s.load(userID)
	if err == nil {
		return kp, nil
	}
	if !errors.Is(err, ErrNoLocalKey) {
		return nil, err
	}

	kp, err = crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := s.save(userID, kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// KeyPair implements Store.
func (s *FileStore) KeyPair(ctx context.Context, userID string) (*crypto.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(userID)
}

// Reset implements Store.
func (s *FileStore) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) path(userID string) string {
	// Hex-encode the user id so arbitrary identifiers cannot escape dir.
	return filepath.Join(s.dir, hex.EncodeToString([]byte(userID))+".key.enc")
}

func (s *FileStore) load(userID string) (*crypto.KeyPair, error) {
	b, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoLocalKey
	}
	if err != nil {
		return nil, err
	}

	raw, err := open(s.passphrase, b)
	if err != nil {
		return nil, err
	}

	priv, err := crypto.ImportPrivate(string(raw))
	if err != nil {
		return nil, err
	}
	return crypto.KeyPairFromPrivate(priv), nil
}

func (s *FileStore) save(userID string, kp *crypto.KeyPair) error {
	blob, err := seal(s.passphrase, []byte(crypto.ExportPrivate(kp.Private)))
	if err != nil {
		return err
	}

	// Temp file then rename so a crash never leaves a torn key file.
	path := s.path(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// blob is the on-disk JSON structure holding the ciphertext and KDF
// parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// scryptParamsDefault returns the tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

// seal derives a key from the passphrase and seals raw into a JSON blob.
func seal(passphrase string, raw []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	// Zero nonce; the salt-bound key is unique per seal.
	nonce := make([]byte, aead.NonceSize())
	ct := aead.Seal(nil, nonce, raw, salt)

	return json.Marshal(blob{
		V:      keystoreFormatVersion,
		Salt:   salt,
		N:      N,
		R:      r,
		P:      p,
		Cipher: ct,
	})
}

// open opens the JSON blob using a key derived from the passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
	}
	if bl.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported key store version %d", bl.V)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	pt, err := aead.Open(nil, nonce, bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
