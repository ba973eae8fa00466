package parlachat

import (
	"github.com/parlachat/client-go/internal/blobstore"
	"github.com/parlachat/client-go/internal/keyexchange"
	"github.com/parlachat/client-go/internal/keyring"
)

// Collaborator interfaces, aliased so applications can provide their own
// implementations without reaching into internal packages.
type (
	// KeyStore holds the local identity's key pair.
	KeyStore = keyring.Store

	// Directory publishes and looks up public keys by identity.
	Directory = keyexchange.Directory

	// BlobStore moves sealed media bytes to and from external storage.
	BlobStore = blobstore.Store
)

// NewFileKeyStore returns a key store persisting key pairs under dir, with
// private keys sealed at rest under the passphrase.
func NewFileKeyStore(dir, passphrase string) (KeyStore, error) {
	return keyring.NewFileStore(dir, passphrase)
}

// NewHTTPDirectory returns a Directory backed by the key exchange service at
// baseURL. apiKey may be empty when the service needs no bearer token.
func NewHTTPDirectory(baseURL, apiKey string) (Directory, error) {
	return keyexchange.New(baseURL, apiKey)
}

// NewHTTPBlobStore returns a BlobStore backed by the blob service at
// baseURL.
func NewHTTPBlobStore(baseURL, apiKey string) (BlobStore, error) {
	return blobstore.New(baseURL, apiKey)
}
