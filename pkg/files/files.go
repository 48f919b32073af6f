// Package files implements Pod's content-addressed, authenticated-encryption
// blob store: every blob lives at <files_root>/<owner>/final/<sha256_hex>,
// encrypted at rest with a per-blob random key and nonce bound to the owning
// item's key/nonce string properties.
package files

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/cryptoutil"
	"github.com/memri/pod/pkg/store"
)

// Store is a local-disk blob store rooted at basePath, laid out one
// directory per owner under its own base path.
type Store struct {
	basePath string
}

// NewStore creates basePath if absent and returns a Store rooted there.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to create files root", err)
	}
	return &Store{basePath: basePath}, nil
}

// finalPath returns the on-disk path for a given owner's blob identified by
// its (already hex-encoded, lowercase) SHA-256.
func (s *Store) finalPath(owner, sha256Hex string) string {
	return filepath.Join(s.basePath, owner, "final", sha256Hex)
}

// Upload stores body under owner's blob directory, keyed by its expected
// SHA-256, encrypting it at rest.
func (s *Store) Upload(st *store.SQLStore, owner, expectedSha256 string, body []byte) error {
	path := s.finalPath(owner, expectedSha256)
	if _, err := os.Stat(path); err == nil {
		return apierr.Newf(apierr.Conflict, "file %s already exists", expectedSha256)
	}

	actual := cryptoutil.SHA256Hex(body)
	if actual != expectedSha256 {
		return apierr.Newf(apierr.BadRequest, "uploaded body hashes to %s, expected %s", actual, expectedSha256)
	}

	rowids, err := st.SearchStrings("sha256", expectedSha256)
	if err != nil {
		return err
	}
	if len(rowids) == 0 {
		return apierr.Newf(apierr.NotFound, "no item declares sha256 %s", expectedSha256)
	}

	key, err := cryptoutil.GenerateKey()
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to generate file key", err)
	}
	nonce, err := cryptoutil.GenerateNonce()
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to generate file nonce", err)
	}
	ciphertext, err := cryptoutil.Encrypt(key, nonce, body)
	if err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to encrypt file", err)
	}

	for _, rowid := range rowids {
		if err := st.InsertString(rowid, "key", hex.EncodeToString(key)); err != nil {
			return err
		}
		if err := st.InsertString(rowid, "nonce", hex.EncodeToString(nonce)); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to create owner files directory", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return apierr.Newf(apierr.Conflict, "file %s already exists", expectedSha256)
		}
		return apierr.Wrap(apierr.InternalServerError, "failed to create file", err)
	}
	defer f.Close()
	if _, err := f.Write(ciphertext); err != nil {
		return apierr.Wrap(apierr.InternalServerError, "failed to write file", err)
	}
	return nil
}

// Get decrypts and returns the blob identified by sha256Hex for owner.
func (s *Store) Get(st *store.SQLStore, owner, sha256Hex string) ([]byte, error) {
	rowids, err := st.SearchStrings("sha256", sha256Hex)
	if err != nil {
		return nil, err
	}
	if len(rowids) == 0 {
		return nil, apierr.Newf(apierr.NotFound, "no item declares sha256 %s", sha256Hex)
	}

	strs, err := st.GetStringsForItem(rowids[0])
	if err != nil {
		return nil, err
	}
	keyHex, ok := strs["key"]
	if !ok {
		return nil, apierr.Newf(apierr.InternalServerError, "item for sha256 %s has no key", sha256Hex)
	}
	nonceHex, ok := strs["nonce"]
	if !ok {
		return nil, apierr.Newf(apierr.InternalServerError, "item for sha256 %s has no nonce", sha256Hex)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "stored file key is not valid hex", err)
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "stored file nonce is not valid hex", err)
	}

	ciphertext, err := os.ReadFile(s.finalPath(owner, sha256Hex))
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to read file", err)
	}

	plaintext, err := cryptoutil.Decrypt(key, nonce, ciphertext)
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to decrypt file", err)
	}
	return plaintext, nil
}
