// Package pluginauth implements Pod's plugin-auth capability token: a
// process-wide symmetric key encrypts the per-request database key into an
// opaque envelope a plugin process can present on callback instead of the
// raw key.
package pluginauth

import (
	"encoding/hex"
	"strings"

	"github.com/memri/pod/pkg/apierr"
	"github.com/memri/pod/pkg/cryptoutil"
	"github.com/memri/pod/pkg/types"
)

// ProcessKey is the process-wide symmetric key generated once at startup
// and kept in memory only, immutable for the rest of the process lifetime.
type ProcessKey struct {
	key []byte
}

// NewProcessKey generates a fresh random process-wide key.
func NewProcessKey() (*ProcessKey, error) {
	key, err := cryptoutil.GenerateKey()
	if err != nil {
		return nil, apierr.Wrap(apierr.InternalServerError, "failed to generate plugin-auth process key", err)
	}
	return &ProcessKey{key: key}, nil
}

// Issue encrypts databaseKeyHex (a 64-hex-character string, or "" for the
// no-key mode) into a PluginAuthToken a handler hands to a plugin process.
func (pk *ProcessKey) Issue(databaseKeyHex string) (types.PluginAuthToken, error) {
	raw, err := hex.DecodeString(databaseKeyHex)
	if err != nil {
		return types.PluginAuthToken{}, apierr.New(apierr.BadRequest, "databaseKey is not valid hex")
	}

	nonce, err := cryptoutil.GenerateNonce()
	if err != nil {
		return types.PluginAuthToken{}, apierr.Wrap(apierr.InternalServerError, "failed to generate plugin-auth nonce", err)
	}
	ciphertext, err := cryptoutil.Encrypt(pk.key, nonce, raw)
	if err != nil {
		return types.PluginAuthToken{}, apierr.Wrap(apierr.InternalServerError, "failed to encrypt plugin-auth payload", err)
	}

	return types.PluginAuthToken{
		Nonce:                hex.EncodeToString(nonce),
		EncryptedPermissions: hex.EncodeToString(ciphertext),
	}, nil
}

// Extract decrypts a PluginAuthToken a plugin presents on callback, and
// returns the embedded database key as a validated Key — upper-case hex, the
// empty string for the no-key mode.
func (pk *ProcessKey) Extract(token types.PluginAuthToken) (*Key, error) {
	if len(token.Nonce) != cryptoutil.NonceSize*2 {
		return nil, apierr.Newf(apierr.BadRequest, "plugin-auth nonce must be %d hex characters", cryptoutil.NonceSize*2)
	}
	nonce, err := hex.DecodeString(token.Nonce)
	if err != nil {
		return nil, apierr.New(apierr.BadRequest, "plugin-auth nonce is not valid hex")
	}
	ciphertext, err := hex.DecodeString(token.EncryptedPermissions)
	if err != nil {
		return nil, apierr.New(apierr.BadRequest, "plugin-auth payload is not valid hex")
	}

	plaintext, err := cryptoutil.Decrypt(pk.key, nonce, ciphertext)
	if err != nil {
		return nil, apierr.Wrap(apierr.BadRequest, "failed to decrypt plugin-auth token", err)
	}
	if len(plaintext) != cryptoutil.KeySize && len(plaintext) != 0 {
		return nil, apierr.Newf(apierr.BadRequest, "plugin-auth payload must be %d or 0 bytes, got %d", cryptoutil.KeySize, len(plaintext))
	}

	return newKey(strings.ToUpper(hex.EncodeToString(plaintext)))
}
