package pluginauth

import "github.com/memri/pod/pkg/apierr"

// Key holds a decrypted database key in memory. It zeroes its backing
// storage on Destroy and rejects any character outside [0-9A-Z] at
// construction.
type Key struct {
	chars []byte
}

func newKey(s string) (*Key, error) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'A' && c <= 'Z') {
			return nil, apierr.Newf(apierr.BadRequest, "key contains invalid character %q", c)
		}
	}
	return &Key{chars: []byte(s)}, nil
}

// String returns the key's characters. Destroy invalidates the result of
// any prior call.
func (k *Key) String() string { return string(k.chars) }

// Destroy zeroes the key's backing storage. Safe to call more than once.
func (k *Key) Destroy() {
	for i := range k.chars {
		k.chars[i] = 0
	}
}
