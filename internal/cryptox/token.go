package cryptox

import "github.com/dmitrijs2005/clipher/internal/common"

// SecureRandomToken returns an opaque token of size random bytes, hex
// encoded (2*size characters).
func SecureRandomToken(size int) (string, error) {
	return common.MakeRandHexString(size)
}
