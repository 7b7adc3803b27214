package regza

import (
	"crypto/md5"
	"encoding/hex"
)

// HashFunc digests a string into its lowercase hex form
type HashFunc func(s string) string

// MD5Hex returns the hex encoded MD5 sum of s
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
