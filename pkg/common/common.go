package common

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"

	NA = "N/A"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 returns a cluster-unique int64 identifier.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE_ID"); v != "" {
			if _, err := fmt.Sscanf(v, "%d", &nodeID); err != nil {
				nodeID = 1
			}
		}
		var err error
		snowflakeNode, err = snowflake.NewNode(nodeID)
		if err != nil {
			panic(err)
		}
	})
	return snowflakeNode.Generate().Int64()
}

// UUID returns the string form of UUIDint64.
func UUID() string {
	return fmt.Sprintf("%d", UUIDint64())
}

// Sha256Hash returns the hex encoded sha256 of src.
func Sha256Hash(src string) string {
	h := sha256.New()
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// Sha256HashWithSalt returns the hex encoded sha256 of src+salt.
func Sha256HashWithSalt(src, salt string) string {
	h := sha256.New()
	h.Write([]byte(src))
	h.Write([]byte(salt))
	return hex.EncodeToString(h.Sum(nil))
}

// GetSecretSalt reads the instance salt from the environment, falling back to
// a fixed development value.
func GetSecretSalt() string {
	if v := os.Getenv("STORE_SECRET_SALT"); v != "" {
		return v
	}
	return "embabi-store-dev-salt"
}

// RandomCode returns an uppercase alphanumeric code of length n, used for
// human facing references such as coupon codes.
func RandomCode(n int) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			idx = big.NewInt(int64(i) % int64(len(alphabet)))
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf)
}

// FileExists checks whether path exists on disk.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
