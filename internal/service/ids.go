package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// formatCustomID renders the public user id, e.g. AI001, AI042, AI1337.
func formatCustomID(seq int64) string {
	return fmt.Sprintf("AI%03d", seq)
}
