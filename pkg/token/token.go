// Package token — opak, tahmin edilemez string token üretimi.
//
// Magic link token'ları, session token'ları ve download token'ları
// hep buradan üretilir. Token tek başına bir capability'dir: kimin elinde
// olduğu değil, bilinip bilinmediği önemlidir. Bu yüzden kaynak mutlaka
// crypto/rand olmalıdır — math/rand tahmin edilebilir.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultSize, üretilen token'ların varsayılan karakter uzunluğu.
// 24 hex karakter = 96 bit entropi — pratikte collision imkansız.
const DefaultSize = 24

// Generate, size karakterlik lowercase-hex token üretir.
//
// size byte rastgele okunur, hex'e çevrilir (2*size karakter) ve
// size karaktere kırpılır. crypto/rand tükenirse (işletim sistemi seviyesi
// bir arıza) error döner — caller bunu fatal kabul etmelidir.
func Generate(size int) (string, error) {
	if size <= 0 {
		size = DefaultSize
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(buf)[:size], nil
}
