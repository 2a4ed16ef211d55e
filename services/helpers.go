package services

import (
	"strings"
	"time"
)

// timeNow, testlerde sabitlenebilsin diye değişken olarak tutulur.
var timeNow = time.Now

// firstWord, "Ada Lovelace" → "Ada". Mail hitabında sadece ilk ad kullanılır.
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
