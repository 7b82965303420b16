package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode/utf8"
)

const lettersAndDigits = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString 生成指定长度的字母数字随机串
func RandomString(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(lettersAndDigits)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = lettersAndDigits[n.Int64()]
	}
	return string(buf), nil
}

var slugReplacer = strings.NewReplacer(
	" ", "-",
	",", "-",
	"(", "-",
	")", "",
	"؟", "",
	"!", "",
)

// SlugifyHashtag 生成话题slug，保留非ASCII字符
func SlugifyHashtag(name string) string {
	return slugReplacer.Replace(strings.TrimSpace(name))
}

// Truncate 按字符截断
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
