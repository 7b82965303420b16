package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost bcrypt计算强度
const passwordCost = bcrypt.DefaultCost

// HashPassword 生成密码的bcrypt摘要
func HashPassword(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", fmt.Errorf("生成密码摘要失败: %w", err)
	}
	return string(digest), nil
}

// CheckPassword 明文与摘要是否匹配，摘要为空时总是false
func CheckPassword(digest, plain string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
