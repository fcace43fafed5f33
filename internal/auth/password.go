package auth

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// 存量密码是 bcrypt(hex(md5(password)))，比较前必须先做同样的预处理。
func prehashPassword(password string) []byte {
	sum := md5.Sum([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func HashPassword(password string) ([]byte, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("密码长度至少 8 位")
	}
	return bcrypt.GenerateFromPassword(prehashPassword(password), bcrypt.DefaultCost)
}

func ComparePassword(hash []byte, password string) bool {
	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, prehashPassword(password)) == nil
}
