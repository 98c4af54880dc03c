package secretutil

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ==================== 错误定义 ====================

// DecryptError 手机号解密错误
// 解密失败只影响单条记录：调用方记录日志后将 phone 置空，不中断整批入库
type DecryptError struct {
	Reason string
	Err    error
}

func (e *DecryptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("手机号解密失败: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("手机号解密失败: %s", e.Reason)
}

func (e *DecryptError) Unwrap() error { return e.Err }

// ==================== Secret 标准化 ====================

const (
	secretLength = 32
	padChar      = "#"
)

// NormalizeSecret 将 ClientSecret 标准化到 32 位
//
// 不足 32 位时用 # 补齐（先左后右交替），超过 32 位时裁剪（先左后右交替）
func NormalizeSecret(secret string) string {
	secret = strings.TrimSpace(secret)

	if len(secret) == secretLength {
		return secret
	}

	if len(secret) < secretLength {
		for len(secret) < secretLength {
			secret = padChar + secret
			if len(secret) < secretLength {
				secret = secret + padChar
			}
		}
		return secret
	}

	for len(secret) > secretLength {
		secret = secret[1:]
		if len(secret) > secretLength {
			secret = secret[:len(secret)-1]
		}
	}
	return secret
}

// ==================== 手机号解密 ====================

// DecryptPhone 解密订单中的加密手机号
//
// 步骤：
//  1. ClientSecret 标准化到 32 位
//  2. Key 取标准化后的全部 32 位，IV 取第 17-32 位
//  3. Base64 解码密文
//  4. AES-256-CBC 解密，去除 PKCS5 填充
func DecryptPhone(phoneEncrypt string, appSecret string) (string, error) {
	secret := NormalizeSecret(appSecret)

	key := []byte(secret)
	iv := []byte(secret[16:32])

	cipherText, err := base64.StdEncoding.DecodeString(phoneEncrypt)
	if err != nil {
		return "", &DecryptError{Reason: "密文不是合法的 Base64", Err: err}
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return "", &DecryptError{Reason: fmt.Sprintf("密文长度 %d 不是块大小的整数倍", len(cipherText))}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", &DecryptError{Reason: "创建 AES Cipher 失败", Err: err}
	}

	plain := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, cipherText)

	plain, err = stripPKCS5Padding(plain)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(plain) {
		return "", &DecryptError{Reason: "解密结果不是合法文本"}
	}

	return string(plain), nil
}

// stripPKCS5Padding 去除 PKCS5 填充：末字节值 N 表示去掉尾部 N 个字节
func stripPKCS5Padding(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, &DecryptError{Reason: "解密结果为空"}
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, &DecryptError{Reason: fmt.Sprintf("非法的填充长度 %d", padLen)}
	}
	return data[:len(data)-padLen], nil
}
