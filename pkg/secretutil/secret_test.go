package secretutil

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// encryptPhone 测试辅助：按线上约定加密（AES-256-CBC + PKCS5 填充）
func encryptPhone(t *testing.T, plain string, appSecret string) string {
	t.Helper()

	secret := NormalizeSecret(appSecret)
	key := []byte(secret)
	iv := []byte(secret[16:32])

	padLen := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append([]byte(plain), make([]byte, padLen)...)
	for i := len(plain); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("创建 AES Cipher 失败: %v", err)
	}

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out)
}

func TestNormalizeSecret_Length(t *testing.T) {
	cases := []string{
		"a",
		"ab",
		"short_secret",
		strings.Repeat("x", 31),
		strings.Repeat("x", 32),
		strings.Repeat("x", 33),
		strings.Repeat("x", 64),
		"  padded with spaces  ",
		"0123456789abcdef0123456789abcdef  ",
	}

	for _, c := range cases {
		got := NormalizeSecret(c)
		if len(got) != 32 {
			t.Errorf("NormalizeSecret(%q) 长度 = %d, want 32", c, len(got))
		}
	}
}

func TestNormalizeSecret_Exact32(t *testing.T) {
	s := strings.Repeat("k", 32)
	if got := NormalizeSecret(s); got != s {
		t.Errorf("32 位 Secret 不应被修改: got %q", got)
	}
}

func TestNormalizeSecret_PadOrder(t *testing.T) {
	// 30 位：先补左再补右
	s := strings.Repeat("a", 30)
	got := NormalizeSecret(s)
	want := "#" + s + "#"
	if got != want {
		t.Errorf("NormalizeSecret(30位) = %q, want %q", got, want)
	}

	// 31 位：只补左
	s = strings.Repeat("b", 31)
	got = NormalizeSecret(s)
	want = "#" + s
	if got != want {
		t.Errorf("NormalizeSecret(31位) = %q, want %q", got, want)
	}
}

func TestNormalizeSecret_TrimOrder(t *testing.T) {
	// 34 位：先裁左再裁右
	s := "L" + strings.Repeat("m", 32) + "R"
	got := NormalizeSecret(s)
	want := strings.Repeat("m", 32)
	if got != want {
		t.Errorf("NormalizeSecret(34位) = %q, want %q", got, want)
	}

	// 33 位：只裁左
	s = "L" + strings.Repeat("m", 32)
	got = NormalizeSecret(s)
	if got != want {
		t.Errorf("NormalizeSecret(33位) = %q, want %q", got, want)
	}
}

func TestDecryptPhone_RoundTrip(t *testing.T) {
	secrets := []string{
		"0123456789abcdef0123456789abcdef", // 恰好 32 位
		"short_app_secret",                 // 需要补齐
		strings.Repeat("z", 40),            // 需要裁剪
	}
	phones := []string{
		"13800138000",
		"+86-13912345678",
		"1",
	}

	for _, secret := range secrets {
		for _, phone := range phones {
			encrypted := encryptPhone(t, phone, secret)
			got, err := DecryptPhone(encrypted, secret)
			if err != nil {
				t.Fatalf("DecryptPhone(secret=%q) error = %v", secret, err)
			}
			if got != phone {
				t.Errorf("DecryptPhone = %q, want %q", got, phone)
			}
		}
	}
}

func TestDecryptPhone_InvalidBase64(t *testing.T) {
	_, err := DecryptPhone("not base64!!!", "secret")
	if err == nil {
		t.Fatal("非法 Base64 应返回错误")
	}
	var de *DecryptError
	if !errors.As(err, &de) {
		t.Errorf("错误类型应为 *DecryptError, got %T", err)
	}
}

func TestDecryptPhone_BadBlockLength(t *testing.T) {
	// 合法 Base64 但不是 16 字节整数倍
	bad := base64.StdEncoding.EncodeToString([]byte("abc"))
	if _, err := DecryptPhone(bad, "secret"); err == nil {
		t.Fatal("非块对齐密文应返回错误")
	}
}

func TestDecryptPhone_WrongSecret(t *testing.T) {
	encrypted := encryptPhone(t, "13800138000", "correct_secret")
	got, err := DecryptPhone(encrypted, "wrong_secret_value")
	if err == nil && got == "13800138000" {
		t.Fatal("错误的 Secret 不应解出原文")
	}
}
