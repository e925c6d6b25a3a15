package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"
)

// tokenEntropyBytes はトークン1つあたりに読み出す乱数のバイト数。
const tokenEntropyBytes = 24

// TokenGenerator はセッショントークンを生成するインターフェース。
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator は暗号論的乱数からトークンを生成する。
// 乱数を16進表記にしてからbase64で符号化し、末尾に発行時刻のUnix秒を付与する。
type RandomTokenGenerator struct {
	random io.Reader
	now    func() time.Time
}

// NewTokenGenerator はcrypto/randを乱数源とするRandomTokenGeneratorを生成する。
func NewTokenGenerator() *RandomTokenGenerator {
	return &RandomTokenGenerator{
		random: rand.Reader,
		now:    time.Now,
	}
}

// Generate は新しいトークンを生成する。
// 乱数源が読めない場合は弱い代替値にフォールバックせず、KindEntropyUnavailableを返す。
func (g *RandomTokenGenerator) Generate() (string, error) {
	b := make([]byte, tokenEntropyBytes)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return "", &Error{
			Kind: KindEntropyUnavailable,
			Err:  fmt.Errorf("failed to read random bytes: %w", err),
		}
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(b)))
	return encoded + strconv.FormatInt(g.now().Unix(), 10), nil
}

var _ TokenGenerator = (*RandomTokenGenerator)(nil)
