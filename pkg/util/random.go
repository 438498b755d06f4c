package util

import (
	"math/rand"
	"strings"
)

// 매장 인증 코드용 문자 집합. 혼동하기 쉬운 문자(0/O, 1/I/L)는 제외한다.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// GenerateVerificationCode generates a random store verification code of the
// given length using an unambiguous alphabet.
func GenerateVerificationCode(length int) string {
	if length <= 0 {
		length = 6
	}
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return sb.String()
}
