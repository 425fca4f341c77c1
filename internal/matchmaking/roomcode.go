package matchmaking

import (
	"crypto/rand"
)

// codeAlphabet excludes easily-confused glyphs (0/O, 1/I/L, 5/S, 8/B).
const codeAlphabet = "ACDEFGHJKMNPQRTUVWXYZ234679"

// Room code lengths: 6 for standard lobbies, 4 for the short variant.
const (
	RoomCodeLength      = 6
	ShortRoomCodeLength = 4
)

// NewRoomCode generates a 6-character human-shareable lobby code.
func NewRoomCode() string {
	return newCode(RoomCodeLength)
}

// NewShortRoomCode generates the 4-character variant.
func NewShortRoomCode() string {
	return newCode(ShortRoomCodeLength)
}

func newCode(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
