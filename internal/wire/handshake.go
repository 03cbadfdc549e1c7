package wire

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
)

// GreetingSize is the fixed size of the greeting Tarantool sends
// immediately after accepting a TCP connection, before any frame is
// exchanged.
const GreetingSize = 128

const saltEncodedLen = 44

// ErrShortGreeting is returned when fewer than GreetingSize bytes could be
// read from the connection before EOF.
var ErrShortGreeting = fmt.Errorf("wire: short greeting")

// ErrInvalidSalt is returned when the greeting's second line does not
// contain a valid base64-encoded salt.
var ErrInvalidSalt = fmt.Errorf("wire: invalid greeting salt")

// Greeting is the parsed form of Tarantool's 128-byte connection banner.
type Greeting struct {
	Version string
	Salt    [20]byte
}

// ReadGreeting reads and parses the fixed-size greeting a Tarantool server
// sends on connect. The first 64 bytes are a human-readable version banner;
// the next 64 contain a base64-encoded salt used to authenticate.
func ReadGreeting(r io.Reader) (Greeting, error) {
	buf := make([]byte, GreetingSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Greeting{}, fmt.Errorf("%w: %v", ErrShortGreeting, err)
	}

	version := trimNullsAndSpace(buf[:64])

	saltLine := buf[64:128]
	if len(saltLine) < saltEncodedLen {
		return Greeting{}, fmt.Errorf("%w: salt line too short", ErrInvalidSalt)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(saltLine[:saltEncodedLen]))
	if err != nil {
		return Greeting{}, fmt.Errorf("%w: %v", ErrInvalidSalt, err)
	}
	if len(decoded) < 20 {
		return Greeting{}, fmt.Errorf("%w: decoded salt too short (%d bytes)", ErrInvalidSalt, len(decoded))
	}

	var g Greeting
	g.Version = version
	copy(g.Salt[:], decoded[:20])
	return g, nil
}

func trimNullsAndSpace(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ' || b[end-1] == '\n' || b[end-1] == '\r') {
		end--
	}
	return string(b[:end])
}

// Scramble computes the 20-byte CHAP-SHA1 authenticator Tarantool expects
// in an AUTH request body: SHA1(password) XOR SHA1(salt || SHA1(SHA1(password))).
func Scramble(salt [20]byte, password string) [20]byte {
	step1 := sha1.Sum([]byte(password))
	step2 := sha1.Sum(step1[:])

	h := sha1.New()
	h.Write(salt[:])
	h.Write(step2[:])
	step3 := h.Sum(nil)

	var scramble [20]byte
	for i := range scramble {
		scramble[i] = step1[i] ^ step3[i]
	}
	return scramble
}
