package tcp

import (
	"errors"
	"fmt"
	"strings"
)

// BasicAuth returns the Authorization value for basic access authentication.
func BasicAuth(user, pass string) string {
	return "Basic " + B64(user, pass)
}

// ParseChallenge splits a WWW-Authenticate value into its comma-separated
// key=value / key="value" directives. The scheme token before the first
// space is skipped.
func ParseChallenge(header string) map[string]string {
	if i := strings.IndexByte(header, ' '); i > 0 {
		header = header[i+1:]
	}

	ch := map[string]string{}
	for _, item := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"`)
		ch[k] = v
	}
	return ch
}

// DigestAuth computes the Authorization value for digest access
// authentication (RFC 2617) from a parsed server challenge. Stateless, so
// safe to call again on every retry.
func DigestAuth(method, uri, user, pass string, ch map[string]string) (string, error) {
	realm := ch["realm"]
	nonce := ch["nonce"]

	ha1 := HexMD5(user, realm, pass)
	ha2 := HexMD5(method, uri)

	var header string

	switch qop := ch["qop"]; qop {
	case "":
		response := HexMD5(ha1, nonce, ha2)
		header = fmt.Sprintf(
			`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
			user, realm, nonce, uri, response,
		)
	case "auth":
		nc := "00000001"
		cnonce := "00000001"
		response := HexMD5(ha1, nonce, nc, cnonce, qop, ha2)
		header = fmt.Sprintf(
			`Digest username="%s", realm="%s", nonce="%s", uri="%s", qop=%s, nc=%s, cnonce="%s", response="%s"`,
			user, realm, nonce, uri, qop, nc, cnonce, response,
		)
	default:
		return "", errors.New("tcp: unsupported qop: " + qop)
	}

	if opaque := ch["opaque"]; opaque != "" {
		header += fmt.Sprintf(`, opaque="%s"`, opaque)
	}

	return header, nil
}
