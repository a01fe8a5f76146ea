package protocol

import (
	"bytes"
)

const (
	// HeaderPublicKey carries the hex compressed public key of the acting identity.
	HeaderPublicKey = "X-Payme-PublicKey"

	// HeaderSignature carries the hex DER signature of the request payload.
	HeaderSignature = "X-Payme-Signature"
)

// SigningPayload returns the bytes a client signs for a request. The method and path are bound to
// the body so a signature for one operation can not be replayed against another.
func SigningPayload(method, path string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(method)
	buf.WriteByte(' ')
	buf.WriteString(path)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes()
}
