package auth

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// Verification failures, in the order the checks run.
var (
	ErrMalformedHeader   = errors.New("malformed authorization header")
	ErrUnknownAccessKey  = errors.New("unknown access key")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Credentials is one access/secret key pair. A database carries two of
// these: server keys for the management API, client keys for the query API.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Signature computes the base64 HMAC-SHA1 signature over the canonical
// string VWS defines: method, hex MD5 of the body, content type, date
// header value and request path, joined by newlines.
func Signature(secretKey, method string, body []byte, contentType, date, path string) string {
	sum := md5.Sum(body)
	toSign := strings.Join([]string{
		method,
		hex.EncodeToString(sum[:]),
		contentType,
		date,
		path,
	}, "\n")

	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Header builds the Authorization header value for a request.
func Header(c Credentials, method string, body []byte, contentType, date, path string) string {
	sig := Signature(c.SecretKey, method, body, contentType, date, path)
	return "VWS " + c.AccessKey + ":" + sig
}

// Parse splits an Authorization header into access key and signature.
// The expected shape is exactly "VWS <access-key>:<signature>".
func Parse(header string) (accessKey, signature string, ok bool) {
	scheme, rest, found := strings.Cut(header, " ")
	if !found || scheme != "VWS" {
		return "", "", false
	}
	accessKey, signature, found = strings.Cut(rest, ":")
	if !found || accessKey == "" || signature == "" {
		return "", "", false
	}
	return accessKey, signature, true
}

// Verify checks a request's Authorization header against the credentials.
// The comparison is plain equality: this is a test double, not a service
// that needs side channel resistance.
func Verify(c Credentials, header, method string, body []byte, contentType, date, path string) error {
	accessKey, signature, ok := Parse(header)
	if !ok {
		return ErrMalformedHeader
	}
	if accessKey != c.AccessKey {
		return ErrUnknownAccessKey
	}
	expected := Signature(c.SecretKey, method, body, contentType, date, path)
	if signature != expected {
		return ErrSignatureMismatch
	}
	return nil
}
