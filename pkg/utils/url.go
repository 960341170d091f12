package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashKey creates a SHA256 hash of a string.
// This is useful for creating consistent, safe keys for Redis.
func HashKey(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL resolves ref against base using standard URL joining.
func ToAbsoluteURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	relURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(relURL).String(), nil
}

// SearchURL builds <base><path>?<param>=<keyword> with the keyword query-escaped.
func SearchURL(base, path, param, keyword string) string {
	q := url.Values{}
	q.Set(param, keyword)
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/") + "?" + q.Encode()
}
