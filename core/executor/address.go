package executor

import "github.com/multiformats/go-multiaddr"

// validInternetAddress reports whether s parses as a multi-layer network
// address. A blank string is treated as absent and always valid: optional
// address fields are validated by the caller only when present.
func validInternetAddress(s string) bool {
	if s == "" {
		return true
	}
	_, err := multiaddr.NewMultiaddr(s)
	return err == nil
}
