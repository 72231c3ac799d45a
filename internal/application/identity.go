package application

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// productPathPattern matches product comment page paths of the shape
// /product/{id}/comments...; the second group is the product id.
var productPathPattern = regexp.MustCompile(`^(/product/)(\d+)(/comments)`)

// ErrNoProductRoute indicates the page URL does not encode a product id.
// It is fatal at startup: a panel cannot exist without a product.
var ErrNoProductRoute = errors.New("page URL does not contain a product comments route")

// ResolveProductID extracts the product id from a product comment page URL.
func ResolveProductID(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing page URL %q: %w", pageURL, err)
	}

	m := productPathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoProductRoute, u.Path)
	}

	return m[2], nil
}
