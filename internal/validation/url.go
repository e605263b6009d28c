package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks URLs the program will request or hand to the OS.
type URLValidator struct {
	// AllowLocalhost permits loopback hosts, used against local test servers.
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918 and link-local addresses.
	AllowPrivateIPs bool
	// RequireHTTPS rejects plain http for API endpoints carrying the key.
	RequireHTTPS bool
	MaxLength    int
}

// NewURLValidator returns a validator with secure defaults.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		RequireHTTPS: true,
		MaxLength:    2048,
	}
}

// NewPermissiveURLValidator allows local http endpoints.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateBaseURL checks the API base URL and returns it without a trailing
// slash.
func (v *URLValidator) ValidateBaseURL(input string) (string, error) {
	u, err := v.parse(input)
	if err != nil {
		return "", err
	}
	if v.RequireHTTPS && u.Scheme != "https" {
		return "", fmt.Errorf("API base URL must use https")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("API base URL must not carry a query or fragment")
	}
	if err := v.validateHostSecurity(u.Host); err != nil {
		return "", err
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// ValidateLink checks an article or image link before it is opened. Only the
// scheme and shape are checked; the host is whatever the publisher chose.
func (v *URLValidator) ValidateLink(input string) (string, error) {
	u, err := v.parse(input)
	if err != nil {
		return "", err
	}
	if strings.Contains(u.RawQuery, "<script") || strings.Contains(strings.ToLower(u.RawQuery), "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}
	return u.String(), nil
}

func (v *URLValidator) parse(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return nil, fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`\x00") {
		return nil, fmt.Errorf("URL contains invalid characters")
	}

	u, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL must use http or https protocol")
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("URL must have a valid hostname")
	}
	return u, nil
}

func (v *URLValidator) validateHostSecurity(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}
	if hostname == "0.0.0.0" || hostname == "255.255.255.255" {
		return fmt.Errorf("suspicious hostname detected")
	}
	return nil
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost") ||
		strings.HasPrefix(hostname, "127.")
}

var privateBlocks = func() []*net.IPNet {
	var blocks []*net.IPNet
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"127.0.0.0/8",
		"fc00::/7",
		"fe80::/10",
	} {
		_, block, err := net.ParseCIDR(cidr)
		if err == nil {
			blocks = append(blocks, block)
		}
	}
	return blocks
}()

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
