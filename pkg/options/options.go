package options

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every option group that can be bound to a
// flag set and validated after parsing.
type IOptions interface {
	// Validate returns every problem found, or an empty slice.
	Validate() []error

	// AddFlags registers the group's flags on fs.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// ValidateAddress checks that addr is a host:port pair with a usable port.
// An empty host is allowed and means all interfaces. Hosts are not resolved.
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q in address %q", port, addr)
	}

	if strings.ContainsAny(host, " /") {
		return fmt.Errorf("invalid host %q in address %q", host, addr)
	}

	return nil
}
