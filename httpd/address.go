package httpd

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Address names an upstream. Addresses are comparable and totally ordered
// by host, then port, then type, so they work as map keys and sort keys.
type Address struct {
	Host string
	Port int
	// Type is free-form. "unix" makes Host a unix-domain socket path and
	// Port is ignored.
	Type string
}

const unixType = "unix"

func (a Address) IsUnix() bool { return a.Type == unixType }

// Compare returns -1, 0 or +1.
func (a Address) Compare(b Address) int {
	if c := cmp.Compare(a.Host, b.Host); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Port, b.Port); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

func (a Address) Less(b Address) bool { return a.Compare(b) < 0 }

// String renders host:port[:type], the format ParseAddress reads.
func (a Address) String() string {
	s := a.Host + ":" + strconv.Itoa(a.Port)
	if a.Type != "" {
		s += ":" + a.Type
	}
	return s
}

// ParseAddress reads "host:port" or "host:port:type". Surrounding
// whitespace is ignored.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	host, rest, ok := strings.Cut(s, ":")
	if !ok || host == "" {
		return Address{}, fmt.Errorf("httpd: invalid address %q", s)
	}
	ps, typ, _ := strings.Cut(rest, ":")
	port, err := strconv.Atoi(strings.TrimSpace(ps))
	if err != nil || port < 0 || port > 65535 {
		return Address{}, fmt.Errorf("httpd: invalid port in address %q", s)
	}
	return Address{Host: host, Port: port, Type: strings.TrimSpace(typ)}, nil
}

// ParseAddressList reads a comma separated list of addresses. Empty
// elements are skipped.
func ParseAddressList(s string) ([]Address, error) {
	var out []Address
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, err := ParseAddress(part)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// FormatAddressList is the inverse of ParseAddressList.
func FormatAddressList(list []Address) string {
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
