package stdlib

import (
	"fmt"

	"github.com/blang/semver"
	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"

	"github.com/robbyt/go-jsonnetvm/internal/helpers"
)

func sha256Hex(str string) string {
	return helpers.SHA256(str)
}

func parseVersion(v string) (semver.Version, error) {
	parsed, err := semver.ParseTolerant(v)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid version %q: %w", v, err)
	}
	return parsed, nil
}

// semverCompare returns -1, 0 or 1.
func semverCompare(a, b string) (int, error) {
	va, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// semverSatisfies checks a version against a range such as ">=1.2.0 <2.0.0".
func semverSatisfies(version, constraint string) (bool, error) {
	v, err := parseVersion(version)
	if err != nil {
		return false, err
	}
	r, err := semver.ParseRange(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid range %q: %w", constraint, err)
	}
	return r(v), nil
}

func shellQuote(str string) string {
	return shellquote.Join(str)
}

func shellSplit(str string) ([]string, error) {
	words, err := shellquote.Split(str)
	if err != nil {
		return nil, fmt.Errorf("failed to split %q: %w", str, err)
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

// uuidV5 derives a name-based UUID. namespace is a UUID or one of "dns", "url", "oid", "x500".
func uuidV5(namespace, name string) (string, error) {
	var ns uuid.UUID
	switch namespace {
	case "dns":
		ns = uuid.NameSpaceDNS
	case "url":
		ns = uuid.NameSpaceURL
	case "oid":
		ns = uuid.NameSpaceOID
	case "x500":
		ns = uuid.NameSpaceX500
	default:
		parsed, err := uuid.Parse(namespace)
		if err != nil {
			return "", fmt.Errorf("invalid namespace %q: %w", namespace, err)
		}
		ns = parsed
	}
	return uuid.NewSHA1(ns, []byte(name)).String(), nil
}
