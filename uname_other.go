//go:build !linux

package khost

func uname() (release, version, machine string, err error) {
	return "", "", "", ErrUnsupportedPlatform
}
