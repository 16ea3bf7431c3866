// Package platform maps the host operating system and pointer width to the
// driver build published for it.
//
// The mapping is a closed set: linux32, linux64, win32, and mac64. Any other
// host fails with services.ErrUnsupportedPlatform rather than guessing.
package platform
