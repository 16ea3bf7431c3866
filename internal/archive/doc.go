// Package archive unpacks downloaded driver archives.
//
// Extractors are registered per container format and chosen by sniffing the
// file's magic bytes, so the provisioner does not depend on file extensions.
// Zip, plain tar, tar.gz, and tar.zst are supported; entries that would land
// outside the destination are rejected with services.ErrArchiveFormat.
package archive
