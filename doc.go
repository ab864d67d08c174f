/*
Package nexusupload is a tool for uploading build artifacts to Nexus3 repositories.

nexus-upload finds local files with a glob pattern and posts each of them to
one or more repositories through the Nexus3 components REST API:
  - APT repositories for Debian packages (patterns ending in ".deb")
  - RAW repositories for any other file, stored in the repository root
  - Checksums and Debian package names reported before the first upload
  - TLS configuration for private certificate authorities and client certificates

The main packages are:

	github.com/mirrorctl/nexus-upload/internal/apt       - file checksums and Debian file name parsing
	github.com/mirrorctl/nexus-upload/internal/upload    - file search, upload requests and run control
	github.com/mirrorctl/nexus-upload/cmd/nexus-upload   - Command-line interface
*/
package nexusupload
