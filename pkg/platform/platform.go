package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/glorpus-work/enpkg/pkg/errors"
)

// Platform represents a target platform with OS and Architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// CurrentPlatform returns the platform the process runs on.
func CurrentPlatform() Platform {
	return Platform{OS: NormalizeOS(runtime.GOOS), Arch: NormalizeArch(runtime.GOARCH)}
}

// Parse reads "os/arch" or an egg platform tag such as "rh5-64".
func Parse(s string) (Platform, error) {
	if goos, arch, ok := strings.Cut(s, "/"); ok {
		p := Platform{OS: NormalizeOS(goos), Arch: NormalizeArch(arch)}
		return p, p.Validate()
	}
	family, bits, ok := strings.Cut(s, "-")
	if !ok {
		return Platform{}, fmt.Errorf("%w: platform %q", errors.ErrInvalidFormat, s)
	}
	var p Platform
	switch family {
	case "rh5", "rh6", "rh7", "linux":
		p.OS = OSLinux
	case "osx":
		p.OS = OSDarwin
	case "win":
		p.OS = OSWindows
	case "freebsd":
		p.OS = OSFreeBSD
	default:
		return Platform{}, fmt.Errorf("%w: platform %q", errors.ErrInvalidFormat, s)
	}
	switch bits {
	case "64":
		p.Arch = ArchAMD64
	case "32":
		p.Arch = Arch386
	case "arm64":
		p.Arch = ArchARM64
	default:
		return Platform{}, fmt.Errorf("%w: platform %q", errors.ErrInvalidFormat, s)
	}
	return p, nil
}

// Validate checks that OS and Arch are known.
func (p Platform) Validate() error {
	if !slices.Contains(ValidOS(), p.OS) {
		return fmt.Errorf("%w: os %q, must be one of %s", errors.ErrInvalidFormat, p.OS, strings.Join(ValidOS(), ", "))
	}
	if !slices.Contains(ValidArch(), p.Arch) {
		return fmt.Errorf("%w: arch %q, must be one of %s", errors.ErrInvalidFormat, p.Arch, strings.Join(ValidArch(), ", "))
	}
	return nil
}

// String returns "os/arch".
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// ArchTag is the architecture as eggs name it: x86_64, x86 or arm64.
func (p Platform) ArchTag() string {
	switch p.Arch {
	case ArchAMD64:
		return "x86_64"
	case Arch386:
		return "x86"
	default:
		return p.Arch
	}
}

// Bits is the pointer width of the architecture.
func (p Platform) Bits() string {
	switch p.Arch {
	case Arch386:
		return "32"
	case ArchARM64:
		return "arm64"
	default:
		return "64"
	}
}

// Tag is the egg platform tag, for example rh5-64, osx-64 or win-32.
func (p Platform) Tag() string {
	family := p.OS
	switch p.OS {
	case OSLinux:
		family = "rh5"
	case OSDarwin:
		family = "osx"
	case OSWindows:
		family = "win"
	}
	return family + "-" + p.Bits()
}

// Subdir is the repository sub directory holding the eggs of p.
func (p Platform) Subdir() string { return p.Tag() }

// NormalizeOS maps common OS names to the Go names.
func NormalizeOS(name string) string {
	switch name = strings.ToLower(name); name {
	case "macos", "osx":
		return OSDarwin
	case "win", "win32":
		return OSWindows
	default:
		return name
	}
}

// NormalizeArch maps common architecture names to the Go names.
func NormalizeArch(arch string) string {
	switch arch = strings.ToLower(arch); arch {
	case "x86_64", "x64":
		return ArchAMD64
	case "x86", "i386", "i686":
		return Arch386
	case "aarch64":
		return ArchARM64
	default:
		return arch
	}
}

// FillURL expands the {ARCH}, {SUBDIR} and {PLATFORM} placeholders of a
// repository URL template for p and cleans up the result.
func (p Platform) FillURL(url string) (string, error) {
	url = strings.ReplaceAll(url, PlaceholderArch, p.ArchTag())
	url = strings.ReplaceAll(url, PlaceholderSubdir, p.Subdir())
	url = strings.ReplaceAll(url, PlaceholderPlatform, p.Tag())
	return CleanupURL(url)
}

// CleanupURL validates a repository location. HTTP and file URLs get a
// trailing slash; an existing local directory becomes a file URL.
func CleanupURL(url string) (string, error) {
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return withTrailingSlash(url), nil
	case strings.HasPrefix(url, "file://"):
		return withTrailingSlash(url), nil
	}

	dir, err := expandUser(url)
	if err == nil {
		dir, err = filepath.Abs(dir)
	}
	if err == nil {
		if st, statErr := os.Stat(dir); statErr == nil && st.IsDir() {
			return withTrailingSlash("file://" + filepath.ToSlash(dir)), nil
		}
	}
	return "", fmt.Errorf("%w: invalid URL or non-existing directory: %q", errors.ErrInvalidURL, url)
}

// LocalPath returns the directory of a file URL.
func LocalPath(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, "file://")
	if !ok {
		return "", false
	}
	return filepath.FromSlash(rest), true
}

func withTrailingSlash(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}

func expandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
