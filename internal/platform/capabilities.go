package platform

// Capabilities describes what a platform supports. All queries against it
// are pure; an unknown platform string yields the zero value (conservative
// empties), never a panic.
type Capabilities struct {
	Compilers              []string
	Stdlibs                []string
	PackageManagers        []string
	BuildBackends          []string
	ExecutableExtension    string
	SharedLibraryExtension string
	StaticLibraryExtension string
	PathSeparator          string
	CaseSensitiveFS        bool
	SupportsRPath          bool
	SupportsSymlinks       bool
	MaxPathLength          int // 0 means "no practical limit"
}

// capabilities is the immutable static table keyed by platform string, e.g.
// "linux-x64". Modeled directly on
// original_source/toolchainkit/core/platform_capabilities.py.
var capabilities = map[string]Capabilities{
	"linux-x64": {
		Compilers:              []string{"llvm", "gcc"},
		Stdlibs:                []string{"libc++", "libstdc++"},
		PackageManagers:        []string{"conan", "vcpkg"},
		BuildBackends:          []string{"ninja", "make"},
		ExecutableExtension:    "",
		SharedLibraryExtension: ".so",
		StaticLibraryExtension: ".a",
		PathSeparator:          "/",
		CaseSensitiveFS:        true,
		SupportsRPath:          true,
		SupportsSymlinks:       true,
	},
	"linux-arm64": {
		Compilers:              []string{"llvm", "gcc"},
		Stdlibs:                []string{"libc++", "libstdc++"},
		PackageManagers:        []string{"conan", "vcpkg"},
		BuildBackends:          []string{"ninja", "make"},
		ExecutableExtension:    "",
		SharedLibraryExtension: ".so",
		StaticLibraryExtension: ".a",
		PathSeparator:          "/",
		CaseSensitiveFS:        true,
		SupportsRPath:          true,
		SupportsSymlinks:       true,
	},
	"windows-x64": {
		Compilers:              []string{"llvm", "msvc"},
		Stdlibs:                []string{"libc++", "msvc"},
		PackageManagers:        []string{"conan", "vcpkg"},
		BuildBackends:          []string{"ninja", "msbuild"},
		ExecutableExtension:    ".exe",
		SharedLibraryExtension: ".dll",
		StaticLibraryExtension: ".lib",
		PathSeparator:          `\`,
		CaseSensitiveFS:        false,
		SupportsRPath:          false,
		SupportsSymlinks:       true, // junctions, not symlinks, but functionally equivalent for our purposes
		MaxPathLength:          260,
	},
	"windows-arm64": {
		Compilers:              []string{"llvm", "msvc"},
		Stdlibs:                []string{"libc++", "msvc"},
		PackageManagers:        []string{"conan", "vcpkg"},
		BuildBackends:          []string{"ninja", "msbuild"},
		ExecutableExtension:    ".exe",
		SharedLibraryExtension: ".dll",
		StaticLibraryExtension: ".lib",
		PathSeparator:          `\`,
		CaseSensitiveFS:        false,
		SupportsRPath:          false,
		SupportsSymlinks:       true,
		MaxPathLength:          260,
	},
	"macos-x64": {
		Compilers:              []string{"llvm"},
		Stdlibs:                []string{"libc++"},
		PackageManagers:        []string{"conan", "vcpkg"},
		BuildBackends:          []string{"ninja", "make", "xcode"},
		ExecutableExtension:    "",
		SharedLibraryExtension: ".dylib",
		StaticLibraryExtension: ".a",
		PathSeparator:          "/",
		CaseSensitiveFS:        false,
		SupportsRPath:          true,
		SupportsSymlinks:       true,
	},
	"macos-arm64": {
		Compilers:              []string{"llvm"},
		Stdlibs:                []string{"libc++"},
		PackageManagers:        []string{"conan", "vcpkg"},
		BuildBackends:          []string{"ninja", "make", "xcode"},
		ExecutableExtension:    "",
		SharedLibraryExtension: ".dylib",
		StaticLibraryExtension: ".a",
		PathSeparator:          "/",
		CaseSensitiveFS:        false,
		SupportsRPath:          true,
		SupportsSymlinks:       true,
	},
	"android-arm64": {
		Compilers:              []string{"llvm"},
		Stdlibs:                []string{"libc++"},
		PackageManagers:        []string{"vcpkg"},
		BuildBackends:          []string{"ninja"},
		ExecutableExtension:    "",
		SharedLibraryExtension: ".so",
		StaticLibraryExtension: ".a",
		PathSeparator:          "/",
		CaseSensitiveFS:        true,
		SupportsRPath:          false,
		SupportsSymlinks:       true,
	},
	"ios-arm64": {
		Compilers:              []string{"llvm"},
		Stdlibs:                []string{"libc++"},
		PackageManagers:        []string{"vcpkg"},
		BuildBackends:          []string{"xcode"},
		ExecutableExtension:    "",
		SharedLibraryExtension: ".dylib",
		StaticLibraryExtension: ".a",
		PathSeparator:          "/",
		CaseSensitiveFS:        false,
		SupportsRPath:          true,
		SupportsSymlinks:       true,
	},
}

// Lookup returns the Capabilities for a platform string and whether it was
// found. An unknown platform returns the zero value, which reports no
// supported anything — callers should treat that as "reject", not "allow".
func Lookup(platformString string) (Capabilities, bool) {
	c, ok := capabilities[platformString]
	return c, ok
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

// SupportsCompiler reports whether the platform's capability entry lists the
// given compiler type.
func SupportsCompiler(platformString, compiler string) bool {
	c, ok := Lookup(platformString)
	if !ok {
		return false
	}
	return contains(c.Compilers, compiler)
}

// SupportsStdlib reports whether the platform's capability entry lists the
// given standard library.
func SupportsStdlib(platformString, stdlib string) bool {
	c, ok := Lookup(platformString)
	if !ok {
		return false
	}
	return contains(c.Stdlibs, stdlib)
}

// SupportsPackageManager reports whether the platform's capability entry
// lists the given package manager.
func SupportsPackageManager(platformString, manager string) bool {
	c, ok := Lookup(platformString)
	if !ok {
		return false
	}
	return contains(c.PackageManagers, manager)
}

// SupportsBuildBackend reports whether the platform's capability entry lists
// the given build backend.
func SupportsBuildBackend(platformString, backend string) bool {
	c, ok := Lookup(platformString)
	if !ok {
		return false
	}
	return contains(c.BuildBackends, backend)
}
