package provision

import (
	"github.com/toolchainkit/toolchainkit/internal/plugins"
)

// downloadingProvider is embedded by every provider that runs the full
// pipeline (lock, download, verify, extract, register) rather than
// discovering an already-installed compiler.
type downloadingProvider struct {
	toolchainType string
	table         metadataTable
	pipeline      *Pipeline
}

func (d *downloadingProvider) CanProvide(toolchainType, version string) bool {
	if toolchainType != d.toolchainType {
		return false
	}
	if version == "latest" {
		return len(d.table) > 0
	}
	_, ok := d.table[version]
	return ok
}

func (d *downloadingProvider) GetToolchainID(toolchainType, version, platformString string) string {
	return d.toolchainType + "-" + resolveVersion(d.table, version) + "-" + platformString
}

func (d *downloadingProvider) ProvideToolchain(toolchainType, version, platformString string, progress func(plugins.ProgressFrame)) (string, error) {
	return d.pipeline.provide(d.toolchainType, version, platformString, d.table, progress)
}

// LLVMProvider provisions LLVM/Clang distributions from the official
// release archives.
type LLVMProvider struct{ downloadingProvider }

// NewLLVMProvider builds an LLVMProvider backed by pipeline and the given
// metadata table (version -> platform -> download metadata). Production
// wiring passes DefaultLLVMTable(); tests inject a smaller one pointing at
// a local fixture server.
func NewLLVMProvider(pipeline *Pipeline, table metadataTable) *LLVMProvider {
	return &LLVMProvider{downloadingProvider{toolchainType: "llvm", table: table, pipeline: pipeline}}
}

// DefaultLLVMTable is the embedded metadata table (§4.1 step 4, "embedded
// table" metadata source) for the LLVM versions ToolchainKit knows how to
// fetch out of the box.
//
// TODO: populate SHA256/SizeBytes from the upstream release manifest; the
// values below are unpopulated placeholders.
func DefaultLLVMTable() metadataTable {
	return metadataTable{
		"18.1.8": {
			"linux-x64": {
				URL:       "https://github.com/llvm/llvm-project/releases/download/llvmorg-18.1.8/clang+llvm-18.1.8-x86_64-linux-gnu-ubuntu-18.04.tar.xz",
				SHA256:    "sha256:placeholder-llvm-18.1.8-linux-x64",
				SizeBytes: 0,
			},
			"macos-arm64": {
				URL:       "https://github.com/llvm/llvm-project/releases/download/llvmorg-18.1.8/clang+llvm-18.1.8-arm64-apple-darwin22.tar.xz",
				SHA256:    "sha256:placeholder-llvm-18.1.8-macos-arm64",
				SizeBytes: 0,
			},
		},
	}
}

// GCCProvider provisions prebuilt GCC toolchains (Linux only — the
// capability matrix never lists gcc for windows or macos).
type GCCProvider struct{ downloadingProvider }

func NewGCCProvider(pipeline *Pipeline, table metadataTable) *GCCProvider {
	return &GCCProvider{downloadingProvider{toolchainType: "gcc", table: table, pipeline: pipeline}}
}

func DefaultGCCTable() metadataTable {
	return metadataTable{
		"13.2.0": {
			"linux-x64": {
				URL:       "https://ftp.gnu.org/gnu/gcc/gcc-13.2.0/gcc-13.2.0.tar.xz",
				SHA256:    "sha256:placeholder-gcc-13.2.0-linux-x64",
				SizeBytes: 0,
			},
		},
	}
}

// ZigProvider provisions the Zig toolchain, which bundles its own
// clang-compatible C/C++ compiler and ships prebuilt for every platform the
// capability matrix supports — a plugin-contributed compiler, not one of
// the three the core ships with (§4.7).
type ZigProvider struct{ downloadingProvider }

func NewZigProvider(pipeline *Pipeline, table metadataTable) *ZigProvider {
	return &ZigProvider{downloadingProvider{toolchainType: "zig", table: table, pipeline: pipeline}}
}

func DefaultZigTable() metadataTable {
	return metadataTable{
		"0.13.0": {
			"linux-x64": {
				URL:       "https://ziglang.org/download/0.13.0/zig-linux-x86_64-0.13.0.tar.xz",
				SHA256:    "sha256:placeholder-zig-0.13.0-linux-x64",
				SizeBytes: 0,
			},
			"windows-x64": {
				URL:       "https://ziglang.org/download/0.13.0/zig-windows-x86_64-0.13.0.zip",
				SHA256:    "sha256:placeholder-zig-0.13.0-windows-x64",
				SizeBytes: 0,
			},
			"macos-arm64": {
				URL:       "https://ziglang.org/download/0.13.0/zig-macos-aarch64-0.13.0.tar.xz",
				SHA256:    "sha256:placeholder-zig-0.13.0-macos-arm64",
				SizeBytes: 0,
			},
		},
	}
}
