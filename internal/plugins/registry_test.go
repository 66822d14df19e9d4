package plugins

import "testing"

func TestRegistry_CompilerStrategyDuplicateIsError(t *testing.T) {
	r := New()
	if err := r.RegisterCompilerStrategy("clang", ClangStrategy{}); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterCompilerStrategy("clang", ClangStrategy{}); err == nil {
		t.Fatal("expected an error registering a duplicate compiler strategy name")
	}
}

func TestRegistry_GetMissingCompilerStrategyErrors(t *testing.T) {
	r := New()
	if _, err := r.GetCompilerStrategy("nope"); err == nil {
		t.Fatal("expected an error for a missing strategy")
	}
}

func TestRegistry_RegisterBuiltins(t *testing.T) {
	r := New()
	RegisterBuiltins(r)
	for _, name := range []string{"clang", "llvm", "gcc", "msvc"} {
		if !r.HasCompilerStrategy(name) {
			t.Errorf("expected builtin strategy %q to be registered", name)
		}
	}
	strategies := r.ListCompilerStrategies()
	if len(strategies) != 4 {
		t.Errorf("ListCompilerStrategies returned %d, want 4", len(strategies))
	}
}

func TestRegistry_ToolchainProvidersOrderPreserved(t *testing.T) {
	r := New()
	r.RegisterToolchainProvider(fakeProvider{id: "a"})
	r.RegisterToolchainProvider(fakeProvider{id: "b"})
	providers := r.ToolchainProviders()
	if len(providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(providers))
	}
	if providers[0].(fakeProvider).id != "a" || providers[1].(fakeProvider).id != "b" {
		t.Error("expected registration order preserved")
	}
}

func TestRegistry_Clear(t *testing.T) {
	r := New()
	RegisterBuiltins(r)
	r.RegisterToolchainProvider(fakeProvider{id: "a"})
	r.Clear()
	if len(r.ListCompilerStrategies()) != 0 {
		t.Error("expected compiler strategies cleared")
	}
	if len(r.ToolchainProviders()) != 0 {
		t.Error("expected toolchain providers cleared")
	}
}

type fakeProvider struct{ id string }

func (f fakeProvider) CanProvide(toolchainType, version string) bool { return true }
func (f fakeProvider) ProvideToolchain(toolchainType, version, platformString string, progress func(ProgressFrame)) (string, error) {
	return "/tmp/" + f.id, nil
}
func (f fakeProvider) GetToolchainID(toolchainType, version, platformString string) string {
	return f.id
}
