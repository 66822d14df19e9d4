package cmd

import "testing"

func TestParseEnvFlags(t *testing.T) {
	env, err := parseEnvFlags([]string{"CC=clang", "CXX=clang++"})
	if err != nil {
		t.Fatal(err)
	}
	if env["CC"] != "clang" || env["CXX"] != "clang++" {
		t.Errorf("parseEnvFlags = %+v, want CC=clang CXX=clang++", env)
	}
}

func TestParseEnvFlags_Empty(t *testing.T) {
	env, err := parseEnvFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if env != nil {
		t.Errorf("parseEnvFlags(nil) = %+v, want nil", env)
	}
}

func TestParseEnvFlags_InvalidEntry(t *testing.T) {
	if _, err := parseEnvFlags([]string{"NOEQUALSSIGN"}); err == nil {
		t.Fatal("expected an error for an entry without '='")
	}
}
