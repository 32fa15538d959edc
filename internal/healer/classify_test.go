package healer

import "testing"

func TestClassify_PythonModuleNotFound(t *testing.T) {
	d := Classify("Traceback (most recent call last):\nModuleNotFoundError: No module named 'requests'\n")
	if d.Remedy != RemedyPipInstall || d.Arg != "requests" {
		t.Fatalf("expected pip_install requests, got %+v", d)
	}
	if d.Fatal {
		t.Fatal("pip install remedy should not be fatal")
	}
}

func TestClassify_NodeModuleNotFound(t *testing.T) {
	d := Classify("Error: Cannot find module 'lodash'\n    at Function.Module._resolveFilename")
	if d.Remedy != RemedyNpmInstall || d.Arg != "lodash" {
		t.Fatalf("expected npm_install lodash, got %+v", d)
	}
}

func TestClassify_AddressInUse(t *testing.T) {
	d := Classify("Error: listen EADDRINUSE: address already in use :::3000")
	if d.Remedy != RemedyFreePort {
		t.Fatalf("expected free_port remedy, got %+v", d)
	}
}

func TestClassify_SyntaxErrorIsFatal(t *testing.T) {
	d := Classify("  File \"app.py\", line 4\n    def foo(:\n            ^\nSyntaxError: invalid syntax")
	if !d.Fatal || d.Remedy != RemedyNone {
		t.Fatalf("expected a fatal, non-retriable diagnosis, got %+v", d)
	}
}

func TestClassify_UnknownFailureIsNotFatalButUnremedied(t *testing.T) {
	d := Classify("panic: runtime error: index out of range [3] with length 2")
	if d.Fatal {
		t.Fatal("an unknown failure should not itself be marked fatal; the caller decides retry policy")
	}
	if d.Remedy != RemedyNone {
		t.Fatalf("expected no remedy for an unclassified failure, got %+v", d)
	}
}

func TestClassify_FindsMatchAtEndOfLongStderr(t *testing.T) {
	var sb []byte
	for i := 0; i < 300; i++ {
		sb = append(sb, []byte("noise line\n")...)
	}
	sb = append(sb, []byte("ModuleNotFoundError: No module named 'flask'\n")...)
	d := Classify(string(sb))
	if d.Remedy != RemedyPipInstall || d.Arg != "flask" {
		t.Fatalf("expected the match within the tail window to still be found, got %+v", d)
	}
}
