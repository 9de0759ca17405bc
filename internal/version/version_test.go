package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() {
		Version, Commit = origVersion, origCommit
	}()

	Version = "1.2.0"
	Commit = "abc1234"

	if got, want := String(), "1.2.0 (abc1234)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestUserAgent(t *testing.T) {
	origVersion := Version
	defer func() { Version = origVersion }()

	Version = "dev"
	if got, want := UserAgent(), "exchangectl/dev"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
