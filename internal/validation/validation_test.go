package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePackageName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple name", input: "git", wantErr: nil},
		{name: "group", input: "base-devel", wantErr: nil},
		{name: "lib32", input: "lib32-nvidia-utils", wantErr: nil},
		{name: "with plus", input: "gtk+", wantErr: nil},
		{name: "with dot", input: "python3.12", wantErr: nil},
		{name: "numeric start", input: "7zip", wantErr: nil},

		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "with semicolon", input: "git;rm -rf", wantErr: ErrInvalidPackageName},
		{name: "with pipe", input: "git|cat", wantErr: ErrInvalidPackageName},
		{name: "with dollar", input: "git$PATH", wantErr: ErrInvalidPackageName},
		{name: "with space", input: "git repo", wantErr: ErrInvalidPackageName},
		{name: "flag", input: "--overwrite", wantErr: ErrInvalidPackageName},
		{name: "too long", input: strings.Repeat("a", 300), wantErr: ErrInvalidPackageName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePackageName(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePackageNames(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePackageNames([]string{"hyprland", "waybar"}))
	require.ErrorIs(t, ValidatePackageNames([]string{"hyprland", "-Rns"}), ErrInvalidPackageName)
}

func TestValidateServiceName(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"sddm", "NetworkManager.service", "getty@tty1.service", "fstrim.timer", "bluetooth"} {
		assert.NoError(t, ValidateServiceName(ok), ok)
	}
	for _, bad := range []string{"", "-now", "sddm; reboot", "a b"} {
		assert.Error(t, ValidateServiceName(bad), bad)
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"alice", "_build", "bob-2", "machine$"} {
		assert.NoError(t, ValidateUsername(ok), ok)
	}
	for _, bad := range []string{"", "Alice", "1bob", "root;id", strings.Repeat("a", 33)} {
		assert.Error(t, ValidateUsername(bad), bad)
	}
}

func TestValidateShell(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateShell("/usr/bin/zsh"))
	require.ErrorIs(t, ValidateShell("zsh"), ErrInvalidShell)
	require.ErrorIs(t, ValidateShell("/bin/sh;id"), ErrCommandInjection)
	require.ErrorIs(t, ValidateShell("/usr/../tmp/sh"), ErrPathTraversal)
	require.ErrorIs(t, ValidateShell(""), ErrEmptyInput)
}

func TestValidateKernelModule(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"nvidia", "nvidia_modeset", "nvidia_uvm", "nvidia-drm"} {
		assert.NoError(t, ValidateKernelModule(ok), ok)
	}
	assert.ErrorIs(t, ValidateKernelModule("nvidia drm"), ErrInvalidModule)
	assert.ErrorIs(t, ValidateKernelModule(")"), ErrInvalidModule)
}

func TestValidateModprobeOption(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateModprobeOption("options nvidia_drm modeset=1"))
	require.NoError(t, ValidateModprobeOption("options nvidia_drm modeset=1 fbdev=1"))
	require.ErrorIs(t, ValidateModprobeOption("blacklist nouveau"), ErrInvalidModprobe)
	require.ErrorIs(t, ValidateModprobeOption("options nvidia_drm"), ErrInvalidModprobe)
}

func TestValidateCountry(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateCountry("DE"))
	require.NoError(t, ValidateCountry("United States"))
	require.ErrorIs(t, ValidateCountry("DE;id"), ErrInvalidCountry)
}

func TestValidateRepoURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"https", "https://github.com/alice/dotfiles.git", nil},
		{"https without suffix", "https://aur.archlinux.org/yay.git", nil},
		{"ssh", "git@github.com:alice/dotfiles.git", nil},
		{"ssh protocol", "ssh://git@github.com/alice/dotfiles.git", nil},
		{"local path", "/srv/git/dotfiles", nil},
		{"github shorthand", "alice", nil},
		{"github user/repo", "alice/dotfiles", nil},

		{"empty", "", ErrEmptyInput},
		{"semicolon", "https://evil.example/repo.git; rm -rf /", ErrCommandInjection},
		{"backtick", "https://evil.example/`id`.git", ErrCommandInjection},
		{"ftp", "ftp://evil.example/repo", ErrInvalidRepoURL},
		{"too long", "https://github.com/" + strings.Repeat("a", 2048), ErrInvalidRepoURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateRepoURL(tt.url)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatePath(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidatePath("/etc/modprobe.d/nvidia.conf"))
	require.ErrorIs(t, ValidatePath("/etc/../../root"), ErrPathTraversal)
	require.ErrorIs(t, ValidatePath("/etc/%2e%2e/shadow"), ErrPathTraversal)
	require.ErrorIs(t, ValidatePath("a\x00b"), ErrInvalidPath)
	require.ErrorIs(t, ValidatePath(""), ErrEmptyInput)
}
