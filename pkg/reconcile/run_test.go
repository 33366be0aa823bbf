package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rigerrors "github.com/pcornish/rig/pkg/errors"
	"github.com/pcornish/rig/pkg/filesystem"
	"github.com/pcornish/rig/pkg/manifest"
	"github.com/pcornish/rig/pkg/types"
)

// fakeCommander serves canned output per command name.
type fakeCommander struct {
	outputs map[string][]byte
}

func (f *fakeCommander) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if out, ok := f.outputs[name]; ok {
		return out, nil
	}
	return nil, errors.New("command not found: " + name)
}

func (f *fakeCommander) Run(ctx context.Context, name string, args ...string) error {
	return nil
}

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{
		Packages: manifest.Packages{
			Base:  []string{"git", "zsh"},
			Extra: []string{"ripgrep"},
		},
		Dotfiles: []manifest.Mapping{
			{Source: "zsh/zshrc", Dest: "~/.zshrc", Mode: "symlink"},
			{Source: "git/gitconfig", Dest: "~/.gitconfig", Mode: "copy"},
		},
		Append: []manifest.Append{
			{Target: "~/.profile", Content: "# managed by rig\nexport PATH=$HOME/bin:$PATH"},
		},
		Sync: manifest.Sync{Source: "config"},
	}
}

func seedSources(t *testing.T, fs types.FS) {
	t.Helper()
	require.NoError(t, fs.WriteFile("/dotfiles/zsh/zshrc", []byte("export EDITOR=vim\n"), 0644))
	require.NoError(t, fs.WriteFile("/dotfiles/git/gitconfig", []byte("[user]\nname = p\n"), 0644))
	require.NoError(t, fs.WriteFile("/dotfiles/config/starship.toml", []byte("format = 'x'\n"), 0644))
}

func TestProbeWithoutManagerIsFatal(t *testing.T) {
	r := newTestReconciler(t, Options{})

	_, err := r.Probe(context.Background())
	require.Error(t, err)
	assert.True(t, rigerrors.IsErrorCode(err, rigerrors.ErrBootstrap))
}

func TestProbeFailureIsFatal(t *testing.T) {
	mgr := &fakeManager{name: "pacman", probeErr: errors.New("db locked")}
	r := newTestReconciler(t, Options{System: mgr})
	rep := types.NewReport()

	err := r.Run(context.Background(), testManifest(), rep)
	require.Error(t, err)
	assert.True(t, rigerrors.IsErrorCode(err, rigerrors.ErrBootstrap))
	assert.Equal(t, types.PhaseFailed, rep.Phase)
	assert.Equal(t, err, rep.Fatal)
}

func TestProbeMergesHelperSet(t *testing.T) {
	system := &fakeManager{name: "pacman", installed: types.InstalledSet{"git": true}}
	helper := &fakeManager{name: "yay", installed: types.InstalledSet{"ttf-custom": true}}
	r := newTestReconciler(t, Options{System: system, Helper: helper})

	installed, err := r.Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, installed.Has("git"))
	assert.True(t, installed.Has("ttf-custom"))
}

func TestBuildPlanOrdering(t *testing.T) {
	m := testManifest()
	m.Packages.Helper = []string{"ttf-custom"}

	r := newTestReconciler(t, Options{System: &fakeManager{name: "brew"}})
	plan, err := r.BuildPlan(context.Background(), m, types.InstalledSet{"zsh": true})
	require.NoError(t, err)

	var names []string
	for _, spec := range plan.AllPackages {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{"git", "zsh", "ripgrep", "ttf-custom"}, names)

	var missing []string
	for _, spec := range plan.MissingPackages {
		missing = append(missing, spec.Name)
	}
	assert.Equal(t, []string{"git", "ripgrep", "ttf-custom"}, missing)

	require.Len(t, plan.Mappings, 2)
	assert.Equal(t, types.ModeSymlink, plan.Mappings[0].Mode)
	require.Len(t, plan.Blocks, 1)
}

func TestBuildPlanGPUDrivers(t *testing.T) {
	m := testManifest()
	m.GPU.Drivers = true

	cmdr := &fakeCommander{outputs: map[string][]byte{
		"lspci": []byte(`00:02.0 "VGA compatible controller" "Intel Corporation" "UHD Graphics 630"`),
	}}

	r := newTestReconciler(t, Options{System: &fakeManager{name: "pacman"}, Commander: cmdr})
	plan, err := r.BuildPlan(context.Background(), m, types.InstalledSet{})
	require.NoError(t, err)

	var names []string
	for _, spec := range plan.AllPackages {
		names = append(names, spec.Name)
	}
	assert.Contains(t, names, "mesa")
}

func TestBuildPlanGPUDriversSkippedOnBrew(t *testing.T) {
	m := testManifest()
	m.GPU.Drivers = true

	r := newTestReconciler(t, Options{System: &fakeManager{name: "brew"}})
	plan, err := r.BuildPlan(context.Background(), m, types.InstalledSet{})
	require.NoError(t, err)

	assert.Len(t, plan.AllPackages, 3, "driver selection only applies on pacman hosts")
}

func TestRunConverges(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSources(t, fs)
	mgr := &fakeManager{name: "pacman", installed: types.InstalledSet{"git": true}}

	r := newTestReconciler(t, Options{FS: fs, System: mgr})
	rep := types.NewReport()

	require.NoError(t, r.Run(context.Background(), testManifest(), rep))

	assert.Equal(t, types.PhaseDone, rep.Phase)
	assert.False(t, rep.HasWarnings())
	assert.Equal(t, 2, rep.Installed) // zsh, ripgrep
	assert.Equal(t, 1, rep.Present)   // git
	assert.Equal(t, 1, rep.Linked)
	assert.Equal(t, 1, rep.Copied)
	assert.Equal(t, 1, rep.Appended)
	assert.Equal(t, 1, rep.Synced)
	assert.True(t, rep.Changed())

	target, err := fs.Readlink("/home/user/.zshrc")
	require.NoError(t, err)
	assert.Equal(t, "/dotfiles/zsh/zshrc", target)

	profile, err := fs.ReadFile("/home/user/.profile")
	require.NoError(t, err)
	assert.Equal(t, "# managed by rig\nexport PATH=$HOME/bin:$PATH\n", string(profile))

	synced, err := fs.ReadFile("/home/user/.config/starship.toml")
	require.NoError(t, err)
	assert.Equal(t, "format = 'x'\n", string(synced))
}

func TestRunIsIdempotent(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSources(t, fs)
	mgr := &fakeManager{name: "pacman"}
	m := testManifest()

	r := newTestReconciler(t, Options{FS: fs, System: mgr})

	first := types.NewReport()
	require.NoError(t, r.Run(context.Background(), m, first))
	assert.True(t, first.Changed())

	profileBefore, err := fs.ReadFile("/home/user/.profile")
	require.NoError(t, err)
	installCalls := len(mgr.installs)

	second := types.NewReport()
	require.NoError(t, r.Run(context.Background(), m, second))

	assert.False(t, second.Changed(), "second run over converged state must be a no-op")
	assert.False(t, second.HasWarnings())
	assert.Equal(t, installCalls, len(mgr.installs), "no further install calls")

	profileAfter, err := fs.ReadFile("/home/user/.profile")
	require.NoError(t, err)
	assert.Equal(t, string(profileBefore), string(profileAfter))
}

func TestRunNotifyReceivesWarnings(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSources(t, fs)
	// A regular file where the symlink should go yields a warning.
	require.NoError(t, fs.WriteFile("/home/user/.zshrc", []byte("precious"), 0644))

	r := newTestReconciler(t, Options{FS: fs, System: &fakeManager{name: "brew"}})
	rep := types.NewReport()

	var notified []types.Warning
	rep.Notify = func(w types.Warning) { notified = append(notified, w) }

	require.NoError(t, r.Run(context.Background(), testManifest(), rep))

	require.Len(t, notified, 1)
	assert.Equal(t, rep.Warnings, notified)
}

func TestMappingSatisfied(t *testing.T) {
	fs := filesystem.NewMemory()
	seedSources(t, fs)
	require.NoError(t, fs.Symlink("/dotfiles/zsh/zshrc", "/home/user/.zshrc"))

	r := newTestReconciler(t, Options{FS: fs})

	assert.True(t, r.MappingSatisfied(types.DotfileMapping{
		Source: "zsh/zshrc", Dest: "~/.zshrc", Mode: types.ModeSymlink,
	}))
	assert.False(t, r.MappingSatisfied(types.DotfileMapping{
		Source: "git/gitconfig", Dest: "~/.gitconfig", Mode: types.ModeCopy,
	}))

	require.NoError(t, fs.WriteFile("/home/user/.gitconfig", []byte("[user]\nname = p\n"), 0644))
	assert.True(t, r.MappingSatisfied(types.DotfileMapping{
		Source: "git/gitconfig", Dest: "~/.gitconfig", Mode: types.ModeCopy,
	}))
}

func TestBlockSatisfied(t *testing.T) {
	fs := filesystem.NewMemory()
	r := newTestReconciler(t, Options{FS: fs})
	block := types.AppendBlock{Target: "~/.profile", Content: "# managed by rig\nexport X=1"}

	assert.False(t, r.BlockSatisfied(block))

	require.NoError(t, fs.WriteFile("/home/user/.profile", []byte("# managed by rig\nexport X=1\n"), 0644))
	assert.True(t, r.BlockSatisfied(block))
}
