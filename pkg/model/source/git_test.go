package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// gitRepo is an upstream repository the tests commit to.
type gitRepo struct {
	t    *testing.T
	dir  string
	repo *gogit.Repository
}

func newGitRepo(t *testing.T) *gitRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	return &gitRepo{t: t, dir: dir, repo: repo}
}

func (r *gitRepo) commit(file string, data []byte) {
	r.t.Helper()
	full := filepath.Join(r.dir, file)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		r.t.Fatal(err)
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatal(err)
	}
	if _, err := wt.Add(file); err != nil {
		r.t.Fatalf("failed to add %s: %v", file, err)
	}
	_, err = wt.Commit("update "+file, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		r.t.Fatalf("failed to commit: %v", err)
	}
}

func (r *gitRepo) source(t *testing.T) *GitSource {
	t.Helper()
	src, err := NewGitSource(GitConfig{
		Repository: r.dir,
		Branch:     "master", // go-git init creates "master"
		Path:       "models/model.yaml",
		LocalPath:  t.TempDir(),
		Timeout:    10 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewGitSource() error = %v", err)
	}
	return src
}

func TestNewGitSource(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GitConfig
		wantErr string
	}{
		{name: "no repository", cfg: GitConfig{Branch: "main", Path: "m.yaml"}, wantErr: "repository"},
		{name: "no branch", cfg: GitConfig{Repository: "https://example.com/r.git", Path: "m.yaml"}, wantErr: "branch"},
		{name: "no path", cfg: GitConfig{Repository: "https://example.com/r.git", Branch: "main"}, wantErr: "model path"},
		{
			name:    "token without token",
			cfg:     GitConfig{Repository: "https://example.com/r.git", Branch: "main", Path: "m.yaml", Auth: GitAuth{Type: "token"}},
			wantErr: "requires a token",
		},
		{
			name:    "missing ssh key",
			cfg:     GitConfig{Repository: "git@example.com:r.git", Branch: "main", Path: "m.yaml", Auth: GitAuth{Type: "ssh", SSHKeyPath: "/nonexistent/id_ed25519"}},
			wantErr: "SSH key",
		},
		{
			name:    "unknown auth",
			cfg:     GitConfig{Repository: "https://example.com/r.git", Branch: "main", Path: "m.yaml", Auth: GitAuth{Type: "kerberos"}},
			wantErr: "unknown auth type",
		},
		{
			name: "token",
			cfg:  GitConfig{Repository: "https://example.com/r.git", Branch: "main", Path: "m.yaml", Auth: GitAuth{Type: "token", Token: "secret"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewGitSource(tt.cfg, nil)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewGitSource() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewGitSource() error = %v", err)
			}
			if src.cfg.PollInterval != DefaultGitPollInterval || src.cfg.Timeout != DefaultGitTimeout {
				t.Errorf("defaults not applied: %+v", src.cfg)
			}
			if want := "https://example.com/r.git@main:m.yaml"; src.Name() != want {
				t.Errorf("Name() = %q, want %q", src.Name(), want)
			}
		})
	}
}

func TestGitSource_Load(t *testing.T) {
	upstream := newGitRepo(t)
	upstream.commit("models/model.yaml", modelYAML("1"))
	src := upstream.source(t)

	if src.Head() != "" {
		t.Errorf("Head() before Load = %q, want empty", src.Head())
	}
	m, _, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Version() != "1" {
		t.Errorf("Version() = %q, want 1", m.Version())
	}
	if len(src.Head()) != 40 {
		t.Errorf("Head() = %q, want a commit hash", src.Head())
	}
}

func TestGitSource_CloneFailure(t *testing.T) {
	src, err := NewGitSource(GitConfig{
		Repository: filepath.Join(t.TempDir(), "missing"),
		Branch:     "main",
		Path:       "model.yaml",
		LocalPath:  t.TempDir(),
		Timeout:    5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := src.Load(context.Background()); err == nil {
		t.Fatal("Load() of a missing repository succeeded")
	}
}

func TestGitSource_Poll(t *testing.T) {
	upstream := newGitRepo(t)
	upstream.commit("models/model.yaml", modelYAML("1"))
	src := upstream.source(t)
	ctx := context.Background()
	if _, _, err := src.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, ok := src.poll(ctx); ok {
		t.Fatal("poll() reported an event without new commits")
	}

	upstream.commit("README.md", []byte("models\n"))
	if _, ok := src.poll(ctx); ok {
		t.Error("poll() reported an event for a commit that does not touch the model")
	}

	upstream.commit("models/model.yaml", modelYAML("2"))
	ev, ok := src.poll(ctx)
	if !ok {
		t.Fatal("poll() missed the model change")
	}
	if ev.Err != nil {
		t.Fatalf("event error = %v", ev.Err)
	}
	if ev.Model.Version() != "2" {
		t.Errorf("Version() = %q, want 2", ev.Model.Version())
	}

	upstream.commit("models/model.yaml", []byte("graph: [\n"))
	ev, ok = src.poll(ctx)
	if !ok || ev.Err == nil {
		t.Errorf("poll() = %+v, %v; want a compile error", ev, ok)
	}
}

func TestGitSource_Manager(t *testing.T) {
	upstream := newGitRepo(t)
	upstream.commit("models/model.yaml", modelYAML("1"))
	src, err := NewGitSource(GitConfig{
		Repository:   upstream.dir,
		Branch:       "master",
		Path:         "models/model.yaml",
		LocalPath:    t.TempDir(),
		PollInterval: 20 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr := NewManager(src, nil)
	if err := mgr.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- mgr.Watch(ctx) }()

	upstream.commit("models/model.yaml", modelYAML("2"))
	if !waitFor(t, 5*time.Second, func() bool { return mgr.Current().Version() == "2" }) {
		t.Fatalf("Version() = %q after upstream change, want 2", mgr.Current().Version())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
