package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/ofirbed/DataTaggingLibrary/pkg/model"
	"github.com/ofirbed/DataTaggingLibrary/pkg/pml"
	pmlErrors "github.com/ofirbed/DataTaggingLibrary/pkg/pml/errors"
)

// Git source defaults.
const (
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitTimeout      = 30 * time.Second
)

// GitConfig describes a model file kept in a git repository.
type GitConfig struct {
	// Repository is the clone URL or a local path.
	Repository string
	Branch     string

	// Path is the model file, relative to the repository root.
	Path string

	// LocalPath is where the repository is cloned. An existing clone is
	// reused.
	LocalPath string

	// Depth makes a shallow clone when positive.
	Depth int

	PollInterval time.Duration
	Timeout      time.Duration
	Auth         GitAuth
}

// GitAuth selects the transport credentials: "none", "token" or "ssh".
type GitAuth struct {
	Type             string
	Token            string
	SSHKeyPath       string
	SSHKeyPassphrase string
}

func (a GitAuth) method() (transport.AuthMethod, error) {
	switch a.Type {
	case "", "none":
		return nil, nil
	case "token":
		if a.Token == "" {
			return nil, errors.New("token auth requires a token")
		}
		// Hosts ignore the user name for token auth.
		return &http.BasicAuth{Username: "git", Password: a.Token}, nil
	case "ssh":
		if a.SSHKeyPath == "" {
			return nil, errors.New("ssh auth requires a key path")
		}
		info, err := os.Stat(a.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access SSH key file: %w", err)
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
		}
		auth, err := ssh.NewPublicKeysFromFile("git", a.SSHKeyPath, a.SSHKeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return auth, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", a.Type)
	}
}

// GitSource loads a model from a clone of a git repository and polls the
// remote branch for new commits.
type GitSource struct {
	cfg    GitConfig
	auth   transport.AuthMethod
	logger *slog.Logger
	opts   []pml.Option

	mu   sync.Mutex
	repo *gogit.Repository
}

// NewGitSource creates a git model source. Nothing is cloned until Load.
func NewGitSource(cfg GitConfig, logger *slog.Logger, opts ...pml.Option) (*GitSource, error) {
	if cfg.Repository == "" {
		return nil, errors.New("repository cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, errors.New("branch cannot be empty")
	}
	if cfg.Path == "" {
		return nil, errors.New("model path cannot be empty")
	}
	auth, err := cfg.Auth.method()
	if err != nil {
		return nil, fmt.Errorf("invalid git auth: %w", err)
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), "policymodels-git")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultGitPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGitTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{
		cfg:    cfg,
		auth:   auth,
		logger: logger,
		opts:   append([]pml.Option{pml.WithLogger(logger)}, opts...),
	}, nil
}

// Name returns repository@branch:path.
func (s *GitSource) Name() string {
	return fmt.Sprintf("%s@%s:%s", s.cfg.Repository, s.cfg.Branch, s.cfg.Path)
}

// Load clones the repository if needed and compiles the model file at the
// checked out commit.
func (s *GitSource) Load(ctx context.Context) (*model.Model, []*pmlErrors.Error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(ctx); err != nil {
		return nil, nil, err
	}
	return s.compile()
}

// Head returns the checked out commit, or "" before the first Load.
func (s *GitSource) Head() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo == nil {
		return ""
	}
	ref, err := s.repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

func (s *GitSource) compile() (*model.Model, []*pmlErrors.Error, error) {
	file := filepath.Join(s.cfg.LocalPath, filepath.FromSlash(s.cfg.Path))
	m, warnings, err := pml.Load(file, s.opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model %q: %w", s.Name(), err)
	}
	s.logger.Debug("loaded model from git",
		"source", s.Name(),
		"version", m.Version(),
		"warnings", len(warnings),
	)
	return m, warnings, nil
}

// open opens an existing clone or clones the repository.
func (s *GitSource) open(ctx context.Context) error {
	if s.repo != nil {
		return nil
	}
	if _, err := os.Stat(filepath.Join(s.cfg.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(s.cfg.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		s.repo = repo
		return nil
	}
	if err := os.MkdirAll(s.cfg.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	start := time.Now()
	repo, err := gogit.PlainCloneContext(cloneCtx, s.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           s.cfg.Repository,
		Auth:          s.auth,
		ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
		SingleBranch:  s.cfg.Depth > 0,
		Depth:         s.cfg.Depth,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", s.cfg.Repository, err)
	}
	s.repo = repo
	s.logger.Info("cloned model repository",
		"repository", s.cfg.Repository,
		"branch", s.cfg.Branch,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Watch polls the remote branch and sends an event whenever a new commit
// changes the model file.
func (s *GitSource) Watch(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	err := s.open(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 1)
	go func() {
		defer close(events)
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			ev, ok := s.poll(ctx)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Info("watching model repository", "source", s.Name(), "poll_interval", s.cfg.PollInterval)
	return events, nil
}

// poll pulls the branch. It reports an event when the pull failed or the
// model file changed.
func (s *GitSource) poll(ctx context.Context) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.pull(ctx)
	if err != nil {
		return Event{Err: err, Time: time.Now()}, true
	}
	if !changed {
		return Event{}, false
	}
	m, warnings, err := s.compile()
	return Event{Model: m, Warnings: warnings, Err: err, Time: time.Now()}, true
}

// pull fast-forwards the clone and reports whether the model file changed.
func (s *GitSource) pull(ctx context.Context) (bool, error) {
	before, err := s.repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to read HEAD: %w", err)
	}
	worktree, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(s.cfg.Branch),
		Auth:          s.auth,
	})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to pull %s: %w", s.cfg.Repository, err)
	}

	after, err := s.repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to read HEAD: %w", err)
	}
	if after.Hash() == before.Hash() {
		return false, nil
	}
	files, err := s.changedFiles(before.Hash(), after.Hash())
	if err != nil {
		return false, err
	}
	want := path.Clean(filepath.ToSlash(s.cfg.Path))
	for _, f := range files {
		if f == want {
			s.logger.Info("model file changed upstream",
				"source", s.Name(),
				"from", before.Hash().String()[:8],
				"to", after.Hash().String()[:8],
			)
			return true, nil
		}
	}
	s.logger.Debug("new commit does not touch the model", "source", s.Name(), "commit", after.Hash().String()[:8])
	return false, nil
}

func (s *GitSource) changedFiles(from, to plumbing.Hash) ([]string, error) {
	fromCommit, err := s.repo.CommitObject(from)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", from, err)
	}
	toCommit, err := s.repo.CommitObject(to)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", to, err)
	}
	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	var files []string
	for _, c := range changes {
		if c.To.Name != "" {
			files = append(files, c.To.Name)
		} else if c.From.Name != "" {
			files = append(files, c.From.Name)
		}
	}
	return files, nil
}
